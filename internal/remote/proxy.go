package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/OCAP2/mapshim/internal/markup"
	"github.com/OCAP2/mapshim/pkg/core"
)

// ErrRemote wraps every failure on the remote side or in the transport.
var ErrRemote = errors.New("remote call failed")

// Proxy is the client side of a remote marker delegate.
type Proxy struct {
	t Transport
}

var _ markup.Peer = (*Proxy)(nil)

// NewProxy returns a proxy that sends calls over t.
func NewProxy(t Transport) *Proxy {
	return &Proxy{t: t}
}

func (p *Proxy) call(ctx context.Context, code uint32, args any, reply any) error {
	var data []byte
	if args != nil {
		var err error
		data, err = msgpack.Marshal(args)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", CodeName(code), err)
		}
	}
	out, err := p.t.Transact(ctx, code, data)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRemote, CodeName(code), err)
	}
	if reply == nil {
		return nil
	}
	if err := msgpack.Unmarshal(out, reply); err != nil {
		return fmt.Errorf("decoding %s reply: %w", CodeName(code), err)
	}
	return nil
}

func getValue[T any](ctx context.Context, p *Proxy, code uint32) (T, error) {
	var v T
	err := p.call(ctx, code, nil, &v)
	return v, err
}

func (p *Proxy) Remove(ctx context.Context) error {
	return p.call(ctx, CodeRemove, nil, nil)
}

func (p *Proxy) ID(ctx context.Context) (string, error) {
	return getValue[string](ctx, p, CodeGetID)
}

// RemoteID lets a proxy act as a Peer.
func (p *Proxy) RemoteID() (string, error) {
	return p.ID(context.Background())
}

func (p *Proxy) SetPosition(ctx context.Context, pos core.LatLng) error {
	return p.call(ctx, CodeSetPosition, pos, nil)
}

func (p *Proxy) Position(ctx context.Context) (core.LatLng, error) {
	return getValue[core.LatLng](ctx, p, CodeGetPosition)
}

func (p *Proxy) SetTitle(ctx context.Context, title string) error {
	return p.call(ctx, CodeSetTitle, title, nil)
}

func (p *Proxy) Title(ctx context.Context) (string, error) {
	return getValue[string](ctx, p, CodeGetTitle)
}

func (p *Proxy) SetSnippet(ctx context.Context, snippet string) error {
	return p.call(ctx, CodeSetSnippet, snippet, nil)
}

func (p *Proxy) Snippet(ctx context.Context) (string, error) {
	return getValue[string](ctx, p, CodeGetSnippet)
}

func (p *Proxy) SetDraggable(ctx context.Context, draggable bool) error {
	return p.call(ctx, CodeSetDraggable, draggable, nil)
}

func (p *Proxy) IsDraggable(ctx context.Context) (bool, error) {
	return getValue[bool](ctx, p, CodeIsDraggable)
}

func (p *Proxy) ShowInfoWindow(ctx context.Context) error {
	return p.call(ctx, CodeShowInfoWindow, nil, nil)
}

func (p *Proxy) HideInfoWindow(ctx context.Context) error {
	return p.call(ctx, CodeHideInfoWindow, nil, nil)
}

func (p *Proxy) IsInfoWindowShown(ctx context.Context) (bool, error) {
	return getValue[bool](ctx, p, CodeIsInfoWindowShown)
}

func (p *Proxy) SetVisible(ctx context.Context, visible bool) error {
	return p.call(ctx, CodeSetVisible, visible, nil)
}

func (p *Proxy) IsVisible(ctx context.Context) (bool, error) {
	return getValue[bool](ctx, p, CodeIsVisible)
}

// EqualsRemote sends the peer's id. A nil peer goes across as nil; a peer
// whose id cannot be read is reported not-equal without a call.
func (p *Proxy) EqualsRemote(ctx context.Context, other markup.Peer) (bool, error) {
	var id *string
	if other != nil {
		v, err := other.RemoteID()
		if err != nil {
			return false, nil
		}
		id = &v
	}
	var equal bool
	err := p.call(ctx, CodeEqualsRemote, id, &equal)
	return equal, err
}

func (p *Proxy) HashCodeRemote(ctx context.Context) (int32, error) {
	return getValue[int32](ctx, p, CodeHashCodeRemote)
}

// SetIcon sends icon; an in-memory bitmap is re-encoded as PNG bytes.
// A nil icon selects the default pin on the remote side.
func (p *Proxy) SetIcon(ctx context.Context, icon *core.BitmapDescriptor) error {
	if icon != nil && icon.Kind == core.BitmapImage {
		wire, err := encodeImage(icon)
		if err != nil {
			return err
		}
		icon = wire
	}
	return p.call(ctx, CodeSetIcon, icon, nil)
}

func encodeImage(icon *core.BitmapDescriptor) (*core.BitmapDescriptor, error) {
	if icon.Image == nil {
		return nil, fmt.Errorf("encoding icon: empty bitmap")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, icon.Image); err != nil {
		return nil, fmt.Errorf("encoding icon: %w", err)
	}
	wire := core.FromBytes(buf.Bytes())
	return &wire, nil
}

func (p *Proxy) SetAnchor(ctx context.Context, u, v float32) error {
	return p.call(ctx, CodeSetAnchor, anchorArgs{U: u, V: v}, nil)
}

func (p *Proxy) SetFlat(ctx context.Context, flat bool) error {
	return p.call(ctx, CodeSetFlat, flat, nil)
}

func (p *Proxy) IsFlat(ctx context.Context) (bool, error) {
	return getValue[bool](ctx, p, CodeIsFlat)
}

func (p *Proxy) SetRotation(ctx context.Context, rotation float32) error {
	return p.call(ctx, CodeSetRotation, rotation, nil)
}

func (p *Proxy) Rotation(ctx context.Context) (float32, error) {
	return getValue[float32](ctx, p, CodeGetRotation)
}

func (p *Proxy) SetInfoWindowAnchor(ctx context.Context, u, v float32) error {
	return p.call(ctx, CodeSetInfoWindowAnchor, anchorArgs{U: u, V: v}, nil)
}

func (p *Proxy) SetAlpha(ctx context.Context, alpha float32) error {
	return p.call(ctx, CodeSetAlpha, alpha, nil)
}

func (p *Proxy) Alpha(ctx context.Context) (float32, error) {
	return getValue[float32](ctx, p, CodeGetAlpha)
}
