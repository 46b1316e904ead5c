package markup

import (
	"errors"

	"github.com/OCAP2/mapshim/internal/bitmap"
	"github.com/OCAP2/mapshim/internal/render"
	"github.com/OCAP2/mapshim/pkg/core"
)

var errNilMarker = errors.New("nil marker")

// Delegate is the marker capability exposed to API clients.
type Delegate interface {
	Remove()
	ID() string
	SetPosition(pos core.LatLng)
	Position() core.LatLng
	SetTitle(title string)
	Title() string
	SetSnippet(snippet string)
	Snippet() string
	SetDraggable(draggable bool)
	IsDraggable() bool
	ShowInfoWindow()
	HideInfoWindow()
	IsInfoWindowShown() bool
	SetVisible(visible bool)
	IsVisible() bool
	EqualsRemote(other Peer) bool
	HashCodeRemote() int32
	SetIcon(icon *core.BitmapDescriptor)
	SetAnchor(u, v float32)
	SetFlat(flat bool)
	IsFlat() bool
	SetRotation(rotation float32)
	Rotation() float32
	SetInfoWindowAnchor(u, v float32)
	SetAlpha(alpha float32)
	Alpha() float32
}

var (
	_ Delegate = (*Marker)(nil)
	_ Markup   = (*Marker)(nil)
	_ Peer     = (*Marker)(nil)
)

// Marker holds the presentation state of one map marker.
// It is not synchronized: every method must run on the map's owner goroutine.
type Marker struct {
	id       string
	listener Listener

	position         core.LatLng
	title            string
	snippet          string
	anchor           core.Anchor
	infoWindowAnchor core.Anchor
	draggable        bool
	flat             bool
	visible          bool
	rotation         float32
	alpha            float32

	icon          *bitmap.Descriptor
	iconRequested bool
}

// New creates a marker. Nil opts means defaults; a nil position means (0,0).
func New(id string, opts *core.MarkerOptions, listener Listener) *Marker {
	if opts == nil {
		opts = core.NewMarkerOptions()
	}
	m := &Marker{
		id:               id,
		listener:         listener,
		title:            opts.Title,
		snippet:          opts.Snippet,
		anchor:           opts.Anchor,
		infoWindowAnchor: opts.InfoWindowAnchor,
		draggable:        opts.Draggable,
		flat:             opts.Flat,
		visible:          opts.Visible,
		rotation:         opts.Rotation,
		alpha:            opts.Alpha,
	}
	if opts.Position != nil {
		m.position = *opts.Position
	}
	if opts.Icon != nil {
		m.icon = bitmap.New(*opts.Icon)
	}
	return m
}

// Remove asks the listener to remove the marker. The marker itself is unchanged.
func (m *Marker) Remove() {
	m.listener.OnRemove(m)
}

func (m *Marker) ID() string { return m.id }
func (m *Marker) Type() Type { return TypeMarker }

// RemoteID lets a local marker act as a Peer.
func (m *Marker) RemoteID() (string, error) {
	if m == nil {
		return "", errNilMarker
	}
	return m.id, nil
}

func (m *Marker) SetPosition(pos core.LatLng) {
	m.position = pos
	m.listener.OnUpdate(m)
}

func (m *Marker) Position() core.LatLng { return m.position }

func (m *Marker) SetTitle(title string) {
	m.title = title
	m.listener.OnUpdate(m)
}

func (m *Marker) Title() string { return m.title }

// SetSnippet does not notify the listener.
func (m *Marker) SetSnippet(snippet string) {
	m.snippet = snippet
}

func (m *Marker) Snippet() string { return m.snippet }

// SetDraggable does not notify the listener.
func (m *Marker) SetDraggable(draggable bool) {
	m.draggable = draggable
}

func (m *Marker) IsDraggable() bool { return m.draggable }

// Info windows are not tracked.
func (m *Marker) ShowInfoWindow()         {}
func (m *Marker) HideInfoWindow()         {}
func (m *Marker) IsInfoWindowShown() bool { return false }

// SetVisible does not notify the listener.
func (m *Marker) SetVisible(visible bool) {
	m.visible = visible
}

func (m *Marker) IsVisible() bool { return m.visible }

// Equals compares markers by id.
func (m *Marker) Equals(other *Marker) bool {
	return other != nil && other.id == m.id
}

// EqualsRemote compares by id. A nil or unreachable peer is never equal.
func (m *Marker) EqualsRemote(other Peer) bool {
	if other == nil {
		return false
	}
	id, err := other.RemoteID()
	if err != nil {
		return false
	}
	return id == m.id
}

// HashCode is derived from the id only.
func (m *Marker) HashCode() int32 { return javaHash(m.id) }

func (m *Marker) HashCodeRemote() int32 { return m.HashCode() }

// SetIcon replaces the owned icon and releases the previous one.
// A nil icon selects the default pin.
func (m *Marker) SetIcon(icon *core.BitmapDescriptor) {
	if m.icon != nil {
		m.icon.Release()
	}
	if icon == nil {
		m.icon = bitmap.Default()
	} else {
		m.icon = bitmap.New(*icon)
	}
	m.iconRequested = false
	m.listener.OnUpdate(m)
}

// Icon returns the owned icon, or nil.
func (m *Marker) Icon() *bitmap.Descriptor { return m.icon }

// IconLoading reports whether the owned icon is still being decoded.
func (m *Marker) IconLoading() bool {
	return m.icon != nil && m.icon.Loading()
}

func (m *Marker) SetAnchor(u, v float32) {
	m.anchor = core.Anchor{U: u, V: v}
	m.listener.OnUpdate(m)
}

func (m *Marker) Anchor() core.Anchor { return m.anchor }

func (m *Marker) SetFlat(flat bool) {
	m.flat = flat
	m.listener.OnUpdate(m)
}

func (m *Marker) IsFlat() bool { return m.flat }

func (m *Marker) SetRotation(rotation float32) {
	m.rotation = rotation
	m.listener.OnUpdate(m)
}

func (m *Marker) Rotation() float32 { return m.rotation }

// SetInfoWindowAnchor does not notify the listener.
func (m *Marker) SetInfoWindowAnchor(u, v float32) {
	m.infoWindowAnchor = core.Anchor{U: u, V: v}
}

func (m *Marker) InfoWindowAnchor() core.Anchor { return m.infoWindowAnchor }

func (m *Marker) SetAlpha(alpha float32) {
	m.alpha = alpha
	m.listener.OnUpdate(m)
}

func (m *Marker) Alpha() float32 { return m.alpha }

// Height returns the decoded icon height in pixels, or -1 while unknown.
func (m *Marker) Height() int {
	if m.icon == nil {
		return -1
	}
	bm := m.icon.Bitmap()
	if bm == nil {
		return -1
	}
	return bm.Bounds().Dy()
}

// RenderItem builds a fresh renderer item from the current state.
// If the icon is not decoded yet the item has no symbol, a decode is started and
// the listener is notified once it finishes so the caller can ask again.
func (m *Marker) RenderItem(ctx bitmap.Context) *render.MarkerItem {
	item := render.NewMarkerItem(m.id, m.title, m.snippet, render.FromLatLng(m.position))
	if m.icon == nil {
		return item
	}
	if bm := m.icon.Bitmap(); bm != nil {
		item.SetMarker(render.NewMarkerSymbol(bm, m.anchor.U, m.anchor.V, !m.flat))
		return item
	}
	if m.iconRequested {
		return item
	}
	m.iconRequested = true
	icon := m.icon
	icon.LoadBitmapAsync(ctx, func() {
		// the icon was replaced while decoding
		if m.icon != icon {
			return
		}
		m.listener.OnUpdate(m)
	})
	return item
}

// Layer is always nil: markers are drawn by their collection's shared layer.
func (m *Marker) Layer(ctx bitmap.Context, mp render.Map) render.Layer {
	return nil
}
