package remote

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/OCAP2/mapshim/internal/dispatcher"
	"github.com/OCAP2/mapshim/internal/markup"
	"github.com/OCAP2/mapshim/pkg/core"
)

// Executor runs fn on the goroutine that owns the delegate and waits for it.
type Executor interface {
	Sync(ctx context.Context, fn func()) error
}

// Transport carries one transaction to the remote side and returns its reply.
type Transport interface {
	Transact(ctx context.Context, code uint32, data []byte) ([]byte, error)
}

// Stub serves a Delegate to remote callers.
type Stub struct {
	delegate markup.Delegate
	exec     Executor
	d        *dispatcher.Dispatcher
}

var _ Transport = (*Stub)(nil)

// anchorArgs is the payload of setAnchor and setInfoWindowAnchor.
type anchorArgs struct {
	U float32 `msgpack:"u"`
	V float32 `msgpack:"v"`
}

// idPeer is a peer known only by its id.
type idPeer string

func (p idPeer) RemoteID() (string, error) { return string(p), nil }

// NewStub registers a handler for every transaction code.
// Setters are logged at debug level, getters are not.
func NewStub(delegate markup.Delegate, exec Executor, logger dispatcher.Logger) (*Stub, error) {
	d, err := dispatcher.New(logger)
	if err != nil {
		return nil, fmt.Errorf("creating dispatcher: %w", err)
	}
	s := &Stub{delegate: delegate, exec: exec, d: d}
	s.registerHandlers()
	for code, name := range codeNames {
		if !d.HasHandler(code) {
			return nil, fmt.Errorf("no handler for %s (%d)", name, code)
		}
	}
	return s, nil
}

// Transact decodes and dispatches one transaction.
func (s *Stub) Transact(ctx context.Context, code uint32, data []byte) ([]byte, error) {
	return s.d.Dispatch(ctx, dispatcher.Event{Code: code, Data: data})
}

func (s *Stub) registerHandlers() {
	dl := s.delegate

	s.action(CodeRemove, dl.Remove)
	s.action(CodeShowInfoWindow, dl.ShowInfoWindow)
	s.action(CodeHideInfoWindow, dl.HideInfoWindow)

	s.getter(CodeGetID, func() any { return dl.ID() })
	s.getter(CodeGetPosition, func() any { return dl.Position() })
	s.getter(CodeGetTitle, func() any { return dl.Title() })
	s.getter(CodeGetSnippet, func() any { return dl.Snippet() })
	s.getter(CodeIsDraggable, func() any { return dl.IsDraggable() })
	s.getter(CodeIsInfoWindowShown, func() any { return dl.IsInfoWindowShown() })
	s.getter(CodeIsVisible, func() any { return dl.IsVisible() })
	s.getter(CodeHashCodeRemote, func() any { return dl.HashCodeRemote() })
	s.getter(CodeIsFlat, func() any { return dl.IsFlat() })
	s.getter(CodeGetRotation, func() any { return dl.Rotation() })
	s.getter(CodeGetAlpha, func() any { return dl.Alpha() })

	setter(s, CodeSetPosition, dl.SetPosition)
	setter(s, CodeSetTitle, dl.SetTitle)
	setter(s, CodeSetSnippet, dl.SetSnippet)
	setter(s, CodeSetDraggable, dl.SetDraggable)
	setter(s, CodeSetVisible, dl.SetVisible)
	setter(s, CodeSetFlat, dl.SetFlat)
	setter(s, CodeSetRotation, dl.SetRotation)
	setter(s, CodeSetAlpha, dl.SetAlpha)
	setter(s, CodeSetAnchor, func(a anchorArgs) { dl.SetAnchor(a.U, a.V) })
	setter(s, CodeSetInfoWindowAnchor, func(a anchorArgs) { dl.SetInfoWindowAnchor(a.U, a.V) })
	setter(s, CodeSetIcon, func(icon *core.BitmapDescriptor) { dl.SetIcon(icon) })

	s.register(CodeEqualsRemote, func(ctx context.Context, data []byte) (any, error) {
		var id *string
		if err := msgpack.Unmarshal(data, &id); err != nil {
			return nil, err
		}
		var peer markup.Peer
		if id != nil {
			peer = idPeer(*id)
		}
		var equal bool
		err := s.exec.Sync(ctx, func() { equal = dl.EqualsRemote(peer) })
		return equal, err
	})
}

// register wraps fn so its result is msgpack-encoded. A nil result means an empty reply.
func (s *Stub) register(code uint32, fn func(ctx context.Context, data []byte) (any, error), opts ...dispatcher.Option) {
	s.d.Register(code, CodeName(code), func(ctx context.Context, e dispatcher.Event) ([]byte, error) {
		result, err := fn(ctx, e.Data)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, nil
		}
		return msgpack.Marshal(result)
	}, opts...)
}

func (s *Stub) action(code uint32, fn func()) {
	s.register(code, func(ctx context.Context, _ []byte) (any, error) {
		return nil, s.exec.Sync(ctx, fn)
	}, dispatcher.Logged())
}

func (s *Stub) getter(code uint32, fn func() any) {
	s.register(code, func(ctx context.Context, _ []byte) (any, error) {
		var v any
		err := s.exec.Sync(ctx, func() { v = fn() })
		return v, err
	})
}

func setter[T any](s *Stub, code uint32, fn func(T)) {
	s.register(code, func(ctx context.Context, data []byte) (any, error) {
		var v T
		if err := msgpack.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", CodeName(code), err)
		}
		return nil, s.exec.Sync(ctx, func() { fn(v) })
	}, dispatcher.Logged())
}
