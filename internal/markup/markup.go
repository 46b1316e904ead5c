// Package markup holds the overlay objects a map collection renders.
package markup

import (
	"github.com/OCAP2/mapshim/internal/bitmap"
	"github.com/OCAP2/mapshim/internal/render"
)

// Type distinguishes overlay kinds sharing one collection.
type Type int

const (
	TypeMarker Type = iota
	TypePolyline
	TypePolygon
	TypeCircle
)

func (t Type) String() string {
	switch t {
	case TypeMarker:
		return "marker"
	case TypePolyline:
		return "polyline"
	case TypePolygon:
		return "polygon"
	case TypeCircle:
		return "circle"
	default:
		return "unknown"
	}
}

// Markup is an overlay owned by a collection.
type Markup interface {
	ID() string
	Type() Type
	// RenderItem returns the drawable for overlays rendered in the shared marker layer.
	RenderItem(ctx bitmap.Context) *render.MarkerItem
	// Layer returns a layer the overlay owns itself, or nil.
	Layer(ctx bitmap.Context, m render.Map) render.Layer
	Remove()
}

// Listener receives change notifications from overlays.
type Listener interface {
	OnUpdate(m Markup)
	OnRemove(m Markup)
}

// Peer is an overlay reference that may live behind a process boundary.
type Peer interface {
	RemoteID() (string, error)
}

// javaHash is the 31-multiplier string hash used by the remote API, so hashes
// computed on either side of the boundary agree.
func javaHash(s string) int32 {
	var h int32
	for _, r := range s {
		if r > 0xffff {
			// encode as a UTF-16 surrogate pair
			r -= 0x10000
			h = 31*h + int32(0xd800+(r>>10))
			h = 31*h + int32(0xdc00+(r&0x3ff))
			continue
		}
		h = 31*h + int32(r)
	}
	return h
}
