// Package render holds the renderer-side primitives markers are translated into.
package render

import (
	"image"

	"github.com/OCAP2/mapshim/internal/geo"
	"github.com/OCAP2/mapshim/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// GeoPoint is the renderer's coordinate type, stored in microdegrees.
type GeoPoint struct {
	LatitudeE6  int32
	LongitudeE6 int32
}

// NewGeoPoint clamps lat/lng into the projectable range and converts to microdegrees.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{
		LatitudeE6:  geo.ToE6(geo.ClampLatitude(lat)),
		LongitudeE6: geo.ToE6(geo.ClampLongitude(lng)),
	}
}

// FromLatLng converts an API coordinate into a renderer coordinate.
func FromLatLng(pos core.LatLng) GeoPoint {
	return NewGeoPoint(pos.Latitude, pos.Longitude)
}

// LatLng converts back into an API coordinate.
func (p GeoPoint) LatLng() core.LatLng {
	return core.LatLng{Latitude: p.Latitude(), Longitude: p.Longitude()}
}

func (p GeoPoint) Latitude() float64  { return geo.FromE6(p.LatitudeE6) }
func (p GeoPoint) Longitude() float64 { return geo.FromE6(p.LongitudeE6) }

// Project returns the point in Web Mercator meters.
func (p GeoPoint) Project() geom.Point {
	return geo.Mercator(p.Longitude(), p.Latitude())
}

// Hotspot is the pinned point of a symbol as a fraction of its bitmap size.
type Hotspot struct {
	X float32
	Y float32
}

// MarkerSymbol is a bitmap drawn at a marker's position.
// Billboard symbols stay upright facing the camera; others lie flat on the map.
type MarkerSymbol struct {
	Bitmap    image.Image
	Hotspot   Hotspot
	Billboard bool
}

// NewMarkerSymbol builds a symbol anchored at (relX, relY) of bitmap.
func NewMarkerSymbol(bitmap image.Image, relX, relY float32, billboard bool) *MarkerSymbol {
	return &MarkerSymbol{
		Bitmap:    bitmap,
		Hotspot:   Hotspot{X: relX, Y: relY},
		Billboard: billboard,
	}
}

// MarkerItem is one drawable marker. A nil Marker draws the renderer's default symbol.
type MarkerItem struct {
	UID         string
	Title       string
	Description string
	GeoPoint    GeoPoint
	Marker      *MarkerSymbol
}

// NewMarkerItem creates an item without a symbol.
func NewMarkerItem(uid, title, description string, point GeoPoint) *MarkerItem {
	return &MarkerItem{
		UID:         uid,
		Title:       title,
		Description: description,
		GeoPoint:    point,
	}
}

// SetMarker attaches a symbol.
func (i *MarkerItem) SetMarker(symbol *MarkerSymbol) {
	i.Marker = symbol
}
