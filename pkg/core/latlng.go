// pkg/core/latlng.go
package core

import "fmt"

// LatLng is a WGS84 geographic coordinate in degrees.
type LatLng struct {
	Latitude  float64 `json:"lat" yaml:"lat" msgpack:"lat"`
	Longitude float64 `json:"lng" yaml:"lng" msgpack:"lng"`
}

// String formats the coordinate as "lat/lng: (lat,lng)".
func (l LatLng) String() string {
	return fmt.Sprintf("lat/lng: (%g,%g)", l.Latitude, l.Longitude)
}

// Anchor is a fractional offset into an icon bitmap.
// (0,0) is the top left corner, (1,1) the bottom right.
type Anchor struct {
	U float32 `json:"u" yaml:"u" msgpack:"u"`
	V float32 `json:"v" yaml:"v" msgpack:"v"`
}
