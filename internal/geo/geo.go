package geo

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Web Mercator cannot represent the poles; latitudes are clamped to this range.
const (
	LatitudeMax  = 85.05112877980659
	LatitudeMin  = -LatitudeMax
	LongitudeMax = 180.0
	LongitudeMin = -180.0
)

// EPSG:4326 -> EPSG:3857. The transform is stateless so it is built once.
var toWebMercator = wgs84.EPSG().Transform(4326, 3857)

// ClampLatitude limits lat to the Web Mercator latitude range.
func ClampLatitude(lat float64) float64 {
	return math.Max(LatitudeMin, math.Min(LatitudeMax, lat))
}

// ClampLongitude limits lng to [-180,180].
func ClampLongitude(lng float64) float64 {
	return math.Max(LongitudeMin, math.Min(LongitudeMax, lng))
}

// ToE6 converts degrees to microdegrees, truncating toward zero.
func ToE6(deg float64) int32 {
	return int32(deg * 1e6)
}

// FromE6 converts microdegrees to degrees.
func FromE6(e6 int32) float64 {
	return float64(e6) / 1e6
}

// Mercator projects a WGS84 longitude/latitude pair into a Web Mercator point (meters).
// Inputs that cannot be projected (NaN) yield an empty point.
func Mercator(longitude, latitude float64) geom.Point {
	x, y, _ := toWebMercator(longitude, ClampLatitude(latitude), 0)
	point, err := geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: x, Y: y},
			Type: geom.DimXY,
		},
	)
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXY)
	}
	return point
}
