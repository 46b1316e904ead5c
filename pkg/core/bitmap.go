// pkg/core/bitmap.go
package core

import "image"

// BitmapKind identifies where an icon's pixels come from.
type BitmapKind string

const (
	BitmapDefault  BitmapKind = "default"
	BitmapResource BitmapKind = "resource"
	BitmapAsset    BitmapKind = "asset"
	BitmapFile     BitmapKind = "file"
	BitmapPath     BitmapKind = "path"
	BitmapBytes    BitmapKind = "bytes"
	BitmapImage    BitmapKind = "bitmap"
)

// Default marker hues, in degrees on the color wheel.
const (
	HueRed     float32 = 0
	HueOrange  float32 = 30
	HueYellow  float32 = 60
	HueGreen   float32 = 120
	HueCyan    float32 = 180
	HueAzure   float32 = 210
	HueBlue    float32 = 240
	HueViolet  float32 = 270
	HueMagenta float32 = 300
	HueRose    float32 = 330
)

// BitmapDescriptor describes an icon source. It holds no decoded state.
type BitmapDescriptor struct {
	Kind       BitmapKind  `msgpack:"kind"`
	Hue        float32     `msgpack:"hue,omitempty"`
	ResourceID int         `msgpack:"res,omitempty"`
	Name       string      `msgpack:"name,omitempty"`
	Data       []byte      `msgpack:"data,omitempty"`
	Image      image.Image `msgpack:"-"`
}

// DefaultMarker is the stock red pin.
func DefaultMarker() BitmapDescriptor {
	return BitmapDescriptor{Kind: BitmapDefault, Hue: HueRed}
}

// DefaultMarkerHue is the stock pin tinted with the given hue.
func DefaultMarkerHue(hue float32) BitmapDescriptor {
	return BitmapDescriptor{Kind: BitmapDefault, Hue: hue}
}

// FromResource references a packaged resource by id.
func FromResource(id int) BitmapDescriptor {
	return BitmapDescriptor{Kind: BitmapResource, ResourceID: id}
}

// FromAsset references a file in the asset tree.
func FromAsset(name string) BitmapDescriptor {
	return BitmapDescriptor{Kind: BitmapAsset, Name: name}
}

// FromFile references a file in the application files directory.
func FromFile(name string) BitmapDescriptor {
	return BitmapDescriptor{Kind: BitmapFile, Name: name}
}

// FromPath references an image by absolute path.
func FromPath(path string) BitmapDescriptor {
	return BitmapDescriptor{Kind: BitmapPath, Name: path}
}

// FromBytes wraps encoded image bytes (PNG, JPEG, GIF, BMP, WebP).
func FromBytes(data []byte) BitmapDescriptor {
	return BitmapDescriptor{Kind: BitmapBytes, Data: data}
}

// FromBitmap wraps an already decoded image.
func FromBitmap(img image.Image) BitmapDescriptor {
	return BitmapDescriptor{Kind: BitmapImage, Image: img}
}
