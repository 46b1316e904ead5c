package bitmap

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"

	"github.com/OCAP2/mapshim/pkg/core"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedSource is returned for descriptors that name no loadable source.
	ErrUnsupportedSource = errors.New("unsupported icon source")
	// ErrTooLarge is returned when encoded icon data exceeds the configured limit.
	ErrTooLarge = errors.New("icon data too large")
	// ErrNotFound is returned when a resource, asset or file does not exist.
	ErrNotFound = errors.New("icon not found")
	// ErrClosed is reported for decode work submitted to a closed loader.
	ErrClosed = errors.New("icon loader closed")
)

// Default pin size in density independent pixels.
const (
	pinWidth  = 22
	pinHeight = 40
	// the pin is drawn at this multiple and scaled down for smooth edges
	pinSupersample = 4
)

// Decode produces the bitmap for src. It may block and must not run on the owner goroutine.
func Decode(c Context, src core.BitmapDescriptor) (image.Image, error) {
	switch src.Kind {
	case core.BitmapImage:
		if src.Image == nil {
			return nil, ErrUnsupportedSource
		}
		return src.Image, nil
	case core.BitmapDefault, "":
		return DefaultMarker(src.Hue, c.Density()), nil
	case core.BitmapBytes:
		if limit := c.MaxBytes(); limit > 0 && int64(len(src.Data)) > limit {
			return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(src.Data))
		}
		return decodeImage(bytes.NewReader(src.Data))
	case core.BitmapResource, core.BitmapAsset, core.BitmapFile, core.BitmapPath:
		rc, err := c.Open(src)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		data, err := readLimited(rc, c.MaxBytes())
		if err != nil {
			return nil, err
		}
		return decodeImage(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, src.Kind)
	}
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading icon: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

func decodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding icon: %w", err)
	}
	return img, nil
}

// DefaultMarker renders the stock pin tinted with hue (degrees) at the given density.
func DefaultMarker(hue float32, density float64) image.Image {
	if density <= 0 {
		density = 1
	}
	w, h := pinWidth*pinSupersample, pinHeight*pinSupersample
	big := image.NewRGBA(image.Rect(0, 0, w, h))

	fill := hsv(float64(hue), 0.85, 0.95)
	rim := hsv(float64(hue), 0.9, 0.55)
	dot := hsv(float64(hue), 0.9, 0.35)

	border := float64(pinSupersample)
	radius := float64(w)/2 - 1
	cx, cy := float64(w)/2, radius+1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			if !insidePin(px, py, cx, cy, radius, float64(h)) {
				continue
			}
			switch {
			case math.Hypot(px-cx, py-cy) < radius*0.35:
				big.Set(x, y, dot)
			case !insidePin(px, py, cx, cy, radius-border, float64(h)-border*2):
				big.Set(x, y, rim)
			default:
				big.Set(x, y, fill)
			}
		}
	}

	outW := int(math.Round(pinWidth * density))
	outH := int(math.Round(pinHeight * density))
	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(out, out.Bounds(), big, big.Bounds(), draw.Over, nil)
	return out
}

// insidePin reports whether (x,y) is in a round head of radius r centered at (cx,cy)
// or in the cone below it ending at (cx, tip).
func insidePin(x, y, cx, cy, r, tip float64) bool {
	if r <= 0 {
		return false
	}
	if math.Hypot(x-cx, y-cy) <= r {
		return true
	}
	if y < cy || y > tip {
		return false
	}
	half := r * (tip - y) / (tip - cy)
	return math.Abs(x-cx) <= half
}

func hsv(h, s, v float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return color.RGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: 0xff,
	}
}
