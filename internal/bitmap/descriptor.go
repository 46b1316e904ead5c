// Package bitmap turns icon sources into decoded bitmaps off the owner goroutine.
package bitmap

import (
	"image"
	"io"
	"log/slog"

	"github.com/OCAP2/mapshim/pkg/core"
)

// Context is what a descriptor needs to load its pixels.
//
// Go runs work off the owner goroutine. fn always runs: err is non-nil when
// the work was refused (e.g. the loader is closed) and fn should only report it.
// Post runs fn back on the owner goroutine and may block; it is for other goroutines.
// Defer does the same from the owner goroutine itself and never blocks.
type Context interface {
	Open(src core.BitmapDescriptor) (io.ReadCloser, error)
	Density() float64
	MaxBytes() int64
	Go(fn func(err error))
	Post(fn func()) bool
	Defer(fn func()) bool
	Logger() *slog.Logger
}

type loadState int

const (
	stateIdle loadState = iota
	stateLoading
	stateReady
	stateFailed
	stateReleased
)

// Descriptor is an owned icon: a source plus the decoded bitmap once available.
// It is not synchronized; all methods run on the owner goroutine.
type Descriptor struct {
	source  core.BitmapDescriptor
	bitmap  image.Image
	state   loadState
	waiters []func()
}

// New wraps src. Already decoded bitmaps are available immediately.
func New(src core.BitmapDescriptor) *Descriptor {
	d := &Descriptor{source: src}
	if src.Kind == core.BitmapImage && src.Image != nil {
		d.bitmap = src.Image
		d.state = stateReady
	}
	return d
}

// Default is the stock red pin.
func Default() *Descriptor {
	return New(core.DefaultMarker())
}

// Source returns the icon source.
func (d *Descriptor) Source() core.BitmapDescriptor {
	return d.source
}

// Bitmap returns the decoded bitmap, or nil if it is not decoded yet.
func (d *Descriptor) Bitmap() image.Image {
	return d.bitmap
}

// Loading reports whether a decode is in flight.
func (d *Descriptor) Loading() bool {
	return d.state == stateLoading
}

// Failed reports whether the last decode failed. Failed descriptors are not retried.
func (d *Descriptor) Failed() bool {
	return d.state == stateFailed
}

// LoadBitmapAsync decodes the source off the owner goroutine and calls onComplete
// on it once the bitmap is available. Concurrent requests share one decode.
// onComplete is never called when decoding fails or the descriptor is released.
func (d *Descriptor) LoadBitmapAsync(c Context, onComplete func()) {
	switch d.state {
	case stateReady:
		if onComplete != nil {
			c.Defer(onComplete)
		}
		return
	case stateFailed, stateReleased:
		return
	case stateLoading:
		d.waiters = append(d.waiters, onComplete)
		return
	}

	d.state = stateLoading
	d.waiters = append(d.waiters, onComplete)

	src := d.source
	c.Go(func(err error) {
		var img image.Image
		if err == nil {
			img, err = Decode(c, src)
		}
		if !c.Post(func() { d.finish(c, img, err) }) {
			c.Logger().Debug("dropping decoded icon, owner stopped", "kind", src.Kind)
		}
	})
}

func (d *Descriptor) finish(c Context, img image.Image, err error) {
	if d.state != stateLoading {
		return
	}
	waiters := d.waiters
	d.waiters = nil

	if err != nil {
		d.state = stateFailed
		c.Logger().Warn("Failed to decode icon", "kind", d.source.Kind, "name", d.source.Name, "resource", d.source.ResourceID, "error", err)
		return
	}

	d.bitmap = img
	d.state = stateReady
	for _, w := range waiters {
		if w != nil {
			w()
		}
	}
}

// Release drops the bitmap and pending callbacks. A decode still in flight is discarded.
func (d *Descriptor) Release() {
	d.state = stateReleased
	d.bitmap = nil
	d.waiters = nil
}
