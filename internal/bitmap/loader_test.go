package bitmap

import (
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/OCAP2/mapshim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanPoster struct {
	tasks chan func()
}

func newChanPoster() *chanPoster {
	return &chanPoster{tasks: make(chan func(), 16)}
}

func (p *chanPoster) Post(fn func()) bool {
	p.tasks <- fn
	return true
}

func (p *chanPoster) Defer(fn func()) bool {
	return p.Post(fn)
}

func (p *chanPoster) runOne(t *testing.T) {
	t.Helper()
	select {
	case fn := <-p.tasks:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for posted task")
	}
}

func TestLoader_OpenAsset(t *testing.T) {
	assets := fstest.MapFS{"icons/pin.png": {Data: []byte("png")}}
	l := NewLoader(LoaderConfig{}, assets, newChanPoster(), nil)
	defer l.Close()

	rc, err := l.Open(core.FromAsset("icons/pin.png"))
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestLoader_OpenResource(t *testing.T) {
	assets := fstest.MapFS{"res/flag.png": {Data: []byte("flag")}}
	l := NewLoader(LoaderConfig{Resources: map[int]string{7: "res/flag.png"}}, assets, newChanPoster(), nil)
	defer l.Close()

	rc, err := l.Open(core.FromResource(7))
	require.NoError(t, err)
	rc.Close()

	_, err = l.Open(core.FromResource(8))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoader_OpenFileStaysInFilesDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "icon.png"), []byte("x"), 0644))
	l := NewLoader(LoaderConfig{FilesDir: dir}, nil, newChanPoster(), nil)
	defer l.Close()

	rc, err := l.Open(core.FromFile("icon.png"))
	require.NoError(t, err)
	rc.Close()

	rc, err = l.Open(core.FromFile("../../icon.png"))
	require.NoError(t, err, "parent references resolve inside the files dir")
	rc.Close()

	_, err = l.Open(core.FromFile("other.png"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoader_OpenPath(t *testing.T) {
	name := filepath.Join(t.TempDir(), "abs.png")
	require.NoError(t, os.WriteFile(name, []byte("x"), 0644))
	l := NewLoader(LoaderConfig{}, nil, newChanPoster(), nil)
	defer l.Close()

	rc, err := l.Open(core.FromPath(name))
	require.NoError(t, err)
	rc.Close()
}

func TestLoader_OpenWithoutAssets(t *testing.T) {
	l := NewLoader(LoaderConfig{}, nil, newChanPoster(), nil)
	defer l.Close()

	_, err := l.Open(core.FromAsset("pin.png"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.Open(core.DefaultMarker())
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestLoader_Defaults(t *testing.T) {
	l := NewLoader(LoaderConfig{}, nil, newChanPoster(), nil)
	defer l.Close()

	assert.Equal(t, 1.0, l.Density())
	assert.Equal(t, int64(0), l.MaxBytes())
	assert.NotNil(t, l.Logger())
}

func TestLoader_DescriptorEndToEnd(t *testing.T) {
	poster := newChanPoster()
	assets := fstest.MapFS{"pin.png": {Data: encodePNG(t, 10, 30)}}
	l := NewLoader(LoaderConfig{DecodeWorkers: 2}, assets, poster, nil)
	defer l.Close()

	d := New(core.FromAsset("pin.png"))
	done := false
	d.LoadBitmapAsync(l, func() { done = true })

	poster.runOne(t)

	assert.True(t, done)
	require.NotNil(t, d.Bitmap())
	assert.Equal(t, 30, d.Bitmap().Bounds().Dy())
}

func TestLoader_BoundsConcurrentDecodes(t *testing.T) {
	l := NewLoader(LoaderConfig{DecodeWorkers: 1}, nil, newChanPoster(), nil)

	var running, peak atomic.Int32
	release := make(chan struct{})
	for i := 0; i < 3; i++ {
		l.Go(func(err error) {
			if err != nil {
				return
			}
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			running.Add(-1)
		})
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	l.Close()

	assert.Equal(t, int32(1), peak.Load())
}

func TestLoader_GoAfterClose(t *testing.T) {
	l := NewLoader(LoaderConfig{}, nil, newChanPoster(), nil)
	l.Close()

	got := make(chan error, 1)
	l.Go(func(err error) { got <- err })
	l.wg.Wait()

	select {
	case err := <-got:
		assert.ErrorIs(t, err, ErrClosed)
	default:
		t.Fatal("work submitted after Close must still be told")
	}
}

func TestLoader_DescriptorFailsAfterClose(t *testing.T) {
	poster := newChanPoster()
	assets := fstest.MapFS{"pin.png": {Data: encodePNG(t, 4, 4)}}
	l := NewLoader(LoaderConfig{}, assets, poster, nil)
	l.Close()

	d := New(core.FromAsset("pin.png"))
	d.LoadBitmapAsync(l, func() { t.Error("closed loader must not complete") })
	poster.runOne(t)

	assert.True(t, d.Failed())
	assert.False(t, d.Loading(), "a refused decode must not stay pending")
}
