package markup

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/OCAP2/mapshim/internal/bitmap"
	"github.com/OCAP2/mapshim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingListener records every notification it receives.
type recordingListener struct {
	updates []Markup
	removes []Markup
}

func (l *recordingListener) OnUpdate(m Markup) { l.updates = append(l.updates, m) }
func (l *recordingListener) OnRemove(m Markup) { l.removes = append(l.removes, m) }

// ownerContext decodes inline and holds owner work until drained, like a looper
// that has not got round to it yet.
type ownerContext struct {
	assets fstest.MapFS
	posted []func()
}

func (c *ownerContext) Open(src core.BitmapDescriptor) (io.ReadCloser, error) {
	return c.assets.Open(src.Name)
}
func (c *ownerContext) Density() float64     { return 1 }
func (c *ownerContext) MaxBytes() int64      { return 0 }
func (c *ownerContext) Logger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
func (c *ownerContext) Go(fn func(error))    { fn(nil) }
func (c *ownerContext) Post(fn func()) bool {
	c.posted = append(c.posted, fn)
	return true
}
func (c *ownerContext) Defer(fn func()) bool { return c.Post(fn) }

func (c *ownerContext) drain() {
	for len(c.posted) > 0 {
		fn := c.posted[0]
		c.posted = c.posted[1:]
		fn()
	}
}

var _ bitmap.Context = (*ownerContext)(nil)

type peerFunc func() (string, error)

func (f peerFunc) RemoteID() (string, error) { return f() }

func pngAsset(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestNew_NoOptions(t *testing.T) {
	m := New("m0", nil, &recordingListener{})

	assert.Equal(t, "m0", m.ID())
	assert.Equal(t, core.LatLng{}, m.Position())
	assert.True(t, m.IsVisible())
	assert.Equal(t, float32(1), m.Alpha())
	assert.Equal(t, core.Anchor{U: 0.5, V: 1}, m.Anchor())
	assert.Equal(t, core.Anchor{U: 0.5, V: 0}, m.InfoWindowAnchor())
	assert.Nil(t, m.Icon())
	assert.Equal(t, TypeMarker, m.Type())
}

func TestNew_OptionsWithoutPosition(t *testing.T) {
	opts := core.NewMarkerOptions().WithTitle("t")

	m := New("m0", opts, &recordingListener{})

	assert.Equal(t, core.LatLng{Latitude: 0, Longitude: 0}, m.Position())
	assert.Equal(t, "t", m.Title())
}

func TestNew_CopiesOptions(t *testing.T) {
	opts := core.NewMarkerOptions().
		WithPosition(core.LatLng{Latitude: 1, Longitude: 2}).
		WithTitle("title").
		WithSnippet("snippet").
		WithAnchor(0.1, 0.2).
		WithFlat(true).
		WithIcon(core.FromAsset("pin.png"))
	opts.Draggable = true
	opts.Rotation = 45
	opts.Alpha = 0.5

	m := New("m1", opts, &recordingListener{})
	opts.Position.Latitude = 99
	opts.Title = "changed"

	assert.Equal(t, core.LatLng{Latitude: 1, Longitude: 2}, m.Position())
	assert.Equal(t, "title", m.Title())
	assert.Equal(t, "snippet", m.Snippet())
	assert.Equal(t, core.Anchor{U: 0.1, V: 0.2}, m.Anchor())
	assert.True(t, m.IsFlat())
	assert.True(t, m.IsDraggable())
	assert.Equal(t, float32(45), m.Rotation())
	assert.Equal(t, float32(0.5), m.Alpha())
	require.NotNil(t, m.Icon(), "icon is wrapped eagerly")
	assert.Equal(t, "pin.png", m.Icon().Source().Name)
}

func TestEquality_ByIDOnly(t *testing.T) {
	a := New("m0", core.NewMarkerOptions().WithTitle("a"), &recordingListener{})
	b := New("m0", core.NewMarkerOptions().WithTitle("b").WithFlat(true), &recordingListener{})
	c := New("m1", core.NewMarkerOptions().WithTitle("a"), &recordingListener{})

	assert.True(t, a.Equals(b))
	assert.True(t, a.EqualsRemote(b))
	assert.Equal(t, a.HashCode(), b.HashCode())
	assert.Equal(t, a.HashCode(), a.HashCodeRemote())

	assert.False(t, a.Equals(c))
	assert.False(t, a.EqualsRemote(c))
	assert.False(t, a.Equals(nil))
}

func TestEqualsRemote_NilOrUnreachablePeer(t *testing.T) {
	m := New("m0", nil, &recordingListener{})

	assert.False(t, m.EqualsRemote(nil))
	assert.False(t, m.EqualsRemote((*Marker)(nil)))
	assert.False(t, m.EqualsRemote(peerFunc(func() (string, error) {
		return "m0", errors.New("dead object")
	})))
	assert.True(t, m.EqualsRemote(peerFunc(func() (string, error) { return "m0", nil })))
}

func TestHashCode_MatchesRemoteAPI(t *testing.T) {
	assert.Equal(t, int32(3427), New("m0", nil, &recordingListener{}).HashCode())
	assert.Equal(t, int32(0), javaHash(""))
	// surrogate pair for U+1F600
	assert.Equal(t, int32(31*0xd83d+0xde00), javaHash("\U0001F600"))
}

func TestNotifyingSetters(t *testing.T) {
	icon := core.FromAsset("pin.png")
	setters := map[string]func(m *Marker){
		"SetPosition": func(m *Marker) { m.SetPosition(core.LatLng{Latitude: 3, Longitude: 4}) },
		"SetTitle":    func(m *Marker) { m.SetTitle("x") },
		"SetIcon":     func(m *Marker) { m.SetIcon(&icon) },
		"SetAnchor":   func(m *Marker) { m.SetAnchor(0, 0) },
		"SetFlat":     func(m *Marker) { m.SetFlat(true) },
		"SetRotation": func(m *Marker) { m.SetRotation(90) },
		"SetAlpha":    func(m *Marker) { m.SetAlpha(0.3) },
	}
	for name, set := range setters {
		t.Run(name, func(t *testing.T) {
			l := &recordingListener{}
			m := New("m0", nil, l)

			set(m)

			require.Len(t, l.updates, 1)
			assert.Same(t, m, l.updates[0])
			assert.Empty(t, l.removes)
		})
	}
}

func TestSilentSetters(t *testing.T) {
	setters := map[string]func(m *Marker){
		"SetSnippet":          func(m *Marker) { m.SetSnippet("s") },
		"SetDraggable":        func(m *Marker) { m.SetDraggable(true) },
		"SetInfoWindowAnchor": func(m *Marker) { m.SetInfoWindowAnchor(0.2, 0.4) },
		"SetVisible":          func(m *Marker) { m.SetVisible(false) },
	}
	for name, set := range setters {
		t.Run(name, func(t *testing.T) {
			l := &recordingListener{}
			m := New("m0", nil, l)

			set(m)

			assert.Empty(t, l.updates)
			assert.Empty(t, l.removes)
		})
	}
}

func TestSetters_UpdateState(t *testing.T) {
	m := New("m0", nil, &recordingListener{})

	m.SetPosition(core.LatLng{Latitude: -33.9, Longitude: 151.2})
	m.SetTitle("Sydney")
	m.SetSnippet("Opera House")
	m.SetDraggable(true)
	m.SetVisible(false)
	m.SetAnchor(0.25, 0.75)
	m.SetInfoWindowAnchor(0.5, 0.1)
	m.SetFlat(true)
	m.SetRotation(180)
	m.SetAlpha(0.8)

	assert.Equal(t, core.LatLng{Latitude: -33.9, Longitude: 151.2}, m.Position())
	assert.Equal(t, "Sydney", m.Title())
	assert.Equal(t, "Opera House", m.Snippet())
	assert.True(t, m.IsDraggable())
	assert.False(t, m.IsVisible())
	assert.Equal(t, core.Anchor{U: 0.25, V: 0.75}, m.Anchor())
	assert.Equal(t, core.Anchor{U: 0.5, V: 0.1}, m.InfoWindowAnchor())
	assert.True(t, m.IsFlat())
	assert.Equal(t, float32(180), m.Rotation())
	assert.Equal(t, float32(0.8), m.Alpha())
}

func TestRemove_DelegatesToListener(t *testing.T) {
	l := &recordingListener{}
	m := New("m0", core.NewMarkerOptions().WithTitle("keep"), l)

	m.Remove()

	require.Len(t, l.removes, 1)
	assert.Same(t, m, l.removes[0])
	assert.Empty(t, l.updates)
	assert.Equal(t, "keep", m.Title(), "remove does not touch state")
}

func TestInfoWindow_AlwaysHidden(t *testing.T) {
	l := &recordingListener{}
	m := New("m0", nil, l)

	m.ShowInfoWindow()
	assert.False(t, m.IsInfoWindowShown())
	m.HideInfoWindow()
	assert.False(t, m.IsInfoWindowShown())
	assert.Empty(t, l.updates)
}

func TestRenderItem_NoIcon(t *testing.T) {
	c := &ownerContext{}
	opts := core.NewMarkerOptions().
		WithPosition(core.LatLng{Latitude: 48.5, Longitude: 2.25}).
		WithTitle("Paris").
		WithSnippet("Capital")
	m := New("m3", opts, &recordingListener{})

	item := m.RenderItem(c)

	assert.Equal(t, "m3", item.UID)
	assert.Equal(t, "Paris", item.Title)
	assert.Equal(t, "Capital", item.Description)
	assert.Equal(t, int32(48500000), item.GeoPoint.LatitudeE6)
	assert.Equal(t, int32(2250000), item.GeoPoint.LongitudeE6)
	assert.Nil(t, item.Marker)
	assert.Empty(t, c.posted)
}

func TestRenderItem_DecodedIcon(t *testing.T) {
	for _, flat := range []bool{false, true} {
		bm := image.NewRGBA(image.Rect(0, 0, 20, 30))
		opts := core.NewMarkerOptions().WithIcon(core.FromBitmap(bm)).WithAnchor(0.3, 0.9).WithFlat(flat)
		m := New("m0", opts, &recordingListener{})

		item := m.RenderItem(&ownerContext{})

		require.NotNil(t, item.Marker)
		assert.Same(t, bm, item.Marker.Bitmap)
		assert.Equal(t, !m.IsFlat(), item.Marker.Billboard)
		assert.Equal(t, float32(0.3), item.Marker.Hotspot.X)
		assert.Equal(t, float32(0.9), item.Marker.Hotspot.Y)
	}
}

func TestRenderItem_PendingIcon(t *testing.T) {
	c := &ownerContext{assets: fstest.MapFS{"pin.png": {Data: pngAsset(t, 16, 24)}}}
	l := &recordingListener{}
	m := New("m0", core.NewMarkerOptions().WithIcon(core.FromAsset("pin.png")), l)

	first := m.RenderItem(c)
	assert.Nil(t, first.Marker)
	assert.Equal(t, -1, m.Height())
	assert.True(t, m.IconLoading())

	// asking again before the decode lands must not start another one
	again := m.RenderItem(c)
	assert.Nil(t, again.Marker)
	assert.Empty(t, l.updates)

	c.drain()

	require.Len(t, l.updates, 1)
	assert.Same(t, m, l.updates[0])
	assert.Equal(t, 24, m.Height())
	assert.False(t, m.IconLoading())

	second := m.RenderItem(c)
	require.NotNil(t, second.Marker)
	assert.True(t, second.Marker.Billboard)
	assert.NotSame(t, first, second, "items are not cached")
	assert.Len(t, l.updates, 1)
}

func TestRenderItem_StaleDecodeAfterSetIcon(t *testing.T) {
	c := &ownerContext{assets: fstest.MapFS{
		"old.png": {Data: pngAsset(t, 4, 4)},
		"new.png": {Data: pngAsset(t, 8, 8)},
	}}
	l := &recordingListener{}
	m := New("m0", core.NewMarkerOptions().WithIcon(core.FromAsset("old.png")), l)
	old := m.Icon()

	m.RenderItem(c)
	next := core.FromAsset("new.png")
	m.SetIcon(&next)
	require.Len(t, l.updates, 1, "SetIcon notifies")

	c.drain()

	assert.Len(t, l.updates, 1, "stale decode must not notify")
	assert.Nil(t, old.Bitmap(), "replaced icon is released")
	assert.Equal(t, -1, m.Height())

	m.RenderItem(c)
	c.drain()
	assert.Len(t, l.updates, 2)
	assert.Equal(t, 8, m.Height())
}

func TestRenderItem_FailedDecode(t *testing.T) {
	c := &ownerContext{assets: fstest.MapFS{}}
	l := &recordingListener{}
	m := New("m0", core.NewMarkerOptions().WithIcon(core.FromAsset("missing.png")), l)

	m.RenderItem(c)
	c.drain()
	item := m.RenderItem(c)
	c.drain()

	assert.Nil(t, item.Marker)
	assert.Empty(t, l.updates)
	assert.Equal(t, -1, m.Height())
}

func TestSetIcon_NilSelectsDefaultPin(t *testing.T) {
	c := &ownerContext{}
	l := &recordingListener{}
	m := New("m0", nil, l)

	m.SetIcon(nil)
	require.NotNil(t, m.Icon())
	assert.Equal(t, core.BitmapDefault, m.Icon().Source().Kind)

	m.RenderItem(c)
	c.drain()

	assert.Len(t, l.updates, 2)
	assert.Greater(t, m.Height(), 0)
	assert.NotNil(t, m.RenderItem(c).Marker)
}

func TestHeight_NoIcon(t *testing.T) {
	assert.Equal(t, -1, New("m0", nil, &recordingListener{}).Height())
}

func TestLayer_AlwaysNil(t *testing.T) {
	m := New("m0", nil, &recordingListener{})
	assert.Nil(t, m.Layer(&ownerContext{}, nil))
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "marker", TypeMarker.String())
	assert.Equal(t, "polyline", TypePolyline.String())
	assert.Equal(t, "polygon", TypePolygon.String())
	assert.Equal(t, "circle", TypeCircle.String())
	assert.Equal(t, "unknown", Type(42).String())
}
