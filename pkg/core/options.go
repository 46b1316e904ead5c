// pkg/core/options.go
package core

// MarkerOptions is the attribute bag a marker is created from.
// A nil Position means "not set"; the marker places itself at (0,0).
type MarkerOptions struct {
	Position         *LatLng
	Title            string
	Snippet          string
	Icon             *BitmapDescriptor
	Anchor           Anchor
	InfoWindowAnchor Anchor
	Draggable        bool
	Flat             bool
	Visible          bool
	Rotation         float32
	Alpha            float32
}

// NewMarkerOptions returns options holding the API defaults.
func NewMarkerOptions() *MarkerOptions {
	return &MarkerOptions{
		Anchor:           Anchor{U: 0.5, V: 1.0},
		InfoWindowAnchor: Anchor{U: 0.5, V: 0},
		Visible:          true,
		Alpha:            1.0,
	}
}

// WithPosition sets the position and returns the options for chaining.
func (o *MarkerOptions) WithPosition(pos LatLng) *MarkerOptions {
	o.Position = &pos
	return o
}

// WithTitle sets the title.
func (o *MarkerOptions) WithTitle(title string) *MarkerOptions {
	o.Title = title
	return o
}

// WithSnippet sets the snippet.
func (o *MarkerOptions) WithSnippet(snippet string) *MarkerOptions {
	o.Snippet = snippet
	return o
}

// WithIcon sets the icon source.
func (o *MarkerOptions) WithIcon(icon BitmapDescriptor) *MarkerOptions {
	o.Icon = &icon
	return o
}

// WithAnchor sets the icon anchor.
func (o *MarkerOptions) WithAnchor(u, v float32) *MarkerOptions {
	o.Anchor = Anchor{U: u, V: v}
	return o
}

// WithFlat sets whether the marker lies flat on the map.
func (o *MarkerOptions) WithFlat(flat bool) *MarkerOptions {
	o.Flat = flat
	return o
}

// Clone returns a copy that shares nothing mutable with o.
func (o *MarkerOptions) Clone() *MarkerOptions {
	c := *o
	if o.Position != nil {
		pos := *o.Position
		c.Position = &pos
	}
	if o.Icon != nil {
		icon := *o.Icon
		c.Icon = &icon
	}
	return &c
}
