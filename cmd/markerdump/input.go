package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/OCAP2/mapshim/pkg/core"
)

// markerFile is the YAML input document.
type markerFile struct {
	Markers []markerEntry `yaml:"markers"`
}

type iconSource struct {
	Asset    string   `yaml:"asset"`
	File     string   `yaml:"file"`
	Path     string   `yaml:"path"`
	Resource int      `yaml:"resource"`
	Hue      *float32 `yaml:"hue"`
}

type markerEntry struct {
	Title     string       `yaml:"title"`
	Snippet   string       `yaml:"snippet"`
	Position  *core.LatLng `yaml:"position"`
	Icon      *iconSource  `yaml:"icon"`
	Anchor    *core.Anchor `yaml:"anchor"`
	Flat      bool         `yaml:"flat"`
	Draggable bool         `yaml:"draggable"`
	Rotation  float32      `yaml:"rotation"`
	Alpha     *float32     `yaml:"alpha"`
	Visible   *bool        `yaml:"visible"`
	Edits     []markerEdit `yaml:"edits"`
}

// markerEdit is applied to a marker through its remote delegate after creation.
type markerEdit struct {
	Title    *string      `yaml:"title"`
	Snippet  *string      `yaml:"snippet"`
	Position *core.LatLng `yaml:"position"`
	Icon     *iconSource  `yaml:"icon"`
	Visible  *bool        `yaml:"visible"`
	Rotation *float32     `yaml:"rotation"`
	Alpha    *float32     `yaml:"alpha"`
	Remove   bool         `yaml:"remove"`
}

func readMarkerFile(name string) (*markerFile, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading marker file: %w", err)
	}
	var f markerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing marker file %s: %w", name, err)
	}
	for i, m := range f.Markers {
		if m.Icon != nil {
			if _, err := m.Icon.descriptor(); err != nil {
				return nil, fmt.Errorf("marker %d: %w", i, err)
			}
		}
	}
	return &f, nil
}

// descriptor picks the single icon source that is set.
func (s *iconSource) descriptor() (core.BitmapDescriptor, error) {
	var set []core.BitmapDescriptor
	if s.Asset != "" {
		set = append(set, core.FromAsset(s.Asset))
	}
	if s.File != "" {
		set = append(set, core.FromFile(s.File))
	}
	if s.Path != "" {
		set = append(set, core.FromPath(s.Path))
	}
	if s.Resource != 0 {
		set = append(set, core.FromResource(s.Resource))
	}
	if s.Hue != nil {
		set = append(set, core.DefaultMarkerHue(*s.Hue))
	}
	switch len(set) {
	case 0:
		return core.DefaultMarker(), nil
	case 1:
		return set[0], nil
	default:
		return core.BitmapDescriptor{}, fmt.Errorf("icon sets %d sources, want one", len(set))
	}
}

func (m markerEntry) options() *core.MarkerOptions {
	opts := core.NewMarkerOptions().
		WithTitle(m.Title).
		WithSnippet(m.Snippet).
		WithFlat(m.Flat)
	if m.Position != nil {
		opts.WithPosition(*m.Position)
	}
	if m.Icon != nil {
		icon, _ := m.Icon.descriptor()
		opts.WithIcon(icon)
	}
	if m.Anchor != nil {
		opts.WithAnchor(m.Anchor.U, m.Anchor.V)
	}
	if m.Alpha != nil {
		opts.Alpha = *m.Alpha
	}
	if m.Visible != nil {
		opts.Visible = *m.Visible
	}
	opts.Draggable = m.Draggable
	opts.Rotation = m.Rotation
	return opts
}
