// Package collection keeps a map's overlays and renders markers as one batched layer.
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/OCAP2/mapshim/internal/bitmap"
	"github.com/OCAP2/mapshim/internal/markup"
	"github.com/OCAP2/mapshim/internal/queue"
	"github.com/OCAP2/mapshim/internal/render"
	"github.com/OCAP2/mapshim/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/mapshim/internal/collection"

// LayerName is the name of the shared marker layer.
const LayerName = "markers"

type visibility interface {
	IsVisible() bool
}

type iconState interface {
	IconLoading() bool
}

// Collection is the Listener every overlay of one map reports to.
// Updates are coalesced: any number of changes between two owner-goroutine
// turns produce one layer rebuild and one redraw.
type Collection struct {
	ctx    bitmap.Context
	m      render.Map
	logger *slog.Logger

	layer   *render.ItemizedLayer
	markups map[string]markup.Markup
	pending *queue.Pending[string]
	posted  bool
	nextID  int

	updates metric.Int64Counter
	redraws metric.Int64Counter
}

var _ markup.Listener = (*Collection)(nil)

// New creates an empty collection drawing into m.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(ctx bitmap.Context, m render.Map, logger *slog.Logger) (*Collection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collection{
		ctx:     ctx,
		m:       m,
		logger:  logger,
		layer:   render.NewItemizedLayer(LayerName),
		markups: make(map[string]markup.Markup),
		pending: queue.New[string](),
	}

	mt := otel.Meter(instrumentationName)

	var err error

	c.updates, err = mt.Int64Counter(
		"collection.updates",
		metric.WithDescription("Total overlay update notifications"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating updates counter: %w", err)
	}

	c.redraws, err = mt.Int64Counter(
		"collection.redraws",
		metric.WithDescription("Total marker layer rebuilds"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating redraws counter: %w", err)
	}

	return c, nil
}

// AddMarker creates a marker with the next free id (m0, m1, ...) and queues its first draw.
func (c *Collection) AddMarker(opts *core.MarkerOptions) *markup.Marker {
	if opts != nil {
		opts = opts.Clone()
	}
	id := fmt.Sprintf("m%d", c.nextID)
	c.nextID++

	mk := markup.New(id, opts, c)
	c.markups[id] = mk
	c.logger.Debug("New marker", "id", id, "title", mk.Title(), "position", mk.Position())

	c.OnUpdate(mk)
	return mk
}

// OnUpdate queues m for the next flush.
func (c *Collection) OnUpdate(m markup.Markup) {
	id := m.ID()
	if _, ok := c.markups[id]; !ok {
		return
	}
	c.updates.Add(context.Background(), 1)
	c.pending.Push(id)
	c.schedule()
}

// OnRemove unregisters m and drops it from the layer.
func (c *Collection) OnRemove(m markup.Markup) {
	id := m.ID()
	if _, ok := c.markups[id]; !ok {
		return
	}
	delete(c.markups, id)
	c.pending.Remove(id)
	c.logger.Debug("Removed markup", "id", id, "type", m.Type())
	if c.layer.Remove(id) {
		c.m.UpdateMap(true)
	}
}

func (c *Collection) schedule() {
	if c.posted {
		return
	}
	c.posted = c.ctx.Defer(c.Flush)
	if !c.posted {
		c.logger.Debug("owner stopped, update not scheduled")
	}
}

// Flush applies queued updates to the layer and redraws once if anything changed.
func (c *Collection) Flush() {
	c.posted = false
	changed := false
	for _, id := range c.pending.GetAndEmpty() {
		m, ok := c.markups[id]
		if !ok {
			continue
		}
		if v, ok := m.(visibility); ok && !v.IsVisible() {
			changed = c.layer.Remove(id) || changed
			continue
		}
		if m.Layer(c.ctx, c.m) != nil {
			// overlays with their own layer redraw themselves
			continue
		}
		item := m.RenderItem(c.ctx)
		if item == nil {
			continue
		}
		c.layer.Put(item)
		changed = true
	}
	if changed {
		c.redraws.Add(context.Background(), 1)
		c.m.UpdateMap(true)
	}
}

// Invalidate queues every overlay, e.g. after visibility changes that do not notify.
func (c *Collection) Invalidate() {
	for _, id := range c.IDs() {
		c.pending.Push(id)
	}
	if !c.pending.Empty() {
		c.schedule()
	}
}

// Get returns the overlay with id.
func (c *Collection) Get(id string) (markup.Markup, bool) {
	m, ok := c.markups[id]
	return m, ok
}

// IDs returns all overlay ids in creation order.
func (c *Collection) IDs() []string {
	ids := make([]string, 0, len(c.markups))
	for id := range c.markups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Len returns the number of overlays.
func (c *Collection) Len() int {
	return len(c.markups)
}

// Layer returns the shared marker layer.
func (c *Collection) Layer() *render.ItemizedLayer {
	return c.layer
}

// Loading returns how many overlays still wait for an icon decode.
func (c *Collection) Loading() int {
	n := 0
	for _, m := range c.markups {
		if s, ok := m.(iconState); ok && s.IconLoading() {
			n++
		}
	}
	return n
}

// Clear drops every overlay without notifying them.
func (c *Collection) Clear() {
	c.markups = make(map[string]markup.Markup)
	c.pending.Clear()
	c.layer.Clear()
	c.m.UpdateMap(true)
}
