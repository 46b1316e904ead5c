package render

import (
	"sort"
)

// Layer is something the map draws. Markers do not own one; collections do.
type Layer interface {
	Name() string
}

// Map is the part of the renderer's map a layer owner talks to.
type Map interface {
	// UpdateMap schedules a new frame; redraw forces the layers to be re-rendered.
	UpdateMap(redraw bool)
}

// ItemizedLayer draws many marker items as one batch.
// Items are kept north to south so southern markers overlap northern ones.
type ItemizedLayer struct {
	name  string
	items map[string]*MarkerItem
	order []*MarkerItem
	dirty bool
}

// NewItemizedLayer creates an empty layer.
func NewItemizedLayer(name string) *ItemizedLayer {
	return &ItemizedLayer{
		name:  name,
		items: make(map[string]*MarkerItem),
	}
}

func (l *ItemizedLayer) Name() string { return l.name }

// Put adds or replaces the item with the same UID.
func (l *ItemizedLayer) Put(item *MarkerItem) {
	l.items[item.UID] = item
	l.dirty = true
}

// Remove drops the item with uid. It reports whether anything was removed.
func (l *ItemizedLayer) Remove(uid string) bool {
	if _, ok := l.items[uid]; !ok {
		return false
	}
	delete(l.items, uid)
	l.dirty = true
	return true
}

// Get returns the item with uid.
func (l *ItemizedLayer) Get(uid string) (*MarkerItem, bool) {
	item, ok := l.items[uid]
	return item, ok
}

// Len returns the number of items.
func (l *ItemizedLayer) Len() int {
	return len(l.items)
}

// Clear removes every item.
func (l *ItemizedLayer) Clear() {
	l.items = make(map[string]*MarkerItem)
	l.dirty = true
}

// Items returns the items in draw order.
func (l *ItemizedLayer) Items() []*MarkerItem {
	if l.dirty || len(l.order) != len(l.items) {
		l.sort()
	}
	out := make([]*MarkerItem, len(l.order))
	copy(out, l.order)
	return out
}

func (l *ItemizedLayer) sort() {
	type keyed struct {
		item *MarkerItem
		y    float64
	}
	keys := make([]keyed, 0, len(l.items))
	for _, item := range l.items {
		xy, _ := item.GeoPoint.Project().XY()
		keys = append(keys, keyed{item: item, y: xy.Y})
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].y != keys[j].y {
			return keys[i].y > keys[j].y
		}
		return keys[i].item.UID < keys[j].item.UID
	})
	l.order = l.order[:0]
	for _, k := range keys {
		l.order = append(l.order, k.item)
	}
	l.dirty = false
}
