// Package view holds the in-memory dashboard surfaces. A Board receives
// every draw call the dashboard makes and exposes the resulting screen as
// a serialisable State for the HTTP API.
package view

import (
	"sync"

	"github.com/satpel-tasikmalaya/jembatan/internal/filter"
	"github.com/satpel-tasikmalaya/jembatan/internal/render"
	"github.com/satpel-tasikmalaya/jembatan/internal/stats"
)

// MarkerState is a placed marker with its current decoration.
type MarkerState struct {
	render.Marker
	Highlight string `json:"highlight,omitempty"`
}

// State is a snapshot of every surface.
type State struct {
	Status      string             `json:"status"`
	Info        string             `json:"info"`
	ActiveCard  filter.Key         `json:"active_card"`
	Title       string             `json:"title"`
	Markers     []MarkerState      `json:"markers"`
	Bounds      *render.Bounds     `json:"bounds,omitempty"`
	Center      *render.LatLng     `json:"center,omitempty"`
	Zoom        int                `json:"zoom,omitempty"`
	OpenCallout string             `json:"open_callout,omitempty"`
	List        []render.ListEntry `json:"list"`
	Placeholder string             `json:"placeholder,omitempty"`
	Stats       *stats.Summary     `json:"stats,omitempty"`
	StorageText string             `json:"storage_text,omitempty"`
}

// Board implements the map, list, card, status and statistics surfaces.
// It is safe for concurrent use; highlight timers call it from their own
// goroutines.
type Board struct {
	mu          sync.RWMutex
	status      string
	info        string
	activeCard  filter.Key
	title       string
	order       []string
	markers     map[string]render.Marker
	highlights  map[string]string
	bounds      *render.Bounds
	center      *render.LatLng
	zoom        int
	openCallout string
	list        []render.ListEntry
	placeholder string
	stats       *stats.Summary
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{
		markers:    make(map[string]render.Marker),
		highlights: make(map[string]string),
	}
}

// SetStatus sets the status line.
func (b *Board) SetStatus(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = text
}

// SetInfo sets the backend info line.
func (b *Board) SetInfo(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.info = text
}

// SetActiveCard marks exactly one stat card active.
func (b *Board) SetActiveCard(k filter.Key) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activeCard = k
}

// SetTitle sets the list heading.
func (b *Board) SetTitle(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.title = text
}

// ShowStats replaces the statistics panel.
func (b *Board) ShowStats(s stats.Summary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = &s
}

// AddMarker places a marker. A marker with the same key is replaced.
func (b *Board) AddMarker(m render.Marker) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.markers[m.Key]; !ok {
		b.order = append(b.order, m.Key)
	}
	b.markers[m.Key] = m
}

// RemoveMarker removes a marker and its decoration. Unknown keys are
// ignored.
func (b *Board) RemoveMarker(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.markers[key]; !ok {
		return
	}
	delete(b.markers, key)
	delete(b.highlights, key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	if b.openCallout == key {
		b.openCallout = ""
	}
}

// FitBounds sets the viewport to a box.
func (b *Board) FitBounds(bounds render.Bounds) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bounds = &bounds
	b.center = nil
	b.zoom = 0
}

// SetView centres the viewport at a zoom level.
func (b *Board) SetView(center render.LatLng, zoom int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.center = &center
	b.zoom = zoom
}

// OpenCallout opens the detail card of a marker.
func (b *Board) OpenCallout(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openCallout = key
}

// SetHighlight decorates a marker; an empty color clears it. Keys of
// markers that were removed in the meantime are ignored.
func (b *Board) SetHighlight(key, color string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if color == "" {
		delete(b.highlights, key)
		return
	}
	if _, ok := b.markers[key]; ok {
		b.highlights[key] = color
	}
}

// ShowList replaces the list content.
func (b *Board) ShowList(entries []render.ListEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.list = append([]render.ListEntry(nil), entries...)
	b.placeholder = ""
}

// ShowPlaceholder replaces the list with a single message.
func (b *Board) ShowPlaceholder(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.list = nil
	b.placeholder = text
}

// State returns a copy of the current screen.
func (b *Board) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st := State{
		Status:      b.status,
		Info:        b.info,
		ActiveCard:  b.activeCard,
		Title:       b.title,
		Markers:     make([]MarkerState, 0, len(b.order)),
		Zoom:        b.zoom,
		OpenCallout: b.openCallout,
		List:        append([]render.ListEntry{}, b.list...),
		Placeholder: b.placeholder,
	}
	for _, k := range b.order {
		st.Markers = append(st.Markers, MarkerState{Marker: b.markers[k], Highlight: b.highlights[k]})
	}
	if b.bounds != nil {
		bounds := *b.bounds
		st.Bounds = &bounds
	}
	if b.center != nil {
		center := *b.center
		st.Center = &center
	}
	if b.stats != nil {
		s := *b.stats
		st.Stats = &s
		st.StorageText = s.Storage.StorageText()
	}
	return st
}

// Highlight returns the decoration of a marker, empty when none.
func (b *Board) Highlight(key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.highlights[key]
}

// MarkerCount returns how many markers are on the map.
func (b *Board) MarkerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.markers)
}
