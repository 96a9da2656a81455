package render

import (
	"sync"
)

// recordingSurface is an in-memory MapSurface and ListSurface for tests.
type recordingSurface struct {
	mu          sync.Mutex
	markers     map[string]Marker
	order       []string
	highlights  map[string]string
	bounds      *Bounds
	center      *LatLng
	zoom        int
	callout     string
	list        []ListEntry
	placeholder string
	removed     int
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{markers: map[string]Marker{}, highlights: map[string]string{}}
}

func (s *recordingSurface) AddMarker(m Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[m.Key] = m
	s.order = append(s.order, m.Key)
}

func (s *recordingSurface) RemoveMarker(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, key)
	delete(s.highlights, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.removed++
}

func (s *recordingSurface) FitBounds(b Bounds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = &b
}

func (s *recordingSurface) SetView(center LatLng, zoom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.center = &center
	s.zoom = zoom
}

func (s *recordingSurface) OpenCallout(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callout = key
}

func (s *recordingSurface) SetHighlight(key, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if color == "" {
		delete(s.highlights, key)
		return
	}
	s.highlights[key] = color
}

func (s *recordingSurface) ShowList(entries []ListEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = entries
	s.placeholder = ""
}

func (s *recordingSurface) ShowPlaceholder(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = nil
	s.placeholder = text
}

func (s *recordingSurface) markerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.markers)
}

func (s *recordingSurface) highlight(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlights[key]
}

func (s *recordingSurface) hasMarker(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.markers[key]
	return ok
}
