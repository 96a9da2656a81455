// Package render projects bridge records onto the map and list surfaces.
// Both renderers redraw everything from the records they are given; they
// never diff against what was drawn before.
package render

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// Map behaviour constants.
const (
	BoundsPadding    = 0.1
	FocusZoom        = 15
	TempMarkerTTL    = 3 * time.Second
	NoYearText       = "Tidak ada data"
	coordinateFormat = "%.6f"
)

// Highlight is a transient marker decoration.
type Highlight struct {
	Color    string
	Duration time.Duration
}

// Highlights applied on marker activation and on list focus.
var (
	ActivateHighlight = Highlight{Color: "#4CAF50", Duration: 1500 * time.Millisecond}
	FocusHighlight    = Highlight{Color: "#ff6b6b", Duration: 2 * time.Second}
)

// ErrMarkerNotFound is returned when a marker key is not on the map.
var ErrMarkerNotFound = errors.New("marker not found")

// Callout is the detail card bound to a marker.
type Callout struct {
	Title   string `json:"title"`
	Kmhm    string `json:"kmhm"`
	Kelas   string `json:"kelas"`
	Panjang string `json:"panjang"`
	Tahun   string `json:"tahun"`
	Lat     string `json:"lat"`
	Lng     string `json:"lng"`
	FotoURL string `json:"foto_url,omitempty"`
}

// Marker is one point placed on the map.
type Marker struct {
	Key       string  `json:"key"`
	RecordID  string  `json:"record_id,omitempty"`
	Position  LatLng  `json:"position"`
	Callout   Callout `json:"callout"`
	Temporary bool    `json:"temporary,omitempty"`
}

// MapSurface is the interactive map.
type MapSurface interface {
	AddMarker(m Marker)
	RemoveMarker(key string)
	FitBounds(b Bounds)
	SetView(center LatLng, zoom int)
	OpenCallout(key string)
	// SetHighlight decorates a marker; an empty color clears it.
	SetHighlight(key, color string)
}

// MapRenderer keeps the map markers in sync with a record subset.
type MapRenderer struct {
	surface MapSurface
	clock   clockwork.Clock
	log     logrus.FieldLogger
	markers []Marker
	temps   atomic.Uint64
}

// NewMapRenderer creates a renderer drawing on surface.
func NewMapRenderer(surface MapSurface, clock clockwork.Clock, log logrus.FieldLogger) *MapRenderer {
	return &MapRenderer{surface: surface, clock: clock, log: log}
}

// Render clears every marker it placed before and places one marker per
// record with valid coordinates. Records with invalid coordinates are
// skipped with a warning. When at least one marker is placed the viewport
// is fitted to the padded marker bounds. It returns the number of markers.
func (r *MapRenderer) Render(records []types.Bridge) int {
	for _, m := range r.markers {
		r.surface.RemoveMarker(m.Key)
	}
	r.markers = r.markers[:0]

	seen := make(map[string]bool, len(records))
	points := make([]LatLng, 0, len(records))
	for i, b := range records {
		lat, lng, ok := b.Coordinates()
		if !ok {
			r.log.WithFields(logrus.Fields{
				"nomorBH": b.NomorBH,
				"lat":     b.Lat.String(),
				"lng":     b.Lng.String(),
			}).Warn("invalid coordinates, bridge not placed on map")
			continue
		}
		key := markerKey(b.ID, i, seen)
		m := Marker{
			Key:      key,
			RecordID: b.ID,
			Position: LatLng{Lat: lat, Lng: lng},
			Callout:  NewCallout(b),
		}
		r.surface.AddMarker(m)
		r.markers = append(r.markers, m)
		points = append(points, m.Position)
	}

	if bounds, ok := BoundsOf(points); ok {
		r.surface.FitBounds(bounds.Pad(BoundsPadding))
	}
	return len(r.markers)
}

func markerKey(id string, index int, seen map[string]bool) string {
	key := id
	if key == "" || seen[key] {
		key = fmt.Sprintf("bridge-%d", index)
	}
	seen[key] = true
	return key
}

// Markers returns the markers placed by the last Render.
func (r *MapRenderer) Markers() []Marker {
	out := make([]Marker, len(r.markers))
	copy(out, r.markers)
	return out
}

// Activate handles a marker click: the marker is highlighted and the
// highlight reverts after ActivateHighlight.Duration.
func (r *MapRenderer) Activate(key string) error {
	for _, m := range r.markers {
		if m.Key == key {
			r.highlight(key, ActivateHighlight)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMarkerNotFound, key)
}

// Focus centres the map on a record, opens its callout and highlights
// it. Records without a placed marker get a temporary one that is removed
// after TempMarkerTTL.
func (r *MapRenderer) Focus(b types.Bridge) error {
	lat, lng, ok := b.Coordinates()
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrInvalidCoordinates, b.NomorBH)
	}
	pos := LatLng{Lat: lat, Lng: lng}

	if b.ID != "" {
		for _, m := range r.markers {
			if m.RecordID == b.ID {
				r.surface.SetView(pos, FocusZoom)
				r.surface.OpenCallout(m.Key)
				r.highlight(m.Key, FocusHighlight)
				return nil
			}
		}
	}

	temp := Marker{
		Key:       fmt.Sprintf("temp-%d", r.temps.Add(1)),
		RecordID:  b.ID,
		Position:  pos,
		Callout:   NewCallout(b),
		Temporary: true,
	}
	r.surface.AddMarker(temp)
	r.surface.SetView(pos, FocusZoom)
	r.surface.OpenCallout(temp.Key)
	r.clock.AfterFunc(TempMarkerTTL, func() {
		r.surface.RemoveMarker(temp.Key)
	})
	return nil
}

func (r *MapRenderer) highlight(key string, h Highlight) {
	r.surface.SetHighlight(key, h.Color)
	r.clock.AfterFunc(h.Duration, func() {
		r.surface.SetHighlight(key, "")
	})
}

// NewCallout builds the detail card for a record.
func NewCallout(b types.Bridge) Callout {
	c := Callout{
		Title:   b.NomorBH,
		Kmhm:    b.Kmhm.String(),
		Kelas:   b.Kelas,
		Panjang: b.Panjang.String(),
		Tahun:   b.TahunPembuatan.String(),
		FotoURL: b.Foto,
	}
	if c.Tahun == "" {
		c.Tahun = NoYearText
	}
	c.Lat, c.Lng = formatCoordinates(b)
	return c
}

func formatCoordinates(b types.Bridge) (string, string) {
	lat, latOK := b.Lat.Float()
	lng, lngOK := b.Lng.Float()
	latText, lngText := "-", "-"
	if latOK {
		latText = fmt.Sprintf(coordinateFormat, lat)
	}
	if lngOK {
		lngText = fmt.Sprintf(coordinateFormat, lng)
	}
	return latText, lngText
}
