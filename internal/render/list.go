package render

import (
	"fmt"

	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// EmptyPlaceholder is shown instead of an empty list.
const EmptyPlaceholder = "Tidak ada jembatan yang sesuai dengan filter."

const mapsSearchURL = "https://www.google.com/maps/search/?api=1&query=%s,%s"

// ListEntry is one row of the bridge list. FocusID is the record
// identifier the focus action resolves against.
type ListEntry struct {
	FocusID string `json:"focus_id"`
	NomorBH string `json:"nomorBH"`
	HasFoto bool   `json:"has_foto"`
	Kmhm    string `json:"kmhm"`
	Kelas   string `json:"kelas"`
	Panjang string `json:"panjang"`
	Tahun   string `json:"tahun"`
	Lat     string `json:"lat"`
	Lng     string `json:"lng"`
	MapsURL string `json:"maps_url,omitempty"`
}

// ListSurface is the textual bridge list.
type ListSurface interface {
	ShowList(entries []ListEntry)
	ShowPlaceholder(text string)
}

// ListRenderer keeps the list surface in sync with a record subset.
type ListRenderer struct {
	surface ListSurface
}

// NewListRenderer creates a renderer drawing on surface.
func NewListRenderer(surface ListSurface) *ListRenderer {
	return &ListRenderer{surface: surface}
}

// Render shows one entry per record in input order, or the placeholder
// when records is empty.
func (r *ListRenderer) Render(records []types.Bridge) {
	if len(records) == 0 {
		r.surface.ShowPlaceholder(EmptyPlaceholder)
		return
	}
	entries := make([]ListEntry, len(records))
	for i, b := range records {
		entries[i] = NewListEntry(b)
	}
	r.surface.ShowList(entries)
}

// NewListEntry builds the list row for a record.
func NewListEntry(b types.Bridge) ListEntry {
	e := ListEntry{
		FocusID: b.ID,
		NomorBH: b.NomorBH,
		HasFoto: b.Foto != "",
		Kmhm:    b.Kmhm.String(),
		Kelas:   b.Kelas,
		Panjang: b.Panjang.String(),
		Tahun:   b.TahunPembuatan.String(),
	}
	if e.Tahun == "" {
		e.Tahun = NoYearText
	}
	e.Lat, e.Lng = formatCoordinates(b)
	if lat, lng, ok := b.Coordinates(); ok {
		e.MapsURL = fmt.Sprintf(mapsSearchURL, types.Number(lat), types.Number(lng))
	}
	return e
}
