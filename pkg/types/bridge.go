package types

import (
	"strings"
	"time"
)

// Bridge classes recognised by the statistics panel and the filters.
const (
	KelasK1 = "K1"
	KelasK2 = "K2"
	KelasK3 = "K3"
)

// Coordinate ranges for a bridge to be placed on the map.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLng = -180.0
	MaxLng = 180.0
)

// Bridge is one inventoried bridge ("jembatan").
type Bridge struct {
	ID             string     `json:"id,omitempty"`
	NomorBH        string     `json:"nomorBH"`
	Lat            Value      `json:"lat"`
	Lng            Value      `json:"lng"`
	Kmhm           Value      `json:"kmhm,omitempty"`
	Kelas          string     `json:"kelas,omitempty"`
	Panjang        Value      `json:"panjang,omitempty"`
	TahunPembuatan Value      `json:"tahunPembuatan,omitempty"`
	Foto           string     `json:"foto,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// Coordinates returns the parsed position. ok is false unless both values
// are finite numbers inside the latitude and longitude ranges.
func (b Bridge) Coordinates() (lat, lng float64, ok bool) {
	lat, latOK := b.Lat.Float()
	lng, lngOK := b.Lng.Float()
	if !latOK || !lngOK {
		return 0, 0, false
	}
	if lat < MinLat || lat > MaxLat || lng < MinLng || lng > MaxLng {
		return 0, 0, false
	}
	return lat, lng, true
}

// Span returns the span length in metres.
func (b Bridge) Span() (float64, bool) {
	return b.Panjang.Float()
}

// Year returns the construction year. Zero and negative years are not
// considered valid.
func (b Bridge) Year() (float64, bool) {
	f, ok := b.TahunPembuatan.Float()
	if !ok || f <= 0 {
		return 0, false
	}
	return f, true
}

// Age returns the bridge age in years relative to currentYear.
func (b Bridge) Age(currentYear int) (float64, bool) {
	y, ok := b.Year()
	if !ok {
		return 0, false
	}
	return float64(currentYear) - y, true
}

// BridgePatch is a partial record for updates. Nil fields are left
// unchanged.
type BridgePatch struct {
	NomorBH        *string `json:"nomorBH,omitempty"`
	Lat            *Value  `json:"lat,omitempty"`
	Lng            *Value  `json:"lng,omitempty"`
	Kmhm           *Value  `json:"kmhm,omitempty"`
	Kelas          *string `json:"kelas,omitempty"`
	Panjang        *Value  `json:"panjang,omitempty"`
	TahunPembuatan *Value  `json:"tahunPembuatan,omitempty"`
	Foto           *string `json:"foto,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p BridgePatch) IsEmpty() bool {
	return p.NomorBH == nil && p.Lat == nil && p.Lng == nil && p.Kmhm == nil &&
		p.Kelas == nil && p.Panjang == nil && p.TahunPembuatan == nil && p.Foto == nil
}

// Apply copies every set field of the patch onto b.
func (p BridgePatch) Apply(b *Bridge) {
	if p.NomorBH != nil {
		b.NomorBH = *p.NomorBH
	}
	if p.Lat != nil {
		b.Lat = *p.Lat
	}
	if p.Lng != nil {
		b.Lng = *p.Lng
	}
	if p.Kmhm != nil {
		b.Kmhm = *p.Kmhm
	}
	if p.Kelas != nil {
		b.Kelas = strings.TrimSpace(*p.Kelas)
	}
	if p.Panjang != nil {
		b.Panjang = *p.Panjang
	}
	if p.TahunPembuatan != nil {
		b.TahunPembuatan = *p.TahunPembuatan
	}
	if p.Foto != nil {
		b.Foto = *p.Foto
	}
}

// Fields returns the set fields keyed by their JSON names.
func (p BridgePatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.NomorBH != nil {
		fields["nomorBH"] = *p.NomorBH
	}
	if p.Lat != nil {
		fields["lat"] = *p.Lat
	}
	if p.Lng != nil {
		fields["lng"] = *p.Lng
	}
	if p.Kmhm != nil {
		fields["kmhm"] = *p.Kmhm
	}
	if p.Kelas != nil {
		fields["kelas"] = strings.TrimSpace(*p.Kelas)
	}
	if p.Panjang != nil {
		fields["panjang"] = *p.Panjang
	}
	if p.TahunPembuatan != nil {
		fields["tahunPembuatan"] = *p.TahunPembuatan
	}
	if p.Foto != nil {
		fields["foto"] = *p.Foto
	}
	return fields
}
