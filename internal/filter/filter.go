// Package filter derives the displayed subset of bridge records for a
// category key.
package filter

import "github.com/satpel-tasikmalaya/jembatan/pkg/types"

// Key selects a category of bridges.
type Key string

// Filter keys. Each matches one stat card on the dashboard.
const (
	All         Key = "all"
	K1          Key = "K1"
	K2          Key = "K2"
	K3          Key = "K3"
	Century     Key = "100tahun"
	SpanOver50  Key = "panjang50"
	SpanUnder10 Key = "panjang10"
)

// Thresholds for the age and span categories.
const (
	CenturyAge      = 100
	LongSpanMetres  = 50
	ShortSpanMetres = 10
)

// Keys lists every filter key in stat-card order.
var Keys = []Key{All, K1, K2, K3, Century, SpanOver50, SpanUnder10}

var titles = map[Key]string{
	All:         "Daftar Jembatan",
	K1:          "Daftar Jembatan Kelas K1",
	K2:          "Daftar Jembatan Kelas K2",
	K3:          "Daftar Jembatan Kelas K3",
	Century:     "Daftar Jembatan Umur 100+ Tahun",
	SpanOver50:  "Daftar Jembatan Panjang > 50 M",
	SpanUnder10: "Daftar Jembatan Panjang < 10 M",
}

// Normalize maps unknown keys to All.
func Normalize(k Key) Key {
	if _, ok := titles[k]; ok {
		return k
	}
	return All
}

// Title returns the list heading for a key.
func Title(k Key) string {
	return titles[Normalize(k)]
}

// Match reports whether b belongs to the category. currentYear is used by
// the age category. Records whose numeric fields do not parse never match
// a numeric category.
func Match(b types.Bridge, k Key, currentYear int) bool {
	switch Normalize(k) {
	case K1:
		return b.Kelas == types.KelasK1
	case K2:
		return b.Kelas == types.KelasK2
	case K3:
		return b.Kelas == types.KelasK3
	case Century:
		age, ok := b.Age(currentYear)
		return ok && age >= CenturyAge
	case SpanOver50:
		span, ok := b.Span()
		return ok && span > LongSpanMetres
	case SpanUnder10:
		span, ok := b.Span()
		return ok && span < ShortSpanMetres
	default:
		return true
	}
}

// Apply returns the records matching k in their original order. The
// result never aliases records, so callers may keep it across
// replacements.
func Apply(records []types.Bridge, k Key, currentYear int) []types.Bridge {
	out := make([]types.Bridge, 0, len(records))
	for _, b := range records {
		if Match(b, k, currentYear) {
			out = append(out, b)
		}
	}
	return out
}

// Count returns how many records match k.
func Count(records []types.Bridge, k Key, currentYear int) int {
	n := 0
	for _, b := range records {
		if Match(b, k, currentYear) {
			n++
		}
	}
	return n
}
