// Package stats computes the statistics panel over the full record set.
package stats

import (
	"fmt"

	"github.com/satpel-tasikmalaya/jembatan/internal/filter"
	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// Usage is the local storage footprint in bytes.
type Usage struct {
	SnapshotBytes int64 `json:"snapshot_bytes"`
	TotalBytes    int64 `json:"total_bytes"`
}

// Summary is the statistics panel content.
type Summary struct {
	Total       int   `json:"total"`
	K1          int   `json:"k1"`
	K2          int   `json:"k2"`
	K3          int   `json:"k3"`
	Century     int   `json:"century"`
	SpanOver50  int   `json:"span_over_50"`
	SpanUnder10 int   `json:"span_under_10"`
	Storage     Usage `json:"storage"`
}

// Compute aggregates records. It must be given the whole repository, not
// a filtered view.
func Compute(records []types.Bridge, currentYear int, usage Usage) Summary {
	s := Summary{Total: len(records), Storage: usage}
	for _, b := range records {
		switch b.Kelas {
		case types.KelasK1:
			s.K1++
		case types.KelasK2:
			s.K2++
		case types.KelasK3:
			s.K3++
		}
		if filter.Match(b, filter.Century, currentYear) {
			s.Century++
		}
		if filter.Match(b, filter.SpanOver50, currentYear) {
			s.SpanOver50++
		}
		if filter.Match(b, filter.SpanUnder10, currentYear) {
			s.SpanUnder10++
		}
	}
	return s
}

// CountFor returns the count shown on the stat card for a filter key.
func (s Summary) CountFor(k filter.Key) int {
	switch filter.Normalize(k) {
	case filter.K1:
		return s.K1
	case filter.K2:
		return s.K2
	case filter.K3:
		return s.K3
	case filter.Century:
		return s.Century
	case filter.SpanOver50:
		return s.SpanOver50
	case filter.SpanUnder10:
		return s.SpanUnder10
	default:
		return s.Total
	}
}

// KB formats a byte count as kilobytes with two decimals.
func KB(n int64) string {
	return fmt.Sprintf("%.2f KB", float64(n)/1024)
}

// StorageText renders the storage readout.
func (u Usage) StorageText() string {
	return fmt.Sprintf("Data Jembatan: %s, Total Penyimpanan Lokal: %s", KB(u.SnapshotBytes), KB(u.TotalBytes))
}
