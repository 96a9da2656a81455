package dashboard

import "github.com/satpel-tasikmalaya/jembatan/pkg/types"

// Repository is the in-memory record set mirrored from the active backend.
// It is replaced as a whole and never patched. Callers synchronise access.
type Repository struct {
	records []types.Bridge
}

// Replace swaps the full record set.
func (r *Repository) Replace(records []types.Bridge) {
	r.records = append(make([]types.Bridge, 0, len(records)), records...)
}

// All returns a copy of every record in backend order.
func (r *Repository) All() []types.Bridge {
	return append(make([]types.Bridge, 0, len(r.records)), r.records...)
}

// Find returns the record with the given id.
func (r *Repository) Find(id string) (types.Bridge, bool) {
	for _, b := range r.records {
		if b.ID == id {
			return b, true
		}
	}
	return types.Bridge{}, false
}

// Len returns the number of records.
func (r *Repository) Len() int {
	return len(r.records)
}
