package localstore

import (
	"encoding/json"
	"fmt"

	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// SnapshotKey holds the JSON array of every bridge record.
const SnapshotKey = "jembatanData"

// LoadSnapshot returns the last saved record set. A missing key yields an
// empty slice; malformed text is an error.
func (s *Store) LoadSnapshot() ([]types.Bridge, error) {
	raw, ok, err := s.Get(SnapshotKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []types.Bridge{}, nil
	}
	var records []types.Bridge
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if records == nil {
		records = []types.Bridge{}
	}
	return records, nil
}

// SaveSnapshot replaces the stored record set.
func (s *Store) SaveSnapshot(records []types.Bridge) error {
	if records == nil {
		records = []types.Bridge{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.Set(SnapshotKey, string(data))
}
