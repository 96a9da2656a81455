package dashboard

import (
	"github.com/satpel-tasikmalaya/jembatan/internal/filter"
	"github.com/satpel-tasikmalaya/jembatan/internal/localstore"
	"github.com/satpel-tasikmalaya/jembatan/internal/render"
	"github.com/satpel-tasikmalaya/jembatan/internal/stats"
	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// StatusSurface shows the backend status and info lines.
type StatusSurface interface {
	SetStatus(text string)
	SetInfo(text string)
}

// CardSurface shows which stat card is active and the list heading.
type CardSurface interface {
	SetActiveCard(k filter.Key)
	SetTitle(text string)
}

// StatsSurface shows the statistics panel.
type StatsSurface interface {
	ShowStats(s stats.Summary)
}

// Surfaces groups every drawing target of the dashboard.
type Surfaces struct {
	Map    render.MapSurface
	List   render.ListSurface
	Cards  CardSurface
	Status StatusSurface
	Stats  StatsSurface
}

// LocalStore is the local fallback the dashboard reads its snapshot from
// and mirrors every replacement into.
type LocalStore interface {
	LoadSnapshot() ([]types.Bridge, error)
	SaveSnapshot(records []types.Bridge) error
	Usage() (localstore.Usage, error)
}

// Observer receives dashboard events for instrumentation.
type Observer interface {
	// Replaced is called after every repository replacement.
	Replaced(mode string, records, markers int)
	// SnapshotSaved is called after every snapshot write attempt.
	SnapshotSaved(err error)
}

type nopObserver struct{}

func (nopObserver) Replaced(string, int, int) {}
func (nopObserver) SnapshotSaved(error)       {}
