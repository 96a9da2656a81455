// Package dashboard implements the persistence orchestrator and the
// application state of the bridge inventory dashboard.
//
// A Dashboard owns the record repository, the active filter, the
// persistence mode and the renderers. It starts in remote mode when a
// remote store is injected and subscription succeeds; otherwise it runs
// from the local snapshot for the rest of the session. Every repository
// replacement redraws the map, the list and the statistics from the full
// record set and resets the filter to "all".
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/satpel-tasikmalaya/jembatan/internal/filter"
	"github.com/satpel-tasikmalaya/jembatan/internal/render"
	"github.com/satpel-tasikmalaya/jembatan/internal/stats"
	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// Mode is the persistence mode of a session.
type Mode string

// Persistence modes.
const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// Info and status texts shown on the status surface.
const (
	InfoRemote = "Database cloud tersedia - menggunakan cloud database"
	InfoLocal  = "Database cloud tidak tersedia - menggunakan penyimpanan lokal"

	StatusLoading         = "Memuat data dari database..."
	StatusConnected       = "Terhubung ke database (Real-time)"
	StatusSubscribeFailed = "Error menghubungkan ke database, menggunakan penyimpanan lokal"
	StatusLocalMode       = "Menggunakan penyimpanan lokal (database cloud tidak tersedia)"
	StatusLocalLoaded     = "Data dimuat dari penyimpanan lokal"
	StatusLoadFailed      = "Error memuat data"
)

// Construction errors.
var (
	ErrLocalStoreRequired = errors.New("dashboard: local store is required")
	ErrSurfaceMissing     = errors.New("dashboard: every surface must be set")
)

// Options configures a Dashboard.
type Options struct {
	// Remote is the remote document store. Nil means the remote backend is
	// not available and the session runs in local mode.
	Remote types.RemoteStore
	// Local is the fallback store. Required.
	Local LocalStore
	// Photos stores bridge photos. Nil disables photo operations.
	Photos   types.PhotoStore
	Surfaces Surfaces
	Clock    clockwork.Clock
	Logger   logrus.FieldLogger
	Observer Observer
}

// Dashboard is the application state of one session. It is safe for
// concurrent use.
type Dashboard struct {
	mu       sync.Mutex
	remote   types.RemoteStore
	local    LocalStore
	photos   types.PhotoStore
	surfaces Surfaces
	clock    clockwork.Clock
	log      logrus.FieldLogger
	observer Observer

	mapRenderer  *render.MapRenderer
	listRenderer *render.ListRenderer

	repo    Repository
	filter  filter.Key
	mode    Mode
	started bool
	closed  bool
	sub     types.Subscription
}

// New creates a dashboard. Call Start to load records.
func New(opts Options) (*Dashboard, error) {
	if opts.Local == nil {
		return nil, ErrLocalStoreRequired
	}
	s := opts.Surfaces
	if s.Map == nil || s.List == nil || s.Cards == nil || s.Status == nil || s.Stats == nil {
		return nil, ErrSurfaceMissing
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	return &Dashboard{
		remote:       opts.Remote,
		local:        opts.Local,
		photos:       opts.Photos,
		surfaces:     s,
		clock:        opts.Clock,
		log:          opts.Logger,
		observer:     opts.Observer,
		mapRenderer:  render.NewMapRenderer(s.Map, opts.Clock, opts.Logger),
		listRenderer: render.NewListRenderer(s.List),
		filter:       filter.All,
	}, nil
}

// Start selects the persistence mode and loads the initial records.
// A failure to subscribe to the remote store is not returned: the session
// downgrades to local mode and never retries the remote backend.
func (d *Dashboard) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return types.ErrDashboardClosed
	}
	if d.started {
		d.mu.Unlock()
		return types.ErrAlreadyStarted
	}
	d.started = true

	if d.remote == nil {
		defer d.mu.Unlock()
		d.mode = ModeLocal
		d.surfaces.Status.SetInfo(InfoLocal)
		d.loadLocalLocked(StatusLocalMode)
		return nil
	}

	d.mode = ModeRemote
	d.surfaces.Status.SetInfo(InfoRemote)
	d.surfaces.Status.SetStatus(StatusLoading)
	d.mu.Unlock()

	// The initial delivery arrives before Subscribe returns and takes the
	// lock itself.
	sub, err := d.remote.Subscribe(ctx, d.deliver)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.log.WithError(err).Error("remote subscription failed, using local storage")
		d.mode = ModeLocal
		d.surfaces.Status.SetInfo(InfoLocal)
		d.surfaces.Status.SetStatus(StatusSubscribeFailed)
		d.loadLocalLocked("")
		return nil
	}
	if d.closed {
		return sub.Unsubscribe()
	}
	d.sub = sub
	return nil
}

// deliver handles one push of the complete remote record set.
func (d *Dashboard) deliver(records []types.Bridge) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.mode != ModeRemote {
		return
	}
	d.replaceLocked(records, true)
	d.surfaces.Status.SetStatus(StatusConnected)
}

// loadLocalLocked populates the repository from the local snapshot and
// renders once. status, when not empty, is shown afterwards; otherwise
// the status only changes when records were loaded.
func (d *Dashboard) loadLocalLocked(status string) {
	records, err := d.local.LoadSnapshot()
	if err != nil {
		d.log.WithError(err).Error("loading local snapshot")
		d.replaceLocked(nil, false)
		d.surfaces.Status.SetStatus(StatusLoadFailed)
		return
	}
	d.replaceLocked(records, false)
	if status == "" && len(records) > 0 {
		status = StatusLocalLoaded
	}
	if status != "" {
		d.surfaces.Status.SetStatus(status)
	}
}

// replaceLocked swaps the repository and redraws every surface from the
// full record set. persist mirrors the new set into the local snapshot.
func (d *Dashboard) replaceLocked(records []types.Bridge, persist bool) {
	d.repo.Replace(records)
	all := d.repo.All()

	if persist {
		err := d.local.SaveSnapshot(all)
		if err != nil {
			d.log.WithError(err).Warn("saving local snapshot")
		}
		d.observer.SnapshotSaved(err)
	}

	d.filter = filter.All
	markers := d.mapRenderer.Render(all)
	d.listRenderer.Render(all)
	d.showCardsLocked()
	d.surfaces.Stats.ShowStats(d.summaryLocked())
	d.observer.Replaced(string(d.mode), len(all), markers)
}

func (d *Dashboard) showCardsLocked() {
	d.surfaces.Cards.SetActiveCard(d.filter)
	d.surfaces.Cards.SetTitle(filter.Title(d.filter))
}

func (d *Dashboard) summaryLocked() stats.Summary {
	var usage stats.Usage
	if u, err := d.local.Usage(); err != nil {
		d.log.WithError(err).Warn("reading local storage usage")
	} else {
		usage = stats.Usage{SnapshotBytes: u.SnapshotBytes, TotalBytes: u.TotalBytes}
	}
	return stats.Compute(d.repo.All(), d.currentYear(), usage)
}

func (d *Dashboard) currentYear() int {
	return d.clock.Now().Year()
}

func (d *Dashboard) readyLocked() error {
	if d.closed {
		return types.ErrDashboardClosed
	}
	if !d.started {
		return types.ErrNotStarted
	}
	return nil
}

// Close releases the remote subscription. It is idempotent; every other
// operation fails with types.ErrDashboardClosed afterwards.
func (d *Dashboard) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	sub := d.sub
	d.sub = nil
	d.mu.Unlock()

	if sub == nil {
		return nil
	}
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("releasing subscription: %w", err)
	}
	return nil
}

// Mode returns the persistence mode. It is empty before Start.
func (d *Dashboard) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Records returns the full repository in backend order.
func (d *Dashboard) Records() ([]types.Bridge, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.readyLocked(); err != nil {
		return nil, err
	}
	return d.repo.All(), nil
}

// Find returns one record by id.
func (d *Dashboard) Find(id string) (types.Bridge, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.findLocked(id)
}

func (d *Dashboard) findLocked(id string) (types.Bridge, error) {
	if err := d.readyLocked(); err != nil {
		return types.Bridge{}, err
	}
	if id == "" {
		return types.Bridge{}, types.ErrInvalidID
	}
	b, ok := d.repo.Find(id)
	if !ok {
		return types.Bridge{}, fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	return b, nil
}

// Filter returns the active filter key.
func (d *Dashboard) Filter() filter.Key {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter
}

// Filtered returns the records matching the active filter.
func (d *Dashboard) Filtered() (filter.Key, []types.Bridge, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.readyLocked(); err != nil {
		return "", nil, err
	}
	return d.filter, filter.Apply(d.repo.All(), d.filter, d.currentYear()), nil
}

// Subset returns the records matching k without changing the active
// filter or the surfaces.
func (d *Dashboard) Subset(k filter.Key) (filter.Key, []types.Bridge, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.readyLocked(); err != nil {
		return "", nil, err
	}
	k = filter.Normalize(k)
	return k, filter.Apply(d.repo.All(), k, d.currentYear()), nil
}

// ApplyFilter makes k the active filter and redraws the map and the list
// with the matching records. Unknown keys select "all". The statistics
// panel is not affected.
func (d *Dashboard) ApplyFilter(k filter.Key) ([]types.Bridge, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.readyLocked(); err != nil {
		return nil, err
	}
	d.filter = filter.Normalize(k)
	subset := filter.Apply(d.repo.All(), d.filter, d.currentYear())
	d.mapRenderer.Render(subset)
	d.listRenderer.Render(subset)
	d.showCardsLocked()
	return subset, nil
}

// Focus centres the map on a record from the list.
func (d *Dashboard) Focus(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, err := d.findLocked(id)
	if err != nil {
		return err
	}
	return d.mapRenderer.Focus(b)
}

// ActivateMarker handles a marker click.
func (d *Dashboard) ActivateMarker(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.readyLocked(); err != nil {
		return err
	}
	return d.mapRenderer.Activate(key)
}

// Markers returns the markers currently placed by the map renderer.
func (d *Dashboard) Markers() []render.Marker {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mapRenderer.Markers()
}

// Stats computes the statistics panel over the full repository.
func (d *Dashboard) Stats() (stats.Summary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.readyLocked(); err != nil {
		return stats.Summary{}, err
	}
	return d.summaryLocked(), nil
}

// Sync reads the complete record set from the remote store and applies
// it like a subscription push, mirroring it to the local snapshot. It does
// nothing in local mode.
func (d *Dashboard) Sync(ctx context.Context) error {
	remote, err := d.writeTarget()
	if err != nil || remote == nil {
		return err
	}
	records, err := remote.ReadAll(ctx)
	if err != nil {
		d.log.WithError(err).Error("reading remote records")
		return fmt.Errorf("syncing remote records: %w", err)
	}
	d.deliver(records)
	return nil
}

// writeTarget returns the remote store when writes are forwarded to it,
// or nil when they apply to the local repository.
func (d *Dashboard) writeTarget() (types.RemoteStore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.readyLocked(); err != nil {
		return nil, err
	}
	if d.mode == ModeRemote {
		return d.remote, nil
	}
	return nil, nil
}

// mutateLocal applies fn to a copy of the repository and replaces the
// repository with the result.
func (d *Dashboard) mutateLocal(fn func([]types.Bridge) ([]types.Bridge, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.readyLocked(); err != nil {
		return err
	}
	records, err := fn(d.repo.All())
	if err != nil {
		return err
	}
	d.replaceLocked(records, true)
	return nil
}

// Add stores a new record and returns its id. In remote mode the new set
// arrives through the subscription; in local mode the record is prepended
// and the snapshot saved.
func (d *Dashboard) Add(ctx context.Context, b types.Bridge) (string, error) {
	remote, err := d.writeTarget()
	if err != nil {
		return "", err
	}
	b.ID = ""
	if remote != nil {
		id, err := remote.Create(ctx, b)
		if err != nil {
			d.log.WithError(err).WithField("nomorBH", b.NomorBH).Error("creating bridge")
			return "", fmt.Errorf("creating bridge: %w", err)
		}
		return id, nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating bridge id: %w", err)
	}
	now := d.clock.Now().UTC()
	b.ID = id.String()
	b.CreatedAt, b.UpdatedAt = &now, &now
	err = d.mutateLocal(func(records []types.Bridge) ([]types.Bridge, error) {
		return append([]types.Bridge{b}, records...), nil
	})
	if err != nil {
		return "", err
	}
	return b.ID, nil
}

// Update applies a partial record.
func (d *Dashboard) Update(ctx context.Context, id string, patch types.BridgePatch) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if patch.IsEmpty() {
		return fmt.Errorf("%w: nothing to update", types.ErrInvalidData)
	}
	remote, err := d.writeTarget()
	if err != nil {
		return err
	}
	if remote != nil {
		if err := remote.Update(ctx, id, patch); err != nil {
			d.log.WithError(err).WithField("id", id).Error("updating bridge")
			return fmt.Errorf("updating bridge: %w", err)
		}
		return nil
	}

	now := d.clock.Now().UTC()
	return d.mutateLocal(func(records []types.Bridge) ([]types.Bridge, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", types.ErrNotFound, id)
		}
		patch.Apply(&records[i])
		records[i].UpdatedAt = &now
		return records, nil
	})
}

// Delete removes a record. Its photo, if any, is removed afterwards on a
// best-effort basis.
func (d *Dashboard) Delete(ctx context.Context, id string) error {
	b, err := d.Find(id)
	if err != nil {
		return err
	}
	remote, err := d.writeTarget()
	if err != nil {
		return err
	}
	if remote != nil {
		if err := remote.Delete(ctx, id); err != nil {
			d.log.WithError(err).WithField("id", id).Error("deleting bridge")
			return fmt.Errorf("deleting bridge: %w", err)
		}
	} else {
		err := d.mutateLocal(func(records []types.Bridge) ([]types.Bridge, error) {
			i := indexOf(records, id)
			if i < 0 {
				return nil, fmt.Errorf("%w: %s", types.ErrNotFound, id)
			}
			return append(records[:i], records[i+1:]...), nil
		})
		if err != nil {
			return err
		}
	}

	if b.Foto != "" {
		d.discardPhoto(ctx, b.Foto)
	}
	return nil
}

// Import stores records in order and returns how many were stored. In
// local mode the whole set replaces the repository at once, keeping ids
// that are present. Empty and repeated ids get a fresh one so ids stay
// unique.
func (d *Dashboard) Import(ctx context.Context, records []types.Bridge) (int, error) {
	remote, err := d.writeTarget()
	if err != nil {
		return 0, err
	}
	if remote != nil {
		for i, b := range records {
			b.ID = ""
			if _, err := remote.Create(ctx, b); err != nil {
				return i, fmt.Errorf("importing bridge %q: %w", b.NomorBH, err)
			}
		}
		return len(records), nil
	}

	now := d.clock.Now().UTC()
	imported := make([]types.Bridge, len(records))
	seen := make(map[string]bool, len(records))
	for i, b := range records {
		if b.ID == "" || seen[b.ID] {
			id, err := uuid.NewV7()
			if err != nil {
				return 0, fmt.Errorf("generating bridge id: %w", err)
			}
			b.ID = id.String()
		}
		seen[b.ID] = true
		if b.CreatedAt == nil {
			b.CreatedAt = &now
		}
		if b.UpdatedAt == nil {
			b.UpdatedAt = &now
		}
		imported[i] = b
	}
	err = d.mutateLocal(func([]types.Bridge) ([]types.Bridge, error) {
		return imported, nil
	})
	if err != nil {
		return 0, err
	}
	return len(imported), nil
}

// UploadPhoto stores a photo for a record and links its URL. A previous
// photo is removed on a best-effort basis.
func (d *Dashboard) UploadPhoto(ctx context.Context, id, fileName string, r io.Reader, contentType string) (string, error) {
	if d.photos == nil {
		return "", types.ErrPhotosUnavailable
	}
	b, err := d.Find(id)
	if err != nil {
		return "", err
	}
	url, err := d.photos.Upload(ctx, id, fileName, r, contentType)
	if err != nil {
		d.log.WithError(err).WithField("id", id).Error("uploading photo")
		return "", fmt.Errorf("uploading photo: %w", err)
	}
	if err := d.Update(ctx, id, types.BridgePatch{Foto: &url}); err != nil {
		d.discardPhoto(ctx, url)
		return "", err
	}
	if b.Foto != "" && b.Foto != url {
		d.discardPhoto(ctx, b.Foto)
	}
	return url, nil
}

// DeletePhoto removes the photo of a record and clears its link.
func (d *Dashboard) DeletePhoto(ctx context.Context, id string) error {
	if d.photos == nil {
		return types.ErrPhotosUnavailable
	}
	b, err := d.Find(id)
	if err != nil {
		return err
	}
	if b.Foto == "" {
		return fmt.Errorf("%w: bridge %s has no photo", types.ErrNotFound, id)
	}
	if err := d.photos.Delete(ctx, b.Foto); err != nil {
		d.log.WithError(err).WithField("id", id).Error("deleting photo")
		return fmt.Errorf("deleting photo: %w", err)
	}
	empty := ""
	return d.Update(ctx, id, types.BridgePatch{Foto: &empty})
}

func (d *Dashboard) discardPhoto(ctx context.Context, url string) {
	if d.photos == nil {
		return
	}
	if err := d.photos.Delete(ctx, url); err != nil {
		d.log.WithError(err).WithField("foto", url).Warn("removing photo")
	}
}

func indexOf(records []types.Bridge, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}
