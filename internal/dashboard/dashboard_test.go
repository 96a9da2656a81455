package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satpel-tasikmalaya/jembatan/internal/filter"
	"github.com/satpel-tasikmalaya/jembatan/internal/localstore"
	"github.com/satpel-tasikmalaya/jembatan/internal/render"
	"github.com/satpel-tasikmalaya/jembatan/internal/storetest"
	"github.com/satpel-tasikmalaya/jembatan/internal/view"
	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

type recordingObserver struct {
	mu        sync.Mutex
	replaced  []int
	snapshots int
	modes     []string
}

func (o *recordingObserver) Replaced(mode string, records, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replaced = append(o.replaced, records)
	o.modes = append(o.modes, mode)
}

func (o *recordingObserver) SnapshotSaved(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err == nil {
		o.snapshots++
	}
}

type harness struct {
	dash     *Dashboard
	board    *view.Board
	local    *localstore.Store
	clock    *clockwork.FakeClock
	hook     *logtest.Hook
	observer *recordingObserver
}

func newHarness(t *testing.T, remote types.RemoteStore, photos types.PhotoStore) *harness {
	t.Helper()
	local := localstore.NewStore()
	require.NoError(t, local.Attach(t.TempDir()))
	t.Cleanup(func() { local.Detach() })

	logger, hook := logtest.NewNullLogger()
	board := view.NewBoard()
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC))
	observer := &recordingObserver{}

	opts := Options{
		Local:  local,
		Photos: photos,
		Surfaces: Surfaces{
			Map: board, List: board, Cards: board, Status: board, Stats: board,
		},
		Clock:    clock,
		Logger:   logger,
		Observer: observer,
	}
	if remote != nil {
		opts.Remote = remote
	}
	d, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	return &harness{dash: d, board: board, local: local, clock: clock, hook: hook, observer: observer}
}

// scenarioRecords is the two-record set from the statistics scenario.
func scenarioRecords() []types.Bridge {
	return []types.Bridge{
		{ID: "r1", NomorBH: "BH 01", Kelas: "K1", Panjang: "60", TahunPembuatan: "1900", Lat: "0", Lng: "0"},
		{ID: "r2", NomorBH: "BH 02", Kelas: "K2", Panjang: "5", TahunPembuatan: "2020", Lat: "200", Lng: "0"},
	}
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrLocalStoreRequired)

	_, err = New(Options{Local: localstore.NewStore()})
	assert.ErrorIs(t, err, ErrSurfaceMissing)
}

func TestStartLocalWithoutSnapshot(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.dash.Start(context.Background()))

	assert.Equal(t, ModeLocal, h.dash.Mode())
	records, err := h.dash.Records()
	require.NoError(t, err)
	assert.Empty(t, records)

	st := h.board.State()
	assert.Equal(t, InfoLocal, st.Info)
	assert.Equal(t, StatusLocalMode, st.Status)
	assert.Empty(t, st.Markers)
	assert.Equal(t, render.EmptyPlaceholder, st.Placeholder)
	assert.Nil(t, st.Bounds)
	require.NotNil(t, st.Stats)
	assert.Zero(t, st.Stats.Total)
}

func TestStartLocalRestoresSnapshot(t *testing.T) {
	h := newHarness(t, nil, nil)
	want := scenarioRecords()
	require.NoError(t, h.local.SaveSnapshot(want))

	require.NoError(t, h.dash.Start(context.Background()))

	got, err := h.dash.Records()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, StatusLocalMode, h.board.State().Status)
	assert.Zero(t, h.observer.snapshots, "loading does not rewrite the snapshot")
}

func TestStartLocalMalformedSnapshot(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.local.Set(localstore.SnapshotKey, "{not json"))

	require.NoError(t, h.dash.Start(context.Background()))

	records, err := h.dash.Records()
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, StatusLoadFailed, h.board.State().Status)

	raw, ok, err := h.local.Get(localstore.SnapshotKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "{not json", raw, "malformed snapshot is left in place")
}

func TestScenarioStatisticsAndMarkers(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.local.SaveSnapshot(scenarioRecords()))
	require.NoError(t, h.dash.Start(context.Background()))

	s, err := h.dash.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.K1)
	assert.Equal(t, 0, s.K3)
	assert.Equal(t, 1, s.Century)
	assert.Equal(t, 1, s.SpanOver50)
	assert.Equal(t, 1, s.SpanUnder10)
	assert.Positive(t, s.Storage.SnapshotBytes)
	assert.GreaterOrEqual(t, s.Storage.TotalBytes, s.Storage.SnapshotBytes)

	st := h.board.State()
	require.Len(t, st.Markers, 1)
	assert.Equal(t, "r1", st.Markers[0].RecordID)
	require.Len(t, h.hook.AllEntries(), 1)
	assert.Equal(t, "BH 02", h.hook.LastEntry().Data["nomorBH"])
}

func TestStartRemoteSubscribes(t *testing.T) {
	remote := storetest.NewRemote(scenarioRecords()...)
	h := newHarness(t, remote, nil)

	require.NoError(t, h.dash.Start(context.Background()))
	assert.Equal(t, ModeRemote, h.dash.Mode())
	assert.Equal(t, 1, remote.Subscribers())

	st := h.board.State()
	assert.Equal(t, InfoRemote, st.Info)
	assert.Equal(t, StatusConnected, st.Status)
	assert.Len(t, st.List, 2)

	mirrored, err := h.local.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, scenarioRecords(), mirrored)

	assert.ErrorIs(t, h.dash.Start(context.Background()), types.ErrAlreadyStarted)
}

func TestRemotePushReplacesAndResetsFilter(t *testing.T) {
	remote := storetest.NewRemote(scenarioRecords()...)
	h := newHarness(t, remote, nil)
	require.NoError(t, h.dash.Start(context.Background()))

	subset, err := h.dash.ApplyFilter(filter.K2)
	require.NoError(t, err)
	require.Len(t, subset, 1)
	assert.Equal(t, filter.K2, h.board.State().ActiveCard)

	next := []types.Bridge{
		{ID: "r3", NomorBH: "BH 03", Kelas: "K3", Lat: "-7.3", Lng: "108.2"},
		{ID: "r4", NomorBH: "BH 04", Kelas: "K3", Lat: "-7.1", Lng: "108.4"},
		{ID: "r5", NomorBH: "BH 05", Kelas: "K1", Lat: "x", Lng: "108.4"},
	}
	remote.Replace(next)

	records, err := h.dash.Records()
	require.NoError(t, err)
	assert.Equal(t, next, records)
	assert.Equal(t, filter.All, h.dash.Filter())

	st := h.board.State()
	assert.Equal(t, filter.All, st.ActiveCard)
	assert.Equal(t, filter.Title(filter.All), st.Title)
	require.Len(t, st.Markers, 2)
	require.NotNil(t, st.Bounds)
	for _, m := range st.Markers {
		assert.True(t, st.Bounds.Contains(m.Position))
	}
	assert.Equal(t, 3, st.Stats.Total)

	mirrored, err := h.local.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, next, mirrored)
}

func TestSubscribeFailureDowngrades(t *testing.T) {
	remote := storetest.NewRemote(scenarioRecords()...)
	remote.SubscribeErr = errors.New("change streams need a replica set")
	h := newHarness(t, remote, nil)

	require.NoError(t, h.dash.Start(context.Background()))
	assert.Equal(t, ModeLocal, h.dash.Mode())

	st := h.board.State()
	assert.Equal(t, StatusSubscribeFailed, st.Status)
	assert.Equal(t, InfoLocal, st.Info)
	assert.Equal(t, render.EmptyPlaceholder, st.Placeholder)

	id, err := h.dash.Add(context.Background(), types.Bridge{NomorBH: "BH 09", Lat: "-7", Lng: "108"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	remoteRecords, _ := remote.ReadAll(context.Background())
	assert.Len(t, remoteRecords, 2, "downgraded sessions never write to the remote store")
}

func TestSubscribeFailureLoadsSnapshot(t *testing.T) {
	remote := storetest.NewRemote()
	remote.SubscribeErr = errors.New("unreachable")
	h := newHarness(t, remote, nil)
	require.NoError(t, h.local.SaveSnapshot(scenarioRecords()))

	require.NoError(t, h.dash.Start(context.Background()))
	assert.Equal(t, StatusLocalLoaded, h.board.State().Status)
	records, err := h.dash.Records()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestApplyFilterKeepsStatistics(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.local.SaveSnapshot(scenarioRecords()))
	require.NoError(t, h.dash.Start(context.Background()))

	subset, err := h.dash.ApplyFilter("panjang10")
	require.NoError(t, err)
	require.Len(t, subset, 1)
	assert.Equal(t, "r2", subset[0].ID)

	st := h.board.State()
	assert.Empty(t, st.Markers, "the only match has invalid coordinates")
	assert.Equal(t, "Daftar Jembatan Panjang < 10 M", st.Title)
	assert.Equal(t, 2, st.Stats.Total)

	key, filtered, err := h.dash.Filtered()
	require.NoError(t, err)
	assert.Equal(t, filter.SpanUnder10, key)
	assert.Equal(t, subset, filtered)

	subset, err = h.dash.ApplyFilter("bogus")
	require.NoError(t, err)
	assert.Len(t, subset, 2)
	assert.Equal(t, filter.All, h.board.State().ActiveCard)
}

func TestLocalMutations(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.local.SaveSnapshot(scenarioRecords()))
	require.NoError(t, h.dash.Start(context.Background()))
	ctx := context.Background()

	id, err := h.dash.Add(ctx, types.Bridge{ID: "ignored", NomorBH: "BH 10", Kelas: "K3", Lat: "-7.2", Lng: "108.1"})
	require.NoError(t, err)
	assert.NotEqual(t, "ignored", id)

	records, err := h.dash.Records()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, id, records[0].ID, "new records come first")
	require.NotNil(t, records[0].CreatedAt)
	assert.Equal(t, h.clock.Now().UTC(), *records[0].CreatedAt)

	h.clock.Advance(time.Hour)
	kelas := " K2 "
	require.NoError(t, h.dash.Update(ctx, id, types.BridgePatch{Kelas: &kelas}))
	b, err := h.dash.Find(id)
	require.NoError(t, err)
	assert.Equal(t, "K2", b.Kelas)
	assert.True(t, b.UpdatedAt.After(*b.CreatedAt))

	assert.ErrorIs(t, h.dash.Update(ctx, "missing", types.BridgePatch{Kelas: &kelas}), types.ErrNotFound)
	assert.ErrorIs(t, h.dash.Update(ctx, id, types.BridgePatch{}), types.ErrInvalidData)
	assert.ErrorIs(t, h.dash.Update(ctx, "", types.BridgePatch{Kelas: &kelas}), types.ErrInvalidID)

	require.NoError(t, h.dash.Delete(ctx, "r1"))
	assert.ErrorIs(t, h.dash.Delete(ctx, "r1"), types.ErrNotFound)

	persisted, err := h.local.LoadSnapshot()
	require.NoError(t, err)
	require.Len(t, persisted, 2)
	assert.Equal(t, id, persisted[0].ID)
	assert.Equal(t, "r2", persisted[1].ID)
	assert.Equal(t, 3, h.observer.snapshots)
}

func TestRemoteMutationsArriveThroughSubscription(t *testing.T) {
	remote := storetest.NewRemote()
	h := newHarness(t, remote, nil)
	require.NoError(t, h.dash.Start(context.Background()))
	ctx := context.Background()

	id, err := h.dash.Add(ctx, types.Bridge{NomorBH: "BH 20", Lat: "-7", Lng: "108"})
	require.NoError(t, err)

	b, err := h.dash.Find(id)
	require.NoError(t, err)
	assert.Equal(t, "BH 20", b.NomorBH)
	assert.Len(t, h.board.State().Markers, 1)

	remote.WriteErr = errors.New("permission denied")
	nomor := "BH 21"
	err = h.dash.Update(ctx, id, types.BridgePatch{NomorBH: &nomor})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")

	remote.WriteErr = nil
	require.NoError(t, h.dash.Delete(ctx, id))
	records, err := h.dash.Records()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSyncMirrorsRemoteWrites(t *testing.T) {
	remote := storetest.NewRemote(types.Bridge{ID: "r1", NomorBH: "BH 01", Lat: "-7", Lng: "108"})
	h := newHarness(t, remote, nil)
	require.NoError(t, h.dash.Start(context.Background()))
	ctx := context.Background()

	remote.Deferred = true
	id, err := h.dash.Add(ctx, types.Bridge{NomorBH: "BH 02", Lat: "-6", Lng: "107"})
	require.NoError(t, err)

	saved, err := h.local.LoadSnapshot()
	require.NoError(t, err)
	require.Len(t, saved, 1, "write not pushed yet")

	require.NoError(t, h.dash.Sync(ctx))
	saved, err = h.local.LoadSnapshot()
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, id, saved[0].ID)

	_, err = h.dash.Find(id)
	require.NoError(t, err)
	assert.Equal(t, StatusConnected, h.board.State().Status)
}

func TestSyncInLocalModeIsNoop(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.dash.Start(context.Background()))
	require.NoError(t, h.dash.Sync(context.Background()))
	assert.Equal(t, 0, h.observer.snapshots)

	require.NoError(t, h.dash.Close())
	assert.ErrorIs(t, h.dash.Sync(context.Background()), types.ErrDashboardClosed)
}

func TestImport(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.dash.Start(context.Background()))

	n, err := h.dash.Import(context.Background(), []types.Bridge{
		{NomorBH: "BH A", Lat: "1", Lng: "1"},
		{ID: "keep", NomorBH: "BH B", Lat: "2", Lng: "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := h.dash.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.NotEmpty(t, records[0].ID)
	assert.Equal(t, "keep", records[1].ID)
}

func TestImportRepeatedIDs(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.dash.Start(context.Background()))

	n, err := h.dash.Import(context.Background(), []types.Bridge{
		{ID: "dup", NomorBH: "BH A"},
		{ID: "dup", NomorBH: "BH B"},
		{ID: "dup", NomorBH: "BH C"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	records, err := h.dash.Records()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "dup", records[0].ID)
	assert.Equal(t, "BH A", records[0].NomorBH)
	ids := map[string]bool{}
	for _, b := range records {
		ids[b.ID] = true
	}
	assert.Len(t, ids, 3, "ids must be unique")

	require.NoError(t, h.dash.Delete(context.Background(), "dup"))
	_, err = h.dash.Find("dup")
	assert.ErrorIs(t, err, types.ErrNotFound)
	records, err = h.dash.Records()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestFocusAndActivate(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.local.SaveSnapshot([]types.Bridge{
		{ID: "a", NomorBH: "BH A", Kelas: "K1", Lat: "-7", Lng: "108"},
		{ID: "b", NomorBH: "BH B", Kelas: "K2", Lat: "-6", Lng: "107"},
		{ID: "c", NomorBH: "BH C", Lat: "", Lng: ""},
	}))
	require.NoError(t, h.dash.Start(context.Background()))

	require.NoError(t, h.dash.ActivateMarker("a"))
	assert.Equal(t, render.ActivateHighlight.Color, h.board.Highlight("a"))
	h.clock.Advance(render.ActivateHighlight.Duration)
	assert.Eventually(t, func() bool { return h.board.Highlight("a") == "" }, time.Second, 5*time.Millisecond)

	_, err := h.dash.ApplyFilter(filter.K1)
	require.NoError(t, err)
	require.NoError(t, h.dash.Focus("b"))
	st := h.board.State()
	assert.Equal(t, render.FocusZoom, st.Zoom)
	assert.True(t, strings.HasPrefix(st.OpenCallout, "temp-"), "filtered-out records get a temporary marker")
	assert.Len(t, st.Markers, 2)

	h.clock.Advance(render.TempMarkerTTL)
	assert.Eventually(t, func() bool { return h.board.MarkerCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, h.dash.Focus("c"), types.ErrInvalidCoordinates)
	assert.ErrorIs(t, h.dash.Focus("zzz"), types.ErrNotFound)
	assert.ErrorIs(t, h.dash.ActivateMarker("b"), render.ErrMarkerNotFound)
}

func TestPhotos(t *testing.T) {
	photos := storetest.NewPhotos()
	h := newHarness(t, nil, photos)
	require.NoError(t, h.local.SaveSnapshot(scenarioRecords()))
	require.NoError(t, h.dash.Start(context.Background()))
	ctx := context.Background()

	url, err := h.dash.UploadPhoto(ctx, "r1", "depan.jpg", strings.NewReader("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://photos.test/jembatan/r1/depan.jpg", url)
	b, err := h.dash.Find("r1")
	require.NoError(t, err)
	assert.Equal(t, url, b.Foto)

	second, err := h.dash.UploadPhoto(ctx, "r1", "samping.jpg", strings.NewReader("jpeg"), "image/jpeg")
	require.NoError(t, err)
	_, ok := photos.Object(url)
	assert.False(t, ok, "replaced photo is removed")

	require.NoError(t, h.dash.DeletePhoto(ctx, "r1"))
	_, ok = photos.Object(second)
	assert.False(t, ok)
	b, err = h.dash.Find("r1")
	require.NoError(t, err)
	assert.Empty(t, b.Foto)
	assert.ErrorIs(t, h.dash.DeletePhoto(ctx, "r1"), types.ErrNotFound)

	_, err = h.dash.UploadPhoto(ctx, "missing", "x.jpg", strings.NewReader(""), "image/jpeg")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPhotosUnavailable(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.dash.Start(context.Background()))

	_, err := h.dash.UploadPhoto(context.Background(), "r1", "x.jpg", strings.NewReader(""), "image/jpeg")
	assert.ErrorIs(t, err, types.ErrPhotosUnavailable)
	assert.ErrorIs(t, h.dash.DeletePhoto(context.Background(), "r1"), types.ErrPhotosUnavailable)
}

func TestCloseReleasesSubscription(t *testing.T) {
	remote := storetest.NewRemote(scenarioRecords()...)
	h := newHarness(t, remote, nil)
	require.NoError(t, h.dash.Start(context.Background()))
	require.Equal(t, 1, remote.Subscribers())

	require.NoError(t, h.dash.Close())
	require.NoError(t, h.dash.Close())
	assert.Zero(t, remote.Subscribers())

	_, err := h.dash.Records()
	assert.ErrorIs(t, err, types.ErrDashboardClosed)
	_, err = h.dash.ApplyFilter(filter.K1)
	assert.ErrorIs(t, err, types.ErrDashboardClosed)
	_, err = h.dash.Add(context.Background(), types.Bridge{})
	assert.ErrorIs(t, err, types.ErrDashboardClosed)
	assert.ErrorIs(t, h.dash.Start(context.Background()), types.ErrDashboardClosed)
}

func TestOperationsBeforeStart(t *testing.T) {
	h := newHarness(t, nil, nil)
	_, err := h.dash.Records()
	assert.ErrorIs(t, err, types.ErrNotStarted)
	assert.Empty(t, h.dash.Mode())
}

func TestObserverSeesEveryReplacement(t *testing.T) {
	remote := storetest.NewRemote(scenarioRecords()...)
	h := newHarness(t, remote, nil)
	require.NoError(t, h.dash.Start(context.Background()))
	remote.Replace(nil)

	h.observer.mu.Lock()
	defer h.observer.mu.Unlock()
	assert.Equal(t, []int{2, 0}, h.observer.replaced)
	assert.Equal(t, []string{"remote", "remote"}, h.observer.modes)
	assert.Equal(t, 2, h.observer.snapshots)
}

func TestSubsetLeavesViewAlone(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.local.SaveSnapshot(scenarioRecords()))
	require.NoError(t, h.dash.Start(context.Background()))

	key, subset, err := h.dash.Subset("100tahun")
	require.NoError(t, err)
	assert.Equal(t, filter.Century, key)
	require.Len(t, subset, 1)
	assert.Equal(t, "r1", subset[0].ID)

	assert.Equal(t, filter.All, h.dash.Filter())
	assert.Len(t, h.board.State().List, 2)
}
