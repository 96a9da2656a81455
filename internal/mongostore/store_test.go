package mongostore

import (
	"context"
	"sync"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

var fixedNow = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func mockStore(mt *mtest.T) *Store {
	logger, _ := logtest.NewNullLogger()
	s := newStore(mt.Client, mt.Coll, logger)
	s.now = func() time.Time { return fixedNow }
	return s
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func bridgeDoc(id primitive.ObjectID, nomor string, created time.Time) bson.D {
	return bson.D{
		{Key: fieldID, Value: id},
		{Key: fieldNomorBH, Value: nomor},
		{Key: fieldLat, Value: -7.3},
		{Key: fieldLng, Value: 108.2},
		{Key: fieldCreatedAt, Value: primitive.NewDateTimeFromTime(created)},
	}
}

// recorder collects subscription deliveries.
type recorder struct {
	mu   sync.Mutex
	sets [][]types.Bridge
}

func (r *recorder) deliver(records []types.Bridge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets = append(r.sets, records)
}

func (r *recorder) deliveries() [][]types.Bridge {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]types.Bridge(nil), r.sets...)
}

func TestConnectDisabled(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	_, err := Connect(context.Background(), types.RemoteConfig{}, logger)
	assert.ErrorIs(t, err, types.ErrRemoteUnavailable)
}

func TestConnectUnreachable(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	cfg := types.RemoteConfig{
		URI:        "mongodb://127.0.0.1:1/?directConnection=true",
		Database:   "jembatan",
		Collection: "jembatan",
		Timeout:    200 * time.Millisecond,
	}
	_, err := Connect(context.Background(), cfg, logger)
	assert.ErrorIs(t, err, types.ErrRemoteUnavailable)
}

func TestStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create assigns an object id", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id, err := s.Create(context.Background(), types.Bridge{ID: "ignored", NomorBH: "BH 01", Lat: "-7.3"})
		require.NoError(mt, err)
		_, err = primitive.ObjectIDFromHex(id)
		assert.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "insert", evt.CommandName)
	})

	mt.Run("read all sorts newest first", func(mt *mtest.T) {
		s := mockStore(mt)
		newer, older := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bridgeDoc(newer, "BH 02", fixedNow),
			bridgeDoc(older, "BH 01", fixedNow.Add(-time.Hour)),
		))

		records, err := s.ReadAll(context.Background())
		require.NoError(mt, err)
		require.Len(mt, records, 2)
		assert.Equal(mt, newer.Hex(), records[0].ID)
		assert.Equal(mt, "BH 02", records[0].NomorBH)
		assert.Equal(mt, types.Value("-7.3"), records[0].Lat)
		assert.Equal(mt, older.Hex(), records[1].ID)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		sort := evt.Command.Lookup("sort").Document()
		assert.Equal(mt, int64(-1), sort.Lookup(fieldCreatedAt).AsInt64())
	})

	mt.Run("update", func(mt *mtest.T) {
		s := mockStore(mt)
		id := primitive.NewObjectID().Hex()
		kelas := "K2"

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		require.NoError(mt, s.Update(context.Background(), id, types.BridgePatch{Kelas: &kelas}))

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		err := s.Update(context.Background(), id, types.BridgePatch{Kelas: &kelas})
		assert.ErrorIs(mt, err, types.ErrNotFound)

		err = s.Update(context.Background(), "not-hex", types.BridgePatch{Kelas: &kelas})
		assert.ErrorIs(mt, err, types.ErrInvalidID)
	})

	mt.Run("delete", func(mt *mtest.T) {
		s := mockStore(mt)
		id := primitive.NewObjectID().Hex()

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(mt, s.Delete(context.Background(), id))

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		assert.ErrorIs(mt, s.Delete(context.Background(), id), types.ErrNotFound)

		assert.ErrorIs(mt, s.Delete(context.Background(), "zz"), types.ErrInvalidID)
	})

	mt.Run("subscribe delivers before returning and after changes", func(mt *mtest.T) {
		s := mockStore(mt)
		ns := namespace(mt)
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		event := bson.D{
			{Key: "_id", Value: bson.D{{Key: "_data", Value: "826"}}},
			{Key: "operationType", Value: "insert"},
		}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bridgeDoc(first, "BH 01", fixedNow)),
			mtest.CreateCursorResponse(1, ns, mtest.NextBatch, event),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				bridgeDoc(second, "BH 02", fixedNow.Add(time.Minute)),
				bridgeDoc(first, "BH 01", fixedNow)),
		)

		rec := &recorder{}
		sub, err := s.Subscribe(context.Background(), rec.deliver)
		require.NoError(mt, err)

		got := rec.deliveries()
		require.NotEmpty(mt, got, "initial set is delivered before Subscribe returns")
		require.Len(mt, got[0], 1)
		assert.Equal(mt, first.Hex(), got[0][0].ID)

		assert.Eventually(mt, func() bool { return len(rec.deliveries()) == 2 }, 2*time.Second, 5*time.Millisecond)
		got = rec.deliveries()
		require.Len(mt, got[1], 2)
		assert.Equal(mt, second.Hex(), got[1][0].ID)

		done := make(chan struct{})
		go func() {
			assert.NoError(mt, sub.Unsubscribe())
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			mt.Fatal("Unsubscribe did not stop the watcher")
		}
		assert.NoError(mt, sub.Unsubscribe(), "idempotent")
		assert.Len(mt, rec.deliveries(), 2, "no deliveries after Unsubscribe")
	})

	mt.Run("subscribe fails when the change stream cannot open", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    40573,
			Name:    "Location40573",
			Message: "The $changeStream stage is only supported on replica sets",
		}))

		rec := &recorder{}
		sub, err := s.Subscribe(context.Background(), rec.deliver)
		require.Error(mt, err)
		assert.Nil(mt, sub)
		assert.Empty(mt, rec.deliveries())
	})
}
