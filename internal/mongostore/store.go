// Package mongostore implements the remote bridge collection on MongoDB.
// Live updates use change streams, which require a replica set or a
// sharded cluster.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// Store is a types.RemoteStore backed by one MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    logrus.FieldLogger
	now    func() time.Time
}

// Connect dials the server, checks it answers within cfg.Timeout and
// ensures the createdAt index exists.
func Connect(ctx context.Context, cfg types.RemoteConfig, log logrus.FieldLogger) (*Store, error) {
	if !cfg.Enabled() {
		return nil, types.ErrRemoteUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", types.ErrRemoteUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %v", types.ErrRemoteUnavailable, err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	if err := createIndexes(ctx, coll); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("creating indexes: %w", err)
	}

	log.WithFields(logrus.Fields{
		"database":   cfg.Database,
		"collection": cfg.Collection,
	}).Info("connected to remote store")

	return newStore(client, coll, log), nil
}

func newStore(client *mongo.Client, coll *mongo.Collection, log logrus.FieldLogger) *Store {
	return &Store{client: client, coll: coll, log: log, now: time.Now}
}

func createIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: fieldCreatedAt, Value: -1}},
	})
	return err
}

// Create implements types.BridgeStore.
func (s *Store) Create(ctx context.Context, b types.Bridge) (string, error) {
	now := s.now().UTC()
	b.CreatedAt, b.UpdatedAt = &now, &now

	res, err := s.coll.InsertOne(ctx, toDocument(b))
	if err != nil {
		return "", fmt.Errorf("insert bridge: %w", err)
	}
	return fromDocument(bson.M{fieldID: res.InsertedID}).ID, nil
}

// ReadAll implements types.BridgeStore.
func (s *Store) ReadAll(ctx context.Context) ([]types.Bridge, error) {
	opts := options.Find().SetSort(bson.D{{Key: fieldCreatedAt, Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find bridges: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode bridges: %w", err)
	}
	records := make([]types.Bridge, len(docs))
	for i, doc := range docs {
		records[i] = fromDocument(doc)
	}
	return records, nil
}

// Update implements types.BridgeStore.
func (s *Store) Update(ctx context.Context, id string, patch types.BridgePatch) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{fieldID: oid}, updateDocument(patch, s.now().UTC()))
	if err != nil {
		return fmt.Errorf("update bridge %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	return nil
}

// Delete implements types.BridgeStore.
func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{fieldID: oid})
	if err != nil {
		return fmt.Errorf("delete bridge %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	return nil
}

// Subscribe implements types.RemoteStore. It opens a change stream, then
// delivers the current set. Each change event re-reads the whole
// collection and delivers it again.
func (s *Store) Subscribe(ctx context.Context, fn func([]types.Bridge)) (types.Subscription, error) {
	stream, err := s.coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("open change stream: %w", err)
	}
	records, err := s.ReadAll(ctx)
	if err != nil {
		_ = stream.Close(context.Background())
		return nil, err
	}
	fn(records)

	watchCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	go s.watch(watchCtx, stream, fn, sub.done)
	return sub, nil
}

func (s *Store) watch(ctx context.Context, stream *mongo.ChangeStream, fn func([]types.Bridge), done chan<- struct{}) {
	defer close(done)
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		records, err := s.ReadAll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.WithError(err).Warn("re-reading bridges after change")
			continue
		}
		fn(records)
	}
	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
		s.log.WithError(err).Error("change stream stopped")
	}
}

// Close implements types.RemoteStore.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Unsubscribe stops the change stream and waits for the watcher to exit.
// It must not be called from inside the delivery callback.
func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}
