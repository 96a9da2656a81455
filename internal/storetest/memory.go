// Package storetest provides in-memory store implementations for tests.
package storetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// Remote is an in-memory types.RemoteStore. Every mutation pushes the full
// record set, newest first, to each open subscription synchronously.
type Remote struct {
	mu      sync.Mutex
	records []types.Bridge
	subs    map[int]func([]types.Bridge)
	nextSub int
	now     func() time.Time

	// SubscribeErr, when set, makes Subscribe fail.
	SubscribeErr error
	// WriteErr, when set, makes every mutation fail.
	WriteErr error
	// Closed reports whether Close was called.
	Closed bool
	// Deferred, when set, keeps mutations from reaching subscribers, like
	// a change stream that has not delivered yet.
	Deferred bool
}

// NewRemote returns a store seeded with records in the given order.
func NewRemote(records ...types.Bridge) *Remote {
	return &Remote{
		records: append([]types.Bridge(nil), records...),
		subs:    make(map[int]func([]types.Bridge)),
		now:     time.Now,
	}
}

// Create implements types.BridgeStore.
func (r *Remote) Create(_ context.Context, b types.Bridge) (string, error) {
	r.mu.Lock()
	if r.WriteErr != nil {
		r.mu.Unlock()
		return "", r.WriteErr
	}
	id, err := uuid.NewV7()
	if err != nil {
		r.mu.Unlock()
		return "", fmt.Errorf("generating id: %w", err)
	}
	now := r.now()
	b.ID = id.String()
	b.CreatedAt, b.UpdatedAt = &now, &now
	r.records = append([]types.Bridge{b}, r.records...)
	r.mu.Unlock()
	r.push()
	return b.ID, nil
}

// ReadAll implements types.BridgeStore.
func (r *Remote) ReadAll(context.Context) ([]types.Bridge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Bridge{}, r.records...), nil
}

// Update implements types.BridgeStore.
func (r *Remote) Update(_ context.Context, id string, patch types.BridgePatch) error {
	r.mu.Lock()
	if r.WriteErr != nil {
		r.mu.Unlock()
		return r.WriteErr
	}
	i := r.index(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	now := r.now()
	patch.Apply(&r.records[i])
	r.records[i].UpdatedAt = &now
	r.mu.Unlock()
	r.push()
	return nil
}

// Delete implements types.BridgeStore.
func (r *Remote) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	if r.WriteErr != nil {
		r.mu.Unlock()
		return r.WriteErr
	}
	i := r.index(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	r.records = append(r.records[:i], r.records[i+1:]...)
	r.mu.Unlock()
	r.push()
	return nil
}

// Subscribe implements types.RemoteStore.
func (r *Remote) Subscribe(_ context.Context, fn func([]types.Bridge)) (types.Subscription, error) {
	r.mu.Lock()
	if r.SubscribeErr != nil {
		r.mu.Unlock()
		return nil, r.SubscribeErr
	}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	snapshot := append([]types.Bridge{}, r.records...)
	r.mu.Unlock()

	fn(snapshot)
	return &subscription{remote: r, id: id}, nil
}

// Close implements types.RemoteStore.
func (r *Remote) Close(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Closed = true
	return nil
}

// Replace swaps the whole collection, as another client would, and pushes
// the new set.
func (r *Remote) Replace(records []types.Bridge) {
	r.mu.Lock()
	r.records = append([]types.Bridge(nil), records...)
	r.mu.Unlock()
	r.push()
}

// Subscribers returns the number of open subscriptions.
func (r *Remote) Subscribers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

func (r *Remote) index(id string) int {
	for i := range r.records {
		if r.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Remote) push() {
	r.mu.Lock()
	if r.Deferred {
		r.mu.Unlock()
		return
	}
	fns := make([]func([]types.Bridge), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	snapshot := append([]types.Bridge{}, r.records...)
	r.mu.Unlock()

	for _, fn := range fns {
		fn(append([]types.Bridge{}, snapshot...))
	}
}

type subscription struct {
	remote *Remote
	id     int
	once   sync.Once
}

func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.remote.mu.Lock()
		delete(s.remote.subs, s.id)
		s.remote.mu.Unlock()
	})
	return nil
}

// Photos is an in-memory types.PhotoStore.
type Photos struct {
	mu      sync.Mutex
	objects map[string][]byte
	// BaseURL prefixes returned URLs.
	BaseURL string
	// Err, when set, makes every call fail.
	Err error
}

// NewPhotos returns an empty photo store.
func NewPhotos() *Photos {
	return &Photos{objects: make(map[string][]byte), BaseURL: "https://photos.test"}
}

// Upload implements types.PhotoStore.
func (p *Photos) Upload(_ context.Context, bridgeID, fileName string, r io.Reader, _ string) (string, error) {
	if p.Err != nil {
		return "", p.Err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/jembatan/%s/%s", p.BaseURL, bridgeID, fileName)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.objects[url] = buf.Bytes()
	return url, nil
}

// Delete implements types.PhotoStore.
func (p *Photos) Delete(_ context.Context, url string) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.objects[url]; !ok {
		return fmt.Errorf("%w: photo %s", types.ErrNotFound, url)
	}
	delete(p.objects, url)
	return nil
}

// Object returns the stored bytes for a URL.
func (p *Photos) Object(url string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.objects[url]
	return data, ok
}
