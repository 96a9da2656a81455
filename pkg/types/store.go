package types

import (
	"context"
	"errors"
	"io"
)

// BridgeStore provides CRUD access to the bridge collection.
type BridgeStore interface {
	// Create stores a new record and returns the identifier assigned by
	// the backend. CreatedAt and UpdatedAt are stamped by the backend.
	Create(ctx context.Context, b Bridge) (string, error)

	// ReadAll returns every record, newest first.
	ReadAll(ctx context.Context) ([]Bridge, error)

	// Update applies a partial record and refreshes UpdatedAt.
	// Returns ErrNotFound if no record has that id.
	Update(ctx context.Context, id string, patch BridgePatch) error

	// Delete removes the record. Returns ErrNotFound if no record has
	// that id.
	Delete(ctx context.Context, id string) error
}

// RemoteStore is the live document collection. Subscribe pushes the
// complete, ordered record set once on subscription and again after
// every change; there is no incremental patching.
type RemoteStore interface {
	BridgeStore

	// Subscribe delivers the current record set before returning and then
	// keeps calling fn after each change until the subscription is
	// released or ctx ends. Only errors opening the subscription are
	// returned.
	Subscribe(ctx context.Context, fn func([]Bridge)) (Subscription, error)

	// Close releases the connection to the backend.
	Close(ctx context.Context) error
}

// Subscription is a standing change feed.
type Subscription interface {
	// Unsubscribe stops deliveries. Idempotent.
	Unsubscribe() error
}

// PhotoStore keeps uploaded bridge photos. Objects are keyed by the
// bridge identifier and the file name.
type PhotoStore interface {
	// Upload stores the object and returns a retrievable URL.
	Upload(ctx context.Context, bridgeID, fileName string, r io.Reader, contentType string) (string, error)

	// Delete removes the object addressed by a URL returned from Upload.
	Delete(ctx context.Context, url string) error
}

// Record and store errors.
var (
	ErrNotFound           = errors.New("bridge not found")
	ErrInvalidID          = errors.New("invalid bridge ID")
	ErrInvalidData        = errors.New("invalid bridge data")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrRemoteUnavailable  = errors.New("remote store not available")
	ErrPhotosUnavailable  = errors.New("photo storage not available")
)

// Dashboard lifecycle errors.
var (
	ErrDashboardClosed = errors.New("dashboard is closed")
	ErrAlreadyStarted  = errors.New("dashboard already started")
	ErrNotStarted      = errors.New("dashboard not started")
)
