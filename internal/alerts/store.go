package alerts

import (
	"context"
	"errors"
)

// Store errors are surfaced directly to callers; there is no fallback for a
// caller mutating a specific record.
var (
	ErrNotFound      = errors.New("alert not found")
	ErrInvalidStatus = errors.New("invalid alert status")
)

// Store is the append-only, mutable-status alert collection. Implementations
// must serialize Insert, UpdateStatus and List against each other so that
// concurrent status updates never race on history appends.
type Store interface {
	// Insert appends a record, assigning id and timestamp when absent.
	// Records are never overwritten or deleted.
	Insert(ctx context.Context, alert *Alert) error

	// List returns records matching all provided filters, newest first.
	List(ctx context.Context, filter Filter) ([]*Alert, error)

	// UpdateStatus transitions an alert's status, stamps UpdatedAt and
	// appends to the status history. Re-applying the current status is
	// permitted and still recorded.
	UpdateStatus(ctx context.Context, id string, status Status) (*Alert, error)

	// Stats counts alerts by status.
	Stats(ctx context.Context) (Stats, error)
}
