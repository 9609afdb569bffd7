// Package storage provides shared types for detection record storage.
//
// The concrete implementations live in the sqlite and mysql
// sub-packages. This package holds the interface and sentinel errors
// referenced by both the backends and their consumers (internal/gate,
// cmd/safemigrate).
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/safemigrate/safemigrate/internal/types"
)

// ErrNotFound is returned when a requested detection record does not exist.
var ErrNotFound = errors.New("not found")

// DetectionStore records and retrieves first-seen timestamps for
// migrations. Records are created at most once per identity and never
// updated; they are the sole clock source for delay promotion.
type DetectionStore interface {
	// Lookup returns the detection timestamps for the identities that
	// have records. Identities without a record are simply absent from
	// the result.
	Lookup(ctx context.Context, ids []types.Identity) (map[types.Identity]time.Time, error)

	// CreateIfAbsent records now as the first-seen time for id.
	// It is a no-op if a record already exists.
	CreateIfAbsent(ctx context.Context, id types.Identity, now time.Time) error

	// List returns every detection record, oldest first.
	List(ctx context.Context) ([]types.DetectionRecord, error)

	// Lifecycle
	Close() error
}
