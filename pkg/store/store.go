// Package store defines the record store interface for persisting and
// listing generated quips.
package store

import (
	"context"

	"github.com/quipworks/quips/pkg/quip"
)

// Driver is the interface for a local record store backend.
//
// Records are append-only: the core never mutates or deletes a stored
// record. List order is chronological newest-first, which the ID scheme
// guarantees by filename alone.
type Driver interface {
	// Append persists a new record. Appending an ID that already exists
	// is an error; IDs are unique by construction.
	Append(ctx context.Context, rec quip.Record) error

	// List returns all records, newest first.
	List(ctx context.Context) ([]quip.Record, error)

	// Count returns the number of stored records. It must be cheap: the
	// cache layer calls it on every read to detect staleness.
	Count(ctx context.Context) (int, error)

	// Get retrieves a single record by its ID.
	Get(ctx context.Context, id string) (quip.Record, error)

	// Has checks whether a record with the given ID exists.
	Has(ctx context.Context, id string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
