// Package cache maintains an in-memory materialized view of the parsed
// record list, invalidated by a cheap cardinality check against the
// backing store rather than content hashing.
//
// The cardinality check is sound because records are immutable and never
// deleted by the core: any change to the store changes its count.
package cache

import (
	"context"
	"sync/atomic"

	"github.com/quipworks/quips/pkg/quip"
	"github.com/quipworks/quips/pkg/store"
)

// Cache is a count-invalidated snapshot of the record store.
type Cache struct {
	store store.Driver

	// current is swapped whole on rebuild so readers never observe a
	// partially rebuilt snapshot.
	current atomic.Pointer[snapshot]
}

type snapshot struct {
	records []quip.Record
	count   int
}

// New creates a cache over the given store. The first Snapshot call builds
// the initial view.
func New(driver store.Driver) *Cache {
	return &Cache{store: driver}
}

// Snapshot returns the parsed records, newest first. The list is rebuilt
// only when the store's count differs from the snapshot's; otherwise the
// cached slice is returned unchanged. Callers must not mutate the result.
func (c *Cache) Snapshot(ctx context.Context) ([]quip.Record, error) {
	count, err := c.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	if snap := c.current.Load(); snap != nil && snap.count == count {
		return snap.records, nil
	}

	records, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}

	c.current.Store(&snapshot{records: records, count: count})
	return records, nil
}

// Recent returns up to n of the newest records' texts. Used as the
// deduplication window by the generation pipeline.
func (c *Cache) Recent(ctx context.Context, n int) ([]string, error) {
	records, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if len(records) > n {
		records = records[:n]
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}
	return texts, nil
}
