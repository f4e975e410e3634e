// Package remote defines the durable store adapter the local record store
// reconciles against. The remote store is the durability guarantee; local
// storage only avoids a network round-trip per read.
package remote

import "context"

// Remote provides list/get/put of named text blobs in an external durable
// store that survives process restarts.
type Remote interface {
	// List returns the names of all blobs in the store.
	List(ctx context.Context) ([]string, error)

	// Get fetches a blob by name.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put uploads a blob by name. Writing a name that already exists with
	// identical content is not an error.
	Put(ctx context.Context, name string, data []byte) error
}
