// Package local implements store.Driver on a directory of markdown files,
// one file per record. The filename encodes the record's timestamp and
// slug, so a plain name sort yields chronological order and the timestamp
// is recoverable without parsing file contents.
//
// Local storage is a read cache, not the durability guarantee: the
// execution environment may discard it between process instances, and the
// remote durable store is reconciled against on cold start.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/quipworks/quips/pkg/quip"
	"github.com/quipworks/quips/pkg/store"
)

const recordExt = ".md"

// Driver implements store.Driver backed by a directory.
type Driver struct {
	// mu serializes writes; reads go straight to the filesystem.
	mu sync.Mutex

	dir string
}

// NewDriver creates the records directory if needed and returns a driver
// over it.
func NewDriver(dir string) (*Driver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating records dir: %w", err)
	}
	return &Driver{dir: dir}, nil
}

// Append writes the record as a new markdown file.
func (d *Driver) Append(_ context.Context, rec quip.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	path := filepath.Join(d.dir, rec.Filename())
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("record %s already exists", rec.ID)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking record %s: %w", rec.ID, err)
	}

	if err := os.WriteFile(path, rec.MarshalMarkdown(), 0o644); err != nil {
		return fmt.Errorf("writing record %s: %w", rec.ID, err)
	}
	return nil
}

// List returns all records, newest first. Files that fail to parse are
// skipped; a single damaged blob must not take down listing.
func (d *Driver) List(_ context.Context) ([]quip.Record, error) {
	names, err := d.recordNames()
	if err != nil {
		return nil, err
	}

	// Descending name sort = reverse chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	records := make([]quip.Record, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(d.dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading record %s: %w", name, err)
		}

		rec, err := quip.ParseMarkdown(strings.TrimSuffix(name, recordExt), data)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Count returns the number of record files.
func (d *Driver) Count(_ context.Context) (int, error) {
	names, err := d.recordNames()
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// Get retrieves one record by ID.
func (d *Driver) Get(_ context.Context, id string) (quip.Record, error) {
	data, err := os.ReadFile(filepath.Join(d.dir, id+recordExt))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return quip.Record{}, store.NotFoundError{ID: id}
		}
		return quip.Record{}, fmt.Errorf("reading record %s: %w", id, err)
	}
	return quip.ParseMarkdown(id, data)
}

// Has checks whether a record file exists for the ID.
func (d *Driver) Has(_ context.Context, id string) (bool, error) {
	_, err := os.Stat(filepath.Join(d.dir, id+recordExt))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Close is a no-op for the filesystem driver.
func (d *Driver) Close() error {
	return nil
}

func (d *Driver) recordNames() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("reading records dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
