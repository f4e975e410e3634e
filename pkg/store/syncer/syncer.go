// Package syncer reconciles the local record store with the remote durable
// store on cold start, and pushes newly accepted records to the remote
// store in the background.
package syncer

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quipworks/quips/pkg/quip"
	"github.com/quipworks/quips/pkg/store"
	"github.com/quipworks/quips/pkg/store/remote"
)

const (
	recordExt = ".md"

	defaultFetchLimit = 10
)

// Syncer moves records between the local store and the remote durable store.
type Syncer struct {
	store  store.Driver
	remote remote.Remote
	logger *zap.Logger

	// fetchLimit bounds concurrent remote fetches during reconciliation.
	fetchLimit int
}

// NewSyncer creates a syncer over the given local driver and remote store.
func NewSyncer(driver store.Driver, rem remote.Remote, logger *zap.Logger) *Syncer {
	return &Syncer{
		store:      driver,
		remote:     rem,
		logger:     logger,
		fetchLimit: defaultFetchLimit,
	}
}

// Reconcile lists remote blob names, diffs them against local record IDs,
// and fetches only the missing blobs. Fetches run concurrently, bounded by
// the fetch limit, to shorten the cold-start window; no blob is fetched
// twice. Returns the number of records fetched.
//
// Individual fetch failures are logged and skipped: local state stays
// usable and the next cold start retries.
func (s *Syncer) Reconcile(ctx context.Context) (int, error) {
	names, err := s.remote.List(ctx)
	if err != nil {
		return 0, err
	}

	var missing []string
	for _, name := range names {
		if !strings.HasSuffix(name, recordExt) {
			continue
		}
		id := strings.TrimSuffix(name, recordExt)

		ok, err := s.store.Has(ctx, id)
		if err != nil {
			return 0, err
		}
		if !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		s.logger.Debug("reconcile: local store is up to date",
			zap.Int("remote_count", len(names)),
		)
		return 0, nil
	}

	s.logger.Info("reconciling with remote store",
		zap.Int("remote_count", len(names)),
		zap.Int("missing", len(missing)),
	)

	fetched := make(chan struct{}, len(missing))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchLimit)
	for _, name := range missing {
		name := name
		g.Go(func() error {
			if err := s.fetchOne(ctx, name); err != nil {
				s.logger.Warn("reconcile fetch failed",
					zap.String("name", name),
					zap.Error(err),
				)
				return nil
			}
			fetched <- struct{}{}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return len(fetched), err
	}

	return len(fetched), nil
}

// PushMissing uploads records that exist locally but not remotely, with
// the same bounded concurrency as Reconcile. Used by manual sync; the
// request path relies on the background Pusher instead. Returns the number
// of records pushed.
func (s *Syncer) PushMissing(ctx context.Context) (int, error) {
	names, err := s.remote.List(ctx)
	if err != nil {
		return 0, err
	}

	remoteHas := make(map[string]bool, len(names))
	for _, name := range names {
		remoteHas[name] = true
	}

	records, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}

	pushed := make(chan struct{}, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchLimit)
	for _, rec := range records {
		if remoteHas[rec.Filename()] {
			continue
		}
		rec := rec
		g.Go(func() error {
			if err := s.remote.Put(ctx, rec.Filename(), rec.MarshalMarkdown()); err != nil {
				s.logger.Warn("push failed",
					zap.String("record_id", rec.ID),
					zap.Error(err),
				)
				return nil
			}
			pushed <- struct{}{}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return len(pushed), err
	}

	return len(pushed), nil
}

func (s *Syncer) fetchOne(ctx context.Context, name string) error {
	data, err := s.remote.Get(ctx, name)
	if err != nil {
		return err
	}

	rec, err := quip.ParseMarkdown(strings.TrimSuffix(name, recordExt), data)
	if err != nil {
		return err
	}

	return s.store.Append(ctx, rec)
}
