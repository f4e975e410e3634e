// Package generator orchestrates the generation pipeline: prompt
// construction, inference invocation, response cleanup, novelty checking,
// and bounded retry.
package generator

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quipworks/quips/pkg/cache"
	"github.com/quipworks/quips/pkg/corpus"
	"github.com/quipworks/quips/pkg/inference"
	"github.com/quipworks/quips/pkg/quip"
	"github.com/quipworks/quips/pkg/similarity"
	"github.com/quipworks/quips/pkg/store"
	"github.com/quipworks/quips/pkg/store/syncer"
)

// ErrExhausted is returned when every attempt produced a near-duplicate or
// failed. Nothing is appended in that case; the caller should try again.
var ErrExhausted = errors.New("generation attempts exhausted")

const (
	defaultMaxAttempts    = 3
	defaultDedupThreshold = 0.6
	defaultRecentWindow   = 50
	defaultMaxTokens      = 150
	defaultMinLength      = 20
)

// Config holds pipeline settings.
type Config struct {
	// MaxAttempts is the total retry budget per GenerateOne call.
	MaxAttempts int

	// DedupThreshold is the similarity above which a candidate is treated
	// as a near-duplicate.
	DedupThreshold float64

	// RecentWindow is how many of the newest accepted records the novelty
	// check compares against.
	RecentWindow int

	// MaxTokens bounds the model response length.
	MaxTokens int

	// MinLength rejects degenerate responses shorter than this many bytes
	// after cleanup.
	MinLength int

	// Rand overrides the random source, for deterministic tests.
	Rand *rand.Rand
}

// Generator produces novel records from the inference endpoint.
type Generator struct {
	config  Config
	corpus  *corpus.Corpus
	manager *inference.Manager
	store   store.Driver
	cache   *cache.Cache
	pusher  *syncer.Pusher
	logger  *zap.Logger

	// rngMu guards rng; rand.Rand is not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGenerator wires the pipeline. The pusher may be nil, in which case
// accepted records are durable locally only until an external push.
func NewGenerator(
	config Config,
	crp *corpus.Corpus,
	manager *inference.Manager,
	driver store.Driver,
	ch *cache.Cache,
	pusher *syncer.Pusher,
	logger *zap.Logger,
) *Generator {
	if config.MaxAttempts == 0 {
		config.MaxAttempts = defaultMaxAttempts
	}
	if config.DedupThreshold == 0 {
		config.DedupThreshold = defaultDedupThreshold
	}
	if config.RecentWindow == 0 {
		config.RecentWindow = defaultRecentWindow
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.MinLength == 0 {
		config.MinLength = defaultMinLength
	}

	rng := config.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Generator{
		config:  config,
		corpus:  crp,
		manager: manager,
		store:   driver,
		cache:   ch,
		pusher:  pusher,
		logger:  logger,
		rng:     rng,
	}
}

// GenerateOne runs the bounded retry loop and returns one accepted record.
//
// Each attempt selects a fresh style/factoid pair, so a pairing that keeps
// producing duplicates is never retried as-is. An inference call failure
// invalidates the handle and consumes one attempt. Returns
// inference.ErrNoActiveDeployment when no endpoint can be acquired, and
// ErrExhausted when the retry budget runs out without an accepted result.
func (g *Generator) GenerateOne(ctx context.Context) (quip.Record, error) {
	for attempt := 1; attempt <= g.config.MaxAttempts; attempt++ {
		factoid, style, example, err := g.pick()
		if err != nil {
			return quip.Record{}, err
		}

		handle, err := g.manager.Acquire(ctx)
		if err != nil {
			if errors.Is(err, inference.ErrNoActiveDeployment) {
				return quip.Record{}, err
			}
			// Registry hiccup: consumes this attempt.
			g.logger.Warn("acquire failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		raw, err := handle.Chat(ctx, systemPrompt(style, example), userPrompt(factoid), g.config.MaxTokens)
		if err != nil {
			g.manager.Invalidate()
			g.logger.Warn("inference call failed",
				zap.Int("attempt", attempt),
				zap.String("endpoint", handle.Endpoint),
				zap.Error(err),
			)
			continue
		}

		text := CleanResponse(raw)
		if len(text) < g.config.MinLength {
			g.logger.Debug("response too short, retrying",
				zap.Int("attempt", attempt),
				zap.Int("length", len(text)),
			)
			continue
		}

		novel, err := g.isNovel(ctx, text)
		if err != nil {
			return quip.Record{}, err
		}
		if !novel {
			g.logger.Debug("near-duplicate, retrying",
				zap.Int("attempt", attempt),
			)
			continue
		}

		rec := quip.New(text, style, factoid, time.Now())
		if err := g.store.Append(ctx, rec); err != nil {
			return quip.Record{}, err
		}

		if g.pusher != nil {
			g.pusher.Enqueue(rec)
		}

		g.logger.Info("quip accepted",
			zap.String("id", rec.ID),
			zap.String("style", style),
			zap.Int("attempt", attempt),
		)
		return rec, nil
	}

	return quip.Record{}, ErrExhausted
}

// pick selects a factoid, a style, and one example of that style, all
// uniformly at random.
func (g *Generator) pick() (factoid, style, example string, err error) {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()

	factoid = g.corpus.PickFactoid(g.rng)
	style, example, err = g.corpus.PickStyle(g.rng)
	return factoid, style, example, err
}

// isNovel checks the candidate against every curated example and the most
// recent accepted records. The recent window read here need not reflect a
// record concurrently being appended by another call; eventual inclusion on
// the next read is sufficient.
func (g *Generator) isNovel(ctx context.Context, text string) (bool, error) {
	if similarity.AnyAbove(text, g.corpus.AllExamples(), g.config.DedupThreshold) {
		return false, nil
	}

	recent, err := g.cache.Recent(ctx, g.config.RecentWindow)
	if err != nil {
		return false, err
	}
	return !similarity.AnyAbove(text, recent, g.config.DedupThreshold), nil
}
