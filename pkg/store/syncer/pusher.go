package syncer

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quipworks/quips/pkg/quip"
	"github.com/quipworks/quips/pkg/store/remote"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 64
)

// Job is one record queued for a best-effort push to the remote store.
type Job struct {
	// ID identifies the job in logs.
	ID string

	Record quip.Record
}

// PusherConfig is the configuration options for the push worker pool.
type PusherConfig struct {
	// Remote is the durable store to push records to.
	Remote remote.Remote

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel.
	QueueSize uint

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// Pusher pushes records to the remote store asynchronously via a worker
// pool, keeping the push off the request-serving path. Push failures are
// logged, never surfaced: the record stays durable locally until the next
// successful push or a future cold-start reconciliation.
type Pusher struct {
	config *PusherConfig
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPusher creates a Pusher and starts its worker goroutines.
func NewPusher(c *PusherConfig) *Pusher {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	p := &Pusher{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := uint(0); i < c.NumWorkers; i++ {
		go p.worker(i)
	}

	return p
}

// Enqueue submits a record for pushing. Returns true if enqueued, false if
// the queue is full and the job was dropped.
func (p *Pusher) Enqueue(rec quip.Record) bool {
	job := Job{ID: uuid.NewString(), Record: rec}

	select {
	case p.queue <- job:
		p.logger.Debug("push queued",
			zap.String("job_id", job.ID),
			zap.String("record_id", rec.ID),
		)
		return true
	default:
		p.logger.Error("push not queued, queue full, job dropped",
			zap.String("job_id", job.ID),
			zap.String("record_id", rec.ID),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight pushes to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pusher) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the queue.
func (p *Pusher) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("push worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("push worker stopped", zap.Uint("worker_id", id))
}

func (p *Pusher) processJob(job Job) {
	ctx := context.Background()

	err := p.config.Remote.Put(ctx, job.Record.Filename(), job.Record.MarshalMarkdown())
	if err != nil {
		p.logger.Warn("best-effort push failed",
			zap.String("job_id", job.ID),
			zap.String("record_id", job.Record.ID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("record pushed",
		zap.String("record_id", job.Record.ID),
	)
}
