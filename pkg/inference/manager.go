// Package inference owns the lifecycle of the connection handle to a remote
// model-serving endpoint: discovery through a deployment registry, lazy
// acquisition, and invalidation on failure.
//
// The manager never provisions deployments. Deploying a model takes minutes
// and must not happen inside a request-serving path, where concurrent
// requests would independently trigger provisioning and exhaust request
// timeouts. Absence of an active deployment is a caller-visible failure.
package inference

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrNoActiveDeployment is returned by Acquire when the registry lists no
// deployment in the Active state.
var ErrNoActiveDeployment = errors.New("no active deployment available")

const defaultChatTimeout = 2 * time.Minute

// Config holds manager settings.
type Config struct {
	// Model is the model name sent with every chat completion request.
	Model string

	// ChatTimeout bounds each inference call (defaults to 2 minutes;
	// model cold starts are slow).
	ChatTimeout time.Duration
}

// Manager holds the single authoritative connection handle. The handle is
// an immutable value swapped atomically, so concurrent Acquire/Invalidate
// calls never observe a half-updated handle.
type Manager struct {
	registry Registry
	config   Config
	logger   *zap.Logger

	handle atomic.Pointer[Handle]
	client *http.Client
}

// NewManager creates a manager that discovers endpoints via the registry.
func NewManager(registry Registry, config Config, logger *zap.Logger) *Manager {
	if config.ChatTimeout == 0 {
		config.ChatTimeout = defaultChatTimeout
	}
	return &Manager{
		registry: registry,
		config:   config,
		logger:   logger,
		client:   &http.Client{},
	}
}

// Acquire returns the cached handle when one is live, otherwise it queries
// the registry and adopts the first deployment in the Active state.
//
// Concurrent callers may redundantly re-discover after an invalidation;
// each stores an equivalent handle, which is safe.
func (m *Manager) Acquire(ctx context.Context) (*Handle, error) {
	if h := m.handle.Load(); h != nil {
		return h, nil
	}

	deployments, err := m.registry.ListDeployments(ctx)
	if err != nil {
		return nil, err
	}

	for _, d := range deployments {
		if d.State != StateActive {
			continue
		}

		h := &Handle{
			Endpoint: d.InstanceName,
			baseURL:  d.URL,
			model:    m.config.Model,
			timeout:  m.config.ChatTimeout,
			client:   m.client,
		}
		m.handle.Store(h)

		m.logger.Info("adopted active deployment",
			zap.String("instance", d.InstanceName),
			zap.String("url", d.URL),
		)
		return h, nil
	}

	return nil, ErrNoActiveDeployment
}

// Invalidate discards the current handle so the next Acquire re-discovers.
// Consumers call this after any failure observed while using a handle. It
// tracks no failure counts and applies no backoff: one observed failure
// forces one re-resolution.
func (m *Manager) Invalidate() {
	if h := m.handle.Swap(nil); h != nil {
		m.logger.Warn("invalidated inference handle",
			zap.String("instance", h.Endpoint),
		)
	}
}
