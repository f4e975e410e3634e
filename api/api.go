// Package api exposes the quips service over HTTP: generate, list, single
// record lookup, and share. The JSON surface is the core's only public
// interface; presentation (pages, images, share links) lives elsewhere.
package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quipworks/quips/pkg/cache"
	"github.com/quipworks/quips/pkg/corpus"
	"github.com/quipworks/quips/pkg/generator"
	"github.com/quipworks/quips/pkg/store"
	"github.com/quipworks/quips/pkg/store/remote"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the API server for the quips system.
type Server struct {
	config    Config
	storer    store.Driver
	snapshots *cache.Cache
	gen       *generator.Generator
	crp       *corpus.Corpus
	remote    remote.Remote
	logger    *zap.Logger
	app       *fiber.App
}

// NewServer creates a new API server. The store, cache, and generator are
// injected so they can be shared with CLI commands. remote may be nil, in
// which case the lookup fallback and the share endpoint are disabled.
func NewServer(
	config Config,
	storer store.Driver,
	snapshots *cache.Cache,
	gen *generator.Generator,
	crp *corpus.Corpus,
	rem remote.Remote,
	logger *zap.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		storer:    storer,
		snapshots: snapshots,
		gen:       gen,
		crp:       crp,
		remote:    rem,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/api/quip", s.handleGenerate)
	app.Get("/api/quips", s.handleListQuips)
	app.Get("/api/quip/:id", s.handleGetQuip)
	app.Get("/api/styles", s.handleStyles)
	app.Post("/api/share/:id", s.handleShare)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
