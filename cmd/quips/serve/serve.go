// Package servecmder provides the serve command that runs the quips API server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quipworks/quips/api"
	"github.com/quipworks/quips/pkg/cache"
	"github.com/quipworks/quips/pkg/config"
	"github.com/quipworks/quips/pkg/corpus"
	"github.com/quipworks/quips/pkg/generator"
	"github.com/quipworks/quips/pkg/inference"
	"github.com/quipworks/quips/pkg/logger"
	"github.com/quipworks/quips/pkg/store/local"
	"github.com/quipworks/quips/pkg/store/remote"
	"github.com/quipworks/quips/pkg/store/remote/github"
	"github.com/quipworks/quips/pkg/store/syncer"
)

type ServeCommander struct {
	listen    string
	configDir string
	debug     bool
	logger    *zap.Logger
}

const serveLongDesc string = `Run the quips API server.

On startup the local record store is reconciled with the remote durable
store, then the HTTP API starts serving:
  GET  /api/quip        Generate one quip
  GET  /api/quips       List quips (paginated, ?style= filter)
  GET  /api/quip/:id    Fetch one quip
  POST /api/share/:id   Push one quip to the remote store`

const serveShortDesc string = "Run the quips API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (overrides config)")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	cfg := config.FromViper(v)
	if c.listen != "" {
		cfg.Server.Listen = c.listen
	}

	crp, err := corpus.Load(cfg.Corpus.FactoidsPath, cfg.Corpus.ExamplesPath)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}

	storer, err := local.NewDriver(cfg.Storage.RecordsDir)
	if err != nil {
		return fmt.Errorf("creating record store: %w", err)
	}
	defer storer.Close()

	// Remote durable store is optional; without it records are local-only.
	var rem remote.Remote
	var pusher *syncer.Pusher
	if cfg.Remote.Repo != "" {
		rem = github.NewStore(github.Config{
			Repo:  cfg.Remote.Repo,
			Dir:   cfg.Remote.Dir,
			Token: cfg.Remote.Token,
		})

		// Cold start: pull down whatever the remote store has that local
		// storage lost. Failure is logged, never fatal; local state stays
		// usable and the next restart retries.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		sync := syncer.NewSyncer(storer, rem, c.logger)
		fetched, err := sync.Reconcile(ctx)
		cancel()
		if err != nil {
			c.logger.Warn("cold-start reconciliation failed", zap.Error(err))
		} else if fetched > 0 {
			c.logger.Info("cold-start reconciliation complete", zap.Int("fetched", fetched))
		}

		pusher = syncer.NewPusher(&syncer.PusherConfig{
			Remote: rem,
			Logger: c.logger,
		})
		defer pusher.Close()
	} else {
		c.logger.Info("remote store not configured, records are local-only")
	}

	registry := inference.NewHTTPRegistry(cfg.Inference.RegistryURL, cfg.Inference.RegistryToken)
	manager := inference.NewManager(registry, inference.Config{
		Model:       cfg.Inference.Model,
		ChatTimeout: time.Duration(cfg.Inference.ChatTimeoutSeconds) * time.Second,
	}, c.logger)

	snapshots := cache.New(storer)

	gen := generator.NewGenerator(generator.Config{
		MaxAttempts:    cfg.Generation.MaxAttempts,
		DedupThreshold: cfg.Generation.DedupThreshold,
		RecentWindow:   cfg.Generation.RecentWindow,
		MaxTokens:      cfg.Generation.MaxTokens,
		MinLength:      cfg.Generation.MinLength,
	}, crp, manager, storer, snapshots, pusher, c.logger)

	apiServer := api.NewServer(api.Config{
		ListenAddr: cfg.Server.Listen,
	}, storer, snapshots, gen, crp, rem, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}
