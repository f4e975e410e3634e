// Package generatecmder provides the generate command for one-shot
// generation from the command line.
package generatecmder

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quipworks/quips/pkg/cache"
	"github.com/quipworks/quips/pkg/config"
	"github.com/quipworks/quips/pkg/corpus"
	"github.com/quipworks/quips/pkg/generator"
	"github.com/quipworks/quips/pkg/inference"
	"github.com/quipworks/quips/pkg/logger"
	"github.com/quipworks/quips/pkg/store/local"
	"github.com/quipworks/quips/pkg/store/remote/github"
	"github.com/quipworks/quips/pkg/store/syncer"
)

type GenerateCommander struct {
	configDir string
	debug     bool
	logger    *zap.Logger
}

const generateLongDesc string = `Generate one quip and print it.

The record is appended to the local store and, when a remote store is
configured, pushed to it before the command exits.`

const generateShortDesc string = "Generate one quip"

func NewGenerateCmd() *cobra.Command {
	cmder := &GenerateCommander{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: generateShortDesc,
		Long:  generateLongDesc,
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

	return cmd
}

func (c *GenerateCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	cfg := config.FromViper(v)

	crp, err := corpus.Load(cfg.Corpus.FactoidsPath, cfg.Corpus.ExamplesPath)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}

	storer, err := local.NewDriver(cfg.Storage.RecordsDir)
	if err != nil {
		return fmt.Errorf("creating record store: %w", err)
	}
	defer storer.Close()

	var pusher *syncer.Pusher
	if cfg.Remote.Repo != "" {
		rem := github.NewStore(github.Config{
			Repo:  cfg.Remote.Repo,
			Dir:   cfg.Remote.Dir,
			Token: cfg.Remote.Token,
		})
		pusher = syncer.NewPusher(&syncer.PusherConfig{
			Remote: rem,
			Logger: c.logger,
		})
		// Close drains the queue so the push completes before exit.
		defer pusher.Close()
	}

	registry := inference.NewHTTPRegistry(cfg.Inference.RegistryURL, cfg.Inference.RegistryToken)
	manager := inference.NewManager(registry, inference.Config{
		Model:       cfg.Inference.Model,
		ChatTimeout: time.Duration(cfg.Inference.ChatTimeoutSeconds) * time.Second,
	}, c.logger)

	gen := generator.NewGenerator(generator.Config{
		MaxAttempts:    cfg.Generation.MaxAttempts,
		DedupThreshold: cfg.Generation.DedupThreshold,
		RecentWindow:   cfg.Generation.RecentWindow,
		MaxTokens:      cfg.Generation.MaxTokens,
		MinLength:      cfg.Generation.MinLength,
	}, crp, manager, storer, cache.New(storer), pusher, c.logger)

	rec, err := gen.GenerateOne(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%s\n\n  id:    %s\n  style: %s\n", rec.Text, rec.ID, rec.Style)
	return nil
}
