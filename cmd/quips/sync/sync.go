// Package synccmder provides the sync command for manual reconciliation
// with the remote durable store.
package synccmder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quipworks/quips/pkg/config"
	"github.com/quipworks/quips/pkg/logger"
	"github.com/quipworks/quips/pkg/store/local"
	"github.com/quipworks/quips/pkg/store/remote/github"
	"github.com/quipworks/quips/pkg/store/syncer"
)

type SyncCommander struct {
	configDir string
	push      bool
	debug     bool
	logger    *zap.Logger
}

const syncLongDesc string = `Reconcile the local record store with the remote durable store.

Fetches records present remotely but missing locally. With --push, also
uploads records that exist locally but not remotely.`

const syncShortDesc string = "Reconcile local records with the remote store"

func NewSyncCmd() *cobra.Command {
	cmder := &SyncCommander{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: syncShortDesc,
		Long:  syncLongDesc,
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

	cmd.Flags().BoolVar(&cmder.push, "push", false, "Also push local-only records to the remote store")

	return cmd
}

func (c *SyncCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	cfg := config.FromViper(v)

	if cfg.Remote.Repo == "" {
		return errors.New("remote store not configured (set remote.repo)")
	}

	storer, err := local.NewDriver(cfg.Storage.RecordsDir)
	if err != nil {
		return fmt.Errorf("creating record store: %w", err)
	}
	defer storer.Close()

	rem := github.NewStore(github.Config{
		Repo:  cfg.Remote.Repo,
		Dir:   cfg.Remote.Dir,
		Token: cfg.Remote.Token,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sync := syncer.NewSyncer(storer, rem, c.logger)

	fetched, err := sync.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	c.logger.Info("reconcile complete", zap.Int("fetched", fetched))

	if c.push {
		pushed, err := sync.PushMissing(ctx)
		if err != nil {
			return fmt.Errorf("push: %w", err)
		}
		c.logger.Info("push complete", zap.Int("pushed", pushed))
	}

	return nil
}
