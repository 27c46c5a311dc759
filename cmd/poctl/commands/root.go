// Package commands implements poctl, the purchase order administration CLI.
package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/utafrali/purchase-orders/internal/app"
	"github.com/utafrali/purchase-orders/internal/config"
	"github.com/utafrali/purchase-orders/internal/service"
	"github.com/utafrali/purchase-orders/pkg/logger"
)

// StoreOpener connects the storage backend described by cfg.
type StoreOpener func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app.Store, error)

// runtime is shared by every subcommand and filled in before each run.
type runtime struct {
	open     StoreOpener
	logLevel string
	cfg      *config.Config
	logger   *slog.Logger
}

// NewRootCmd creates the poctl root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(app.OpenStore)
}

func newRootCmd(open StoreOpener) *cobra.Command {
	rt := &runtime{open: open}

	rootCmd := &cobra.Command{
		Use:           "poctl",
		Short:         "Administer the purchase order database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if rt.logLevel != "" {
				level = rt.logLevel
			}
			rt.cfg = cfg
			rt.logger = logger.NewWithWriter("poctl", level, cmd.ErrOrStderr())
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(
		newMigrateCommand(rt),
		newInitCommand(rt),
		newSeedCommand(rt),
		newClearCommand(rt),
		newSummaryCommand(rt),
		newExportCommand(rt),
	)

	return rootCmd
}

// withAdmin opens the store for the duration of fn.
func (rt *runtime) withAdmin(ctx context.Context, fn func(*service.AdminService) error) error {
	store, err := rt.open(ctx, rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(service.NewAdminService(store.Admin, rt.logger))
}
