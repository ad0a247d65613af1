package commands

import (
	"context"
	"fmt"

	"github.com/flathunt/platform/shared/store"
	"github.com/spf13/cobra"
)

func newMigrateCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create indexes or apply SQL migrations",
		Long: `Bring the configured store's schema up to date.

For MongoDB this creates the unique email index and the 2dsphere index on
apartment geometry. For Postgres it applies the embedded goose migrations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 4*e.cfg.StoreTimeout)
			defer cancel()
			return e.withStore(ctx, func(st store.Store) error {
				if err := st.EnsureSchema(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (driver=%s, mode=%s)\n", e.cfg.StoreDriver, e.cfg.Mode())
				return nil
			})
		},
	}
}

func newPingCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the store is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.StoreTimeout)
			defer cancel()
			return e.withStore(ctx, func(st store.Store) error {
				if err := st.Ping(ctx); err != nil {
					return fmt.Errorf("ping: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
}
