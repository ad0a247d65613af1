// Package commands implements the flathunt admin CLI.
package commands

import (
	"context"

	"github.com/flathunt/platform/shared/config"
	"github.com/flathunt/platform/shared/store"
	"github.com/spf13/cobra"
)

// Opener connects to the store described by cfg.
type Opener func(ctx context.Context, cfg *config.Config) (store.Store, error)

// env is the state shared by every subcommand once flags are parsed.
type env struct {
	open Opener
	cfg  *config.Config
}

// NewRootCommand builds the CLI. open is used by the commands that need the
// store, so tests can substitute an in-memory one.
func NewRootCommand(open Opener) *cobra.Command {
	e := &env{open: open}
	var envFile string

	root := &cobra.Command{
		Use:   "flathunt-admin",
		Short: "Administer the flathunt services",
		Long: `Operational commands for the flathunt platform.

Configuration is read from the environment and an optional .env file,
exactly as the services read it.

Examples:
  flathunt-admin migrate
  flathunt-admin ping
  flathunt-admin token issue 65f1c0ffee0000000000a001`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(envFile, "")
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			e.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "path to an optional .env file")

	root.AddCommand(newMigrateCommand(e))
	root.AddCommand(newPingCommand(e))
	root.AddCommand(newTokenCommand(e))
	return root
}

func (e *env) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := e.open(ctx, e.cfg)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())
	return fn(st)
}
