package commands

import (
	"fmt"
	"time"

	"github.com/flathunt/platform/shared/auth"
	"github.com/flathunt/platform/shared/utils"
	"github.com/spf13/cobra"
)

func newTokenCommand(e *env) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Work with access tokens",
	}

	var ttl time.Duration
	issueCmd := &cobra.Command{
		Use:   "issue <userId>",
		Short: "Sign an access token for a user",
		Long: `Sign a token with JWT_SECRET for the given user id, as a login would.

Examples:
  flathunt-admin token issue 65f1c0ffee0000000000a001
  flathunt-admin token issue 65f1c0ffee0000000000a001 --ttl 1h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := args[0]
			if !utils.ValidateID(userID) {
				return fmt.Errorf("invalid user id %q", userID)
			}
			if err := e.cfg.RequireJWTSecret(); err != nil {
				return err
			}
			tokens, err := auth.NewJWTService(e.cfg.JWTSecret, auth.WithTTL(ttl))
			if err != nil {
				return err
			}
			token, err := tokens.Issue(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().DurationVar(&ttl, "ttl", auth.TokenTTL, "token lifetime")

	tokenCmd.AddCommand(issueCmd)
	return tokenCmd
}
