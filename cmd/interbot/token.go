package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"interbot/pkg/config"
	"interbot/pkg/status"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the status API",
	Long: `Sign a token with status.jwt_secret for use against /api routes.

Example:
  curl -H "Authorization: Bearer $(interbot token)" http://127.0.0.1:18795/api/status`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewLoader().Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		token, err := status.IssueToken(cfg.Status.JWTSecret, tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "operator", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
