// Package main is the entry point for the interbot CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"interbot/pkg/bus"
	"interbot/pkg/commands"
	"interbot/pkg/config"
	"interbot/pkg/cron"
	"interbot/pkg/gateway"
	"interbot/pkg/i18n"
	"interbot/pkg/logger"
	"interbot/pkg/report"
	"interbot/pkg/slash"
	"interbot/pkg/slash/checks"
	"interbot/pkg/state"
	"interbot/pkg/status"
	"interbot/pkg/telemetry"
	"interbot/pkg/version"
	"interbot/pkg/workers"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "interbot",
	Short: "interbot - a Discord slash command bot",
	Long: `interbot registers slash commands with Discord and dispatches
interactions to them with permission checks, localization and
failure reporting.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return applyConfigPath()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetFullVersion())
		fmt.Printf("discordgo %s\n", version.Discordgo())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.AddCommand(versionCmd)
}

// applyConfigPath exports the --config flag so every loader in the process
// reads the same file.
func applyConfigPath() error {
	path := strings.TrimSpace(configPath)
	if path == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	configPath = abs
	return os.Setenv(config.ConfigPathEnv, abs)
}

// coreModules is the dependency graph shared by every command that needs the
// registry. It constructs the session but does not connect it.
func coreModules() []fx.Option {
	return []fx.Option{
		config.Module,
		logger.Module,
		state.Module,
		bus.Module,
		telemetry.Module,
		i18n.Module,
		checks.Module,
		report.Module,
		workers.Module,
		slash.Module,
		commands.Module,
		gateway.Module,
		cron.Module,
	}
}

// appModules adds the long-running surfaces.
func appModules() []fx.Option {
	return append(coreModules(), status.Module)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
