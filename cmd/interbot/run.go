package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"interbot/pkg/config"
	"interbot/pkg/logger"
	"interbot/pkg/slash"
	"interbot/pkg/version"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and serve slash commands",
	Long: `Connect to the Discord gateway and dispatch slash interactions.

When installed as a system service, the service manager calls this command.

Examples:
  # Run in foreground
  interbot run

  # Use a specific config file
  interbot -c ./interbot.yaml run`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if runningUnderServiceManager() {
		return RunService()
	}
	return runForeground()
}

// runningUnderServiceManager detects systemd, launchd and the Windows SCM.
func runningUnderServiceManager() bool {
	return os.Getenv("INVOCATION_ID") != "" ||
		os.Getenv("_") == "/bin/launchd" ||
		os.Getenv("SERVICE_NAME") != ""
}

func newApp(extra ...fx.Option) *fx.App {
	opts := append(appModules(), fx.Invoke(announce), fx.StopTimeout(30*time.Second))
	return fx.New(append(opts, extra...)...)
}

func announce(lc fx.Lifecycle, log *logger.Logger, cfg *config.Config, registry *slash.Registry) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("interbot started",
				zap.String("version", version.GetVersion()),
				zap.String("namespace", registry.Namespace()),
				zap.Int("commands", registry.Len()),
				zap.Bool("status_api", cfg.Status.Enabled),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("interbot stopped")
			return nil
		},
	})
}

// runForeground blocks until SIGINT or SIGTERM.
func runForeground() error {
	app := newApp()
	if err := app.Err(); err != nil {
		return fmt.Errorf("building app: %w", err)
	}
	printBanner(os.Stdout)
	fmt.Println("Press Ctrl+C to stop")
	app.Run()
	return nil
}
