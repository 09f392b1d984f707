package logger_test

import (
	"go.uber.org/zap"

	"interbot/pkg/logger"
)

// Example_basicUsage demonstrates console-only structured logging.
func Example_basicUsage() {
	cfg := logger.DefaultConfig()
	cfg.Development = true
	cfg.OutputPath = "" // stdout only

	log, err := logger.New(cfg)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("Dispatching interaction",
		zap.String("command", "ping"),
		zap.String("guild_id", "81384788765712384"),
	)
}

// Example_withFields demonstrates a per-dispatch child logger.
func Example_withFields() {
	cfg := logger.DefaultConfig()
	cfg.OutputPath = ""

	log, _ := logger.New(cfg)
	defer log.Sync()

	dispatchLog := log.WithFields(
		zap.String("dispatch_id", "0b7f4c1e"),
		zap.String("command", "admin"),
	)

	dispatchLog.Debug("Resolving subcommand")
	dispatchLog.Info("Dispatch completed")
}
