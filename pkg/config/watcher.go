package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"interbot/pkg/logger"
)

// ChangeHandler is a callback function called when configuration changes.
type ChangeHandler func(*Config) error

// Watcher monitors the configuration file and applies the parts that can
// change at runtime. Everything else requires a restart.
type Watcher struct {
	loader   *Loader
	config   *Config
	log      *logger.Logger
	handlers []ChangeHandler
	mu       sync.RWMutex
	watching bool
}

// NewWatcher creates a new configuration watcher.
func NewWatcher(loader *Loader, config *Config, log *logger.Logger) *Watcher {
	return &Watcher{
		loader:   loader,
		config:   config,
		log:      log,
		handlers: make([]ChangeHandler, 0),
	}
}

// AddHandler registers a handler to be called when configuration changes.
func (w *Watcher) AddHandler(handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Start begins watching the configuration file for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return fmt.Errorf("watcher already started")
	}
	w.watching = true
	w.mu.Unlock()

	w.loader.viper.OnConfigChange(func(e fsnotify.Event) {
		w.reload(e.Name)
	})
	w.loader.viper.WatchConfig()

	return nil
}

func (w *Watcher) reload(path string) {
	w.mu.RLock()
	active := w.watching
	w.mu.RUnlock()
	if !active {
		return
	}

	next, err := w.loader.Load("")
	if err != nil {
		w.log.Warn("Config reload failed", zap.String("path", path), zap.Error(err))
		return
	}
	if err := ValidateConfig(next); err != nil {
		w.log.Warn("Reloaded config is invalid, keeping current", zap.Error(err))
		return
	}

	w.config.SetLogLevel(next.Logger.Level)
	w.notifyHandlers(w.config)
}

// Stop stops applying changes. viper keeps its fsnotify watcher until exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watching = false
}

// GetConfig returns the live configuration.
func (w *Watcher) GetConfig() *Config {
	return w.config
}

func (w *Watcher) notifyHandlers(config *Config) {
	w.mu.RLock()
	handlers := make([]ChangeHandler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(config); err != nil {
			w.log.Warn("Config change handler failed", zap.Error(err))
		}
	}
}

// LogLevelHandler returns a handler that pushes the configured level into log.
func LogLevelHandler(log *logger.Logger) ChangeHandler {
	return func(cfg *Config) error {
		level := logger.Level(cfg.LogLevel())
		if level == log.Level() {
			return nil
		}
		if err := log.SetLevel(level); err != nil {
			return err
		}
		log.Info("Log level changed", zap.String("level", string(level)))
		return nil
	}
}
