// Package config provides configuration management for interbot.
// It uses Viper for configuration loading with support for:
// - Multiple formats (JSON, YAML, TOML)
// - Environment variables (INTERBOT_ prefix)
// - Hot-reload of the log level
// - Default values
package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config represents the complete interbot configuration.
type Config struct {
	Discord    DiscordConfig    `mapstructure:"discord" json:"discord"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher" json:"dispatcher"`
	Logger     LoggerConfig     `mapstructure:"logger" json:"logger"`
	Redis      RedisConfig      `mapstructure:"redis" json:"redis"`
	Bus        BusConfig        `mapstructure:"bus" json:"bus"`
	State      StateConfig      `mapstructure:"state" json:"state"`
	Reporter   ReporterConfig   `mapstructure:"reporter" json:"reporter"`
	I18n       I18nConfig       `mapstructure:"i18n" json:"i18n"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry" json:"telemetry"`
	Status     StatusConfig     `mapstructure:"status" json:"status"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler" json:"scheduler"`
	mu         sync.RWMutex
}

// DiscordConfig configures the gateway session.
type DiscordConfig struct {
	Token         string `mapstructure:"token" json:"token"`
	ApplicationID string `mapstructure:"application_id" json:"application_id"`
	// DevGuildID scopes command sync to one guild so changes show up instantly.
	DevGuildID     string   `mapstructure:"dev_guild_id" json:"dev_guild_id"`
	SyncCommands   bool     `mapstructure:"sync_commands" json:"sync_commands"`
	AllowFrom      []string `mapstructure:"allow_from" json:"allow_from"`
	AlertChannelID string   `mapstructure:"alert_channel_id" json:"alert_channel_id"`
	Activity       string   `mapstructure:"activity" json:"activity"`
}

// DispatcherConfig configures the registry namespace and the worker pool.
type DispatcherConfig struct {
	Namespace             string          `mapstructure:"namespace" json:"namespace"`
	Workers               int             `mapstructure:"workers" json:"workers"`
	QueueSize             int             `mapstructure:"queue_size" json:"queue_size"`
	HandlerTimeoutSeconds int             `mapstructure:"handler_timeout_seconds" json:"handler_timeout_seconds"`
	DrainTimeoutSeconds   int             `mapstructure:"drain_timeout_seconds" json:"drain_timeout_seconds"`
	RateLimit             RateLimitConfig `mapstructure:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig bounds how often one user may invoke commands.
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute" json:"per_minute"` // 0 disables
	Burst     int `mapstructure:"burst" json:"burst"`
}

// LoggerConfig mirrors logger.Config in file form.
type LoggerConfig struct {
	Level       string `mapstructure:"level" json:"level"`
	OutputPath  string `mapstructure:"output_path" json:"output_path"`
	MaxSize     int    `mapstructure:"max_size" json:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" json:"max_age"`
	Compress    bool   `mapstructure:"compress" json:"compress"`
	Development bool   `mapstructure:"development" json:"development"`
}

// RedisConfig is shared by the redis bus and the redis state backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" json:"addr"`
	Password string `mapstructure:"password" json:"password"`
	DB       int    `mapstructure:"db" json:"db"`
}

// BusConfig selects the failure-report bus backend.
type BusConfig struct {
	Type       string `mapstructure:"type" json:"type"` // local or redis
	Prefix     string `mapstructure:"prefix" json:"prefix"`
	BufferSize int    `mapstructure:"buffer_size" json:"buffer_size"`
}

// StateConfig selects the KV backend for guild settings and stats.
type StateConfig struct {
	Backend             string `mapstructure:"backend" json:"backend"` // file or redis
	FilePath            string `mapstructure:"file_path" json:"file_path"`
	Prefix              string `mapstructure:"prefix" json:"prefix"`
	SaveIntervalSeconds int    `mapstructure:"save_interval_seconds" json:"save_interval_seconds"`
}

// ReporterConfig configures failure reporting.
type ReporterConfig struct {
	QueueSize int  `mapstructure:"queue_size" json:"queue_size"`
	Publish   bool `mapstructure:"publish" json:"publish"`
}

// I18nConfig configures localization.
type I18nConfig struct {
	DefaultLocale string `mapstructure:"default_locale" json:"default_locale"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled" json:"enabled"`
	Endpoint    string  `mapstructure:"endpoint" json:"endpoint"`
	ServiceName string  `mapstructure:"service_name" json:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio" json:"sample_ratio"`
}

// StatusConfig configures the HTTP status API.
type StatusConfig struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled"`
	Host      string `mapstructure:"host" json:"host"`
	Port      int    `mapstructure:"port" json:"port"`
	JWTSecret string `mapstructure:"jwt_secret" json:"jwt_secret"`
}

// SchedulerConfig configures periodic jobs.
type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled" json:"enabled"`
	StatsSnapshot string `mapstructure:"stats_snapshot" json:"stats_snapshot"` // cron spec
}

// DefaultNamespace is the namespace built-in commands register under.
const DefaultNamespace = "interbot.commands"

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".interbot")

	return &Config{
		Discord: DiscordConfig{
			SyncCommands: true,
			AllowFrom:    []string{},
			Activity:     "/help",
		},
		Dispatcher: DispatcherConfig{
			Namespace:             DefaultNamespace,
			Workers:               4,
			QueueSize:             256,
			HandlerTimeoutSeconds: 30,
			DrainTimeoutSeconds:   10,
			RateLimit: RateLimitConfig{
				PerMinute: 30,
				Burst:     5,
			},
		},
		Logger: LoggerConfig{
			Level:      "info",
			OutputPath: filepath.Join(base, "logs", "interbot.log"),
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
		Bus: BusConfig{
			Type:       "local",
			Prefix:     "interbot:bus:",
			BufferSize: 100,
		},
		State: StateConfig{
			Backend:             "file",
			FilePath:            filepath.Join(base, "state.json"),
			Prefix:              "interbot:",
			SaveIntervalSeconds: 5,
		},
		Reporter: ReporterConfig{
			QueueSize: 128,
			Publish:   true,
		},
		I18n: I18nConfig{
			DefaultLocale: "en-US",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "interbot",
			SampleRatio: 1,
		},
		Status: StatusConfig{
			Host: "127.0.0.1",
			Port: 18795,
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			StatsSnapshot: "@every 5m",
		},
	}
}

// HandlerTimeout returns the per-dispatch timeout.
func (c *Config) HandlerTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.Dispatcher.HandlerTimeoutSeconds) * time.Second
}

// DrainTimeout returns how long shutdown waits for in-flight dispatches.
func (c *Config) DrainTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.Dispatcher.DrainTimeoutSeconds) * time.Second
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Logger.Level
}

// SetLogLevel updates the log level in place (used by the watcher).
func (c *Config) SetLogLevel(level string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Logger.Level = level
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
