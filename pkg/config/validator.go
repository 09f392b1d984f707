package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validateDiscord(&cfg.Discord)
	v.validateDispatcher(&cfg.Dispatcher)
	v.validateLogger(&cfg.Logger)
	v.validateBus(&cfg.Bus, &cfg.Redis)
	v.validateState(&cfg.State, &cfg.Redis)
	v.validateReporter(&cfg.Reporter)
	v.validateI18n(&cfg.I18n)
	v.validateTelemetry(&cfg.Telemetry)
	v.validateStatus(&cfg.Status)
	v.validateScheduler(&cfg.Scheduler)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

func (v *Validator) validateDiscord(cfg *DiscordConfig) {
	if strings.TrimSpace(cfg.Token) == "" {
		v.addError("discord.token", "is required (set INTERBOT_DISCORD_TOKEN)")
	}
	if cfg.SyncCommands && strings.TrimSpace(cfg.ApplicationID) == "" {
		v.addError("discord.application_id", "is required when sync_commands is enabled")
	}
}

func (v *Validator) validateDispatcher(cfg *DispatcherConfig) {
	if strings.TrimSpace(cfg.Namespace) == "" {
		v.addError("dispatcher.namespace", "must not be empty")
	}
	if cfg.Workers < 1 {
		v.addError("dispatcher.workers", "must be at least 1")
	}
	if cfg.QueueSize < 0 {
		v.addError("dispatcher.queue_size", "must not be negative")
	}
	if cfg.HandlerTimeoutSeconds < 0 {
		v.addError("dispatcher.handler_timeout_seconds", "must not be negative")
	}
	if cfg.DrainTimeoutSeconds < 0 {
		v.addError("dispatcher.drain_timeout_seconds", "must not be negative")
	}
	if cfg.RateLimit.PerMinute < 0 {
		v.addError("dispatcher.rate_limit.per_minute", "must not be negative")
	}
	if cfg.RateLimit.PerMinute > 0 && cfg.RateLimit.Burst < 1 {
		v.addError("dispatcher.rate_limit.burst", "must be at least 1 when rate limiting is enabled")
	}
}

func (v *Validator) validateLogger(cfg *LoggerConfig) {
	switch cfg.Level {
	case "", "debug", "info", "warn", "error":
	default:
		v.addError("logger.level", fmt.Sprintf("unknown level %q", cfg.Level))
	}
	if cfg.MaxSize < 0 || cfg.MaxBackups < 0 || cfg.MaxAge < 0 {
		v.addError("logger", "rotation limits must not be negative")
	}
}

func (v *Validator) validateBus(cfg *BusConfig, redis *RedisConfig) {
	switch cfg.Type {
	case "", "local":
	case "redis":
		if strings.TrimSpace(redis.Addr) == "" {
			v.addError("redis.addr", "is required when bus.type is redis")
		}
	default:
		v.addError("bus.type", fmt.Sprintf("unknown bus type %q", cfg.Type))
	}
	if cfg.BufferSize < 0 {
		v.addError("bus.buffer_size", "must not be negative")
	}
}

func (v *Validator) validateState(cfg *StateConfig, redis *RedisConfig) {
	switch cfg.Backend {
	case "", "file":
	case "redis":
		if strings.TrimSpace(redis.Addr) == "" {
			v.addError("redis.addr", "is required when state.backend is redis")
		}
	default:
		v.addError("state.backend", fmt.Sprintf("unknown backend %q", cfg.Backend))
	}
}

func (v *Validator) validateReporter(cfg *ReporterConfig) {
	if cfg.QueueSize < 0 {
		v.addError("reporter.queue_size", "must not be negative")
	}
}

func (v *Validator) validateI18n(cfg *I18nConfig) {
	if strings.TrimSpace(cfg.DefaultLocale) == "" {
		v.addError("i18n.default_locale", "must not be empty")
	}
}

func (v *Validator) validateTelemetry(cfg *TelemetryConfig) {
	if !cfg.Enabled {
		return
	}
	if cfg.Endpoint != "" {
		if _, err := url.Parse(cfg.Endpoint); err != nil {
			v.addError("telemetry.endpoint", fmt.Sprintf("invalid URL: %v", err))
		}
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		v.addError("telemetry.sample_ratio", "must be between 0 and 1")
	}
}

func (v *Validator) validateStatus(cfg *StatusConfig) {
	if !cfg.Enabled {
		return
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		v.addError("status.port", "must be between 1 and 65535")
	}
	if len(cfg.JWTSecret) < 16 {
		v.addError("status.jwt_secret", "must be at least 16 characters when the status API is enabled")
	}
}

func (v *Validator) validateScheduler(cfg *SchedulerConfig) {
	if !cfg.Enabled || cfg.StatsSnapshot == "" {
		return
	}
	if _, err := cron.ParseStandard(cfg.StatsSnapshot); err != nil {
		v.addError("scheduler.stats_snapshot", fmt.Sprintf("invalid schedule: %v", err))
	}
}

// ValidateConfig is a convenience function to validate configuration.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
