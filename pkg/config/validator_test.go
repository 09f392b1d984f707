package config

import (
	"testing"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Discord.Token = "token"
	cfg.Discord.ApplicationID = "1234"
	return cfg
}

func hasField(t *testing.T, err error, field string) bool {
	t.Helper()
	validationErrors, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	for _, validationErr := range validationErrors {
		if validationErr.Field == field {
			return true
		}
	}
	return false
}

func TestValidateConfigAcceptsDefaultsWithToken(t *testing.T) {
	if err := ValidateConfig(validConfig(t)); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateConfigRequiresToken(t *testing.T) {
	cfg := validConfig(t)
	cfg.Discord.Token = "  "

	err := ValidateConfig(cfg)
	if err == nil {
		t.Fatalf("expected validation error for token")
	}
	if !hasField(t, err, "discord.token") {
		t.Fatalf("expected discord.token validation error, got %v", err)
	}
}

func TestValidateConfigRejectsInvalidBusType(t *testing.T) {
	cfg := validConfig(t)
	cfg.Bus.Type = "kafka"

	err := ValidateConfig(cfg)
	if err == nil || !hasField(t, err, "bus.type") {
		t.Fatalf("expected bus.type validation error, got %v", err)
	}
}

func TestValidateConfigRequiresRedisAddrForRedisBackends(t *testing.T) {
	cfg := validConfig(t)
	cfg.State.Backend = "redis"
	cfg.Redis.Addr = ""

	err := ValidateConfig(cfg)
	if err == nil || !hasField(t, err, "redis.addr") {
		t.Fatalf("expected redis.addr validation error, got %v", err)
	}
}

func TestValidateConfigRejectsZeroWorkers(t *testing.T) {
	cfg := validConfig(t)
	cfg.Dispatcher.Workers = 0

	err := ValidateConfig(cfg)
	if err == nil || !hasField(t, err, "dispatcher.workers") {
		t.Fatalf("expected dispatcher.workers validation error, got %v", err)
	}
}

func TestValidateConfigRejectsBadSchedule(t *testing.T) {
	cfg := validConfig(t)
	cfg.Scheduler.StatsSnapshot = "every now and then"

	err := ValidateConfig(cfg)
	if err == nil || !hasField(t, err, "scheduler.stats_snapshot") {
		t.Fatalf("expected scheduler.stats_snapshot validation error, got %v", err)
	}
}

func TestValidateConfigRequiresJWTSecretForStatusAPI(t *testing.T) {
	cfg := validConfig(t)
	cfg.Status.Enabled = true
	cfg.Status.JWTSecret = "short"

	err := ValidateConfig(cfg)
	if err == nil || !hasField(t, err, "status.jwt_secret") {
		t.Fatalf("expected status.jwt_secret validation error, got %v", err)
	}
}

func TestValidationErrorsMultilineMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}
	want := "2 validation errors:\n  - a: bad\n  - b: worse\n"
	if got := errs.Error(); got != want {
		t.Fatalf("unexpected message %q", got)
	}
}
