// Package state provides persistent key-value storage for guild settings and
// dispatch statistics, backed by a JSON file or Redis.
package state

import (
	"context"
)

// KV is the interface for key-value storage backends. Values are stored as
// JSON.
type KV interface {
	// Get decodes the value under key into v.
	Get(ctx context.Context, key string, v any) (bool, error)

	// GetString retrieves a string value.
	GetString(ctx context.Context, key string) (string, bool, error)

	// Set stores a JSON-encodable value.
	Set(ctx context.Context, key string, value any) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// Keys returns the keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close flushes and releases the store.
	Close() error
}

// Well-known keys.
const (
	// StatsKey holds the persisted slash.StatsSnapshot.
	StatsKey = "stats:dispatch"
	// guildLocalePrefix prefixes per-guild locale overrides.
	guildLocalePrefix = "guild:locale:"
	// commandHashPrefix prefixes the hash of the last synced definitions.
	commandHashPrefix = "commands:hash:"
)

// GuildLocaleKey returns the key of a guild's locale override.
func GuildLocaleKey(guildID string) string {
	return guildLocalePrefix + guildID
}

// CommandHashKey returns the key holding the definition hash last synced to
// guildID, or to the global scope when guildID is empty.
func CommandHashKey(guildID string) string {
	if guildID == "" {
		guildID = "global"
	}
	return commandHashPrefix + guildID
}
