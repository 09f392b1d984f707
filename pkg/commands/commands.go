// Package commands contains the bot's built-in slash commands.
package commands

import (
	"context"
	"sync"
	"time"

	"interbot/pkg/config"
	"interbot/pkg/slash"
)

// Namespaces the built-ins register under. Moderation and settings live in a
// child namespace so a deployment can serve them alone.
const (
	Namespace      = config.DefaultNamespace
	AdminNamespace = Namespace + ".admin"
)

// SessionInfo reports live gateway facts.
type SessionInfo interface {
	Latency() time.Duration
	GuildCount() int
}

// Moderator performs member actions.
type Moderator interface {
	Ban(ctx context.Context, guildID, userID, reason string) error
	Kick(ctx context.Context, guildID, userID, reason string) error
}

// LocaleStore persists per-guild locale overrides.
type LocaleStore interface {
	GuildLocale(ctx context.Context, guildID string) (string, bool)
	SetGuildLocale(ctx context.Context, guildID, locale string) (string, error)
	ClearGuildLocale(ctx context.Context, guildID string) error
}

// Locales lists what the translator can serve.
type Locales interface {
	Supported() []string
	DisplayName(locale string) string
}

// Directory gives commands read access to the registry they are part of. It
// is filled once the registry is built.
type Directory struct {
	mu       sync.RWMutex
	registry *slash.Registry
}

// Set installs the registry.
func (d *Directory) Set(r *slash.Registry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registry = r
}

// Registry returns the installed registry, or nil.
func (d *Directory) Registry() *slash.Registry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.registry
}
