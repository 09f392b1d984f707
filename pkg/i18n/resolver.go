package i18n

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"interbot/pkg/logger"
	"interbot/pkg/slash"
	"interbot/pkg/state"
)

// ErrUnsupportedLocale is returned when a guild override names a locale the
// bundle cannot serve.
var ErrUnsupportedLocale = errors.New("unsupported locale")

// Resolver picks a dispatch locale: guild override, then the member's client
// locale, then the guild's preferred locale, then the bundle default.
type Resolver struct {
	bundle *Bundle
	kv     state.KV
	log    *logger.Logger
}

// NewResolver creates a resolver. kv may be nil, which disables overrides.
func NewResolver(bundle *Bundle, kv state.KV, log *logger.Logger) *Resolver {
	return &Resolver{bundle: bundle, kv: kv, log: log}
}

// ResolveLocale implements slash.LocaleResolver.
func (r *Resolver) ResolveLocale(ctx context.Context, ev *slash.Event) string {
	if ev.InGuild() {
		if loc, ok := r.GuildLocale(ctx, ev.GuildID); ok {
			return loc
		}
	}
	for _, candidate := range []string{ev.Locale, ev.GuildLocale} {
		if tag, ok := r.bundle.Match(candidate); ok {
			return tag.String()
		}
	}
	return r.bundle.Default()
}

// GuildLocale returns a guild's stored override.
func (r *Resolver) GuildLocale(ctx context.Context, guildID string) (string, bool) {
	if r.kv == nil || guildID == "" {
		return "", false
	}
	loc, ok, err := r.kv.GetString(ctx, state.GuildLocaleKey(guildID))
	if err != nil {
		r.log.Warn("Failed to read guild locale", zap.String("guild_id", guildID), zap.Error(err))
		return "", false
	}
	if !ok {
		return "", false
	}
	tag, supported := r.bundle.Match(loc)
	if !supported {
		return "", false
	}
	return tag.String(), true
}

// SetGuildLocale stores a guild override and returns the canonical locale.
func (r *Resolver) SetGuildLocale(ctx context.Context, guildID, locale string) (string, error) {
	if r.kv == nil {
		return "", fmt.Errorf("no state store configured")
	}
	tag, ok := r.bundle.Match(locale)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLocale, locale)
	}
	canonical := tag.String()
	if err := r.kv.Set(ctx, state.GuildLocaleKey(guildID), canonical); err != nil {
		return "", fmt.Errorf("store guild locale: %w", err)
	}
	r.log.Info("Guild locale updated", zap.String("guild_id", guildID), zap.String("locale", canonical))
	return canonical, nil
}

// ClearGuildLocale removes a guild override.
func (r *Resolver) ClearGuildLocale(ctx context.Context, guildID string) error {
	if r.kv == nil {
		return nil
	}
	return r.kv.Delete(ctx, state.GuildLocaleKey(guildID))
}

// Bundle returns the underlying message bundle.
func (r *Resolver) Bundle() *Bundle {
	return r.bundle
}
