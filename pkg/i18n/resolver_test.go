package i18n

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"interbot/pkg/logger"
	"interbot/pkg/slash"
	"interbot/pkg/state"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()

	bundle, err := LoadEmbedded("en-US")
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	kv, err := state.NewFileStore(logger.NewNop(), &state.FileStoreConfig{
		FilePath: filepath.Join(t.TempDir(), "state.json"),
	})
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	return NewResolver(bundle, kv, logger.NewNop())
}

func TestResolveLocaleOrder(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()

	ev := &slash.Event{GuildID: "g1", Locale: "de", GuildLocale: "pt-BR"}
	if got := r.ResolveLocale(ctx, ev); got != "de" {
		t.Fatalf("expected member locale, got %q", got)
	}

	ev.Locale = "ja"
	if got := r.ResolveLocale(ctx, ev); got != "pt-BR" {
		t.Fatalf("expected guild preferred locale, got %q", got)
	}

	if _, err := r.SetGuildLocale(ctx, "g1", "en-US"); err != nil {
		t.Fatalf("SetGuildLocale: %v", err)
	}
	ev.Locale = "de"
	if got := r.ResolveLocale(ctx, ev); got != "en-US" {
		t.Fatalf("expected guild override, got %q", got)
	}

	dm := &slash.Event{Locale: "ja"}
	if got := r.ResolveLocale(ctx, dm); got != "en-US" {
		t.Fatalf("expected default locale, got %q", got)
	}
}

func TestSetGuildLocale(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()

	got, err := r.SetGuildLocale(ctx, "g1", "de-CH")
	if err != nil {
		t.Fatalf("SetGuildLocale: %v", err)
	}
	if got != "de" {
		t.Fatalf("expected canonical de, got %q", got)
	}
	if loc, ok := r.GuildLocale(ctx, "g1"); !ok || loc != "de" {
		t.Fatalf("expected stored de, got %q %v", loc, ok)
	}

	if _, err := r.SetGuildLocale(ctx, "g1", "ja"); !errors.Is(err, ErrUnsupportedLocale) {
		t.Fatalf("expected ErrUnsupportedLocale, got %v", err)
	}

	if err := r.ClearGuildLocale(ctx, "g1"); err != nil {
		t.Fatalf("ClearGuildLocale: %v", err)
	}
	if _, ok := r.GuildLocale(ctx, "g1"); ok {
		t.Fatal("expected override to be cleared")
	}
}

func TestResolverWithoutStore(t *testing.T) {
	bundle, err := LoadEmbedded("")
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	r := NewResolver(bundle, nil, logger.NewNop())

	if got := r.ResolveLocale(context.Background(), &slash.Event{GuildID: "g1", Locale: "pt-BR"}); got != "pt-BR" {
		t.Fatalf("expected pt-BR, got %q", got)
	}
	if _, err := r.SetGuildLocale(context.Background(), "g1", "de"); err == nil {
		t.Fatal("expected error without a store")
	}
}
