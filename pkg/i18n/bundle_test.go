package i18n

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadEmbedded(t *testing.T) {
	b, err := LoadEmbedded("en-US")
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}

	got := b.Supported()
	if len(got) < 3 || got[0] != BaseLocale {
		t.Fatalf("unexpected supported locales: %v", got)
	}
	if b.Default() != "en-US" {
		t.Fatalf("expected default en-US, got %q", b.Default())
	}
	for _, key := range []string{"command.not_implemented", "permission.denied.user", "permission.denied.bot"} {
		if !b.Has(key) {
			t.Fatalf("expected key %q in base catalog", key)
		}
	}
}

func TestTranslate(t *testing.T) {
	b, err := LoadEmbedded("en-US")
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}

	tests := []struct {
		name   string
		locale string
		key    string
		args   []any
		want   string
	}{
		{"base", "en-US", "permission.denied.user", []any{"Ban Members"}, "You are missing the following permissions: Ban Members"},
		{"german", "de", "permission.denied.bot", []any{"Kick Members"}, "Mir fehlen folgende Berechtigungen: Kick Members"},
		{"regional match", "de-AT", "check.guild_only", nil, "Dieser Befehl funktioniert nur auf einem Server."},
		{"portuguese", "pt-BR", "command.not_implemented", nil, "Este comando ainda não foi implementado."},
		{"unsupported falls back", "ja", "command.not_implemented", nil, "This command is not implemented yet."},
		{"empty falls back", "", "command.not_implemented", nil, "This command is not implemented yet."},
		{"unknown key", "de", "no.such.key", nil, "no.such.key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Translate(tt.key, tt.locale, tt.args...); got != tt.want {
				t.Fatalf("Translate(%q, %q) = %q, want %q", tt.key, tt.locale, got, tt.want)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	b, err := LoadEmbedded("")
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}

	if tag, ok := b.Match("pt-BR"); !ok || tag.String() != "pt-BR" {
		t.Fatalf("expected pt-BR, got %v %v", tag, ok)
	}
	if _, ok := b.Match("not a locale"); ok {
		t.Fatal("expected garbage locale to be rejected")
	}
	if _, ok := b.Match("ja"); ok {
		t.Fatal("expected ja to be unsupported")
	}
}

func TestMissingKeysUseBaseLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en-US.yaml": {Data: []byte("locale: en-US\nmessages:\n  a: \"alpha\"\n  b: \"beta %d\"\n")},
		"locales/de.yaml":    {Data: []byte("locale: de\nmessages:\n  a: \"Alpha\"\n")},
	}
	b, err := LoadFromFS(fsys, "")
	if err != nil {
		t.Fatalf("LoadFromFS: %v", err)
	}

	if got := b.Translate("a", "de"); got != "Alpha" {
		t.Fatalf("expected translated value, got %q", got)
	}
	if got := b.Translate("b", "de", 7); got != "beta 7" {
		t.Fatalf("expected base value, got %q", got)
	}
}

func TestLoadFromFSErrors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		want string
	}{
		{
			name: "no base locale",
			fsys: fstest.MapFS{"locales/de.yaml": {Data: []byte("locale: de\nmessages:\n  a: x\n")}},
			want: "base locale",
		},
		{
			name: "name mismatch",
			fsys: fstest.MapFS{"locales/en-US.yaml": {Data: []byte("locale: de\nmessages:\n  a: x\n")}},
			want: "must match file name",
		},
		{
			name: "unknown key",
			fsys: fstest.MapFS{
				"locales/en-US.yaml": {Data: []byte("locale: en-US\nmessages:\n  a: x\n")},
				"locales/de.yaml":    {Data: []byte("locale: de\nmessages:\n  z: y\n")},
			},
			want: `key "z"`,
		},
		{
			name: "empty",
			fsys: fstest.MapFS{},
			want: "no locale catalogs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFS(tt.fsys, "")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestUnsupportedDefault(t *testing.T) {
	if _, err := LoadEmbedded("ja"); err == nil {
		t.Fatal("expected unsupported default locale to fail")
	}
}
