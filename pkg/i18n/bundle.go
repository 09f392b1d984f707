// Package i18n loads the embedded message catalogs and picks the locale a
// dispatch replies in.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every key must exist in.
const BaseLocale = "en-US"

//go:embed locales/*.yaml
var embeddedLocales embed.FS

type localeFile struct {
	Locale   string            `yaml:"locale"`
	Name     string            `yaml:"name"`
	Messages map[string]string `yaml:"messages"`
}

// Bundle holds every loaded locale and formats messages through x/text.
type Bundle struct {
	tags     []language.Tag
	names    map[string]string
	keys     map[string]struct{}
	matcher  language.Matcher
	catalog  *catalog.Builder
	fallback language.Tag
	printers map[language.Tag]*message.Printer
}

// LoadEmbedded loads the catalogs shipped with the binary.
func LoadEmbedded(defaultLocale string) (*Bundle, error) {
	return LoadFromFS(embeddedLocales, defaultLocale)
}

// LoadFromFS loads every locales/*.yaml file from fsys.
func LoadFromFS(fsys fs.FS, defaultLocale string) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locale catalogs found")
	}
	sort.Strings(paths)

	b := &Bundle{
		names:    make(map[string]string),
		keys:     make(map[string]struct{}),
		catalog:  catalog.NewBuilder(catalog.Fallback(language.MustParse(BaseLocale))),
		printers: make(map[language.Tag]*message.Printer),
	}

	files := make(map[string]localeFile, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var f localeFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		want := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if f.Locale != want {
			return nil, fmt.Errorf("catalog %s: locale %q must match file name", p, f.Locale)
		}
		if len(f.Messages) == 0 {
			return nil, fmt.Errorf("catalog %s: no messages", p)
		}
		files[f.Locale] = f
	}

	base, ok := files[BaseLocale]
	if !ok {
		return nil, fmt.Errorf("base locale %s is not defined", BaseLocale)
	}
	for key := range base.Messages {
		b.keys[key] = struct{}{}
	}

	// Base locale first so the matcher prefers it on ties.
	locales := make([]string, 0, len(files))
	locales = append(locales, BaseLocale)
	for loc := range files {
		if loc != BaseLocale {
			locales = append(locales, loc)
		}
	}
	sort.Strings(locales[1:])

	for _, loc := range locales {
		f := files[loc]
		tag, err := language.Parse(loc)
		if err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", loc, err)
		}
		for key, msg := range f.Messages {
			if _, known := b.keys[key]; !known {
				return nil, fmt.Errorf("catalog %s: key %q is not in %s", loc, key, BaseLocale)
			}
			if err := b.catalog.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("catalog %s: key %q: %w", loc, key, err)
			}
		}
		// Keys a translation lacks are served in the base locale.
		for key, msg := range base.Messages {
			if _, ok := f.Messages[key]; ok {
				continue
			}
			if err := b.catalog.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("catalog %s: key %q: %w", loc, key, err)
			}
		}
		b.tags = append(b.tags, tag)
		b.names[tag.String()] = f.Name
	}
	b.matcher = language.NewMatcher(b.tags)

	b.fallback = b.tags[0]
	if defaultLocale != "" {
		tag, ok := b.Match(defaultLocale)
		if !ok {
			return nil, fmt.Errorf("default locale %q is not supported", defaultLocale)
		}
		b.fallback = tag
	}

	for _, tag := range b.tags {
		b.printers[tag] = message.NewPrinter(tag, message.Catalog(b.catalog))
	}
	return b, nil
}

// Match maps a client locale such as "en-GB" or "pt-BR" to a supported tag.
func (b *Bundle) Match(locale string) (language.Tag, bool) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return language.Und, false
	}
	requested, err := language.Parse(locale)
	if err != nil {
		return language.Und, false
	}
	_, index, confidence := b.matcher.Match(requested)
	if confidence == language.No {
		return language.Und, false
	}
	return b.tags[index], true
}

// Default returns the fallback locale.
func (b *Bundle) Default() string {
	return b.fallback.String()
}

// Supported lists supported locales, base locale first.
func (b *Bundle) Supported() []string {
	out := make([]string, len(b.tags))
	for i, tag := range b.tags {
		out[i] = tag.String()
	}
	return out
}

// DisplayName returns the native name of a supported locale.
func (b *Bundle) DisplayName(locale string) string {
	if tag, ok := b.Match(locale); ok {
		if name := b.names[tag.String()]; name != "" {
			return name
		}
		return tag.String()
	}
	return locale
}

// Has reports whether key exists in the base catalog.
func (b *Bundle) Has(key string) bool {
	_, ok := b.keys[key]
	return ok
}

// Translate formats key in locale. Unsupported locales use the default, and
// unknown keys are returned as-is.
func (b *Bundle) Translate(key, locale string, args ...any) string {
	if !b.Has(key) {
		if len(args) == 0 {
			return key
		}
		return fmt.Sprintf("%s %v", key, args)
	}
	tag, ok := b.Match(locale)
	if !ok {
		tag = b.fallback
	}
	return b.printers[tag].Sprintf(key, args...)
}
