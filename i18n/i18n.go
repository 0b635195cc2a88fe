// Package i18n renders user-facing messages from the embedded catalogs.
//
// German is the display language; English is kept as a fallback catalog for
// logs and API consumers that send Accept-Language: en.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	mu            sync.RWMutex
	bundle        *i18n.Bundle
	defaultLocale = "de"
	loadOnce      sync.Once
	loadErr       error
)

type ctxKey struct{}

// Init loads all locale files and sets the default locale. Calling T before
// Init works too; the catalogs are loaded on first use.
func Init(defLocale string) error {
	load()
	if loadErr != nil {
		return loadErr
	}
	if defLocale != "" {
		mu.Lock()
		defaultLocale = defLocale
		mu.Unlock()
	}
	return nil
}

func load() {
	loadOnce.Do(func() {
		b := i18n.NewBundle(language.German)
		b.RegisterUnmarshalFunc("json", json.Unmarshal)

		entries, err := localeFS.ReadDir("locales")
		if err != nil {
			loadErr = fmt.Errorf("i18n: read locales dir: %w", err)
			return
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			data, err := localeFS.ReadFile("locales/" + e.Name())
			if err != nil {
				loadErr = fmt.Errorf("i18n: read %s: %w", e.Name(), err)
				return
			}
			if _, err := b.ParseMessageFileBytes(data, e.Name()); err != nil {
				loadErr = fmt.Errorf("i18n: parse %s: %w", e.Name(), err)
				return
			}
		}
		bundle = b
	})
}

// WithLocale returns a new context carrying the given locale string (e.g. "de", "en").
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext extracts the locale from the context.
// Returns the configured default locale if not set.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	mu.RLock()
	defer mu.RUnlock()
	return defaultLocale
}

// T translates a message ID using the locale from the context.
// Optional templateData provides values for template placeholders.
// Unknown IDs come back unchanged.
func T(ctx context.Context, messageID string, templateData ...map[string]any) string {
	load()
	if bundle == nil {
		return messageID
	}
	l := i18n.NewLocalizer(bundle, LocaleFromContext(ctx), "de")

	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(templateData) > 0 && templateData[0] != nil {
		cfg.TemplateData = templateData[0]
	}

	msg, err := l.Localize(cfg)
	if err != nil {
		return messageID
	}
	return msg
}
