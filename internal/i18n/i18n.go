// Package i18n provides localized user-facing strings. The client runs for
// one user in one language per process, so a single package-level localizer
// selected at startup replaces per-request localizers.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var localizer *i18n.Localizer

// Init loads the embedded translation bundle and selects lang for all
// subsequent lookups.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		bundle.MustParseMessageFileBytes(data, e.Name())
	}

	localizer = i18n.NewLocalizer(bundle, tag.String(), language.English.String())
	return nil
}

// T translates a message by ID.
func T(msgID string) string {
	return lookup(&i18n.LocalizeConfig{MessageID: msgID})
}

// Td translates a message by ID with template data.
func Td(msgID string, data map[string]any) string {
	return lookup(&i18n.LocalizeConfig{MessageID: msgID, TemplateData: data})
}

// Tp translates a pluralized message by ID.
func Tp(msgID string, count int) string {
	return lookup(&i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

func lookup(cfg *i18n.LocalizeConfig) string {
	if localizer == nil {
		// Init not called (e.g. in unit tests of other packages); the
		// message ID is still meaningful output.
		return cfg.MessageID
	}
	s, err := localizer.Localize(cfg)
	if err != nil {
		slog.Warn("missing translation", "id", cfg.MessageID, "error", err)
		return cfg.MessageID
	}
	return s
}
