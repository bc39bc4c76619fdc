// Package i18n localizes customer-facing gift card strings. Translations are
// compiled into the binary.
package i18n

import "fmt"

// DefaultLang is used when a key or language is not found.
const DefaultLang = "en"

// Translate returns the string for key in lang, formatted with args when given.
// Unsupported languages fall back to English; unknown keys return the key.
func Translate(key, lang string, args ...interface{}) string {
	if lang == "" {
		lang = DefaultLang
	}

	langMap, ok := translations[key]
	if !ok {
		return key
	}

	tmpl, ok := langMap[lang]
	if !ok {
		tmpl, ok = langMap[DefaultLang]
		if !ok {
			return key
		}
	}

	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Supported reports whether lang has its own translations
func Supported(lang string) bool {
	_, ok := translations["giftcard.email.subject"][lang]
	return ok
}
