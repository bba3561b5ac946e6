// Package preferences resolves the display language and theme of a request.
//
// Resolution order for each value: the stored cookie, then what the request
// advertises (Accept-Language; themes are never detected), then the default.
// Middleware injects the result into the request context; PUT /api/preferences
// is the only way to change the stored values.
package preferences

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"pocketly/internal/i18n"
)

const (
	LanguageCookie = "pocketly-language"
	ThemeCookie    = "pocketly-theme"
)

// Theme is the colour scheme of the site.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

const DefaultTheme = ThemeLight

// ParseTheme accepts a theme name in any case.
func ParseTheme(s string) (Theme, bool) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, true
	default:
		return "", false
	}
}

// Source tells where a resolved value came from.
type Source string

const (
	SourceStored   Source = "stored"
	SourceDetected Source = "detected"
	SourceDefault  Source = "default"
)

// Preferences is the effective language and theme for one request.
type Preferences struct {
	Language       i18n.Lang `json:"language"`
	Theme          Theme     `json:"theme"`
	LanguageSource Source    `json:"language_source"`
	ThemeSource    Source    `json:"theme_source"`
}

// Default is what a request with no cookies and no Accept-Language gets.
func Default() Preferences {
	return Preferences{
		Language:       i18n.DefaultLang,
		Theme:          DefaultTheme,
		LanguageSource: SourceDefault,
		ThemeSource:    SourceDefault,
	}
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.French})

// Detect matches an Accept-Language header against the supported languages.
// Any French variant (fr-CA, fr-BE, fr-SN, ...) resolves to French.
func Detect(acceptLanguage string) (i18n.Lang, bool) {
	if strings.TrimSpace(acceptLanguage) == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return "", false
	}
	return i18n.Supported[idx], true
}

// Resolve computes the preferences of r.
func Resolve(r *http.Request) Preferences {
	p := Default()

	if c, err := r.Cookie(LanguageCookie); err == nil {
		if lang, ok := i18n.ParseLang(c.Value); ok {
			p.Language, p.LanguageSource = lang, SourceStored
		}
	}
	if p.LanguageSource == SourceDefault {
		if lang, ok := Detect(r.Header.Get("Accept-Language")); ok {
			p.Language, p.LanguageSource = lang, SourceDetected
		}
	}

	if c, err := r.Cookie(ThemeCookie); err == nil {
		if theme, ok := ParseTheme(c.Value); ok {
			p.Theme, p.ThemeSource = theme, SourceStored
		}
	}
	return p
}

type contextKey struct{}

// WithPreferences stores p in ctx.
func WithPreferences(ctx context.Context, p Preferences) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the preferences stored in ctx, or Default.
func FromContext(ctx context.Context) Preferences {
	if p, ok := ctx.Value(contextKey{}).(Preferences); ok {
		return p
	}
	return Default()
}

// Language is a shortcut for FromContext(ctx).Language.
func Language(ctx context.Context) i18n.Lang {
	return FromContext(ctx).Language
}

// Middleware resolves the request's preferences and injects them into its context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithPreferences(r.Context(), Resolve(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
