package preferences

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketly/internal/i18n"
	"pocketly/pkg/testutil"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		header string
		want   i18n.Lang
		ok     bool
	}{
		{"fr", i18n.French, true},
		{"fr-FR,fr;q=0.9", i18n.French, true},
		{"fr-CA", i18n.French, true},
		{"fr-SN", i18n.French, true},
		{"en-US,en;q=0.9", i18n.English, true},
		{"de-DE,fr;q=0.8", i18n.French, true},
		{"en-US,fr;q=0.8", i18n.English, true},
		{"de-DE", "", false},
		{"", "", false},
		{";;;", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := Detect(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	testutil.Given(t, "no cookies and no Accept-Language", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Equal(t, Default(), Resolve(req))
	})

	testutil.Given(t, "a French browser", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "fr-BE,fr;q=0.9")

		p := Resolve(req)
		assert.Equal(t, i18n.French, p.Language)
		assert.Equal(t, SourceDetected, p.LanguageSource)
		assert.Equal(t, ThemeLight, p.Theme)
	})

	testutil.Given(t, "a stored language that differs from the browser", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "fr-FR")
		req.AddCookie(&http.Cookie{Name: LanguageCookie, Value: "en"})
		req.AddCookie(&http.Cookie{Name: ThemeCookie, Value: "dark"})

		p := Resolve(req)
		testutil.Then(t, "the stored values win", func(t *testing.T) {
			assert.Equal(t, i18n.English, p.Language)
			assert.Equal(t, SourceStored, p.LanguageSource)
			assert.Equal(t, ThemeDark, p.Theme)
			assert.Equal(t, SourceStored, p.ThemeSource)
		})
	})

	testutil.Given(t, "garbage cookies", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "fr")
		req.AddCookie(&http.Cookie{Name: LanguageCookie, Value: "klingon"})
		req.AddCookie(&http.Cookie{Name: ThemeCookie, Value: "neon"})

		p := Resolve(req)
		testutil.Then(t, "they are ignored", func(t *testing.T) {
			assert.Equal(t, i18n.French, p.Language)
			assert.Equal(t, SourceDetected, p.LanguageSource)
			assert.Equal(t, DefaultTheme, p.Theme)
			assert.Equal(t, SourceDefault, p.ThemeSource)
		})
	})
}

func TestFromContextDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, Default(), FromContext(req.Context()))
	assert.Equal(t, i18n.English, Language(req.Context()))
}

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware)
	NewHandler(false).Register(r)
	return r
}

func TestHandleGet(t *testing.T) {
	req := testutil.NewJSONRequest(t, http.MethodGet, "/api/preferences", nil)
	req.Header.Set("Accept-Language", "fr-CH")

	rr := testutil.DoRequest(newRouter(), req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	p := testutil.DecodeJSON[Preferences](t, rr)
	assert.Equal(t, i18n.French, p.Language)
	assert.Equal(t, SourceDetected, p.LanguageSource)
	assert.Equal(t, ThemeLight, p.Theme)
}

func TestHandleUpdate(t *testing.T) {
	t.Run("sets both cookies", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/api/preferences",
			map[string]string{"language": "fr", "theme": "dark"})

		rr := testutil.DoRequest(newRouter(), req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		p := testutil.DecodeJSON[Preferences](t, rr)
		assert.Equal(t, i18n.French, p.Language)
		assert.Equal(t, ThemeDark, p.Theme)

		lang := testutil.Cookie(rr, LanguageCookie)
		require.NotNil(t, lang)
		assert.Equal(t, "fr", lang.Value)
		assert.Equal(t, "/", lang.Path)
		theme := testutil.Cookie(rr, ThemeCookie)
		require.NotNil(t, theme)
		assert.Equal(t, "dark", theme.Value)
	})

	t.Run("partial update keeps the other value", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/api/preferences",
			map[string]string{"theme": "system"})
		req.AddCookie(&http.Cookie{Name: LanguageCookie, Value: "fr"})

		rr := testutil.DoRequest(newRouter(), req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		p := testutil.DecodeJSON[Preferences](t, rr)
		assert.Equal(t, i18n.French, p.Language)
		assert.Equal(t, ThemeSystem, p.Theme)
		assert.Nil(t, testutil.Cookie(rr, LanguageCookie))
	})

	t.Run("unsupported language is rejected in the current language", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/api/preferences",
			map[string]string{"language": "de"})
		req.AddCookie(&http.Cookie{Name: LanguageCookie, Value: "fr"})

		rr := testutil.DoRequest(newRouter(), req)
		testutil.AssertError(t, rr, http.StatusBadRequest, i18n.T(i18n.French, i18n.InvalidPreferences))
		assert.Nil(t, testutil.Cookie(rr, LanguageCookie))
	})

	t.Run("oversized body", func(t *testing.T) {
		body := `{"theme":"dark","note":"` + strings.Repeat("x", 4<<10) + `"}`
		req := testutil.NewRawRequest(t, http.MethodPut, "/api/preferences", body)
		rr := testutil.DoRequest(newRouter(), req)
		testutil.AssertError(t, rr, http.StatusBadRequest, "invalid request format")
		assert.Nil(t, testutil.Cookie(rr, ThemeCookie))
	})

	t.Run("malformed body", func(t *testing.T) {
		req := testutil.NewRawRequest(t, http.MethodPut, "/api/preferences", "{")
		rr := testutil.DoRequest(newRouter(), req)
		testutil.AssertError(t, rr, http.StatusBadRequest, "invalid request format")
	})
}
