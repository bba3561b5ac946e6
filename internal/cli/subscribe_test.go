package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketly/internal/i18n"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSubscribe_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"email registered successfully","data":[]}`))
	}))
	t.Cleanup(srv.Close)

	out, err := runCLI(t, "subscribe", "user@example.com", "--endpoint", srv.URL, "--lang", "en")
	require.NoError(t, err)
	assert.Contains(t, out, "state: submitting")
	assert.Contains(t, out, "state: success")
	assert.Contains(t, out, "subscribed: user@example.com")
}

func TestSubscribe_Duplicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fr", r.Header.Get("Accept-Language"))
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Cet email est déjà enregistré"}`))
	}))
	t.Cleanup(srv.Close)

	out, err := runCLI(t, "subscribe", "user@example.com", "--endpoint", srv.URL, "--lang", "fr-CA")
	require.Error(t, err)
	assert.Equal(t, "Cet email est déjà enregistré (HTTP 409)", err.Error())
	assert.Contains(t, out, "state: error")
}

func TestSubscribe_WarnsOnSuspiciousAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"please enter a valid email"}`))
	}))
	t.Cleanup(srv.Close)

	out, err := runCLI(t, "subscribe", "nope", "--endpoint", srv.URL, "--lang", "en")
	require.Error(t, err)
	assert.Contains(t, out, `warning: "nope" does not look like an email address`)
}

func TestSubscribe_RequiresOneArgument(t *testing.T) {
	_, err := runCLI(t, "subscribe")
	require.Error(t, err)
}

func TestResolveLang(t *testing.T) {
	lang, err := resolveLang("FR")
	require.NoError(t, err)
	assert.Equal(t, i18n.French, lang)

	_, err = resolveLang("de")
	require.Error(t, err)

	t.Setenv("LANG", "fr_FR.UTF-8")
	lang, err = resolveLang("")
	require.NoError(t, err)
	assert.Equal(t, i18n.French, lang)

	t.Setenv("LANG", "C")
	lang, err = resolveLang("")
	require.NoError(t, err)
	assert.Equal(t, i18n.DefaultLang, lang)
}
