package form

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketly/internal/i18n"
)

func TestHTTPTransport_PostSubscription(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, SubscribePath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "fr", r.Header.Get("Accept-Language"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, " user@example.com", body["email"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Cet email est déjà enregistré"}`))
	}))
	t.Cleanup(srv.Close)

	transport := NewHTTPTransport(srv.URL, WithLanguage(i18n.French))
	resp, err := transport.PostSubscription(context.Background(), " user@example.com")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.JSONEq(t, `{"error":"Cet email est déjà enregistré"}`, string(resp.Body))
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPTransport_DoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	t.Cleanup(srv.Close)

	c := New(NewHTTPTransport(srv.URL), WithScheduler(NewManualScheduler()))
	c.Open()
	c.SetEmail("user@example.com")

	err := c.Submit(context.Background())
	assert.True(t, IsNetworkError(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPTransport_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPTransport(url).PostSubscription(context.Background(), "user@example.com")
	require.Error(t, err)
}
