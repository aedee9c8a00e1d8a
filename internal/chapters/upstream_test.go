package chapters

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taiwoajasa245/gita-reader-api/pkg/config"
)

func newUpstreamServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		RapidAPIHost:    "bhagavad-gita3.p.rapidapi.com",
		RapidAPIKey:     "secret",
		RapidAPIBaseURL: baseURL,
	}
}

func TestRapidAPIClient_SendsCredentials(t *testing.T) {
	var got http.Header
	var gotURI string
	srv, _ := newUpstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotURI = r.URL.RequestURI()
		w.Write([]byte(`[{"id":1}]`))
	})

	client := NewRapidAPIClient(testConfig(srv.URL + "/api/v3/"))
	body, err := client.Get(context.Background(), "/chapters/?skip=0&limit=18")
	require.NoError(t, err)

	assert.JSONEq(t, `[{"id":1}]`, string(body))
	assert.Equal(t, "/api/v3/chapters/?skip=0&limit=18", gotURI)
	assert.Equal(t, "bhagavad-gita3.p.rapidapi.com", got.Get("x-rapidapi-host"))
	assert.Equal(t, "secret", got.Get("x-rapidapi-key"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
}

func TestRapidAPIClient_StatusError(t *testing.T) {
	srv, _ := newUpstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"You are not subscribed"}`))
	})

	client := NewRapidAPIClient(testConfig(srv.URL))
	_, err := client.Get(context.Background(), "/chapters/1/")

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusForbidden, upErr.StatusCode)
	assert.Equal(t, "RapidAPI request failed with status: 403", err.Error())
}

func TestRapidAPIClient_MissingConfigSkipsNetwork(t *testing.T) {
	srv, hits := newUpstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	cfg := testConfig(srv.URL)
	cfg.RapidAPIKey = ""

	client := NewRapidAPIClient(cfg)
	_, err := client.Get(context.Background(), "/chapters/1/")

	require.ErrorIs(t, err, config.ErrMissingConfig)
	var missing *config.MissingEnvError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"RAPIDAPI_KEY"}, missing.Vars)
	assert.Zero(t, hits.Load())
}

func TestRapidAPIClient_InvalidJSON(t *testing.T) {
	srv, _ := newUpstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	})

	client := NewRapidAPIClient(testConfig(srv.URL))
	_, err := client.Get(context.Background(), "/chapters/1/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}
