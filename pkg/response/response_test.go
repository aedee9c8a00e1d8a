package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyError(t *testing.T) {
	rec := httptest.NewRecorder()

	ProxyError(rec, "fetch chapter", errors.New("RapidAPI request failed with status: 503"), nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to fetch chapter", body["error"])
	assert.Equal(t, "RapidAPI request failed with status: 503", body["message"])
	_, hasEnv := body["env_check"]
	assert.False(t, hasEnv)
}

func TestRaw_PassesBodyThrough(t *testing.T) {
	rec := httptest.NewRecorder()

	Raw(rec, http.StatusOK, []byte(`[{"id":1}]`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `[{"id":1}]`, rec.Body.String())
}

func TestError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()

	Error(rec, http.StatusBadRequest, "Invalid chapter id", "chapterId must be a positive integer")

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid chapter id", resp.Message)
}
