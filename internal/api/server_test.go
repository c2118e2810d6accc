package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get(apiPrefix + "/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decodeData[HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["store"].Status)
	assert.Equal(t, "healthy", health.Components["search"].Status)
	assert.Equal(t, "no connected clients", health.Components["sse"].Message)
}

func TestHealthCheck_DegradedWithoutSearch(t *testing.T) {
	ts := setupTestServer(t)
	ts.services.Search = nil

	health := decodeData[HealthResponse](t, ts.api.Get(apiPrefix+"/health"))
	assert.Equal(t, "degraded", health.Status)
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, apiPrefix+"/books", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute_ReturnsNotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get(apiPrefix + "/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestEnvelopeTransformer(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		out, err := EnvelopeTransformer(nil, "200", map[string]string{"id": "x"})
		require.NoError(t, err)

		data, err := json.Marshal(out)
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":1,"success":true,"data":{"id":"x"}}`, string(data))
	})

	t.Run("detailed error", func(t *testing.T) {
		out, err := EnvelopeTransformer(nil, "409", &APIError{
			status:  http.StatusConflict,
			Code:    "CONFIRMATION_REQUIRED",
			Message: "Confirma",
			Details: map[string]string{"a": "b"},
		})
		require.NoError(t, err)

		data, err := json.Marshal(out)
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":1,"success":false,"error":"Confirma","message":"Confirma","code":"CONFIRMATION_REQUIRED","details":{"a":"b"}}`, string(data))
	})

	t.Run("version field is v", func(t *testing.T) {
		out, err := EnvelopeTransformer(nil, "200", nil)
		require.NoError(t, err)

		data, err := json.Marshal(out)
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(data, &fields))
		assert.Contains(t, fields, "v")
		assert.NotContains(t, fields, "version")
	})
}
