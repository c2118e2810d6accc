package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamFrames returns the data of every frame with the given event name.
func streamFrames(t *testing.T, stream, event string) []json.RawMessage {
	t.Helper()
	var frames []json.RawMessage
	for block := range strings.SplitSeq(stream, "\n\n") {
		name, data, ok := strings.Cut(block, "\ndata: ")
		if !ok || name != "event: "+event {
			continue
		}
		frames = append(frames, json.RawMessage(data))
	}
	return frames
}

func TestGeneration_PlanCommitStreamsAndSaves(t *testing.T) {
	ts := setupTestServer(t)
	ts.setAPIKey(t, "clave")
	book := ts.createBook(t, "Libro", "Uno")

	stream := ts.planAndCommit(t, book, "El faro", "1", "2")

	snapshots := streamFrames(t, stream, "snapshot")
	require.Len(t, snapshots, 3)
	var sizes []int
	for _, raw := range snapshots {
		var snap struct {
			Results []contentResponse `json:"results"`
			Total   int               `json:"total"`
			Done    bool              `json:"done"`
		}
		require.NoError(t, json.Unmarshal(raw, &snap))
		assert.Equal(t, 2, snap.Total)
		sizes = append(sizes, len(snap.Results))
	}
	assert.Equal(t, []int{1, 2, 2}, sizes)

	results := streamFrames(t, stream, "result")
	require.Len(t, results, 1)
	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Saved   bool `json:"saved"`
			Failed  int  `json:"failed"`
			Chapter struct {
				Content []contentResponse `json:"content"`
			} `json:"chapter"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(results[0], &result))
	assert.True(t, result.Success)
	assert.True(t, result.Data.Saved)
	assert.Zero(t, result.Data.Failed)

	chapter := decodeData[chapterResponse](t, ts.api.Get(chapterPath(book, 0)))
	require.Len(t, chapter.Content, 3)
	assert.Equal(t, "base", chapter.Content[0].ArtisanID)
	assert.Equal(t, "El faro", chapter.Content[0].Text)
	assert.Equal(t, "1", chapter.Content[1].ArtisanID)
	assert.True(t, strings.HasSuffix(chapter.Content[1].Text, ": El faro"))
	assert.Equal(t, 2, ts.generator.callCount())
}

func TestGeneration_PlanValidationMakesNoCalls(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Libro", "Uno")

	tests := []struct {
		name    string
		body    map[string]any
		wantMsg string
	}{
		{"missing api key", map[string]any{"base_text": "x", "artisan_ids": []string{"1"}}, "Por favor, introduce tu clave de API de Gemini."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post(chapterPath(book, 0)+"/generations", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, tt.wantMsg, decodeEnvelope(t, resp).Error)
		})
	}

	ts.setAPIKey(t, "clave")
	more := []struct {
		name    string
		body    map[string]any
		wantMsg string
	}{
		{"empty base text", map[string]any{"base_text": "  ", "artisan_ids": []string{"1"}}, "El texto base no puede estar vacío."},
		{"no artisans", map[string]any{"base_text": "x", "artisan_ids": []string{}}, "Selecciona al menos un artesano."},
		{"unknown artisan", map[string]any{"base_text": "x", "artisan_ids": []string{"99"}}, "Artesano desconocido."},
		{"blank artisan id", map[string]any{"base_text": "x", "artisan_ids": []string{""}}, "Los datos enviados no son válidos."},
	}
	for _, tt := range more {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post(chapterPath(book, 0)+"/generations", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, tt.wantMsg, decodeEnvelope(t, resp).Error)
		})
	}

	assert.Zero(t, ts.generator.callCount())
}

func TestGeneration_DeclinedOverwriteChangesNothing(t *testing.T) {
	ts := setupTestServer(t)
	ts.setAPIKey(t, "clave")
	book := ts.createBook(t, "Libro", "Uno")
	ts.planAndCommit(t, book, "Primera", "1")
	before := decodeData[chapterResponse](t, ts.api.Get(chapterPath(book, 0)))

	resp := ts.api.Post(chapterPath(book, 0)+"/generations", map[string]any{
		"base_text":   "Segunda",
		"artisan_ids": []string{"1", "2"},
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	plan := decodeData[planResponse](t, resp)
	assert.True(t, plan.RequiresConfirmation)
	require.Len(t, plan.Conflicts, 1)
	assert.Equal(t, "1", plan.Conflicts[0].ID)

	resp = ts.api.Post(apiPrefix+"/generations/"+plan.PlanID+"/commit", map[string]any{})
	assert.Equal(t, http.StatusConflict, resp.Code)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "CONFIRMATION_REQUIRED", env.Code)

	assert.Equal(t, 1, ts.generator.callCount())
	after := decodeData[chapterResponse](t, ts.api.Get(chapterPath(book, 0)))
	assert.Equal(t, before, after)

	// The declined plan is gone.
	resp = ts.api.Get(apiPrefix + "/generations/" + plan.PlanID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGeneration_GetAndDiscardPlan(t *testing.T) {
	ts := setupTestServer(t)
	ts.setAPIKey(t, "clave")
	book := ts.createBook(t, "Libro", "Uno")

	resp := ts.api.Post(chapterPath(book, 0)+"/generations", map[string]any{
		"base_text":   "Texto",
		"artisan_ids": []string{"2", "1", "2"},
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	plan := decodeData[planResponse](t, resp)
	require.Len(t, plan.Artisans, 2)
	assert.Equal(t, "2", plan.Artisans[0].ID)
	assert.False(t, plan.RequiresConfirmation)

	got := decodeData[planResponse](t, ts.api.Get(apiPrefix+"/generations/"+plan.PlanID))
	assert.Equal(t, plan.PlanID, got.PlanID)

	resp = ts.api.Delete(apiPrefix + "/generations/" + plan.PlanID)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Post(apiPrefix+"/generations/"+plan.PlanID+"/commit", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Zero(t, ts.generator.callCount())
}

func TestGeneration_CommitWithoutKeyAnswersJSON(t *testing.T) {
	ts := setupTestServer(t)
	ts.setAPIKey(t, "clave")
	book := ts.createBook(t, "Libro", "Uno")

	resp := ts.api.Post(chapterPath(book, 0)+"/generations", map[string]any{
		"base_text":   "Texto",
		"artisan_ids": []string{"1"},
	})
	plan := decodeData[planResponse](t, resp)

	// The key is read again at commit time.
	ts.setAPIKey(t, "")
	resp = ts.api.Post(apiPrefix+"/generations/"+plan.PlanID+"/commit", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "Por favor, introduce tu clave de API de Gemini.", decodeEnvelope(t, resp).Error)
	assert.Zero(t, ts.generator.callCount())
}

func TestGeneration_CommitStreamSurvivesSlowCall(t *testing.T) {
	// The second call outlasts the write timeout several times over; only
	// the keepalive pings hold the stream open.
	gen := &echoGenerator{delay: func(call int) time.Duration {
		if call == 2 {
			return 400 * time.Millisecond
		}
		return 0
	}}
	ts := setupTestServerWith(t, gen, Options{
		StreamKeepAlive:    20 * time.Millisecond,
		StreamWriteTimeout: 100 * time.Millisecond,
	})
	ts.setAPIKey(t, "clave")
	book := ts.createBook(t, "Libro", "Uno")

	srv := httptest.NewServer(ts.Server)
	defer srv.Close()

	resp := ts.api.Post(chapterPath(book, 0)+"/generations", map[string]any{
		"base_text":   "El faro",
		"artisan_ids": []string{"1", "2"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	plan := decodeData[planResponse](t, resp)

	commit, err := http.Post(srv.URL+apiPrefix+"/generations/"+plan.PlanID+"/commit",
		"application/json", strings.NewReader(`{"confirmed": true}`))
	require.NoError(t, err)
	defer commit.Body.Close()
	assert.Equal(t, "text/event-stream", commit.Header.Get("Content-Type"))

	body, err := io.ReadAll(commit.Body)
	require.NoError(t, err)
	stream := string(body)

	assert.Contains(t, stream, ": ping\n\n")
	assert.Len(t, streamFrames(t, stream, "snapshot"), 3)
	require.Len(t, streamFrames(t, stream, "result"), 1)
	assert.Equal(t, 2, gen.callCount())

	saved := decodeData[chapterResponse](t, ts.api.Get(chapterPath(book, 0)))
	assert.Len(t, saved.Content, 3)
}
