package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/fabricaapp/fabrica-server/internal/backup"
	"github.com/fabricaapp/fabrica-server/internal/generation"
	"github.com/fabricaapp/fabrica-server/internal/search"
	"github.com/fabricaapp/fabrica-server/internal/service"
	"github.com/fabricaapp/fabrica-server/internal/sse"
	"github.com/fabricaapp/fabrica-server/internal/store"
)

// echoGenerator answers with the artisan instruction and the base text.
// delay, when set, holds call n (from 1) for the returned duration.
type echoGenerator struct {
	mu    sync.Mutex
	calls int
	delay func(call int) time.Duration
}

func (g *echoGenerator) Generate(ctx context.Context, _ string, prompt string) (string, error) {
	g.mu.Lock()
	g.calls++
	call := g.calls
	g.mu.Unlock()

	if g.delay != nil {
		select {
		case <-time.After(g.delay(call)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	instruction, base, _ := strings.Cut(prompt, generation.PromptSeparator)
	return instruction + ": " + base, nil
}

func (g *echoGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api       humatest.TestAPI
	generator *echoGenerator
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWith(t, &echoGenerator{}, Options{})
}

// setupTestServerWith builds a test server around gen. CORS origins default
// to the development UI.
func setupTestServerWith(t *testing.T, gen *echoGenerator, opts Options) *testServer {
	t.Helper()
	logger := discardLogger()

	sseManager := sse.NewManager(logger)
	st := store.New(store.NewMemoryKV(), logger, sseManager)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewIndex(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	orchestrator := generation.New(gen, logger)

	services := &Services{
		Book:       service.NewBookService(st, logger),
		Artisan:    service.NewArtisanService(st, logger),
		Collection: service.NewCollectionService(st, logger),
		Settings:   service.NewSettingsService(st, logger),
		Generation: service.NewGenerationService(st, orchestrator, sseManager, 0, logger),
		Library:    service.NewLibraryService(st, backup.NewManager(t.TempDir(), logger), logger),
		Search:     service.NewSearchService(index, logger),
	}

	if opts.CORSOrigins == nil {
		opts.CORSOrigins = []string{"http://localhost:5173"}
	}
	s := NewServer(st, services, sseManager, opts, logger)
	return &testServer{
		Server:    s,
		api:       humatest.Wrap(t, s.api),
		generator: gen,
	}
}

// testEnvelope is the decoded response envelope.
type testEnvelope struct {
	V       int             `json:"v"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details map[string]any  `json:"details"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

// decodeData decodes a successful envelope's data into T.
func decodeData[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	env := decodeEnvelope(t, resp)
	require.True(t, env.Success, resp.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (ts *testServer) setAPIKey(t *testing.T, key string) {
	t.Helper()
	resp := ts.api.Put(apiPrefix+"/settings", map[string]any{"api_key": key})
	require.Equal(t, 200, resp.Code, resp.Body.String())
}

func (ts *testServer) createBook(t *testing.T, title string, chapters ...string) bookResponse {
	t.Helper()
	resp := ts.api.Post(apiPrefix+"/books", map[string]any{
		"title":    title,
		"chapters": strings.Join(chapters, "\n"),
	})
	require.Equal(t, 201, resp.Code, resp.Body.String())
	return decodeData[bookResponse](t, resp)
}

type contentResponse struct {
	ArtisanID   string `json:"artisan_id"`
	ArtisanName string `json:"artisan_name"`
	Text        string `json:"text"`
	Failed      bool   `json:"failed"`
}

type chapterResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Completed bool              `json:"completed"`
	Content   []contentResponse `json:"content"`
}

type bookResponse struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	CollectionID *string           `json:"collection_id"`
	ChapterCount int               `json:"chapter_count"`
	Progress     float64           `json:"progress"`
	Chapters     []chapterResponse `json:"chapters"`
}

type planResponse struct {
	PlanID               string `json:"plan_id"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	Artisans             []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artisans"`
	Conflicts []struct {
		ID string `json:"id"`
	} `json:"conflicts"`
}

func chapterPath(book bookResponse, chapter int) string {
	return apiPrefix + "/books/" + book.ID + "/chapters/" + book.Chapters[chapter].ID
}

// planAndCommit runs artisans over a chapter through the API and returns
// the raw event stream.
func (ts *testServer) planAndCommit(t *testing.T, book bookResponse, base string, artisanIDs ...string) string {
	t.Helper()
	resp := ts.api.Post(chapterPath(book, 0)+"/generations", map[string]any{
		"base_text":   base,
		"artisan_ids": artisanIDs,
	})
	require.Equal(t, 201, resp.Code, resp.Body.String())
	plan := decodeData[planResponse](t, resp)

	resp = ts.api.Post(apiPrefix+"/generations/"+plan.PlanID+"/commit", map[string]any{"confirmed": true})
	require.Equal(t, 200, resp.Code, resp.Body.String())
	return resp.Body.String()
}
