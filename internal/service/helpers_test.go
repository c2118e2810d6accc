package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/generation"
	"github.com/fabricaapp/fabrica-server/internal/sse"
	"github.com/fabricaapp/fabrica-server/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if evt, ok := event.(sse.Event); ok {
		r.events = append(r.events, evt)
	}
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// fakeGenerator answers with the instruction and the base text, or fails
// for prompts listed in fail.
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	fail    map[string]error
}

func (g *fakeGenerator) Generate(_ context.Context, _ string, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)

	instruction, base, _ := strings.Cut(prompt, generation.PromptSeparator)
	if err, ok := g.fail[instruction]; ok {
		return "", err
	}
	return instruction + ": " + base, nil
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type testEnv struct {
	store       *store.Store
	events      *recordingEmitter
	generator   *fakeGenerator
	books       *BookService
	artisans    *ArtisanService
	collections *CollectionService
	settings    *SettingsService
	generation  *GenerationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	events := &recordingEmitter{}
	st := store.New(store.NewMemoryKV(), discardLogger(), events)
	t.Cleanup(func() { _ = st.Close() })

	gen := &fakeGenerator{fail: map[string]error{}}
	orch := generation.New(gen, discardLogger())

	return &testEnv{
		store:       st,
		events:      events,
		generator:   gen,
		books:       NewBookService(st, discardLogger()),
		artisans:    NewArtisanService(st, discardLogger()),
		collections: NewCollectionService(st, discardLogger()),
		settings:    NewSettingsService(st, discardLogger()),
		generation:  NewGenerationService(st, orch, events, 0, discardLogger()),
	}
}

// seedBook creates a book with the given chapter titles.
func (e *testEnv) seedBook(t *testing.T, title string, chapters ...string) *domain.Book {
	t.Helper()
	book, err := e.books.CreateBook(context.Background(), title, strings.Join(chapters, "\n"))
	require.NoError(t, err)
	return book
}

func (e *testEnv) setAPIKey(t *testing.T, key string) {
	t.Helper()
	_, err := e.settings.UpdateSettings(context.Background(), &SettingsUpdate{APIKey: &key})
	require.NoError(t, err)
}
