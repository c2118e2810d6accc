package api

import (
	"archive/zip"
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibrary_ExportImportRoundTrip(t *testing.T) {
	ts := setupTestServer(t)
	ts.createBook(t, "Mi Libro", "Uno", "Dos")
	ts.api.Post(apiPrefix+"/collections", map[string]any{"name": "Saga"})

	resp := ts.api.Get(apiPrefix + "/library/export")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), `filename="biblioteca_fabrica_contenido_`)
	exported := resp.Body.Bytes()
	assert.Contains(t, string(exported), `"libros": [`)

	ts.createBook(t, "Otro", "Tres")

	resp = ts.api.Post(apiPrefix+"/library/import", "Content-Type: application/json", bytes.NewReader(exported))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	summary := decodeData[map[string]int](t, resp)
	assert.Equal(t, map[string]int{"books": 1, "artisans": 3, "collections": 1}, summary)

	books := decodeData[[]bookResponse](t, ts.api.Get(apiPrefix+"/books"))
	require.Len(t, books, 1)
	assert.Equal(t, "Mi Libro", books[0].Title)

	again := ts.api.Get(apiPrefix + "/library/export")
	assert.Equal(t, string(exported), again.Body.String())
}

func TestLibrary_ImportAcceptsJSONDocument(t *testing.T) {
	ts := setupTestServer(t)
	ts.createBook(t, "Mi Libro", "Uno")

	doc := `{"libros": [], "artesanos": [{"id": 7, "nombre": "Tono", "prompt": "Hazlo casual"}]}`
	resp := ts.api.Post(apiPrefix+"/library/import", "Content-Type: application/json", strings.NewReader(doc))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, map[string]int{"books": 0, "artisans": 1, "collections": 0}, decodeData[map[string]int](t, resp))

	artisans := decodeData[[]struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}](t, ts.api.Get(apiPrefix+"/artisans"))
	require.Len(t, artisans, 1)
	assert.Equal(t, "7", artisans[0].ID)
}

func TestLibrary_InvalidImportChangesNothing(t *testing.T) {
	ts := setupTestServer(t)
	ts.createBook(t, "Mi Libro", "Uno")

	for _, body := range []string{`{"libros": []}`, `no es json`} {
		resp := ts.api.Post(apiPrefix+"/library/import", "Content-Type: application/json", strings.NewReader(body))
		assert.Equal(t, http.StatusBadRequest, resp.Code, body)
		assert.Equal(t, "VALIDATION", decodeEnvelope(t, resp).Code)
	}

	books := decodeData[[]bookResponse](t, ts.api.Get(apiPrefix+"/books"))
	assert.Len(t, books, 1)
}

func TestLibrary_ChapterArchive(t *testing.T) {
	ts := setupTestServer(t)
	ts.setAPIKey(t, "clave")
	book := ts.createBook(t, "Mi Libro", "Capítulo Uno")

	resp := ts.api.Get(chapterPath(book, 0) + "/archive")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	ts.planAndCommit(t, book, "Texto", "1")

	resp = ts.api.Get(chapterPath(book, 0) + "/archive")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "application/zip", resp.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Mi_Libro_Capitulo_Uno.zip"`, resp.Header().Get("Content-Disposition"))

	zr, err := zip.NewReader(bytes.NewReader(resp.Body.Bytes()), int64(resp.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		"Capitulo_Uno/00_Texto_Base.txt",
		"Capitulo_Uno/01_Corrector_Ortografico_y_Gramatical.txt",
	}, names)
}

func TestLibrary_FilteredView(t *testing.T) {
	ts := setupTestServer(t)
	ts.setAPIKey(t, "clave")
	book := ts.createBook(t, "Libro", "Uno", "Dos")
	ts.planAndCommit(t, book, "Texto", "1", "2")

	type filteredView struct {
		ArtisanID string `json:"artisan_id"`
		Chapters  []struct {
			ChapterID string            `json:"chapter_id"`
			Content   []contentResponse `json:"content"`
		} `json:"chapters"`
	}

	view := decodeData[filteredView](t, ts.api.Get(apiPrefix+"/library/books/"+book.ID+"?artisan_id=2"))
	require.Len(t, view.Chapters, 1)
	require.Len(t, view.Chapters[0].Content, 1)
	assert.Equal(t, "2", view.Chapters[0].Content[0].ArtisanID)

	view = decodeData[filteredView](t, ts.api.Get(apiPrefix+"/library/books/"+book.ID))
	assert.Equal(t, "todos", view.ArtisanID)
	require.Len(t, view.Chapters, 1)
	assert.Len(t, view.Chapters[0].Content, 3)
}

func TestLibrary_Search(t *testing.T) {
	ts := setupTestServer(t)
	ts.setAPIKey(t, "clave")
	book := ts.createBook(t, "Libro", "Uno")
	ts.planAndCommit(t, book, "El faro ilumina la costa", "1")

	type searchResult struct {
		Total uint64 `json:"total"`
		Hits  []struct {
			BookID    string `json:"book_id"`
			ArtisanID string `json:"artisan_id"`
		} `json:"hits"`
	}
	result := decodeData[searchResult](t, ts.api.Get(apiPrefix+"/library/search?q=faro"))
	assert.Equal(t, uint64(2), result.Total)

	result = decodeData[searchResult](t, ts.api.Get(apiPrefix+"/library/search?q=faro&artisan_id=base"))
	require.Len(t, result.Hits, 1)
	assert.Equal(t, book.ID, result.Hits[0].BookID)

	resp := ts.api.Get(apiPrefix + "/library/search?limit=0")
	assert.NotEqual(t, http.StatusOK, resp.Code)
}

func TestBackups_CreateListRestore(t *testing.T) {
	ts := setupTestServer(t)
	ts.createBook(t, "Original", "Uno")

	resp := ts.api.Post(apiPrefix+"/backups", map[string]any{})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decodeData[struct {
		Name string `json:"name"`
	}](t, resp)
	assert.True(t, strings.HasPrefix(created.Name, "biblioteca_fabrica_contenido_"))

	list := decodeData[[]struct {
		Name string `json:"name"`
	}](t, ts.api.Get(apiPrefix+"/backups"))
	require.Len(t, list, 1)

	ts.createBook(t, "Nuevo", "Dos")

	resp = ts.api.Post(apiPrefix+"/backups/"+created.Name+"/restore", map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	books := decodeData[[]bookResponse](t, ts.api.Get(apiPrefix+"/books"))
	require.Len(t, books, 1)
	assert.Equal(t, "Original", books[0].Title)

	resp = ts.api.Post(apiPrefix+"/backups/missing.json/restore", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
