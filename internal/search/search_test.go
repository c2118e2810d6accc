package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabricaapp/fabrica-server/internal/domain"
)

func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	index, err := NewIndex(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func testBooks() []domain.Book {
	return []domain.Book{
		{
			ID:    domain.NewID("book-1"),
			Title: "Cuentos del puerto",
			Chapters: []domain.Chapter{
				{
					ID:    domain.NewID("chap-1"),
					Title: "La tormenta",
					Content: []domain.GeneratedContent{
						{ArtisanID: domain.BaseArtisanID, ArtisanName: domain.BaseArtisanName, Text: "El faro resistió la tormenta toda la noche."},
						{ArtisanID: domain.NewID("1"), ArtisanName: "Corrector", Text: "El faro resistió la tormenta durante toda la noche."},
						{ArtisanID: domain.NewID("2"), ArtisanName: "Resumen", Text: "Un faro aguanta una noche de temporal."},
					},
				},
				{ID: domain.NewID("chap-2"), Title: "Calma", Content: []domain.GeneratedContent{}},
			},
		},
		{
			ID:    domain.NewID("book-2"),
			Title: "Recetas",
			Chapters: []domain.Chapter{
				{
					ID:    domain.NewID("chap-3"),
					Title: "Pan",
					Content: []domain.GeneratedContent{
						{ArtisanID: domain.BaseArtisanID, ArtisanName: domain.BaseArtisanName, Text: "Harina, agua y sal."},
					},
				},
			},
		},
	}
}

func TestNewIndex_Empty(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestDocumentsFor(t *testing.T) {
	docs := DocumentsFor(testBooks())
	require.Len(t, docs, 4)

	assert.Equal(t, "book-1/chap-1/base", docs[0].ID)
	assert.Equal(t, "Corrector", docs[1].ArtisanName)
	assert.Equal(t, "La tormenta", docs[1].ChapterTitle)
	assert.Equal(t, "Recetas", docs[3].BookTitle)
}

func TestIndexBooks_MirrorsContent(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	books := testBooks()
	require.NoError(t, index.IndexBooks(ctx, books))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)

	// Dropping a book removes its documents.
	require.NoError(t, index.IndexBooks(ctx, books[:1]))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	res, err := index.Search(ctx, Params{Query: "harina"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestSearch_Text(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	require.NoError(t, index.IndexBooks(ctx, testBooks()))

	res, err := index.Search(ctx, Params{Query: "faro"})
	require.NoError(t, err)
	require.Equal(t, uint64(3), res.Total)
	for _, hit := range res.Hits {
		assert.Equal(t, "book-1", hit.BookID)
		assert.Equal(t, "chap-1", hit.ChapterID)
		assert.Equal(t, "Cuentos del puerto", hit.BookTitle)
		assert.NotEmpty(t, hit.Snippet)
	}
}

func TestSearch_ArtisanFilter(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	require.NoError(t, index.IndexBooks(ctx, testBooks()))

	res, err := index.Search(ctx, Params{Query: "faro", ArtisanID: "2"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "Resumen", res.Hits[0].ArtisanName)

	all, err := index.Search(ctx, Params{Query: "faro", ArtisanID: domain.AllArtisans})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), all.Total)
}

func TestSearch_BookFilterWithoutQuery(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	require.NoError(t, index.IndexBooks(ctx, testBooks()))

	res, err := index.Search(ctx, Params{BookID: "book-2"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "Pan", res.Hits[0].ChapterTitle)
	assert.Empty(t, res.Hits[0].Snippet)
}

func TestSearch_Limit(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	require.NoError(t, index.IndexBooks(ctx, testBooks()))

	res, err := index.Search(ctx, Params{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), res.Total)
	assert.Len(t, res.Hits, 2)
}

func TestNewIndex_ReopenKnowsStoredDocuments(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	index, err := NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexBooks(ctx, testBooks()))
	require.NoError(t, index.Close())

	reopened, err := NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)

	require.NoError(t, reopened.IndexBooks(ctx, nil))
	count, err = reopened.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}
