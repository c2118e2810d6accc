package service

import (
	"archive/zip"
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabricaapp/fabrica-server/internal/backup"
	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/errors"
	"github.com/fabricaapp/fabrica-server/internal/textfmt"
)

func newLibraryService(t *testing.T, env *testEnv) *LibraryService {
	t.Helper()
	manager := backup.NewManager(filepath.Join(t.TempDir(), "backups"), discardLogger())
	return NewLibraryService(env.store, manager, discardLogger())
}

func TestLibraryService_ExportImportRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	lib := newLibraryService(t, env)
	ctx := context.Background()

	book := env.seedBook(t, "Libro", "a")
	_, err := env.books.SaveBaseText(ctx, book.ID, book.Chapters[0].ID, "base", textfmt.FormatPlain)
	require.NoError(t, err)
	_, err = env.collections.CreateCollection(ctx, "Serie")
	require.NoError(t, err)

	exported, err := lib.ExportLibrary(ctx)
	require.NoError(t, err)
	assert.Contains(t, exported.FileName, "biblioteca_fabrica_contenido_")

	require.NoError(t, env.books.DeleteBook(ctx, book.ID))

	imported, err := lib.ImportLibrary(ctx, exported.Data)
	require.NoError(t, err)
	assert.Len(t, imported.Books, 1)

	again, err := lib.ExportLibrary(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(exported.Data), string(again.Data))
}

func TestLibraryService_ImportWithoutCollections(t *testing.T) {
	env := newTestEnv(t)
	lib := newLibraryService(t, env)
	ctx := context.Background()

	_, err := env.collections.CreateCollection(ctx, "Vieja")
	require.NoError(t, err)

	_, err = lib.ImportLibrary(ctx, []byte(`{"libros": [], "artesanos": []}`))
	require.NoError(t, err)

	collections, err := env.collections.ListCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, collections)
}

func TestLibraryService_InvalidImportLeavesLibrary(t *testing.T) {
	env := newTestEnv(t)
	lib := newLibraryService(t, env)
	ctx := context.Background()
	env.seedBook(t, "Libro", "a")

	_, err := lib.ImportLibrary(ctx, []byte(`{"artesanos": []}`))
	assert.True(t, errors.Is(err, errors.ErrValidation))

	books, err := env.books.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestLibraryService_ArchiveChapter(t *testing.T) {
	env := newTestEnv(t)
	lib := newLibraryService(t, env)
	ctx := context.Background()
	env.setAPIKey(t, "key")
	book := env.seedBook(t, "Mi Libro", "Capítulo Uno")
	chapterID := book.Chapters[0].ID

	_, err := env.books.SaveBaseText(ctx, book.ID, chapterID, "base", textfmt.FormatPlain)
	require.NoError(t, err)
	_, err = lib.ArchiveChapter(ctx, book.ID, chapterID)
	assert.True(t, errors.Is(err, errors.ErrValidation), "base text alone is not archived")

	plan, err := env.generation.PlanGeneration(ctx, PlanRequest{
		BookID: book.ID, ChapterID: chapterID, BaseText: "base", ArtisanIDs: defaultArtisanIDs[:2],
	})
	require.NoError(t, err)
	_, err = env.generation.CommitGeneration(ctx, plan.ID, true, nil)
	require.NoError(t, err)

	archive, err := lib.ArchiveChapter(ctx, book.ID, chapterID)
	require.NoError(t, err)
	assert.Equal(t, "Mi_Libro_Capitulo_Uno.zip", archive.FileName)

	zr, err := zip.NewReader(bytes.NewReader(archive.Data), int64(len(archive.Data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)
	assert.Equal(t, "Capitulo_Uno/00_Texto_Base.txt", zr.File[0].Name)
	assert.Equal(t, "Capitulo_Uno/01_Corrector_Ortografico_y_Gramatical.txt", zr.File[1].Name)

	_, err = lib.ArchiveChapter(ctx, book.ID, domain.NewID("missing"))
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestLibraryService_Backups(t *testing.T) {
	env := newTestEnv(t)
	lib := newLibraryService(t, env)
	ctx := context.Background()
	book := env.seedBook(t, "Libro", "a")

	info, err := lib.CreateBackup(ctx)
	require.NoError(t, err)

	list, err := lib.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, info.Name, list[0].Name)

	require.NoError(t, env.books.DeleteBook(ctx, book.ID))

	restored, err := lib.RestoreBackup(ctx, info.Name)
	require.NoError(t, err)
	require.Len(t, restored.Books, 1)

	books, err := env.books.ListBooks(ctx)
	require.NoError(t, err)
	assert.True(t, books[0].ID.Equal(book.ID))
}

func TestLibraryService_BackupsDisabled(t *testing.T) {
	env := newTestEnv(t)
	lib := NewLibraryService(env.store, nil, discardLogger())
	ctx := context.Background()

	list, err := lib.ListBackups(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = lib.CreateBackup(ctx)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}
