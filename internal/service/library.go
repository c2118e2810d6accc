package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fabricaapp/fabrica-server/internal/backup"
	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/errors"
	"github.com/fabricaapp/fabrica-server/internal/store"
)

// LibraryService moves the whole library in and out: the import/export
// document, chapter archives and on-disk backups.
type LibraryService struct {
	store   *store.Store
	backups *backup.Manager
	logger  *slog.Logger
	now     func() time.Time
}

// NewLibraryService creates a new library service. backups may be nil when
// no backup directory is configured.
func NewLibraryService(store *store.Store, backups *backup.Manager, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		store:   store,
		backups: backups,
		logger:  logger,
		now:     time.Now,
	}
}

// Export is an encoded library document with its download name.
type Export struct {
	FileName string
	Data     []byte
}

// ExportLibrary encodes the whole library.
func (s *LibraryService) ExportLibrary(ctx context.Context) (*Export, error) {
	lib, err := s.store.Library(ctx)
	if err != nil {
		return nil, storeErr(err, "No se pudo leer la biblioteca.")
	}

	data, err := backup.Marshal(lib)
	if err != nil {
		return nil, err
	}

	s.logger.Info("library exported",
		"books", len(lib.Books),
		"artisans", len(lib.Artisans),
		"collections", len(lib.Collections),
	)
	return &Export{FileName: backup.ExportFileName(s.now()), Data: data}, nil
}

// ImportLibrary replaces the whole library with the decoded document. An
// invalid document leaves the library untouched.
func (s *LibraryService) ImportLibrary(ctx context.Context, data []byte) (*domain.Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lib, err := backup.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceLibrary(ctx, lib); err != nil {
		return nil, storeErr(err, "No se pudo guardar la biblioteca importada.")
	}

	s.logger.Info("library imported",
		"books", len(lib.Books),
		"artisans", len(lib.Artisans),
		"collections", len(lib.Collections),
	)
	return lib, nil
}

// Archive is a chapter zip with its download name.
type Archive struct {
	FileName string
	Data     []byte
}

// ArchiveChapter packs a chapter's base text and generated entries.
func (s *LibraryService) ArchiveChapter(ctx context.Context, bookID, chapterID domain.ID) (*Archive, error) {
	books, err := s.store.Books.All(ctx)
	if err != nil {
		return nil, storeErr(err, "No se pudieron leer los libros.")
	}
	book, chapter, err := findChapter(books, bookID, chapterID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.WriteArchive(&buf, *chapter); err != nil {
		return nil, err
	}

	s.logger.Info("chapter archived",
		"book_id", bookID.String(),
		"chapter_id", chapterID.String(),
		"bytes", buf.Len(),
	)
	return &Archive{FileName: backup.ArchiveFileName(*book, *chapter), Data: buf.Bytes()}, nil
}

// WriteArchive writes one chapter's zip to w.
func (s *LibraryService) WriteArchive(w io.Writer, chapter domain.Chapter) error {
	return backup.WriteChapterArchive(w, chapter, s.now())
}

// CreateBackup writes the current library to the backup directory.
func (s *LibraryService) CreateBackup(ctx context.Context) (*backup.Info, error) {
	if s.backups == nil {
		return nil, errBackupsDisabled()
	}

	lib, err := s.store.Library(ctx)
	if err != nil {
		return nil, storeErr(err, "No se pudo leer la biblioteca.")
	}
	info, err := s.backups.Create(ctx, lib, s.now())
	if err != nil {
		return nil, storeErr(err, "No se pudo crear la copia de seguridad.")
	}
	return info, nil
}

// ListBackups lists the backups, newest first.
func (s *LibraryService) ListBackups(ctx context.Context) ([]backup.Info, error) {
	if s.backups == nil {
		return []backup.Info{}, nil
	}
	backups, err := s.backups.List(ctx)
	if err != nil {
		return nil, storeErr(err, "No se pudieron listar las copias de seguridad.")
	}
	return backups, nil
}

// RestoreBackup replaces the library with a backup's contents.
func (s *LibraryService) RestoreBackup(ctx context.Context, name string) (*domain.Library, error) {
	if s.backups == nil {
		return nil, errBackupsDisabled()
	}

	lib, err := s.backups.Load(ctx, name)
	if err != nil {
		return nil, storeErr(err, "No se pudo leer la copia de seguridad.")
	}
	if err := s.store.ReplaceLibrary(ctx, lib); err != nil {
		return nil, storeErr(err, "No se pudo restaurar la copia de seguridad.")
	}

	s.logger.Info("backup restored", "name", name, "books", len(lib.Books))
	return lib, nil
}

func findChapter(books []domain.Book, bookID, chapterID domain.ID) (*domain.Book, *domain.Chapter, error) {
	book, ok := domain.FindBook(books, bookID)
	if !ok {
		return nil, nil, errors.NotFoundf("book %s not found", bookID)
	}
	chapter, ok := book.Chapter(chapterID)
	if !ok {
		return nil, nil, errors.NotFoundf("chapter %s not found", chapterID)
	}
	return &book, chapter, nil
}

func errBackupsDisabled() error {
	return errors.Conflict("backups are not configured")
}
