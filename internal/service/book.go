package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/errors"
	"github.com/fabricaapp/fabrica-server/internal/generation"
	"github.com/fabricaapp/fabrica-server/internal/store"
	"github.com/fabricaapp/fabrica-server/internal/textfmt"
)

// BookService manages books and their chapters.
type BookService struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewBookService creates a new book service.
func NewBookService(store *store.Store, logger *slog.Logger) *BookService {
	return &BookService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// ListBooks returns every book in stored order.
func (s *BookService) ListBooks(ctx context.Context) ([]domain.Book, error) {
	books, err := s.store.Books.All(ctx)
	if err != nil {
		return nil, storeErr(err, "No se pudieron leer los libros.")
	}
	return books, nil
}

// CreateBook creates a book from a title and one chapter title per line.
func (s *BookService) CreateBook(ctx context.Context, title, chapterTitles string) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	book, err := domain.CreateBook(title, chapterTitles, s.now())
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Books.Mutate(ctx, func(books []domain.Book) ([]domain.Book, error) {
		return append(books, book), nil
	}); err != nil {
		return nil, storeErr(err, "No se pudo guardar el libro.")
	}

	s.logger.Info("book created",
		"book_id", book.ID.String(),
		"title", book.Title,
		"chapters", len(book.Chapters),
	)
	return &book, nil
}

// GetBook returns one book.
func (s *BookService) GetBook(ctx context.Context, bookID domain.ID) (*domain.Book, error) {
	books, err := s.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	book, ok := domain.FindBook(books, bookID)
	if !ok {
		return nil, errors.NotFoundf("book %s not found", bookID)
	}
	return &book, nil
}

// DeleteBook removes a book with all its chapters and content.
func (s *BookService) DeleteBook(ctx context.Context, bookID domain.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.store.Books.Mutate(ctx, func(books []domain.Book) ([]domain.Book, error) {
		return domain.RemoveBook(books, bookID)
	}); err != nil {
		return storeErr(err, "No se pudo borrar el libro.")
	}

	s.logger.Info("book deleted", "book_id", bookID.String())
	return nil
}

// AssignCollection puts the book in a collection. A nil collectionID takes
// it out of any collection.
func (s *BookService) AssignCollection(ctx context.Context, bookID domain.ID, collectionID *domain.ID) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lib, err := s.store.Update(ctx, func(lib *domain.Library) error {
		books, err := domain.AssignCollection(lib.Books, lib.Collections, bookID, collectionID)
		if err != nil {
			return err
		}
		lib.Books = books
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "No se pudo asignar la colección.")
	}

	book, _ := domain.FindBook(lib.Books, bookID)
	s.logger.Info("book collection assigned",
		"book_id", bookID.String(),
		"collection_id", optionalID(collectionID),
	)
	return &book, nil
}

// GetChapter returns a book and one of its chapters.
func (s *BookService) GetChapter(ctx context.Context, bookID, chapterID domain.ID) (*domain.Book, *domain.Chapter, error) {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}
	chapter, ok := book.Chapter(chapterID)
	if !ok {
		return nil, nil, errors.NotFoundf("chapter %s not found", chapterID)
	}
	return book, chapter, nil
}

// ToggleChapter flips a chapter's completed flag.
func (s *BookService) ToggleChapter(ctx context.Context, bookID, chapterID domain.ID) (*domain.Chapter, error) {
	chapter, err := s.mutateChapter(ctx, bookID, chapterID, func(b domain.Book, _ domain.Chapter) (domain.Book, error) {
		return domain.ToggleChapterCompleted(b, chapterID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("chapter toggled",
		"book_id", bookID.String(),
		"chapter_id", chapterID.String(),
		"completed", chapter.Completed,
	)
	return chapter, nil
}

// SaveBaseText stores the chapter's base text and keeps every generated
// entry. HTML input is converted to Markdown first.
func (s *BookService) SaveBaseText(ctx context.Context, bookID, chapterID domain.ID, text string, format textfmt.Format) (*domain.Chapter, error) {
	text = textfmt.Normalize(text, format)
	if strings.TrimSpace(text) == "" {
		return nil, errors.Validation(generation.MsgEmptyBaseText)
	}

	chapter, err := s.mutateChapter(ctx, bookID, chapterID, func(b domain.Book, ch domain.Chapter) (domain.Book, error) {
		return domain.ReplaceChapter(b, domain.MergeContent(ch, text, nil))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("base text saved",
		"book_id", bookID.String(),
		"chapter_id", chapterID.String(),
		"length", len(text),
	)
	return chapter, nil
}

// DeleteContent removes the entry an artisan produced for a chapter.
func (s *BookService) DeleteContent(ctx context.Context, bookID, chapterID, artisanID domain.ID) (*domain.Chapter, error) {
	chapter, err := s.mutateChapter(ctx, bookID, chapterID, func(b domain.Book, ch domain.Chapter) (domain.Book, error) {
		updated, found := domain.DeleteContent(ch, artisanID)
		if !found {
			return b, errors.NotFoundf("content of artisan %s not found", artisanID)
		}
		return domain.ReplaceChapter(b, updated)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("content deleted",
		"book_id", bookID.String(),
		"chapter_id", chapterID.String(),
		"artisan_id", artisanID.String(),
	)
	return chapter, nil
}

// FilterContent returns the book's chapters narrowed to one artisan's
// entries. An empty artisanID or domain.AllArtisans keeps every entry.
func (s *BookService) FilterContent(ctx context.Context, bookID domain.ID, artisanID string) (*domain.Book, []domain.ChapterView, error) {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}
	return book, domain.FilterContent(*book, artisanID), nil
}

// mutateChapter applies fn to one book under the store lock and returns the
// chapter as saved.
func (s *BookService) mutateChapter(ctx context.Context, bookID, chapterID domain.ID, fn func(domain.Book, domain.Chapter) (domain.Book, error)) (*domain.Chapter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var saved domain.Chapter
	_, err := s.store.Books.Mutate(ctx, func(books []domain.Book) ([]domain.Book, error) {
		book, ok := domain.FindBook(books, bookID)
		if !ok {
			return nil, errors.NotFoundf("book %s not found", bookID)
		}
		chapter, ok := book.Chapter(chapterID)
		if !ok {
			return nil, errors.NotFoundf("chapter %s not found", chapterID)
		}

		updated, err := fn(book, *chapter)
		if err != nil {
			return nil, err
		}
		ch, _ := updated.Chapter(chapterID)
		saved = *ch
		return domain.ReplaceBook(books, updated)
	})
	if err != nil {
		return nil, storeErr(err, "No se pudo guardar el capítulo.")
	}
	return &saved, nil
}

func optionalID(id *domain.ID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
