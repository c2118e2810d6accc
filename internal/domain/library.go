package domain

import "github.com/fabricaapp/fabrica-server/internal/errors"

// Library is the whole application state persisted by the store and
// exchanged by import/export.
type Library struct {
	Books       []Book       `json:"libros"`
	Artisans    []Artisan    `json:"artesanos"`
	Collections []Collection `json:"colecciones"`
}

// Settings holds the user's preferences.
type Settings struct {
	APIKey   string
	DarkMode bool
}

// Normalize replaces nil lists with empty ones so the library always
// serializes as arrays.
func (l *Library) Normalize() {
	if l.Books == nil {
		l.Books = []Book{}
	}
	if l.Artisans == nil {
		l.Artisans = []Artisan{}
	}
	if l.Collections == nil {
		l.Collections = []Collection{}
	}
	NormalizeBooks(l.Books)
}

// NormalizeBooks replaces nil chapter and content lists in place.
func NormalizeBooks(books []Book) {
	for i := range books {
		if books[i].Chapters == nil {
			books[i].Chapters = []Chapter{}
		}
		for j := range books[i].Chapters {
			if books[i].Chapters[j].Content == nil {
				books[i].Chapters[j].Content = []GeneratedContent{}
			}
		}
	}
}

// FindBook returns the book with the given id.
func FindBook(books []Book, bookID ID) (Book, bool) {
	for _, b := range books {
		if b.ID.Equal(bookID) {
			return b, true
		}
	}
	return Book{}, false
}

// ReplaceBook returns books with the book of the same id replaced.
func ReplaceBook(books []Book, book Book) ([]Book, error) {
	out := make([]Book, len(books))
	copy(out, books)
	for i := range out {
		if out[i].ID.Equal(book.ID) {
			out[i] = book
			return out, nil
		}
	}
	return books, errors.NotFoundf("book %s not found", book.ID)
}

// RemoveBook returns books without the given book and all its chapters.
func RemoveBook(books []Book, bookID ID) ([]Book, error) {
	out := make([]Book, 0, len(books))
	found := false
	for _, b := range books {
		if b.ID.Equal(bookID) {
			found = true
			continue
		}
		out = append(out, b)
	}
	if !found {
		return books, errors.NotFoundf("book %s not found", bookID)
	}
	return out, nil
}

// AllArtisans selects every entry in FilterContent.
const AllArtisans = "todos"

// ChapterView is a chapter with its content narrowed by a filter.
type ChapterView struct {
	Chapter Chapter
	Content []GeneratedContent
}

// FilterContent lists the book's chapters with only the entries produced by
// artisanID. An empty filter or AllArtisans keeps every entry. Chapters left
// without entries are omitted.
func FilterContent(book Book, artisanID string) []ChapterView {
	views := make([]ChapterView, 0, len(book.Chapters))
	for _, ch := range book.Chapters {
		var entries []GeneratedContent
		for _, c := range ch.Content {
			if artisanID == "" || artisanID == AllArtisans || c.ArtisanID.String() == artisanID {
				entries = append(entries, c)
			}
		}
		if len(entries) > 0 {
			views = append(views, ChapterView{Chapter: ch, Content: entries})
		}
	}
	return views
}
