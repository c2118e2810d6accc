package dto

import (
	"time"

	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/generation"
)

// BookSummary is a book as listed in the library.
type BookSummary struct {
	ID           string     `json:"id" doc:"Book ID"`
	Title        string     `json:"title" doc:"Book title"`
	CollectionID *string    `json:"collection_id" doc:"Collection the book belongs to, null when ungrouped"`
	CreatedAt    *time.Time `json:"created_at,omitempty" doc:"Creation time"`
	ChapterCount int        `json:"chapter_count" doc:"Number of chapters"`
	Progress     float64    `json:"progress" doc:"Percentage of completed chapters"`
}

// Book is a book with its chapters.
type Book struct {
	BookSummary
	Chapters []Chapter `json:"chapters" doc:"Chapters in index order"`
}

// Chapter is one chapter with its content entries.
type Chapter struct {
	ID        string    `json:"id" doc:"Chapter ID"`
	Title     string    `json:"title" doc:"Chapter title"`
	Completed bool      `json:"completed" doc:"Whether the chapter is marked done"`
	Content   []Content `json:"content" doc:"Base text first, then generated entries"`
}

// Content is one entry of a chapter's content list.
type Content struct {
	ArtisanID   string     `json:"artisan_id" doc:"Artisan ID, \"base\" for the base text"`
	ArtisanName string     `json:"artisan_name" doc:"Artisan name at generation time"`
	Text        string     `json:"text" doc:"Entry text"`
	CreatedAt   *time.Time `json:"created_at,omitempty" doc:"Generation time"`
	Failed      bool       `json:"failed" doc:"Whether the generation call failed"`
}

// ChapterView is a chapter narrowed to the entries of one artisan.
type ChapterView struct {
	ChapterID string    `json:"chapter_id" doc:"Chapter ID"`
	Title     string    `json:"title" doc:"Chapter title"`
	Content   []Content `json:"content" doc:"Matching entries"`
}

// FilteredBook is the library view of one book.
type FilteredBook struct {
	BookID    string        `json:"book_id" doc:"Book ID"`
	Title     string        `json:"title" doc:"Book title"`
	ArtisanID string        `json:"artisan_id" doc:"Applied filter"`
	Chapters  []ChapterView `json:"chapters" doc:"Chapters with at least one matching entry"`
}

// NewBookSummary converts a domain book for listing.
func NewBookSummary(b *domain.Book) BookSummary {
	return BookSummary{
		ID:           b.ID.String(),
		Title:        b.Title,
		CollectionID: optionalString(b.CollectionID),
		CreatedAt:    b.CreatedAt,
		ChapterCount: len(b.Chapters),
		Progress:     b.Progress(),
	}
}

// NewBookSummaries converts a list of books.
func NewBookSummaries(books []domain.Book) []BookSummary {
	out := make([]BookSummary, 0, len(books))
	for i := range books {
		out = append(out, NewBookSummary(&books[i]))
	}
	return out
}

// NewBook converts a domain book with its chapters.
func NewBook(b *domain.Book) Book {
	chapters := make([]Chapter, 0, len(b.Chapters))
	for i := range b.Chapters {
		chapters = append(chapters, NewChapter(&b.Chapters[i]))
	}
	return Book{BookSummary: NewBookSummary(b), Chapters: chapters}
}

// NewChapter converts a domain chapter.
func NewChapter(ch *domain.Chapter) Chapter {
	return Chapter{
		ID:        ch.ID.String(),
		Title:     ch.Title,
		Completed: ch.Completed,
		Content:   NewContents(ch.Content),
	}
}

// NewContents converts content entries.
func NewContents(entries []domain.GeneratedContent) []Content {
	out := make([]Content, 0, len(entries))
	for _, c := range entries {
		out = append(out, Content{
			ArtisanID:   c.ArtisanID.String(),
			ArtisanName: c.ArtisanName,
			Text:        c.Text,
			CreatedAt:   c.CreatedAt,
			Failed:      generation.IsFailure(c),
		})
	}
	return out
}

// NewFilteredBook converts the filtered view of a book.
func NewFilteredBook(b *domain.Book, artisanID string, views []domain.ChapterView) FilteredBook {
	if artisanID == "" {
		artisanID = domain.AllArtisans
	}
	chapters := make([]ChapterView, 0, len(views))
	for _, v := range views {
		chapters = append(chapters, ChapterView{
			ChapterID: v.Chapter.ID.String(),
			Title:     v.Chapter.Title,
			Content:   NewContents(v.Content),
		})
	}
	return FilteredBook{
		BookID:    b.ID.String(),
		Title:     b.Title,
		ArtisanID: artisanID,
		Chapters:  chapters,
	}
}
