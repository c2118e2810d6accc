// Package domain contains the entities of a Fabrica library and the pure
// functions that create and transform them.
package domain

import (
	"strings"
	"time"

	"github.com/fabricaapp/fabrica-server/internal/errors"
	"github.com/fabricaapp/fabrica-server/internal/id"
)

// Book is a titled list of chapters, optionally grouped in a collection.
type Book struct {
	ID           ID         `json:"id"`
	Title        string     `json:"titulo"`
	Chapters     []Chapter  `json:"capitulos"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	CollectionID *ID        `json:"collectionId"`
}

// Chapter belongs to exactly one book.
type Chapter struct {
	ID        ID                 `json:"id"`
	Title     string             `json:"titulo"`
	Completed bool               `json:"completado"`
	Content   []GeneratedContent `json:"contenido"`
}

// CreateBook builds a book from a title and a block of chapter titles, one
// per line. Lines are trimmed and blank lines dropped; each chapter gets a
// fresh id, starts not completed and without content.
func CreateBook(title, chapterTitles string, now time.Time) (Book, error) {
	title = strings.TrimSpace(title)
	lines := splitChapterTitles(chapterTitles)
	if title == "" || len(lines) == 0 {
		return Book{}, errors.Validation("El título y el índice son obligatorios.")
	}

	bookID, err := id.Generate(id.Book)
	if err != nil {
		return Book{}, errors.Wrap(err, errors.CodeInternal, "generate book id")
	}

	chapters := make([]Chapter, 0, len(lines))
	for _, line := range lines {
		chapterID, err := id.Generate(id.Chapter)
		if err != nil {
			return Book{}, errors.Wrap(err, errors.CodeInternal, "generate chapter id")
		}
		chapters = append(chapters, Chapter{
			ID:      NewID(chapterID),
			Title:   line,
			Content: []GeneratedContent{},
		})
	}

	created := now.UTC()
	return Book{
		ID:        NewID(bookID),
		Title:     title,
		Chapters:  chapters,
		CreatedAt: &created,
	}, nil
}

func splitChapterTitles(text string) []string {
	var titles []string
	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			titles = append(titles, line)
		}
	}
	return titles
}

// Chapter returns the chapter with the given id.
func (b *Book) Chapter(chapterID ID) (*Chapter, bool) {
	for i := range b.Chapters {
		if b.Chapters[i].ID.Equal(chapterID) {
			return &b.Chapters[i], true
		}
	}
	return nil, false
}

// Progress returns the percentage of completed chapters, 0 for a book with
// no chapters.
func (b *Book) Progress() float64 {
	if len(b.Chapters) == 0 {
		return 0
	}
	done := 0
	for _, ch := range b.Chapters {
		if ch.Completed {
			done++
		}
	}
	return float64(done) / float64(len(b.Chapters)) * 100
}

// ToggleChapterCompleted returns the book with the chapter's completed flag
// flipped. Other chapters are untouched.
func ToggleChapterCompleted(b Book, chapterID ID) (Book, error) {
	chapters := make([]Chapter, len(b.Chapters))
	copy(chapters, b.Chapters)

	for i := range chapters {
		if chapters[i].ID.Equal(chapterID) {
			chapters[i].Completed = !chapters[i].Completed
			b.Chapters = chapters
			return b, nil
		}
	}
	return b, errors.NotFoundf("chapter %s not found", chapterID)
}

// ReplaceChapter returns the book with the chapter of the same id replaced.
func ReplaceChapter(b Book, ch Chapter) (Book, error) {
	chapters := make([]Chapter, len(b.Chapters))
	copy(chapters, b.Chapters)

	for i := range chapters {
		if chapters[i].ID.Equal(ch.ID) {
			chapters[i] = ch
			b.Chapters = chapters
			return b, nil
		}
	}
	return b, errors.NotFoundf("chapter %s not found", ch.ID)
}

// ContentFor returns the chapter's entry for artisanID.
func (c *Chapter) ContentFor(artisanID ID) (GeneratedContent, bool) {
	for _, entry := range c.Content {
		if entry.ArtisanID.Equal(artisanID) {
			return entry, true
		}
	}
	return GeneratedContent{}, false
}

// BaseText returns the chapter's stored base text, or "" when none was saved.
func (c *Chapter) BaseText() string {
	entry, _ := c.ContentFor(BaseArtisanID)
	return entry.Text
}
