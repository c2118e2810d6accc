// Package search keeps a Bleve full-text index over the content stored in
// a library's chapters.
package search

import (
	"github.com/fabricaapp/fabrica-server/internal/domain"
)

// Document is one chapter content entry as indexed. Each entry of a
// chapter's content list, the base text included, becomes one document.
type Document struct {
	ID           string `json:"id"`
	BookID       string `json:"book_id"`
	ChapterID    string `json:"chapter_id"`
	ArtisanID    string `json:"artisan_id"`
	ArtisanName  string `json:"artisan_name"`
	BookTitle    string `json:"book_title"`
	ChapterTitle string `json:"chapter_title"`
	Text         string `json:"text"`
}

// DocumentID identifies the entry of artisanID in a chapter.
func DocumentID(bookID, chapterID, artisanID domain.ID) string {
	return bookID.String() + "/" + chapterID.String() + "/" + artisanID.String()
}

// DocumentsFor flattens books into index documents.
func DocumentsFor(books []domain.Book) []Document {
	var docs []Document
	for _, b := range books {
		for _, ch := range b.Chapters {
			for _, c := range ch.Content {
				docs = append(docs, Document{
					ID:           DocumentID(b.ID, ch.ID, c.ArtisanID),
					BookID:       b.ID.String(),
					ChapterID:    ch.ID.String(),
					ArtisanID:    c.ArtisanID.String(),
					ArtisanName:  c.ArtisanName,
					BookTitle:    b.Title,
					ChapterTitle: ch.Title,
					Text:         c.Text,
				})
			}
		}
	}
	return docs
}

// ToMap converts the document to the field names of the index mapping.
func (d Document) ToMap() map[string]any {
	return map[string]any{
		"book_id":       d.BookID,
		"chapter_id":    d.ChapterID,
		"artisan_id":    d.ArtisanID,
		"artisan_name":  d.ArtisanName,
		"book_title":    d.BookTitle,
		"chapter_title": d.ChapterTitle,
		"text":          d.Text,
	}
}
