package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"time"

	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/errors"
	"github.com/fabricaapp/fabrica-server/internal/textfmt"
)

// MsgNothingToArchive is returned for a chapter without generated content.
const MsgNothingToArchive = "No hay contenido generado para descargar."

// baseFileName holds the chapter's base text inside an archive.
const baseFileName = "00_Texto_Base.txt"

// ArchiveFileName is the download name of a chapter archive.
func ArchiveFileName(book domain.Book, chapter domain.Chapter) string {
	return fmt.Sprintf("%s_%s.zip", textfmt.SanitizeName(book.Title), textfmt.SanitizeName(chapter.Title))
}

// ArchiveEntries lists the paths WriteChapterArchive produces, in order.
func ArchiveEntries(chapter domain.Chapter) []string {
	folder := textfmt.SanitizeName(chapter.Title)
	entries := []string{folder + "/" + baseFileName}

	n := 0
	for _, c := range chapter.Content {
		if c.IsBase() {
			continue
		}
		n++
		entries = append(entries, fmt.Sprintf("%s/%02d_%s.txt", folder, n, textfmt.SanitizeName(c.ArtisanName)))
	}
	return entries
}

// WriteChapterArchive writes a zip with one folder named after the chapter.
// The folder holds 00_Texto_Base.txt and one NN_<artisan>.txt per generated
// entry, numbered from 01 in content order.
func WriteChapterArchive(w io.Writer, chapter domain.Chapter, modified time.Time) error {
	generated := make([]domain.GeneratedContent, 0, len(chapter.Content))
	for _, c := range chapter.Content {
		if !c.IsBase() {
			generated = append(generated, c)
		}
	}
	if len(generated) == 0 {
		return errors.Validation(MsgNothingToArchive)
	}

	names := ArchiveEntries(chapter)
	texts := make([]string, 0, len(names))
	texts = append(texts, chapter.BaseText())
	for _, c := range generated {
		texts = append(texts, c.Text)
	}

	zw := zip.NewWriter(w)
	for i, name := range names {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := io.WriteString(fw, texts[i]); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}
