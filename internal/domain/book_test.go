package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabricaapp/fabrica-server/internal/errors"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCreateBook_SplitsChapterLines(t *testing.T) {
	book, err := CreateBook("My Book", "Intro\nChapter 1\nChapter 2", testNow)
	require.NoError(t, err)

	assert.Equal(t, "My Book", book.Title)
	require.Len(t, book.Chapters, 3)
	for i, want := range []string{"Intro", "Chapter 1", "Chapter 2"} {
		ch := book.Chapters[i]
		assert.Equal(t, want, ch.Title)
		assert.False(t, ch.Completed)
		assert.Empty(t, ch.Content)
		assert.NotNil(t, ch.Content)
		assert.True(t, strings.HasPrefix(ch.ID.String(), "chap-"))
	}
	assert.True(t, strings.HasPrefix(book.ID.String(), "book-"))
	require.NotNil(t, book.CreatedAt)
	assert.Equal(t, testNow, *book.CreatedAt)
	assert.Nil(t, book.CollectionID)
}

func TestCreateBook_TrimsAndDropsBlankLines(t *testing.T) {
	book, err := CreateBook("  Título  ", "\r\n  Uno \r\n\n   \nDos\n", testNow)
	require.NoError(t, err)

	assert.Equal(t, "Título", book.Title)
	require.Len(t, book.Chapters, 2)
	assert.Equal(t, "Uno", book.Chapters[0].Title)
	assert.Equal(t, "Dos", book.Chapters[1].Title)
	assert.False(t, book.Chapters[0].ID.Equal(book.Chapters[1].ID))
}

func TestCreateBook_RequiresTitleAndChapters(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		chapters string
	}{
		{"blank title", "   ", "Intro"},
		{"no chapters", "Book", ""},
		{"only blank lines", "Book", "\n  \n\t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateBook(tt.title, tt.chapters, testNow)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrValidation))
		})
	}
}

func TestToggleChapterCompleted(t *testing.T) {
	book, err := CreateBook("Book", "A\nB", testNow)
	require.NoError(t, err)
	target := book.Chapters[1].ID

	toggled, err := ToggleChapterCompleted(book, target)
	require.NoError(t, err)
	assert.False(t, toggled.Chapters[0].Completed)
	assert.True(t, toggled.Chapters[1].Completed)
	assert.False(t, book.Chapters[1].Completed, "input book must not change")

	again, err := ToggleChapterCompleted(toggled, target)
	require.NoError(t, err)
	assert.False(t, again.Chapters[1].Completed)

	_, err = ToggleChapterCompleted(book, NewID("chap-missing"))
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestBook_Progress(t *testing.T) {
	book, err := CreateBook("Book", "A\nB\nC\nD", testNow)
	require.NoError(t, err)
	assert.Zero(t, book.Progress())

	book.Chapters[0].Completed = true
	assert.InDelta(t, 25.0, book.Progress(), 0.001)

	empty := Book{}
	assert.Zero(t, empty.Progress())
}

func TestChapter_BaseText(t *testing.T) {
	ch := Chapter{Content: []GeneratedContent{
		{ArtisanID: NewID("art-1"), Text: "x"},
		{ArtisanID: BaseArtisanID, ArtisanName: BaseArtisanName, Text: "raw"},
	}}
	assert.Equal(t, "raw", ch.BaseText())
	assert.Empty(t, (&Chapter{}).BaseText())
}
