package domain

import (
	"strings"

	"github.com/fabricaapp/fabrica-server/internal/errors"
	"github.com/fabricaapp/fabrica-server/internal/id"
)

// Collection is an optional named group of books.
type Collection struct {
	ID   ID     `json:"id"`
	Name string `json:"nombre"`
}

// NewCollection validates the name and assigns a fresh id.
func NewCollection(name string) (Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Collection{}, errors.Validation("El nombre de la colección es obligatorio.")
	}

	collectionID, err := id.Generate(id.Collection)
	if err != nil {
		return Collection{}, errors.Wrap(err, errors.CodeInternal, "generate collection id")
	}
	return Collection{ID: NewID(collectionID), Name: name}, nil
}

// RenameCollection returns collections with one entry renamed.
func RenameCollection(collections []Collection, collectionID ID, name string) ([]Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return collections, errors.Validation("El nombre de la colección es obligatorio.")
	}

	out := make([]Collection, len(collections))
	copy(out, collections)
	for i := range out {
		if out[i].ID.Equal(collectionID) {
			out[i].Name = name
			return out, nil
		}
	}
	return collections, errors.NotFoundf("collection %s not found", collectionID)
}

// AssignCollection returns books with the book's collection set. A nil
// collectionID clears the assignment.
func AssignCollection(books []Book, collections []Collection, bookID ID, collectionID *ID) ([]Book, error) {
	if collectionID != nil && !hasCollection(collections, *collectionID) {
		return books, errors.NotFoundf("collection %s not found", *collectionID)
	}

	out := make([]Book, len(books))
	copy(out, books)
	for i := range out {
		if !out[i].ID.Equal(bookID) {
			continue
		}
		if collectionID == nil {
			out[i].CollectionID = nil
		} else {
			c := *collectionID
			out[i].CollectionID = &c
		}
		return out, nil
	}
	return books, errors.NotFoundf("book %s not found", bookID)
}

// DeleteCollection removes a collection and clears collectionId on every
// book that referenced it. Other books are returned unchanged.
func DeleteCollection(books []Book, collections []Collection, collectionID ID) ([]Book, []Collection, error) {
	if !hasCollection(collections, collectionID) {
		return books, collections, errors.NotFoundf("collection %s not found", collectionID)
	}

	remaining := make([]Collection, 0, len(collections))
	for _, c := range collections {
		if !c.ID.Equal(collectionID) {
			remaining = append(remaining, c)
		}
	}

	unlinked := make([]Book, len(books))
	copy(unlinked, books)
	for i := range unlinked {
		if unlinked[i].CollectionID != nil && unlinked[i].CollectionID.Equal(collectionID) {
			unlinked[i].CollectionID = nil
		}
	}
	return unlinked, remaining, nil
}

func hasCollection(collections []Collection, collectionID ID) bool {
	for _, c := range collections {
		if c.ID.Equal(collectionID) {
			return true
		}
	}
	return false
}
