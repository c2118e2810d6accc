// Package id generates prefixed NanoIDs for library entities.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefix identifies the entity kind an id belongs to.
type Prefix string

// Entity prefixes.
const (
	Book       Prefix = "book"
	Chapter    Prefix = "chap"
	Artisan    Prefix = "art"
	Collection Prefix = "coll"
)

// Generate returns "<prefix>-<nanoid>", e.g. "book-V1StGXR8_Z5jdHi6B-myT".
// It fails only when the system cannot supply secure randomness.
func Generate(prefix Prefix) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return string(prefix) + "-" + n, nil
}

// MustGenerate is like Generate but panics on failure.
func MustGenerate(prefix Prefix) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}
