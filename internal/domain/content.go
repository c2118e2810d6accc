package domain

import "time"

// BaseArtisanID is the sentinel artisan id of a chapter's raw base text.
var BaseArtisanID = NewID("base")

// BaseArtisanName is the display name stored with the base text entry.
const BaseArtisanName = "Texto Base"

// GeneratedContent is one entry of a chapter's content list.
//
// ArtisanName is copied at generation time; renaming the artisan later does
// not touch stored entries.
type GeneratedContent struct {
	ArtisanID   ID         `json:"artesanoId"`
	ArtisanName string     `json:"nombreArtesano"`
	Text        string     `json:"texto"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// IsBase reports whether the entry holds the chapter's base text.
func (c GeneratedContent) IsBase() bool {
	return c.ArtisanID.Equal(BaseArtisanID)
}

// MergeContent returns the chapter with baseText and results folded into its
// content list.
//
// The new list is the base entry, then results in order, then every older
// non-base entry whose artisan is not among results, in its old order.
// Merging the same input twice yields the same list as merging once.
func MergeContent(ch Chapter, baseText string, results []GeneratedContent) Chapter {
	merged := make([]GeneratedContent, 0, 1+len(results)+len(ch.Content))
	merged = append(merged, GeneratedContent{
		ArtisanID:   BaseArtisanID,
		ArtisanName: BaseArtisanName,
		Text:        baseText,
	})

	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r.IsBase() {
			continue
		}
		if _, dup := seen[r.ArtisanID.String()]; dup {
			continue
		}
		seen[r.ArtisanID.String()] = struct{}{}
		merged = append(merged, r)
	}

	for _, old := range ch.Content {
		if old.IsBase() {
			continue
		}
		if _, replaced := seen[old.ArtisanID.String()]; replaced {
			continue
		}
		seen[old.ArtisanID.String()] = struct{}{}
		merged = append(merged, old)
	}

	ch.Content = merged
	return ch
}

// DeleteContent returns the chapter without the entry for artisanID and
// whether such an entry existed.
func DeleteContent(ch Chapter, artisanID ID) (Chapter, bool) {
	kept := make([]GeneratedContent, 0, len(ch.Content))
	found := false
	for _, c := range ch.Content {
		if c.ArtisanID.Equal(artisanID) {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	ch.Content = kept
	return ch, found
}

// ConflictingArtisans returns the artisans of selected that already have an
// entry in the chapter, in selection order.
func ConflictingArtisans(ch Chapter, selected []Artisan) []Artisan {
	var conflicts []Artisan
	for _, a := range selected {
		if _, ok := ch.ContentFor(a.ID); ok {
			conflicts = append(conflicts, a)
		}
	}
	return conflicts
}
