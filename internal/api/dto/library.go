package dto

import (
	"time"

	"github.com/fabricaapp/fabrica-server/internal/backup"
	"github.com/fabricaapp/fabrica-server/internal/domain"
)

// Artisan is a reusable transformation prompt.
type Artisan struct {
	ID     string `json:"id" doc:"Artisan ID"`
	Name   string `json:"name" doc:"Display name"`
	Prompt string `json:"prompt" doc:"Instruction sent before the base text"`
}

// ArtisanRef names an artisan without its prompt.
type ArtisanRef struct {
	ID   string `json:"id" doc:"Artisan ID"`
	Name string `json:"name" doc:"Display name"`
}

// Collection is a named group of books.
type Collection struct {
	ID   string `json:"id" doc:"Collection ID"`
	Name string `json:"name" doc:"Display name"`
}

// Settings are the user's preferences. The API key is never returned.
type Settings struct {
	HasAPIKey bool `json:"has_api_key" doc:"Whether a generation API key is stored"`
	DarkMode  bool `json:"dark_mode" doc:"Dark theme preference"`
}

// ImportSummary counts what an import or restore loaded.
type ImportSummary struct {
	Books       int `json:"books" doc:"Imported books"`
	Artisans    int `json:"artisans" doc:"Imported artisans"`
	Collections int `json:"collections" doc:"Imported collections"`
}

// Backup describes one stored library snapshot.
type Backup struct {
	Name      string    `json:"name" doc:"Backup file name"`
	Size      int64     `json:"size" doc:"Size in bytes"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// NewArtisan converts a domain artisan.
func NewArtisan(a *domain.Artisan) Artisan {
	return Artisan{ID: a.ID.String(), Name: a.Name, Prompt: a.Prompt}
}

// NewArtisans converts a list of artisans.
func NewArtisans(artisans []domain.Artisan) []Artisan {
	out := make([]Artisan, 0, len(artisans))
	for i := range artisans {
		out = append(out, NewArtisan(&artisans[i]))
	}
	return out
}

// NewArtisanRefs converts artisans to references.
func NewArtisanRefs(artisans []domain.Artisan) []ArtisanRef {
	out := make([]ArtisanRef, 0, len(artisans))
	for _, a := range artisans {
		out = append(out, ArtisanRef{ID: a.ID.String(), Name: a.Name})
	}
	return out
}

// NewCollection converts a domain collection.
func NewCollection(c *domain.Collection) Collection {
	return Collection{ID: c.ID.String(), Name: c.Name}
}

// NewCollections converts a list of collections.
func NewCollections(collections []domain.Collection) []Collection {
	out := make([]Collection, 0, len(collections))
	for i := range collections {
		out = append(out, NewCollection(&collections[i]))
	}
	return out
}

// NewSettings converts stored settings.
func NewSettings(s *domain.Settings) Settings {
	return Settings{HasAPIKey: s.APIKey != "", DarkMode: s.DarkMode}
}

// NewImportSummary counts the sections of a library.
func NewImportSummary(lib *domain.Library) ImportSummary {
	return ImportSummary{
		Books:       len(lib.Books),
		Artisans:    len(lib.Artisans),
		Collections: len(lib.Collections),
	}
}

// NewBackups converts backup listings.
func NewBackups(infos []backup.Info) []Backup {
	out := make([]Backup, 0, len(infos))
	for _, info := range infos {
		out = append(out, NewBackup(&info))
	}
	return out
}

// NewBackup converts one backup listing.
func NewBackup(info *backup.Info) Backup {
	return Backup{Name: info.Name, Size: info.Size, CreatedAt: info.CreatedAt}
}
