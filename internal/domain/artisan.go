package domain

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fabricaapp/fabrica-server/internal/errors"
	"github.com/fabricaapp/fabrica-server/internal/id"
)

// Artisan is a reusable transformation prompt.
type Artisan struct {
	ID     ID     `json:"id"`
	Name   string `json:"nombre"`
	Prompt string `json:"prompt"`
}

// NewArtisan validates name and prompt and assigns a fresh id.
func NewArtisan(name, prompt string) (Artisan, error) {
	a := Artisan{Name: strings.TrimSpace(name), Prompt: strings.TrimSpace(prompt)}
	if err := a.Validate(); err != nil {
		return Artisan{}, err
	}

	artisanID, err := id.Generate(id.Artisan)
	if err != nil {
		return Artisan{}, errors.Wrap(err, errors.CodeInternal, "generate artisan id")
	}
	a.ID = NewID(artisanID)
	return a, nil
}

// Validate checks that name and prompt are not blank.
func (a Artisan) Validate() error {
	if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Prompt) == "" {
		return errors.Validation("El nombre y el prompt son obligatorios.")
	}
	return nil
}

// UpdateArtisan replaces name and prompt in place, keeping the id.
func UpdateArtisan(artisans []Artisan, artisanID ID, name, prompt string) ([]Artisan, error) {
	updated := Artisan{ID: artisanID, Name: strings.TrimSpace(name), Prompt: strings.TrimSpace(prompt)}
	if err := updated.Validate(); err != nil {
		return artisans, err
	}

	out := make([]Artisan, len(artisans))
	copy(out, artisans)
	for i := range out {
		if out[i].ID.Equal(artisanID) {
			out[i] = updated
			return out, nil
		}
	}
	return artisans, errors.NotFoundf("artisan %s not found", artisanID)
}

// RemoveArtisan drops an artisan. Content already generated with it stays in
// the chapters.
func RemoveArtisan(artisans []Artisan, artisanID ID) ([]Artisan, error) {
	out := make([]Artisan, 0, len(artisans))
	found := false
	for _, a := range artisans {
		if a.ID.Equal(artisanID) {
			found = true
			continue
		}
		out = append(out, a)
	}
	if !found {
		return artisans, errors.NotFoundf("artisan %s not found", artisanID)
	}
	return out, nil
}

// FindArtisan returns the artisan with the given id.
func FindArtisan(artisans []Artisan, artisanID ID) (Artisan, bool) {
	for _, a := range artisans {
		if a.ID.Equal(artisanID) {
			return a, true
		}
	}
	return Artisan{}, false
}

//go:embed default_artisans.yaml
var defaultArtisansYAML []byte

type artisanSeed struct {
	ID     int64  `yaml:"id"`
	Name   string `yaml:"name"`
	Prompt string `yaml:"prompt"`
}

// DefaultArtisans returns the artisans a new library starts with.
func DefaultArtisans() []Artisan {
	var seeds []artisanSeed
	if err := yaml.Unmarshal(defaultArtisansYAML, &seeds); err != nil {
		panic(fmt.Sprintf("default artisans: %v", err))
	}

	artisans := make([]Artisan, 0, len(seeds))
	for _, s := range seeds {
		artisans = append(artisans, Artisan{
			ID:     ID{value: strconv.FormatInt(s.ID, 10), numeric: true},
			Name:   s.Name,
			Prompt: s.Prompt,
		})
	}
	return artisans
}
