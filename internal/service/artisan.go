package service

import (
	"context"
	"log/slog"

	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/store"
)

// ArtisanService manages the artisans of the library.
type ArtisanService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewArtisanService creates a new artisan service.
func NewArtisanService(store *store.Store, logger *slog.Logger) *ArtisanService {
	return &ArtisanService{
		store:  store,
		logger: logger,
	}
}

// ListArtisans returns the artisans, seeded with the defaults when none
// were ever saved.
func (s *ArtisanService) ListArtisans(ctx context.Context) ([]domain.Artisan, error) {
	artisans, err := s.store.Artisans.All(ctx)
	if err != nil {
		return nil, storeErr(err, "No se pudieron leer los artesanos.")
	}
	return artisans, nil
}

// CreateArtisan adds an artisan.
func (s *ArtisanService) CreateArtisan(ctx context.Context, name, prompt string) (*domain.Artisan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	artisan, err := domain.NewArtisan(name, prompt)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Artisans.Mutate(ctx, func(artisans []domain.Artisan) ([]domain.Artisan, error) {
		return append(artisans, artisan), nil
	}); err != nil {
		return nil, storeErr(err, "No se pudo guardar el artesano.")
	}

	s.logger.Info("artisan created", "artisan_id", artisan.ID.String(), "name", artisan.Name)
	return &artisan, nil
}

// UpdateArtisan replaces an artisan's name and prompt. Content already
// generated keeps the name it was generated with.
func (s *ArtisanService) UpdateArtisan(ctx context.Context, artisanID domain.ID, name, prompt string) (*domain.Artisan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	artisans, err := s.store.Artisans.Mutate(ctx, func(artisans []domain.Artisan) ([]domain.Artisan, error) {
		return domain.UpdateArtisan(artisans, artisanID, name, prompt)
	})
	if err != nil {
		return nil, storeErr(err, "No se pudo guardar el artesano.")
	}

	artisan, _ := domain.FindArtisan(artisans, artisanID)
	s.logger.Info("artisan updated", "artisan_id", artisanID.String(), "name", artisan.Name)
	return &artisan, nil
}

// DeleteArtisan removes an artisan. Its generated content stays in the
// chapters.
func (s *ArtisanService) DeleteArtisan(ctx context.Context, artisanID domain.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.store.Artisans.Mutate(ctx, func(artisans []domain.Artisan) ([]domain.Artisan, error) {
		return domain.RemoveArtisan(artisans, artisanID)
	}); err != nil {
		return storeErr(err, "No se pudo borrar el artesano.")
	}

	s.logger.Info("artisan deleted", "artisan_id", artisanID.String())
	return nil
}
