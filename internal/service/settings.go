package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/store"
)

// SettingsService manages the user's preferences.
type SettingsService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store *store.Store, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		store:  store,
		logger: logger,
	}
}

// GetSettings returns the saved settings.
func (s *SettingsService) GetSettings(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return nil, storeErr(err, "No se pudieron leer los ajustes.")
	}
	return &settings, nil
}

// SettingsUpdate contains fields that can be updated. Nil fields are left
// as they are.
type SettingsUpdate struct {
	APIKey   *string
	DarkMode *bool
}

// UpdateSettings saves the given fields.
func (s *SettingsService) UpdateSettings(ctx context.Context, update *SettingsUpdate) (*domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if update.APIKey != nil {
		if err := s.store.SetAPIKey(ctx, strings.TrimSpace(*update.APIKey)); err != nil {
			return nil, storeErr(err, "No se pudo guardar la clave de API.")
		}
		s.logger.Info("api key updated", "set", strings.TrimSpace(*update.APIKey) != "")
	}
	if update.DarkMode != nil {
		if err := s.store.SetDarkMode(ctx, *update.DarkMode); err != nil {
			return nil, storeErr(err, "No se pudo guardar el modo oscuro.")
		}
		s.logger.Info("dark mode updated", "enabled", *update.DarkMode)
	}

	return s.GetSettings(ctx)
}
