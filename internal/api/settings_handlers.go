package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fabricaapp/fabrica-server/internal/api/dto"
	"github.com/fabricaapp/fabrica-server/internal/service"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSettings",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/settings",
		Summary:     "Get settings",
		Description: "Returns the user's preferences. The API key itself is never returned.",
		Tags:        []string{"Settings"},
	}, s.handleGetSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSettings",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/settings",
		Summary:     "Update settings",
		Description: "Saves the fields present in the request. An empty api_key clears the stored key.",
		Tags:        []string{"Settings"},
	}, s.handleUpdateSettings)
}

// SettingsOutput wraps the settings response for huma.
type SettingsOutput struct {
	Body dto.Settings
}

// UpdateSettingsRequest is the request body for updating settings.
type UpdateSettingsRequest struct {
	APIKey   *string `json:"api_key,omitempty" doc:"Generation API key, write-only" validate:"omitempty,max=512"`
	DarkMode *bool   `json:"dark_mode,omitempty" doc:"Dark theme preference"`
}

// UpdateSettingsInput wraps the update settings request for huma.
type UpdateSettingsInput struct {
	Body UpdateSettingsRequest
}

func (s *Server) handleGetSettings(ctx context.Context, _ *struct{}) (*SettingsOutput, error) {
	settings, err := s.services.Settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: dto.NewSettings(settings)}, nil
}

func (s *Server) handleUpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*SettingsOutput, error) {
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}

	settings, err := s.services.Settings.UpdateSettings(ctx, &service.SettingsUpdate{
		APIKey:   input.Body.APIKey,
		DarkMode: input.Body.DarkMode,
	})
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: dto.NewSettings(settings)}, nil
}
