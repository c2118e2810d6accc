package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fabricaapp/fabrica-server/internal/api/dto"
	"github.com/fabricaapp/fabrica-server/internal/domain"
)

func (s *Server) registerArtisanRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listArtisans",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/artisans",
		Summary:     "List artisans",
		Tags:        []string{"Artisans"},
	}, s.handleListArtisans)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createArtisan",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/artisans",
		Summary:       "Create artisan",
		Tags:          []string{"Artisans"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateArtisan)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateArtisan",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/artisans/{id}",
		Summary:     "Update artisan",
		Description: "Replaces name and prompt. Content generated earlier keeps the old name.",
		Tags:        []string{"Artisans"},
	}, s.handleUpdateArtisan)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteArtisan",
		Method:        http.MethodDelete,
		Path:          apiPrefix + "/artisans/{id}",
		Summary:       "Delete artisan",
		Description:   "Removes an artisan. Content it generated stays in the chapters.",
		Tags:          []string{"Artisans"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteArtisan)
}

// ArtisanRequest is the request body for creating or updating an artisan.
type ArtisanRequest struct {
	Name   string `json:"name,omitempty" doc:"Display name"`
	Prompt string `json:"prompt,omitempty" doc:"Instruction sent before the base text"`
}

// CreateArtisanInput wraps the create artisan request for huma.
type CreateArtisanInput struct {
	Body ArtisanRequest
}

// UpdateArtisanInput wraps the update artisan request for huma.
type UpdateArtisanInput struct {
	ID   string `path:"id" doc:"Artisan ID"`
	Body ArtisanRequest
}

// ArtisanPathInput identifies an artisan.
type ArtisanPathInput struct {
	ID string `path:"id" doc:"Artisan ID"`
}

// ListArtisansOutput wraps the artisan list for huma.
type ListArtisansOutput struct {
	Body []dto.Artisan
}

// ArtisanOutput wraps an artisan response for huma.
type ArtisanOutput struct {
	Body dto.Artisan
}

func (s *Server) handleListArtisans(ctx context.Context, _ *struct{}) (*ListArtisansOutput, error) {
	artisans, err := s.services.Artisan.ListArtisans(ctx)
	if err != nil {
		return nil, err
	}
	return &ListArtisansOutput{Body: dto.NewArtisans(artisans)}, nil
}

func (s *Server) handleCreateArtisan(ctx context.Context, input *CreateArtisanInput) (*ArtisanOutput, error) {
	artisan, err := s.services.Artisan.CreateArtisan(ctx, input.Body.Name, input.Body.Prompt)
	if err != nil {
		return nil, err
	}
	return &ArtisanOutput{Body: dto.NewArtisan(artisan)}, nil
}

func (s *Server) handleUpdateArtisan(ctx context.Context, input *UpdateArtisanInput) (*ArtisanOutput, error) {
	artisan, err := s.services.Artisan.UpdateArtisan(ctx, domain.NewID(input.ID), input.Body.Name, input.Body.Prompt)
	if err != nil {
		return nil, err
	}
	return &ArtisanOutput{Body: dto.NewArtisan(artisan)}, nil
}

func (s *Server) handleDeleteArtisan(ctx context.Context, input *ArtisanPathInput) (*struct{}, error) {
	if err := s.services.Artisan.DeleteArtisan(ctx, domain.NewID(input.ID)); err != nil {
		return nil, err
	}
	return nil, nil
}
