package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fabricaapp/fabrica-server/internal/api/dto"
	"github.com/fabricaapp/fabrica-server/internal/domain"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCollections",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/collections",
		Summary:     "List collections",
		Tags:        []string{"Collections"},
	}, s.handleListCollections)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCollection",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/collections",
		Summary:       "Create collection",
		Tags:          []string{"Collections"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "renameCollection",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/collections/{id}",
		Summary:     "Rename collection",
		Tags:        []string{"Collections"},
	}, s.handleRenameCollection)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteCollection",
		Method:        http.MethodDelete,
		Path:          apiPrefix + "/collections/{id}",
		Summary:       "Delete collection",
		Description:   "Deletes a collection. Its books stay in the library, ungrouped.",
		Tags:          []string{"Collections"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteCollection)
}

// CollectionRequest is the request body for creating or renaming a collection.
type CollectionRequest struct {
	Name string `json:"name,omitempty" doc:"Display name"`
}

// CreateCollectionInput wraps the create collection request for huma.
type CreateCollectionInput struct {
	Body CollectionRequest
}

// RenameCollectionInput wraps the rename collection request for huma.
type RenameCollectionInput struct {
	ID   string `path:"id" doc:"Collection ID"`
	Body CollectionRequest
}

// CollectionPathInput identifies a collection.
type CollectionPathInput struct {
	ID string `path:"id" doc:"Collection ID"`
}

// ListCollectionsOutput wraps the collection list for huma.
type ListCollectionsOutput struct {
	Body []dto.Collection
}

// CollectionOutput wraps a collection response for huma.
type CollectionOutput struct {
	Body dto.Collection
}

func (s *Server) handleListCollections(ctx context.Context, _ *struct{}) (*ListCollectionsOutput, error) {
	collections, err := s.services.Collection.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	return &ListCollectionsOutput{Body: dto.NewCollections(collections)}, nil
}

func (s *Server) handleCreateCollection(ctx context.Context, input *CreateCollectionInput) (*CollectionOutput, error) {
	collection, err := s.services.Collection.CreateCollection(ctx, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &CollectionOutput{Body: dto.NewCollection(collection)}, nil
}

func (s *Server) handleRenameCollection(ctx context.Context, input *RenameCollectionInput) (*CollectionOutput, error) {
	collection, err := s.services.Collection.RenameCollection(ctx, domain.NewID(input.ID), input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &CollectionOutput{Body: dto.NewCollection(collection)}, nil
}

func (s *Server) handleDeleteCollection(ctx context.Context, input *CollectionPathInput) (*struct{}, error) {
	if err := s.services.Collection.DeleteCollection(ctx, domain.NewID(input.ID)); err != nil {
		return nil, err
	}
	return nil, nil
}
