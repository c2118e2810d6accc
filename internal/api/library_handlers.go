package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fabricaapp/fabrica-server/internal/api/dto"
	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/errors"
	"github.com/fabricaapp/fabrica-server/internal/search"
)

// MaxImportSize is the largest library document accepted by import.
const MaxImportSize = 64 << 20

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "exportLibrary",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/library/export",
		Summary:     "Export library",
		Description: "Downloads every book, artisan and collection as one JSON document",
		Tags:        []string{"Library"},
	}, s.handleExportLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID:      "importLibrary",
		Method:           http.MethodPost,
		Path:             apiPrefix + "/library/import",
		Summary:          "Import library",
		Description:      "Replaces the whole library with an exported document. An invalid document changes nothing.",
		Tags:             []string{"Library"},
		MaxBodyBytes:     MaxImportSize,
		// The document is checked by backup.Decode.
		SkipValidateBody: true,
	}, s.handleImportLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "viewLibraryBook",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/library/books/{id}",
		Summary:     "View book content",
		Description: "Lists a book's chapters narrowed to the entries of one artisan",
		Tags:        []string{"Library"},
	}, s.handleViewLibraryBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchLibrary",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/library/search",
		Summary:     "Search content",
		Description: "Full-text search over base texts and generated entries",
		Tags:        []string{"Library"},
	}, s.handleSearchLibrary)
}

// ImportLibraryInput carries the raw library document.
type ImportLibraryInput struct {
	RawBody []byte
}

// ImportOutput wraps an import summary for huma.
type ImportOutput struct {
	Body dto.ImportSummary
}

// ViewLibraryBookInput selects a book and an artisan filter.
type ViewLibraryBookInput struct {
	ID        string `path:"id" doc:"Book ID"`
	ArtisanID string `query:"artisan_id" doc:"Artisan ID, empty or \"todos\" for every entry"`
}

// FilteredBookOutput wraps the filtered view for huma.
type FilteredBookOutput struct {
	Body dto.FilteredBook
}

// SearchLibraryInput holds the search query parameters.
type SearchLibraryInput struct {
	Query     string `query:"q" doc:"Search query, empty lists everything matching the filters"`
	ArtisanID string `query:"artisan_id" doc:"Only entries of this artisan"`
	BookID    string `query:"book_id" doc:"Only entries of this book"`
	Limit     int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Maximum hits"`
	Offset    int    `query:"offset" default:"0" minimum:"0" doc:"Hits to skip"`
}

// SearchOutput wraps search results for huma.
type SearchOutput struct {
	Body *search.Result
}

func (s *Server) handleExportLibrary(ctx context.Context, _ *struct{}) (*huma.StreamResponse, error) {
	export, err := s.services.Library.ExportLibrary(ctx)
	if err != nil {
		return nil, err
	}

	return &huma.StreamResponse{
		Body: func(ctx huma.Context) {
			writeAttachment(ctx, "application/json", export.FileName, export.Data)
		},
	}, nil
}

func (s *Server) handleImportLibrary(ctx context.Context, input *ImportLibraryInput) (*ImportOutput, error) {
	lib, err := s.services.Library.ImportLibrary(ctx, input.RawBody)
	if err != nil {
		return nil, err
	}
	return &ImportOutput{Body: dto.NewImportSummary(lib)}, nil
}

func (s *Server) handleViewLibraryBook(ctx context.Context, input *ViewLibraryBookInput) (*FilteredBookOutput, error) {
	book, views, err := s.services.Book.FilterContent(ctx, domain.NewID(input.ID), input.ArtisanID)
	if err != nil {
		return nil, err
	}
	return &FilteredBookOutput{Body: dto.NewFilteredBook(book, input.ArtisanID, views)}, nil
}

func (s *Server) handleSearchLibrary(ctx context.Context, input *SearchLibraryInput) (*SearchOutput, error) {
	if s.services.Search == nil {
		return nil, errors.Conflict("search is not configured")
	}

	result, err := s.services.Search.Search(ctx, search.Params{
		Query:     input.Query,
		ArtisanID: input.ArtisanID,
		BookID:    input.BookID,
		Limit:     input.Limit,
		Offset:    input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: result}, nil
}
