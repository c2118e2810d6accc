package service

import (
	"context"
	"log/slog"

	"github.com/fabricaapp/fabrica-server/internal/search"
)

// SearchService answers full-text queries over the stored content.
type SearchService struct {
	index  *search.Index
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.Index, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		logger: logger,
	}
}

// Search runs a query. An empty query lists content matching the filters.
func (s *SearchService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search executed",
		"query", params.Query,
		"artisan_id", params.ArtisanID,
		"book_id", params.BookID,
		"total", result.Total,
		"took_ms", result.TookMs,
	)
	return result, nil
}

// DocumentCount returns the number of indexed content entries.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}
