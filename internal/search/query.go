package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/fabricaapp/fabrica-server/internal/domain"
)

// DefaultLimit caps the hits returned when Params.Limit is not set.
const DefaultLimit = 20

// Params configures a search.
type Params struct {
	Query     string
	ArtisanID string // empty or domain.AllArtisans matches every artisan
	BookID    string
	Limit     int
	Offset    int
}

// Result is one page of hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is one matching content entry.
type Hit struct {
	BookID       string  `json:"book_id"`
	ChapterID    string  `json:"chapter_id"`
	ArtisanID    string  `json:"artisan_id"`
	ArtisanName  string  `json:"artisan_name"`
	BookTitle    string  `json:"book_title"`
	ChapterTitle string  `json:"chapter_title"`
	Score        float64 `json:"score"`
	Snippet      string  `json:"snippet,omitempty"`
}

// Search runs a ranked query over the indexed content.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	req.Fields = []string{"book_id", "chapter_id", "artisan_id", "artisan_name", "book_title", "chapter_title"}
	if strings.TrimSpace(params.Query) != "" {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("text")
	}

	s.mu.RLock()
	res, err := s.index.SearchInContext(ctx, req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{
			BookID:       field(h.Fields, "book_id"),
			ChapterID:    field(h.Fields, "chapter_id"),
			ArtisanID:    field(h.Fields, "artisan_id"),
			ArtisanName:  field(h.Fields, "artisan_name"),
			BookTitle:    field(h.Fields, "book_title"),
			ChapterTitle: field(h.Fields, "chapter_title"),
			Score:        h.Score,
		}
		if frags := h.Fragments["text"]; len(frags) > 0 {
			hit.Snippet = frags[0]
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

func field(fields map[string]any, name string) string {
	v, _ := fields[name].(string)
	return v
}

// buildQuery matches the text first, then titles and artisan names, and
// narrows by the artisan and book filters.
func buildQuery(params Params) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		textMatch := bleve.NewMatchQuery(q)
		textMatch.SetField("text")
		textMatch.SetBoost(3.0)

		chapterMatch := bleve.NewMatchQuery(q)
		chapterMatch.SetField("chapter_title")
		chapterMatch.SetBoost(1.5)

		bookMatch := bleve.NewMatchQuery(q)
		bookMatch.SetField("book_title")

		artisanMatch := bleve.NewMatchQuery(q)
		artisanMatch.SetField("artisan_name")
		artisanMatch.SetBoost(0.5)

		textQueries := []query.Query{textMatch, chapterMatch, bookMatch, artisanMatch}

		// Typo tolerance for single words.
		if !strings.ContainsAny(q, " \t") {
			fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
			fuzzy.SetFuzziness(1)
			fuzzy.SetField("text")
			fuzzy.SetBoost(0.8)
			textQueries = append(textQueries, fuzzy)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.ArtisanID != "" && params.ArtisanID != domain.AllArtisans {
		tq := bleve.NewTermQuery(params.ArtisanID)
		tq.SetField("artisan_id")
		queries = append(queries, tq)
	}
	if params.BookID != "" {
		tq := bleve.NewTermQuery(params.BookID)
		tq.SetField("book_id")
		queries = append(queries, tq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
