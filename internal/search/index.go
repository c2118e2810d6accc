package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/fabricaapp/fabrica-server/internal/domain"
)

// Index wraps a Bleve index of chapter content.
//
// All methods are safe for concurrent use.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	indexed map[string]struct{} // document ids currently in the index
}

// Options configures the search index.
type Options struct {
	DataPath string       // directory holding the index; empty keeps it in memory
	Logger   *slog.Logger // discards when nil
}

// mappingVersion changes whenever the index mapping does. A stored index
// with another version is dropped and rebuilt.
const mappingVersion = "1"

// batchSize bounds the documents written per Bleve batch.
const batchSize = 500

// NewIndex opens the index under opts.DataPath, creating it when missing,
// corrupt or built with an older mapping.
func NewIndex(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &Index{index: index, logger: logger, indexed: map[string]struct{}{}}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	if _, err := os.Stat(indexPath); err == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil || string(existing) != mappingVersion:
			logger.Info("search index mapping changed, rebuilding",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
		default:
			index, err = bleve.Open(indexPath)
			if err != nil {
				logger.Warn("failed to open search index, recreating", "path", indexPath, "error", err)
				index = nil
			}
		}
	}

	if index == nil {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created search index", "path", indexPath, "mapping_version", mappingVersion)
	}

	s := &Index{index: index, path: indexPath, logger: logger}
	ids, err := s.storedIDs()
	if err != nil {
		_ = index.Close()
		return nil, err
	}
	s.indexed = ids
	return s, nil
}

// storedIDs lists the ids of every document already in the index.
func (s *Index) storedIDs() (map[string]struct{}, error) {
	count, err := s.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	ids := make(map[string]struct{}, count)
	if count == 0 {
		return ids, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	for _, hit := range res.Hits {
		ids[hit.ID] = struct{}{}
	}
	return ids, nil
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// DocumentCount returns the number of indexed content entries.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// IndexBooks makes the index mirror books: every content entry is indexed
// and documents of entries no longer present are deleted.
func (s *Index) IndexBooks(ctx context.Context, books []domain.Book) error {
	docs := DocumentsFor(books)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		next[d.ID] = struct{}{}
	}

	batch := s.index.NewBatch()
	for id := range s.indexed {
		if _, keep := next[id]; !keep {
			batch.Delete(id)
		}
	}

	for i, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(d.ID, d.ToMap()); err != nil {
			return fmt.Errorf("batch index %s: %w", d.ID, err)
		}
		if (i+1)%batchSize == 0 {
			if err := s.index.Batch(batch); err != nil {
				return fmt.Errorf("commit batch: %w", err)
			}
			batch = s.index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
	}

	s.indexed = next
	s.logger.Debug("search index updated", "documents", len(docs))
	return nil
}
