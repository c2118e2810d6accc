// Package store persists the Fabrica library as whole-collection JSON
// snapshots under fixed keys.
package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fabricaapp/fabrica-server/internal/domain"
)

// Store keys. Each one holds the full JSON snapshot of its section.
const (
	KeyBooks       = "fabricaContenido_libros"
	KeyArtisans    = "fabricaContenido_artesanos"
	KeyCollections = "fabricaContenido_colecciones"
	KeyAPIKey      = "fabricaContenido_apiKey"
	KeyDarkMode    = "fabricaContenido_modoOscuro"
)

// Section names used in change events.
const (
	SectionBooks       = "libros"
	SectionArtisans    = "artesanos"
	SectionCollections = "colecciones"
	SectionSettings    = "ajustes"
)

// EventEmitter broadcasts store changes.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter discards events.
type NoopEmitter struct{}

// Emit implements EventEmitter.
func (NoopEmitter) Emit(any) {}

// NewNoopEmitter returns an emitter that discards events.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// SearchIndexer keeps a search index in step with the saved books.
type SearchIndexer interface {
	IndexBooks(ctx context.Context, books []domain.Book) error
}

// Store owns the library sections.
//
// Writes that read a section, change it and write it back run under one
// mutex, so two of them never interleave inside this process.
type Store struct {
	kv     KV
	logger *slog.Logger

	eventEmitter  EventEmitter
	searchIndexer SearchIndexer

	mu sync.Mutex

	Books       *List[domain.Book]
	Artisans    *List[domain.Artisan]
	Collections *List[domain.Collection]
}

// New creates a Store over kv. A nil logger discards logs, a nil emitter
// discards events.
func New(kv KV, logger *slog.Logger, emitter EventEmitter) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if emitter == nil {
		emitter = NoopEmitter{}
	}

	s := &Store{
		kv:           kv,
		logger:       logger,
		eventEmitter: emitter,
	}

	s.Books = newList(s, KeyBooks, SectionBooks, func() []domain.Book { return []domain.Book{} })
	s.Books.afterSave = s.reindexBooks
	s.Books.normalize = domain.NormalizeBooks
	s.Artisans = newList(s, KeyArtisans, SectionArtisans, domain.DefaultArtisans)
	s.Collections = newList(s, KeyCollections, SectionCollections, func() []domain.Collection { return []domain.Collection{} })

	return s
}

// Open opens a Badger-backed Store at path.
func Open(path string, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	kv, err := OpenBadger(path, logger)
	if err != nil {
		return nil, err
	}
	return New(kv, logger, emitter), nil
}

// Close closes the underlying KV.
func (s *Store) Close() error {
	s.logger.Info("Closing database connection")
	return s.kv.Close()
}

// KV returns the underlying key-value store.
func (s *Store) KV() KV {
	return s.kv
}

// SetSearchIndexer installs the indexer run after every books write. It is
// set after construction because the index is built from the store.
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	s.searchIndexer = indexer
}

func (s *Store) reindexBooks(ctx context.Context, books []domain.Book) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.IndexBooks(ctx, books); err != nil {
		s.logger.Warn("failed to update search index", "error", err)
	}
}
