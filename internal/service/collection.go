package service

import (
	"context"
	"log/slog"

	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/store"
)

// CollectionService manages collections and the books' membership in them.
type CollectionService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCollectionService creates a new collection service.
func NewCollectionService(store *store.Store, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		store:  store,
		logger: logger,
	}
}

// ListCollections returns every collection.
func (s *CollectionService) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	collections, err := s.store.Collections.All(ctx)
	if err != nil {
		return nil, storeErr(err, "No se pudieron leer las colecciones.")
	}
	return collections, nil
}

// CreateCollection adds a collection.
func (s *CollectionService) CreateCollection(ctx context.Context, name string) (*domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collection, err := domain.NewCollection(name)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Collections.Mutate(ctx, func(collections []domain.Collection) ([]domain.Collection, error) {
		return append(collections, collection), nil
	}); err != nil {
		return nil, storeErr(err, "No se pudo guardar la colección.")
	}

	s.logger.Info("collection created",
		"collection_id", collection.ID.String(),
		"name", collection.Name,
	)
	return &collection, nil
}

// RenameCollection changes a collection's name.
func (s *CollectionService) RenameCollection(ctx context.Context, collectionID domain.ID, name string) (*domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collections, err := s.store.Collections.Mutate(ctx, func(collections []domain.Collection) ([]domain.Collection, error) {
		return domain.RenameCollection(collections, collectionID, name)
	})
	if err != nil {
		return nil, storeErr(err, "No se pudo guardar la colección.")
	}

	var renamed domain.Collection
	for _, c := range collections {
		if c.ID.Equal(collectionID) {
			renamed = c
		}
	}

	s.logger.Info("collection renamed",
		"collection_id", collectionID.String(),
		"new_name", renamed.Name,
	)
	return &renamed, nil
}

// DeleteCollection removes a collection and takes every book out of it.
// Books and collections are written in one store update.
func (s *CollectionService) DeleteCollection(ctx context.Context, collectionID domain.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlinked := 0
	if _, err := s.store.Update(ctx, func(lib *domain.Library) error {
		for _, b := range lib.Books {
			if b.CollectionID != nil && b.CollectionID.Equal(collectionID) {
				unlinked++
			}
		}
		books, collections, err := domain.DeleteCollection(lib.Books, lib.Collections, collectionID)
		if err != nil {
			return err
		}
		lib.Books = books
		lib.Collections = collections
		return nil
	}); err != nil {
		return storeErr(err, "No se pudo borrar la colección.")
	}

	s.logger.Info("collection deleted",
		"collection_id", collectionID.String(),
		"books_unlinked", unlinked,
	)
	return nil
}
