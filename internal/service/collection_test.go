package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabricaapp/fabrica-server/internal/errors"
)

func TestCollectionService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.collections.CreateCollection(ctx, " ")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	coll, err := env.collections.CreateCollection(ctx, "Serie")
	require.NoError(t, err)

	renamed, err := env.collections.RenameCollection(ctx, coll.ID, "Saga")
	require.NoError(t, err)
	assert.Equal(t, "Saga", renamed.Name)

	list, err := env.collections.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Saga", list[0].Name)
}

func TestCollectionService_DeleteUnlinksBooks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	coll, err := env.collections.CreateCollection(ctx, "Serie")
	require.NoError(t, err)
	other, err := env.collections.CreateCollection(ctx, "Otra")
	require.NoError(t, err)

	b1 := env.seedBook(t, "B1", "a")
	b2 := env.seedBook(t, "B2", "a")
	b3 := env.seedBook(t, "B3", "a")
	_, err = env.books.AssignCollection(ctx, b1.ID, &coll.ID)
	require.NoError(t, err)
	_, err = env.books.AssignCollection(ctx, b2.ID, &coll.ID)
	require.NoError(t, err)
	_, err = env.books.AssignCollection(ctx, b3.ID, &other.ID)
	require.NoError(t, err)

	require.NoError(t, env.collections.DeleteCollection(ctx, coll.ID))

	books, err := env.books.ListBooks(ctx)
	require.NoError(t, err)
	assert.Nil(t, books[0].CollectionID)
	assert.Nil(t, books[1].CollectionID)
	require.NotNil(t, books[2].CollectionID)
	assert.True(t, books[2].CollectionID.Equal(other.ID))

	list, err := env.collections.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].ID.Equal(other.ID))

	err = env.collections.DeleteCollection(ctx, coll.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
