package tokenstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anycomp/internal/database"
)

func newGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := database.Connect(fmt.Sprintf("file:tokenstore_%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	s, err := NewGormStore(db)
	require.NoError(t, err)
	return s
}

func TestStores_RoundTrip(t *testing.T) {
	ctx := context.Background()
	stores := map[string]Store{
		"memory": NewMemoryStore(""),
		"gorm":   newGormStore(t),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			tok, err := s.Get(ctx)
			require.NoError(t, err)
			assert.Empty(t, tok)

			require.NoError(t, s.Set(ctx, "tok1"))
			require.NoError(t, s.Set(ctx, "tok2"))

			tok, err = s.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, "tok2", tok)

			require.NoError(t, s.Clear(ctx))
			tok, err = s.Get(ctx)
			require.NoError(t, err)
			assert.Empty(t, tok)

			// clearing twice is fine
			assert.NoError(t, s.Clear(ctx))
		})
	}
}

func TestGormStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:tokenstore_reopen_%s?mode=memory&cache=shared", t.Name())

	db, err := database.Connect(dsn)
	require.NoError(t, err)
	first, err := NewGormStore(db)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "persisted"))

	second, err := NewGormStore(db)
	require.NoError(t, err)
	tok, err := second.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", tok)
}
