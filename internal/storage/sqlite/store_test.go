package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hongminglow/account-service/internal/storage"
	"github.com/hongminglow/account-service/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.UserStore {
		s, err := NewUserStore(context.Background(), ":memory:")
		require.NoError(t, err)
		return s
	})
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.db")

	s, err := NewUserStore(ctx, path)
	require.NoError(t, err)
	created, err := s.Insert(ctx, "persist@x.com", "hash")
	require.NoError(t, err)
	require.NoError(t, s.SetActive(ctx, created.ID, false))
	require.NoError(t, s.Close())

	reopened, err := NewUserStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	found, err := reopened.FindByEmail(ctx, "persist@x.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
	require.False(t, found.IsActive)

	_, err = reopened.Insert(ctx, "persist@x.com", "other")
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}
