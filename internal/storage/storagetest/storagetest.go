// Package storagetest holds behaviour checks shared by every storage.UserStore backend.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/account-service/internal/storage"
)

// Factory returns a fresh, empty store. The store is closed by the suite.
type Factory func(t *testing.T) storage.UserStore

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	cases := []struct {
		name string
		fn   func(t *testing.T, s storage.UserStore)
	}{
		{"InsertAndFind", testInsertAndFind},
		{"DuplicateEmail", testDuplicateEmail},
		{"EmailIsCaseSensitive", testEmailCaseSensitive},
		{"MissingRecords", testMissingRecords},
		{"RejectsEmptyValues", testRejectsEmptyValues},
		{"UpdatePasswordHash", testUpdatePasswordHash},
		{"SetActiveIsOneWay", testSetActiveOneWay},
		{"ConcurrentInsertSameEmail", testConcurrentInsert},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tc.fn(t, s)
		})
	}
}

func testInsertAndFind(t *testing.T, s storage.UserStore) {
	ctx := context.Background()
	created, err := s.Insert(ctx, "a@x.com", "hash-1")
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Equal(t, "a@x.com", created.Email)
	assert.Equal(t, "hash-1", created.PasswordHash)
	assert.True(t, created.IsActive)

	byEmail, err := s.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)
	assert.True(t, byID.IsActive)

	second, err := s.Insert(ctx, "b@x.com", "hash-2")
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, second.ID)
}

func testDuplicateEmail(t *testing.T, s storage.UserStore) {
	ctx := context.Background()
	first, err := s.Insert(ctx, "dup@x.com", "hash-1")
	require.NoError(t, err)

	_, err = s.Insert(ctx, "dup@x.com", "hash-2")
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	found, err := s.FindByEmail(ctx, "dup@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, "hash-1", found.PasswordHash)
}

func testEmailCaseSensitive(t *testing.T, s storage.UserStore) {
	ctx := context.Background()
	_, err := s.Insert(ctx, "case@x.com", "hash")
	require.NoError(t, err)
	_, err = s.Insert(ctx, "CASE@x.com", "hash")
	require.NoError(t, err)

	_, err = s.FindByEmail(ctx, "Case@x.com")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testMissingRecords(t *testing.T, s storage.UserStore) {
	ctx := context.Background()
	_, err := s.FindByEmail(ctx, "ghost@x.com")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.FindByID(ctx, 4242)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, s.UpdatePasswordHash(ctx, 4242, "hash"), storage.ErrNotFound)
	require.ErrorIs(t, s.SetActive(ctx, 4242, false), storage.ErrNotFound)
}

func testRejectsEmptyValues(t *testing.T, s storage.UserStore) {
	ctx := context.Background()
	_, err := s.Insert(ctx, "", "hash")
	require.ErrorIs(t, err, storage.ErrInvalidRecord)
	_, err = s.Insert(ctx, "empty@x.com", "")
	require.ErrorIs(t, err, storage.ErrInvalidRecord)

	created, err := s.Insert(ctx, "empty@x.com", "hash")
	require.NoError(t, err)
	require.ErrorIs(t, s.UpdatePasswordHash(ctx, created.ID, ""), storage.ErrInvalidRecord)
}

func testUpdatePasswordHash(t *testing.T, s storage.UserStore) {
	ctx := context.Background()
	created, err := s.Insert(ctx, "pw@x.com", "old")
	require.NoError(t, err)

	require.NoError(t, s.UpdatePasswordHash(ctx, created.ID, "new"))

	found, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", found.PasswordHash)
}

func testSetActiveOneWay(t *testing.T, s storage.UserStore) {
	ctx := context.Background()
	created, err := s.Insert(ctx, "off@x.com", "hash")
	require.NoError(t, err)

	require.NoError(t, s.SetActive(ctx, created.ID, true))
	found, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, found.IsActive)

	require.NoError(t, s.SetActive(ctx, created.ID, false))
	require.NoError(t, s.SetActive(ctx, created.ID, false))
	found, err = s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	require.NoError(t, s.SetActive(ctx, created.ID, true))
	found, err = s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive, "disabled accounts must not be reactivated")
}

func testConcurrentInsert(t *testing.T, s storage.UserStore) {
	ctx := context.Background()
	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
		other     []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Insert(ctx, "race@x.com", fmt.Sprintf("hash-%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, storage.ErrAlreadyExists):
				conflicts++
			default:
				other = append(other, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
}
