// Package testutil provides shared helpers for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mflores/dayplan/internal/model"
	"github.com/mflores/dayplan/internal/store"
)

// NewTestStore creates an in-memory SQLite store for testing.
// The store is automatically closed when the test finishes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// NewTestUser inserts a registry entry with a throwaway hash and returns it.
func NewTestUser(t *testing.T, s *store.SQLiteStore, username string) model.User {
	t.Helper()

	u := model.User{
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: time.Now().UTC(),
	}
	err := s.CreateUser(context.Background(), u, "test-hash")
	require.NoError(t, err)

	stored, _, err := s.GetUserByUsername(context.Background(), username)
	require.NoError(t, err)
	return stored
}
