package repository

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// flock operates on real paths, so the store is tested against the OS
// filesystem rooted in a temp directory.
func newTestStore(t *testing.T) SessionStore {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "sessions")
	return NewJSONSessionStore(afero.NewOsFs(), dir)
}

func TestJSONSessionStore_SaveAndLoad(t *testing.T) {
	t.Run("Should round-trip a session", func(t *testing.T) {
		store := newTestStore(t)
		ctx := context.Background()
		session := domain.NewSession("install the payments SDK")
		session.AddCommand(domain.CommandRecord{Command: "pip install payments-sdk", ExitCode: 0})
		session.AddCommand(domain.CommandRecord{Command: "payments init", ExitCode: 1, Stderr: "missing config"})
		require.NoError(t, store.Save(ctx, session))

		loaded, err := store.Load(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.ID, loaded.ID)
		assert.Equal(t, session.Goal, loaded.Goal)
		require.Len(t, loaded.Commands, 2)
		assert.Equal(t, 1, loaded.Commands[0].Seq)
		assert.Equal(t, 2, loaded.Commands[1].Seq)
		assert.Equal(t, 1, loaded.ErrorCount)
	})
	t.Run("Should return ErrSessionNotFound for missing session", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.Load(context.Background(), "no-such-id")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
	t.Run("Should not leave lock files behind for unknown sessions", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "sessions")
		fs := afero.NewOsFs()
		store := NewJSONSessionStore(fs, dir)
		ctx := context.Background()

		_, err := store.Load(ctx, "no-such-id")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		require.NoError(t, store.Delete(ctx, "no-such-id"))

		// The history directory was never created, so neither load nor
		// delete may have materialized a lock file.
		exists, err := afero.DirExists(fs, dir)
		require.NoError(t, err)
		assert.False(t, exists)

		// Same holds once the directory exists with other sessions.
		session := domain.NewSession("goal")
		require.NoError(t, store.Save(ctx, session))
		_, err = store.Load(ctx, "still-missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		lockExists, err := afero.Exists(fs, filepath.Join(dir, ".session-still-missing.lock"))
		require.NoError(t, err)
		assert.False(t, lockExists)
	})
}

func TestJSONSessionStore_LoadLatest(t *testing.T) {
	t.Run("Should load most recently saved session", func(t *testing.T) {
		store := newTestStore(t)
		ctx := context.Background()
		first := domain.NewSession("first goal")
		second := domain.NewSession("second goal")
		require.NoError(t, store.Save(ctx, first))
		require.NoError(t, store.Save(ctx, second))

		latest, err := store.LoadLatest(ctx)
		require.NoError(t, err)
		assert.Equal(t, second.ID, latest.ID)
	})
	t.Run("Should report not found when nothing saved", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.LoadLatest(context.Background())
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestJSONSessionStore_List(t *testing.T) {
	t.Run("Should list sessions newest first", func(t *testing.T) {
		store := newTestStore(t)
		ctx := context.Background()
		for _, goal := range []string{"a", "b", "c"} {
			session := domain.NewSession(goal)
			require.NoError(t, store.Save(ctx, session))
		}
		sessions, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, sessions, 3)
		for i := 1; i < len(sessions); i++ {
			assert.False(t, sessions[i].StartedAt.After(sessions[i-1].StartedAt))
		}
	})
	t.Run("Should return empty list for missing directory", func(t *testing.T) {
		store := newTestStore(t)
		sessions, err := store.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})
}

func TestJSONSessionStore_Delete(t *testing.T) {
	t.Run("Should delete saved session", func(t *testing.T) {
		store := newTestStore(t)
		ctx := context.Background()
		session := domain.NewSession("goal")
		require.NoError(t, store.Save(ctx, session))
		require.NoError(t, store.Delete(ctx, session.ID))
		exists, err := store.Exists(ctx, session.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})
	t.Run("Should tolerate deleting a missing session", func(t *testing.T) {
		store := newTestStore(t)
		assert.NoError(t, store.Delete(context.Background(), "no-such-id"))
	})
}

func TestJSONSessionStore_ChecksumValidation(t *testing.T) {
	t.Run("Should reject tampered session file", func(t *testing.T) {
		fs := afero.NewOsFs()
		dir := filepath.Join(t.TempDir(), "sessions")
		store := NewJSONSessionStore(fs, dir)
		ctx := context.Background()
		session := domain.NewSession("original goal")
		require.NoError(t, store.Save(ctx, session))

		filename := filepath.Join(dir, "session-"+session.ID+".json")
		data, err := afero.ReadFile(fs, filename)
		require.NoError(t, err)
		tampered := strings.Replace(string(data), "original goal", "tampered goal", 1)
		require.NoError(t, afero.WriteFile(fs, filename, []byte(tampered), 0600))

		_, err = store.Load(ctx, session.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "checksum")
	})
}
