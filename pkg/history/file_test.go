package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFileLoadsEmptyState(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "history.yaml"))

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Cumulative)
	assert.Empty(t, state.LastWeekly)
	assert.NotNil(t, state.Cumulative)
	assert.NotNil(t, state.LastWeekly)
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "history.yaml"))
	ctx := context.Background()

	saved := State{
		Cumulative: map[string]int{"alice": 47, "bob": 12},
		LastWeekly: map[string]string{"upgrade": "alice", "tier3-morning": "bob"},
	}
	require.NoError(t, store.Save(ctx, saved))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.Cumulative, loaded.Cumulative)
	assert.Equal(t, saved.LastWeekly, loaded.LastWeekly)
}

func TestFileStore_SaveReplacesPreviousState(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "history.yaml"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, State{Cumulative: map[string]int{"alice": 1}}))
	require.NoError(t, store.Save(ctx, State{Cumulative: map[string]int{"bob": 2}}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"bob": 2}, loaded.Cumulative)
}

func TestFileStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cumulative: [not, a, map]"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse history file")
}
