package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestLoadMissingFile(t *testing.T) {
	ds, err := New(DefaultConfig(filepath.Join(t.TempDir(), "state.json")))
	require.NoError(t, err)
	assert.ErrorIs(t, ds.Load(), ErrNotExist)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	ds, err := New(DefaultConfig(path))
	require.NoError(t, err)

	require.NoError(t, ds.Put("a", sample{Name: "x", Count: 2}))
	require.NoError(t, ds.Save())

	other, err := New(DefaultConfig(path))
	require.NoError(t, err)
	require.NoError(t, other.Load())

	var got sample
	ok, err := other.Get("a", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sample{Name: "x", Count: 2}, got)
	assert.Equal(t, []string{"a"}, other.Keys())

	ok, err = other.Get("missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	ds, err := New(DefaultConfig(path))
	require.NoError(t, err)
	err = ds.Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotExist)
}

func TestBackupsAreBounded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	cfg := DefaultConfig(path)
	cfg.BackupCount = 2
	ds, err := New(cfg)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, ds.Put("n", i))
		require.NoError(t, ds.Save())
	}

	backups, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, backups, 2)
}

func TestSaveSkipsUnchangedData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	cfg := DefaultConfig(path)
	cfg.BackupCount = 5
	ds, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, ds.Put("n", 1))
	require.NoError(t, ds.Save())
	require.NoError(t, ds.Save())

	backups, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
