package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func openTemp(t *testing.T, backups int) (*DataStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	ds, err := NewWithConfig(&Config{FilePath: path, BackupCount: backups})
	require.NoError(t, err)
	return ds, path
}

func TestPutGetDelete(t *testing.T) {
	ds, _ := openTemp(t, 0)
	defer ds.Close()

	require.NoError(t, ds.Put("b", record{Name: "beta", Count: 2}))
	require.NoError(t, ds.Put("a", record{Name: "alpha", Count: 1}))

	var got record
	ok, err := ds.Get("a", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record{Name: "alpha", Count: 1}, got)

	assert.Equal(t, []string{"a", "b"}, ds.Keys())

	ds.Delete("a")
	ok, err = ds.Get("a", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClosePersistsAndReopens(t *testing.T) {
	ds, path := openTemp(t, 0)
	require.NoError(t, ds.Put("guild", record{Name: "g", Count: 7}))
	require.NoError(t, ds.Close())
	require.NoError(t, ds.Close())

	assert.ErrorIs(t, ds.Put("late", 1), ErrClosed)

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	var got record
	ok, err := reopened.Get("guild", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, got.Count)
}

func TestSaveRotatesBackups(t *testing.T) {
	ds, path := openTemp(t, 2)
	defer ds.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, ds.Put("k", i))
		require.NoError(t, ds.Save())
	}

	backups, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, backups, 2)
}

func TestRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path)
	assert.Error(t, err)
}

func TestNewWithConfigValidation(t *testing.T) {
	_, err := NewWithConfig(nil)
	assert.Error(t, err)
	_, err = NewWithConfig(&Config{})
	assert.Error(t, err)
}
