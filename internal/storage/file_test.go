package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futurehomeno/edge-psa-setup/internal/storage"
)

type document struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestFile_SaveAndLoad(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested")
	f := storage.NewFile(dir, "doc.json")

	assert.False(t, f.Exists())
	require.NoError(t, f.Save(document{Name: "first", Count: 1}))
	require.NoError(t, f.Save(document{Name: "second", Count: 2}))
	assert.True(t, f.Exists())

	var got document

	require.NoError(t, f.Load(&got))
	assert.Equal(t, document{Name: "second", Count: 2}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFile_LoadErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var got document

	err := storage.NewFile(dir, "missing.json").Load(&got)
	assert.ErrorContains(t, err, "failed to read")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o600))

	err = storage.NewFile(dir, "broken.json").Load(&got)
	assert.ErrorContains(t, err, "failed to decode")
}

func TestFile_SaveUnencodable(t *testing.T) {
	t.Parallel()

	f := storage.NewFile(t.TempDir(), "doc.json")

	err := f.Save(map[string]interface{}{"ch": make(chan int)})
	assert.ErrorContains(t, err, "failed to encode document")
	assert.False(t, f.Exists())
}
