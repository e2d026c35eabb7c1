/*
 * @module service/storage/file_store_test
 * @description Unit tests for the reference image file store
 * @architecture test layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow temp dir setup -> save/open/remove -> assertions
 * @rules tests run fully inside t.TempDir
 * @dependencies testing, stretchr/testify
 */

package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndOpen(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	content := []byte("fake png bytes")
	path, hash, err := store.Save("question-1", "reference.PNG", bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, ".png", filepath.Ext(path))

	sum := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), hash)

	f, err := store.Open(path)
	require.NoError(t, err)
	defer f.Close()

	read, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, content, read)
}

func TestSaveWithoutExtension(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	path, _, err := store.Save("question-2", "upload", bytes.NewReader([]byte("data")))
	require.NoError(t, err)
	assert.Equal(t, ".img", filepath.Ext(path))
}

func TestSaveRefusesOverwrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Save("question-3", "a.png", bytes.NewReader([]byte("first")))
	require.NoError(t, err)

	_, _, err = store.Save("question-3", "b.png", bytes.NewReader([]byte("second")))
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	path, _, err := store.Save("question-4", "a.png", bytes.NewReader([]byte("data")))
	require.NoError(t, err)

	require.NoError(t, store.Remove(path))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// Removing again is not an error.
	assert.NoError(t, store.Remove(path))
}

func TestNewFileStoreCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "images")
	store, err := NewFileStore(root)
	require.NoError(t, err)
	assert.Equal(t, root, store.Root())

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
