package internal

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreLayout(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(filepath.Join(root, "docs"))
	require.NoError(t, err)

	require.NoError(t, store.CreateDocument("alice", "doc1", 2))

	// one file per section, 1-based suffix, under <root>/<creator>/<name>/
	for _, name := range []string{"doc1_1", "doc1_2"} {
		_, err := os.Stat(filepath.Join(root, "docs", "alice", "doc1", name))
		assert.NoError(t, err)
	}
}

func TestFileStoreReadWrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.CreateDocument("alice", "doc1", 1))

	content, err := store.Read("alice", "doc1", 0)
	require.NoError(t, err)
	assert.Equal(t, "", content, "sections start empty")

	require.NoError(t, store.Write("alice", "doc1", 0, "hello"))
	content, err = store.Read("alice", "doc1", 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestFileStoreCreateDoesNotTruncate(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.CreateDocument("alice", "doc1", 2))
	require.NoError(t, store.Write("alice", "doc1", 0, "draft"))

	// a second creation must fail without touching existing sections
	err = store.CreateDocument("alice", "doc1", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrExist)

	content, err := store.Read("alice", "doc1", 0)
	require.NoError(t, err)
	assert.Equal(t, "draft", content)
}

func TestFileStoreReadMissingSection(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Read("alice", "ghost", 0)
	assert.Error(t, err)
}

func TestFileStoreRemoveAll(t *testing.T) {
	root := filepath.Join(t.TempDir(), "docs")
	store, err := NewFileStore(root)
	require.NoError(t, err)
	require.NoError(t, store.CreateDocument("alice", "doc1", 1))

	require.NoError(t, store.RemoveAll())
	_, err = os.Stat(root)
	assert.True(t, os.IsNotExist(err))
}
