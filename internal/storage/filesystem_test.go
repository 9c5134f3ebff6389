package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreWriteAndRead(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	key, err := store.Write(context.Background(), "batches/b1/sketch-01.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "batches/b1/sketch-01.png", key)

	data, err := store.Read(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Write(context.Background(), "../outside.png", []byte("x"))
	assert.Error(t, err)

	_, err = store.Write(context.Background(), "", []byte("x"))
	assert.Error(t, err)
}

func TestFileStoreNormalizesKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	key, err := store.Write(context.Background(), "/batches//b1/./img.png", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "batches/b1/img.png", key)
}
