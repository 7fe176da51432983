package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tables.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := createTestStore(t)

	hash := HashSource([]byte("0041 a\n"))
	artifact := []byte(`{"version": 1}`)

	require.NoError(t, s.Put(hash, "chars.txt", artifact))

	got, err := s.Get(hash)
	require.NoError(t, err)
	assert.Equal(t, artifact, got)
}

func TestGetMissing(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(HashSource([]byte("never stored")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutReplaces(t *testing.T) {
	s := createTestStore(t)

	hash := HashSource([]byte("0041 a\n"))
	require.NoError(t, s.Put(hash, "chars.txt", []byte("old")))
	require.NoError(t, s.Put(hash, "chars.txt", []byte("new")))

	got, err := s.Get(hash)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPrune(t *testing.T) {
	s := createTestStore(t)

	keep := HashSource([]byte("current"))
	require.NoError(t, s.Put(keep, "chars.txt", []byte("keep")))
	require.NoError(t, s.Put(HashSource([]byte("old 1")), "chars.txt", []byte("a")))
	require.NoError(t, s.Put(HashSource([]byte("old 2")), "chars.txt", []byte("b")))

	pruned, err := s.Prune(keep)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	got, err := s.Get(keep)
	require.NoError(t, err)
	assert.Equal(t, []byte("keep"), got)
}

func TestHashString(t *testing.T) {
	hash := HashSource([]byte("0041 a\n"))
	assert.Len(t, HashString(hash), 64)
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tables.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
