package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "photos/ab/one.jpg", strings.NewReader("first")))
	require.NoError(t, s.Save(ctx, "photos/ab/one.jpg", strings.NewReader("second")))

	rc, err := s.Open(ctx, "photos/ab/one.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	require.NoError(t, s.Delete(ctx, "photos/ab/one.jpg"))
	require.NoError(t, s.Delete(ctx, "photos/ab/one.jpg"), "deleting twice is fine")

	_, err = s.Open(ctx, "photos/ab/one.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "a/b.bin", strings.NewReader("x")))

	entries, err := os.ReadDir(filepath.Join(root, "a"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.bin", entries[0].Name())
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, p := range []string{"", "../secret", "a/../../b", "/etc/passwd"} {
		assert.ErrorIs(t, s.Save(ctx, p, strings.NewReader("x")), ErrInvalidPath, p)
		_, err := s.Open(ctx, p)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
		assert.ErrorIs(t, s.Delete(ctx, p), ErrInvalidPath, p)
	}
}
