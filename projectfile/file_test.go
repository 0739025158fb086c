package projectfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveFile(t *testing.T) {
	t.Run("writes and reloads", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "scan.pointgram")
		p := buildTestProject(t)

		require.NoError(t, SaveFile(path, p))
		back, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, p.Revision(), back.Revision())
		assert.Len(t, back.Images(), 2)
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "scan.pointgram")
		require.NoError(t, SaveFile(path, buildTestProject(t)))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "scan.pointgram", entries[0].Name())
	})

	t.Run("failure preserves the previous file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "scan.pointgram")
		require.NoError(t, SaveFile(path, buildTestProject(t)))
		before, err := os.ReadFile(path)
		require.NoError(t, err)

		// a directory at the target path makes the final rename fail
		blocked := filepath.Join(dir, "blocked")
		require.NoError(t, os.Mkdir(blocked, 0755))
		err = SaveFile(blocked, buildTestProject(t))
		require.Error(t, err)

		after, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, before, after)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2, "no temp file left after failed save")
	})

	t.Run("missing directory fails", func(t *testing.T) {
		err := SaveFile(filepath.Join(t.TempDir(), "nope", "scan.pointgram"), buildTestProject(t))
		require.Error(t, err)
	})
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.pointgram"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
