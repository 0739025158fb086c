package workers

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohyeah2389/Pointgram/config"
)

func writeTestImage(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "source.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 64, 48))))
	return path
}

func testThumbnailConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		DataStoragePath:  dir,
		ThumbnailsPath:   dir,
		ThumbnailMaxSize: 16,
	}
}

func TestThumbnailGenerator(t *testing.T) {
	t.Run("generates and registers a thumbnail", func(t *testing.T) {
		cfg := testThumbnailConfig(t)
		src := writeTestImage(t, t.TempDir())
		tg := NewThumbnailGenerator(cfg, nil, 10, 1)
		defer tg.Stop()

		require.True(t, tg.QueueJob(ThumbnailJob{ImageID: "img-1", SourcePath: src}))
		require.Eventually(t, func() bool {
			_, ok := tg.Lookup("img-1")
			return ok
		}, 5*time.Second, 10*time.Millisecond)

		path, _ := tg.Lookup("img-1")
		assert.FileExists(t, path)
	})

	t.Run("duplicate queue while pending is rejected", func(t *testing.T) {
		cfg := testThumbnailConfig(t)
		tg := NewThumbnailGenerator(cfg, nil, 10, 1)
		defer tg.Stop()

		tg.Mutex.Lock()
		tg.Pending["img-1"] = true
		tg.Mutex.Unlock()
		assert.False(t, tg.QueueJob(ThumbnailJob{ImageID: "img-1", SourcePath: "/nope.png"}))
	})

	t.Run("missing source is skipped quietly", func(t *testing.T) {
		cfg := testThumbnailConfig(t)
		tg := NewThumbnailGenerator(cfg, nil, 10, 1)
		defer tg.Stop()

		require.True(t, tg.QueueJob(ThumbnailJob{ImageID: "img-x", SourcePath: "/does/not/exist.png"}))
		require.Eventually(t, func() bool {
			tg.Mutex.Lock()
			defer tg.Mutex.Unlock()
			return !tg.Pending["img-x"]
		}, 5*time.Second, 10*time.Millisecond)

		_, ok := tg.Lookup("img-x")
		assert.False(t, ok)
	})

	t.Run("forget removes the file", func(t *testing.T) {
		cfg := testThumbnailConfig(t)
		src := writeTestImage(t, t.TempDir())
		tg := NewThumbnailGenerator(cfg, nil, 10, 1)
		defer tg.Stop()

		require.True(t, tg.QueueJob(ThumbnailJob{ImageID: "img-1", SourcePath: src}))
		require.Eventually(t, func() bool {
			_, ok := tg.Lookup("img-1")
			return ok
		}, 5*time.Second, 10*time.Millisecond)

		path, _ := tg.Lookup("img-1")
		tg.Forget("img-1")
		_, ok := tg.Lookup("img-1")
		assert.False(t, ok)
		assert.NoFileExists(t, path)
	})
}
