package imagecache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VirtualTourist-App/internal/domain/model"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}

func TestDirCache_WriteReadRemove(t *testing.T) {
	c, err := NewDirCache(t.TempDir())
	require.NoError(t, err)

	name, err := c.Write("photo-1", jpegBytes)
	require.NoError(t, err)
	assert.Equal(t, "photo-1.jpg", name)
	assert.True(t, c.Exists(name))

	data, err := c.Read(name)
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, data)

	require.NoError(t, c.Remove(name))
	assert.False(t, c.Exists(name))
	// 2回目の削除も成功扱い
	assert.NoError(t, c.Remove(name))

	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDirCache_WriteRejectsNonImage(t *testing.T) {
	c, err := NewDirCache(t.TempDir())
	require.NoError(t, err)

	_, err = c.Write("photo-1", []byte("<html>not an image</html>"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotImage))

	var fileErr *model.FileIOError
	assert.ErrorAs(t, err, &fileErr)
	assert.False(t, c.Exists("photo-1.jpg"))
}

func TestDirCache_RejectsEscapingNames(t *testing.T) {
	c, err := NewDirCache(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", model.CachePathFailed, "../x.jpg", "a/b.jpg", ".tmp-x"} {
		_, err := c.Read(name)
		assert.Error(t, err, name)
		assert.False(t, c.Exists(name), name)
	}
}

func TestDirCache_Sweep(t *testing.T) {
	dir := t.TempDir()
	c, err := NewDirCache(dir)
	require.NoError(t, err)

	_, err = c.Write("keep", jpegBytes)
	require.NoError(t, err)
	_, err = c.Write("orphan", jpegBytes)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-inflight-1"), jpegBytes, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "x.jpg"), jpegBytes, 0o644))

	removed, err := c.Sweep(map[string]struct{}{"keep.jpg": {}})
	require.NoError(t, err)
	assert.Equal(t, []string{"orphan.jpg"}, removed)

	assert.True(t, c.Exists("keep.jpg"))
	assert.False(t, c.Exists("orphan.jpg"))
	assert.FileExists(t, filepath.Join(dir, ".tmp-inflight-1"))
	assert.FileExists(t, filepath.Join(dir, "nested", "x.jpg"))
}

func TestDetectImage(t *testing.T) {
	mime, ok := DetectImage(jpegBytes)
	assert.True(t, ok)
	assert.Equal(t, "image/jpeg", mime)

	_, ok = DetectImage([]byte("plain text"))
	assert.False(t, ok)
}
