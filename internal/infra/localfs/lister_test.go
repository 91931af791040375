package localfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestListSubstringMatch(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "clip.mp4")
	touch(t, dir, "clip.mp4.bak")
	touch(t, dir, "notes.txt")
	touch(t, dir, "CLIP.MP4")

	files := NewLister().List(dir, []string{".mp4", ".MP4"})

	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "clip.mp4"),
		filepath.Join(dir, "clip.mp4.bak"),
		filepath.Join(dir, "CLIP.MP4"),
	}, files)
}

func TestListMissingDirIsEmpty(t *testing.T) {
	files := NewLister().List(filepath.Join(t.TempDir(), "does-not-exist"), []string{".mp4"})
	assert.Empty(t, files)
}

func TestListNonRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested.mp4")
	require.NoError(t, os.Mkdir(sub, 0o755))
	touch(t, sub, "inner.mp4")
	touch(t, dir, "outer.mp4")

	files := NewLister().List(dir, []string{".mp4"})

	assert.Equal(t, []string{filepath.Join(dir, "outer.mp4")}, files)
}

func TestListNoFilterMatches(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "clip.avi")

	files := NewLister().List(dir, []string{".mp4"})
	assert.Empty(t, files)
}
