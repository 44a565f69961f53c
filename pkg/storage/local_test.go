package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files under root; keys are slash-separated paths
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestNewLocal(t *testing.T) {
	t.Run("ValidDirectory", func(t *testing.T) {
		local, err := NewLocal(t.TempDir())
		require.NoError(t, err)
		defer local.Close()
		assert.True(t, filepath.IsAbs(local.Root()))
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := NewLocal("")
		assert.ErrorIs(t, err, ErrInvalidRoot)
	})

	t.Run("NonExistentPath", func(t *testing.T) {
		_, err := NewLocal(filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, ErrInvalidRoot)
	})

	t.Run("FileNotDirectory", func(t *testing.T) {
		dir := t.TempDir()
		writeTree(t, dir, map[string]string{"file.txt": "x"})
		_, err := NewLocal(filepath.Join(dir, "file.txt"))
		assert.ErrorIs(t, err, ErrInvalidRoot)
	})
}

func TestLocalListMods(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"ModB/a.txt":   "b",
		"ModA/a.txt":   "a",
		"zz/x.txt":     "z",
		"readme.txt":   "not a mod",
		"ModC/d/e.xml": "c",
	})

	local, err := NewLocal(root)
	require.NoError(t, err)

	mods, err := local.ListMods(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ModA", "ModB", "ModC", "zz"}, mods)
}

func TestLocalListFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"ModA/stream/horse.ytd": "tex",
		"ModA/data/meta/x.meta": "meta",
		"ModA/install.xml":      "<x/>",
		"ModB/stream/other.ytd": "tex",
	})

	local, err := NewLocal(root)
	require.NoError(t, err)

	files, err := local.ListFiles(context.Background(), "ModA")
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		assert.False(t, f.IsDir)
		rels = append(rels, filepath.ToSlash(f.RelativePath))
	}
	sort.Strings(rels)
	assert.Equal(t, []string{"data/meta/x.meta", "install.xml", "stream/horse.ytd"}, rels)
}

func TestLocalListModsSymlink(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "lml")
	ext := filepath.Join(base, "extdir")
	writeTree(t, root, map[string]string{"A/stream/horse.ytd": "a"})
	writeTree(t, ext, map[string]string{"stream/horse.ytd": "linked"})
	writeTree(t, base, map[string]string{"loose.txt": "x"})

	if err := os.Symlink(ext, filepath.Join(root, "Linked")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	// links to directories inside a mod are not files
	require.NoError(t, os.Symlink(ext, filepath.Join(root, "A", "shared")))
	// a link to a file is listed
	require.NoError(t, os.Symlink(filepath.Join(base, "loose.txt"), filepath.Join(root, "A", "loose.txt")))
	// a link to a file at root level is not a mod
	require.NoError(t, os.Symlink(filepath.Join(base, "loose.txt"), filepath.Join(root, "note.txt")))

	local, err := NewLocal(root)
	require.NoError(t, err)
	ctx := context.Background()

	mods, err := local.ListMods(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "Linked"}, mods)

	relPaths := func(mod string) []string {
		files, err := local.ListFiles(ctx, mod)
		require.NoError(t, err)
		var rels []string
		for _, f := range files {
			rels = append(rels, filepath.ToSlash(f.RelativePath))
		}
		sort.Strings(rels)
		return rels
	}
	assert.Equal(t, []string{"loose.txt", "stream/horse.ytd"}, relPaths("A"))
	assert.Equal(t, []string{"stream/horse.ytd"}, relPaths("Linked"))

	rc, err := local.Read(ctx, "Linked", "stream/horse.ytd")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "linked", string(data))
}

func TestLocalListFilesCancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"ModA/a.txt": "a"})

	local, err := NewLocal(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = local.ListFiles(ctx, "ModA")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalListFilesMissingMod(t *testing.T) {
	local, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = local.ListFiles(context.Background(), "Gone")
	assert.Error(t, err)
}

func TestLocalReadAndStat(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"ModA/dir/file.txt": "hello"})

	local, err := NewLocal(root)
	require.NoError(t, err)
	ctx := context.Background()
	rel := filepath.Join("dir", "file.txt")

	rc, err := local.Read(ctx, "ModA", rel)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(data))

	info, err := local.Stat(ctx, "ModA", rel)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)

	ok, err := local.Exists(ctx, "ModA", rel)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = local.Exists(ctx, "ModA", "nope.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalRejectsEscapes(t *testing.T) {
	local, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = local.Read(ctx, "ModA", filepath.Join("..", "..", "etc", "passwd"))
	assert.Error(t, err)

	_, err = local.ListFiles(ctx, "..")
	assert.Error(t, err)
}
