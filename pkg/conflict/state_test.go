package conflict

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/modclash/pkg/exclude"
)

func isolateConfigDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("AppData", dir)
}

func TestStateRoundTrip(t *testing.T) {
	isolateConfigDir(t)
	root := t.TempDir()

	state, err := LoadState(root)
	require.NoError(t, err)
	assert.Empty(t, state.Excluded)

	set := exclude.New("stream/b.ytd", "a.xml")
	state.Capture(set)
	require.NoError(t, state.Save())

	loaded, err := LoadState(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.xml", "stream/b.ytd"}, loaded.Excluded)
	assert.False(t, loaded.Updated.IsZero())

	target := exclude.New()
	loaded.Apply(target)
	assert.True(t, target.Contains("a.xml"))
	assert.Equal(t, 2, target.Len())

	require.NoError(t, ClearState(root))
	require.NoError(t, ClearState(root))
	fresh, err := LoadState(root)
	require.NoError(t, err)
	assert.Empty(t, fresh.Excluded)
}

func TestStateRejectsNewerVersion(t *testing.T) {
	isolateConfigDir(t)
	root := t.TempDir()

	path, err := StateFilePath(root)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0644))

	_, err = LoadState(root)
	assert.Error(t, err)
}

func TestStatePathDistinctPerRoot(t *testing.T) {
	a, err := StateFilePath("/mods/one")
	require.NoError(t, err)
	b, err := StateFilePath("/mods/two")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
