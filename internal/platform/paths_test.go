package platform

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mod.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.NoError(t, ValidateRoot(dir))

	var perr *PathError
	err := ValidateRoot("")
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "path is empty", perr.Message)

	err = ValidateRoot(filepath.Join(dir, "missing"))
	require.ErrorAs(t, err, &perr)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	err = ValidateRoot(file)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "not a directory", perr.Message)
}

func TestNormalizePath(t *testing.T) {
	got := NormalizePath("a/../b")
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "b", filepath.Base(got))
}
