package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/modclash/pkg/models"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 50, cfg.Diff.BatchSize)
	assert.LessOrEqual(t, cfg.Scan.MaxWorkers, 8)
	assert.GreaterOrEqual(t, cfg.Scan.MaxWorkers, 1)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"workers", func(c *Config) { c.Scan.MaxWorkers = 0 }, "scan.max_workers"},
		{"ignore", func(c *Config) { c.Scan.Ignore = []string{"[bad"} }, "scan.ignore"},
		{"backend", func(c *Config) { c.Cache.Backend = "redis" }, "cache.backend"},
		{"ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache.ttl"},
		{"capacity", func(c *Config) {
			c.Cache.Backend = "memory"
			c.Cache.Capacity = 0
		}, "cache.capacity"},
		{"batch", func(c *Config) { c.Diff.BatchSize = 0 }, "diff.batch_size"},
		{"method", func(c *Config) { c.Diff.Method = "md5" }, "diff.method"},
		{"buffer", func(c *Config) { c.Diff.BufferSize = 10 }, "diff.buffer_size"},
		{"output", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"backup", func(c *Config) { c.Backup.Dir = "" }, "backup.dir"},
		{"bandwidth", func(c *Config) { c.Backup.Bandwidth = "fast" }, "backup.bandwidth"},
		{"patterns", func(c *Config) { c.Exclude.Patterns = []string{"{a"} }, "exclude.patterns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scan:
  root: /games/rdr2/lml
  max_workers: 2
cache:
  backend: sqlite
  ttl: 30m
exclude:
  paths:
    - stream/horse.ytd
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/games/rdr2/lml", cfg.Scan.Root)
	assert.Equal(t, 2, cfg.Scan.MaxWorkers)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"stream/horse.ytd"}, cfg.Exclude.Paths)
	// untouched sections keep defaults
	assert.Equal(t, "human", cfg.Output.Format)
}

func TestLoadFromFile_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[scan]
max_workers = 3

[diff]
batch_size = 10
method = "binary"

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Scan.MaxWorkers)
	assert.Equal(t, 10, cfg.Diff.BatchSize)
	assert.Equal(t, "binary", cfg.Diff.Method)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("scan:\n  max_workers: 0\n"), 0644))
	_, err = LoadFromFile(bad)
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	garbled := filepath.Join(dir, "garbled.yaml")
	require.NoError(t, os.WriteFile(garbled, []byte("scan: [unclosed"), 0644))
	_, err = LoadFromFile(garbled)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"nested/config.yaml", "nested/config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := Default()
			cfg.Scan.Root = "/mods"
			cfg.Cache.TTL = 15 * time.Minute
			cfg.Exclude.Patterns = []string{"**/*.gxt2"}

			require.NoError(t, SaveToFile(cfg, path))
			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg.Scan.Root, loaded.Scan.Root)
			assert.Equal(t, cfg.Cache.TTL, loaded.Cache.TTL)
			assert.Equal(t, cfg.Exclude.Patterns, loaded.Exclude.Patterns)
		})
	}
}

func TestSaveToFile_RejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.Output.Format = "pdf"
	err := SaveToFile(cfg, filepath.Join(t.TempDir(), "c.yaml"))
	assert.Error(t, err)
}

func TestDefaultConfigPath(t *testing.T) {
	path, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(".config", "modclash", "config.yaml"),
		filepath.Join(filepath.Base(filepath.Dir(filepath.Dir(path))), filepath.Base(filepath.Dir(path)), filepath.Base(path)))
}

func TestLoadDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	// a TOML file is picked up when no YAML file exists
	dir := filepath.Join(home, ".config", "modclash")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[scan]\nroot = \"/games/lml\"\n"), 0644))

	cfg, err = LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "/games/lml", cfg.Scan.Root)
}
