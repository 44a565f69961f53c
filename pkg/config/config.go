package config

import (
	"time"

	"github.com/sdejongh/modclash/pkg/cache"
	"github.com/sdejongh/modclash/pkg/compare"
	"github.com/sdejongh/modclash/pkg/diff"
	"github.com/sdejongh/modclash/pkg/exclude"
	"github.com/sdejongh/modclash/pkg/models"
	"github.com/sdejongh/modclash/pkg/ratelimit"
	"github.com/sdejongh/modclash/pkg/walker"
)

// Config represents the application configuration
type Config struct {
	Scan    ScanConfig    `yaml:"scan" toml:"scan"`
	Cache   CacheConfig   `yaml:"cache" toml:"cache"`
	Diff    DiffConfig    `yaml:"diff" toml:"diff"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Backup  BackupConfig  `yaml:"backup" toml:"backup"`
	Exclude ExcludeConfig `yaml:"exclude" toml:"exclude"`
}

// ScanConfig holds walk settings
type ScanConfig struct {
	Root       string   `yaml:"root" toml:"root"`
	MaxWorkers int      `yaml:"max_workers" toml:"max_workers"`
	Ignore     []string `yaml:"ignore" toml:"ignore"`
}

// CacheConfig holds scan cache settings
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled" toml:"enabled"`
	Backend  string        `yaml:"backend" toml:"backend"` // "memory", "file" or "sqlite"
	TTL      time.Duration `yaml:"ttl" toml:"ttl"`
	Capacity int           `yaml:"capacity" toml:"capacity"`
	Path     string        `yaml:"path" toml:"path"` // empty = backend default
}

// DiffConfig holds comparison settings
type DiffConfig struct {
	BatchSize  int    `yaml:"batch_size" toml:"batch_size"`
	Method     string `yaml:"method" toml:"method"` // "size", "hash" or "binary"
	BufferSize int    `yaml:"buffer_size" toml:"buffer_size"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format" toml:"format"`     // "human", "json", "text" or "html"
	Progress bool   `yaml:"progress" toml:"progress"` // Show progress bars
	Color    bool   `yaml:"color" toml:"color"`
	Quiet    bool   `yaml:"quiet" toml:"quiet"` // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Format string `yaml:"format" toml:"format"` // "json" or "text"
	Level  string `yaml:"level" toml:"level"`   // "debug", "info", "warn", "error"
	File   string `yaml:"file" toml:"file"`     // Log file path (empty = stderr)
}

// BackupConfig holds backup archive settings
type BackupConfig struct {
	// Dir is created next to the mods root
	Dir string `yaml:"dir" toml:"dir"`
	// Bandwidth caps archive reads, e.g. "20M"; empty is unlimited
	Bandwidth string `yaml:"bandwidth,omitempty" toml:"bandwidth,omitempty"`
}

// ExcludeConfig lists conflicts hidden from the active view
type ExcludeConfig struct {
	Paths    []string `yaml:"paths" toml:"paths"`
	Patterns []string `yaml:"patterns" toml:"patterns"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			MaxWorkers: walker.DefaultWorkers(),
			Ignore:     []string{},
		},
		Cache: CacheConfig{
			Enabled:  true,
			Backend:  cache.BackendFile,
			TTL:      cache.DefaultTTL,
			Capacity: cache.DefaultCapacity,
		},
		Diff: DiffConfig{
			BatchSize:  diff.DefaultBatchSize,
			Method:     compare.MethodHash,
			BufferSize: 65536,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
			Color:    true,
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
		Backup: BackupConfig{
			Dir: "LML_Backups",
		},
		Exclude: ExcludeConfig{
			Paths:    []string{},
			Patterns: []string{},
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Scan.MaxWorkers < 1 {
		return &models.ValidationError{
			Field:   "scan.max_workers",
			Message: "must be at least 1",
		}
	}

	if err := exclude.ValidatePatterns(c.Scan.Ignore); err != nil {
		return &models.ValidationError{Field: "scan.ignore", Message: err.Error()}
	}

	validBackends := map[string]bool{cache.BackendMemory: true, cache.BackendFile: true, cache.BackendSQLite: true}
	if !validBackends[c.Cache.Backend] {
		return &models.ValidationError{
			Field:   "cache.backend",
			Message: "must be 'memory', 'file', or 'sqlite'",
		}
	}

	if c.Cache.TTL <= 0 {
		return &models.ValidationError{Field: "cache.ttl", Message: "must be positive"}
	}

	if c.Cache.Backend == cache.BackendMemory && c.Cache.Capacity < 1 {
		return &models.ValidationError{Field: "cache.capacity", Message: "must be at least 1"}
	}

	if c.Diff.BatchSize < 1 {
		return &models.ValidationError{Field: "diff.batch_size", Message: "must be at least 1"}
	}

	validMethods := map[string]bool{compare.MethodSize: true, compare.MethodHash: true, compare.MethodBinary: true}
	if !validMethods[c.Diff.Method] {
		return &models.ValidationError{
			Field:   "diff.method",
			Message: "must be 'size', 'hash', or 'binary'",
		}
	}

	if c.Diff.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "diff.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true, "text": true, "html": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human', 'json', 'text', or 'html'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	if c.Backup.Dir == "" {
		return &models.ValidationError{Field: "backup.dir", Message: "must not be empty"}
	}

	if _, err := ratelimit.ParseRate(c.Backup.Bandwidth); err != nil {
		return &models.ValidationError{Field: "backup.bandwidth", Message: err.Error()}
	}

	if err := exclude.ValidatePatterns(c.Exclude.Patterns); err != nil {
		return &models.ValidationError{Field: "exclude.patterns", Message: err.Error()}
	}

	return nil
}
