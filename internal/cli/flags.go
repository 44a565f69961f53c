package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/modclash/pkg/cache"
	"github.com/sdejongh/modclash/pkg/compare"
	"github.com/sdejongh/modclash/pkg/config"
	"github.com/sdejongh/modclash/pkg/conflict"
	"github.com/sdejongh/modclash/pkg/exclude"
	"github.com/sdejongh/modclash/pkg/logging"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
	NoColor    bool
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/modclash/config.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"verbose output (debug logs on stderr)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
	cmd.PersistentFlags().BoolVar(&globalFlags.NoColor, "no-color", false, "disable colored output")

	cmd.PersistentFlags().StringVar(&globalFlags.LogFile, "log-file", "", "write logs to file")
	cmd.PersistentFlags().StringVar(&globalFlags.LogFormat, "log-format", "", "log file format: text, json")
	cmd.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// ExitError carries a process exit code out of a command.
// main converts it; commands never exit themselves.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// createLogger creates a logger based on configuration.
// Without a log file, warnings go to stderr; --verbose lowers that to debug.
func createLogger(cfg *config.Config) (logging.Logger, error) {
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.File == "" && !globalFlags.Verbose {
		level = logging.WarnLevel
	}
	if cfg.Output.Quiet {
		level = max(level, logging.ErrorLevel)
	}

	return logging.New(logging.Config{
		File:       cfg.Logging.File,
		Format:     format,
		Level:      level,
		Console:    true,
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	})
}

// newEngine wires the cache, comparator and exclusions described by cfg.
// The returned func closes the engine and its cache.
func newEngine(ctx context.Context, cfg *config.Config, logger logging.Logger, useCache bool) (*conflict.Engine, func(), error) {
	comparator, err := compare.New(cfg.Diff.Method, cfg.Diff.BufferSize)
	if err != nil {
		return nil, nil, err
	}

	var c *cache.Cache
	if useCache && cfg.Cache.Enabled {
		store, err := cache.OpenStore(cfg.Cache.Backend, cfg.Cache.Path, cfg.Cache.Capacity)
		if err != nil {
			// the engine walks without a cache
			logger.Warn(ctx, "cache unavailable", logging.Fields{"backend": cfg.Cache.Backend, "error": err.Error()})
		} else {
			c = cache.New(store, cache.WithTTL(cfg.Cache.TTL), cache.WithLogger(logger))
		}
	}

	engine := conflict.NewEngine(conflict.Options{
		Cache:         c,
		Exclusions:    exclude.New(cfg.Exclude.Paths...),
		Comparator:    comparator,
		DiffBatchSize: cfg.Diff.BatchSize,
		Logger:        logger,
	})
	cleanup := func() {
		engine.Close()
		if c != nil {
			c.Close()
		}
	}
	return engine, cleanup, nil
}
