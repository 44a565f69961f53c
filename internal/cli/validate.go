package cli

import (
	"fmt"

	"github.com/sdejongh/modclash/pkg/config"
)

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyGlobalFlags overrides config values with the global flags
func applyGlobalFlags(cfg *config.Config) {
	if globalFlags.LogFile != "" {
		cfg.Logging.File = globalFlags.LogFile
	}
	if globalFlags.LogFormat != "" {
		cfg.Logging.Format = globalFlags.LogFormat
	}
	if globalFlags.LogLevel != "" {
		cfg.Logging.Level = globalFlags.LogLevel
	}
	if globalFlags.NoColor {
		cfg.Output.Color = false
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	if globalFlags.Verbose && globalFlags.LogLevel == "" {
		cfg.Logging.Level = "debug"
	}
}

// setup loads the config, applies global flags and validates the result
func setup() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyGlobalFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveRoot picks the root flag, then the configured root
func resolveRoot(flag string, cfg *config.Config) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.Scan.Root != "" {
		return cfg.Scan.Root, nil
	}
	return "", fmt.Errorf("no mod root given (use --root or set scan.root in the config file)")
}
