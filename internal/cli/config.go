package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdejongh/modclash/pkg/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the modclash configuration file (YAML, or TOML with a .toml name).`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			if raw {
				data, err := config.Marshal(cfg, strings.HasSuffix(globalFlags.ConfigFile, ".toml"))
				if err != nil {
					return err
				}
				os.Stdout.Write(data)
				return nil
			}

			root := cfg.Scan.Root
			if root == "" {
				root = "(not set)"
			}
			fmt.Printf("Mods Root: %s\n", root)
			fmt.Printf("Max Workers: %d\n", cfg.Scan.MaxWorkers)
			fmt.Printf("Cache: %s (enabled: %t, ttl: %s)\n", cfg.Cache.Backend, cfg.Cache.Enabled, cfg.Cache.TTL)
			fmt.Printf("Diff Batch Size: %d\n", cfg.Diff.BatchSize)
			fmt.Printf("Identical Check: %s\n", cfg.Diff.Method)
			fmt.Printf("Output Format: %s\n", cfg.Output.Format)
			fmt.Printf("Log Format: %s\n", cfg.Logging.Format)
			fmt.Printf("Log Level: %s\n", cfg.Logging.Level)
			fmt.Printf("Backup Dir: %s\n", cfg.Backup.Dir)
			fmt.Printf("Excluded Paths: %d, Patterns: %d\n", len(cfg.Exclude.Paths), len(cfg.Exclude.Patterns))

			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the effective configuration as a file")
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		force bool
		root  string
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				p, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
			}

			cfg := config.Default()
			if root != "" {
				abs, err := filepath.Abs(root)
				if err != nil {
					return err
				}
				cfg.Scan.Root = abs
			}
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}

			fmt.Printf("Configuration file created at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().StringVar(&root, "root", "", "store this mods directory as scan.root")
	return cmd
}
