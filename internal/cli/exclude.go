package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/modclash/internal/platform"
	"github.com/sdejongh/modclash/pkg/conflict"
	"github.com/sdejongh/modclash/pkg/exclude"
)

var (
	excludeRoot     string
	excludePatterns []string
)

// NewExcludeCommand creates the exclude command
func NewExcludeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exclude",
		Short: "Manage conflicts hidden from the active view",
		Long: `Exclusions are remembered per mods directory and applied by every scan.
An excluded path still counts in the summary's excluded total.`,
	}

	cmd.PersistentFlags().StringVarP(&excludeRoot, "root", "r", "", "LML mods directory (default: scan.root from config)")

	cmd.AddCommand(newExcludeAddCommand())
	cmd.AddCommand(newExcludeRemoveCommand())
	cmd.AddCommand(newExcludeListCommand())
	cmd.AddCommand(newExcludeClearCommand())

	return cmd
}

func newExcludeAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [path]...",
		Short: "Exclude paths, or every current conflict matching --pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(excludePatterns) == 0 {
				return fmt.Errorf("give at least one path or --pattern")
			}
			if err := exclude.ValidatePatterns(excludePatterns); err != nil {
				return err
			}

			ctx := commandContext(cmd)
			cfg, err := setup()
			if err != nil {
				return err
			}
			root, err := resolveRoot(excludeRoot, cfg)
			if err != nil {
				return err
			}

			state, set, err := loadExclusions(root)
			if err != nil {
				return err
			}

			added := 0
			for _, p := range args {
				if set.Exclude(p) {
					added++
				}
			}

			if len(excludePatterns) > 0 {
				logger, err := createLogger(cfg)
				if err != nil {
					return fmt.Errorf("failed to create logger: %w", err)
				}
				defer logger.Close()

				engine, cleanup, err := newEngine(ctx, cfg, logger, true)
				if err != nil {
					return err
				}
				defer cleanup()

				if _, err := engine.Scan(ctx, root, conflict.ScanOptions{MaxWorkers: cfg.Scan.MaxWorkers}); err != nil {
					return fmt.Errorf("scan failed: %w", err)
				}
				idx, err := engine.Index()
				if err != nil {
					return err
				}
				n, err := set.ExcludeMatching(idx.ConflictPaths(), excludePatterns)
				if err != nil {
					return err
				}
				added += n
			}

			state.Capture(set)
			if err := state.Save(); err != nil {
				return fmt.Errorf("failed to save exclusions: %w", err)
			}
			fmt.Printf("Excluded %d new paths (%d total)\n", added, set.Len())
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&excludePatterns, "pattern", nil, "exclude current conflicts matching a glob (e.g. **/*.gxt2)")
	return cmd
}

func newExcludeRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <path>...",
		Aliases: []string{"restore"},
		Short:   "Return excluded paths to the active view",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			root, err := resolveRoot(excludeRoot, cfg)
			if err != nil {
				return err
			}

			state, set, err := loadExclusions(root)
			if err != nil {
				return err
			}

			removed := 0
			for _, p := range args {
				if set.Restore(p) {
					removed++
				}
			}

			state.Capture(set)
			if err := state.Save(); err != nil {
				return fmt.Errorf("failed to save exclusions: %w", err)
			}
			fmt.Printf("Restored %d paths (%d still excluded)\n", removed, set.Len())
			return nil
		},
	}
}

func newExcludeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List excluded paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			root, err := resolveRoot(excludeRoot, cfg)
			if err != nil {
				return err
			}

			_, set, err := loadExclusions(root)
			if err != nil {
				return err
			}
			if set.Len() == 0 {
				fmt.Println("No excluded paths")
				return nil
			}
			for _, p := range set.List() {
				fmt.Println(p)
			}
			return nil
		},
	}
}

func newExcludeClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every exclusion of the mods directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			root, err := resolveRoot(excludeRoot, cfg)
			if err != nil {
				return err
			}
			if err := conflict.ClearState(root); err != nil {
				return fmt.Errorf("failed to clear exclusions: %w", err)
			}
			fmt.Println("Exclusions cleared")
			return nil
		},
	}
}

// loadExclusions reads the saved state of root into a fresh set
func loadExclusions(root string) (*conflict.State, *exclude.Set, error) {
	if err := platform.ValidateRoot(root); err != nil {
		return nil, nil, err
	}
	state, err := conflict.LoadState(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load exclusions: %w", err)
	}
	set := exclude.New()
	state.Apply(set)
	return state, set, nil
}
