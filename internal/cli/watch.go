package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sdejongh/modclash/pkg/conflict"
	"github.com/sdejongh/modclash/pkg/logging"
	"github.com/sdejongh/modclash/pkg/output"
	"github.com/sdejongh/modclash/pkg/watch"
)

// WatchFlags holds watch command flags
type WatchFlags struct {
	Root     string
	Debounce time.Duration
	Ignore   []string
}

var watchFlags WatchFlags

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rescan whenever the mods directory changes",
		Long: `Scan the LML root, then watch it and rescan after files settle.
Each rescan drops the cached result first and prints the new summary.
Stop with Ctrl+C.`,
		RunE: runWatch,
	}

	cmd.Flags().StringVarP(&watchFlags.Root, "root", "r", "", "LML mods directory (default: scan.root from config)")
	cmd.Flags().DurationVar(&watchFlags.Debounce, "debounce", watch.DefaultDebounce, "quiet period before rescanning")
	cmd.Flags().StringSliceVar(&watchFlags.Ignore, "ignore", nil, "glob patterns of changes to ignore")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := setup()
	if err != nil {
		return err
	}

	root, err := resolveRoot(watchFlags.Root, cfg)
	if err != nil {
		return err
	}

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

	if err := applySavedExclusions(ctx, engine, root, logger); err != nil {
		return err
	}

	rescan := func(ctx context.Context, refresh bool) error {
		report, err := engine.Scan(ctx, root, conflict.ScanOptions{
			MaxWorkers: cfg.Scan.MaxWorkers,
			Ignore:     cfg.Scan.Ignore,
			Refresh:    refresh,
		})
		if err != nil {
			return err
		}
		summary, err := engine.Summary()
		if err != nil {
			return err
		}
		if !cfg.Output.Quiet {
			fmt.Printf("[%s] %s (%s)\n", time.Now().Format("15:04:05"),
				output.SummaryLine(&output.Report{Summary: summary}), report.Duration.Round(time.Millisecond))
		}
		return nil
	}

	if err := rescan(ctx, false); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	w, err := watch.New(watch.Config{
		Root:     engine.Root(),
		Ignore:   append(append([]string{}, cfg.Scan.Ignore...), watchFlags.Ignore...),
		Debounce: watchFlags.Debounce,
		OnChange: func(ctx context.Context, changed []string) error {
			logger.Info(ctx, "change detected", logging.Fields{"paths": len(changed)})
			if !cfg.Output.Quiet {
				fmt.Fprintf(os.Stderr, "Changed: %s\n", preview(changed, 3))
			}
			engine.Invalidate(ctx, root)
			return rescan(ctx, true)
		},
	}, logger)
	if err != nil {
		return err
	}

	if !cfg.Output.Quiet {
		fmt.Fprintf(os.Stderr, "Watching %s (Ctrl+C to stop)\n", engine.Root())
	}
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// preview lists the first n paths and counts the rest
func preview(paths []string, n int) string {
	if len(paths) <= n {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(paths[:n], ", "), len(paths)-n)
}
