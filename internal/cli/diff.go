package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/modclash/pkg/compare"
	"github.com/sdejongh/modclash/pkg/conflict"
	"github.com/sdejongh/modclash/pkg/diff"
	"github.com/sdejongh/modclash/pkg/logging"
	"github.com/sdejongh/modclash/pkg/output"
)

// DiffFlags holds diff command flags
type DiffFlags struct {
	Root        string
	Path        string
	Left        string
	Right       string
	Search      string
	Unified     bool
	Context     int
	Batch       int
	OnlyChanges bool
	Quick       bool
}

var diffFlags DiffFlags

// NewDiffCommand creates the diff command
func NewDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two mods' copies of a conflicting file",
		Long: `Compare the copies of one conflicting path shipped by two mods.

Lines are compared by position: a line is changed when both copies have a
line at that index and they differ, and appended when only the longer copy
has one. Binary files are detected and not compared line by line.

Without --left and --right the first two owners of the path are compared.`,
		RunE: runDiff,
	}

	cmd.Flags().StringVarP(&diffFlags.Root, "root", "r", "", "LML mods directory (default: scan.root from config)")
	cmd.Flags().StringVarP(&diffFlags.Path, "path", "p", "", "conflicting relative path (required)")
	cmd.MarkFlagRequired("path")
	cmd.Flags().StringVar(&diffFlags.Left, "left", "", "mod shown on the left")
	cmd.Flags().StringVar(&diffFlags.Right, "right", "", "mod shown on the right")
	cmd.Flags().StringVar(&diffFlags.Search, "search", "", "list case-insensitive matches of this text on both sides")
	cmd.Flags().BoolVar(&diffFlags.Unified, "unified", false, "print a unified diff instead of the side-by-side view")
	cmd.Flags().IntVar(&diffFlags.Context, "context", 3, "context lines of the unified diff")
	cmd.Flags().IntVar(&diffFlags.Batch, "batch", 0, "lines classified per step (default: diff.batch_size from config)")
	cmd.Flags().BoolVar(&diffFlags.OnlyChanges, "only-changes", false, "hide unchanged lines")
	cmd.Flags().BoolVar(&diffFlags.Quick, "quick", false, "only report whether the copies are identical")

	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := setup()
	if err != nil {
		return err
	}
	if diffFlags.Batch > 0 {
		cfg.Diff.BatchSize = diffFlags.Batch
	}

	root, err := resolveRoot(diffFlags.Root, cfg)
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

	if _, err := engine.Scan(ctx, root, conflict.ScanOptions{MaxWorkers: cfg.Scan.MaxWorkers}); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	left, right, err := pickMods(engine, diffFlags.Path, diffFlags.Left, diffFlags.Right)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if diffFlags.Quick {
		cmp, err := engine.QuickCompare(ctx, diffFlags.Path, left, right)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", cmp.Result, cmp.Reason)
		return nil
	}

	progress := output.NewProgress(os.Stderr, "Comparing", 0, cfg.Output.Progress)
	session, err := engine.Compare(ctx, diffFlags.Path, left, right, conflict.CompareOptions{
		OnProgress: func(p diff.Progress) {
			if p.Phase == diff.PhaseDiffing {
				progress.SetTotal(p.Total)
				progress.SetCurrent(p.Processed)
			}
		},
	})
	if err != nil {
		progress.Finish()
		return err
	}

	res, err := session.Run(ctx)
	progress.Finish()
	if err != nil {
		if errors.Is(err, diff.ErrCancelled) {
			return &ExitError{Code: 3, Err: err}
		}
		return err
	}
	logger.Debug(ctx, "comparison complete", logging.Fields{
		"session":  session.ID(),
		"path":     diffFlags.Path,
		"changed":  res.Changed,
		"appended": res.Appended,
	})

	leftName := left + "/" + diffFlags.Path
	rightName := right + "/" + diffFlags.Path

	switch {
	case res.Binary:
		fmt.Fprintln(out, "Binary files cannot be compared line by line")
		cmp, err := engine.QuickCompare(ctx, diffFlags.Path, left, right)
		if err != nil {
			return err
		}
		if cmp.Result == compare.Same {
			fmt.Fprintln(out, "The files are byte-identical")
		} else {
			fmt.Fprintf(out, "The files differ: %s\n", cmp.Reason)
		}
		return nil
	case diffFlags.Unified:
		leftText, rightText := session.Texts()
		if err := output.WriteUnified(out, leftName, rightName, leftText, rightText, diffFlags.Context); err != nil {
			return err
		}
	default:
		if err := output.WriteDiff(out, res, output.DiffOptions{
			LeftName:    leftName,
			RightName:   rightName,
			Color:       cfg.Output.Color,
			OnlyChanges: diffFlags.OnlyChanges,
		}); err != nil {
			return err
		}
	}

	if diffFlags.Search != "" {
		leftText, rightText := session.Texts()
		fmt.Fprintln(out)
		printMatches(out, left, diff.SplitLines(leftText))
		printMatches(out, right, diff.SplitLines(rightText))
	}

	return nil
}

// pickMods defaults the compared mods to the path's first two owners
func pickMods(engine *conflict.Engine, path, left, right string) (string, string, error) {
	if left != "" && right != "" {
		return left, right, nil
	}

	c, ok := engine.Lookup(path)
	if !ok || len(c.Mods) < 2 {
		return "", "", fmt.Errorf("%s is not a conflict; name both mods with --left and --right", path)
	}

	owners := make([]string, 0, len(c.Mods))
	for _, m := range c.Mods {
		if m != left && m != right {
			owners = append(owners, m)
		}
	}
	if left == "" {
		left, owners = owners[0], owners[1:]
	}
	if right == "" {
		if len(owners) == 0 {
			return "", "", fmt.Errorf("no other mod provides %s", path)
		}
		right = owners[0]
	}
	return left, right, nil
}

func printMatches(w io.Writer, side string, lines []string) {
	matches := diff.Search(lines, diffFlags.Search)
	nav := diff.NewNavigator(matches)
	nav.Next()
	output.WriteMatches(w, side, lines, matches, nav.Index())
}
