package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sdejongh/modclash/pkg/config"
	"github.com/sdejongh/modclash/pkg/conflict"
	"github.com/sdejongh/modclash/pkg/logging"
	"github.com/sdejongh/modclash/pkg/models"
	"github.com/sdejongh/modclash/pkg/output"
	"github.com/sdejongh/modclash/pkg/walker"
)

// ScanFlags holds scan command flags
type ScanFlags struct {
	Root           string
	NoCache        bool
	Refresh        bool
	Workers        int
	Ignore         []string
	Exclude        []string
	ExcludePattern []string
	Search         string
	Extension      string
	Severity       string
	DisableExt     []string
	Sort           string
	Reverse        bool
	ShowExcluded   bool
	CheckIdentical bool
	Output         string
	Report         string
	ReportFormat   string
	Clipboard      bool
}

var scanFlags ScanFlags

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Find files provided by more than one mod",
		Long: `Scan every mod directory under an LML root and report relative paths
that more than one mod provides, with a severity for each conflict.

Exclusions saved with "modclash exclude" are applied automatically.`,
		RunE: runScan,
	}

	cmd.Flags().StringVarP(&scanFlags.Root, "root", "r", "", "LML mods directory (default: scan.root from config)")
	cmd.Flags().BoolVar(&scanFlags.NoCache, "no-cache", false, "neither read nor write the scan cache")
	cmd.Flags().BoolVar(&scanFlags.Refresh, "refresh", false, "walk the tree even when a cached result exists")
	cmd.Flags().IntVarP(&scanFlags.Workers, "workers", "w", 0, "number of mods walked in parallel (default: min(8, CPUs))")
	cmd.Flags().StringSliceVar(&scanFlags.Ignore, "ignore", nil, "glob patterns of files to skip while walking")

	// Exclusions for this run only
	cmd.Flags().StringArrayVar(&scanFlags.Exclude, "exclude", nil, "hide a conflicting path from the active view")
	cmd.Flags().StringArrayVar(&scanFlags.ExcludePattern, "exclude-pattern", nil, "hide conflicting paths matching a glob")

	// View flags
	cmd.Flags().StringVar(&scanFlags.Search, "search", "", "show only conflicts whose path or mods contain this text")
	cmd.Flags().StringVar(&scanFlags.Extension, "ext", "", "show only one extension (e.g. .ytd)")
	cmd.Flags().StringVar(&scanFlags.Severity, "severity", "", "show only one severity: high, medium, low")
	cmd.Flags().StringSliceVar(&scanFlags.DisableExt, "disable-ext", nil, "hide these extensions")
	cmd.Flags().StringVar(&scanFlags.Sort, "sort", "path", "sort by: path, mods, count, severity")
	cmd.Flags().BoolVar(&scanFlags.Reverse, "reverse", false, "reverse the sort order")
	cmd.Flags().BoolVar(&scanFlags.ShowExcluded, "show-excluded", false, "also list excluded conflicts")
	cmd.Flags().BoolVar(&scanFlags.CheckIdentical, "check-identical", false, "hash every copy and mark conflicts whose copies are identical")

	// Output flags
	cmd.Flags().StringVarP(&scanFlags.Output, "output", "o", "", "output format: human, text, json, html")
	cmd.Flags().StringVar(&scanFlags.Report, "report", "", "write the report to a file")
	cmd.Flags().StringVar(&scanFlags.ReportFormat, "report-format", "", "report file format: text, json, html (default: from extension)")
	cmd.Flags().BoolVar(&scanFlags.Clipboard, "clipboard", false, "copy the text report to the clipboard")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := setup()
	if err != nil {
		return err
	}
	applyScanFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	filter, err := buildFilter()
	if err != nil {
		return err
	}

	root, err := resolveRoot(scanFlags.Root, cfg)
	if err != nil {
		return err
	}

	logger, err := createLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	engine, cleanup, err := newEngine(ctx, cfg, logger, !scanFlags.NoCache)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := applySavedExclusions(ctx, engine, root, logger); err != nil {
		return err
	}
	for _, p := range scanFlags.Exclude {
		engine.Exclusions().Exclude(p)
	}

	progress := output.NewProgress(os.Stderr, "Scanning", 0, cfg.Output.Progress)
	report, err := engine.Scan(ctx, root, conflict.ScanOptions{
		MaxWorkers: cfg.Scan.MaxWorkers,
		Ignore:     cfg.Scan.Ignore,
		Refresh:    scanFlags.Refresh,
		OnModDone: func(p walker.ModProgress) {
			progress.SetTotal(p.Total)
			progress.Increment(p.Mod)
		},
	})
	progress.Finish()
	if err != nil {
		if report != nil && report.Status == models.StatusCancelled {
			return &ExitError{Code: report.Status.ExitCode(), Err: fmt.Errorf("scan cancelled")}
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	patterns := append(append([]string{}, cfg.Exclude.Patterns...), scanFlags.ExcludePattern...)
	if len(patterns) > 0 {
		n, err := engine.ExcludePatterns(patterns)
		if err != nil {
			return err
		}
		logger.Debug(ctx, "excluded by pattern", logging.Fields{"count": n})
	}

	r, err := buildReport(ctx, engine, cfg, filter, report)
	if err != nil {
		return err
	}

	format := cfg.Output.Format
	if !cfg.Output.Quiet || format != "human" {
		formatter, err := output.NewFormatter(format, output.Options{Color: cfg.Output.Color})
		if err != nil {
			return err
		}
		shown := *r
		if format == "human" && !scanFlags.ShowExcluded {
			shown.Excluded = nil
		}
		if err := formatter.Write(os.Stdout, &shown); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	if scanFlags.Report != "" {
		if err := output.WriteReportFile(r, scanFlags.Report, scanFlags.ReportFormat); err != nil {
			return err
		}
		if !cfg.Output.Quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", scanFlags.Report)
		}
	}

	if scanFlags.Clipboard {
		if err := output.CopyReport(r); err != nil {
			// the report itself succeeded
			logger.Warn(ctx, "clipboard copy failed", logging.Fields{"error": err.Error()})
		} else if !cfg.Output.Quiet {
			fmt.Fprintf(os.Stderr, "Report copied to clipboard\n")
		}
	}

	if code := report.Status.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// applyScanFlags overrides config values with scan flags
func applyScanFlags(cfg *config.Config) {
	if scanFlags.Workers > 0 {
		cfg.Scan.MaxWorkers = scanFlags.Workers
	}
	if len(scanFlags.Ignore) > 0 {
		cfg.Scan.Ignore = scanFlags.Ignore
	}
	if scanFlags.Output != "" {
		cfg.Output.Format = scanFlags.Output
	}
}

// buildFilter validates the view flags
func buildFilter() (conflict.Filter, error) {
	sortKey, ok := conflict.ParseSortKey(scanFlags.Sort)
	if !ok {
		return conflict.Filter{}, fmt.Errorf("invalid sort key: %s (valid: path, mods, count, severity)", scanFlags.Sort)
	}

	f := conflict.Filter{
		Search:             scanFlags.Search,
		Extension:          scanFlags.Extension,
		DisabledExtensions: scanFlags.DisableExt,
		Sort:               sortKey,
		Reverse:            scanFlags.Reverse,
	}
	if scanFlags.Severity != "" {
		sev, ok := models.ParseSeverity(scanFlags.Severity)
		if !ok {
			return conflict.Filter{}, fmt.Errorf("invalid severity: %s (valid: high, medium, low)", scanFlags.Severity)
		}
		f.Severity = sev
	}
	return f, nil
}

// applySavedExclusions loads the exclusions remembered for root
func applySavedExclusions(ctx context.Context, engine *conflict.Engine, root string, logger logging.Logger) error {
	state, err := conflict.LoadState(root)
	if err != nil {
		return fmt.Errorf("failed to load saved exclusions: %w", err)
	}
	state.Apply(engine.Exclusions())
	if len(state.Excluded) > 0 {
		logger.Debug(ctx, "applied saved exclusions", logging.Fields{"count": len(state.Excluded)})
	}
	return nil
}

// buildReport collects the views and summary of the engine's current scan
func buildReport(ctx context.Context, engine *conflict.Engine, cfg *config.Config, filter conflict.Filter, scan *models.ScanReport) (*output.Report, error) {
	active, err := engine.View(filter)
	if err != nil {
		return nil, err
	}

	summary, err := engine.Summary()
	if err != nil {
		return nil, err
	}

	groups, err := engine.TypeGroups(false)
	if err != nil {
		return nil, err
	}

	r := &output.Report{
		Generated: time.Now(),
		Root:      engine.Root(),
		Scan:      scan,
		Summary:   summary,
		Active:    active,
		Groups:    groups,
	}

	excludedFilter := filter
	excludedFilter.Excluded = true
	if r.Excluded, err = engine.View(excludedFilter); err != nil {
		return nil, err
	}

	if scanFlags.CheckIdentical {
		progress := output.NewProgress(os.Stderr, "Comparing", 0, cfg.Output.Progress)
		dups, err := engine.CheckDuplicates(ctx, cfg.Scan.MaxWorkers, func(p conflict.CheckProgress) {
			progress.SetTotal(p.Total)
			progress.Increment(p.Path)
		})
		progress.Finish()
		if err != nil {
			return nil, err
		}
		r.Duplicates = make(map[string]bool, len(dups))
		for _, d := range dups {
			if d.Err == nil {
				r.Duplicates[d.Path] = d.Identical
			}
		}
	}

	return r, nil
}
