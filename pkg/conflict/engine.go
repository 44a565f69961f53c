// Package conflict ties the walker, index, cache, severity rules and
// exclusion overlay into one engine holding the current scan.
package conflict

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/modclash/internal/platform"
	"github.com/sdejongh/modclash/pkg/cache"
	"github.com/sdejongh/modclash/pkg/compare"
	"github.com/sdejongh/modclash/pkg/exclude"
	"github.com/sdejongh/modclash/pkg/index"
	"github.com/sdejongh/modclash/pkg/logging"
	"github.com/sdejongh/modclash/pkg/models"
	"github.com/sdejongh/modclash/pkg/severity"
	"github.com/sdejongh/modclash/pkg/storage"
	"github.com/sdejongh/modclash/pkg/walker"
)

// ErrNoScan is returned by queries made before the first successful scan
var ErrNoScan = errors.New("no scan has completed")

// Options configure an Engine
type Options struct {
	// Cache is consulted before walking; nil disables caching
	Cache *cache.Cache
	// Classifier defaults to severity.Default()
	Classifier *severity.Classifier
	// Exclusions defaults to an empty set
	Exclusions *exclude.Set
	// Comparator backs the quick identical check; defaults to blake3 hashing
	Comparator compare.Comparator
	// DiffBatchSize is passed to diff sessions
	DiffBatchSize int
	Logger        logging.Logger
	// OpenBackend opens the storage for a root; defaults to storage.NewLocal
	OpenBackend func(root string) (storage.Backend, error)
}

// ScanOptions configure one Scan call
type ScanOptions struct {
	MaxWorkers int
	// Ignore patterns are applied during the walk. Filtered scans neither
	// read nor write the cache.
	Ignore []string
	// Refresh skips the cache lookup; the fresh result is still stored
	Refresh   bool
	OnModDone func(walker.ModProgress)
}

// snapshot is everything derived from one scan
type snapshot struct {
	root    string
	backend storage.Backend
	index   *index.Index
	report  *models.ScanReport
}

// Engine holds the current scan result and answers queries against it.
// Scans replace the snapshot atomically; queries never block on a scan.
type Engine struct {
	cache      *cache.Cache
	classifier *severity.Classifier
	exclusions *exclude.Set
	comparator compare.Comparator
	batchSize  int
	logger     logging.Logger
	open       func(root string) (storage.Backend, error)

	current atomic.Pointer[snapshot]
}

// NewEngine creates an engine with no scan loaded
func NewEngine(opts Options) *Engine {
	e := &Engine{
		cache:      opts.Cache,
		classifier: opts.Classifier,
		exclusions: opts.Exclusions,
		comparator: opts.Comparator,
		batchSize:  opts.DiffBatchSize,
		logger:     opts.Logger,
		open:       opts.OpenBackend,
	}
	if e.classifier == nil {
		e.classifier = severity.Default()
	}
	if e.exclusions == nil {
		e.exclusions = exclude.New()
	}
	if e.comparator == nil {
		e.comparator = compare.NewHashComparator(0)
	}
	if e.logger == nil {
		e.logger = logging.NewNullLogger()
	}
	if e.open == nil {
		e.open = func(root string) (storage.Backend, error) { return storage.NewLocal(root) }
	}
	return e
}

// Exclusions returns the live exclusion set
func (e *Engine) Exclusions() *exclude.Set {
	return e.exclusions
}

// Classifier returns the severity rules in use
func (e *Engine) Classifier() *severity.Classifier {
	return e.classifier
}

// Root returns the root of the current scan, or "" before the first scan
func (e *Engine) Root() string {
	if s := e.current.Load(); s != nil {
		return s.root
	}
	return ""
}

// Index returns the current index
func (e *Engine) Index() (*index.Index, error) {
	s := e.current.Load()
	if s == nil {
		return nil, ErrNoScan
	}
	return s.index, nil
}

// Report returns the report of the scan that produced the current index
func (e *Engine) Report() *models.ScanReport {
	if s := e.current.Load(); s != nil {
		return s.report
	}
	return nil
}

// Scan indexes root, from the cache when a fresh entry exists and by walking
// the mods otherwise. An invalid root is rejected before any work starts.
// On success the new index replaces the current one. A walk interrupted by
// ctx returns a cancelled report together with ctx's error and leaves the
// current index untouched.
func (e *Engine) Scan(ctx context.Context, root string, opts ScanOptions) (*models.ScanReport, error) {
	if err := platform.ValidateRoot(root); err != nil {
		return nil, err
	}
	root = platform.NormalizePath(root)

	op := &models.ScanOperation{
		ID:             uuid.New().String(),
		Root:           root,
		MaxWorkers:     opts.MaxWorkers,
		IgnorePatterns: opts.Ignore,
		Refresh:        opts.Refresh,
		CreatedAt:      time.Now(),
	}
	if op.MaxWorkers < 1 {
		op.MaxWorkers = walker.DefaultWorkers()
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}

	backend, err := e.open(root)
	if err != nil {
		return nil, err
	}

	logger := e.logger.WithFields(logging.Fields{"scan_id": op.ID, "root": root})
	report := &models.ScanReport{
		OperationID: op.ID,
		Root:        root,
		StartTime:   time.Now(),
	}

	useCache := e.cache != nil && len(op.IgnorePatterns) == 0

	var idx *index.Index
	if useCache && !op.Refresh {
		if own, ok := e.cache.Lookup(ctx, root); ok {
			idx = index.FromOwnership(own)
			report.FromCache = true
			report.Stats.ModsScanned = len(idx.Mods())
			logger.Info(ctx, "using cached scan", logging.Fields{"paths": idx.PathCount()})
		}
	}

	if idx == nil {
		idx, err = e.walk(ctx, backend, op, opts.OnModDone, report, logger)
		if err != nil {
			backend.Close()
			report.EndTime = time.Now()
			report.Duration = report.EndTime.Sub(report.StartTime)
			if ctx.Err() != nil {
				report.Status = models.StatusCancelled
			} else {
				report.Status = models.StatusFailed
			}
			return report, err
		}
		// partial walks are never cached
		if useCache && report.Stats.ModsFailed == 0 {
			e.cache.Put(ctx, root, idx.Ownership())
		} else if useCache {
			e.cache.Invalidate(ctx, root)
		}
	}

	report.Stats.FilesScanned = idx.PairCount()
	report.Stats.UniquePaths = idx.PathCount()
	report.Stats.ConflictsFound = idx.ConflictCount()
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	if report.Stats.ModsFailed > 0 {
		report.Status = models.StatusPartial
	} else {
		report.Status = models.StatusSuccess
	}

	prev := e.current.Swap(&snapshot{root: root, backend: backend, index: idx, report: report})
	if prev != nil {
		prev.backend.Close()
	}

	logger.Info(ctx, "scan complete", logging.Fields{
		"mods":       report.Stats.ModsScanned,
		"failed":     report.Stats.ModsFailed,
		"paths":      report.Stats.UniquePaths,
		"conflicts":  report.Stats.ConflictsFound,
		"from_cache": report.FromCache,
		"duration":   report.Duration.String(),
	})

	return report, nil
}

func (e *Engine) walk(ctx context.Context, backend storage.Backend, op *models.ScanOperation, onModDone func(walker.ModProgress), report *models.ScanReport, logger logging.Logger) (*index.Index, error) {
	w, err := walker.New(backend, walker.Config{
		MaxWorkers: op.MaxWorkers,
		Ignore:     op.IgnorePatterns,
		OnModDone:  onModDone,
	}, logger)
	if err != nil {
		return nil, err
	}

	listings, err := w.Walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", op.Root, err)
	}

	for _, l := range listings {
		if l.Err != nil {
			report.Stats.ModsFailed++
			report.Errors = append(report.Errors, models.ScanError{
				Mod:       l.Mod,
				Error:     l.Err.Error(),
				Timestamp: time.Now(),
			})
			continue
		}
		report.Stats.ModsScanned++
	}

	return index.Build(listings), nil
}

// Invalidate drops the cache entry for root
func (e *Engine) Invalidate(ctx context.Context, root string) {
	if e.cache != nil {
		e.cache.Invalidate(ctx, platform.NormalizePath(root))
	}
}

// ExcludePatterns excludes every current conflict path matching one of the
// doublestar patterns and returns how many were newly excluded
func (e *Engine) ExcludePatterns(patterns []string) (int, error) {
	idx, err := e.Index()
	if err != nil {
		return 0, err
	}
	return e.exclusions.ExcludeMatching(idx.ConflictPaths(), patterns)
}

// Close releases the backend of the current scan
func (e *Engine) Close() error {
	if s := e.current.Swap(nil); s != nil {
		return s.backend.Close()
	}
	return nil
}
