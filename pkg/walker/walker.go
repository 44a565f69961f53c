// Package walker enumerates the files of every mod under a root in parallel.
package walker

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sdejongh/modclash/pkg/logging"
	"github.com/sdejongh/modclash/pkg/models"
	"github.com/sdejongh/modclash/pkg/storage"
)

// maxDefaultWorkers caps the default pool size
const maxDefaultWorkers = 8

// DefaultWorkers returns min(8, NumCPU)
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n > maxDefaultWorkers {
		return maxDefaultWorkers
	}
	if n < 1 {
		return 1
	}
	return n
}

// ModProgress is reported once per mod when its enumeration finishes
type ModProgress struct {
	Mod       string
	Files     int
	Err       error
	Completed int
	Total     int
}

// Config holds walker settings
type Config struct {
	// MaxWorkers bounds the number of mods enumerated concurrently.
	// Zero selects DefaultWorkers.
	MaxWorkers int

	// Ignore are doublestar patterns matched against mod-relative paths
	// (forward slashes). Matching files are left out of the listing.
	Ignore []string

	// OnModDone is called after each mod finishes, from the worker goroutine
	// while holding the walker's result lock. It must not block.
	OnModDone func(ModProgress)
}

// Walker manages parallel mod enumeration
type Walker struct {
	backend    storage.Backend
	maxWorkers int
	semaphore  chan struct{}
	ignore     []string
	onModDone  func(ModProgress)
	logger     logging.Logger
}

// New creates a walker over backend
func New(backend storage.Backend, cfg Config, logger logging.Logger) (*Walker, error) {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = DefaultWorkers()
	}

	for _, pat := range cfg.Ignore {
		if !doublestar.ValidatePattern(pat) {
			return nil, &models.ValidationError{
				Field:   "scan.ignore",
				Message: fmt.Sprintf("invalid pattern %q", pat),
			}
		}
	}

	if logger == nil {
		logger = logging.NewNullLogger()
	}

	return &Walker{
		backend:    backend,
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
		ignore:     cfg.Ignore,
		onModDone:  cfg.OnModDone,
		logger:     logger,
	}, nil
}

// MaxWorkers returns the pool size
func (w *Walker) MaxWorkers() int {
	return w.maxWorkers
}

// Walk enumerates every mod and returns one listing per mod in lexicographic
// mod order, independent of completion order. A mod that fails to enumerate
// is logged and returned with Err set and no files; the other mods are not
// affected. An error is returned only when the root itself cannot be listed
// or ctx is cancelled.
func (w *Walker) Walk(ctx context.Context) ([]models.ModListing, error) {
	mods, err := w.backend.ListMods(ctx)
	if err != nil {
		return nil, err
	}

	// Each worker owns one slot, so completion order never leaks into results
	results := make([]models.ModListing, len(mods))

	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

dispatch:
	for i, mod := range mods {
		// Acquire semaphore slot
		select {
		case w.semaphore <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}
		wg.Add(1)

		go func(slot int, mod string) {
			defer wg.Done()
			defer func() { <-w.semaphore }()

			startTime := time.Now()
			listing := w.walkMod(ctx, mod)
			results[slot] = listing

			mu.Lock()
			completed++
			if listing.Err != nil {
				w.logger.Warn(ctx, "skipping mod after enumeration failure", logging.Fields{
					"mod":   mod,
					"error": listing.Err.Error(),
				})
			} else {
				w.logger.Debug(ctx, "mod enumerated", logging.Fields{
					"mod":      mod,
					"files":    len(listing.Files),
					"duration": time.Since(startTime).String(),
				})
			}
			if w.onModDone != nil {
				w.onModDone(ModProgress{
					Mod:       mod,
					Files:     len(listing.Files),
					Err:       listing.Err,
					Completed: completed,
					Total:     len(mods),
				})
			}
			mu.Unlock()
		}(i, mod)
	}

	// Wait for all workers to complete
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// walkMod enumerates one mod, recovering from panics so a single bad mod
// cannot take the process down
func (w *Walker) walkMod(ctx context.Context, mod string) (listing models.ModListing) {
	listing.Mod = mod

	defer func() {
		if r := recover(); r != nil {
			listing.Files = nil
			listing.Err = fmt.Errorf("panic while listing mod %s: %v", mod, r)
		}
	}()

	files, err := w.backend.ListFiles(ctx, mod)
	if err != nil {
		listing.Err = err
		return listing
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if w.ignored(f.RelativePath) {
			continue
		}
		paths = append(paths, f.RelativePath)
	}
	listing.Files = paths

	return listing
}

func (w *Walker) ignored(rel string) bool {
	if len(w.ignore) == 0 {
		return false
	}
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.ignore {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}
