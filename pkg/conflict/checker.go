package conflict

import (
	"context"
	"sync"

	"github.com/sdejongh/modclash/pkg/compare"
	"github.com/sdejongh/modclash/pkg/logging"
	"github.com/sdejongh/modclash/pkg/walker"
)

// Duplicate reports whether every copy of a conflicting path is identical
type Duplicate struct {
	Path      string
	Identical bool
	// Differs names the first mod whose copy differs from the first owner's
	Differs string
	Err     error
}

// CheckProgress is reported after each path is checked
type CheckProgress struct {
	Path      string
	Completed int
	Total     int
}

// CheckDuplicates compares every owner's copy of each active conflict with
// the first owner's copy, at most maxWorkers paths at a time. Results are in
// path order. Identical copies mean the conflict cannot change game behavior.
// A comparison error is recorded on that path only.
func (e *Engine) CheckDuplicates(ctx context.Context, maxWorkers int, onProgress func(CheckProgress)) ([]Duplicate, error) {
	s := e.current.Load()
	if s == nil {
		return nil, ErrNoScan
	}
	if maxWorkers < 1 {
		maxWorkers = walker.DefaultWorkers()
	}

	rows, err := e.View(Filter{})
	if err != nil {
		return nil, err
	}

	results := make([]Duplicate, len(rows))
	semaphore := make(chan struct{}, maxWorkers)

	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

dispatch:
	for i := range rows {
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}
		wg.Add(1)

		go func(slot int, path string, mods []string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			results[slot] = e.checkPath(ctx, s, path, mods)

			mu.Lock()
			completed++
			if onProgress != nil {
				onProgress(CheckProgress{Path: path, Completed: completed, Total: len(rows)})
			}
			mu.Unlock()
		}(i, rows[i].Path, rows[i].Mods)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) checkPath(ctx context.Context, s *snapshot, path string, mods []string) Duplicate {
	d := Duplicate{Path: path, Identical: true}
	for _, other := range mods[1:] {
		cmp, err := e.comparator.Compare(ctx, s.backend, path, mods[0], other)
		if err != nil {
			e.logger.Warn(ctx, "duplicate check failed", logging.Fields{
				"path":  path,
				"mod":   other,
				"error": err.Error(),
			})
			d.Identical = false
			d.Err = err
			return d
		}
		if cmp.Result != compare.Same {
			d.Identical = false
			d.Differs = other
			return d
		}
	}
	return d
}
