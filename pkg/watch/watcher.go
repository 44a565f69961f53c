// Package watch reports changes beneath a mod root after a quiet period.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/sdejongh/modclash/pkg/logging"
)

// DefaultDebounce is the quiet period after the last event before OnChange fires
const DefaultDebounce = 500 * time.Millisecond

// defaultIgnores never trigger a rescan
var defaultIgnores = []string{
	"**/.git/**",
	"**/*.tmp",
	"**/*~",
	"**/.DS_Store",
	"**/Thumbs.db",
}

// ErrAlreadyRunning is returned by a second call to Run
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

// Config holds watcher settings
type Config struct {
	// Root is the directory watched recursively
	Root string

	// Ignore are extra doublestar patterns, relative to Root
	Ignore []string

	// Debounce defaults to DefaultDebounce
	Debounce time.Duration

	// OnChange receives the sorted, deduplicated changed paths relative to
	// Root. Calls never overlap; events arriving during a call are delivered
	// by the next one.
	OnChange func(ctx context.Context, changed []string) error
}

// Watcher monitors a mod root with fsnotify
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	root     string
	ignores  []string
	debounce time.Duration
	logger   logging.Logger
	started  atomic.Bool
}

// New creates a watcher and registers every non-ignored directory under Root
func New(cfg Config, logger logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}

	for _, p := range cfg.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("watch: invalid ignore pattern %q", p)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		root:     root,
		ignores:  append(append([]string{}, defaultIgnores...), cfg.Ignore...),
		debounce: debounce,
		logger:   logger.WithFields(logging.Fields{"root": root}),
	}

	if err := w.addDirectories(); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
// It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			// retry later so the pending set is not lost
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		changed := make([]string, 0, len(pending))
		for p := range pending {
			changed = append(changed, p)
		}
		clear(pending)
		mu.Unlock()

		if len(changed) == 0 {
			return
		}
		sort.Strings(changed)

		w.logger.Debug(ctx, "changes detected", logging.Fields{"paths": len(changed)})
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error(ctx, "change handler failed", err, nil)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		w.fsw.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}

			rel, err := filepath.Rel(w.root, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			if w.isIgnored(rel) {
				continue
			}

			// New directories (a freshly installed mod) are watched too
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			w.logger.Warn(ctx, "fsnotify error", logging.Fields{"error": err.Error()})
		}
	}
}

// addDirectories registers Root and every non-ignored directory beneath it.
// Unreadable directories are skipped.
func (w *Watcher) addDirectories() error {
	return filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == w.root {
				return fmt.Errorf("watch: %w", err)
			}
			w.logger.Warn(context.Background(), "skipping inaccessible path", logging.Fields{
				"path":  path,
				"error": err.Error(),
			})
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		if rel != "." && (w.isIgnored(rel) || w.isIgnored(rel+"/")) {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add %s: %w", path, addErr)
		}
		return nil
	})
}

// maybeAddDir watches path and its subdirectories when it is a new directory
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, p)
		if relErr == nil && w.isIgnored(rel) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(p); addErr != nil {
			w.logger.Warn(context.Background(), "cannot watch new directory", logging.Fields{
				"path":  p,
				"error": addErr.Error(),
			})
		}
		return nil
	})
}

func (w *Watcher) isIgnored(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.ignores {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}
