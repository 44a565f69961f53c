package conflict

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sdejongh/modclash/pkg/compare"
	"github.com/sdejongh/modclash/pkg/diff"
	"github.com/sdejongh/modclash/pkg/logging"
)

// ErrNotOwned is returned when a compared mod does not provide the path
var ErrNotOwned = errors.New("mod does not provide path")

// Progress reporting thresholds
const (
	progressReportInterval = 50 * time.Millisecond
	progressReportBytes    = 64 * 1024
)

// progressReader wraps an io.Reader to report bytes read, throttled by
// size and time. The final read always reports.
type progressReader struct {
	reader         io.Reader
	read           int64
	lastReported   int64
	lastReportTime time.Time
	onProgress     func(bytesRead int64)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.read += int64(n)
	}
	if pr.onProgress != nil && (n > 0 || err != nil) {
		if pr.read-pr.lastReported >= progressReportBytes ||
			time.Since(pr.lastReportTime) >= progressReportInterval ||
			err != nil {
			pr.onProgress(pr.read)
			pr.lastReported = pr.read
			pr.lastReportTime = time.Now()
		}
	}
	return n, err
}

type readCloser struct {
	io.Reader
	io.Closer
}

// CompareOptions configure a diff session created by Compare
type CompareOptions struct {
	// OnLoad reports bytes read per side while loading ("left" or "right")
	OnLoad func(side string, read, total int64)
	// OnProgress is passed to the session
	OnProgress func(diff.Progress)
}

// Compare prepares a line diff of path as provided by leftMod and rightMod.
// Both mods must own path in the current scan. The files are read when the
// returned session is stepped, a binary pair only up to the probe prefix; a
// read failure fails that session only.
func (e *Engine) Compare(ctx context.Context, path, leftMod, rightMod string, opts CompareOptions) (*diff.Session, error) {
	s := e.current.Load()
	if s == nil {
		return nil, ErrNoScan
	}
	if err := s.checkOwned(path, leftMod, rightMod); err != nil {
		return nil, err
	}

	load := func(side, mod string) diff.Loader {
		return func(ctx context.Context) (io.ReadCloser, error) {
			var total int64
			if info, err := s.backend.Stat(ctx, mod, path); err == nil {
				total = info.Size
			}

			r, err := s.backend.Read(ctx, mod, path)
			if err != nil {
				return nil, fmt.Errorf("open %s from %s: %w", path, mod, err)
			}

			pr := &progressReader{reader: r, lastReportTime: time.Now()}
			if opts.OnLoad != nil {
				pr.onProgress = func(n int64) { opts.OnLoad(side, n, total) }
			}
			return &readCloser{Reader: pr, Closer: r}, nil
		}
	}

	session := diff.NewSession(load("left", leftMod), load("right", rightMod), diff.Options{
		BatchSize:  e.batchSize,
		OnProgress: opts.OnProgress,
	})

	e.logger.Debug(ctx, "diff session created", logging.Fields{
		"session": session.ID(),
		"path":    path,
		"left":    leftMod,
		"right":   rightMod,
	})

	return session, nil
}

// QuickCompare checks whether two copies of path are identical using the
// engine's comparator, without decoding them as text
func (e *Engine) QuickCompare(ctx context.Context, path, leftMod, rightMod string) (*compare.Comparison, error) {
	s := e.current.Load()
	if s == nil {
		return nil, ErrNoScan
	}
	if err := s.checkOwned(path, leftMod, rightMod); err != nil {
		return nil, err
	}
	return e.comparator.Compare(ctx, s.backend, path, leftMod, rightMod)
}

func (s *snapshot) checkOwned(path string, mods ...string) error {
	owners := s.index.Owners(path)
	for _, mod := range mods {
		found := false
		for _, o := range owners {
			if o == mod {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s in %s: %w", path, mod, ErrNotOwned)
		}
	}
	return nil
}
