package compare

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/sdejongh/modclash/pkg/storage"
)

// Partial hashing configuration
const (
	// Minimum file size to enable partial hashing (1MB)
	partialHashThreshold = 1 * 1024 * 1024
	// Size of partial hash to compute (256KB)
	partialHashSize = 256 * 1024
)

// HashComparator compares variants using BLAKE3 digests
type HashComparator struct {
	bufferPool        *sync.Pool
	progressReport    func(path string, current, total int64)
	enablePartialHash bool
}

// NewHashComparator creates a new hash-based comparator
func NewHashComparator(bufferSize int) *HashComparator {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &HashComparator{
		enablePartialHash: true,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// SetPartialHashEnabled enables or disables partial hashing optimization
func (c *HashComparator) SetPartialHashEnabled(enabled bool) {
	c.enablePartialHash = enabled
}

// SetProgressCallback sets a callback for progress reporting during hashing
func (c *HashComparator) SetProgressCallback(callback func(path string, current, total int64)) {
	c.progressReport = callback
}

// Compare compares two variants by digest
func (c *HashComparator) Compare(ctx context.Context, backend storage.Backend, path, leftMod, rightMod string) (*Comparison, error) {
	leftInfo, rightInfo, missing := statBoth(ctx, backend, path, leftMod, rightMod)
	if missing != nil {
		return missing, nil
	}

	if leftInfo.Size != rightInfo.Size {
		return &Comparison{
			Path: path, LeftMod: leftMod, RightMod: rightMod,
			Result: Different,
			Reason: "file sizes differ",
		}, nil
	}

	// Large files: compare the leading bytes first for a quick rejection
	if c.enablePartialHash && leftInfo.Size >= partialHashThreshold {
		leftPartial, rightPartial, err := c.parallel(ctx, func(mod string) (string, error) {
			return c.digest(ctx, backend, mod, path, partialHashSize, 0)
		}, leftMod, rightMod)

		// A partial hash failure falls back to the full hash
		if err == nil && leftPartial != rightPartial {
			return &Comparison{
				Path: path, LeftMod: leftMod, RightMod: rightMod,
				Result: Different,
				Reason: "file partial hashes differ",
			}, nil
		}
	}

	leftHash, rightHash, err := c.parallel(ctx, func(mod string) (string, error) {
		return c.digest(ctx, backend, mod, path, -1, leftInfo.Size)
	}, leftMod, rightMod)
	if err != nil {
		return &Comparison{
			Path: path, LeftMod: leftMod, RightMod: rightMod,
			Result: Error,
			Reason: "failed to compute hash",
			Error:  err,
		}, err
	}

	if leftHash != rightHash {
		return &Comparison{
			Path: path, LeftMod: leftMod, RightMod: rightMod,
			Result: Different,
			Reason: "file hashes differ",
		}, nil
	}

	return &Comparison{
		Path: path, LeftMod: leftMod, RightMod: rightMod,
		Result: Same,
		Reason: "file hashes match",
	}, nil
}

// Digest returns the hex BLAKE3 digest of one mod's variant of path
func (c *HashComparator) Digest(ctx context.Context, backend storage.Backend, mod, path string) (string, error) {
	info, err := backend.Stat(ctx, mod, path)
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	return c.digest(ctx, backend, mod, path, -1, info.Size)
}

// parallel runs fn for both mods concurrently
func (c *HashComparator) parallel(ctx context.Context, fn func(mod string) (string, error), leftMod, rightMod string) (string, string, error) {
	var left, right string
	var leftErr, rightErr error
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		left, leftErr = fn(leftMod)
	}()
	go func() {
		defer wg.Done()
		right, rightErr = fn(rightMod)
	}()
	wg.Wait()

	if leftErr != nil {
		return "", "", fmt.Errorf("%s: %w", leftMod, leftErr)
	}
	if rightErr != nil {
		return "", "", fmt.Errorf("%s: %w", rightMod, rightErr)
	}
	return left, right, nil
}

// digest hashes up to limit bytes (limit < 0 hashes everything).
// size is only used for progress reporting.
func (c *HashComparator) digest(ctx context.Context, backend storage.Backend, mod, path string, limit, size int64) (string, error) {
	reader, err := backend.Read(ctx, mod, path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	var src io.Reader = reader
	if limit >= 0 {
		src = io.LimitReader(reader, limit)
	}

	hasher := blake3.New()

	bufPtr := c.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer c.bufferPool.Put(bufPtr)

	// Progress throttling variables
	const (
		progressReportInterval = 50 * time.Millisecond
		progressReportBytes    = 64 * 1024
	)
	var totalRead int64
	var lastReported int64
	lastReportTime := time.Now()
	report := c.progressReport != nil && limit < 0

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := src.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
			totalRead += int64(n)

			if report && (totalRead-lastReported >= progressReportBytes || time.Since(lastReportTime) >= progressReportInterval) {
				c.progressReport(path, totalRead, size)
				lastReported = totalRead
				lastReportTime = time.Now()
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	}

	// Ensure final progress report shows 100% completion
	if report && totalRead > lastReported {
		c.progressReport(path, totalRead, size)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Name returns the comparator name
func (c *HashComparator) Name() string {
	return "blake3"
}
