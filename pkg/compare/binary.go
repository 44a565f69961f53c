package compare

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sdejongh/modclash/pkg/storage"
)

// BinaryComparator compares variants byte-by-byte
// This is the most thorough comparison and reports the first differing offset
type BinaryComparator struct {
	bufferSize int
	bufferPool *sync.Pool
}

// NewBinaryComparator creates a new byte-by-byte comparator
func NewBinaryComparator(bufferSize int) *BinaryComparator {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &BinaryComparator{
		bufferSize: bufferSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// Compare compares two variants byte-by-byte
func (c *BinaryComparator) Compare(ctx context.Context, backend storage.Backend, path, leftMod, rightMod string) (*Comparison, error) {
	leftInfo, rightInfo, missing := statBoth(ctx, backend, path, leftMod, rightMod)
	if missing != nil {
		return missing, nil
	}

	if leftInfo.Size != rightInfo.Size {
		return &Comparison{
			Path: path, LeftMod: leftMod, RightMod: rightMod,
			Result: Different,
			Reason: fmt.Sprintf("size mismatch: %s=%d, %s=%d", leftMod, leftInfo.Size, rightMod, rightInfo.Size),
		}, nil
	}

	leftReader, err := backend.Read(ctx, leftMod, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s variant: %w", leftMod, err)
	}
	defer leftReader.Close()

	rightReader, err := backend.Read(ctx, rightMod, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s variant: %w", rightMod, err)
	}
	defer rightReader.Close()

	leftBufPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(leftBufPtr)
	leftBuf := *leftBufPtr

	rightBufPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(rightBufPtr)
	rightBuf := *rightBufPtr

	var offset int64
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// ReadFull keeps both sides aligned even when a reader returns short reads
		leftN, leftErr := io.ReadFull(leftReader, leftBuf)
		rightN, rightErr := io.ReadFull(rightReader, rightBuf)

		n := min(leftN, rightN)
		if !bytes.Equal(leftBuf[:n], rightBuf[:n]) {
			for i := 0; i < n; i++ {
				if leftBuf[i] != rightBuf[i] {
					offset += int64(i)
					break
				}
			}
			return &Comparison{
				Path: path, LeftMod: leftMod, RightMod: rightMod,
				Result: Different,
				Reason: fmt.Sprintf("binary content differs at byte offset %d", offset),
			}, nil
		}
		offset += int64(n)

		if leftN != rightN {
			return &Comparison{
				Path: path, LeftMod: leftMod, RightMod: rightMod,
				Result: Different,
				Reason: fmt.Sprintf("one variant ends at byte offset %d", offset),
			}, nil
		}

		leftDone := leftErr == io.EOF || leftErr == io.ErrUnexpectedEOF
		rightDone := rightErr == io.EOF || rightErr == io.ErrUnexpectedEOF
		if leftErr != nil && !leftDone {
			return nil, fmt.Errorf("failed to read %s variant: %w", leftMod, leftErr)
		}
		if rightErr != nil && !rightDone {
			return nil, fmt.Errorf("failed to read %s variant: %w", rightMod, rightErr)
		}
		if leftDone && rightDone {
			break
		}
	}

	return &Comparison{
		Path: path, LeftMod: leftMod, RightMod: rightMod,
		Result: Same,
		Reason: fmt.Sprintf("binary content matches (%d bytes)", offset),
	}, nil
}

// Name returns the comparator name
func (c *BinaryComparator) Name() string {
	return MethodBinary
}
