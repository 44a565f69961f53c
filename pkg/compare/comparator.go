// Package compare decides whether two mods ship the same bytes for a path.
package compare

import (
	"context"
	"fmt"

	"github.com/sdejongh/modclash/pkg/storage"
)

// Result represents the outcome of comparing two variants
type Result string

const (
	// Same indicates the variants are identical
	Same Result = "same"
	// Different indicates the variants differ
	Different Result = "different"
	// Missing indicates one mod does not provide the path
	Missing Result = "missing"
	// Error indicates comparison failed
	Error Result = "error"
)

// Comparison holds the result of comparing two variants of one path
type Comparison struct {
	Path     string
	LeftMod  string
	RightMod string
	Result   Result
	Reason   string
	Error    error
}

// Comparator defines the interface for content comparison algorithms
type Comparator interface {
	// Compare compares path as provided by leftMod and rightMod
	Compare(ctx context.Context, backend storage.Backend, path, leftMod, rightMod string) (*Comparison, error)

	// Name returns the name of the comparison method
	Name() string
}

// Method names accepted by New
const (
	MethodSize   = "size"
	MethodHash   = "hash"
	MethodBinary = "binary"
)

// New creates a comparator by method name
func New(method string, bufferSize int) (Comparator, error) {
	switch method {
	case MethodSize:
		return NewSizeComparator(), nil
	case MethodHash, "":
		return NewCompositeComparator(true, bufferSize), nil
	case MethodBinary:
		return NewBinaryComparator(bufferSize), nil
	default:
		return nil, fmt.Errorf("unsupported comparison method: %s (use: size, hash, binary)", method)
	}
}

// statBoth stats both variants, returning a Missing comparison when one is absent
func statBoth(ctx context.Context, backend storage.Backend, path, leftMod, rightMod string) (*storage.FileInfo, *storage.FileInfo, *Comparison) {
	leftInfo, err := backend.Stat(ctx, leftMod, path)
	if err != nil {
		return nil, nil, &Comparison{
			Path: path, LeftMod: leftMod, RightMod: rightMod,
			Result: Missing,
			Reason: fmt.Sprintf("%s does not provide the file", leftMod),
			Error:  err,
		}
	}

	rightInfo, err := backend.Stat(ctx, rightMod, path)
	if err != nil {
		return nil, nil, &Comparison{
			Path: path, LeftMod: leftMod, RightMod: rightMod,
			Result: Missing,
			Reason: fmt.Sprintf("%s does not provide the file", rightMod),
			Error:  err,
		}
	}

	return leftInfo, rightInfo, nil
}
