package compare

import (
	"context"
	"fmt"

	"github.com/sdejongh/modclash/pkg/storage"
)

// SizeComparator compares variants by size only
type SizeComparator struct{}

// NewSizeComparator creates a new size comparator
func NewSizeComparator() *SizeComparator {
	return &SizeComparator{}
}

// Compare compares two variants by size
func (c *SizeComparator) Compare(ctx context.Context, backend storage.Backend, path, leftMod, rightMod string) (*Comparison, error) {
	leftInfo, rightInfo, missing := statBoth(ctx, backend, path, leftMod, rightMod)
	if missing != nil {
		return missing, nil
	}

	if leftInfo.Size != rightInfo.Size {
		return &Comparison{
			Path: path, LeftMod: leftMod, RightMod: rightMod,
			Result: Different,
			Reason: fmt.Sprintf("sizes differ: %d vs %d bytes", leftInfo.Size, rightInfo.Size),
		}, nil
	}

	return &Comparison{
		Path: path, LeftMod: leftMod, RightMod: rightMod,
		Result: Same,
		Reason: "sizes match",
	}, nil
}

// Name returns the comparator name
func (c *SizeComparator) Name() string {
	return MethodSize
}
