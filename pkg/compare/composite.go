package compare

import (
	"context"

	"github.com/sdejongh/modclash/pkg/storage"
)

// CompositeComparator performs multi-stage comparison
// Stage 1: Quick size check
// Stage 2: Optional hash verification if enabled
type CompositeComparator struct {
	useHash  bool
	hashComp *HashComparator
	sizeComp *SizeComparator
}

// NewCompositeComparator creates a smart comparator
// If useHash is true, performs hash verification when sizes match
func NewCompositeComparator(useHash bool, bufferSize int) *CompositeComparator {
	var hashComp *HashComparator
	if useHash {
		hashComp = NewHashComparator(bufferSize)
	}
	return &CompositeComparator{
		useHash:  useHash,
		hashComp: hashComp,
		sizeComp: NewSizeComparator(),
	}
}

// Compare performs intelligent comparison
func (c *CompositeComparator) Compare(ctx context.Context, backend storage.Backend, path, leftMod, rightMod string) (*Comparison, error) {
	cmp, err := c.sizeComp.Compare(ctx, backend, path, leftMod, rightMod)
	if err != nil || cmp.Result != Same || !c.useHash {
		return cmp, err
	}
	return c.hashComp.Compare(ctx, backend, path, leftMod, rightMod)
}

// SetProgressCallback sets a callback for progress reporting during hashing
func (c *CompositeComparator) SetProgressCallback(callback func(path string, current, total int64)) {
	if c.hashComp != nil {
		c.hashComp.SetProgressCallback(callback)
	}
}

// Name returns the comparator name
func (c *CompositeComparator) Name() string {
	if c.useHash {
		return MethodHash
	}
	return MethodSize
}
