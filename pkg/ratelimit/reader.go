// Package ratelimit throttles archive I/O with a shared limiter.
package ratelimit

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

// maxBurst lets ordinary read sizes through without splitting
const maxBurst = 1 << 20

// Limiter caps the aggregate throughput of every reader sharing it
type Limiter struct {
	bytesPerSecond int64
	limiter        *rate.Limiter
}

// NewLimiter returns a limiter for bytesPerSecond, or nil (no limit) when
// the rate is not positive. The burst is one second of data capped at 1MB.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	burst := int(min(bytesPerSecond, maxBurst))
	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		limiter:        rate.NewLimiter(rate.Limit(bytesPerSecond), burst),
	}
}

// Rate returns the configured bytes per second
func (l *Limiter) Rate() int64 {
	if l == nil {
		return 0
	}
	return l.bytesPerSecond
}

// Burst returns the largest single reservation
func (l *Limiter) Burst() int {
	if l == nil {
		return 0
	}
	return l.limiter.Burst()
}

// Wait blocks until n bytes may pass or ctx is done.
// n larger than the burst is clamped to it.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	return l.limiter.WaitN(ctx, min(n, l.limiter.Burst()))
}

// Reader throttles reads through a Limiter
type Reader struct {
	ctx     context.Context
	reader  io.Reader
	limiter *Limiter
}

// NewReader wraps r; a nil limiter returns r unchanged
func NewReader(ctx context.Context, r io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return r
	}
	return &Reader{ctx: ctx, reader: r, limiter: limiter}
}

// Read never asks for more than one burst so WaitN cannot reject it
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) > r.limiter.Burst() {
		p = p[:r.limiter.Burst()]
	}
	n, err := r.reader.Read(p)
	if n > 0 {
		if werr := r.limiter.Wait(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// ParseRate converts "512K", "10M", "1G" or a plain byte count into bytes
// per second. Suffixes are binary multiples; "" and "0" mean unlimited.
func ParseRate(s string) (int64, error) {
	v := strings.TrimSpace(strings.ToUpper(s))
	v = strings.TrimSuffix(v, "/S")
	v = strings.TrimSuffix(strings.TrimSuffix(v, "B"), "I")
	if v == "" {
		return 0, nil
	}

	mult := int64(1)
	switch v[len(v)-1] {
	case 'K':
		mult = 1 << 10
	case 'M':
		mult = 1 << 20
	case 'G':
		mult = 1 << 30
	}
	if mult > 1 {
		v = v[:len(v)-1]
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid rate %q (e.g. 10M, 512K)", s)
	}
	return int64(f * float64(mult)), nil
}
