package ratelimit

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0))
	assert.Nil(t, NewLimiter(-100))

	small := NewLimiter(1000)
	require.NotNil(t, small)
	assert.Equal(t, 1000, small.Burst())

	large := NewLimiter(100 << 20)
	assert.Equal(t, maxBurst, large.Burst())
	assert.Equal(t, int64(100<<20), large.Rate())

	var none *Limiter
	assert.Zero(t, none.Rate())
	assert.Zero(t, none.Burst())
}

func TestNewReaderWithoutLimiter(t *testing.T) {
	base := strings.NewReader("content")
	assert.Same(t, io.Reader(base), NewReader(context.Background(), base, nil))
}

func TestReaderCopiesEverything(t *testing.T) {
	data := bytes.Repeat([]byte("horse"), 10000)
	r := NewReader(context.Background(), bytes.NewReader(data), NewLimiter(100<<20))

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestReaderSplitsLargeReads(t *testing.T) {
	l := NewLimiter(4096)
	r := NewReader(context.Background(), bytes.NewReader(make([]byte, 10000)), l)

	n, err := r.Read(make([]byte, 10000))
	require.NoError(t, err)
	assert.Equal(t, 4096, n)
}

func TestReaderThrottles(t *testing.T) {
	l := NewLimiter(100 << 10)
	// drain the initial burst so the read below has to wait
	require.NoError(t, l.Wait(context.Background(), l.Burst()))

	start := time.Now()
	_, err := io.ReadAll(NewReader(context.Background(), bytes.NewReader(make([]byte, 10<<10)), l))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestWaitHonorsContext(t *testing.T) {
	l := NewLimiter(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Wait(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)

	// a reservation past the deadline fails without waiting it out
	require.NoError(t, l.Wait(context.Background(), 1))
	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.Error(t, l.Wait(ctx, 1))
	assert.Less(t, time.Since(start), time.Second)
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"2048", 2048, false},
		{"512K", 512 << 10, false},
		{"10M", 10 << 20, false},
		{"10MiB", 10 << 20, false},
		{"1.5G", 3 << 29, false},
		{"5mb/s", 5 << 20, false},
		{"fast", 0, true},
		{"-1M", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
