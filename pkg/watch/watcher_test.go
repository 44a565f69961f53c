package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
	ch    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan struct{}, 16)}
}

func (r *recorder) onChange(ctx context.Context, changed []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
	r.ch <- struct{}{}
	return nil
}

func (r *recorder) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func startWatcher(t *testing.T, root string, ignore []string, rec *recorder) {
	t.Helper()
	w, err := New(Config{
		Root:     root,
		Ignore:   ignore,
		Debounce: 50 * time.Millisecond,
		OnChange: rec.onChange,
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ModA"), 0755))

	rec := newRecorder()
	startWatcher(t, root, nil, rec)

	for _, name := range []string{"a.ytd", "b.ytd", "c.ytd"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, "ModA", name), []byte("x"), 0644))
	}

	changed := rec.wait(t)
	assert.Contains(t, changed, filepath.Join("ModA", "a.ytd"))
	assert.Contains(t, changed, filepath.Join("ModA", "c.ytd"))
}

func TestWatcher_Ignores(t *testing.T) {
	root := t.TempDir()
	rec := newRecorder()
	startWatcher(t, root, []string{"**/*.log"}, rec)

	require.NoError(t, os.WriteFile(filepath.Join(root, "noise.log"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "scratch.tmp"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "real.xml"), []byte("x"), 0644))

	changed := rec.wait(t)
	assert.Equal(t, []string{"real.xml"}, changed)
}

func TestWatcher_NewModDirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	rec := newRecorder()
	startWatcher(t, root, nil, rec)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "ModNew"), 0755))
	rec.wait(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "ModNew", "x.meta"), []byte("x"), 0644))
	changed := rec.wait(t)
	assert.Contains(t, changed, filepath.Join("ModNew", "x.meta"))
}

func TestNew_RejectsBadPattern(t *testing.T) {
	_, err := New(Config{Root: t.TempDir(), Ignore: []string{"[oops"}}, nil)
	assert.Error(t, err)
}

func TestRun_Twice(t *testing.T) {
	w, err := New(Config{Root: t.TempDir()}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Run(ctx))
	assert.ErrorIs(t, w.Run(ctx), ErrAlreadyRunning)
}
