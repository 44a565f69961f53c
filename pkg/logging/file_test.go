package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileLogger(t *testing.T, format Format, level Level) (*FileLogger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "modclash.log")
	l, err := NewFileLogger(FileLoggerConfig{Path: path, Format: format, Level: level})
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNewFileLogger_CreatesDirectory(t *testing.T) {
	_, path := newTestFileLogger(t, FormatText, InfoLevel)
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestFileLogger_LevelFiltering(t *testing.T) {
	l, path := newTestFileLogger(t, FormatText, WarnLevel)
	ctx := context.Background()

	l.Debug(ctx, "debug message", nil)
	l.Info(ctx, "info message", nil)
	l.Warn(ctx, "mod skipped", nil)
	l.Error(ctx, "walk failed", errors.New("boom"), nil)

	content := readLog(t, path)
	assert.NotContains(t, content, "debug message")
	assert.NotContains(t, content, "info message")
	assert.Contains(t, content, "[WARN] mod skipped")
	assert.Contains(t, content, "[ERROR] walk failed")
	assert.Contains(t, content, `error="boom"`)
}

func TestFileLogger_TextFieldsSorted(t *testing.T) {
	l, path := newTestFileLogger(t, FormatText, DebugLevel)
	l.Info(context.Background(), "scan complete", Fields{"mods": 3, "conflicts": 7})

	content := readLog(t, path)
	assert.Contains(t, content, "scan complete conflicts=7 mods=3")
}

func TestFileLogger_JSONFormat(t *testing.T) {
	l, path := newTestFileLogger(t, FormatJSON, DebugLevel)
	l.Error(context.Background(), "read failed", errors.New("denied"), Fields{"mod": "ModA"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(readLog(t, path))), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "read failed", entry["message"])
	assert.Equal(t, "denied", entry["error"])
	assert.Equal(t, "ModA", entry["mod"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestFileLogger_WithFieldsSharesFile(t *testing.T) {
	l, path := newTestFileLogger(t, FormatText, InfoLevel)
	child := l.WithFields(Fields{"root": "/mods"})
	grandchild := child.WithFields(Fields{"mod": "ModB"})

	l.Info(context.Background(), "parent", nil)
	grandchild.Info(context.Background(), "child", Fields{"files": 2})

	content := readLog(t, path)
	assert.Contains(t, content, "parent\n")
	assert.Contains(t, content, "child files=2 mod=ModB root=/mods")

	// closing through a child closes the shared file once
	require.NoError(t, grandchild.Close())
	require.NoError(t, l.Close())
	l.Info(context.Background(), "after close", nil)
	assert.NotContains(t, readLog(t, path), "after close")
}

func TestFileLogger_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotate.log")
	l, err := NewFileLogger(FileLoggerConfig{
		Path:       path,
		Format:     FormatText,
		Level:      InfoLevel,
		MaxSize:    100,
		MaxBackups: 2,
	})
	require.NoError(t, err)
	defer l.Close()

	for i := 0; i < 30; i++ {
		l.Info(context.Background(), strings.Repeat("x", 40), nil)
	}

	_, err = os.Stat(path + ".1")
	assert.NoError(t, err)
	_, err = os.Stat(path + ".2")
	assert.NoError(t, err)
	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err))
}

func TestFileLogger_ConcurrentWrites(t *testing.T) {
	l, path := newTestFileLogger(t, FormatText, InfoLevel)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			child := l.WithFields(Fields{"worker": n})
			for j := 0; j < 25; j++ {
				child.Info(context.Background(), "walked", nil)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(readLog(t, path)), "\n")
	assert.Len(t, lines, 200)
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, InfoLevel)
	ctx := context.Background()

	l.Debug(ctx, "hidden", nil)
	l.WithFields(Fields{"mod": "ModA"}).Warn(ctx, "mod skipped", Fields{"files": 0})
	l.Error(ctx, "compare failed", errors.New("eof"), nil)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "mod skipped")
	assert.Contains(t, out, "mod=ModA")
	assert.Contains(t, out, "files=0")
	assert.Contains(t, out, "compare failed")
	assert.Contains(t, out, "eof")
	assert.NoError(t, l.Close())
}

func TestNew(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, &NullLogger{}, l)

	var buf bytes.Buffer
	l, err = New(Config{Console: true, ConsoleWriter: &buf})
	require.NoError(t, err)
	assert.IsType(t, &ConsoleLogger{}, l)

	path := filepath.Join(t.TempDir(), "out.log")
	l, err = New(Config{File: path, Console: true, Format: FormatJSON})
	require.NoError(t, err)
	defer l.Close()
	assert.IsType(t, &FileLogger{}, l)
}

func TestNullLogger(t *testing.T) {
	l := NewNullLogger()
	l.Info(context.Background(), "ignored", Fields{"k": "v"})
	assert.Same(t, l, l.WithFields(Fields{"a": 1}))
	assert.NoError(t, l.Close())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"bogus", InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
	assert.Equal(t, "WARN", LevelString(WarnLevel))
	assert.Equal(t, "UNKNOWN", LevelString(Level(42)))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
