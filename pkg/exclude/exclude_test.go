package exclude

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcludeRestoreRoundTrip(t *testing.T) {
	s := New()

	assert.True(t, s.Exclude("stream/horse.ytd"))
	assert.False(t, s.Exclude("stream/horse.ytd"))
	assert.True(t, s.Contains("stream/horse.ytd"))

	assert.True(t, s.Restore("stream/horse.ytd"))
	assert.False(t, s.Contains("stream/horse.ytd"))
	assert.False(t, s.Restore("stream/horse.ytd"))
	assert.Zero(t, s.Len())
}

func TestExcludeNonConflictIsLegal(t *testing.T) {
	s := New()
	s.Exclude("does/not/exist.txt")
	active, excluded := s.Partition([]string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, active)
	assert.Empty(t, excluded)
}

func TestPartition(t *testing.T) {
	s := New("b", "d")
	active, excluded := s.Partition([]string{"a", "b", "c", "d"})
	assert.Equal(t, []string{"a", "c"}, active)
	assert.Equal(t, []string{"b", "d"}, excluded)
}

func TestRestoreAll(t *testing.T) {
	s := New("x", "y", "z")
	assert.Equal(t, 3, s.RestoreAll())
	assert.Zero(t, s.Len())
	assert.Empty(t, s.List())
}

func TestListSorted(t *testing.T) {
	s := New("c", "a", "b")
	assert.Equal(t, []string{"a", "b", "c"}, s.List())
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := string(rune('a' + i%26))
			s.Exclude(p)
			s.Contains(p)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 26, s.Len())
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		patterns []string
		want     bool
	}{
		{"NoPatterns", "a.ytd", nil, false},
		{"BaseNameGlob", "stream/horse.ytd", []string{"*.ytd"}, true},
		{"BaseNameMiss", "stream/horse.ydd", []string{"*.ytd"}, false},
		{"DirectoryPattern", "stream/sub/horse.ytd", []string{"stream/"}, true},
		{"NestedDirectoryPattern", "x/stream/horse.ytd", []string{"stream/"}, true},
		{"DirectoryPatternMiss", "streams/horse.ytd", []string{"stream/"}, false},
		{"FullPath", "data/install.xml", []string{"data/*.xml"}, true},
		{"DoubleStar", "a/b/c/horse_saddle.ytd", []string{"**/horse*.ytd"}, true},
		{"EmptyPatternIgnored", "a.txt", []string{""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesAny(tt.path, tt.patterns))
		})
	}
}

func TestExcludeMatching(t *testing.T) {
	s := New("a.ytd")
	n, err := s.ExcludeMatching([]string{"a.ytd", "b.ytd", "c.xml"}, []string{"*.ytd"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"a.ytd", "b.ytd"}, s.List())

	_, err = s.ExcludeMatching([]string{"a"}, []string{"[bad"})
	assert.Error(t, err)
}
