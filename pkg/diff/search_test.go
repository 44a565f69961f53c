package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCaseInsensitive(t *testing.T) {
	lines := []string{"Horse saddle", "no match", "HORSE horse"}
	got := Search(lines, "horse")
	assert.Equal(t, []Match{
		{Offset: 0, Line: 1, Column: 0, Length: 5},
		{Offset: 22, Line: 3, Column: 0, Length: 5},
		{Offset: 28, Line: 3, Column: 6, Length: 5},
	}, got)
}

func TestSearchNonOverlapping(t *testing.T) {
	got := Search([]string{"aaaa"}, "aa")
	assert.Equal(t, []Match{{Offset: 0, Line: 1, Column: 0, Length: 2}, {Offset: 2, Line: 1, Column: 2, Length: 2}}, got)
}

func TestSearchUnicode(t *testing.T) {
	got := SearchText("Ärger\närger", "äRGER")
	require.Len(t, got, 2)
	assert.Equal(t, 6, got[0].Length)
	assert.Equal(t, 7, got[1].Offset)
}

func TestSearchTextOffsetsIndexBuffer(t *testing.T) {
	text := "saddle\r\nHorse\rcart\nhorse"
	got := SearchText(text, "HORSE")
	require.Len(t, got, 2)
	for _, m := range got {
		assert.Equal(t, "horse", strings.ToLower(text[m.Offset:m.Offset+m.Length]))
	}
	assert.Equal(t, 8, got[0].Offset)
	assert.Equal(t, 2, got[0].Line)
	assert.Equal(t, 19, got[1].Offset)
	assert.Equal(t, 4, got[1].Line)
}

func TestSearchEmptyTerm(t *testing.T) {
	assert.Empty(t, Search([]string{"abc"}, ""))
}

func TestNavigatorCycles(t *testing.T) {
	nav := NewNavigator(Search([]string{"x x x"}, "x"))
	require.Equal(t, 3, nav.Len())
	assert.Equal(t, -1, nav.Index())

	var cols []int
	for i := 0; i < 4; i++ {
		m, ok := nav.Next()
		require.True(t, ok)
		cols = append(cols, m.Column)
	}
	assert.Equal(t, []int{0, 2, 4, 0}, cols)

	m, _ := nav.Prev()
	assert.Equal(t, 4, m.Column, "previous from the first wraps to the last")
}

func TestNavigatorPrevFromStart(t *testing.T) {
	nav := NewNavigator([]Match{{Line: 1}, {Line: 2}, {Line: 3}})
	m, ok := nav.Prev()
	require.True(t, ok)
	assert.Equal(t, 3, m.Line)
}

func TestNavigatorEmpty(t *testing.T) {
	nav := NewNavigator(nil)
	_, ok := nav.Next()
	assert.False(t, ok)
	_, ok = nav.Prev()
	assert.False(t, ok)
}
