package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/modclash/pkg/models"
)

func TestBuildConflicts(t *testing.T) {
	listings := []models.ModListing{
		{Mod: "ModA", Files: []string{"stream/horse.ytd", "a_only.txt"}},
		{Mod: "ModB", Files: []string{"stream/horse.ytd"}},
		{Mod: "ModC", Files: []string{"stream/horse.ytd", "shared.xml"}},
		{Mod: "ModD", Files: []string{"shared.xml"}},
	}

	idx := Build(listings)

	assert.Equal(t, []string{"shared.xml", "stream/horse.ytd"}, idx.ConflictPaths())
	assert.Equal(t, []string{"ModA", "ModB", "ModC"}, idx.Owners("stream/horse.ytd"))
	assert.Equal(t, []string{"ModA"}, idx.Owners("a_only.txt"))
	assert.False(t, idx.IsConflict("a_only.txt"))
	assert.True(t, idx.IsConflict("shared.xml"))
	assert.Equal(t, 3, idx.PathCount())
	assert.Equal(t, 6, idx.PairCount())
	assert.Equal(t, []string{"ModA", "ModB", "ModC", "ModD"}, idx.Mods())
}

func TestBuildEveryConflictHasTwoOwners(t *testing.T) {
	listings := []models.ModListing{
		{Mod: "A", Files: []string{"x", "y", "z"}},
		{Mod: "B", Files: []string{"x"}},
		{Mod: "C", Files: []string{"y", "q"}},
	}
	idx := Build(listings)
	for _, c := range idx.Conflicts() {
		assert.GreaterOrEqual(t, len(c.Mods), 2, c.Path)
	}
	assert.Len(t, idx.Conflicts(), 2)
}

func TestBuildDeduplicatesMods(t *testing.T) {
	listings := []models.ModListing{
		{Mod: "A", Files: []string{"x", "x"}},
	}
	idx := Build(listings)
	assert.Equal(t, []string{"A"}, idx.Owners("x"))
	assert.Zero(t, idx.ConflictCount())
}

func TestBuildSkipsFailedMods(t *testing.T) {
	listings := []models.ModListing{
		{Mod: "A", Files: []string{"x"}},
		{Mod: "B", Err: errors.New("denied")},
		{Mod: "C", Files: []string{"x"}},
	}
	idx := Build(listings)
	assert.Equal(t, []string{"A", "C"}, idx.Owners("x"))
}

func TestBuildIsDeterministic(t *testing.T) {
	listings := []models.ModListing{
		{Mod: "A", Files: []string{"p", "q", "r"}},
		{Mod: "B", Files: []string{"r", "p"}},
	}
	assert.Equal(t, Build(listings).Conflicts(), Build(listings).Conflicts())
}

func TestFromOwnershipMatchesBuild(t *testing.T) {
	listings := []models.ModListing{
		{Mod: "A", Files: []string{"p", "q"}},
		{Mod: "B", Files: []string{"p"}},
	}
	built := Build(listings)
	restored := FromOwnership(built.Ownership())

	assert.Equal(t, built.Conflicts(), restored.Conflicts())
	assert.Equal(t, built.Mods(), restored.Mods())
	assert.Equal(t, built.PairCount(), restored.PairCount())
}

func TestOwnersReturnsCopy(t *testing.T) {
	idx := Build([]models.ModListing{{Mod: "A", Files: []string{"p"}}, {Mod: "B", Files: []string{"p"}}})
	owners := idx.Owners("p")
	require.Len(t, owners, 2)
	owners[0] = "Z"
	assert.Equal(t, []string{"A", "B"}, idx.Owners("p"))
	assert.Nil(t, idx.Owners("missing"))
}
