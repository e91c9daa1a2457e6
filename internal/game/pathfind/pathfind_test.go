package pathfind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dod/internal/game/look"
	"github.com/cory-johannsen/dod/internal/game/world"
)

func follow(start world.Location, path []world.Direction) world.Location {
	for _, d := range path {
		start = start.AtDirection(d)
	}
	return start
}

func TestPathTo_Straight(t *testing.T) {
	g := look.MustParse(
		"XX.XX",
		"X...X",
		"..E..",
		"X...X",
		"XX.XX",
	)
	path := PathTo(g, world.Location{Col: 2, Row: 0})
	assert.Equal(t, []world.Direction{world.North, world.North}, path)
}

func TestPathTo_AroundWall(t *testing.T) {
	g := look.MustParse(
		"XX.XX",
		"X###X",
		"..E..",
		"X...X",
		"XX.XX",
	)
	dest := world.Location{Col: 2, Row: 0}
	path := PathTo(g, dest)
	assert.Nil(t, path, "the only approach to the top cell is walled off")

	g = look.MustParse(
		"XX.XX",
		"X.#.X",
		"..E..",
		"X...X",
		"XX.XX",
	)
	path = PathTo(g, dest)
	require.NotNil(t, path)
	assert.Len(t, path, 4)
	assert.Equal(t, dest, follow(g.Center(), path))
}

func TestPathTo_Origin(t *testing.T) {
	g := look.MustParse("...", "...", "...")
	path := PathTo(g, g.Center())
	require.NotNil(t, path)
	assert.Empty(t, path)
}

func TestPathTo_BlockedDestination(t *testing.T) {
	g := look.MustParse("...", ".#P", "...")
	assert.Nil(t, PathTo(g, world.Location{Col: 2, Row: 1}))
	assert.Nil(t, PathTo(g, world.Location{Col: 9, Row: 9}))
}

func TestPathTo_TieBreakPrefersNorth(t *testing.T) {
	g := look.MustParse("...", "...", "...")
	path := PathTo(g, world.Location{Col: 2, Row: 0})
	assert.Equal(t, []world.Direction{world.North, world.East}, path)
}

func TestClosestTile(t *testing.T) {
	g := look.MustParse(
		"XXGXX",
		"X...X",
		"....G",
		"X...X",
		"XX.XX",
	)
	path := ClosestTile(g, 'G')
	require.Len(t, path, 2)
	assert.Equal(t, world.Location{Col: 2, Row: 0}, follow(g.Center(), path))

	assert.Nil(t, ClosestTile(g, 'L'))
}

func TestClosestTile_IgnoresOwnCell(t *testing.T) {
	g := look.MustParse("...", ".G.", "...")
	assert.Nil(t, ClosestTile(g, 'G'))
}

func TestClosestToPlayer(t *testing.T) {
	g := look.MustParse(
		"XX.XX",
		"X...X",
		".....",
		"X...X",
		"XXPXX",
	)
	path := ClosestToPlayer(g)
	assert.Equal(t, []world.Direction{world.South}, path)
}

func TestAdjacentPlayers(t *testing.T) {
	g := look.MustParse(".Q.", "R.P", ".#.")
	assert.Equal(t, []world.Direction{world.North, world.East, world.West}, AdjacentPlayers(g))
	assert.Equal(t, []world.Direction(nil), OpenDirections(g))

	g = look.MustParse(".X.", "...", ".G.")
	assert.Equal(t, []world.Direction{world.South, world.East, world.West}, OpenDirections(g))
}

// referenceDistance is a plain forward BFS from the centre used to check PathTo.
func referenceDistance(g look.Grid, dest world.Location) int {
	origin := g.Center()
	seen := map[world.Location]int{origin: 0}
	queue := []world.Location{origin}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == dest {
			return seen[cur]
		}
		for _, d := range world.Directions {
			n := cur.AtDirection(d)
			if _, ok := seen[n]; ok || g.Blocked(n) {
				continue
			}
			seen[n] = seen[cur] + 1
			queue = append(queue, n)
		}
	}
	return -1
}

func TestPropertyPathIsShortestAndLandsOnDestination(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.SampledFrom([]int{3, 5, 7, 9}).Draw(rt, "size")
		cells := rapid.SliceOfN(rapid.SampledFrom([]byte(".....#XGP")), size*size, size*size).Draw(rt, "cells")
		rows := make([]string, size)
		for r := 0; r < size; r++ {
			rows[r] = string(cells[r*size : (r+1)*size])
		}
		g := look.MustParse(rows...)
		c := g.Center()
		g[c.Row][c.Col] = '.'

		dest := world.Location{
			Col: rapid.IntRange(0, size-1).Draw(rt, "col"),
			Row: rapid.IntRange(0, size-1).Draw(rt, "row"),
		}
		path := PathTo(g, dest)
		want := referenceDistance(g, dest)
		if want < 0 {
			assert.Nil(rt, path)
			return
		}
		require.NotNil(rt, path)
		assert.Len(rt, path, want)

		cur := c
		for _, d := range path {
			cur = cur.AtDirection(d)
			assert.False(rt, g.Blocked(cur), "path crosses %v", cur)
		}
		assert.Equal(rt, dest, cur)
	})
}
