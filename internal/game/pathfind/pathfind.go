// Package pathfind finds shortest 4-directional paths across a visibility grid.
//
// Paths always start at the grid centre (the viewing player's own cell) and
// may only cross visible, non-blocking cells. The search runs a breadth-first
// flood fill backwards from the destination, producing a distance field that
// is then walked forwards from the origin.
package pathfind

import (
	"github.com/cory-johannsen/dod/internal/game/look"
	"github.com/cory-johannsen/dod/internal/game/world"
)

const unvisited = -1

// PathTo returns the steps leading from the grid centre to dest.
//
// Postcondition: Returns nil when no path exists, an empty non-nil slice when
// dest is the centre, otherwise a minimal-length path. Ties between equally
// short first steps are broken in world.Directions order.
func PathTo(g look.Grid, dest world.Location) []world.Direction {
	origin := g.Center()
	if dest == origin {
		return []world.Direction{}
	}
	if !g.InBounds(dest) || g.Blocked(dest) {
		return nil
	}
	dist, ok := distanceField(g, dest, origin)
	if !ok {
		return nil
	}
	return walk(g, dist, origin)
}

// distanceField floods outward from dest, recording the steps remaining to
// dest for each reached cell, until origin is reached or the frontier empties.
func distanceField(g look.Grid, dest, origin world.Location) ([][]int, bool) {
	dist := make([][]int, g.Height())
	for r := range dist {
		dist[r] = make([]int, g.Width())
		for c := range dist[r] {
			dist[r][c] = unvisited
		}
	}
	dist[dest.Row][dest.Col] = 0

	queue := []world.Location{dest}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		steps := dist[cur.Row][cur.Col] + 1
		for _, d := range world.Directions {
			next := cur.AtDirection(d)
			if next == origin {
				dist[origin.Row][origin.Col] = steps
				return dist, true
			}
			if !g.InBounds(next) || g.Blocked(next) || dist[next.Row][next.Col] != unvisited {
				continue
			}
			dist[next.Row][next.Col] = steps
			queue = append(queue, next)
		}
	}
	return nil, false
}

// walk follows strictly decreasing distances from origin to the zero cell.
func walk(g look.Grid, dist [][]int, origin world.Location) []world.Direction {
	limit := g.Width() * g.Height()
	path := make([]world.Direction, 0, dist[origin.Row][origin.Col])
	cur := origin
	for dist[cur.Row][cur.Col] != 0 {
		best := unvisited
		var (
			bestDir world.Direction
			bestLoc world.Location
		)
		for _, d := range world.Directions {
			next := cur.AtDirection(d)
			if !g.InBounds(next) {
				continue
			}
			n := dist[next.Row][next.Col]
			if n == unvisited || next == origin {
				continue
			}
			if best == unvisited || n < best {
				best, bestDir, bestLoc = n, d, next
			}
		}
		if best == unvisited || len(path) >= limit {
			return nil
		}
		path = append(path, bestDir)
		cur = bestLoc
	}
	return path
}

// ClosestTile returns the shortest path to any visible cell showing glyph.
// Cells whose path is empty (the centre itself) are ignored.
//
// Postcondition: Returns nil if no such cell is reachable.
func ClosestTile(g look.Grid, glyph byte) []world.Direction {
	var best []world.Direction
	for _, loc := range g.Find(glyph) {
		best = shorter(best, PathTo(g, loc))
	}
	return best
}

// ClosestToPlayer returns the shortest path to a free cell adjacent to any
// visible player.
//
// Postcondition: Returns nil if no such cell is reachable.
func ClosestToPlayer(g look.Grid) []world.Direction {
	var best []world.Direction
	for _, p := range g.Players() {
		for _, d := range world.Directions {
			next := p.AtDirection(d)
			if !g.InBounds(next) || g.Blocked(next) {
				continue
			}
			best = shorter(best, PathTo(g, next))
		}
	}
	return best
}

// AdjacentPlayers returns the directions from the centre that hold a player,
// in world.Directions order.
func AdjacentPlayers(g look.Grid) []world.Direction {
	var out []world.Direction
	c := g.Center()
	for _, d := range world.Directions {
		if look.IsPlayer(g.At(c.AtDirection(d))) {
			out = append(out, d)
		}
	}
	return out
}

// OpenDirections returns the directions from the centre whose cell does not block.
func OpenDirections(g look.Grid) []world.Direction {
	var out []world.Direction
	c := g.Center()
	for _, d := range world.Directions {
		if !g.Blocked(c.AtDirection(d)) {
			out = append(out, d)
		}
	}
	return out
}

// shorter keeps the current best unless candidate is a non-empty, strictly shorter path.
func shorter(best, candidate []world.Direction) []world.Direction {
	if len(candidate) == 0 {
		return best
	}
	if best == nil || len(candidate) < len(best) {
		return candidate
	}
	return best
}
