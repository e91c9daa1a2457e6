// Package look models the visibility grid sent in LOOKREPLY messages: a square
// window of glyphs centred on the viewing player.
package look

import (
	"errors"
	"strings"

	"github.com/cory-johannsen/dod/internal/game/world"
)

// Glyphs that only appear in visibility grids.
const (
	Hidden          byte = 'X' // outside the visible diamond
	OutOfMap        byte = '#' // outside the map, rendered like a wall
	Player          byte = 'P' // player on a floor tile
	PlayerOnExit    byte = 'Q' // player on an exit tile
	ArmouredPlayer  byte = 'R' // armoured player on a floor tile
	ArmouredOnExit  byte = 'K' // armoured player on an exit tile
	ReplyHeader          = "LOOKREPLY"
	ReplyTrailer         = "ENDLOOKREPLY"
)

// ErrEmptyGrid is returned when parsing a grid with no rows.
var ErrEmptyGrid = errors.New("look grid has no rows")

// PlayerGlyph returns the glyph for another player given the tile they stand on.
func PlayerGlyph(onExit, armoured bool) byte {
	switch {
	case onExit && armoured:
		return ArmouredOnExit
	case onExit:
		return PlayerOnExit
	case armoured:
		return ArmouredPlayer
	default:
		return Player
	}
}

// IsPlayer reports whether glyph marks another player.
func IsPlayer(glyph byte) bool {
	return glyph == Player || glyph == PlayerOnExit || glyph == ArmouredPlayer || glyph == ArmouredOnExit
}

// Blocks reports whether a cell with glyph cannot be stepped on: unseen cells,
// walls, map edges and other players.
func Blocks(glyph byte) bool {
	return glyph == Hidden || glyph == OutOfMap || IsPlayer(glyph)
}

// Grid is a row-major window of glyphs. Locations index into the grid, not the map.
type Grid [][]byte

// Parse builds a Grid from rendered rows.
//
// Postcondition: Returns ErrEmptyGrid for no rows, or an error if rows differ in width.
func Parse(rows []string) (Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	g := make(Grid, len(rows))
	for i, r := range rows {
		if len(r) != len(rows[0]) {
			return nil, errors.New("look grid rows must be the same width")
		}
		g[i] = []byte(r)
	}
	return g, nil
}

// MustParse is Parse that panics on error. Intended for tests.
func MustParse(rows ...string) Grid {
	g, err := Parse(rows)
	if err != nil {
		panic("look: MustParse: " + err.Error())
	}
	return g
}

// Height returns the number of rows.
func (g Grid) Height() int { return len(g) }

// Width returns the number of columns.
func (g Grid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Center is the viewer's own cell. For even sizes the cell above/left of the
// middle is used.
func (g Grid) Center() world.Location {
	return world.Location{Col: (g.Width()+1)/2 - 1, Row: (g.Height()+1)/2 - 1}
}

// InBounds reports whether loc indexes a grid cell.
func (g Grid) InBounds(loc world.Location) bool {
	return loc.Row >= 0 && loc.Row < g.Height() && loc.Col >= 0 && loc.Col < g.Width()
}

// At returns the glyph at loc, or Hidden when loc is outside the grid.
func (g Grid) At(loc world.Location) byte {
	if !g.InBounds(loc) {
		return Hidden
	}
	return g[loc.Row][loc.Col]
}

// Blocked reports whether loc cannot be stepped on. Cells outside the grid block.
func (g Grid) Blocked(loc world.Location) bool {
	return Blocks(g.At(loc))
}

// Find returns every location holding glyph, in row-major order.
func (g Grid) Find(glyph byte) []world.Location {
	var out []world.Location
	for r, row := range g {
		for c, b := range row {
			if b == glyph {
				out = append(out, world.Location{Col: c, Row: r})
			}
		}
	}
	return out
}

// Players returns every location holding another player, in row-major order.
func (g Grid) Players() []world.Location {
	var out []world.Location
	for r, row := range g {
		for c, b := range row {
			if IsPlayer(b) {
				out = append(out, world.Location{Col: c, Row: r})
			}
		}
	}
	return out
}

// Rows renders the grid as strings.
func (g Grid) Rows() []string {
	out := make([]string, len(g))
	for i, r := range g {
		out[i] = string(r)
	}
	return out
}

// FormatReply renders rows as a complete LOOKREPLY block.
func FormatReply(rows []string) string {
	var b strings.Builder
	b.WriteString(ReplyHeader)
	for _, r := range rows {
		b.WriteByte('\n')
		b.WriteString(r)
	}
	b.WriteByte('\n')
	b.WriteString(ReplyTrailer)
	return b.String()
}
