// Package world provides the dungeon world model: directions, locations, tiles and the map grid.
package world

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/dod/internal/game/item"
)

// Direction represents one of the four compass directions.
type Direction string

// Compass directions.
const (
	North Direction = "N"
	South Direction = "S"
	East  Direction = "E"
	West  Direction = "W"
)

// Directions lists the compass directions in search order. Path reconstruction
// and neighbour expansion rely on this exact order for tie-breaks.
var Directions = []Direction{North, South, East, West}

// ParseDirection converts a protocol direction token into a Direction.
// Single letters and full names are accepted, case-insensitively.
//
// Postcondition: Returns (dir, true) for a known direction, or ("", false).
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "NORTH":
		return North, true
	case "S", "SOUTH":
		return South, true
	case "E", "EAST":
		return East, true
	case "W", "WEST":
		return West, true
	}
	return "", false
}

// Opposite returns the reverse compass direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		return ""
	}
}

// Location is a (row, col) grid coordinate. No bounds are implied.
type Location struct {
	Col int
	Row int
}

// AtOffset returns the location shifted by the given column and row offsets.
func (l Location) AtOffset(colOffset, rowOffset int) Location {
	return Location{Col: l.Col + colOffset, Row: l.Row + rowOffset}
}

// AtDirection returns the adjacent location in direction d.
// Unknown directions return l unchanged.
func (l Location) AtDirection(d Direction) Location {
	switch d {
	case North:
		return l.AtOffset(0, -1)
	case South:
		return l.AtOffset(0, 1)
	case East:
		return l.AtOffset(1, 0)
	case West:
		return l.AtOffset(-1, 0)
	default:
		return l
	}
}

// String renders the location as "(col,row)".
func (l Location) String() string {
	return fmt.Sprintf("(%d,%d)", l.Col, l.Row)
}

// TileKind is the terrain of a grid cell.
type TileKind uint8

// Tile kinds.
const (
	Floor TileKind = iota
	Wall
	Exit
)

// Glyph returns the map character for the terrain.
func (k TileKind) Glyph() byte {
	switch k {
	case Wall:
		return '#'
	case Exit:
		return 'E'
	default:
		return '.'
	}
}

// Walkable reports whether a player may stand on the terrain.
func (k TileKind) Walkable() bool {
	return k != Wall
}

// Tile is one cell of the map. Item is item.None when the cell is empty.
//
// Invariant: an Exit or Wall tile never carries an item.
type Tile struct {
	Kind TileKind
	Item item.Kind
}

// HasItem reports whether an item lies on the tile.
func (t Tile) HasItem() bool {
	return t.Item != item.None
}

// Glyph renders the tile, the item glyph taking precedence over the terrain.
func (t Tile) Glyph() byte {
	if t.HasItem() {
		return t.Item.Glyph()
	}
	return t.Kind.Glyph()
}

// TileFromGlyph converts a map character into a Tile.
//
// Postcondition: Returns (tile, true) for '.', '#', 'E' and item glyphs; (Tile{}, false) otherwise.
func TileFromGlyph(glyph byte) (Tile, bool) {
	switch glyph {
	case '.':
		return Tile{Kind: Floor}, true
	case '#':
		return Tile{Kind: Wall}, true
	case 'E':
		return Tile{Kind: Exit}, true
	}
	if k, ok := item.FromGlyph(glyph); ok {
		return Tile{Kind: Floor, Item: k}, true
	}
	return Tile{}, false
}

var (
	// ErrOutOfBounds is returned when a location lies outside the grid.
	ErrOutOfBounds = errors.New("location out of bounds")
	// ErrUnplayable is returned when the map does not hold enough gold to reach the goal.
	ErrUnplayable = errors.New("not enough gold on the map to win")
)

// Map is the dungeon grid plus the gold goal.
//
// The terrain is immutable after construction; items may be removed and dropped.
// Map is not safe for concurrent use; the session serializes access.
type Map struct {
	name   string
	goal   int
	width  int
	height int
	tiles  [][]Tile
	// initial holds the item layout at construction for Reset.
	initial [][]item.Kind
}

// NewMap builds a Map from row-major tiles.
//
// Precondition: rows must be non-empty and rectangular.
// Postcondition: Returns a Map or an error; ErrUnplayable if RemainingGold() < goal.
func NewMap(name string, goal int, rows [][]Tile) (*Map, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("map must have at least one row and one column")
	}
	if goal < 0 {
		return nil, fmt.Errorf("map goal must be >= 0, got %d", goal)
	}
	width := len(rows[0])
	m := &Map{
		name:    name,
		goal:    goal,
		width:   width,
		height:  len(rows),
		tiles:   make([][]Tile, len(rows)),
		initial: make([][]item.Kind, len(rows)),
	}
	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has width %d, expected %d", r, len(row), width)
		}
		m.tiles[r] = make([]Tile, width)
		m.initial[r] = make([]item.Kind, width)
		for c, t := range row {
			if t.HasItem() && t.Kind != Floor {
				return nil, fmt.Errorf("item %s at %s must lie on a floor tile", t.Item, Location{Col: c, Row: r})
			}
			m.tiles[r][c] = t
			m.initial[r][c] = t.Item
		}
	}
	if gold := m.RemainingGold(); gold < goal {
		return nil, fmt.Errorf("%w: goal %d, gold %d", ErrUnplayable, goal, gold)
	}
	return m, nil
}

// Name returns the map name.
func (m *Map) Name() string { return m.name }

// Goal returns the gold required to win.
func (m *Map) Goal() int { return m.goal }

// Width returns the number of columns.
func (m *Map) Width() int { return m.width }

// Height returns the number of rows.
func (m *Map) Height() int { return m.height }

// InBounds reports whether loc lies on the grid.
func (m *Map) InBounds(loc Location) bool {
	return loc.Col >= 0 && loc.Col < m.width && loc.Row >= 0 && loc.Row < m.height
}

// TileAt returns the tile at loc.
//
// Postcondition: Returns ErrOutOfBounds if loc is outside the grid.
func (m *Map) TileAt(loc Location) (Tile, error) {
	if !m.InBounds(loc) {
		return Tile{}, fmt.Errorf("%w: %s", ErrOutOfBounds, loc)
	}
	return m.tiles[loc.Row][loc.Col], nil
}

// IsWalkable reports whether loc is on the grid and not a wall.
func (m *Map) IsWalkable(loc Location) bool {
	return m.InBounds(loc) && m.tiles[loc.Row][loc.Col].Kind.Walkable()
}

// IsExit reports whether loc is an exit tile.
func (m *Map) IsExit(loc Location) bool {
	return m.InBounds(loc) && m.tiles[loc.Row][loc.Col].Kind == Exit
}

// ItemAt returns the item lying at loc, if any.
func (m *Map) ItemAt(loc Location) (item.Kind, bool) {
	if !m.InBounds(loc) {
		return item.None, false
	}
	k := m.tiles[loc.Row][loc.Col].Item
	return k, k != item.None
}

// RemoveItem clears the item at loc.
//
// Postcondition: Returns an error if loc is out of bounds or holds no item.
func (m *Map) RemoveItem(loc Location) error {
	if !m.InBounds(loc) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, loc)
	}
	if !m.tiles[loc.Row][loc.Col].HasItem() {
		return fmt.Errorf("no item at %s", loc)
	}
	m.tiles[loc.Row][loc.Col].Item = item.None
	return nil
}

// DropItem places k at loc only when the cell is an empty floor tile.
//
// Postcondition: Returns true if the item was placed.
func (m *Map) DropItem(loc Location, k item.Kind) bool {
	if !m.InBounds(loc) || !k.Valid() {
		return false
	}
	t := &m.tiles[loc.Row][loc.Col]
	if t.HasItem() || t.Kind != Floor {
		return false
	}
	t.Item = k
	return true
}

// RemainingGold counts the gold items still lying on the map.
func (m *Map) RemainingGold() int {
	n := 0
	for _, row := range m.tiles {
		for _, t := range row {
			if t.Item == item.Gold {
				n++
			}
		}
	}
	return n
}

// Reset restores every item to its position at construction.
func (m *Map) Reset() {
	for r := range m.tiles {
		for c := range m.tiles[r] {
			m.tiles[r][c].Item = m.initial[r][c]
		}
	}
}

// Rows renders the full grid, one string per row.
func (m *Map) Rows() []string {
	out := make([]string, m.height)
	for r, row := range m.tiles {
		b := make([]byte, m.width)
		for c, t := range row {
			b[c] = t.Glyph()
		}
		out[r] = string(b)
	}
	return out
}
