package look

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dod/internal/game/world"
)

func TestParse(t *testing.T) {
	g, err := Parse([]string{"XX#XX", "X.G.X", "#.E.#", "X.P.X", "XX#XX"})
	require.NoError(t, err)
	assert.Equal(t, 5, g.Width())
	assert.Equal(t, 5, g.Height())
	assert.Equal(t, world.Location{Col: 2, Row: 2}, g.Center())
	assert.Equal(t, byte('E'), g.At(g.Center()))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(nil)
	assert.ErrorIs(t, err, ErrEmptyGrid)
	_, err = Parse([]string{"...", ".."})
	assert.Error(t, err)
}

func TestCenter_EvenSize(t *testing.T) {
	g := MustParse("....", "....", "....", "....")
	assert.Equal(t, world.Location{Col: 1, Row: 1}, g.Center())
}

func TestBlocks(t *testing.T) {
	for _, b := range []byte{Hidden, OutOfMap, Player, PlayerOnExit, ArmouredPlayer, ArmouredOnExit} {
		assert.True(t, Blocks(b), string(b))
	}
	for _, b := range []byte(".EGSALH") {
		assert.False(t, Blocks(b), string(b))
	}
}

func TestPlayerGlyph(t *testing.T) {
	assert.Equal(t, Player, PlayerGlyph(false, false))
	assert.Equal(t, PlayerOnExit, PlayerGlyph(true, false))
	assert.Equal(t, ArmouredPlayer, PlayerGlyph(false, true))
	assert.Equal(t, ArmouredOnExit, PlayerGlyph(true, true))
}

func TestGrid_AtOutsideIsHidden(t *testing.T) {
	g := MustParse("...")
	assert.Equal(t, Hidden, g.At(world.Location{Col: -1}))
	assert.True(t, g.Blocked(world.Location{Col: 3}))
	assert.False(t, g.Blocked(world.Location{Col: 1}))
}

func TestFindAndPlayers(t *testing.T) {
	g := MustParse("G.P", "QGK", "..R")
	assert.Equal(t, []world.Location{{Col: 0, Row: 0}, {Col: 1, Row: 1}}, g.Find('G'))
	assert.Len(t, g.Players(), 4)
}

func TestFormatReply(t *testing.T) {
	assert.Equal(t, "LOOKREPLY\n.#.\n...\nENDLOOKREPLY", FormatReply([]string{".#.", "..."}))
}
