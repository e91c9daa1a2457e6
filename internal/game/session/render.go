package session

import (
	"github.com/cory-johannsen/dod/internal/game/item"
	"github.com/cory-johannsen/dod/internal/game/look"
	"github.com/cory-johannsen/dod/internal/game/player"
)

// render builds viewer's visibility grid: a square of side 2*d+1 centred on
// the viewer, where d is its look distance. Caller must hold s.mu.
func (s *Session) render(viewer *player.Player) []string {
	d := viewer.LookDistance()
	rows := make([]string, 0, 2*d+1)
	for rowOff := -d; rowOff <= d; rowOff++ {
		line := make([]byte, 0, 2*d+1)
		for colOff := -d; colOff <= d; colOff++ {
			line = append(line, s.glyph(viewer, rowOff, colOff))
		}
		rows = append(rows, string(line))
	}
	return rows
}

func (s *Session) glyph(viewer *player.Player, rowOff, colOff int) byte {
	if !viewer.CanSee(rowOff, colOff) {
		return look.Hidden
	}
	loc := viewer.Location().AtOffset(colOff, rowOff)
	if !s.world.InBounds(loc) {
		return look.OutOfMap
	}
	if rowOff != 0 || colOff != 0 {
		if other, ok := s.occupant(loc); ok {
			return look.PlayerGlyph(s.world.IsExit(loc), other.HasItem(item.Armour))
		}
	}
	t, _ := s.world.TileAt(loc)
	return t.Glyph()
}
