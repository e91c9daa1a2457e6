package session

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dod/internal/game/item"
	"github.com/cory-johannsen/dod/internal/game/player"
)

// Notification lines the engine sends verbatim.
const (
	MsgWon       = "DIE You Won!"
	MsgLost      = "DIE You Lost"
	MsgGaveUp    = "DIE YOU GAVE UP THE GAME"
	MsgKilled    = "DIE You were killed by a player"
	MsgMissedYou = "A player tried and failed to hit you"
)

// isTurn reports whether id owns the turn. Caller must hold s.mu.
func (s *Session) isTurn(id int) bool {
	return !s.switching.Load() && s.state == InProgress && id == s.current
}

// gate resolves id and verifies it may issue a mutating command.
// Caller must hold s.mu.
func (s *Session) gate(id int) (*player.Player, error) {
	p, err := s.player(id)
	if err != nil {
		return nil, err
	}
	switch s.state {
	case WaitingForPlayer:
		return nil, ErrGameNotStarted
	case Concluded:
		return nil, ErrGameOver
	}
	if !s.isTurn(id) {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// gateAP is gate plus a remaining action point check.
func (s *Session) gateAP(id int) (*player.Player, error) {
	p, err := s.gate(id)
	if err != nil {
		return nil, err
	}
	if p.AP() == 0 {
		return nil, ErrNoActionPoints
	}
	return p, nil
}

// advance runs the win, death and exhaustion checks for the acting player.
// It runs at most once per command.
func (s *Session) advance(p *player.Player) {
	if p.HasRequiredGold(s.world.Goal()) && s.world.IsExit(p.Location()) {
		s.conclude(p, nil)
		return
	}
	if p.IsDead() {
		s.world.DropItem(p.Location(), item.Gold)
		s.switchTurn()
		return
	}
	if p.AP() == 0 {
		s.switchTurn()
	}
}

// conclude ends the game as a win for winner. giver, if non-nil, handed over
// the winning gold and is told so instead of being told it lost.
func (s *Session) conclude(winner, giver *player.Player) {
	s.state = Concluded
	s.winner = winner.ID()
	s.logger.Info("game won",
		zap.String("game", s.gameID.String()),
		zap.Int("player", winner.ID()),
		zap.String("name", winner.Name()),
	)
	s.lookAll()
	winner.Win()
	for _, p := range s.players {
		if p == winner || p.Departed() || p.IsDead() {
			continue
		}
		if p == giver {
			p.SendMessage(MsgGaveUp)
			continue
		}
		p.SendMessage(MsgLost)
	}
}

// switchTurn hands the turn to the next living player in roster order,
// wrapping around, or resets the game when nobody is left alive.
func (s *Session) switchTurn() {
	if s.livingCount() == 0 {
		s.reset()
		return
	}
	s.switching.Store(true)
	defer s.switching.Store(false)

	s.players[s.current].EndTurn()
	next := s.current
	for {
		next = (next + 1) % len(s.players)
		if !s.players[next].IsDead() {
			break
		}
	}
	s.current = next
	s.players[next].StartTurn()
	s.logger.Debug("turn switched",
		zap.String("game", s.gameID.String()),
		zap.Int("player", next),
	)
}

// reset returns the session to a fresh game on the same roster: items are
// restored, connected players are revived at new spawn points, and departed
// players stay dead.
func (s *Session) reset() {
	previous := s.gameID
	s.world.Reset()
	s.state = WaitingForPlayer
	s.winner = -1
	s.current = 0
	s.gameID = uuid.New()

	for _, p := range s.players {
		if p.Departed() {
			continue
		}
		loc, err := s.spawnLocation()
		if err != nil {
			s.logger.Error("reviving player", zap.Int("player", p.ID()), zap.Error(err))
			continue
		}
		p.Reset(loc)
	}
	s.logger.Info("game reset",
		zap.String("previous", previous.String()),
		zap.String("game", s.gameID.String()),
	)
	if s.observer != nil {
		s.observer.OnReset(s.gameID.String())
	}
	s.maybeStart()
}

// maybeStart begins the first turn once enough living players are registered.
func (s *Session) maybeStart() {
	if s.state != WaitingForPlayer || s.livingCount() < s.minPlayers {
		return
	}
	for i, p := range s.players {
		if !p.IsDead() {
			s.current = i
			break
		}
	}
	s.state = InProgress
	s.logger.Info("game started",
		zap.String("game", s.gameID.String()),
		zap.Int("player", s.current),
	)
	s.players[s.current].StartTurn()
}

// recycleIfAbandoned resets a concluded game once every player has left.
func (s *Session) recycleIfAbandoned() {
	if s.state != Concluded {
		return
	}
	for _, p := range s.players {
		if !p.Departed() {
			return
		}
	}
	s.reset()
}

// lookAll sends every connected player a fresh visibility grid.
func (s *Session) lookAll() {
	for _, p := range s.players {
		if !p.Departed() {
			p.Look(s.render(p))
		}
	}
}

// broadcast sends msg to the observer and every connected player.
func (s *Session) broadcast(msg string) {
	if s.observer != nil {
		s.observer.OnBroadcast(msg)
	}
	for _, p := range s.players {
		if !p.Departed() {
			p.SendMessage(msg)
		}
	}
}
