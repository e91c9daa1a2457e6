package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dod/internal/game/item"
	"github.com/cory-johannsen/dod/internal/game/world"
)

// Attack hit chance is hitChance in hitOutOf.
const (
	hitChance = 3
	hitOutOf  = 5
)

// Move steps player id one tile in dir at the cost of one action point.
//
// Postcondition: On error nothing changes. Fails with ErrBlocked for walls and
// the map edge, ErrOccupied for a living player.
func (s *Session) Move(id int, dir world.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.gateAP(id)
	if err != nil {
		return err
	}
	dest := p.Location().AtDirection(dir)
	if !s.world.IsWalkable(dest) {
		return ErrBlocked
	}
	if _, taken := s.occupant(dest); taken {
		return ErrOccupied
	}
	_ = p.ConsumeOneAP()
	p.SetLocation(dest)
	s.advance(p)
	return nil
}

// Attack strikes the living player adjacent in dir. Any attempt spends all
// remaining action points. A hit deals 1, plus 1 with a Sword, minus 1 against
// Armour.
//
// Postcondition: Fails with ErrNoTarget, changing nothing, when no living
// player is there. Fails with ErrMissed after the turn has been spent.
func (s *Session) Attack(id int, dir world.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.gateAP(id)
	if err != nil {
		return err
	}
	victim, ok := s.occupant(p.Location().AtDirection(dir))
	if !ok {
		return ErrNoTarget
	}
	p.ConsumeAllAP()

	if !s.roller.Chance("attack", hitChance, hitOutOf) {
		victim.SendMessage(MsgMissedYou)
		s.advance(p)
		return ErrMissed
	}

	damage := 1
	if p.HasItem(item.Sword) {
		damage++
	}
	if victim.HasItem(item.Armour) {
		damage--
	}
	victim.TakeDamage(damage)
	p.SendMessage(fmt.Sprintf("You hit your target for %d hp.", damage))
	if victim.IsDead() {
		s.world.DropItem(victim.Location(), item.Gold)
		s.logger.Info("player killed",
			zap.String("game", s.gameID.String()),
			zap.Int("player", victim.ID()),
			zap.Int("attacker", p.ID()),
		)
		p.SendMessage("The player has died")
		victim.SendMessage(MsgKilled)
	}
	s.advance(p)
	return nil
}

// Gift hands one gold to the living player adjacent in dir for one action
// point. If the receiver then meets the goal while standing on an exit, the
// receiver wins.
//
// Postcondition: On error nothing changes.
func (s *Session) Gift(id int, dir world.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.gateAP(id)
	if err != nil {
		return err
	}
	receiver, ok := s.occupant(p.Location().AtDirection(dir))
	if !ok {
		return ErrNoTarget
	}
	if p.Gold() <= 0 {
		return ErrNoGold
	}
	_ = p.ConsumeOneAP()
	p.AddGold(-1)
	receiver.AddGold(1)
	receiver.SendMessage("You were given 1 gold by " + p.Name())

	if receiver.HasRequiredGold(s.world.Goal()) && s.world.IsExit(receiver.Location()) {
		s.conclude(receiver, p)
		return nil
	}
	if p.AP() == 0 {
		s.switchTurn()
	}
	return nil
}

// Pickup takes the item lying under player id for one action point.
//
// Postcondition: On error nothing changes. Fails with ErrNothingToPickUp or
// ErrAlreadyHeld.
func (s *Session) Pickup(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.gateAP(id)
	if err != nil {
		return err
	}
	loc := p.Location()
	k, ok := s.world.ItemAt(loc)
	if !ok {
		return ErrNothingToPickUp
	}
	if p.HasItem(k) {
		return ErrAlreadyHeld
	}
	if err := p.GiveItem(k); err != nil {
		return ErrAlreadyHeld
	}
	if err := s.world.RemoveItem(loc); err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalState, err)
	}
	_ = p.ConsumeOneAP()
	switch k {
	case item.Armour:
		p.SendMessage("You equip Armour")
	case item.Sword:
		p.SendMessage("You equip Sword")
	}
	s.advance(p)
	return nil
}

// EndTurn gives up the remaining action points of player id.
func (s *Session) EndTurn(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.gate(id)
	if err != nil {
		return err
	}
	p.ConsumeAllAP()
	s.advance(p)
	return nil
}

// SetPosition teleports player id without spending action points or
// advancing the turn. It exists for debugging and scripted tests, so the
// target may hold another player.
//
// Postcondition: On error nothing changes.
func (s *Session) SetPosition(id, col, row int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.gate(id)
	if err != nil {
		return err
	}
	loc := world.Location{Col: col, Row: row}
	if !s.world.InBounds(loc) {
		return ErrInvalidPosition
	}
	if !s.world.IsWalkable(loc) {
		return ErrNotWalkable
	}
	p.SetLocation(loc)
	return nil
}

// Die removes player id from play: it is killed, drops gold, and the turn
// moves on if it held it. Repeated calls are no-ops. Disconnects use the same
// path.
func (s *Session) Die(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.player(id)
	if err != nil {
		return err
	}
	if p.Departed() {
		return nil
	}
	wasAlive := !p.IsDead()
	held := s.isTurn(id)
	p.MarkDeparted()
	s.logger.Info("player departed",
		zap.String("game", s.gameID.String()),
		zap.Int("player", id),
	)
	if wasAlive {
		p.Kill()
		if s.state == InProgress {
			s.world.DropItem(p.Location(), item.Gold)
		}
	}
	if held {
		s.switchTurn()
	}
	s.recycleIfAbandoned()
	return nil
}

// Shout broadcasts text prefixed with the speaker's name in brackets.
func (s *Session) Shout(id int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.player(id)
	if err != nil {
		return err
	}
	s.broadcast("[" + p.Name() + "] " + text)
	return nil
}

// Broadcast sends msg to every connected player and the observer.
func (s *Session) Broadcast(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcast(msg)
}

// LookAll sends every connected player a fresh visibility grid.
func (s *Session) LookAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookAll()
}

// Look renders the visibility grid of player id without sending it.
func (s *Session) Look(id int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.player(id)
	if err != nil {
		return nil, err
	}
	return s.render(p), nil
}
