// Package player models a dungeon player: position, hit points, action points,
// gold and retained items, plus the Listener capability through which the
// engine pushes notifications to whatever transport controls the player.
package player

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dod/internal/game/item"
	"github.com/cory-johannsen/dod/internal/game/world"
)

// Player tuning constants.
const (
	StartingHP       = 3
	BaseAP           = 6
	APPenaltyPerItem = 1
	BaseLookDistance = 2
)

var (
	// ErrAlreadyHeld is returned when picking up a retainable kind already in the inventory.
	ErrAlreadyHeld = errors.New("already have item")
	// ErrNoActionPoints is returned when an action is attempted with zero AP.
	ErrNoActionPoints = errors.New("no action points left")
	// ErrNameAlreadySet is returned when the name has already been changed from its default.
	ErrNameAlreadySet = errors.New("player's name already set")
)

// Listener receives engine notifications for a single player.
//
// Implementations are invoked while the engine holds its critical section and
// must not call back into the engine synchronously.
type Listener interface {
	SendMessage(msg string)
	StartTurn()
	EndTurn()
	Win()
	HPChange(delta int)
	TreasureChange(delta int)
	Damage(amount int)
	Look(rows []string)
}

// Player is the engine's representation of one participant.
//
// Player is not safe for concurrent use; the session serializes access.
type Player struct {
	id          int
	name        string
	defaultName bool
	loc         world.Location
	hp          int
	ap          int
	gold        int
	items       map[item.Kind]bool
	departed    bool
	listener    Listener
}

// New creates a player with full hit points and no items.
//
// Precondition: listener must be non-nil.
func New(id int, loc world.Location, listener Listener) *Player {
	p := &Player{
		id:       id,
		listener: listener,
	}
	p.Reset(loc)
	return p
}

// Reset returns the player to its freshly-registered state at loc.
// The chosen name and the departed flag are kept.
func (p *Player) Reset(loc world.Location) {
	if p.name == "" {
		p.name = fmt.Sprintf("Player %d", p.id)
		p.defaultName = true
	}
	p.loc = loc
	p.hp = StartingHP
	p.gold = 0
	p.items = make(map[item.Kind]bool)
	p.ap = p.APCapacity()
}

// ID returns the stable roster id.
func (p *Player) ID() int { return p.id }

// Name returns the display name.
func (p *Player) Name() string { return p.name }

// SetName changes the name exactly once from its default.
//
// Postcondition: Returns ErrNameAlreadySet if a name was already chosen.
func (p *Player) SetName(name string) error {
	if !p.defaultName {
		return ErrNameAlreadySet
	}
	p.name = name
	p.defaultName = false
	return nil
}

// Location returns the current location.
func (p *Player) Location() world.Location { return p.loc }

// SetLocation moves the player without any cost.
func (p *Player) SetLocation(loc world.Location) { p.loc = loc }

// HP returns the current hit points. It may be negative.
func (p *Player) HP() int { return p.hp }

// AP returns the remaining action points.
func (p *Player) AP() int { return p.ap }

// Gold returns the gold carried.
func (p *Player) Gold() int { return p.gold }

// IsDead reports whether hit points are at or below zero.
func (p *Player) IsDead() bool { return p.hp <= 0 }

// Departed reports whether the controlling connection has left the game.
func (p *Player) Departed() bool { return p.departed }

// MarkDeparted records that the controlling connection has left.
func (p *Player) MarkDeparted() { p.departed = true }

// Kill drops hit points to zero without notifying the listener.
func (p *Player) Kill() { p.hp = 0 }

// HasItem reports whether a retainable kind is held.
func (p *Player) HasItem(k item.Kind) bool { return p.items[k] }

// Items returns the held item kinds in item.All order.
func (p *Player) Items() []item.Kind {
	var out []item.Kind
	for _, k := range item.All {
		if p.items[k] {
			out = append(out, k)
		}
	}
	return out
}

// GiveItem applies a picked-up item: consumables apply their effect,
// retainables are added to the inventory.
//
// Postcondition: Returns ErrAlreadyHeld, leaving the player unchanged, if k is already held.
func (p *Player) GiveItem(k item.Kind) error {
	if p.HasItem(k) {
		return ErrAlreadyHeld
	}
	if k.Retainable() {
		p.items[k] = true
		return nil
	}
	eff := k.Effect()
	if eff.Gold != 0 {
		p.AddGold(eff.Gold)
	}
	if eff.HP != 0 {
		p.IncrementHealth(eff.HP)
	}
	return nil
}

// AddGold changes the gold count by delta and notifies the listener.
func (p *Player) AddGold(delta int) {
	p.gold += delta
	p.listener.TreasureChange(delta)
}

// IncrementHealth adds hit points and notifies the listener.
func (p *Player) IncrementHealth(delta int) {
	p.hp += delta
	p.listener.HPChange(delta)
}

// TakeDamage subtracts amount from hit points without clamping.
func (p *Player) TakeDamage(amount int) {
	p.hp -= amount
	p.listener.Damage(amount)
}

// HasRequiredGold reports whether the carried gold meets goal.
func (p *Player) HasRequiredGold(goal int) bool { return p.gold >= goal }

// LookDistance is the base sight plus every held item's bonus.
func (p *Player) LookDistance() int {
	d := BaseLookDistance
	for k, held := range p.items {
		if held {
			d += k.LookBonus()
		}
	}
	return d
}

// CanSee reports whether a cell at the given offset is inside the visible
// diamond: Manhattan distance at most LookDistance()+1.
func (p *Player) CanSee(rowOffset, colOffset int) bool {
	return abs(rowOffset)+abs(colOffset) <= p.LookDistance()+1
}

// APCapacity is the action points granted at the start of a turn.
func (p *Player) APCapacity() int {
	ap := BaseAP - APPenaltyPerItem*len(p.Items())
	if ap < 0 {
		return 0
	}
	return ap
}

// ConsumeOneAP spends a single action point.
//
// Postcondition: Returns ErrNoActionPoints, leaving AP at 0, if none remain.
func (p *Player) ConsumeOneAP() error {
	if p.ap <= 0 {
		return ErrNoActionPoints
	}
	p.ap--
	return nil
}

// ConsumeAllAP zeroes the action points.
func (p *Player) ConsumeAllAP() { p.ap = 0 }

// StartTurn refills action points and notifies the listener.
func (p *Player) StartTurn() {
	p.ap = p.APCapacity()
	p.listener.StartTurn()
}

// EndTurn zeroes action points and notifies the listener.
func (p *Player) EndTurn() {
	p.ap = 0
	p.listener.EndTurn()
}

// Win notifies the listener of victory.
func (p *Player) Win() { p.listener.Win() }

// SendMessage forwards free text to the listener.
func (p *Player) SendMessage(msg string) { p.listener.SendMessage(msg) }

// Look forwards a rendered visibility grid to the listener.
func (p *Player) Look(rows []string) { p.listener.Look(rows) }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
