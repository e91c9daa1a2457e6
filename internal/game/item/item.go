// Package item defines the closed set of dungeon items and their pickup effects.
package item

import "fmt"

// Kind identifies one of the fixed item types. The zero value None means "no item".
type Kind uint8

// Item kinds.
const (
	None Kind = iota
	Gold
	Sword
	Armour
	Lantern
	Health
)

// Effect is the instantaneous change a consumable item applies to its holder.
type Effect struct {
	Gold int
	HP   int
}

// def holds the static properties of an item kind.
type def struct {
	glyph      byte
	name       string
	retainable bool
	lookBonus  int
	effect     Effect
}

var defs = map[Kind]def{
	Gold:    {glyph: 'G', name: "gold", effect: Effect{Gold: 1}},
	Sword:   {glyph: 'S', name: "sword", retainable: true},
	Armour:  {glyph: 'A', name: "armour", retainable: true},
	Lantern: {glyph: 'L', name: "lantern", retainable: true, lookBonus: 1},
	Health:  {glyph: 'H', name: "health potion", effect: Effect{HP: 1}},
}

// All lists every real item kind in declaration order.
var All = []Kind{Gold, Sword, Armour, Lantern, Health}

// FromGlyph returns the item kind rendered as glyph.
//
// Postcondition: Returns (kind, true) for G, S, A, L, H; (None, false) otherwise.
func FromGlyph(glyph byte) (Kind, bool) {
	for _, k := range All {
		if defs[k].glyph == glyph {
			return k, true
		}
	}
	return None, false
}

// Glyph returns the map character for k, or 0 for None.
func (k Kind) Glyph() byte {
	return defs[k].glyph
}

// String returns the human readable item name.
func (k Kind) String() string {
	if d, ok := defs[k]; ok {
		return d.name
	}
	if k == None {
		return "none"
	}
	return fmt.Sprintf("item(%d)", uint8(k))
}

// Retainable reports whether the item is kept in the holder's inventory
// instead of being consumed on pickup.
func (k Kind) Retainable() bool {
	return defs[k].retainable
}

// LookBonus is the number of extra tiles of sight granted while holding k.
func (k Kind) LookBonus() int {
	return defs[k].lookBonus
}

// Effect returns the instantaneous pickup effect of a consumable item.
// Retainable items have a zero Effect.
func (k Kind) Effect() Effect {
	return defs[k].effect
}

// Valid reports whether k names a real item.
func (k Kind) Valid() bool {
	_, ok := defs[k]
	return ok
}
