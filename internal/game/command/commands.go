// Package command implements the line protocol: parsing, the command registry,
// and the per-connection Client that turns lines into session operations and
// engine notifications into outbound lines.
package command

// Categories for organizing commands.
const (
	CategoryAction        = "action"
	CategoryWorld         = "world"
	CategoryCommunication = "communication"
	CategorySystem        = "system"
	CategoryDebug         = "debug"
)

// Handler identifiers mapping commands to session operations.
const (
	HandlerHello   = "hello"
	HandlerLook    = "look"
	HandlerShout   = "shout"
	HandlerDie     = "die"
	HandlerPickup  = "pickup"
	HandlerMove    = "move"
	HandlerAttack  = "attack"
	HandlerGift    = "gift"
	HandlerEndTurn = "endturn"
	HandlerSetPos  = "setplayerpos"
)

// Command defines a client-invocable command.
type Command struct {
	// Name is the canonical, uppercase keyword.
	Name string
	// Aliases are alternate keywords for this command.
	Aliases []string
	// Help is the short usage text.
	Help string
	// Category groups the command.
	Category string
	// Handler selects the processing function.
	Handler string
	// Gated commands mutate the game and require the sender to own the turn.
	Gated bool
}

// BuiltinCommands returns every protocol command.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "HELLO", Help: "HELLO <name>: choose your name", Category: CategorySystem, Handler: HandlerHello},
		{Name: "LOOK", Help: "LOOK: refresh everyone's view", Category: CategoryWorld, Handler: HandlerLook},
		{Name: "SHOUT", Help: "SHOUT <text>: message every player", Category: CategoryCommunication, Handler: HandlerShout},
		{Name: "DIE", Aliases: []string{"QUIT"}, Help: "DIE: leave the game", Category: CategorySystem, Handler: HandlerDie},
		{Name: "PICKUP", Help: "PICKUP: take the item underfoot", Category: CategoryAction, Handler: HandlerPickup, Gated: true},
		{Name: "MOVE", Help: "MOVE <N|S|E|W>: step one tile", Category: CategoryAction, Handler: HandlerMove, Gated: true},
		{Name: "ATTACK", Help: "ATTACK <N|S|E|W>: strike an adjacent player", Category: CategoryAction, Handler: HandlerAttack, Gated: true},
		{Name: "GIFT", Help: "GIFT <N|S|E|W>: hand one gold to an adjacent player", Category: CategoryAction, Handler: HandlerGift, Gated: true},
		{Name: "ENDTURN", Help: "ENDTURN: give up your remaining action points", Category: CategoryAction, Handler: HandlerEndTurn, Gated: true},
		{Name: "SETPLAYERPOS", Help: "SETPLAYERPOS <col> <row>: teleport", Category: CategoryDebug, Handler: HandlerSetPos, Gated: true},
	}
}
