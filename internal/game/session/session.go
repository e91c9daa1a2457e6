// Package session implements the authoritative turn engine for one dungeon
// game: the player roster, turn ownership, command effects and win, death and
// reset handling.
//
// Every exported method runs inside a single engine-wide critical section, so
// an ownership check, the command it guards, and the resulting advance or turn
// switch can never interleave with another connection's command.
package session

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dod/internal/game/dice"
	"github.com/cory-johannsen/dod/internal/game/player"
	"github.com/cory-johannsen/dod/internal/game/world"
)

// State is the coarse phase of a game.
type State int

const (
	// WaitingForPlayer means too few living players have joined for play to begin.
	WaitingForPlayer State = iota
	// InProgress means turns are being taken.
	InProgress
	// Concluded means a player has won. Only DIE and non-mutating commands remain useful.
	Concluded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case WaitingForPlayer:
		return "waiting"
	case InProgress:
		return "in_progress"
	case Concluded:
		return "concluded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Observer receives game-wide events, such as a server console feed.
//
// Observer methods are invoked inside the critical section and must not call
// back into the Session.
type Observer interface {
	OnBroadcast(msg string)
	OnReset(gameID string)
}

// Option configures a Session.
type Option func(*Session)

// WithSource sets the randomness used for spawns and attack rolls.
func WithSource(src dice.Source) Option {
	return func(s *Session) { s.src = src }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithMinPlayers sets how many living players must be registered before the
// first turn starts. Values below 1 are treated as 1.
func WithMinPlayers(n int) Option {
	return func(s *Session) { s.minPlayers = max(n, 1) }
}

// Session is one game on one map.
type Session struct {
	mu sync.Mutex

	// switching is set while turn ownership moves between players.
	switching atomic.Bool

	world      *world.Map
	players    []*player.Player
	current    int
	state      State
	winner     int
	gameID     uuid.UUID
	minPlayers int

	src      dice.Source
	roller   *dice.Roller
	logger   *zap.Logger
	observer Observer
}

// New creates a Session on m.
//
// Precondition: m must be non-nil and playable.
// Postcondition: The session is WaitingForPlayer with an empty roster.
func New(m *world.Map, opts ...Option) *Session {
	s := &Session{
		world:      m,
		winner:     -1,
		gameID:     uuid.New(),
		minPlayers: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.src == nil {
		s.src = dice.NewCryptoSource()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.roller = dice.NewLoggedRoller(s.src, s.logger)
	return s
}

// AddPlayer registers a new player controlled through l at a random free
// walkable location and returns its id. The first turn starts once enough
// living players are registered.
//
// Precondition: l must be non-nil.
// Postcondition: Returns ErrIllegalState if no free walkable tile remains.
func (s *Session) AddPlayer(l player.Listener) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recycleIfAbandoned()
	loc, err := s.spawnLocation()
	if err != nil {
		return 0, err
	}
	id := len(s.players)
	s.players = append(s.players, player.New(id, loc, l))
	s.logger.Info("player registered",
		zap.String("game", s.gameID.String()),
		zap.Int("player", id),
		zap.Stringer("location", loc),
	)
	s.maybeStart()
	return id, nil
}

// Hello sets the display name of player id.
//
// Postcondition: Returns ErrNameAlreadySet if the name was already chosen.
func (s *Session) Hello(id int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.player(id)
	if err != nil {
		return err
	}
	if err := p.SetName(name); err != nil {
		return ErrNameAlreadySet
	}
	return nil
}

// Name returns the display name of player id.
func (s *Session) Name(id int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.player(id)
	if err != nil {
		return "", err
	}
	return p.Name(), nil
}

// Goal returns the gold required to win.
func (s *Session) Goal() int { return s.world.Goal() }

// GameID returns the identifier of the current game. It changes on every reset.
func (s *Session) GameID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameID.String()
}

// State returns the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HasStarted reports whether turns are being taken or the game has concluded.
func (s *Session) HasStarted() bool {
	return s.State() != WaitingForPlayer
}

// IsGameOver reports whether a player has won.
func (s *Session) IsGameOver() bool {
	return s.State() == Concluded
}

// Winner returns the id of the winning player, if any.
func (s *Session) Winner() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner, s.winner >= 0
}

// IsPlayerTurn reports whether id currently owns the turn. It is false while
// a turn switch is underway.
func (s *Session) IsPlayerTurn(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isTurn(id)
}

// CurrentPlayer returns the id of the player whose turn it is.
//
// Postcondition: ok is false unless the game is InProgress.
func (s *Session) CurrentPlayer() (id int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.state == InProgress
}

// CheckTurn returns the reason id may not issue a mutating command right now,
// or nil if it may. Every mutating method repeats this check atomically.
func (s *Session) CheckTurn(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.gate(id)
	return err
}

// PlayerView is a read-only copy of one player's state.
type PlayerView struct {
	ID       int
	Name     string
	Location world.Location
	HP       int
	AP       int
	Gold     int
	Items    []string
	Dead     bool
	Departed bool
}

// Snapshot returns a copy of player id's state.
func (s *Session) Snapshot(id int) (PlayerView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.player(id)
	if err != nil {
		return PlayerView{}, err
	}
	v := PlayerView{
		ID:       p.ID(),
		Name:     p.Name(),
		Location: p.Location(),
		HP:       p.HP(),
		AP:       p.AP(),
		Gold:     p.Gold(),
		Dead:     p.IsDead(),
		Departed: p.Departed(),
	}
	for _, k := range p.Items() {
		v.Items = append(v.Items, k.String())
	}
	return v, nil
}

// PlayerCount returns the number of registered players, living or not.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// player resolves an id. Caller must hold s.mu.
func (s *Session) player(id int) (*player.Player, error) {
	if id < 0 || id >= len(s.players) {
		return nil, fmt.Errorf("%w: unknown player %d", ErrIllegalState, id)
	}
	return s.players[id], nil
}

// occupant returns the living player standing on loc. Caller must hold s.mu.
func (s *Session) occupant(loc world.Location) (*player.Player, bool) {
	for _, p := range s.players {
		if !p.IsDead() && p.Location() == loc {
			return p, true
		}
	}
	return nil, false
}

func (s *Session) livingCount() int {
	n := 0
	for _, p := range s.players {
		if !p.IsDead() {
			n++
		}
	}
	return n
}

// spawnLocation picks a random walkable tile not occupied by a living player.
func (s *Session) spawnLocation() (world.Location, error) {
	var free []world.Location
	for row := 0; row < s.world.Height(); row++ {
		for col := 0; col < s.world.Width(); col++ {
			loc := world.Location{Col: col, Row: row}
			if !s.world.IsWalkable(loc) {
				continue
			}
			if _, taken := s.occupant(loc); taken {
				continue
			}
			free = append(free, loc)
		}
	}
	if len(free) == 0 {
		return world.Location{}, fmt.Errorf("%w: no free tile available for the player to be placed", ErrIllegalState)
	}
	return free[s.roller.Intn("spawn", len(free)).Value], nil
}
