package observability

import "go.uber.org/zap"

// GameFeed writes the session's public message stream to the log: every
// broadcast line and every game reset. It satisfies session.Observer.
type GameFeed struct {
	logger *zap.Logger
}

// NewGameFeed creates a GameFeed logging under the "feed" name.
//
// Precondition: logger must be non-nil.
func NewGameFeed(logger *zap.Logger) *GameFeed {
	return &GameFeed{logger: logger.Named("feed")}
}

// OnBroadcast logs a line sent to every player.
func (f *GameFeed) OnBroadcast(msg string) {
	f.logger.Info("broadcast", zap.String("msg", msg))
}

// OnReset logs the start of a new game.
func (f *GameFeed) OnReset(gameID string) {
	f.logger.Info("game reset", zap.String("game", gameID))
}
