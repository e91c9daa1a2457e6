package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dod/internal/game/look"
)

// fakeConn records sent lines; tests feed inbound lines through in.
type fakeConn struct {
	in   chan string
	mu   sync.Mutex
	sent []string
	gone bool
}

func newFakeConn() *fakeConn { return &fakeConn{in: make(chan string, 32)} }

func (f *fakeConn) ID() int { return 7 }
func (f *fakeConn) Events() <-chan string { return f.in }

func (f *fakeConn) Handle(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, line)
}

func (f *fakeConn) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gone = true
}

func (f *fakeConn) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeConn) disconnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gone
}

func startController(t *testing.T, conn Conn, p Policy) (*Controller, context.CancelFunc) {
	t.Helper()
	ctrl := NewController("tester", conn, p, time.Millisecond, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	go ctrl.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-ctrl.Done()
	})
	return ctrl, cancel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, time.Millisecond)
}

func countDecisions(p *countingPolicy) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type countingPolicy struct {
	mu    sync.Mutex
	calls int
	reply string
}

func (c *countingPolicy) Decide(*State) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.reply
}

var window = look.FormatReply([]string{"...", "...", "..."})

func TestController_IntroducesItself(t *testing.T) {
	conn := newFakeConn()
	startController(t, conn, &countingPolicy{reply: "ENDTURN"})
	waitFor(t, func() bool { return len(conn.lines()) >= 2 })
	assert.Equal(t, []string{"HELLO tester", "LOOK"}, conn.lines()[:2])
}

func TestController_DecidesOncePerWindow(t *testing.T) {
	conn := newFakeConn()
	p := &countingPolicy{reply: "MOVE N"}
	startController(t, conn, p)

	conn.in <- "STARTTURN"
	conn.in <- window
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, countDecisions(p), "no goal yet")

	conn.in <- "GOAL 2"
	waitFor(t, func() bool { return countDecisions(p) == 1 })
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, countDecisions(p), "stale window is not acted on twice")

	conn.in <- window
	waitFor(t, func() bool { return countDecisions(p) == 2 })
	assert.Equal(t, "MOVE N", conn.lines()[len(conn.lines())-1])
}

func TestController_WaitsForTurn(t *testing.T) {
	conn := newFakeConn()
	p := &countingPolicy{reply: "MOVE N"}
	startController(t, conn, p)

	conn.in <- "GOAL 1"
	conn.in <- window
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, countDecisions(p))

	conn.in <- "STARTTURN"
	waitFor(t, func() bool { return countDecisions(p) == 1 })

	conn.in <- "ENDTURN"
	conn.in <- window
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, countDecisions(p))
}

func TestController_EndsTurnAfterFailure(t *testing.T) {
	conn := newFakeConn()
	p := &countingPolicy{reply: "MOVE N"}
	startController(t, conn, p)

	conn.in <- "GOAL 1"
	conn.in <- "STARTTURN"
	conn.in <- window
	waitFor(t, func() bool { return countDecisions(p) == 1 })

	conn.in <- "FAIL can't move into a wall"
	waitFor(t, func() bool {
		l := conn.lines()
		return l[len(l)-1] == "ENDTURN"
	})
	assert.Equal(t, 1, countDecisions(p))
}

func TestController_TracksGold(t *testing.T) {
	conn := newFakeConn()
	var seen []int
	var mu sync.Mutex
	p := PolicyFunc(func(s *State) string {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Gold)
		return "ENDTURN"
	})
	startController(t, conn, p)

	conn.in <- "GOAL 3"
	conn.in <- "TREASUREMOD 1"
	conn.in <- "TREASUREMOD 1"
	conn.in <- "TREASUREMOD -1"
	conn.in <- "STARTTURN"
	conn.in <- window
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	})
	assert.Equal(t, []int{1}, seen)
}

func TestController_StopsOnDie(t *testing.T) {
	conn := newFakeConn()
	ctrl, _ := startController(t, conn, &countingPolicy{reply: "ENDTURN"})

	conn.in <- "DIE You Lost"
	select {
	case <-ctrl.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not stop")
	}
	assert.True(t, conn.disconnected())
}

func TestController_StopsOnCancel(t *testing.T) {
	conn := newFakeConn()
	ctrl, cancel := startController(t, conn, &countingPolicy{reply: "ENDTURN"})
	cancel()
	select {
	case <-ctrl.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not stop")
	}
	assert.True(t, conn.disconnected())
}

func TestNewController_PanicsOnZeroInterval(t *testing.T) {
	assert.Panics(t, func() {
		NewController("x", newFakeConn(), &countingPolicy{}, 0, zaptest.NewLogger(t))
	})
}
