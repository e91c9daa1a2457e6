package telnet

import (
	"bufio"
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dod/internal/config"
)

// echoHandler is a test SessionHandler that echoes lines back to the client.
type echoHandler struct {
	sessionCount atomic.Int32
}

func (h *echoHandler) HandleSession(ctx context.Context, conn *Conn) error {
	h.sessionCount.Add(1)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return err
		}
		if line == "DIE" {
			_ = conn.WriteLine("DIE bye")
			return nil
		}
		_ = conn.WriteLine("echo: " + line)
	}
}

func startAcceptor(t *testing.T, cfg config.TelnetConfig, h SessionHandler) (*Acceptor, chan error) {
	t.Helper()
	acc := NewAcceptor(cfg, h, zaptest.NewLogger(t))
	errCh := make(chan error, 1)
	go func() {
		errCh <- acc.ListenAndServe()
	}()
	select {
	case <-acc.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("acceptor did not start in time")
	}
	return acc, errCh
}

func testConfig() config.TelnetConfig {
	return config.TelnetConfig{
		Host:         "127.0.0.1",
		Port:         0,
		WriteTimeout: 5 * time.Second,
	}
}

func TestAcceptorStartAndStop(t *testing.T) {
	handler := &echoHandler{}
	acc, errCh := startAcceptor(t, testConfig(), handler)
	assert.True(t, acc.IsRunning())

	conn, err := net.DialTimeout("tcp", acc.Addr(), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, err = conn.Write([]byte("hello\n"))
	require.NoError(t, err)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "echo: hello\r\n", line, "no negotiation bytes by default")

	_, _ = conn.Write([]byte("DIE\n"))
	line, _ = r.ReadString('\n')
	assert.Equal(t, "DIE bye\r\n", line)

	acc.Stop()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("acceptor did not stop in time")
	}
	assert.False(t, acc.IsRunning())
	assert.Equal(t, int32(1), handler.sessionCount.Load())
}

func TestAcceptorNegotiates(t *testing.T) {
	cfg := testConfig()
	cfg.Negotiate = true
	acc, _ := startAcceptor(t, cfg, &echoHandler{})
	defer acc.Stop()

	conn, err := net.DialTimeout("tcp", acc.Addr(), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	buf := make([]byte, 3)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{IAC, WILL, OptSuppressGoAhead}, buf)
}

func TestAcceptorStopCancelsIdleSessions(t *testing.T) {
	handler := &echoHandler{}
	acc, errCh := startAcceptor(t, testConfig(), handler)

	const numClients = 3
	for i := 0; i < numClients; i++ {
		conn, err := net.DialTimeout("tcp", acc.Addr(), 2*time.Second)
		require.NoError(t, err)
		defer conn.Close()
	}
	require.Eventually(t, func() bool {
		return handler.sessionCount.Load() == numClients
	}, 2*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		acc.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked on idle sessions")
	}
	assert.NoError(t, <-errCh)
}

func TestAcceptorListenError(t *testing.T) {
	cfg := testConfig()
	cfg.Host = "256.0.0.1"
	acc := NewAcceptor(cfg, &echoHandler{}, zaptest.NewLogger(t))
	assert.Error(t, acc.ListenAndServe())
	acc.Stop()
}

func TestAcceptorStopBeforeListen(t *testing.T) {
	acc := NewAcceptor(testConfig(), &echoHandler{}, zaptest.NewLogger(t))
	acc.Stop()
	acc.Stop()
	assert.NoError(t, acc.ListenAndServe())
	assert.False(t, acc.IsRunning())
}
