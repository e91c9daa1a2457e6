// Package websocket serves the line protocol over WebSocket text frames,
// one protocol line per frame.
package websocket

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
)

const (
	// MaxLineLength bounds a single inbound protocol line.
	MaxLineLength = 4096
	// MaxMessageSize bounds one inbound frame. A larger frame fails the
	// connection.
	MaxMessageSize = 64 * 1024
)

// ErrLineTooLong is returned by ReadLine for a line over MaxLineLength.
var ErrLineTooLong = errors.New("line too long")

// Conn adapts a WebSocket connection to the line protocol.
//
// Inbound frames are split on newlines so a client may batch commands.
// Reads must happen on one goroutine; writes may come from any.
type Conn struct {
	ws           *gws.Conn
	writeTimeout time.Duration

	pending []string
	writeMu sync.Mutex
	once    sync.Once
}

// NewConn wraps ws. A zero writeTimeout disables write deadlines.
func NewConn(ws *gws.Conn, writeTimeout time.Duration) *Conn {
	ws.SetReadLimit(MaxMessageSize)
	return &Conn{ws: ws, writeTimeout: writeTimeout}
}

// ReadLine returns the next inbound line with trailing whitespace removed.
//
// A line over MaxLineLength is dropped and reported as ErrLineTooLong; the
// connection remains usable.
//
// Postcondition: Returns io.EOF when the peer closes cleanly, or another
// non-nil error once the connection fails or is closed locally.
func (c *Conn) ReadLine() (string, error) {
	for len(c.pending) == 0 {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if gws.IsCloseError(err, gws.CloseNormalClosure, gws.CloseGoingAway, gws.CloseNoStatusReceived) {
				return "", io.EOF
			}
			return "", fmt.Errorf("reading frame: %w", err)
		}
		if kind != gws.TextMessage {
			continue
		}
		text := strings.ReplaceAll(string(data), "\r\n", "\n")
		text = strings.TrimSuffix(text, "\n")
		c.pending = strings.Split(text, "\n")
	}
	line := strings.TrimRight(c.pending[0], " \t\r")
	c.pending = c.pending[1:]
	if len(line) > MaxLineLength {
		return "", ErrLineTooLong
	}
	return line, nil
}

// WriteLine sends text as one text frame per line.
func (c *Conn) WriteLine(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	for _, line := range strings.Split(text, "\n") {
		if c.writeTimeout > 0 {
			if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return fmt.Errorf("setting write deadline: %w", err)
			}
		}
		if err := c.ws.WriteMessage(gws.TextMessage, []byte(line)); err != nil {
			return fmt.Errorf("writing frame: %w", err)
		}
	}
	return nil
}

// Close sends a close frame and closes the underlying connection. It is safe
// to call more than once.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		_ = c.ws.WriteControl(gws.CloseMessage,
			gws.FormatCloseMessage(gws.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}
