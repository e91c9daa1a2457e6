// Package testutil provides a line protocol client for integration tests.
package testutil

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

// LineClient speaks the dungeon line protocol over TCP.
type LineClient struct {
	conn   net.Conn
	reader *bufio.Reader
	t      testing.TB
}

// NewLineClient dials addr and returns a connected client that is closed at
// test cleanup.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected LineClient or fails the test.
func NewLineClient(t testing.TB, addr string) *LineClient {
	t.Helper()
	start := time.Now()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", addr, err, time.Since(start))
	}
	t.Cleanup(func() { conn.Close() })

	return &LineClient{conn: conn, reader: bufio.NewReader(conn), t: t}
}

// ReadLine returns the next line without its terminator.
//
// Postcondition: Returns the line, or fails the test on timeout or EOF.
func (c *LineClient) ReadLine(timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	line, err := c.reader.ReadString('\n')
	if err != nil {
		c.t.Fatalf("reading line: got %q, error: %v", line, err)
	}
	return strings.TrimRight(line, "\r\n")
}

// ReadUntil reads lines until one satisfies match and returns every line read,
// the matching line last.
//
// Postcondition: Fails the test if no line matches before timeout.
func (c *LineClient) ReadUntil(match func(string) bool, timeout time.Duration) []string {
	c.t.Helper()
	deadline := time.Now().Add(timeout)
	var lines []string
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.t.Fatalf("no matching line before timeout; read %q", lines)
		}
		line := c.ReadLine(remaining)
		lines = append(lines, line)
		if match(line) {
			return lines
		}
	}
}

// ReadUntilLine reads until a line equal to want arrives.
func (c *LineClient) ReadUntilLine(want string, timeout time.Duration) []string {
	c.t.Helper()
	return c.ReadUntil(func(l string) bool { return l == want }, timeout)
}

// Send writes one command line terminated by \r\n.
//
// Precondition: text should not contain newline characters.
func (c *LineClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Closed reports whether the server has closed the connection, waiting up to
// timeout. Unread lines are discarded.
func (c *LineClient) Closed(timeout time.Duration) bool {
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	for {
		if _, err := c.reader.ReadString('\n'); err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return false
			}
			return true
		}
	}
}

// Close closes the underlying connection.
func (c *LineClient) Close() {
	c.conn.Close()
}
