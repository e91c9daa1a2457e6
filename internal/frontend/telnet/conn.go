// Package telnet provides the line protocol TCP transport. Plain protocol
// clients and interactive telnet clients share one listener; telnet IAC
// sequences are stripped from input.
package telnet

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// RFC 854 command bytes understood on input.
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	SE   byte = 240

	OptSuppressGoAhead byte = 3
)

// MaxLineLength bounds a single inbound protocol line.
const MaxLineLength = 4096

// ErrLineTooLong is returned by ReadLine for a line over MaxLineLength.
var ErrLineTooLong = errors.New("line too long")

// Conn frames a TCP connection into protocol lines.
// Writes are safe for concurrent use; reads are not.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
	closed sync.Once

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps a raw TCP connection.
//
// Precondition: raw must be a valid, open network connection.
// Postcondition: Returns a Conn ready for reading and writing.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate asks an interactive telnet client to suppress go-ahead.
//
// Postcondition: Negotiation bytes are written to the connection.
func (c *Conn) Negotiate() error {
	return c.Write([]byte{IAC, WILL, OptSuppressGoAhead})
}

// ReadLine returns the next line without its terminator. Lines may end in
// \n, \r\n or a bare \r; IAC sequences and control bytes other than tab are
// dropped.
//
// A line longer than MaxLineLength is consumed through its terminator and
// reported as ErrLineTooLong; the connection remains usable.
//
// Postcondition: Returns the next line, ErrLineTooLong, or the read error
// (io.EOF on hangup).
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	var line strings.Builder
	overflow := false
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			if overflow {
				return "", err
			}
			return line.String(), err
		}

		if b == IAC {
			if err := c.handleIAC(); err != nil {
				return line.String(), err
			}
			continue
		}

		if b == '\n' {
			break
		}
		if b == '\r' {
			next, err := c.reader.Peek(1)
			if err == nil && len(next) > 0 && next[0] == '\n' {
				_, _ = c.reader.ReadByte()
			}
			break
		}

		if b < 32 && b != '\t' {
			continue
		}
		if line.Len() >= MaxLineLength {
			overflow = true
			continue
		}
		line.WriteByte(b)
	}

	if overflow {
		return "", ErrLineTooLong
	}
	return line.String(), nil
}

// handleIAC consumes a Telnet command after the initial IAC byte.
func (c *Conn) handleIAC() error {
	cmd, err := c.reader.ReadByte()
	if err != nil {
		return err
	}

	switch cmd {
	case WILL, WONT, DO, DONT:
		_, err := c.reader.ReadByte()
		return err
	case SB:
		for {
			b, err := c.reader.ReadByte()
			if err != nil {
				return err
			}
			if b != IAC {
				continue
			}
			next, err := c.reader.ReadByte()
			if err != nil {
				return err
			}
			if next == SE {
				return nil
			}
		}
	}
	// Escaped IAC, NOP, GA and the rest carry no text.
	return nil
}

// WriteLine sends text terminated by \r\n. A multi-line message, such as a
// LOOKREPLY block, goes out in one write as consecutive \r\n lines.
func (c *Conn) WriteLine(text string) error {
	return c.Write([]byte(strings.ReplaceAll(text, "\n", "\r\n") + "\r\n"))
}

// Write sends raw bytes to the client.
//
// Postcondition: The data is written to the connection.
func (c *Conn) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if _, err := c.raw.Write(data); err != nil {
		return fmt.Errorf("writing to %s: %w", c.raw.RemoteAddr(), err)
	}
	return nil
}

// Close closes the underlying TCP connection. Later calls return nil.
func (c *Conn) Close() error {
	var err error
	c.closed.Do(func() { err = c.raw.Close() })
	return err
}

// RemoteAddr returns the remote network address of the client.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}
