package server

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
)

// Connection wraps a client stream with buffered line I/O.
//
// Reads are owned by a single session goroutine. Writes may come from any
// goroutine (broadcast fan-out), so Send serialises on a per-connection
// mutex: each Send is atomic on the stream and concurrent broadcasters never
// interleave bytes.
type Connection struct {
	conn    net.Conn
	reader  *bufio.Reader
	maxLine int

	sendMu sync.Mutex
	writer *bufio.Writer

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewConnection creates a Connection over the given stream. maxLine caps the
// length of a single received line in bytes; longer input is split at the cap.
func NewConnection(conn net.Conn, maxLine int) *Connection {
	return &Connection{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		writer:  bufio.NewWriter(conn),
		maxLine: maxLine,
	}
}

// ReadLine reads one LF-terminated line and returns it without the trailing
// LF (and CR, if present). A line longer than maxLine is returned in maxLine
// sized pieces; the remainder becomes the next line. Partial input before an
// EOF or read error is discarded and the error returned.
func (c *Connection) ReadLine() (string, error) {
	buf := make([]byte, 0, 64)
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			break
		}
		buf = append(buf, b)
		if len(buf) >= c.maxLine {
			break
		}
	}
	if n := len(buf); n > 0 && buf[n-1] == '\r' {
		buf = buf[:n-1]
	}
	return string(buf), nil
}

// Send writes s to the stream and flushes. Sends from concurrent goroutines
// are serialised; a failed send marks the connection closed so later sends
// fail fast without touching the stream.
func (c *Connection) Send(s string) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed.Load() {
		return net.ErrClosed
	}

	if _, err := c.writer.WriteString(s); err != nil {
		c.closed.Store(true)
		return err
	}
	if err := c.writer.Flush(); err != nil {
		c.closed.Store(true)
		return err
	}
	return nil
}

// Close closes the underlying stream. Safe to call from any goroutine and
// idempotent; the session's next read observes the close as an error.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// IsClosed reports whether the connection has been closed or has observed a
// send failure.
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

// RemoteAddr returns the remote address of the connection.
func (c *Connection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
