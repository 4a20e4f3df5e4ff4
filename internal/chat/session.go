package chat

import (
	"time"

	"github.com/infodancer/chatd/internal/server"
)

// SessionState represents the current state in the session lifecycle.
type SessionState int

const (
	// StateAccepted is the initial state after the connection is admitted.
	StateAccepted SessionState = iota

	// StateAuthenticating covers the username/password handshake.
	StateAuthenticating

	// StateActive is the chatting state after successful authentication.
	StateActive

	// StateRejected is a failed handshake; the connection is about to close.
	StateRejected

	// StateLeaving is the teardown path out of StateActive.
	StateLeaving

	// StateClosed is terminal; the endpoint has been closed.
	StateClosed
)

// String returns the string representation of the state.
func (s SessionState) String() string {
	switch s {
	case StateAccepted:
		return "ACCEPTED"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateActive:
		return "ACTIVE"
	case StateRejected:
		return "REJECTED"
	case StateLeaving:
		return "LEAVING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Session tracks one client connection through its lifecycle. It is owned by
// the single goroutine running the connection handler; other goroutines
// reach the session only through its connection's send guard.
type Session struct {
	state     SessionState
	conn      *server.Connection
	handle    Handle
	username  string
	createdAt time.Time
}

// NewSession creates a session for an admitted connection.
func NewSession(conn *server.Connection) *Session {
	return &Session{
		state:     StateAccepted,
		conn:      conn,
		createdAt: time.Now(),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return s.state
}

// Conn returns the session's endpoint.
func (s *Session) Conn() *server.Connection {
	return s.conn
}

// Handle returns the registry handle, valid once reserved.
func (s *Session) Handle() Handle {
	return s.handle
}

// Username returns the authenticated username, empty before StateActive.
func (s *Session) Username() string {
	return s.username
}

// beginAuth transitions into the handshake.
func (s *Session) beginAuth() {
	s.state = StateAuthenticating
}

// activate records the bound identity and enters StateActive.
func (s *Session) activate(handle Handle, username string) {
	s.handle = handle
	s.username = username
	s.state = StateActive
}

// reject marks a failed handshake.
func (s *Session) reject() {
	s.state = StateRejected
}

// leave begins teardown out of StateActive.
func (s *Session) leave() {
	s.state = StateLeaving
}

// close marks the session terminal.
func (s *Session) close() {
	s.state = StateClosed
}
