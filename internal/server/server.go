package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/infodancer/chatd/internal/logging"
)

// fullMessage is sent to a connection rejected at capacity. A connection
// beyond max_clients is turned away immediately rather than queued.
const fullMessage = "Server full. Try again later.\n"

// ConnectionHandler processes a single accepted connection. It runs in its
// own goroutine and must return when the connection is closed.
type ConnectionHandler func(ctx context.Context, conn *Connection)

// Server owns the TCP listener and the admission control for the chat
// service. It accepts connections, enforces the session limit, and drives
// the shutdown drain: stop accepting, run the drain hook, close every open
// endpoint, wait for all handlers to return.
type Server struct {
	addr    string
	maxLine int
	limiter *ConnectionLimiter
	logger  *slog.Logger

	handler ConnectionHandler
	onDrain func()

	mu       sync.Mutex
	listener net.Listener
	conns    map[*Connection]struct{}
	wg       sync.WaitGroup
}

// Config holds configuration for creating a new Server.
type Config struct {
	Address    string
	MaxClients int
	MaxLine    int
	Logger     *slog.Logger
}

// New creates a new Server with the given configuration.
func New(sc Config) *Server {
	logger := sc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		addr:    sc.Address,
		maxLine: sc.MaxLine,
		limiter: NewConnectionLimiter(sc.MaxClients),
		logger:  logger,
		conns:   make(map[*Connection]struct{}),
	}
}

// SetHandler sets the connection handler. Must be called before Run.
func (s *Server) SetHandler(handler ConnectionHandler) {
	s.handler = handler
}

// SetDrainHook sets a function invoked once during shutdown, after the
// listener stops accepting and before open endpoints are closed. The chat
// layer uses it to broadcast the shutdown notice while sessions are still
// writable.
func (s *Server) SetDrainHook(fn func()) {
	s.onDrain = fn
}

// Addr returns the bound listener address. Valid only while Run is active;
// useful when listening on port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Limiter returns the server's connection limiter.
func (s *Server) Limiter() *ConnectionLimiter {
	return s.limiter
}

// Run binds the listener and serves connections until the context is
// cancelled, then drains. A bind or listen failure is returned immediately
// and is fatal to the caller.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("listening", slog.String("address", ln.Addr().String()))

	// Cancellation closes the listener so Accept unblocks.
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.logger.Error("accept failed", slog.String("error", err.Error()))
			continue
		}

		if !s.limiter.TryAcquire() {
			s.logger.Info("connection rejected at capacity",
				slog.String("remote", conn.RemoteAddr().String()))
			_, _ = conn.Write([]byte(fullMessage))
			_ = conn.Close()
			continue
		}

		c := NewConnection(conn, s.maxLine)
		s.track(c)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.limiter.Release()
			defer s.untrack(c)
			defer func() { _ = c.Close() }()

			connLogger := s.logger.With(slog.String("remote", c.RemoteAddr()))
			s.handler(logging.WithContext(ctx, connLogger), c)
		}()
	}

	s.logger.Info("server shutting down")

	if s.onDrain != nil {
		s.onDrain()
	}

	// Closing every endpoint drives each session's read loop to EOF, which is
	// the cancellation primitive for sessions.
	s.closeAll()
	s.wg.Wait()

	s.logger.Info("server stopped")
	return ctx.Err()
}

func (s *Server) track(c *Connection) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(c *Connection) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}
