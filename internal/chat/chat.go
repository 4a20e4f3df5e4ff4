// Package chat implements the coordinator at the heart of the chat server:
// the credential store, the recent-message ring, the offline mailbox, the
// session registry, the broadcast fabric and the per-connection session
// state machine. The transport (listener, admission control, line framing)
// lives in internal/server; this package supplies the connection handler.
package chat

import (
	"log/slog"

	"github.com/infodancer/chatd/internal/metrics"
	"github.com/infodancer/chatd/internal/server"
)

// Config holds configuration for creating a new Chat.
type Config struct {
	UsersFile       string
	ChatLogFile     string
	PasswordHashing bool
	MaxClients      int
	RecentMessages  int
	MailboxSize     int
	Collector       metrics.Collector
	Logger          *slog.Logger
}

// Chat wires the shared chat state together and produces the connection
// handler that runs one session per connection.
type Chat struct {
	creds     *CredentialStore
	registry  *Registry
	ring      *RecentRing
	mailbox   *Mailbox
	fabric    *Fabric
	chatLog   *ChatLog
	collector metrics.Collector
	logger    *slog.Logger
}

// New creates the chat coordinator from cfg.
func New(cfg Config) *Chat {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := cfg.Collector
	if collector == nil {
		collector = &metrics.NoopCollector{}
	}

	registry := NewRegistry(cfg.MaxClients)
	mailbox := NewMailbox(cfg.MailboxSize)

	return &Chat{
		creds:     NewCredentialStore(cfg.UsersFile, cfg.PasswordHashing),
		registry:  registry,
		ring:      NewRecentRing(cfg.RecentMessages),
		mailbox:   mailbox,
		fabric:    NewFabric(registry, mailbox, collector, logger),
		chatLog:   OpenChatLog(cfg.ChatLogFile, logger),
		collector: collector,
		logger:    logger,
	}
}

// Handler returns the connection handler for the transport layer.
func (c *Chat) Handler() server.ConnectionHandler {
	return c.handleConnection
}

// AnnounceShutdown broadcasts the shutdown notice to every session. The
// transport invokes it during drain, while endpoints are still writable.
func (c *Chat) AnnounceShutdown() {
	msg := "[Server]: Server is shutting down. Goodbye!\n"
	c.chatLog.Log(msg)
	c.fabric.ToAll(msg)
}

// Close releases resources held by the coordinator.
func (c *Chat) Close() error {
	return c.chatLog.Close()
}
