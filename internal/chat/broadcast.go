package chat

import (
	"fmt"
	"log/slog"

	"github.com/infodancer/chatd/internal/metrics"
	"github.com/infodancer/chatd/internal/server"
)

// Fabric delivers one message to a computed recipient set: a room, everyone,
// or a single user. Sessions never address each other directly; they hand
// the fabric a formatted line and the fabric locates the endpoints.
//
// The recipient set is the registry snapshot at the moment the fabric enters
// its send phase; the registry lock is released before any send, and each
// send serialises only on that recipient's own stream. A recipient whose
// send fails is skipped — its own read loop observes the broken stream and
// tears the session down.
type Fabric struct {
	registry  *Registry
	mailbox   *Mailbox
	collector metrics.Collector
	logger    *slog.Logger
}

// NewFabric creates a broadcast fabric over the given registry and offline
// mailbox.
func NewFabric(registry *Registry, mailbox *Mailbox, collector metrics.Collector, logger *slog.Logger) *Fabric {
	return &Fabric{
		registry:  registry,
		mailbox:   mailbox,
		collector: collector,
		logger:    logger,
	}
}

// ToRoom sends message to every authenticated session in room except the
// sender. Pass NoSender to deliver to the whole room.
func (f *Fabric) ToRoom(message string, sender Handle, room string) {
	f.deliver(f.registry.roomRecipients(room, sender), message)
}

// ToAll sends message to every authenticated session.
func (f *Fabric) ToAll(message string) {
	f.deliver(f.registry.allRecipients(), message)
}

// ToUser delivers body as a private message from sender to the first
// authenticated session named target. When target is offline the message is
// spilled to the offline mailbox at urgent priority; a full mailbox drops
// the message with a warning. Returns true only on immediate delivery.
func (f *Fabric) ToUser(body, target, sender string) bool {
	if h, ok := f.registry.LookupByUsername(target); ok {
		if conn := f.registry.connOf(h); conn != nil {
			pm := fmt.Sprintf("[PM from %s]: %s\n", sender, body)
			if err := conn.Send(pm); err != nil {
				f.logger.Debug("private message send failed",
					slog.String("target", target),
					slog.String("error", err.Error()))
			}
			f.collector.PrivateMessageDelivered()
			return true
		}
	}

	offline := fmt.Sprintf("From %s: %s", sender, body)
	if err := f.mailbox.Enqueue(target, offline, PriorityUrgent); err != nil {
		f.logger.Warn("offline mailbox full, message dropped",
			slog.String("target", target),
			slog.String("sender", sender))
		f.collector.OfflineMessageDropped()
	} else {
		f.collector.OfflineMessageQueued()
	}
	return false
}

// deliver sends message to each endpoint in turn. Each Send is atomic on its
// stream; failures are skipped, never fatal to the broadcast.
func (f *Fabric) deliver(conns []*server.Connection, message string) {
	for _, conn := range conns {
		if err := conn.Send(message); err != nil {
			f.logger.Debug("broadcast send failed, recipient skipped",
				slog.String("error", err.Error()))
		}
	}
}
