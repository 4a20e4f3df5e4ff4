package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/infodancer/chatd/internal/logging"
	"github.com/infodancer/chatd/internal/server"
)

const (
	emptyCredentialsMessage = "Error: Username and password cannot be empty.\n"
	wrongPasswordMessage    = "ERROR: Wrong password. Disconnecting...\n"
	authFailedMessage       = "ERROR: Authentication failed. Disconnecting...\n"
	serverFullMessage       = "Server full. Try again later.\n"

	helpText = "[Server]: Available commands:\n" +
		"  /pm <user> <message>  send a private message\n" +
		"  /join <room>          join or create a room\n" +
		"  /room                 show your current room\n" +
		"  /rooms                list active rooms\n" +
		"  /users                list users in your room\n" +
		"  /recent               show recent messages\n" +
		"  /help                 show this help\n"
)

// handleConnection runs one session from handshake to teardown.
func (c *Chat) handleConnection(ctx context.Context, conn *server.Connection) {
	logger := logging.FromContext(ctx)

	c.collector.ConnectionOpened()
	defer c.collector.ConnectionClosed()

	sess := NewSession(conn)
	defer sess.close()

	// Reserve a registry slot before the handshake so the session bound
	// holds even while credentials are still in flight. The limiter has
	// already admitted this connection; a full registry here means a
	// reserve/release race lost, so double-check and reject.
	handle, err := c.registry.Reserve(conn)
	if err != nil {
		c.collector.ConnectionRejected()
		_ = conn.Send(serverFullMessage)
		return
	}
	defer c.registry.Release(handle)

	sess.beginAuth()
	username, ok := c.handshake(sess, logger)
	if !ok {
		return
	}

	if err := c.registry.Bind(handle, username, DefaultRoom); err != nil {
		logger.Error("bind failed", slog.String("error", err.Error()))
		return
	}
	sess.activate(handle, username)
	logger = logger.With(slog.String("username", username))
	logger.Info("session active", slog.String("room", DefaultRoom))

	_ = conn.Send(fmt.Sprintf("[Server]: Welcome, %s! You are in #%s.\n", username, DefaultRoom))
	_ = conn.Send(helpText)

	// The offline backlog is delivered before the join announcement so the
	// user sees queued private messages ahead of any room chatter.
	for _, entry := range c.mailbox.DrainFor(username) {
		_ = conn.Send("[Offline Message]: " + entry.Body + "\n")
		c.collector.OfflineMessageDelivered()
	}

	joinMsg := fmt.Sprintf("[Server]: %s has joined #%s\n", username, DefaultRoom)
	c.chatLog.Log(joinMsg)
	c.fabric.ToRoom(joinMsg, handle, DefaultRoom)

	c.readLoop(ctx, sess, logger)

	// Teardown: capture identity, release the slot, then announce, so the
	// leave notice is never delivered back to the departing session.
	sess.leave()
	c.registry.Release(handle)
	leaveMsg := fmt.Sprintf("[Server]: %s has disconnected\n", username)
	c.chatLog.Log(leaveMsg)
	c.fabric.ToAll(leaveMsg)
	logger.Info("session closed")
}

// handshake reads the two-line username/password exchange and authenticates
// it. A read failure before the handshake completes closes the connection
// silently; invalid or rejected credentials get a diagnostic first. Returns
// the authenticated username.
func (c *Chat) handshake(sess *Session, logger *slog.Logger) (string, bool) {
	conn := sess.Conn()

	rawUser, err := conn.ReadLine()
	if err != nil {
		return "", false
	}
	rawPass, err := conn.ReadLine()
	if err != nil {
		return "", false
	}

	username := SanitizeCredential(rawUser)
	password := SanitizeCredential(rawPass)
	if username == "" || password == "" {
		sess.reject()
		_ = conn.Send(emptyCredentialsMessage)
		return "", false
	}

	result, registered, err := c.creds.Verify(username, password)
	if err != nil {
		logger.Error("credential check failed", slog.String("error", err.Error()))
		sess.reject()
		c.collector.AuthAttempt(false)
		_ = conn.Send(authFailedMessage)
		return "", false
	}
	if result == VerifyWrongPassword {
		logger.Info("wrong password", slog.String("username", username))
		sess.reject()
		c.collector.AuthAttempt(false)
		_ = conn.Send(wrongPasswordMessage)
		return "", false
	}

	c.collector.AuthAttempt(true)
	if registered {
		c.collector.UserRegistered()
		regMsg := fmt.Sprintf("[Server]: New user registered: %s\n", username)
		c.chatLog.Log(regMsg)
		logger.Info("new user registered", slog.String("username", username))
	}
	return username, true
}

// readLoop consumes lines until the peer closes, a read fails, or the
// context is cancelled (shutdown closes the endpoint, which surfaces here as
// a read error).
func (c *Chat) readLoop(ctx context.Context, sess *Session, logger *slog.Logger) {
	conn := sess.Conn()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := conn.ReadLine()
		if err != nil {
			if err != io.EOF {
				logger.Debug("read error", slog.String("error", err.Error()))
			}
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd := Classify(line)
		c.collector.CommandProcessed(cmd.Kind.String())
		c.execute(sess, cmd)
	}
}

// execute applies one classified command to the session.
func (c *Chat) execute(sess *Session, cmd Command) {
	conn := sess.Conn()

	switch cmd.Kind {
	case CmdPrivateMessage:
		if cmd.Target == "" || cmd.Body == "" {
			_ = conn.Send("[Server]: Usage: /pm <user> <message>\n")
			return
		}
		if c.fabric.ToUser(cmd.Body, cmd.Target, sess.Username()) {
			_ = conn.Send(fmt.Sprintf("[PM to %s]: %s\n", cmd.Target, cmd.Body))
		} else {
			_ = conn.Send("[Server]: User offline. Message queued for delivery.\n")
		}

	case CmdHelp:
		_ = conn.Send(helpText)

	case CmdRecent:
		var sb strings.Builder
		sb.WriteString("[Recent Messages]:\n")
		for _, line := range c.ring.Snapshot() {
			sb.WriteString(line)
		}
		_ = conn.Send(sb.String())

	case CmdJoin:
		c.joinRoom(sess, cmd.Body)

	case CmdRoom:
		room, err := c.registry.RoomOf(sess.Handle())
		if err != nil {
			return
		}
		_ = conn.Send(fmt.Sprintf("[Server]: You are currently in room #%s\n", room))

	case CmdRoomList:
		census := c.registry.RoomCensus()
		var sb strings.Builder
		sb.WriteString("[Active Rooms]:\n")
		for _, name := range c.registry.RoomNames() {
			count := census[name]
			plural := "users"
			if count == 1 {
				plural = "user"
			}
			sb.WriteString(fmt.Sprintf("  #%s (%d %s)\n", name, count, plural))
		}
		_ = conn.Send(sb.String())

	case CmdUserList:
		room, err := c.registry.RoomOf(sess.Handle())
		if err != nil {
			return
		}
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("[Users in #%s]:\n", room))
		for _, user := range c.registry.ListInRoom(room) {
			sb.WriteString("  " + user + "\n")
		}
		_ = conn.Send(sb.String())

	case CmdChat:
		c.chatMessage(sess, cmd.Body)
	}
}

// joinRoom moves the session to a new room and announces the move to both
// rooms. Joining the current room is a silent confirm.
func (c *Chat) joinRoom(sess *Session, name string) {
	conn := sess.Conn()

	room := SanitizeRoomName(name)
	if room == "" {
		_ = conn.Send("[Server]: Room name cannot be empty.\n")
		return
	}

	old, err := c.registry.SetRoom(sess.Handle(), room)
	if err != nil {
		return
	}

	if old != room {
		leftMsg := fmt.Sprintf("[Server]: %s has left #%s\n", sess.Username(), old)
		c.chatLog.Log(leftMsg)
		c.fabric.ToRoom(leftMsg, sess.Handle(), old)

		joinedMsg := fmt.Sprintf("[Server]: %s has joined #%s\n", sess.Username(), room)
		c.chatLog.Log(joinedMsg)
		c.fabric.ToRoom(joinedMsg, sess.Handle(), room)
	}

	_ = conn.Send(fmt.Sprintf("[Server]: You are now in room #%s\n", room))
}

// chatMessage stamps one chat line, archives it in the recent ring and the
// chat log, then fans it out to the session's room. Archiving first means any
// recipient that has seen the broadcast will also find it in the ring.
func (c *Chat) chatMessage(sess *Session, text string) {
	room, err := c.registry.RoomOf(sess.Handle())
	if err != nil {
		return
	}

	ts := time.Now().Format("15:04:05")
	line := fmt.Sprintf("[%s] [#%s] %s: %s\n", ts, room, sess.Username(), text)

	c.ring.Append(line)
	c.chatLog.Log(line)
	c.fabric.ToRoom(line, sess.Handle(), room)
	c.collector.MessageBroadcast(room)
}
