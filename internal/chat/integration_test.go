package chat

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/infodancer/chatd/internal/metrics"
	"github.com/infodancer/chatd/internal/server"
)

type testServer struct {
	t      *testing.T
	srv    *server.Server
	chat   *Chat
	addr   string
	cancel context.CancelFunc
	done   chan error
}

// startTestServer boots a full server on an ephemeral port. seedUsers, when
// non-empty, is written to the credential file before the server starts.
func startTestServer(t *testing.T, maxClients int, seedUsers string) *testServer {
	t.Helper()

	dir := t.TempDir()
	usersFile := filepath.Join(dir, "users.txt")
	if seedUsers != "" {
		if err := os.WriteFile(usersFile, []byte(seedUsers), 0o600); err != nil {
			t.Fatalf("seeding credential file: %v", err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	coordinator := New(Config{
		UsersFile:      usersFile,
		ChatLogFile:    filepath.Join(dir, "chat.log"),
		MaxClients:     maxClients,
		RecentMessages: 20,
		MailboxSize:    10,
		Collector:      &metrics.NoopCollector{},
		Logger:         logger,
	})

	srv := server.New(server.Config{
		Address:    "127.0.0.1:0",
		MaxClients: maxClients,
		MaxLine:    1024,
		Logger:     logger,
	})
	srv.SetHandler(coordinator.Handler())
	srv.SetDrainHook(coordinator.AnnounceShutdown)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var addr string
	deadline := time.Now().Add(2 * time.Second)
	for addr == "" {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("server did not start listening")
		}
		addr = srv.Addr()
		if addr == "" {
			time.Sleep(5 * time.Millisecond)
		}
	}

	ts := &testServer{t: t, srv: srv, chat: coordinator, addr: addr, cancel: cancel, done: done}
	t.Cleanup(ts.stop)
	return ts
}

func (ts *testServer) stop() {
	ts.cancel()
	select {
	case err := <-ts.done:
		if err != nil && !errors.Is(err, context.Canceled) {
			ts.t.Errorf("server returned %v", err)
		}
	case <-time.After(5 * time.Second):
		ts.t.Error("server did not stop")
	}
	_ = ts.chat.Close()
}

type testClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func (ts *testServer) dial() *testClient {
	ts.t.Helper()
	conn, err := net.Dial("tcp", ts.addr)
	if err != nil {
		ts.t.Fatalf("dial %s: %v", ts.addr, err)
	}
	ts.t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: ts.t, conn: conn, reader: bufio.NewReader(conn)}
}

func (c *testClient) send(line string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		c.t.Fatalf("write %q: %v", line, err)
	}
}

// login performs the two-line handshake and waits for the welcome banner.
func (c *testClient) login(username, password string) {
	c.t.Helper()
	c.send(username)
	c.send(password)
	c.expect("Welcome, " + username + "!")
}

// expect reads lines until one contains substr, failing on timeout or EOF.
func (c *testClient) expect(substr string) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		line, err := c.reader.ReadString('\n')
		if strings.Contains(line, substr) {
			return line
		}
		if err != nil {
			c.t.Fatalf("waiting for %q: %v", substr, err)
		}
	}
}

// expectAbsent reads everything that arrives within the window and fails if
// any line contains substr.
func (c *testClient) expectAbsent(substr string, window time.Duration) {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(window))
	for {
		line, err := c.reader.ReadString('\n')
		if strings.Contains(line, substr) {
			c.t.Errorf("received %q, which should not have arrived", line)
		}
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				_ = c.conn.SetReadDeadline(time.Time{})
				return
			}
			c.t.Fatalf("reading during quiet window: %v", err)
		}
	}
}

// expectClosed drains the stream and requires it to end.
func (c *testClient) expectClosed() {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, err := c.reader.ReadString('\n'); err != nil {
			return
		}
	}
}

func TestServer_RegistrationAndRoomChat(t *testing.T) {
	ts := startTestServer(t, 10, "")

	alice := ts.dial()
	alice.login("alice", "secret")

	bob := ts.dial()
	bob.login("bob", "hunter2")
	alice.expect("[Server]: bob has joined #general")

	bob.send("hello everyone")
	got := alice.expect("bob: hello everyone")
	if !strings.Contains(got, "[#general]") {
		t.Errorf("chat line %q missing room tag", got)
	}

	// Sender must not receive an echo of its own chat line.
	bob.expectAbsent("bob: hello everyone", 200*time.Millisecond)
}

func TestServer_WrongPasswordDisconnects(t *testing.T) {
	ts := startTestServer(t, 10, "alice:secret\n")

	c := ts.dial()
	c.send("alice")
	c.send("wrong")
	c.expect("ERROR: Wrong password. Disconnecting...")
	c.expectClosed()

	// The slot is released; the next login succeeds.
	again := ts.dial()
	again.login("alice", "secret")
}

func TestServer_EmptyCredentialsRejected(t *testing.T) {
	ts := startTestServer(t, 10, "")

	c := ts.dial()
	c.send("")
	c.send("pw")
	c.expect("Error: Username and password cannot be empty.")
	c.expectClosed()
}

func TestServer_RoomIsolation(t *testing.T) {
	ts := startTestServer(t, 10, "")

	alice := ts.dial()
	alice.login("alice", "pw")
	bob := ts.dial()
	bob.login("bob", "pw")
	alice.expect("bob has joined #general")

	bob.send("/join games")
	bob.expect("[Server]: You are now in room #games")
	alice.expect("[Server]: bob has left #general")

	bob.send("secret plans")
	alice.expectAbsent("secret plans", 200*time.Millisecond)

	carol := ts.dial()
	carol.login("carol", "pw")
	carol.send("/join games")
	carol.expect("You are now in room #games")
	bob.expect("carol has joined #games")

	bob.send("welcome carol")
	carol.expect("bob: welcome carol")

	bob.send("/rooms")
	bob.expect("#games (2 users)")
	bob.send("/users")
	bob.expect("[Users in #games]:")
	bob.expect("  carol")
}

func TestServer_PrivateMessages(t *testing.T) {
	ts := startTestServer(t, 10, "")

	alice := ts.dial()
	alice.login("alice", "pw")
	bob := ts.dial()
	bob.login("bob", "pw")
	alice.expect("bob has joined")

	alice.send("/pm bob psst")
	alice.expect("[PM to bob]: psst")
	bob.expect("[PM from alice]: psst")

	alice.send("/pm")
	alice.expect("Usage: /pm <user> <message>")
}

func TestServer_OfflineMessageDelivery(t *testing.T) {
	ts := startTestServer(t, 10, "")

	alice := ts.dial()
	alice.login("alice", "pw")

	alice.send("/pm dave see you later")
	alice.expect("[Server]: User offline. Message queued for delivery.")

	dave := ts.dial()
	dave.login("dave", "pw")
	dave.expect("[Offline Message]: From alice: see you later")
}

func TestServer_RecentMessages(t *testing.T) {
	ts := startTestServer(t, 10, "")

	alice := ts.dial()
	alice.login("alice", "pw")
	bob := ts.dial()
	bob.login("bob", "pw")
	alice.expect("bob has joined")

	alice.send("first")
	alice.send("second")
	bob.expect("alice: second")

	bob.send("/recent")
	bob.expect("[Recent Messages]:")
	bob.expect("alice: first")
	bob.expect("alice: second")
}

func TestServer_AdmissionLimit(t *testing.T) {
	ts := startTestServer(t, 1, "")

	alice := ts.dial()
	alice.login("alice", "pw")

	turned := ts.dial()
	turned.expect("Server full. Try again later.")
	turned.expectClosed()

	// Releasing the only slot readmits the next connection.
	_ = alice.conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for ts.srv.Limiter().Current() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("slot was not released after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}

	bob := ts.dial()
	bob.login("bob", "pw")
}

func TestServer_GracefulShutdown(t *testing.T) {
	ts := startTestServer(t, 10, "")

	alice := ts.dial()
	alice.login("alice", "pw")
	bob := ts.dial()
	bob.login("bob", "pw")
	alice.expect("bob has joined")

	ts.cancel()

	alice.expect("[Server]: Server is shutting down. Goodbye!")
	bob.expect("[Server]: Server is shutting down. Goodbye!")
	alice.expectClosed()
	bob.expectClosed()

	select {
	case err := <-ts.done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
		ts.done <- err
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestServer_DisconnectAnnouncement(t *testing.T) {
	ts := startTestServer(t, 10, "")

	alice := ts.dial()
	alice.login("alice", "pw")
	bob := ts.dial()
	bob.login("bob", "pw")
	alice.expect("bob has joined")

	_ = bob.conn.Close()
	alice.expect("[Server]: bob has disconnected")
}
