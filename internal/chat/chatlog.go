package chat

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// ChatLog is the append-only chat transcript. Each entry is written as
// "[HH:MM:SS] <message>" where the message carries its own trailing LF.
// Failure to open the log is non-fatal: a ChatLog without a backing file
// silently discards entries.
type ChatLog struct {
	mu sync.Mutex
	f  *os.File
}

// OpenChatLog opens (or creates) the chat log at path in append mode. On
// failure it logs a warning and returns a discarding ChatLog.
func OpenChatLog(path string, logger *slog.Logger) *ChatLog {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Warn("chat log unavailable, continuing without it",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return &ChatLog{}
	}
	return &ChatLog{f: f}
}

// Log appends one timestamped entry. message must include its trailing LF.
func (l *ChatLog) Log(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return
	}
	ts := time.Now().Format("15:04:05")
	_, _ = fmt.Fprintf(l.f, "[%s] %s", ts, message)
}

// Close flushes and closes the log file.
func (l *ChatLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
