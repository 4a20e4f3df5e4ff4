package server

import "sync/atomic"

// ConnectionLimiter bounds the number of concurrent sessions. One permit is
// acquired per accepted connection and released exactly once when that
// connection's handler returns.
type ConnectionLimiter struct {
	capacity int64
	current  atomic.Int64
}

// NewConnectionLimiter creates a limiter with the specified capacity.
func NewConnectionLimiter(capacity int) *ConnectionLimiter {
	return &ConnectionLimiter{capacity: int64(capacity)}
}

// TryAcquire attempts to acquire a permit.
// Returns true if successful, false if at capacity.
func (l *ConnectionLimiter) TryAcquire() bool {
	for {
		current := l.current.Load()
		if current >= l.capacity {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// Release releases a permit.
func (l *ConnectionLimiter) Release() {
	l.current.Add(-1)
}

// Current returns the number of permits currently held.
func (l *ConnectionLimiter) Current() int64 {
	return l.current.Load()
}
