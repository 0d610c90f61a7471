package http

import "time"

// messageLimiter caps inbound frames per connection in one-minute windows.
// Owned by a single read loop, so no locking.
type messageLimiter struct {
	limit       int
	count       int
	windowStart time.Time
}

func newMessageLimiter(limit int) *messageLimiter {
	return &messageLimiter{limit: limit}
}

func (l *messageLimiter) allow(now time.Time) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	if now.Sub(l.windowStart) >= time.Minute {
		l.windowStart = now
		l.count = 0
	}
	l.count++
	return l.count <= l.limit
}
