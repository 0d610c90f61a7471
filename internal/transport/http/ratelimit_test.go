package http

import (
	"testing"
	"time"
)

func TestMessageLimiter_AllowsUpToLimit(t *testing.T) {
	l := newMessageLimiter(3)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if !l.allow(now) {
			t.Fatalf("message %d should be allowed", i)
		}
	}
	if l.allow(now) {
		t.Fatalf("message over the limit should be rejected")
	}
}

func TestMessageLimiter_ResetsAfterWindow(t *testing.T) {
	l := newMessageLimiter(1)
	now := time.Now()

	if !l.allow(now) {
		t.Fatalf("first message should be allowed")
	}
	if l.allow(now.Add(30 * time.Second)) {
		t.Fatalf("second message in the same window should be rejected")
	}
	if !l.allow(now.Add(90 * time.Second)) {
		t.Fatalf("message in the next window should be allowed")
	}
}

func TestMessageLimiter_ZeroDisables(t *testing.T) {
	l := newMessageLimiter(0)
	now := time.Now()

	for i := 0; i < 100; i++ {
		if !l.allow(now) {
			t.Fatalf("disabled limiter rejected message %d", i)
		}
	}
}
