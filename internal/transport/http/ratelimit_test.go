package http

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/presence-chat/internal/proto"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	limiter := newRateLimiter(2, time.Minute)
	limiter.now = func() time.Time { return now }

	if !limiter.allow() || !limiter.allow() {
		t.Fatalf("first two frames should pass")
	}
	if limiter.allow() {
		t.Fatalf("third frame in window should be rejected")
	}

	now = now.Add(time.Minute)
	if !limiter.allow() {
		t.Fatalf("counter not reset after window")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := newRateLimiter(0, 0)
	for i := 0; i < 1000; i++ {
		if !limiter.allow() {
			t.Fatalf("disabled limiter rejected frame %d", i)
		}
	}

	var nilLimiter *rateLimiter
	if !nilLimiter.allow() {
		t.Fatalf("nil limiter should allow")
	}
}

func TestWebSocketRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 2
	ts := startTestServerWithConfig(t, nil, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, ts.URL)
	send(ctx, t, conn, proto.InboundTypeJoin, proto.JoinData{Name: "alice"})
	expectRoster(ctx, t, conn, "alice")

	send(ctx, t, conn, proto.InboundTypeTypingStart, nil)
	send(ctx, t, conn, proto.InboundTypeMessage, proto.MessageData{Text: "spam"})

	frame := readFrame(ctx, t, conn)
	if frame.Type != proto.OutboundTypeError || frame.Error == nil || frame.Error.Code != proto.ErrCodeRateLimited {
		t.Fatalf("expected rate_limited error, got %+v", frame)
	}
}
