package http

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
)

const (
	outboundBuffer = 32
	pongTimeout    = 10 * time.Second
)

// wsSink implements core.Sink over one websocket connection. Sends go
// through a buffered channel drained by a single writer goroutine, so a
// slow consumer drops frames instead of blocking fan-out to anyone else.
type wsSink struct {
	ctx    context.Context
	conn   *websocket.Conn
	out    chan any
	log    *zerolog.Logger
	onPong func()
}

func newWSSink(ctx context.Context, conn *websocket.Conn, logger *zerolog.Logger) *wsSink {
	return &wsSink{
		ctx:  ctx,
		conn: conn,
		out:  make(chan any, outboundBuffer),
		log:  logger,
	}
}

// Send queues a frame without blocking. A full buffer or closed connection
// drops the frame and reports failure.
func (s *wsSink) Send(payload any) bool {
	if s.ctx.Err() != nil {
		return false
	}
	select {
	case s.out <- payload:
		return true
	default:
		s.log.Debug().Msg("outbound buffer full, dropping frame")
		return false
	}
}

// Ping fires a protocol-level ping; the pong, if it arrives, refreshes the
// connection's activity timestamp.
func (s *wsSink) Ping() {
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, pongTimeout)
		defer cancel()
		if err := s.conn.Ping(ctx); err == nil && s.onPong != nil {
			s.onPong()
		}
	}()
}

// Terminate closes the socket abruptly. The read loop sees the error and
// runs the normal cleanup path.
func (s *wsSink) Terminate(reason string) {
	_ = s.conn.CloseNow()
}

// run drains the outbound queue until ctx is cancelled or a write fails.
func (s *wsSink) run(ctx context.Context) {
	for {
		select {
		case payload := <-s.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, s.conn, payload)
			cancel()
			if err != nil {
				s.log.Debug().Err(err).Msg("ws write failed")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
