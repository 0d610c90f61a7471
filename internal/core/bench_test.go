package core

import (
	"strconv"
	"testing"

	"github.com/roomcast/roomcast-server/internal/proto"
)

// nullSink accepts everything and keeps nothing, so the benchmark measures
// fan-out, not test bookkeeping.
type nullSink struct{}

func (nullSink) Send(any) bool    { return true }
func (nullSink) Ping()            {}
func (nullSink) Terminate(string) {}

func benchmarkRoomFanOut(b *testing.B, recipients int) {
	hub := newTestHub()

	sender := NewConnection("sender", "sender", "sender", nullSink{})
	hub.Register(sender)
	hub.Join("sender", "bench")

	for i := 0; i < recipients; i++ {
		userID := "u" + strconv.Itoa(i)
		c := NewConnection(userID, userID, userID, nullSink{})
		hub.Register(c)
		hub.Join(userID, "bench")
	}

	payload := proto.NewGroup("sender", "bench", []byte(`"payload"`))

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		hub.SendToRoom("bench", payload, "sender")
	}
}

func BenchmarkRoomFanOut_10(b *testing.B)  { benchmarkRoomFanOut(b, 10) }
func BenchmarkRoomFanOut_100(b *testing.B) { benchmarkRoomFanOut(b, 100) }
func BenchmarkRoomFanOut_500(b *testing.B) { benchmarkRoomFanOut(b, 500) }
