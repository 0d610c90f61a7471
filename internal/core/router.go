package core

import (
	"github.com/roomcast/roomcast-server/internal/proto"
)

// Route dispatches one inbound frame from a connection. Replies and error
// frames go to the originating connection only. Errors never close the
// connection; delivery failures stay silent per the best-effort contract.
func (h *Hub) Route(c *Connection, msg proto.Inbound) {
	switch msg.Type {
	case proto.TypeJoin:
		if msg.Room == "" {
			c.Reply(proto.NewError("room name required"))
			return
		}
		// Idempotent: a repeated join changes nothing and gets no second ack.
		if h.Join(c.UserID, msg.Room) {
			c.Reply(proto.NewJoined(msg.Room))
		}

	case proto.TypeLeave:
		if msg.Room == "" {
			c.Reply(proto.NewError("room name required"))
			return
		}
		if h.Leave(c.UserID, msg.Room) {
			c.Reply(proto.NewLeft(msg.Room))
		}

	case proto.TypePrivate:
		if msg.To == "" || len(msg.Content) == 0 {
			c.Reply(proto.NewError("recipient and content required"))
			return
		}
		// No ack on either outcome.
		h.SendToUser(msg.To, proto.NewPrivate(c.UserID, msg.To, msg.Content))

	case proto.TypeGroup:
		if msg.Room == "" || len(msg.Content) == 0 {
			c.Reply(proto.NewError("room and content required"))
			return
		}
		h.SendToRoom(msg.Room, proto.NewGroup(c.UserID, msg.Room, msg.Content), c.UserID)

	case proto.TypePing:
		c.Reply(proto.NewPong())

	default:
		h.log.Debug().Str("type", msg.Type).Str("user_id", c.UserID).Msg("unknown message type")
		c.Reply(proto.NewError("unknown message type"))
	}
}
