package broadcast

import (
	"errors"

	"github.com/artsabotage/gameserver/logger"
	"github.com/artsabotage/gameserver/network"
	"github.com/artsabotage/gameserver/room"
	"github.com/artsabotage/gameserver/session"
)

var ErrRoomNotFound = errors.New("room not found")

// Broadcaster targets the three audiences the gateway distinguishes:
// a single session, a whole room, and a room minus the sender.
type Broadcaster interface {
	BroadcastToRoom(roomCode string, event *network.Event) error
	BroadcastToRoomExcept(roomCode, exceptID string, event *network.Event) error
	SendToSession(sessionID string, event *network.Event) error
}

// RoomBroadcaster resolves room membership through the room registry and
// live connections through the session manager.
type RoomBroadcaster struct {
	rooms    *room.Registry
	sessions *session.Manager
}

func NewRoomBroadcaster(rooms *room.Registry, sessions *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		rooms:    rooms,
		sessions: sessions,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomCode string, event *network.Event) error {
	return b.broadcast(roomCode, "", event)
}

func (b *RoomBroadcaster) BroadcastToRoomExcept(roomCode, exceptID string, event *network.Event) error {
	return b.broadcast(roomCode, exceptID, event)
}

func (b *RoomBroadcaster) broadcast(roomCode, exceptID string, event *network.Event) error {
	// Fan out over a snapshot of the roster; joins and leaves may mutate
	// it concurrently.
	ids, exists := b.rooms.MemberIDs(roomCode)
	if !exists {
		return ErrRoomNotFound
	}

	for _, id := range ids {
		if id == exceptID {
			continue
		}
		sess, ok := b.sessions.Get(id)
		if !ok {
			continue
		}
		// A dead connection is cleaned up by its own read loop.
		if err := sess.Send(event); err != nil {
			logger.Log.Debugf("Broadcast send failed for session %s: %v", id, err)
		}
	}
	return nil
}

func (b *RoomBroadcaster) SendToSession(sessionID string, event *network.Event) error {
	sess, exists := b.sessions.Get(sessionID)
	if !exists {
		return errors.New("session not found")
	}
	return sess.Send(event)
}
