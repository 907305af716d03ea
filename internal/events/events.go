// Package events publishes room lifecycle events for the rest of the suite
// (presence, chat) to consume. Publishing is optional and fire-and-forget:
// the admission core works identically with no publisher configured.
package events

import (
	"context"
	"time"

	"github.com/Preet416/remote-work-suite/internal/domain"
)

// Event types.
const (
	EventRoomCreated  = "room.created"
	EventRoomClosed   = "room.closed"
	EventUserApproved = "user.approved"
	EventUserLeft     = "user.left"
)

// RoomEvent is a room lifecycle change. Identity is a pointer so events
// without one (user.left, room.closed) omit the field entirely.
type RoomEvent struct {
	Type         string           `json:"type"`
	RoomKey      string           `json:"room_id"`
	ConnectionID string           `json:"connection_id,omitempty"`
	Identity     *domain.Identity `json:"identity,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}

// NewRoomEvent creates an event stamped with the current time.
func NewRoomEvent(eventType, roomKey, connID string, ident domain.Identity) *RoomEvent {
	ev := &RoomEvent{
		Type:         eventType,
		RoomKey:      roomKey,
		ConnectionID: connID,
		Timestamp:    time.Now(),
	}
	if ident != (domain.Identity{}) {
		ev.Identity = &ident
	}
	return ev
}

// Publisher publishes room lifecycle events.
type Publisher interface {
	PublishRoomEvent(ctx context.Context, event *RoomEvent) error
	Close() error
}
