package service

import (
	"context"

	"github.com/Preet416/remote-work-suite/internal/domain"
	"github.com/Preet416/remote-work-suite/internal/room"
)

// Sender delivers a message to a live connection. Satisfied by *hub.Hub.
type Sender interface {
	SendToClient(connID string, message interface{}) error
}

// MeetingService handles admission and signaling operations.
type MeetingService interface {
	// HandleJoinRoom handles an admission request. Returns the identity the
	// connection was admitted (or queued) under.
	HandleJoinRoom(ctx context.Context, connID string, msg *domain.JoinRoomRequestMessage) (domain.Identity, error)

	// HandleApproveUser handles an approval from an approved member.
	HandleApproveUser(ctx context.Context, connID string, msg *domain.ApproveUserMessage) error

	// HandleSignal relays an opaque signaling payload to a peer.
	HandleSignal(ctx context.Context, connID string, msg *domain.SignalMessage) error

	// HandleLeaveRoom withdraws the connection from a single room.
	HandleLeaveRoom(ctx context.Context, connID string, msg *domain.LeaveRoomMessage) error

	// HandleDisconnect reconciles all room state after a transport close.
	HandleDisconnect(ctx context.Context, connID string) error

	// RoomStats snapshots per-room membership counts.
	RoomStats() map[string]room.Counts
}
