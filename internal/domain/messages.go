package domain

import "encoding/json"

// WebSocket message types from client.
const (
	MsgTypeJoinRoomRequest = "join-room-request"
	MsgTypeApproveUser     = "approve-user"
	MsgTypeSignal          = "signal"
	MsgTypeLeaveRoom       = "leave-room"
)

// WebSocket message types to client.
const (
	MsgTypeConnected        = "connected"
	MsgTypeHostApproved     = "host-approved"
	MsgTypeWaitingUser      = "waiting-user"
	MsgTypeApprovedToJoin   = "approved-to-join"
	MsgTypeNewUserApproved  = "new-user-approved"
	MsgTypeUserDisconnected = "user-disconnected"
	MsgTypeError            = "error"
)

// BaseMessage is the envelope shared by all websocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

// JoinRoomRequestMessage asks for admission to a room. The first connection
// to name a room key is admitted immediately as host; everyone else waits for
// approval. Token is optional and only prefills identity.
type JoinRoomRequestMessage struct {
	Type     string   `json:"type"`
	RoomKey  string   `json:"room_id"`
	Identity Identity `json:"identity"`
	Token    string   `json:"token,omitempty"`
}

// ApproveUserMessage moves a waiting connection into the approved set.
// Any approved member of the room may send it.
type ApproveUserMessage struct {
	Type         string `json:"type"`
	RoomKey      string `json:"room_id"`
	ConnectionID string `json:"connection_id"`
}

// SignalMessage carries an opaque peer-negotiation payload. The server stamps
// From with the sender's connection id; a client-supplied From is ignored.
type SignalMessage struct {
	Type    string          `json:"type"`
	To      string          `json:"to"`
	From    string          `json:"from,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// LeaveRoomMessage withdraws a connection from a single room without closing
// the transport.
type LeaveRoomMessage struct {
	Type    string `json:"type"`
	RoomKey string `json:"room_id"`
}

// Server -> Client messages

// ConnectedMessage tells a client the identifier peers will use to reach it.
type ConnectedMessage struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connection_id"`
}

// HostApprovedMessage tells the founding connection it was admitted directly.
type HostApprovedMessage struct {
	Type    string `json:"type"`
	RoomKey string `json:"room_id"`
}

// WaitingUserMessage tells approved members someone is asking to join.
type WaitingUserMessage struct {
	Type         string   `json:"type"`
	ConnectionID string   `json:"connection_id"`
	Identity     Identity `json:"identity"`
}

// ApprovedToJoinMessage tells a waiting connection it has been approved.
type ApprovedToJoinMessage struct {
	Type    string `json:"type"`
	RoomKey string `json:"room_id"`
}

// NewUserApprovedMessage tells existing approved members a new peer joined,
// so each of them initiates a signaling handshake toward it.
type NewUserApprovedMessage struct {
	Type         string   `json:"type"`
	ConnectionID string   `json:"connection_id"`
	Identity     Identity `json:"identity"`
}

// UserDisconnectedMessage tells remaining members a connection is gone.
type UserDisconnectedMessage struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connection_id"`
}

// ErrorMessage is sent for malformed frames and unknown message types only.
// Admission failure modes are silent no-ops.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// NewErrorMessage creates a new error message.
func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
