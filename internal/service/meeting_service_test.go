package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/Preet416/remote-work-suite/internal/domain"
	"github.com/Preet416/remote-work-suite/internal/hub"
	"github.com/Preet416/remote-work-suite/internal/room"
	"github.com/Preet416/remote-work-suite/pkg/auth"
)

// fakeSender records queued messages per connection, in order.
type fakeSender struct {
	mu   sync.Mutex
	sent map[string][]interface{}
	gone map[string]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(map[string][]interface{}), gone: make(map[string]bool)}
}

func (f *fakeSender) SendToClient(connID string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gone[connID] {
		return hub.ErrClientNotFound
	}
	f.sent[connID] = append(f.sent[connID], message)
	return nil
}

func (f *fakeSender) messages(connID string) []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]interface{}(nil), f.sent[connID]...)
}

func (f *fakeSender) markGone(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gone[connID] = true
}

func newTestService() (*fakeSender, MeetingService) {
	sender := newFakeSender()
	svc := NewMeetingService(room.NewRegistry(), sender, nil, nil)
	return sender, svc
}

func join(roomKey, name string) *domain.JoinRoomRequestMessage {
	return &domain.JoinRoomRequestMessage{
		Type:     domain.MsgTypeJoinRoomRequest,
		RoomKey:  roomKey,
		Identity: domain.Identity{Name: name},
	}
}

func TestMeetingService_AdmissionLifecycle(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	sender, svc := newTestService()

	// c1 founds the room and is told it is host; nobody else is notified
	_, err := svc.HandleJoinRoom(ctx, "c1", join("standup", "Alice"))
	req.NoError(err)
	msgs := sender.messages("c1")
	req.Len(msgs, 1)
	req.Equal(&domain.HostApprovedMessage{Type: domain.MsgTypeHostApproved, RoomKey: "standup"}, msgs[0])

	// c2 requests the same room; c1 is told about the waiting user
	_, err = svc.HandleJoinRoom(ctx, "c2", join("standup", "Bob"))
	req.NoError(err)
	req.Empty(sender.messages("c2"))
	msgs = sender.messages("c1")
	req.Len(msgs, 2)
	req.Equal(&domain.WaitingUserMessage{
		Type:         domain.MsgTypeWaitingUser,
		ConnectionID: "c2",
		Identity:     domain.Identity{Name: "Bob"},
	}, msgs[1])

	// c1 approves c2: c2 learns it may join, and c1 is told about the new
	// peer so it can initiate the handshake
	err = svc.HandleApproveUser(ctx, "c1", &domain.ApproveUserMessage{
		Type: domain.MsgTypeApproveUser, RoomKey: "standup", ConnectionID: "c2",
	})
	req.NoError(err)
	msgs = sender.messages("c2")
	req.Len(msgs, 1)
	req.Equal(&domain.ApprovedToJoinMessage{Type: domain.MsgTypeApprovedToJoin, RoomKey: "standup"}, msgs[0])
	msgs = sender.messages("c1")
	req.Len(msgs, 3)
	req.Equal(&domain.NewUserApprovedMessage{
		Type:         domain.MsgTypeNewUserApproved,
		ConnectionID: "c2",
		Identity:     domain.Identity{Name: "Bob"},
	}, msgs[2])

	// A second identical approval changes nothing and sends nothing
	err = svc.HandleApproveUser(ctx, "c1", &domain.ApproveUserMessage{
		Type: domain.MsgTypeApproveUser, RoomKey: "standup", ConnectionID: "c2",
	})
	req.NoError(err)
	req.Len(sender.messages("c2"), 1)
	req.Len(sender.messages("c1"), 3)

	// c2 disconnects: c1 is told, room survives with c1 alone
	req.NoError(svc.HandleDisconnect(ctx, "c2"))
	msgs = sender.messages("c1")
	req.Len(msgs, 4)
	req.Equal(&domain.UserDisconnectedMessage{Type: domain.MsgTypeUserDisconnected, ConnectionID: "c2"}, msgs[3])
	req.Equal(map[string]room.Counts{"standup": {Approved: 1}}, svc.RoomStats())

	// c1 disconnects: the room vanishes
	req.NoError(svc.HandleDisconnect(ctx, "c1"))
	req.Empty(svc.RoomStats())
}

func TestMeetingService_ApprovalFansOutToExistingPeers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	sender, svc := newTestService()

	svc.HandleJoinRoom(ctx, "c1", join("standup", "Alice"))
	svc.HandleJoinRoom(ctx, "c2", join("standup", "Bob"))
	svc.HandleApproveUser(ctx, "c1", &domain.ApproveUserMessage{RoomKey: "standup", ConnectionID: "c2"})
	svc.HandleJoinRoom(ctx, "c3", join("standup", "Carol"))

	// Both approved members were told c3 is waiting
	for _, id := range []string{"c1", "c2"} {
		last := sender.messages(id)[len(sender.messages(id))-1]
		req.Equal(&domain.WaitingUserMessage{
			Type:         domain.MsgTypeWaitingUser,
			ConnectionID: "c3",
			Identity:     domain.Identity{Name: "Carol"},
		}, last)
	}

	// c2 approves c3: every approved member, approver included, is told so
	// each can open a handshake toward the newcomer
	before := len(sender.messages("c2"))
	svc.HandleApproveUser(ctx, "c2", &domain.ApproveUserMessage{RoomKey: "standup", ConnectionID: "c3"})

	joined := &domain.NewUserApprovedMessage{
		Type:         domain.MsgTypeNewUserApproved,
		ConnectionID: "c3",
		Identity:     domain.Identity{Name: "Carol"},
	}
	req.Equal(joined, sender.messages("c1")[len(sender.messages("c1"))-1])
	req.Len(sender.messages("c2"), before+1)
	req.Equal(joined, sender.messages("c2")[before])
}

func TestMeetingService_ApproverLearnsOfNewPeer(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	sender, svc := newTestService()

	// In a two-person room the approver is the only existing peer. If it is
	// not told about the newcomer, nobody ever initiates a handshake.
	svc.HandleJoinRoom(ctx, "host", join("standup", "Alice"))
	svc.HandleJoinRoom(ctx, "guest", join("standup", "Bob"))
	svc.HandleApproveUser(ctx, "host", &domain.ApproveUserMessage{RoomKey: "standup", ConnectionID: "guest"})

	last := sender.messages("host")[len(sender.messages("host"))-1]
	req.Equal(&domain.NewUserApprovedMessage{
		Type:         domain.MsgTypeNewUserApproved,
		ConnectionID: "guest",
		Identity:     domain.Identity{Name: "Bob"},
	}, last)
}

func TestMeetingService_SignalRelay_StampsSenderAndPreservesOrder(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	sender, svc := newTestService()

	offer := json.RawMessage(`{"sdp":"offer"}`)
	candidate := json.RawMessage(`{"candidate":"udp 1"}`)

	req.NoError(svc.HandleSignal(ctx, "c1", &domain.SignalMessage{To: "c2", From: "spoofed", Payload: offer}))
	req.NoError(svc.HandleSignal(ctx, "c1", &domain.SignalMessage{To: "c2", Payload: candidate}))

	msgs := sender.messages("c2")
	req.Len(msgs, 2)

	first := msgs[0].(*domain.SignalMessage)
	req.Equal("c1", first.From)
	req.Equal("c2", first.To)
	req.JSONEq(string(offer), string(first.Payload))

	second := msgs[1].(*domain.SignalMessage)
	req.JSONEq(string(candidate), string(second.Payload))
}

func TestMeetingService_SignalRelay_DropsForGoneRecipient(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	sender, svc := newTestService()
	sender.markGone("c2")

	// No error surfaces to the sender; the disconnect broadcast is the
	// authoritative signal that the peer is gone
	err := svc.HandleSignal(ctx, "c1", &domain.SignalMessage{To: "c2", Payload: json.RawMessage(`{}`)})
	req.NoError(err)
	req.Empty(sender.messages("c1"))
}

func TestMeetingService_LeaveRoom_NotifiesAndDeletesWhenEmpty(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	sender, svc := newTestService()

	svc.HandleJoinRoom(ctx, "c1", join("standup", "Alice"))
	svc.HandleJoinRoom(ctx, "c2", join("standup", "Bob"))
	svc.HandleApproveUser(ctx, "c1", &domain.ApproveUserMessage{RoomKey: "standup", ConnectionID: "c2"})

	req.NoError(svc.HandleLeaveRoom(ctx, "c2", &domain.LeaveRoomMessage{RoomKey: "standup"}))
	last := sender.messages("c1")[len(sender.messages("c1"))-1]
	req.Equal(&domain.UserDisconnectedMessage{Type: domain.MsgTypeUserDisconnected, ConnectionID: "c2"}, last)

	req.NoError(svc.HandleLeaveRoom(ctx, "c1", &domain.LeaveRoomMessage{RoomKey: "standup"}))
	req.Empty(svc.RoomStats())
}

func TestMeetingService_MissingIdentity_DefaultsToAnonymous(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	sender, svc := newTestService()

	svc.HandleJoinRoom(ctx, "c1", join("standup", "Alice"))
	ident, err := svc.HandleJoinRoom(ctx, "c2", &domain.JoinRoomRequestMessage{RoomKey: "standup"})
	req.NoError(err)
	req.Equal(domain.AnonymousName, ident.Name)

	last := sender.messages("c1")[len(sender.messages("c1"))-1].(*domain.WaitingUserMessage)
	req.Equal(domain.AnonymousName, last.Identity.Name)
}

func TestMeetingService_IdentityToken_OverridesAnnouncedIdentity(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	const secret = "test-secret"
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:  "Alice Verified",
		Email: "alice@corp.example.com",
	})
	signed, err := token.SignedString([]byte(secret))
	req.NoError(err)

	sender := newFakeSender()
	svc := NewMeetingService(room.NewRegistry(), sender, nil, auth.NewVerifier(secret))

	ident, err := svc.HandleJoinRoom(ctx, "c1", &domain.JoinRoomRequestMessage{
		RoomKey:  "standup",
		Identity: domain.Identity{Name: "alice"},
		Token:    signed,
	})
	req.NoError(err)
	req.Equal("Alice Verified", ident.Name)
	req.Equal("alice@corp.example.com", ident.Email)

	// A garbage token is ignored rather than blocking admission
	ident, err = svc.HandleJoinRoom(ctx, "c2", &domain.JoinRoomRequestMessage{
		RoomKey:  "standup",
		Identity: domain.Identity{Name: "Bob"},
		Token:    "not-a-token",
	})
	req.NoError(err)
	req.Equal("Bob", ident.Name)
}
