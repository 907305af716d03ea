package service

import (
	"context"
	"errors"

	"github.com/Preet416/remote-work-suite/internal/domain"
	"github.com/Preet416/remote-work-suite/internal/events"
	"github.com/Preet416/remote-work-suite/internal/hub"
	"github.com/Preet416/remote-work-suite/internal/room"
	"github.com/Preet416/remote-work-suite/pkg/auth"
	pkglog "github.com/Preet416/remote-work-suite/pkg/log"
	"github.com/Preet416/remote-work-suite/pkg/metrics"
)

type meetingService struct {
	registry *room.Registry
	sender   Sender
	events   events.Publisher // nil when event publishing is disabled
	verifier *auth.Verifier   // nil when identity tokens are not read
}

// NewMeetingService creates a MeetingService. events and verifier may be nil.
func NewMeetingService(registry *room.Registry, sender Sender, ev events.Publisher, verifier *auth.Verifier) MeetingService {
	return &meetingService{
		registry: registry,
		sender:   sender,
		events:   ev,
		verifier: verifier,
	}
}

func (s *meetingService) HandleJoinRoom(ctx context.Context, connID string, msg *domain.JoinRoomRequestMessage) (domain.Identity, error) {
	ident := s.resolveIdentity(msg)
	res := s.registry.RequestAdmission(msg.RoomKey, connID, ident)

	l := pkglog.Ctx(ctx).With().Str(pkglog.FieldRoomKey, msg.RoomKey).Logger()

	switch res.Outcome {
	case room.HostApproved:
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeHost).Inc()
		metrics.RoomsActive.Inc()
		l.Info().Msg("room founded, host admitted")

		s.publish(events.NewRoomEvent(events.EventRoomCreated, msg.RoomKey, connID, ident))
		return ident, s.sender.SendToClient(connID, &domain.HostApprovedMessage{
			Type:    domain.MsgTypeHostApproved,
			RoomKey: msg.RoomKey,
		})

	case room.Waiting:
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeWaiting).Inc()
		l.Info().Msg("admission queued behind host approval")

		waiting := &domain.WaitingUserMessage{
			Type:         domain.MsgTypeWaitingUser,
			ConnectionID: connID,
			Identity:     ident,
		}
		for _, memberID := range res.NotifyApproved {
			s.send(memberID, waiting)
		}
		return ident, nil

	default: // room.AlreadyApproved
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeNoop).Inc()
		return ident, nil
	}
}

func (s *meetingService) HandleApproveUser(ctx context.Context, connID string, msg *domain.ApproveUserMessage) error {
	res := s.registry.Approve(msg.RoomKey, connID, msg.ConnectionID)
	if !res.Approved {
		// Unknown room, stale target, or unauthorized approver: silent no-op
		// so repeated and racing approvals are harmless.
		return nil
	}

	metrics.ApprovalsTotal.Inc()
	pkglog.Ctx(ctx).Info().
		Str(pkglog.FieldRoomKey, msg.RoomKey).
		Str(pkglog.FieldTarget, msg.ConnectionID).
		Msg("participant approved")

	s.send(msg.ConnectionID, &domain.ApprovedToJoinMessage{
		Type:    domain.MsgTypeApprovedToJoin,
		RoomKey: msg.RoomKey,
	})

	joined := &domain.NewUserApprovedMessage{
		Type:         domain.MsgTypeNewUserApproved,
		ConnectionID: msg.ConnectionID,
		Identity:     res.TargetIdentity,
	}
	for _, peerID := range res.NotifyPeers {
		s.send(peerID, joined)
	}

	s.publish(events.NewRoomEvent(events.EventUserApproved, msg.RoomKey, msg.ConnectionID, res.TargetIdentity))
	return nil
}

func (s *meetingService) HandleSignal(ctx context.Context, connID string, msg *domain.SignalMessage) error {
	// The sender is stamped server-side; a client cannot speak for a peer.
	out := &domain.SignalMessage{
		Type:    domain.MsgTypeSignal,
		To:      msg.To,
		From:    connID,
		Payload: msg.Payload,
	}

	err := s.sender.SendToClient(msg.To, out)
	if errors.Is(err, hub.ErrClientNotFound) {
		// Fire-and-forget: the disconnect broadcast tells the sender the
		// peer is gone.
		metrics.SignalsDroppedTotal.Inc()
		return nil
	}
	if err != nil {
		return err
	}

	metrics.SignalsRelayedTotal.Inc()
	return nil
}

func (s *meetingService) HandleLeaveRoom(ctx context.Context, connID string, msg *domain.LeaveRoomMessage) error {
	rem, ok := s.registry.Leave(msg.RoomKey, connID)
	if !ok {
		return nil
	}
	s.afterRemoval(ctx, connID, rem)
	return nil
}

func (s *meetingService) HandleDisconnect(ctx context.Context, connID string) error {
	metrics.DisconnectsTotal.Inc()

	removals := s.registry.DropConnection(connID)
	for _, rem := range removals {
		s.afterRemoval(ctx, connID, rem)
	}

	pkglog.Ctx(ctx).Info().
		Int("rooms", len(removals)).
		Msg("connection reconciled")
	return nil
}

func (s *meetingService) RoomStats() map[string]room.Counts {
	return s.registry.Stats()
}

// afterRemoval notifies remaining members and publishes lifecycle events for
// one room the connection was removed from.
func (s *meetingService) afterRemoval(ctx context.Context, connID string, rem room.Removal) {
	gone := &domain.UserDisconnectedMessage{
		Type:         domain.MsgTypeUserDisconnected,
		ConnectionID: connID,
	}
	for _, memberID := range rem.Remaining {
		s.send(memberID, gone)
	}

	s.publish(events.NewRoomEvent(events.EventUserLeft, rem.RoomKey, connID, domain.Identity{}))
	if rem.Deleted {
		metrics.RoomsActive.Dec()
		pkglog.Ctx(ctx).Info().Str(pkglog.FieldRoomKey, rem.RoomKey).Msg("room emptied, deleted")
		s.publish(events.NewRoomEvent(events.EventRoomClosed, rem.RoomKey, "", domain.Identity{}))
	}
}

// resolveIdentity merges the announced identity with identity-token claims,
// then applies the anonymous default. Claims win over the announced fields;
// a bad token is ignored rather than blocking admission.
func (s *meetingService) resolveIdentity(msg *domain.JoinRoomRequestMessage) domain.Identity {
	ident := msg.Identity
	if s.verifier != nil && msg.Token != "" {
		name, email, err := s.verifier.Identity(msg.Token)
		if err == nil {
			if name != "" {
				ident.Name = name
			}
			if email != "" {
				ident.Email = email
			}
		} else {
			pkglog.L().Debug().Err(err).Msg("identity token ignored")
		}
	}
	return ident.OrAnonymous()
}

// send delivers best-effort; a vanished recipient is not an error here.
func (s *meetingService) send(connID string, message interface{}) {
	if err := s.sender.SendToClient(connID, message); err != nil && !errors.Is(err, hub.ErrClientNotFound) {
		pkglog.L().Error().Err(err).Str(pkglog.FieldConnectionID, connID).Msg("send failed")
	}
}

// publish emits a lifecycle event without coupling registry mutations to the
// event bus; a slow broker never stalls admission.
func (s *meetingService) publish(event *events.RoomEvent) {
	if s.events == nil {
		return
	}
	go func() {
		if err := s.events.PublishRoomEvent(context.Background(), event); err != nil {
			pkglog.L().Warn().Err(err).Str("event", event.Type).Msg("event publish failed")
		}
	}()
}
