package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/Preet416/remote-work-suite/internal/domain"
	"github.com/Preet416/remote-work-suite/internal/hub"
	"github.com/Preet416/remote-work-suite/internal/room"
	"github.com/Preet416/remote-work-suite/internal/service"
	pkglog "github.com/Preet416/remote-work-suite/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS middleware in front.
		return true
	},
}

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub     *hub.Hub
	service service.MeetingService
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(h *hub.Hub, svc service.MeetingService) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
	}
}

// HandleWebSocket upgrades the connection, assigns it an identifier, and
// starts the read/write pumps.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	l := pkglog.Ctx(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn)

	client.SetDisconnectHandler(func(c *hub.Client) {
		ctx := pkglog.WithLogger(context.Background(),
			pkglog.L().With().Str(pkglog.FieldConnectionID, c.ID).Logger())
		if err := h.service.HandleDisconnect(ctx, c.ID); err != nil {
			l.Error().Err(err).Str(pkglog.FieldConnectionID, c.ID).Msg("disconnect handler error")
		}
	})

	h.hub.Register(client)

	// The client needs its own identifier before peers can signal it.
	client.SendMessage(&domain.ConnectedMessage{
		Type:         domain.MsgTypeConnected,
		ConnectionID: client.ID,
	})

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid message format"))
		return
	}

	ctx := pkglog.WithLogger(context.Background(),
		pkglog.L().With().
			Str(pkglog.FieldConnectionID, client.ID).
			Str(pkglog.FieldMessageType, base.Type).
			Logger())

	switch base.Type {
	case domain.MsgTypeJoinRoomRequest:
		var msg domain.JoinRoomRequestMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid join-room-request message"))
			return
		}
		ident, err := h.service.HandleJoinRoom(ctx, client.ID, &msg)
		if err != nil {
			pkglog.Ctx(ctx).Error().Err(err).Msg("join room failed")
			return
		}
		client.SetIdentity(ident)

	case domain.MsgTypeApproveUser:
		var msg domain.ApproveUserMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid approve-user message"))
			return
		}
		if err := h.service.HandleApproveUser(ctx, client.ID, &msg); err != nil {
			pkglog.Ctx(ctx).Error().Err(err).Msg("approve failed")
		}

	case domain.MsgTypeSignal:
		var msg domain.SignalMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid signal message"))
			return
		}
		if err := h.service.HandleSignal(ctx, client.ID, &msg); err != nil {
			pkglog.Ctx(ctx).Error().Err(err).Msg("signal relay failed")
		}

	case domain.MsgTypeLeaveRoom:
		var msg domain.LeaveRoomMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid leave-room message"))
			return
		}
		if err := h.service.HandleLeaveRoom(ctx, client.ID, &msg); err != nil {
			pkglog.Ctx(ctx).Error().Err(err).Msg("leave room failed")
		}

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Unknown message type"))
	}
}

// handleStats reports live connection and room counts.
func (h *WSHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := struct {
		Connections int                    `json:"connections"`
		Rooms       map[string]room.Counts `json:"rooms"`
	}{
		Connections: h.hub.Count(),
		Rooms:       h.service.RoomStats(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		pkglog.Ctx(r.Context()).Error().Err(err).Msg("stats encode failed")
	}
}

// RegisterRoutes registers the websocket and operational routes.
func (h *WSHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws", h.HandleWebSocket)
	r.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
}
