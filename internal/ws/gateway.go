package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"collab-service/internal/apperrors"
	"collab-service/internal/models"
	"collab-service/internal/observability"
	"collab-service/internal/repositories"
	"collab-service/internal/session"
)

// ChatAccess is the chat lookup used by room and typing events.
type ChatAccess interface {
	GetDetails(ctx context.Context, chatID string) (models.ChatDetails, error)
	IsParticipant(ctx context.Context, chatID string, userID string) (bool, error)
}

// UserChecker verifies the handshake user still exists.
type UserChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Gateway is the socket endpoint. Identity comes from the session cookie at
// handshake and does not change for the life of the connection.
type Gateway struct {
	hub      *Hub
	messages *MessageService
	chats    ChatAccess
	sessions session.Store
	cookies  *session.CookieCodec
	users    UserChecker
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

func NewGateway(hub *Hub, messages *MessageService, chats ChatAccess, sessions session.Store, cookies *session.CookieCodec, users UserChecker, allowedOrigin string, logger *logrus.Logger) *Gateway {
	allowedOrigin = strings.TrimRight(allowedOrigin, "/")
	return &Gateway{
		hub:      hub,
		messages: messages,
		chats:    chats,
		sessions: sessions,
		cookies:  cookies,
		users:    users,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "" || origin == allowedOrigin
			},
		},
		log: logger.WithField("component", "ws"),
	}
}

// Handle authenticates the handshake, upgrades and serves one client.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("collab-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	sess, err := g.authenticate(ctx, c.Request)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      sess.UserID,
		SessionID:   sess.ID,
		IP:          c.ClientIP(),
		RequestID:   c.GetString("request_id"),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, info)
	g.hub.Register(client)

	log := g.log.WithFields(logrus.Fields{"conn_id": info.ConnID, "user_id": info.UserID})
	log.Info("websocket connected")
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	g.publishLifecycle(ctx, "ws_connect", info, "")

	go client.writePump(log)

	// The request context ends when the handler returns, so the read loop
	// runs on its own context tied to the client.
	connCtx, cancel := context.WithCancel(context.Background())
	go func() {
		<-client.Done()
		cancel()
	}()

	go func() {
		err := client.readPump(connCtx, func(ctx context.Context, raw []byte) {
			g.Dispatch(ctx, client, raw)
		})
		reason := ""
		if err != nil {
			reason = err.Error()
		}
		if err != nil && !errors.Is(err, context.Canceled) &&
			!websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			observability.IncWSEvent("ws_error")
			g.publishLifecycle(context.Background(), "ws_error", info, reason)
		}

		g.hub.Unregister(client)
		client.Close()
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		g.publishLifecycle(context.Background(), "ws_disconnect", info, reason)
		log.WithField("duration_ms", time.Since(info.ConnectedAt).Milliseconds()).Info("websocket disconnected")
	}()
}

func (g *Gateway) authenticate(ctx context.Context, r *http.Request) (session.Session, error) {
	id, err := g.cookies.Read(r)
	if err != nil {
		return session.Session{}, apperrors.Unauthorized("not authenticated")
	}
	sess, err := g.sessions.Get(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return session.Session{}, apperrors.Unauthorized("not authenticated")
	}
	if err != nil {
		return session.Session{}, apperrors.Internal("failed to load session", err)
	}
	exists, err := g.users.Exists(ctx, sess.UserID)
	if err != nil {
		return session.Session{}, apperrors.Internal("failed to verify session", err)
	}
	if !exists {
		return session.Session{}, apperrors.Unauthorized("not authenticated")
	}
	return sess, nil
}

// Dispatch handles one inbound frame from client.
func (g *Gateway) Dispatch(ctx context.Context, client *Client, raw []byte) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		g.reply(client, in.ID, nil, apperrors.BadRequest("malformed frame"))
		return
	}
	observability.IncWSEvent(in.Event)

	switch in.Event {
	case EventSendMessage:
		var req SendMessageRequest
		if err := json.Unmarshal(in.Data, &req); err != nil {
			g.reply(client, in.ID, nil, apperrors.BadRequest("malformed send-message payload"))
			return
		}
		msg, err := g.messages.Send(ctx, client.UserID(), req.ChatID, req.Text)
		if err != nil {
			g.reply(client, in.ID, nil, err)
			return
		}
		g.reply(client, in.ID, SendMessageAck{Message: msg}, nil)

	case EventJoinChat, EventLeaveChat:
		var req ChatRoomRequest
		if err := json.Unmarshal(in.Data, &req); err != nil || req.ChatID == "" {
			g.reply(client, in.ID, nil, apperrors.BadRequest("chatId is required"))
			return
		}
		if in.Event == EventLeaveChat {
			g.hub.Leave(ChatRoom(req.ChatID), client)
			g.reply(client, in.ID, req, nil)
			return
		}
		ok, err := g.chats.IsParticipant(ctx, req.ChatID, client.UserID())
		if err != nil {
			g.reply(client, in.ID, nil, apperrors.Internal("failed to load chat", err))
			return
		}
		if !ok {
			g.reply(client, in.ID, nil, apperrors.Forbidden("not a participant of this chat"))
			return
		}
		g.hub.Join(ChatRoom(req.ChatID), client)
		g.reply(client, in.ID, req, nil)

	case EventTyping:
		var req ChatRoomRequest
		if err := json.Unmarshal(in.Data, &req); err != nil || req.ChatID == "" {
			g.reply(client, in.ID, nil, apperrors.BadRequest("chatId is required"))
			return
		}
		if err := g.relayTyping(ctx, client.UserID(), req.ChatID); err != nil {
			g.reply(client, in.ID, nil, err)
		}

	default:
		g.reply(client, in.ID, nil, apperrors.BadRequest("unknown event"))
	}
}

// relayTyping notifies the other participants that have the chat open.
func (g *Gateway) relayTyping(ctx context.Context, userID, chatID string) error {
	details, err := g.chats.GetDetails(ctx, chatID)
	if errors.Is(err, repositories.ErrChatNotFound) {
		return apperrors.NotFound("chat not found")
	}
	if err != nil {
		return apperrors.Internal("failed to load chat", err)
	}
	if !details.HasParticipant(userID) {
		return apperrors.Forbidden("not a participant of this chat")
	}
	event := TypingEvent{ChatID: chatID, UserID: userID}
	for _, participant := range details.Participants {
		if participant.ID == userID {
			continue
		}
		if err := g.hub.BroadcastToUserInRoom(participant.ID, ChatRoom(chatID), EventTyping, event); err != nil {
			return apperrors.Internal("failed to relay typing", err)
		}
	}
	return nil
}

func (g *Gateway) reply(client *Client, id string, data any, err error) {
	frame := Outbound{Event: EventAck, ID: id, Data: data}
	if err != nil {
		body := apperrors.ToBody(err)
		frame = Outbound{Event: EventAck, ID: id, Error: &body}
	}
	payload, encErr := encode(frame)
	if encErr != nil {
		g.log.WithError(encErr).Error("encode ack")
		return
	}
	if !client.Enqueue(payload) {
		observability.IncFanoutDropped(EventAck)
	}
}

func (g *Gateway) publishLifecycle(ctx context.Context, name string, info ConnInfo, reason string) {
	_ = observability.PublishEvent(ctx, "ws_events.gateway", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       name,
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id": info.UserID,
				"ip":      info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
