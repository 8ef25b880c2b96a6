package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"marketplace-service/internal/chats"
	"marketplace-service/internal/models"
	"marketplace-service/internal/observability"
	"marketplace-service/internal/repositories"
	"marketplace-service/internal/utils"
)

// InboxWebSocketHandler streams chat and presence events to a user and keeps
// the user's presence flag in sync with their connection lifecycle.
type InboxWebSocketHandler struct {
	hub        *Hub
	userRepo   repositories.UserRepository
	convRepo   repositories.ConversationRepository
	jwtService *utils.JWTService
}

// NewInboxWebSocketHandler builds an InboxWebSocketHandler.
func NewInboxWebSocketHandler(hub *Hub, userRepo repositories.UserRepository, convRepo repositories.ConversationRepository, jwtService *utils.JWTService) *InboxWebSocketHandler {
	return &InboxWebSocketHandler{hub: hub, userRepo: userRepo, convRepo: convRepo, jwtService: jwtService}
}

// Handle upgrades the connection, marks the user online and registers the
// inbox subscription. Presence flips back once the last connection closes.
func (h *InboxWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("marketplace-service/ws").Start(c.Request.Context(), "ws.inbox.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := userFromRequest(c, h.jwtService)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddInboxClient(userID, conn, info)
	if err := h.userRepo.SetOnline(ctx, userID, true); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("failed to set user online")
	}
	observability.IncWSActive("inbox")
	observability.IncWSEvent("inbox", "ws_connect")
	publishLifecycle(ctx, "inbox", userID, info, "ws_connect", "")
	h.notifyPresence(ctx, userID, true)

	go func() {
		var closeReason string
		defer func() {
			stillOnline := h.hub.RemoveInboxClient(userID, conn)
			if !stillOnline {
				// Detached from the request; the subscription is already gone.
				if err := h.userRepo.SetOnline(context.Background(), userID, false); err != nil {
					log.WithError(err).WithField("user_id", userID).Warn("failed to set user offline")
				}
				h.notifyPresence(context.Background(), userID, false)
			}
			observability.DecWSActive("inbox")
			observability.IncWSEvent("inbox", "ws_disconnect")
			publishLifecycle(ctx, "inbox", userID, info, "ws_disconnect", closeReason)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("inbox", "ws_error")
				}
				return
			}
		}
	}()
}

// notifyPresence tells everyone the user chats with that the user came online
// or dropped their last connection.
func (h *InboxWebSocketHandler) notifyPresence(ctx context.Context, userID string, online bool) {
	convs, err := h.convRepo.ListConversations(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("failed to list conversations for presence")
		return
	}
	event := models.ChatEvent{Type: "presence", UserID: userID, Online: online}
	for _, other := range chats.CounterpartIDs(convs, userID) {
		h.hub.BroadcastChatEvent(other, event)
	}
}

func userFromRequest(c *gin.Context, jwtService *utils.JWTService) (string, error) {
	token := c.GetHeader("Authorization")
	if token == "" {
		if q := c.Query("token"); q != "" {
			token = "Bearer " + q
		}
	}

	parts := strings.Split(token, " ")
	if len(parts) != 2 {
		return "", errors.New("invalid token")
	}
	claims, err := jwtService.ValidateToken(parts[1])
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func publishLifecycle(ctx context.Context, kind, resourceID string, info ConnInfo, event, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"resource_id": resourceID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id": info.UserID,
			"ip":      info.IP,
		},
	}

	_ = observability.PublishEvent(ctx, wsRoutingKey(kind),
		observability.NewEnvelope("ws_events", event, payload),
		observability.BuildHeaders(info.RequestID, info.TraceID))
}
