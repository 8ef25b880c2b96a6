package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"marketplace-service/internal/observability"
	"marketplace-service/internal/repositories"
	"marketplace-service/internal/utils"
)

// AdWebSocketHandler streams auction updates for a single ad.
type AdWebSocketHandler struct {
	hub        *Hub
	adRepo     repositories.AdRepository
	jwtService *utils.JWTService
}

// NewAdWebSocketHandler builds an AdWebSocketHandler.
func NewAdWebSocketHandler(hub *Hub, adRepo repositories.AdRepository, jwtService *utils.JWTService) *AdWebSocketHandler {
	return &AdWebSocketHandler{hub: hub, adRepo: adRepo, jwtService: jwtService}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client in the ad room.
func (h *AdWebSocketHandler) Handle(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("ad_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ad id"})
		return
	}

	ctx, span := otel.Tracer("marketplace-service/ws").Start(c.Request.Context(), "ws.ad.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := userFromRequest(c, h.jwtService)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if _, err := h.adRepo.GetAd(ctx, adID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrAdNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "ad not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	room := adID.String()
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddAdClient(room, conn, info)
	observability.IncWSActive("ad")
	observability.IncWSEvent("ad", "ws_connect")
	publishLifecycle(ctx, "ad", room, info, "ws_connect", "")

	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveAdClient(room, conn)
			observability.DecWSActive("ad")
			observability.IncWSEvent("ad", "ws_disconnect")
			publishLifecycle(ctx, "ad", room, info, "ws_disconnect", closeReason)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ad", "ws_error")
				}
				return
			}
		}
	}()
}
