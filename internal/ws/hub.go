package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"marketplace-service/internal/models"
	"marketplace-service/internal/observability"
)

// Hub maintains active websocket rooms: one room per auction ad and one inbox
// room per user. Every subscription is released when its connection closes.
type Hub struct {
	adRooms    map[string]map[*websocket.Conn]bool
	inboxRooms map[string]map[*websocket.Conn]bool
	adConnInfo map[string]map[*websocket.Conn]ConnInfo
	inboxInfo  map[string]map[*websocket.Conn]ConnInfo
	mu         sync.RWMutex
	writeMu    sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		adRooms:    make(map[string]map[*websocket.Conn]bool),
		inboxRooms: make(map[string]map[*websocket.Conn]bool),
		adConnInfo: make(map[string]map[*websocket.Conn]ConnInfo),
		inboxInfo:  make(map[string]map[*websocket.Conn]ConnInfo),
	}
}

// AddAdClient registers a websocket connection to an auction room.
func (h *Hub) AddAdClient(adID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.adRooms[adID]; !ok {
		h.adRooms[adID] = make(map[*websocket.Conn]bool)
	}
	h.adRooms[adID][conn] = true
	if _, ok := h.adConnInfo[adID]; !ok {
		h.adConnInfo[adID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.adConnInfo[adID][conn] = info
}

// RemoveAdClient removes an auction room connection.
func (h *Hub) RemoveAdClient(adID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.adRooms[adID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.adRooms, adID)
		}
	}
	if infos, ok := h.adConnInfo[adID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.adConnInfo, adID)
		}
	}
}

// AddInboxClient registers a websocket connection to the user's inbox room.
func (h *Hub) AddInboxClient(userID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.inboxRooms[userID]; !ok {
		h.inboxRooms[userID] = make(map[*websocket.Conn]bool)
	}
	h.inboxRooms[userID][conn] = true
	if _, ok := h.inboxInfo[userID]; !ok {
		h.inboxInfo[userID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.inboxInfo[userID][conn] = info
}

// RemoveInboxClient removes an inbox connection and reports whether the user
// has any connections left, so callers can flip presence.
func (h *Hub) RemoveInboxClient(userID string, conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.inboxRooms[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.inboxRooms, userID)
		}
	}
	if infos, ok := h.inboxInfo[userID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.inboxInfo, userID)
		}
	}
	_, stillOnline := h.inboxRooms[userID]
	return stillOnline
}

// InboxConnected reports whether the user has at least one inbox connection.
func (h *Hub) InboxConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.inboxRooms[userID]
	return ok
}

// BroadcastAdEvent sends an auction update to all clients watching the ad.
func (h *Hub) BroadcastAdEvent(adID string, event models.AdEvent) {
	conns := h.snapshotRoom(h.adRooms, adID)

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := h.write(conn, payload); err != nil {
			log.WithError(err).Warn("websocket write error")
			conn.Close()
			h.RemoveAdClient(adID, conn)
			h.publishWSError("ad", adID, conn, err)
		}
	}
}

// BroadcastChatEvent sends a chat event to the user's inbox connections.
func (h *Hub) BroadcastChatEvent(userID string, event models.ChatEvent) {
	conns := h.snapshotRoom(h.inboxRooms, userID)

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := h.write(conn, payload); err != nil {
			log.WithError(err).Warn("websocket write error")
			conn.Close()
			h.RemoveInboxClient(userID, conn)
			h.publishWSError("inbox", userID, conn, err)
		}
	}
}

// snapshotRoom copies a room's connections so broadcasts never iterate a map
// that a concurrent Remove can mutate.
func (h *Hub) snapshotRoom(rooms map[string]map[*websocket.Conn]bool, key string) []*websocket.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]*websocket.Conn, 0, len(rooms[key]))
	for conn := range rooms[key] {
		conns = append(conns, conn)
	}
	return conns
}

// write serializes WriteMessage calls; gorilla connections allow only one
// concurrent writer.
func (h *Hub) write(conn *websocket.Conn, payload []byte) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *Hub) publishWSError(kind, resourceID string, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(kind, resourceID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"resource_id": resourceID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id": info.UserID,
			"ip":      info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsRoutingKey(kind),
		observability.NewEnvelope("ws_events", "ws_error", payload), headers)
	observability.IncWSEvent(kind, "ws_error")
}

func (h *Hub) getConnInfo(kind, resourceID string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if kind == "ad" {
		if infos, ok := h.adConnInfo[resourceID]; ok {
			info, exists := infos[conn]
			return info, exists
		}
		return ConnInfo{}, false
	}
	if infos, ok := h.inboxInfo[resourceID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}

func wsRoutingKey(kind string) string {
	if kind == "inbox" {
		return "ws_events.inbox"
	}
	return "ws_events.ads"
}
