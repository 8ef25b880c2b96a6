package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"marketplace-service/internal/models"
)

func TestHubAddAndRemoveAdClient(t *testing.T) {
	hub := NewHub()

	hub.AddAdClient("ad-1", nil, ConnInfo{})
	if len(hub.adRooms) != 1 {
		t.Fatalf("expected ad room to be created")
	}

	hub.RemoveAdClient("ad-1", nil)
	if len(hub.adRooms) != 0 {
		t.Fatalf("expected ad room to be removed")
	}
}

func TestHubInboxPresenceTracking(t *testing.T) {
	hub := NewHub()

	hub.AddInboxClient("alice", nil, ConnInfo{})
	if !hub.InboxConnected("alice") {
		t.Fatalf("expected alice to be connected")
	}

	if stillOnline := hub.RemoveInboxClient("alice", nil); stillOnline {
		t.Fatalf("expected alice to be fully disconnected")
	}
	if hub.InboxConnected("alice") {
		t.Fatalf("expected inbox room to be removed")
	}
}

// newConnPair dials a throwaway websocket server and returns both ends, so
// broadcast tests exercise real writes instead of nil connections.
func newConnPair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()

	upgraded := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		upgraded <- conn
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	server := <-upgraded
	t.Cleanup(func() { server.Close() })
	return server, client
}

func TestBroadcastAdEventDelivers(t *testing.T) {
	hub := NewHub()
	server, client := newConnPair(t)
	hub.AddAdClient("ad-1", server, ConnInfo{})

	hub.BroadcastAdEvent("ad-1", models.AdEvent{Type: "bid_placed", AdID: "ad-1"})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var event models.AdEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if event.Type != "bid_placed" || event.AdID != "ad-1" {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestBroadcastSurvivesConcurrentRemoves(t *testing.T) {
	hub := NewHub()
	servers := make([]*websocket.Conn, 0, 8)
	for i := 0; i < 8; i++ {
		server, client := newConnPair(t)
		go func() {
			for {
				if _, _, err := client.ReadMessage(); err != nil {
					return
				}
			}
		}()
		hub.AddAdClient("ad-1", server, ConnInfo{})
		servers = append(servers, server)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.BroadcastAdEvent("ad-1", models.AdEvent{Type: "bid_placed", AdID: "ad-1"})
			}
		}()
	}
	for _, server := range servers[:4] {
		wg.Add(1)
		go func(conn *websocket.Conn) {
			defer wg.Done()
			hub.RemoveAdClient("ad-1", conn)
		}(server)
	}
	wg.Wait()

	hub.BroadcastAdEvent("ad-1", models.AdEvent{Type: "auction_extended", AdID: "ad-1"})
}
