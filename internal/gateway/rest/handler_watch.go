package rest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/facetbase/facetd/internal/events"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Heartbeat interval for SSE clients.
	sseHeartbeatInterval = 15 * time.Second

	// Events queued per client before the slowest reader starts dropping.
	eventBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     safeCheckOrigin,
}

// safeCheckOrigin validates WebSocket connection origins.
// It allows:
// - Empty origin (non-browser clients)
// - Same host:port as the request
// - Same host (ignoring port) for development scenarios
func safeCheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	if strings.EqualFold(u.Host, r.Host) {
		return true
	}

	originHost := strings.Split(u.Host, ":")[0]
	requestHost := strings.Split(r.Host, ":")[0]

	return strings.EqualFold(originHost, requestHost)
}

// subscribe attaches a buffered channel to the change stream of collection.
// A slow consumer drops events rather than blocking the bus.
func (h *Handler) subscribe(collection string) (<-chan events.Event, events.Subscription, error) {
	ch := make(chan events.Event, eventBuffer)
	sub, err := h.engine.Watch(collection, func(ev events.Event) {
		select {
		case ch <- ev:
		default:
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return ch, sub, nil
}

// handleWatch streams change events for a collection over a websocket.
func (h *Handler) handleWatch(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")

	ch, sub, err := h.subscribe(collection)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Unsubscribe()
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}

	go h.watchReadPump(conn, sub)
	go h.watchWritePump(conn, ch)
}

// watchReadPump discards inbound messages and detects the peer going away.
// There is at most one reader per connection.
func (h *Handler) watchReadPump(conn *websocket.Conn, sub events.Subscription) {
	defer func() {
		sub.Unsubscribe()
		conn.Close()
	}()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("Websocket connection closed", "error", err)
			}
			return
		}
	}
}

// watchWritePump forwards change events to the peer and keeps the
// connection alive with pings. There is at most one writer per connection.
func (h *Handler) watchWritePump(conn *websocket.Conn, ch <-chan events.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case ev := <-ch:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleEvents streams change events for a collection as Server-Sent Events.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "Streaming unsupported")
		return
	}

	collection := r.PathValue("collection")

	ch, sub, err := h.subscribe(collection)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Initial comment to establish the connection
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(sseHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
