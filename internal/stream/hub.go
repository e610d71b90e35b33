// Package stream fans evaluated indicator results out to WebSocket
// clients. The Hub keeps the latest envelope per result key so a
// client connecting mid-run receives the current state immediately.
package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quant-analytics/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The hub serves local tooling, not browsers from other origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub manages WebSocket clients and fans out indicator results.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	latest  map[string]latestEntry // keyed by result Key()
	seq     int64
}

type latestEntry struct {
	Data []byte
	TS   time.Time
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		latest:  make(map[string]latestEntry),
	}
}

// Broadcast sends a result to all clients whose filters match.
// The envelope is hand-crafted; json.Marshal on the hot path costs
// more than the rest of the fan-out combined.
func (h *Hub) Broadcast(res model.IndicatorResult) {
	data := res.JSON()
	now := time.Now().UTC()
	key := res.Key()

	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.latest[key] = latestEntry{Data: data, TS: now}
	h.mu.Unlock()

	buf := make([]byte, 0, len(key)+len(data)+96)
	buf = append(buf, `{"key":"`...)
	buf = append(buf, key...)
	buf = append(buf, `","data":`...)
	buf = append(buf, data...)
	buf = append(buf, `,"ts":"`...)
	buf = now.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, '}')

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.matchesTicker(res.Ticker) {
			continue
		}
		select {
		case client.send <- buf:
		default:
			// Slow client: drop rather than stall the evaluation loop.
		}
	}
}

// HandleWS upgrades an HTTP connection and registers the client.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[stream] ws upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}
	if t := r.URL.Query().Get("ticker"); t != "" {
		client.tickers = map[string]bool{t: true}
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("[stream] ws client connected (%d total)", count)

	go client.sendInitialState()
	go client.writePump()
	go client.readPump()
}

// RemoveClient unregisters a client and closes its send channel.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// LatestAll returns a snapshot of the latest envelope per result key.
func (h *Hub) LatestAll() map[string]json.RawMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cp := make(map[string]json.RawMessage, len(h.latest))
	for k, v := range h.latest {
		cp[k] = v.Data
	}
	return cp
}
