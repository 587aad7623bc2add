package serve

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robinklaassen/artistic-intelligence-data/geo"
	"github.com/robinklaassen/artistic-intelligence-data/track"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	// wsSendBuffer bounds the per-client outbound queue; a client that falls
	// this many batches behind is dropped.
	wsSendBuffer = 8
	wsWriteWait  = 5 * time.Second
)

// livePosition is the per-entity shape pushed to websocket clients. The
// coordinates are already normalized for display.
type livePosition struct {
	ID      string  `json:"id"`
	NX      float64 `json:"nx"`
	NY      float64 `json:"ny"`
	Speed   float64 `json:"speed"`
	Heading float64 `json:"heading"`
	Type    string  `json:"type"`
}

// Hub broadcasts persisted batches to connected websocket clients. It
// implements the collector publish hook, so the collect loop does not know
// about websockets.
//
// Each client owns a buffered send queue drained by a dedicated writer
// goroutine, so all writes to one connection are serialized and Publish never
// waits on a client's network buffer.
type Hub struct {
	scaler geo.Scaler
	log    *slog.Logger

	mu       sync.Mutex
	clients  map[*websocket.Conn]chan []byte
	snapshot []byte
}

func NewHub(scaler geo.Scaler, log *slog.Logger) *Hub {
	return &Hub{
		scaler:  scaler,
		log:     log,
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// Publish converts a persisted batch to live positions and queues it for
// every connected client. Clients whose queue is full are dropped; the
// collecting tick is never blocked on a slow client.
func (h *Hub) Publish(samples []track.Sample) {
	positions := make([]livePosition, 0, len(samples))
	for _, s := range samples {
		nx, ny := h.scaler.Normalize(s.ProjX, s.ProjY)
		positions = append(positions, livePosition{
			ID:      s.EntityID,
			NX:      nx,
			NY:      ny,
			Speed:   s.Speed,
			Heading: s.Heading,
			Type:    s.EntityType,
		})
	}
	data, err := json.Marshal(positions)
	if err != nil {
		h.log.Error("marshal live positions", "err", err)
		return
	}

	var stalled []*websocket.Conn
	h.mu.Lock()
	h.snapshot = data
	for c, ch := range h.clients {
		select {
		case ch <- data:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.Unlock()

	for _, c := range stalled {
		h.log.Warn("dropping stalled websocket client", "remote", c.RemoteAddr().String())
		h.remove(c)
	}
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	ch := make(chan []byte, wsSendBuffer)
	h.mu.Lock()
	h.clients[conn] = ch
	// Seed a new client with the last batch so it renders immediately. The
	// queue is empty here, so this never blocks; routing the seed through the
	// queue keeps the writer goroutine the only writer on the connection.
	seed := h.snapshot
	if seed == nil {
		seed = []byte("null")
	}
	ch <- seed
	h.mu.Unlock()

	go h.writePump(conn, ch)
	go h.readPump(conn)
}

// remove unregisters a client exactly once; map presence is the guard.
func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	ch, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(ch)
	}
	h.mu.Unlock()
	_ = c.Close()
}

// writePump is the sole writer on its connection.
func (h *Hub) writePump(c *websocket.Conn, ch chan []byte) {
	defer h.remove(c)
	for data := range ch {
		_ = c.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// readPump drains client messages so close frames are noticed.
func (h *Hub) readPump(c *websocket.Conn) {
	defer h.remove(c)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

// ClientCount reports connected clients, for the health endpoint and tests.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
