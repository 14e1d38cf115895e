package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 5 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 8
)

// command is a spectator request, applied by the tick loop.
type command struct {
	Type string `json:"type"`
	Buy  string `json:"buy"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans msgpack snapshots out to websocket spectators and funnels their
// commands back to the tick loop. Slow subscribers drop frames.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}

	Commands chan command
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:      log,
		subs:     map[*subscriber]struct{}{},
		Commands: make(chan command, 32),
	}
}

// ServeHTTP upgrades the request and registers the spectator.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	h.log.Info("spectator connected", zap.String("remote", r.RemoteAddr), zap.Int("spectators", n))

	go h.writePump(sub)
	h.readPump(sub)
}

// Broadcast queues data for every subscriber without blocking.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.send <- data:
		default:
		}
	}
}

// Len is the number of connected spectators.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every spectator.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = map[*subscriber]struct{}{}
	h.mu.Unlock()
	for sub := range subs {
		close(sub.send)
	}
}

func (h *Hub) drop(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()
	if ok {
		close(sub.send)
	}
}

func (h *Hub) readPump(sub *subscriber) {
	defer h.drop(sub)
	for {
		var cmd command
		if err := sub.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("spectator read failed", zap.Error(err))
			}
			return
		}
		select {
		case h.Commands <- cmd:
		default:
			h.log.Warn("command dropped", zap.String("type", cmd.Type))
		}
	}
}

func (h *Hub) writePump(sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()
	for {
		select {
		case data, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
