package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vnkhanh/mente-abundante-backend/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
}

// Hub fans content change events out to connected admin screens.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*Client
	log     *logger.Logger
	closed  bool
}

// ContentEvent tells listeners which list to refresh.
type ContentEvent struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
	At     int64  `json:"at"`
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*Client),
		log:     log.With("component", "ws.Hub"),
	}
}

// Register adds a connection, queues the greeting and starts its writer.
// The caller runs the read loop.
func (h *Hub) Register(conn *websocket.Conn, userID string) *Client {
	client := &Client{Conn: conn, Send: make(chan []byte, sendBuffer), UserID: userID}
	client.Send <- []byte(`{"type":"connected"}`)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	h.clients[conn] = client
	h.mu.Unlock()

	go h.writePump(client)
	return client
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[conn]; ok {
		close(client.Send)
		delete(h.clients, conn)
	}
}

// Broadcast queues data for every client. Slow clients whose buffer is full
// miss the message.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// ContentChanged broadcasts that an entity was created, updated or deleted.
func (h *Hub) ContentChanged(entity, action, id string) {
	data, err := json.Marshal(ContentEvent{
		Type:   "content_changed",
		Entity: entity,
		Action: action,
		ID:     id,
		At:     time.Now().Unix(),
	})
	if err != nil {
		h.log.Error("marshal content event", "error", err)
		return
	}
	h.Broadcast(data)
}

func (h *Hub) GetStats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]int{"clients": len(h.clients)}
}

// Close disconnects every client. Later registrations are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for conn, client := range h.clients {
		close(client.Send)
		delete(h.clients, conn)
	}
}

func (h *Hub) readPump(client *Client) {
	defer h.Unregister(client.Conn)

	client.Conn.SetReadLimit(512)
	_ = client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-client.Send:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
