package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Handler upgrades authenticated requests onto the hub. Auth runs as gin
// middleware before it, so the session cookie is already checked.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	allowed := map[string]bool{}
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// HandleStatus serves GET /ws/status.
func (h *Handler) HandleStatus(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	userID := c.GetString("user_id")
	client := h.hub.Register(conn, userID)
	if client == nil {
		return
	}
	h.hub.log.Info("websocket connected", "user_id", userID)

	h.hub.readPump(client)
	h.hub.log.Info("websocket disconnected", "user_id", userID)
}
