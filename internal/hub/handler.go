package hub

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/logger"
)

// Handler upgrades HTTP requests into hub subscribers. Authentication
// happens in-band afterwards via the auth message, not at upgrade.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      logger.Logger
}

func NewHandler(h *Hub, allowedOrigins []string, log logger.Logger) *Handler {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			allowed := slices.Contains(allowedOrigins, origin)
			if !allowed {
				log.Warn("hub: websocket origin rejected", "origin", origin)
			}
			return allowed
		},
	}

	return &Handler{hub: h, upgrader: upgrader, log: log}
}

func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("hub: upgrade failed", "error", err)
		return
	}

	client := NewClient(h.hub, conn, h.log)

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
