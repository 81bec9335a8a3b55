package stream

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
)

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithAllowedOrigins restricts the Origin header of upgrade requests.
// Without it every origin is accepted.
func WithAllowedOrigins(origins ...string) HandlerOption {
	return func(h *Handler) {
		h.origins = origins
	}
}

// Handler upgrades HTTP requests into stream clients. Authentication is
// left to the server middleware.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	origins  []string
}

// NewHandler returns a Handler registering clients with hub.
func NewHandler(hub *Hub, opts ...HandlerOption) *Handler {
	h := &Handler{hub: hub}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.origins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if slices.Contains(h.origins, origin) {
		return true
	}
	slog.Warn("stream origin rejected", "origin", origin)
	return false
}

// ServeHTTP upgrades the connection and starts the client pumps.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied
		slog.Debug("stream upgrade failed", "error", err)
		return
	}

	c := NewClient(h.hub, conn)
	h.hub.send(h.hub.register, c)
	go c.writePump()
	go c.readPump()

	slog.Info("stream client connected", "id", c.ID, "remote", conn.RemoteAddr().String())
}
