package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/khushigoel4699/Testplansserver/internal/websocket"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventsHandler streams registry events for one resourceId over WebSocket.
type EventsHandler struct {
	hub    *websocket.Hub
	logger *slog.Logger
}

// NewEventsHandler creates a new WebSocket handler
func NewEventsHandler(hub *websocket.Hub, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: logger}
}

// RegisterRoutes registers WebSocket routes
func (h *EventsHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/:resourceId/events", h.StreamEvents)
}

// StreamEvents upgrades the connection and subscribes it to the resourceId.
func (h *EventsHandler) StreamEvents(c *gin.Context) {
	resourceID := c.Param("resourceId")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.Warn("websocket upgrade failed", "resource_id", resourceID, "error", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, resourceID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
