package handler

import (
	"io"
	"time"

	"robot-dispatch/internal/events"
	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sseKeepalive = 30 * time.Second

// EventsHandler streams domain events to operators as server-sent events.
type EventsHandler struct {
	hub *events.Hub
}

func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

func (h *EventsHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	router.GET("/events", h.Stream)
}

func (h *EventsHandler) Stream(c *gin.Context) {
	ch := h.hub.AddClient()
	defer h.hub.RemoveClient(ch)

	logger.Debug("Event stream opened",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Int("clients", h.hub.ClientCount()),
	)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	keepalive := time.NewTicker(sseKeepalive)
	defer keepalive.Stop()

	c.Stream(func(io.Writer) bool {
		select {
		case evt, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(evt.Type), evt)
			return true
		case <-keepalive.C:
			c.SSEvent("keepalive", "ping")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
