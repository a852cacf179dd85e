package progress

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"advisor-backend/internal/sessions"
	"advisor-backend/internal/shared/server/respond"
)

// Handler serves the per-session progress stream as server-sent events.
type Handler struct {
	Broadcaster *Broadcaster
	Store       *sessions.Store
}

// NewHandler constructs a Handler.
func NewHandler(b *Broadcaster, store *sessions.Store) *Handler {
	return &Handler{Broadcaster: b, Store: store}
}

// RegisterRoutes attaches the status stream route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sessions/:id/status", h.stream)
}

func (h *Handler) stream(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := h.Store.GetSession(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch session", nil)
		return
	}

	events := h.Broadcaster.Open(sessionID)
	defer h.Broadcaster.Close(sessionID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.SSEvent("message", Event{
		Type:      EventConnected,
		Message:   "progress stream connected",
		Timestamp: time.Now().UTC(),
	})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent("message", event)
			c.Writer.Flush()
		}
	}
}
