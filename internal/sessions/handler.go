package sessions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"advisor-backend/internal/shared/server/respond"
)

// Handler wires session HTTP handlers to the store.
type Handler struct {
	Store *Store
}

// NewHandler constructs a Handler.
func NewHandler(store *Store) *Handler {
	return &Handler{Store: store}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.create)
	rg.GET("/sessions", h.list)
	rg.GET("/sessions/:id", h.get)
	rg.POST("/sessions/:id/close", h.close)
	rg.GET("/sessions/:id/actions/status", h.actionStatus)
}

type createSessionRequest struct {
	AdvisorID string `json:"advisorId"`
	ClientID  string `json:"clientId"`
}

func (h *Handler) create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	sess, err := h.Store.CreateSession(c.Request.Context(), req.AdvisorID, req.ClientID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "advisorId and clientId are required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create session", nil)
		}
		return
	}

	c.Set("sessionId", sess.ID)
	respond.JSON(c, http.StatusCreated, sess)
}

func (h *Handler) list(c *gin.Context) {
	sessions, err := h.Store.ListSessions(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list sessions", nil)
		return
	}

	resp := make([]gin.H, 0, len(sessions))
	for _, sess := range sessions {
		resp = append(resp, gin.H{
			"id":        sess.ID,
			"advisorId": sess.AdvisorID,
			"clientId":  sess.ClientID,
			"status":    sess.Status,
			"createdAt": sess.CreatedAt,
			"metadata":  sess.Metadata,
		})
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	sess, err := h.Store.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch session", nil)
		}
		return
	}
	respond.OK(c, sess)
}

func (h *Handler) close(c *gin.Context) {
	sess, err := h.Store.CloseSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to close session", nil)
		}
		return
	}
	respond.OK(c, sess)
}

func (h *Handler) actionStatus(c *gin.Context) {
	statuses, err := h.Store.GetSessionActionStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to project action status", nil)
		}
		return
	}
	respond.OK(c, gin.H{
		"sessionId": c.Param("id"),
		"actions":   statuses,
	})
}
