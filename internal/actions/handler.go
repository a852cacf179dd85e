package actions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"advisor-backend/internal/analysis"
	"advisor-backend/internal/sessions"
	"advisor-backend/internal/shared/server/respond"
)

// Handler exposes action execution over HTTP.
type Handler struct {
	Store  *sessions.Store
	Engine *Engine
}

func NewHandler(store *sessions.Store, engine *Engine) *Handler {
	return &Handler{Store: store, Engine: engine}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions/:id/actions/:actionId", h.execute)
}

type executeRequest struct {
	Data map[string]any `json:"data"`
}

func (h *Handler) execute(c *gin.Context) {
	sessionID := c.Param("id")
	actionID := c.Param("actionId")

	session, err := h.Store.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "session_not_found", "session not found", nil)
		return
	}
	if session.Status == sessions.StatusClosed {
		respond.Error(c, http.StatusConflict, "session_closed", "session is closed", nil)
		return
	}

	action, ok := findAction(session.SuggestedActions, actionID)
	if !ok {
		respond.Error(c, http.StatusNotFound, "action_not_found", "suggested action not found", nil)
		return
	}

	payload := action.Data
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.Data != nil {
		payload = merged(action.Data, req.Data)
	}

	result, err := h.Engine.Execute(c.Request.Context(), sessionID, actionID, action.Type, payload)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "session_not_found", "session not found", nil)
			return
		}
		if errors.Is(err, sessions.ErrSessionClosed) {
			respond.Error(c, http.StatusConflict, "session_closed", "session is closed", nil)
			return
		}
		// Execution failures are reported with the failed sub-session so the
		// caller can inspect and retry.
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	respond.OK(c, result)
}

func findAction(actions []analysis.SuggestedAction, id string) (analysis.SuggestedAction, bool) {
	for _, a := range actions {
		if a.ID == id {
			return a, true
		}
	}
	return analysis.SuggestedAction{}, false
}

func merged(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
