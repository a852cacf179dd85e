package pipeline

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"advisor-backend/internal/sessions"
	"advisor-backend/internal/shared/server/respond"
)

// MaxUploadBytes caps a single document upload.
const MaxUploadBytes = 10 << 20

var allowedContentTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain": {},
}

// Handler exposes the upload pipeline over HTTP.
type Handler struct {
	Orchestrator *Orchestrator
}

func NewHandler(orchestrator *Orchestrator) *Handler {
	return &Handler{Orchestrator: orchestrator}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions/:id/upload", h.upload)
	rg.POST("/sessions/:id/documents/:documentId/reanalyze", h.reanalyze)
}

func (h *Handler) upload(c *gin.Context) {
	sessionID := c.Param("id")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_upload", "multipart form must include a file field", nil)
		return
	}

	contentType := normalizeContentType(fileHeader.Header.Get("Content-Type"))
	if _, ok := allowedContentTypes[contentType]; !ok {
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_content_type", "unsupported content type: "+contentType, nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_upload", "could not open uploaded file", nil)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_upload", "could not read uploaded file", nil)
		return
	}

	doc, err := h.Orchestrator.Run(c.Request.Context(), sessionID, fileHeader.Filename, contentType, data)
	if err != nil {
		switch {
		case errors.Is(err, sessions.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "session_not_found", "session not found", nil)
		case errors.Is(err, sessions.ErrSessionClosed):
			respond.Error(c, http.StatusConflict, "session_closed", "session is closed", nil)
		default:
			respond.Error(c, http.StatusUnprocessableEntity, "pipeline_failed", err.Error(), nil)
		}
		return
	}

	c.Set("sessionId", sessionID)
	c.Set("documentId", doc.ID)
	c.Set("extractionStrategy", doc.ExtractionStrategy)
	respond.OK(c, gin.H{
		"documentId":          doc.ID,
		"analysis":            doc.Analysis,
		"suggestedActions":    doc.Analysis.SuggestedActions,
		"extractionStrategy":  doc.ExtractionStrategy,
		"extractedTextLength": len(doc.ExtractedText),
	})
}

func (h *Handler) reanalyze(c *gin.Context) {
	sessionID := c.Param("id")
	documentID := c.Param("documentId")

	doc, err := h.Orchestrator.Reanalyze(c.Request.Context(), sessionID, documentID)
	if err != nil {
		switch {
		case errors.Is(err, sessions.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "session_not_found", "session not found", nil)
		case errors.Is(err, sessions.ErrDocumentNotFound):
			respond.Error(c, http.StatusNotFound, "document_not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusUnprocessableEntity, "reanalyze_failed", err.Error(), nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"documentId":         doc.ID,
		"analysis":           doc.Analysis,
		"suggestedActions":   doc.Analysis.SuggestedActions,
		"extractionStrategy": doc.ExtractionStrategy,
	})
}

func normalizeContentType(contentType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
}
