package sessions

import (
	"time"

	"advisor-backend/internal/analysis"
)

// Session lifecycle statuses.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// SubSession statuses.
const (
	SubSessionPending   = "pending"
	SubSessionCompleted = "completed"
	SubSessionFailed    = "failed"
)

// Extraction strategies recorded on documents.
const (
	StrategyVision         = "vision"
	StrategyTextExtraction = "text-extraction"
	StrategyOCRFallback    = "ocr-fallback"
)

// Session represents one document-review engagement for an advisor/client pair.
type Session struct {
	ID               string                     `json:"id"`
	AdvisorID        string                     `json:"advisorId"`
	ClientID         string                     `json:"clientId"`
	Status           string                     `json:"status"`
	CreatedAt        time.Time                  `json:"createdAt"`
	Documents        []Document                 `json:"documents"`
	SubSessions      map[string]SubSession      `json:"subSessions"`
	ActionResults    map[string]ActionResult    `json:"actionResults"`
	Analysis         *analysis.Analysis         `json:"analysis,omitempty"`
	SuggestedActions []analysis.SuggestedAction `json:"suggestedActions,omitempty"`
	Metadata         Metadata                   `json:"metadata"`
}

// Metadata holds session-level aggregate counters.
type Metadata struct {
	TotalDocuments  int       `json:"totalDocuments"`
	TotalActions    int       `json:"totalActions"`
	ExecutedActions int       `json:"executedActions"`
	FailedActions   int       `json:"failedActions"`
	LastActivity    time.Time `json:"lastActivity"`
}

// Document is one uploaded artifact within a session. Its analysis is the only
// field mutated after creation.
type Document struct {
	ID                 string             `json:"id"`
	FileName           string             `json:"fileName"`
	StorageKey         string             `json:"storageKey"`
	ContentType        string             `json:"contentType"`
	SizeBytes          int64              `json:"sizeBytes"`
	ExtractedText      string             `json:"extractedText"`
	Analysis           *analysis.Analysis `json:"analysis,omitempty"`
	ExtractionStrategy string             `json:"extractionStrategy"`
	UploadedAt         time.Time          `json:"uploadedAt"`
	Archive            *ArchiveDescriptor `json:"archive,omitempty"`
}

// ArchiveDescriptor points at a rendered report for a document, if one exists.
type ArchiveDescriptor struct {
	StorageKey string    `json:"storageKey"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SubSession records one attempt to execute a single suggested action.
type SubSession struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"sessionId"`
	ActionID    string         `json:"actionId"`
	Action      map[string]any `json:"action"`
	Status      string         `json:"status"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

// ActionResult is the session-level canonical record for an executed action,
// keyed by action id. Re-execution overwrites the entry.
type ActionResult struct {
	ActionID      string         `json:"actionId"`
	Result        map[string]any `json:"result"`
	Status        string         `json:"status"`
	TargetSystem  string         `json:"targetSystem"`
	TransactionID string         `json:"transactionId"`
	ExecutedAt    time.Time      `json:"executedAt"`
}

// ActionStatus is the read-only projection joining suggested actions with
// their sub-sessions and action results.
type ActionStatus struct {
	ActionID      string     `json:"actionId"`
	Type          string     `json:"type"`
	Priority      string     `json:"priority"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	SubSessionID  string     `json:"subSessionId,omitempty"`
	TargetSystem  string     `json:"targetSystem,omitempty"`
	TransactionID string     `json:"transactionId,omitempty"`
	ExecutedAt    *time.Time `json:"executedAt,omitempty"`
}
