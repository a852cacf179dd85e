package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// The domain handlers below stand in for the downstream advisor systems.
// Each returns a deterministic confirmation payload with a fresh transaction
// id so re-executions are distinguishable.

type NotesHandler struct{}

func (NotesHandler) System() string { return "notes-service" }

func (NotesHandler) Execute(_ context.Context, payload map[string]any) (map[string]any, error) {
	title, _ := payload["title"].(string)
	if title == "" {
		title = "Advisor note"
	}
	return map[string]any{
		"noteId":        uuid.New().String(),
		"transactionId": uuid.New().String(),
		"title":         title,
		"createdAt":     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

type ComplianceHandler struct{}

func (ComplianceHandler) System() string { return "compliance-portal" }

func (ComplianceHandler) Execute(_ context.Context, payload map[string]any) (map[string]any, error) {
	formType, _ := payload["formType"].(string)
	if formType == "" {
		formType = "standard-review"
	}
	return map[string]any{
		"formId":        uuid.New().String(),
		"transactionId": uuid.New().String(),
		"formType":      formType,
		"submittedAt":   time.Now().UTC().Format(time.RFC3339),
		"status":        "submitted",
	}, nil
}

type CRMHandler struct{}

func (CRMHandler) System() string { return "crm" }

func (CRMHandler) Execute(_ context.Context, payload map[string]any) (map[string]any, error) {
	clientID, _ := payload["clientId"].(string)
	if clientID == "" {
		return nil, fmt.Errorf("update-client-profile: missing clientId")
	}
	return map[string]any{
		"clientId":      clientID,
		"transactionId": uuid.New().String(),
		"updatedFields": payload["fields"],
		"updatedAt":     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

type CalendarHandler struct{}

func (CalendarHandler) System() string { return "calendar-service" }

func (CalendarHandler) Execute(_ context.Context, payload map[string]any) (map[string]any, error) {
	when, _ := payload["scheduledFor"].(string)
	if when == "" {
		when = time.Now().UTC().Add(7 * 24 * time.Hour).Format(time.RFC3339)
	}
	return map[string]any{
		"eventId":       uuid.New().String(),
		"transactionId": uuid.New().String(),
		"scheduledFor":  when,
		"createdAt":     time.Now().UTC().Format(time.RFC3339),
	}, nil
}
