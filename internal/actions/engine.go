package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"advisor-backend/internal/analysis"
	"advisor-backend/internal/sessions"
	"advisor-backend/internal/shared/metrics"
	"advisor-backend/internal/shared/telemetry"
)

// ErrUnknownActionType is returned when no handler matches the action's tag.
var ErrUnknownActionType = errors.New("unknown action type")

// DomainHandler executes one action type against a mock downstream system.
type DomainHandler interface {
	System() string
	Execute(ctx context.Context, payload map[string]any) (map[string]any, error)
}

// Engine dispatches suggested actions to their domain handlers, recording a
// SubSession per attempt and the session-level ActionResult on success.
type Engine struct {
	store    *sessions.Store
	handlers map[string]DomainHandler
}

// NewEngine constructs an Engine with the fixed action-type dispatch table.
func NewEngine(store *sessions.Store) *Engine {
	return &Engine{
		store: store,
		handlers: map[string]DomainHandler{
			analysis.ActionCreateNote:          NotesHandler{},
			analysis.ActionFillComplianceForm:  ComplianceHandler{},
			analysis.ActionUpdateClientProfile: CRMHandler{},
			analysis.ActionScheduleFollowUp:    CalendarHandler{},
		},
	}
}

// ExecuteResult reports the outcome of one execution attempt.
type ExecuteResult struct {
	SubSessionID string         `json:"subSessionId"`
	ActionID     string         `json:"actionId"`
	Status       string         `json:"status"`
	Result       map[string]any `json:"result,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Execute runs one suggested action. Re-executing a completed action creates a
// new SubSession and overwrites the keyed ActionResult (last write wins).
func (e *Engine) Execute(ctx context.Context, sessionID, actionID, actionType string, payload map[string]any) (ExecuteResult, error) {
	sub, err := e.store.CreateSubSession(ctx, sessionID, actionID, payload)
	if err != nil {
		return ExecuteResult{}, err
	}

	handler, ok := e.handlers[actionType]
	if !ok {
		return e.fail(ctx, sessionID, sub.ID, actionID, fmt.Errorf("%w: %s", ErrUnknownActionType, actionType))
	}

	result, err := handler.Execute(ctx, payload)
	if err != nil {
		return e.fail(ctx, sessionID, sub.ID, actionID, err)
	}

	if _, err := e.store.UpdateSubSession(ctx, sessionID, sub.ID, sessions.SubSessionCompleted, result, ""); err != nil {
		return ExecuteResult{}, err
	}

	transactionID, _ := result["transactionId"].(string)
	actionResult := sessions.ActionResult{
		ActionID:      actionID,
		Result:        result,
		Status:        sessions.SubSessionCompleted,
		TargetSystem:  handler.System(),
		TransactionID: transactionID,
		ExecutedAt:    time.Now().UTC(),
	}
	if err := e.store.AddActionResult(ctx, sessionID, actionResult); err != nil {
		return ExecuteResult{}, err
	}

	metrics.IncActionExecuted()
	telemetry.Info("action.executed", map[string]any{
		"session_id":     sessionID,
		"action_id":      actionID,
		"action_type":    actionType,
		"sub_session_id": sub.ID,
		"target_system":  handler.System(),
	})

	return ExecuteResult{
		SubSessionID: sub.ID,
		ActionID:     actionID,
		Status:       sessions.SubSessionCompleted,
		Result:       result,
	}, nil
}

func (e *Engine) fail(ctx context.Context, sessionID, subSessionID, actionID string, cause error) (ExecuteResult, error) {
	if _, err := e.store.UpdateSubSession(ctx, sessionID, subSessionID, sessions.SubSessionFailed, nil, cause.Error()); err != nil {
		return ExecuteResult{}, err
	}
	metrics.IncActionFailed()
	telemetry.Error("action.failed", map[string]any{
		"session_id":     sessionID,
		"action_id":      actionID,
		"sub_session_id": subSessionID,
		"err":            cause.Error(),
	})
	return ExecuteResult{
		SubSessionID: subSessionID,
		ActionID:     actionID,
		Status:       sessions.SubSessionFailed,
		Error:        cause.Error(),
	}, cause
}
