package actions

import (
	"context"
	"errors"
	"testing"

	"advisor-backend/internal/analysis"
	"advisor-backend/internal/sessions"
)

func newSessionWithStore(t *testing.T) (*sessions.Store, sessions.Session) {
	t.Helper()
	store := sessions.NewStore(nil)
	sess, err := store.CreateSession(context.Background(), "advisor-1", "client-1")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return store, sess
}

func TestExecuteCompletesAction(t *testing.T) {
	store, sess := newSessionWithStore(t)
	engine := NewEngine(store)

	result, err := engine.Execute(context.Background(), sess.ID, "a1", analysis.ActionCreateNote, map[string]any{"title": "Reviewed statement"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != sessions.SubSessionCompleted {
		t.Fatalf("status = %q", result.Status)
	}
	if result.SubSessionID == "" {
		t.Fatalf("expected sub-session id")
	}
	if result.Result["transactionId"] == "" {
		t.Fatalf("expected transaction id in result")
	}

	got, _ := store.GetSession(context.Background(), sess.ID)
	sub, ok := got.SubSessions[result.SubSessionID]
	if !ok {
		t.Fatalf("sub-session not recorded")
	}
	if sub.Status != sessions.SubSessionCompleted || sub.CompletedAt == nil {
		t.Fatalf("sub-session not completed: %+v", sub)
	}
	ar, ok := got.ActionResults["a1"]
	if !ok {
		t.Fatalf("action result not recorded")
	}
	if ar.TargetSystem != "notes-service" || ar.TransactionID == "" {
		t.Fatalf("unexpected action result: %+v", ar)
	}
	if got.Metadata.ExecutedActions != 1 {
		t.Fatalf("executedActions = %d", got.Metadata.ExecutedActions)
	}
}

func TestExecuteUnknownActionTypeFails(t *testing.T) {
	store, sess := newSessionWithStore(t)
	engine := NewEngine(store)

	result, err := engine.Execute(context.Background(), sess.ID, "a1", "archive-to-vault", nil)
	if !errors.Is(err, ErrUnknownActionType) {
		t.Fatalf("expected ErrUnknownActionType, got %v", err)
	}
	if result.Status != sessions.SubSessionFailed {
		t.Fatalf("status = %q", result.Status)
	}

	got, _ := store.GetSession(context.Background(), sess.ID)
	sub := got.SubSessions[result.SubSessionID]
	if sub.Status != sessions.SubSessionFailed || sub.Error == "" {
		t.Fatalf("expected failed sub-session with error, got %+v", sub)
	}
	if _, ok := got.ActionResults["a1"]; ok {
		t.Fatalf("failed execution must not record an action result")
	}
	if got.Metadata.FailedActions != 1 {
		t.Fatalf("failedActions = %d", got.Metadata.FailedActions)
	}
	if got.Metadata.ExecutedActions != 0 {
		t.Fatalf("executedActions = %d", got.Metadata.ExecutedActions)
	}
}

func TestExecuteHandlerFailureRecordsError(t *testing.T) {
	store, sess := newSessionWithStore(t)
	engine := NewEngine(store)

	// update-client-profile requires a clientId in the payload.
	result, err := engine.Execute(context.Background(), sess.ID, "a1", analysis.ActionUpdateClientProfile, map[string]any{})
	if err == nil {
		t.Fatalf("expected handler error")
	}
	if result.Status != sessions.SubSessionFailed {
		t.Fatalf("status = %q", result.Status)
	}

	got, _ := store.GetSession(context.Background(), sess.ID)
	if _, ok := got.ActionResults["a1"]; ok {
		t.Fatalf("failed execution must not record an action result")
	}
}

func TestReexecutionCreatesNewSubSession(t *testing.T) {
	store, sess := newSessionWithStore(t)
	engine := NewEngine(store)

	first, err := engine.Execute(context.Background(), sess.ID, "a1", analysis.ActionCreateNote, nil)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	second, err := engine.Execute(context.Background(), sess.ID, "a1", analysis.ActionCreateNote, nil)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if first.SubSessionID == second.SubSessionID {
		t.Fatalf("expected distinct sub-sessions")
	}

	got, _ := store.GetSession(context.Background(), sess.ID)
	if len(got.SubSessions) != 2 {
		t.Fatalf("expected 2 sub-sessions, got %d", len(got.SubSessions))
	}
	if got.Metadata.ExecutedActions != 1 {
		t.Fatalf("executedActions = %d, want 1 for the same action", got.Metadata.ExecutedActions)
	}
	if got.ActionResults["a1"].TransactionID != second.Result["transactionId"] {
		t.Fatalf("expected last execution to own the action result")
	}
}

func TestExecuteUnknownSession(t *testing.T) {
	store := sessions.NewStore(nil)
	engine := NewEngine(store)

	if _, err := engine.Execute(context.Background(), "missing", "a1", analysis.ActionCreateNote, nil); !errors.Is(err, sessions.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDomainHandlerSystems(t *testing.T) {
	engine := NewEngine(sessions.NewStore(nil))
	want := map[string]string{
		analysis.ActionCreateNote:          "notes-service",
		analysis.ActionFillComplianceForm:  "compliance-portal",
		analysis.ActionUpdateClientProfile: "crm",
		analysis.ActionScheduleFollowUp:    "calendar-service",
	}
	for actionType, system := range want {
		handler, ok := engine.handlers[actionType]
		if !ok {
			t.Fatalf("no handler for %s", actionType)
		}
		if handler.System() != system {
			t.Fatalf("handler for %s targets %s, want %s", actionType, handler.System(), system)
		}
	}
}
