package sessions

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"advisor-backend/internal/analysis"
	"advisor-backend/internal/shared/telemetry"
)

// Snapshotter persists the serialized state of a single session. Persist
// failures are reported but never affect the in-memory state, which stays
// authoritative.
type Snapshotter interface {
	Persist(ctx context.Context, sessionID string, payload []byte) error
}

// Store is the process-wide keyed collection of sessions and the single
// source of truth for pipeline and action-execution outcomes.
//
// Two concurrent uploads into the same session are not serialized beyond the
// atomicity of individual store mutations; inter-upload ordering within one
// session is unspecified.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	snap     Snapshotter
}

// NewStore constructs a Store. The snapshotter may be nil, in which case no
// snapshots are written.
func NewStore(snap Snapshotter) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		snap:     snap,
	}
}

// Restore hydrates the store from snapshot payloads. Payloads that fail to
// decode are skipped; the snapshot is a recovery aid, not a source of truth.
func (s *Store) Restore(payloads map[string]json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, payload := range payloads {
		var sess Session
		if err := json.Unmarshal(payload, &sess); err != nil {
			telemetry.Warn("sessions.restore.skipped", map[string]any{
				"session_id": id,
				"err":        err.Error(),
			})
			continue
		}
		if sess.SubSessions == nil {
			sess.SubSessions = make(map[string]SubSession)
		}
		if sess.ActionResults == nil {
			sess.ActionResults = make(map[string]ActionResult)
		}
		if sess.Documents == nil {
			sess.Documents = []Document{}
		}
		s.sessions[sess.ID] = &sess
	}
}

// CreateSession registers a new active session for an advisor/client pair.
func (s *Store) CreateSession(ctx context.Context, advisorID, clientID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	if strings.TrimSpace(advisorID) == "" || strings.TrimSpace(clientID) == "" {
		return Session{}, ErrInvalidInput
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:            uuid.NewString(),
		AdvisorID:     advisorID,
		ClientID:      clientID,
		Status:        StatusActive,
		CreatedAt:     now,
		Documents:     []Document{},
		SubSessions:   make(map[string]SubSession),
		ActionResults: make(map[string]ActionResult),
		Metadata: Metadata{
			LastActivity: now,
		},
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	out := sess.clone()
	payload := marshalSession(sess)
	s.mu.Unlock()

	s.persistAsync(sess.ID, payload)
	return out, nil
}

// GetSession returns a copy of the session.
func (s *Store) GetSession(ctx context.Context, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess.clone(), nil
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CloseSession transitions a session to closed. Sessions are never deleted.
func (s *Store) CloseSession(ctx context.Context, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return Session{}, ErrNotFound
	}
	sess.Status = StatusClosed
	sess.Metadata.LastActivity = time.Now().UTC()
	out := sess.clone()
	payload := marshalSession(sess)
	s.mu.Unlock()

	s.persistAsync(sessionID, payload)
	return out, nil
}

// AddDocument appends a document to the session and promotes its analysis to
// the session level so the session always reflects its most recent document.
func (s *Store) AddDocument(ctx context.Context, sessionID string, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	backfillExtractedText(&doc)

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return Document{}, ErrNotFound
	}
	if sess.Status == StatusClosed {
		s.mu.Unlock()
		return Document{}, ErrSessionClosed
	}

	sess.Documents = append(sess.Documents, doc)
	sess.Metadata.TotalDocuments = len(sess.Documents)
	sess.Metadata.LastActivity = time.Now().UTC()
	promoteAnalysis(sess, doc.Analysis)

	out := doc.clone()
	payload := marshalSession(sess)
	s.mu.Unlock()

	s.persistAsync(sessionID, payload)
	return out, nil
}

// AddAnalysisToDocument replaces a document's analysis, the only permitted
// post-creation document mutation, and re-promotes it to the session level.
func (s *Store) AddAnalysisToDocument(ctx context.Context, sessionID, documentID string, result analysis.Analysis) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return Document{}, ErrNotFound
	}

	idx := -1
	for i := range sess.Documents {
		if sess.Documents[i].ID == documentID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return Document{}, ErrDocumentNotFound
	}

	sess.Documents[idx].Analysis = &result
	backfillExtractedText(&sess.Documents[idx])
	sess.Metadata.LastActivity = time.Now().UTC()
	promoteAnalysis(sess, sess.Documents[idx].Analysis)

	out := sess.Documents[idx].clone()
	payload := marshalSession(sess)
	s.mu.Unlock()

	s.persistAsync(sessionID, payload)
	return out, nil
}

// GetDocument returns a copy of one document in a session.
func (s *Store) GetDocument(ctx context.Context, sessionID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return Document{}, ErrNotFound
	}
	for i := range sess.Documents {
		if sess.Documents[i].ID == documentID {
			return sess.Documents[i].clone(), nil
		}
	}
	return Document{}, ErrDocumentNotFound
}

// CreateSubSession records a pending action-execution attempt.
func (s *Store) CreateSubSession(ctx context.Context, sessionID, actionID string, action map[string]any) (SubSession, error) {
	if err := ctx.Err(); err != nil {
		return SubSession{}, err
	}

	sub := SubSession{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		ActionID:  actionID,
		Action:    clonePayload(action),
		Status:    SubSessionPending,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return SubSession{}, ErrNotFound
	}
	sess.SubSessions[sub.ID] = sub
	sess.Metadata.LastActivity = time.Now().UTC()
	payload := marshalSession(sess)
	s.mu.Unlock()

	s.persistAsync(sessionID, payload)
	return sub, nil
}

// UpdateSubSession moves a sub-session to its terminal status. It is mutated
// exactly once after creation.
func (s *Store) UpdateSubSession(ctx context.Context, sessionID, subSessionID, status string, result map[string]any, errMsg string) (SubSession, error) {
	if err := ctx.Err(); err != nil {
		return SubSession{}, err
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return SubSession{}, ErrNotFound
	}
	sub, ok := sess.SubSessions[subSessionID]
	if !ok {
		s.mu.Unlock()
		return SubSession{}, ErrSubSessionNotFound
	}

	now := time.Now().UTC()
	sub.Status = status
	sub.Result = clonePayload(result)
	sub.Error = errMsg
	sub.CompletedAt = &now
	sess.SubSessions[subSessionID] = sub

	if status == SubSessionFailed {
		sess.Metadata.FailedActions++
	}
	sess.Metadata.LastActivity = now
	payload := marshalSession(sess)
	s.mu.Unlock()

	s.persistAsync(sessionID, payload)
	return sub, nil
}

// AddActionResult writes the canonical session-level record for an executed
// action. Last write wins for a given action id.
func (s *Store) AddActionResult(ctx context.Context, sessionID string, result ActionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if _, seen := sess.ActionResults[result.ActionID]; !seen {
		sess.Metadata.ExecutedActions++
	}
	sess.ActionResults[result.ActionID] = result
	sess.Metadata.LastActivity = time.Now().UTC()
	payload := marshalSession(sess)
	s.mu.Unlock()

	s.persistAsync(sessionID, payload)
	return nil
}

// GetSessionActionStatus joins suggested actions with sub-sessions and action
// results. Actions that were never executed report as pending.
func (s *Store) GetSessionActionStatus(ctx context.Context, sessionID string) ([]ActionStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]ActionStatus, 0, len(sess.SuggestedActions))
	for _, action := range sess.SuggestedActions {
		status := ActionStatus{
			ActionID:    action.ID,
			Type:        action.Type,
			Priority:    action.Priority,
			Description: action.Description,
			Status:      SubSessionPending,
		}
		if latest, ok := latestSubSession(sess, action.ID); ok {
			status.Status = latest.Status
			status.SubSessionID = latest.ID
		}
		if result, ok := sess.ActionResults[action.ID]; ok {
			status.Status = SubSessionCompleted
			status.TargetSystem = result.TargetSystem
			status.TransactionID = result.TransactionID
			executedAt := result.ExecutedAt
			status.ExecutedAt = &executedAt
		}
		out = append(out, status)
	}
	return out, nil
}

func latestSubSession(sess *Session, actionID string) (SubSession, bool) {
	var latest SubSession
	found := false
	for _, sub := range sess.SubSessions {
		if sub.ActionID != actionID {
			continue
		}
		if !found || sub.CreatedAt.After(latest.CreatedAt) {
			latest = sub
			found = true
		}
	}
	return latest, found
}

func promoteAnalysis(sess *Session, result *analysis.Analysis) {
	if result == nil {
		return
	}
	promoted := *result
	sess.Analysis = &promoted
	sess.SuggestedActions = append([]analysis.SuggestedAction(nil), result.SuggestedActions...)
	sess.Metadata.TotalActions = len(sess.SuggestedActions)
}

func backfillExtractedText(doc *Document) {
	if doc.Analysis != nil && doc.Analysis.ExtractedText == "" {
		doc.Analysis.ExtractedText = doc.ExtractedText
	}
}

func marshalSession(sess *Session) []byte {
	payload, err := json.Marshal(sess)
	if err != nil {
		telemetry.Error("sessions.snapshot.marshal_failed", map[string]any{
			"session_id": sess.ID,
			"err":        err.Error(),
		})
		return nil
	}
	return payload
}

func (s *Store) persistAsync(sessionID string, payload []byte) {
	if s.snap == nil || payload == nil {
		return
	}
	go func() {
		if err := s.snap.Persist(context.Background(), sessionID, payload); err != nil {
			telemetry.Error("sessions.snapshot.persist_failed", map[string]any{
				"session_id": sessionID,
				"err":        err.Error(),
			})
		}
	}()
}

func (sess *Session) clone() Session {
	out := *sess
	out.Documents = make([]Document, len(sess.Documents))
	for i := range sess.Documents {
		out.Documents[i] = sess.Documents[i].clone()
	}
	out.SubSessions = make(map[string]SubSession, len(sess.SubSessions))
	for id, sub := range sess.SubSessions {
		sub.Action = clonePayload(sub.Action)
		sub.Result = clonePayload(sub.Result)
		out.SubSessions[id] = sub
	}
	out.ActionResults = make(map[string]ActionResult, len(sess.ActionResults))
	for id, result := range sess.ActionResults {
		result.Result = clonePayload(result.Result)
		out.ActionResults[id] = result
	}
	if sess.Analysis != nil {
		cloned := *sess.Analysis
		out.Analysis = &cloned
	}
	out.SuggestedActions = append([]analysis.SuggestedAction(nil), sess.SuggestedActions...)
	return out
}

func (d Document) clone() Document {
	out := d
	if d.Analysis != nil {
		cloned := *d.Analysis
		out.Analysis = &cloned
	}
	if d.Archive != nil {
		archive := *d.Archive
		out.Archive = &archive
	}
	return out
}

func clonePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}
