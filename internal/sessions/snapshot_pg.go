package sessions

import (
	"context"
	"database/sql"
	"fmt"
)

// PGSnapshotter persists each session's payload as a JSONB row keyed by
// session id.
type PGSnapshotter struct {
	DB *sql.DB
}

const upsertSnapshotSQL = `
INSERT INTO session_snapshots (session_id, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (session_id)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`

// Persist upserts the session's snapshot row.
func (p *PGSnapshotter) Persist(ctx context.Context, sessionID string, payload []byte) error {
	if p.DB == nil {
		return fmt.Errorf("snapshot database not configured")
	}
	if _, err := p.DB.ExecContext(ctx, upsertSnapshotSQL, sessionID, payload); err != nil {
		return fmt.Errorf("upsert snapshot session_id=%s: %w", sessionID, err)
	}
	return nil
}

var _ Snapshotter = (*PGSnapshotter)(nil)
