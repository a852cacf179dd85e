package sessions

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
)

func TestFileSnapshotterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.json")

	snap, err := NewFileSnapshotter(path)
	if err != nil {
		t.Fatalf("NewFileSnapshotter: %v", err)
	}
	if err := snap.Persist(context.Background(), "s1", []byte(`{"id":"s1"}`)); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if err := snap.Persist(context.Background(), "s2", []byte(`{"id":"s2"}`)); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	// A fresh snapshotter on the same path sees both payloads.
	reopened, err := NewFileSnapshotter(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	payloads := reopened.LoadAll()
	if len(payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(payloads))
	}
	var sess struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payloads["s1"], &sess); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if sess.ID != "s1" {
		t.Fatalf("expected s1, got %s", sess.ID)
	}
}

func TestFileSnapshotterOverwritesSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	snap, err := NewFileSnapshotter(path)
	if err != nil {
		t.Fatalf("NewFileSnapshotter: %v", err)
	}

	if err := snap.Persist(context.Background(), "s1", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if err := snap.Persist(context.Background(), "s1", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Persist overwrite: %v", err)
	}

	payloads := snap.LoadAll()
	if string(payloads["s1"]) != `{"v":2}` {
		t.Fatalf("expected latest payload, got %s", payloads["s1"])
	}
}
