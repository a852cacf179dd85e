package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileSnapshotter persists all sessions into a single keyed JSON file,
// rewritten in full on every mutation.
type FileSnapshotter struct {
	mu       sync.Mutex
	path     string
	payloads map[string]json.RawMessage
}

// NewFileSnapshotter creates the snapshot file's directory and loads any
// existing snapshot.
func NewFileSnapshotter(path string) (*FileSnapshotter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	snap := &FileSnapshotter{
		path:     path,
		payloads: make(map[string]json.RawMessage),
	}
	if err := snap.load(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Persist stores one session's payload and rewrites the snapshot file.
func (f *FileSnapshotter) Persist(ctx context.Context, sessionID string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[sessionID] = append(json.RawMessage(nil), payload...)
	return f.writeLocked()
}

// LoadAll returns the snapshot contents keyed by session id.
func (f *FileSnapshotter) LoadAll() map[string]json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]json.RawMessage, len(f.payloads))
	for id, payload := range f.payloads {
		out[id] = append(json.RawMessage(nil), payload...)
	}
	return out
}

func (f *FileSnapshotter) load() error {
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open snapshot file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&f.payloads); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode snapshot file: %w", err)
	}
	if f.payloads == nil {
		f.payloads = make(map[string]json.RawMessage)
	}
	return nil
}

func (f *FileSnapshotter) writeLocked() error {
	data, err := json.Marshal(f.payloads)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

var _ Snapshotter = (*FileSnapshotter)(nil)
