package progress

import (
	"sync"
	"time"

	"advisor-backend/internal/shared/telemetry"
)

// Well-known event types on the progress stream.
const (
	EventConnected = "connected"
	EventProgress  = "progress"
	EventComplete  = "complete"
	EventError     = "error"
)

const eventBuffer = 32

// Event is one ephemeral progress notification for a pipeline run.
type Event struct {
	Type      string    `json:"type"`
	Stage     string    `json:"stage,omitempty"`
	Message   string    `json:"message"`
	Progress  *int      `json:"progress,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type stream struct {
	ch          chan Event
	closeOnce   sync.Once
	safetyTimer *time.Timer
}

// Broadcaster is the process-wide registry of per-session progress channels.
// Emit is best-effort: sends never block and are dropped silently when no
// client is attached or the buffer is full.
type Broadcaster struct {
	mu            sync.Mutex
	streams       map[string]*stream
	graceDelay    time.Duration
	safetyTimeout time.Duration
}

// NewBroadcaster constructs a Broadcaster. The grace delay keeps a completed
// channel open long enough for a slow client to receive the terminal event;
// the safety timeout force-closes a channel whose pipeline never completed.
func NewBroadcaster(graceDelay, safetyTimeout time.Duration) *Broadcaster {
	if graceDelay < 0 {
		graceDelay = 0
	}
	if safetyTimeout <= 0 {
		safetyTimeout = 120 * time.Second
	}
	return &Broadcaster{
		streams:       make(map[string]*stream),
		graceDelay:    graceDelay,
		safetyTimeout: safetyTimeout,
	}
}

// Open registers a channel for the session and starts the safety timer.
// An existing channel for the same session is closed first.
func (b *Broadcaster) Open(sessionID string) <-chan Event {
	b.mu.Lock()
	if existing, ok := b.streams[sessionID]; ok {
		b.closeStreamLocked(sessionID, existing)
	}
	st := &stream{
		ch: make(chan Event, eventBuffer),
	}
	st.safetyTimer = time.AfterFunc(b.safetyTimeout, func() {
		telemetry.Warn("progress.safety_timeout", map[string]any{
			"session_id": sessionID,
		})
		b.Close(sessionID)
	})
	b.streams[sessionID] = st
	b.mu.Unlock()
	return st.ch
}

// Emit sends a progress event to the session's channel. It is a no-op when no
// channel is registered and never blocks the caller.
func (b *Broadcaster) Emit(sessionID, stage, message string, percent int) {
	b.send(sessionID, Event{
		Type:      EventProgress,
		Stage:     stage,
		Message:   message,
		Progress:  &percent,
		Timestamp: time.Now().UTC(),
	})
}

// EmitError reports a degraded or failed step without tearing the stream down.
func (b *Broadcaster) EmitError(sessionID, message string) {
	b.send(sessionID, Event{
		Type:      EventError,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// Complete emits the terminal completion event and closes the channel after
// the grace delay. The grace delay and safety timer are independent.
func (b *Broadcaster) Complete(sessionID, message string) {
	percent := 100
	b.send(sessionID, Event{
		Type:      EventComplete,
		Stage:     "complete",
		Message:   message,
		Progress:  &percent,
		Timestamp: time.Now().UTC(),
	})
	time.AfterFunc(b.graceDelay, func() {
		b.Close(sessionID)
	})
}

// Close tears down the session's channel. Closing twice is a no-op.
func (b *Broadcaster) Close(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.streams[sessionID]
	if !ok {
		return
	}
	b.closeStreamLocked(sessionID, st)
}

func (b *Broadcaster) closeStreamLocked(sessionID string, st *stream) {
	delete(b.streams, sessionID)
	st.closeOnce.Do(func() {
		if st.safetyTimer != nil {
			st.safetyTimer.Stop()
		}
		close(st.ch)
	})
}

func (b *Broadcaster) send(sessionID string, event Event) {
	// The send happens under the registry lock so a concurrent Close cannot
	// close the channel mid-send.
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.streams[sessionID]
	if !ok {
		return
	}
	select {
	case st.ch <- event:
	default:
		// Slow client; drop rather than block the pipeline.
	}
}
