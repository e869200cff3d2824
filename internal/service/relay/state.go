package relay

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a relay session.
type State int

const (
	// StateStreaming - client connected, audio flowing to the transcription session.
	StateStreaming State = iota
	// StateDraining - client input ended; remaining results are still being delivered.
	StateDraining
	// StateCompleted - every stage finished without a transcription failure.
	StateCompleted
	// StateFailed - the transcription session failed and the client was told so.
	StateFailed
	// StateCancelled - the server shut the session down.
	StateCancelled
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStreaming:
		return "STREAMING"
	case StateDraining:
		return "DRAINING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	case StateCancelled:
		return "CANCELLED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Outcome is the metrics label for a terminal state.
func (s State) Outcome() string {
	switch s {
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "transcription_failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "incomplete"
	}
}

// IsTerminal returns true for COMPLETED, FAILED and CANCELLED.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// ErrSessionFinished is returned for transitions out of a terminal state.
var ErrSessionFinished = errors.New("relay session already finished")

// Lifecycle tracks one session's state. Safe for concurrent use by the stages.
//
//	STREAMING → DRAINING → COMPLETED
//	    │           │
//	    └───────────┴──→ FAILED | CANCELLED
type Lifecycle struct {
	mu      sync.RWMutex
	state   State
	failure error
}

// NewLifecycle creates a lifecycle in STREAMING state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateStreaming}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Failure returns the transcription error, if the session failed.
func (l *Lifecycle) Failure() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.failure
}

// InputEnded moves STREAMING to DRAINING. Other states are left alone.
func (l *Lifecycle) InputEnded() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateStreaming {
		l.state = StateDraining
	}
}

// Fail records a transcription failure. Only the first failure is kept.
func (l *Lifecycle) Fail(err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return ErrSessionFinished
	}
	l.state = StateFailed
	l.failure = err
	return nil
}

// Cancel marks the session as shut down by the server.
func (l *Lifecycle) Cancel() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return ErrSessionFinished
	}
	l.state = StateCancelled
	return nil
}

// Complete finishes a session that neither failed nor was cancelled.
// Idempotent; returns the resulting terminal state.
func (l *Lifecycle) Complete() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.state.IsTerminal() {
		l.state = StateCompleted
	}
	return l.state
}
