package player

import (
	"errors"
	"fmt"
)

// State is a player's lifecycle state.
type State int

const (
	StateCreated State = iota
	StateWindowOpen
	StatePipelineReady
	StatePlaying
	StatePaused
	StateStopped
	StateClosed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateWindowOpen:
		return "window-open"
	case StatePipelineReady:
		return "pipeline-ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// OutcomeKind tells the caller what to do with a player after an event.
type OutcomeKind int

const (
	// Continue keeps the player registered.
	Continue OutcomeKind = iota
	// Remove means the player reached Closed and must be evicted.
	Remove
	// Failed means the event could not be carried out; the player stays registered.
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Continue:
		return "continue"
	case Remove:
		return "remove"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of handling one event.
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

// Alive is false only when the player must be evicted.
func (o Outcome) Alive() bool {
	return o.Kind != Remove
}

func proceed() Outcome { return Outcome{Kind: Continue} }
func evict() Outcome { return Outcome{Kind: Remove} }
func failed(err error) Outcome { return Outcome{Kind: Failed, Err: err} }

var (
	// ErrClosed is returned when opening a player that already closed.
	ErrClosed = errors.New("player closed")
	// ErrNoWindow is reported when "ready" arrives before the window exists.
	ErrNoWindow = errors.New("player has no window")
	// ErrNoOverlay is reported when a pipeline's sink cannot embed into a window.
	ErrNoOverlay = errors.New("video sink has no overlay capability")
)

// ConstructionError wraps a failure to build a window or pipeline.
type ConstructionError struct {
	// Stage is one of "window", "source", "pipeline", "overlay", "playback".
	Stage string
	Err   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construct %s: %v", e.Stage, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}
