// Package engine defines the contract with the external media engine.
//
// An Engine builds one Pipeline per media source. A Pipeline exposes a state switch,
// a status Bus drained by polling, and, when its video sink supports it, an Overlay
// capability that embeds rendering in a foreign window.
package engine

import (
	"context"
	"fmt"
)

// State is a pipeline state.
type State int

const (
	StateNull State = iota
	StateReady
	StatePaused
	StatePlaying
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNull:
		return "null"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// MessageType classifies bus messages.
type MessageType int

const (
	MessageOther MessageType = iota
	MessageError
	MessageEOS
	MessageWarning
	MessageStateChanged
)

// String returns the message type name.
func (t MessageType) String() string {
	switch t {
	case MessageError:
		return "error"
	case MessageEOS:
		return "eos"
	case MessageWarning:
		return "warning"
	case MessageStateChanged:
		return "state-changed"
	default:
		return "other"
	}
}

// Message is one status notification from a pipeline.
type Message struct {
	Type MessageType
	// Source names the element that posted the message.
	Source string
	Err    error
	Debug  string
}

func (m Message) String() string {
	if m.Err != nil {
		return fmt.Sprintf("%s from %s: %v", m.Type, m.Source, m.Err)
	}
	return fmt.Sprintf("%s from %s", m.Type, m.Source)
}

// Bus is a pipeline's status channel.
type Bus interface {
	// Pop returns the oldest pending message without blocking.
	Pop() (Message, bool)
}

// Overlay is the window-embedding capability of a video sink.
type Overlay interface {
	// SetWindowHandle binds the sink to a native window handle.
	SetWindowHandle(handle uintptr) error
	// SetRenderRectangle restricts drawing to a sub-rectangle of the bound window.
	SetRenderRectangle(x, y, width, height int) error
	// Expose forces a redraw; geometry changes do not repaint on their own.
	Expose()
}

// Pipeline is one media source's decode/render graph.
type Pipeline interface {
	// SetState moves the pipeline to state. Setting StateNull blocks until the
	// pipeline has released its resources or ctx is done.
	SetState(ctx context.Context, state State) error
	Bus() Bus
	// Overlay returns the sink's overlay capability, if any.
	Overlay() (Overlay, bool)
}

// Engine builds pipelines.
type Engine interface {
	Name() string
	Build(ctx context.Context, uri string) (Pipeline, error)
}
