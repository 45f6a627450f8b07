// Package enginetest provides a scripted media engine for tests.
package enginetest

import (
	"context"
	"errors"
	"sync"

	"video-overlay/internal/engine"
)

// Engine builds scripted pipelines.
type Engine struct {
	mu sync.Mutex
	// BuildErr, when non-nil, makes Build fail.
	BuildErr error
	// NoOverlay builds pipelines whose sink lacks the overlay capability.
	NoOverlay bool
	// StateErr is copied into every built pipeline.
	StateErr  error
	Pipelines []*Pipeline
}

// New returns an engine that builds working pipelines.
func New() *Engine {
	return &Engine{}
}

func (e *Engine) Name() string { return "test" }

func (e *Engine) Build(ctx context.Context, uri string) (engine.Pipeline, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.BuildErr != nil {
		return nil, e.BuildErr
	}
	p := &Pipeline{URI: uri, stateErr: e.StateErr}
	if !e.NoOverlay {
		p.overlay = &Overlay{}
	}
	e.Pipelines = append(e.Pipelines, p)
	return p, nil
}

// Built returns how many pipelines were built.
func (e *Engine) Built() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Pipelines)
}

// Last returns the most recently built pipeline, or nil.
func (e *Engine) Last() *Pipeline {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Pipelines) == 0 {
		return nil
	}
	return e.Pipelines[len(e.Pipelines)-1]
}

// Pipeline records state changes and serves queued bus messages.
type Pipeline struct {
	URI      string
	overlay  *Overlay
	stateErr error

	mu      sync.Mutex
	states  []engine.State
	pending []engine.Message
}

func (p *Pipeline) SetState(ctx context.Context, state engine.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stateErr != nil && state != engine.StateNull {
		return p.stateErr
	}
	p.states = append(p.states, state)
	return nil
}

// State returns the last state set, StateNull if none.
func (p *Pipeline) State() engine.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.states) == 0 {
		return engine.StateNull
	}
	return p.states[len(p.states)-1]
}

// States returns every state set so far.
func (p *Pipeline) States() []engine.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]engine.State(nil), p.states...)
}

// Post queues a bus message.
func (p *Pipeline) Post(msg engine.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, msg)
}

// Pending returns how many messages are still queued.
func (p *Pipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Pipeline) Bus() engine.Bus { return p }

func (p *Pipeline) Pop() (engine.Message, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return engine.Message{}, false
	}
	msg := p.pending[0]
	p.pending = p.pending[1:]
	return msg, true
}

func (p *Pipeline) Overlay() (engine.Overlay, bool) {
	if p.overlay == nil {
		return nil, false
	}
	return p.overlay, true
}

// Sink returns the recording overlay, nil when built with NoOverlay.
func (p *Pipeline) Sink() *Overlay {
	return p.overlay
}

// Rect is a recorded render rectangle.
type Rect struct {
	X, Y, Width, Height int
}

// Overlay records what the binder did to it.
type Overlay struct {
	mu        sync.Mutex
	handle    uintptr
	handleSet bool
	rects     []Rect
	exposes   int
}

func (o *Overlay) SetWindowHandle(handle uintptr) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handle = handle
	o.handleSet = true
	return nil
}

func (o *Overlay) SetRenderRectangle(x, y, width, height int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if width <= 0 || height <= 0 {
		return errors.New("empty render rectangle")
	}
	o.rects = append(o.rects, Rect{x, y, width, height})
	return nil
}

func (o *Overlay) Expose() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.exposes++
}

// WindowHandle returns the bound handle and whether one was set.
func (o *Overlay) WindowHandle() (uintptr, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handle, o.handleSet
}

// Rects returns every render rectangle set so far.
func (o *Overlay) Rects() []Rect {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Rect(nil), o.rects...)
}

// Exposes returns how many times Expose was called.
func (o *Overlay) Exposes() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.exposes
}
