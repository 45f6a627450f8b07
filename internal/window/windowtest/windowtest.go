// Package windowtest provides an in-memory toolkit for tests.
package windowtest

import (
	"errors"
	"sync"

	"video-overlay/internal/window"
)

// Toolkit records created windows. All fields may be set before use.
type Toolkit struct {
	mu sync.Mutex
	// CreateErr, when non-nil, makes Create fail.
	CreateErr error
	// NextHandle is the handle given to windows created from now on.
	NextHandle window.Handle
	Windows    []*Window
}

// New returns a toolkit whose windows report an X11 handle.
func New() *Toolkit {
	return &Toolkit{NextHandle: window.XlibHandle{Window: 0x2a00007}}
}

func (t *Toolkit) Name() string { return "test" }

func (t *Toolkit) Create(opts window.Options) (window.Window, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.CreateErr != nil {
		return nil, t.CreateErr
	}
	w := &Window{Opts: opts, handle: t.NextHandle}
	t.Windows = append(t.Windows, w)
	return w, nil
}

// Created returns how many windows were created.
func (t *Toolkit) Created() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Windows)
}

// Last returns the most recently created window, or nil.
func (t *Toolkit) Last() *Window {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Windows) == 0 {
		return nil
	}
	return t.Windows[len(t.Windows)-1]
}

// Window is an in-memory window.
type Window struct {
	Opts   window.Options
	handle window.Handle

	mu        sync.Mutex
	closes    int
	HandleErr error
}

func (w *Window) Label() string { return w.Opts.Label }

func (w *Window) Handle() (window.Handle, error) {
	if w.HandleErr != nil {
		return nil, w.HandleErr
	}
	if w.handle == nil {
		return nil, errors.New("no handle")
	}
	return w.handle, nil
}

func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closes++
	return nil
}

// Closes returns how many times Close was called.
func (w *Window) Closes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closes
}
