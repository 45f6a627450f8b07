// Package detached provides a toolkit whose windows have no bindable native handle.
// Engines fall back to rendering on a surface of their own.
package detached

import (
	"sync"

	"video-overlay/internal/window"
)

// Kind is reported in the UnsupportedHandle of every detached window.
const Kind = "detached"

// Toolkit hands out detached windows.
type Toolkit struct {
	listener window.Listener
}

// New creates a detached toolkit. listener, when set, receives "ready" for every
// window right after it is created, as there is nothing to map.
func New(listener window.Listener) *Toolkit {
	return &Toolkit{listener: listener}
}

func (t *Toolkit) Name() string { return Kind }

// Create never fails.
func (t *Toolkit) Create(opts window.Options) (window.Window, error) {
	w := &Window{label: opts.Label}
	if t.listener != nil {
		// Create runs under the opening player's lock; deliver after it returns.
		go t.listener(opts.Label, "ready", nil)
	}
	return w, nil
}

// Window is a placeholder window with no native surface.
type Window struct {
	label  string
	mu     sync.Mutex
	closed bool
}

func (w *Window) Label() string { return w.label }

func (w *Window) Handle() (window.Handle, error) {
	return window.UnsupportedHandle{Kind: Kind}, nil
}

func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// Closed reports whether Close was called.
func (w *Window) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
