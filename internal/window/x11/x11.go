// Package x11 implements window.Toolkit on a bare X11 connection.
//
// Windows are plain top-level InputOutput windows; the engine draws into them through
// their XID. Structure events are translated into player events for a Listener:
// the first MapNotify becomes "ready", size changes become "resized", position-only
// changes become "moved" and WM_DELETE_WINDOW becomes "closed". Each window's events
// reach the Listener in order, on a goroutine of their own.
package x11

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/sirupsen/logrus"

	"video-overlay/internal/log"
	"video-overlay/internal/window"
)

// Toolkit owns one X connection shared by all windows it creates.
type Toolkit struct {
	conn     *xgb.Conn
	screen   *xproto.ScreenInfo
	listener window.Listener
	log      *logrus.Entry

	wmProtocols xproto.Atom
	wmDelete    xproto.Atom

	mu      sync.Mutex
	windows map[xproto.Window]*tracked
}

type tracked struct {
	label  string
	mapped bool
	width  uint16
	height uint16
	x, y   int16
	inbox  *inbox
}

// inboxSize bounds the events queued for one window before the event loop waits.
const inboxSize = 32

// inbox delivers one window's events in order on its own goroutine, so a listener
// busy with one window never holds up events for the others.
type inbox struct {
	ch   chan delivery
	done chan struct{}
}

type delivery struct {
	event   string
	payload any
}

// Connect opens display (empty for $DISPLAY). listener may be nil.
func Connect(display string, listener window.Listener) (*Toolkit, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to X display: %w", err)
	}

	t := &Toolkit{
		conn:     conn,
		screen:   xproto.Setup(conn).DefaultScreen(conn),
		listener: listener,
		log:      log.WithComponent("x11"),
		windows:  make(map[xproto.Window]*tracked),
	}

	if t.wmProtocols, err = t.atom("WM_PROTOCOLS"); err != nil {
		conn.Close()
		return nil, err
	}
	if t.wmDelete, err = t.atom("WM_DELETE_WINDOW"); err != nil {
		conn.Close()
		return nil, err
	}
	return t, nil
}

func (t *Toolkit) Name() string { return "x11" }

func (t *Toolkit) atom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(t.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern atom %s: %w", name, err)
	}
	return reply.Atom, nil
}

// Create creates and maps a top-level window.
func (t *Toolkit) Create(opts window.Options) (window.Window, error) {
	wid, err := xproto.NewWindowId(t.conn)
	if err != nil {
		return nil, fmt.Errorf("allocate window id: %w", err)
	}

	width, height := clampSize(opts.Size)
	mask := uint32(xproto.CwBackPixel | xproto.CwEventMask)
	values := []uint32{
		t.screen.BlackPixel,
		xproto.EventMaskStructureNotify | xproto.EventMaskExposure,
	}
	if err := xproto.CreateWindowChecked(t.conn, t.screen.RootDepth, wid, t.screen.Root,
		0, 0, width, height, 0, xproto.WindowClassInputOutput, t.screen.RootVisual,
		mask, values).Check(); err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}

	title := []byte(opts.Title)
	xproto.ChangeProperty(t.conn, xproto.PropModeReplace, wid, xproto.AtomWmName,
		xproto.AtomString, 8, uint32(len(title)), title)

	protocols := make([]byte, 4)
	binary.LittleEndian.PutUint32(protocols, uint32(t.wmDelete))
	xproto.ChangeProperty(t.conn, xproto.PropModeReplace, wid, t.wmProtocols,
		xproto.AtomAtom, 32, 1, protocols)

	t.mu.Lock()
	t.windows[wid] = &tracked{label: opts.Label, width: width, height: height}
	t.mu.Unlock()

	if err := xproto.MapWindowChecked(t.conn, wid).Check(); err != nil {
		t.forget(wid)
		xproto.DestroyWindow(t.conn, wid)
		return nil, fmt.Errorf("map window: %w", err)
	}

	t.log.WithField("label", opts.Label).Debugf("created window 0x%x (%dx%d)", uint32(wid), width, height)
	return &Window{toolkit: t, id: wid, label: opts.Label}, nil
}

// Run reads X events until ctx is cancelled or the connection drops.
func (t *Toolkit) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		t.Close()
	}()

	for {
		ev, xerr := t.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return
		}
		if xerr != nil {
			t.log.Warnf("X error: %v", xerr)
			continue
		}
		t.handle(ev)
	}
}

func (t *Toolkit) handle(ev xgb.Event) {
	switch e := ev.(type) {
	case xproto.MapNotifyEvent:
		t.mu.Lock()
		w, ok := t.windows[e.Window]
		first := ok && !w.mapped
		if ok {
			w.mapped = true
		}
		t.mu.Unlock()
		if first {
			t.emit(e.Window, "ready", nil)
		}

	case xproto.ConfigureNotifyEvent:
		t.mu.Lock()
		w, ok := t.windows[e.Window]
		var resized, moved bool
		if ok {
			resized = w.width != e.Width || w.height != e.Height
			moved = w.x != e.X || w.y != e.Y
			w.width, w.height, w.x, w.y = e.Width, e.Height, e.X, e.Y
		}
		t.mu.Unlock()
		switch {
		case resized:
			t.emit(e.Window, "resized", map[string]any{
				"width":  float64(e.Width),
				"height": float64(e.Height),
			})
		case moved:
			t.emit(e.Window, "moved", map[string]any{"x": float64(e.X), "y": float64(e.Y)})
		}

	case xproto.ClientMessageEvent:
		if e.Type != t.wmProtocols || len(e.Data.Data32) == 0 || xproto.Atom(e.Data.Data32[0]) != t.wmDelete {
			return
		}
		t.emit(e.Window, "closed", nil)

	case xproto.DestroyNotifyEvent:
		t.forget(e.Window)
	}
}

// emit queues an event for the window's listener. Events of untracked windows
// are dropped.
func (t *Toolkit) emit(wid xproto.Window, event string, payload any) {
	if t.listener == nil {
		return
	}
	t.mu.Lock()
	w, ok := t.windows[wid]
	if !ok {
		t.mu.Unlock()
		return
	}
	if w.inbox == nil {
		w.inbox = &inbox{ch: make(chan delivery, inboxSize), done: make(chan struct{})}
		go t.deliver(w.label, w.inbox)
	}
	in := w.inbox
	t.mu.Unlock()

	select {
	case in.ch <- delivery{event: event, payload: payload}:
	case <-in.done:
	}
}

func (t *Toolkit) deliver(label string, in *inbox) {
	for {
		select {
		case <-in.done:
			return
		case d := <-in.ch:
			t.listener(label, d.event, d.payload)
		}
	}
}

func (t *Toolkit) forget(wid xproto.Window) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if w, ok := t.windows[wid]; ok && w.inbox != nil {
		close(w.inbox.done)
	}
	delete(t.windows, wid)
}

func (t *Toolkit) stopInboxes() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for wid, w := range t.windows {
		if w.inbox != nil {
			close(w.inbox.done)
		}
		delete(t.windows, wid)
	}
}

// Close stops event delivery and drops the X connection; windows are destroyed
// by the server.
func (t *Toolkit) Close() {
	t.stopInboxes()
	t.conn.Close()
}

// Window is an X11 top-level window.
type Window struct {
	toolkit *Toolkit
	id      xproto.Window
	label   string
}

func (w *Window) Label() string { return w.label }

func (w *Window) Handle() (window.Handle, error) {
	return window.XlibHandle{Window: uint64(w.id)}, nil
}

func (w *Window) Close() error {
	w.toolkit.forget(w.id)
	if err := xproto.DestroyWindowChecked(w.toolkit.conn, w.id).Check(); err != nil {
		return fmt.Errorf("destroy window 0x%x: %w", uint32(w.id), err)
	}
	return nil
}

func clampSize(s window.Size) (uint16, uint16) {
	clamp := func(v float64) uint16 {
		switch {
		case v < 1:
			return 1
		case v > 65535:
			return 65535
		}
		return uint16(v)
	}
	return clamp(s.Width), clamp(s.Height)
}
