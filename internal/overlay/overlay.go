// Package overlay binds a window's native handle to a pipeline's video sink so frames
// are drawn inside the application window, and manages the render rectangle.
package overlay

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"video-overlay/internal/engine"
	"video-overlay/internal/log"
	"video-overlay/internal/window"
)

// ErrUnsupportedPlatform is returned for handles no overlay can bind to.
var ErrUnsupportedPlatform = errors.New("unsupported window platform")

// Rect is a render rectangle in window coordinates.
type Rect struct {
	X, Y, Width, Height int
}

// InitialRect is applied right after binding, before the first fill.
var InitialRect = Rect{X: 0, Y: 20, Width: 300, Height: 200}

// NativeHandle extracts the numeric handle a sink accepts.
func NativeHandle(h window.Handle) (uintptr, error) {
	switch h := h.(type) {
	case window.XlibHandle:
		return uintptr(h.Window), nil
	case window.Win32Handle:
		return h.HWND, nil
	case window.AppKitHandle:
		return h.NSView, nil
	case window.UIKitHandle:
		return h.UIView, nil
	case window.UnsupportedHandle:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, h.Kind)
	case nil:
		return 0, fmt.Errorf("%w: no handle", ErrUnsupportedPlatform)
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedPlatform, h)
	}
}

// Binder creates bindings.
type Binder struct {
	log *logrus.Entry
}

// NewBinder creates a binder.
func NewBinder() *Binder {
	return &Binder{log: log.WithComponent("overlay")}
}

// Bind attaches sink to the window behind h. It always returns a binding; when the
// handle cannot be attached the binding is not embedded and the returned error says
// why. Callers treat that as degraded, not fatal.
func (b *Binder) Bind(sink engine.Overlay, h window.Handle) (*Binding, error) {
	bnd := &Binding{sink: sink}
	if h != nil {
		bnd.platform = h.Platform()
	}

	native, err := NativeHandle(h)
	if err == nil {
		err = sink.SetWindowHandle(native)
	}
	if err != nil {
		b.log.WithField("platform", bnd.platform).Warnf("no embedded overlay: %v", err)
	} else {
		bnd.embedded = true
		b.log.WithField("platform", bnd.platform).Debugf("bound sink to window handle 0x%x", native)
	}

	if rerr := bnd.SetRenderRectangle(InitialRect); rerr != nil {
		b.log.Debugf("initial render rectangle: %v", rerr)
	}
	return bnd, err
}

// Binding is a sink bound (or not) to one window.
type Binding struct {
	sink     engine.Overlay
	embedded bool
	platform string
	rect     Rect
}

// Embedded reports whether frames render inside the window.
func (b *Binding) Embedded() bool { return b.embedded }

// Platform is the windowing platform of the bound handle.
func (b *Binding) Platform() string { return b.platform }

// Rect returns the last accepted render rectangle.
func (b *Binding) Rect() Rect { return b.rect }

// SetRenderRectangle defines the region of the window frames are drawn into.
func (b *Binding) SetRenderRectangle(r Rect) error {
	if err := b.sink.SetRenderRectangle(r.X, r.Y, r.Width, r.Height); err != nil {
		return fmt.Errorf("set render rectangle %dx%d+%d+%d: %w", r.Width, r.Height, r.X, r.Y, err)
	}
	b.rect = r
	return nil
}

// Expose forces a redraw.
func (b *Binding) Expose() {
	b.sink.Expose()
}

// Fill makes frames cover a width×height window and redraws.
func (b *Binding) Fill(width, height float64) error {
	if err := b.SetRenderRectangle(Rect{Width: int(width), Height: int(height)}); err != nil {
		return err
	}
	b.Expose()
	return nil
}
