// Package window defines the contract with the windowing toolkit that hosts player surfaces.
//
// The toolkit creates and destroys native windows and reports their platform handles.
// Handles form a closed set of variants; consumers switch over them exhaustively and
// treat UnsupportedHandle as the explicit degraded case.
package window

// Handle is a platform-specific native window handle.
type Handle interface {
	// Platform names the windowing system the handle belongs to.
	Platform() string
	isHandle()
}

// XlibHandle identifies an X11 window.
type XlibHandle struct {
	Window uint64
}

// Win32Handle identifies a Win32 window.
type Win32Handle struct {
	HWND uintptr
}

// AppKitHandle points to the NSView backing a macOS window.
type AppKitHandle struct {
	NSView uintptr
}

// UIKitHandle points to the UIView backing an iOS window.
type UIKitHandle struct {
	UIView uintptr
}

// UnsupportedHandle is reported for windows without a handle an overlay can bind to
// (Wayland surfaces, web canvases, detached windows).
type UnsupportedHandle struct {
	Kind string
}

func (XlibHandle) Platform() string          { return "x11" }
func (Win32Handle) Platform() string         { return "win32" }
func (AppKitHandle) Platform() string        { return "appkit" }
func (UIKitHandle) Platform() string         { return "uikit" }
func (h UnsupportedHandle) Platform() string { return h.Kind }

func (XlibHandle) isHandle()        {}
func (Win32Handle) isHandle()       {}
func (AppKitHandle) isHandle()      {}
func (UIKitHandle) isHandle()       {}
func (UnsupportedHandle) isHandle() {}

// Size is a window's inner size in logical pixels.
type Size struct {
	Width  float64
	Height float64
}

// Options describe a window to create.
type Options struct {
	// Label uniquely identifies the window within the toolkit; players use their id.
	Label string
	Title string
	Size  Size
}

// Window is a native window owned by exactly one player.
type Window interface {
	Label() string
	// Handle returns the native handle the overlay binds to.
	Handle() (Handle, error)
	Close() error
}

// Toolkit creates windows.
type Toolkit interface {
	Name() string
	Create(opts Options) (Window, error)
}

// Listener receives events a toolkit observes on its windows ("ready", "resized", "closed"),
// addressed by window label.
type Listener func(label string, event string, payload any)
