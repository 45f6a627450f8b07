package mpv

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrRebind is returned when the window handle changes while mpv is running.
var ErrRebind = errors.New("mpv cannot move to another window while running")

// Overlay embeds mpv's video output in a foreign window through --wid and
// places the picture with video margins.
type Overlay struct {
	log *logrus.Entry

	mu      sync.Mutex
	wid     uintptr
	hasWID  bool
	rect    [4]int
	hasRect bool
	ipc     *client
}

func (o *Overlay) SetWindowHandle(handle uintptr) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ipc != nil && (!o.hasWID || o.wid != handle) {
		return ErrRebind
	}
	o.wid = handle
	o.hasWID = true
	return nil
}

func (o *Overlay) SetRenderRectangle(x, y, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid render rectangle %dx%d", width, height)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rect = [4]int{x, y, width, height}
	o.hasRect = true

	if o.ipc == nil {
		return nil
	}
	for _, m := range o.margins() {
		if _, err := o.ipc.commandWithTimeout("set_property", m.name, m.value); err != nil {
			return fmt.Errorf("set %s: %w", m.name, err)
		}
	}
	return nil
}

// Expose asks mpv to redraw by flashing an empty OSD message.
func (o *Overlay) Expose() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ipc == nil {
		return
	}
	if _, err := o.ipc.commandWithTimeout("show-text", "", 1); err != nil && o.log != nil {
		o.log.WithError(err).Debug("expose")
	}
}

// args returns the command-line options that carry the binding into a fresh process.
func (o *Overlay) args() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	var args []string
	if o.hasWID {
		args = append(args, "--wid="+strconv.FormatUint(uint64(o.wid), 10))
	}
	for _, m := range o.margins() {
		args = append(args, fmt.Sprintf("--%s=%s", m.name, strconv.FormatFloat(m.value, 'f', 4, 64)))
	}
	return args
}

func (o *Overlay) attach(c *client) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ipc = c
}

func (o *Overlay) detach() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ipc = nil
}

// margins converts the render rectangle into mpv's margin ratios. The rectangle
// is anchored at the bottom-right corner of the window, so only the left and top
// margins are non-zero.
func (o *Overlay) margins() []margin {
	if !o.hasRect {
		return nil
	}
	left, top := marginRatios(o.rect[0], o.rect[1], o.rect[2], o.rect[3])
	return []margin{
		{"video-margin-ratio-left", left},
		{"video-margin-ratio-top", top},
		{"video-margin-ratio-right", 0},
		{"video-margin-ratio-bottom", 0},
	}
}

type margin struct {
	name  string
	value float64
}

func marginRatios(x, y, width, height int) (left, top float64) {
	x = max(x, 0)
	y = max(y, 0)
	return float64(x) / float64(x+width), float64(y) / float64(y+height)
}
