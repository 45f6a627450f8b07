package mpv

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"video-overlay/internal/engine"
)

// quitGrace is how long mpv gets to exit after "quit" before it is killed.
const quitGrace = 2 * time.Second

// Pipeline is one mpv process playing one media target.
type Pipeline struct {
	config Config
	uri    string
	log    *logrus.Entry
	bus    *bus
	sink   *Overlay

	mu       sync.Mutex
	state    engine.State
	socket   string
	cmd      *exec.Cmd
	exited   chan struct{}
	ipc      *client
	quitting atomic.Bool
}

func (p *Pipeline) Bus() engine.Bus { return p.bus }

func (p *Pipeline) Overlay() (engine.Overlay, bool) { return p.sink, true }

// SetState starts mpv on the first non-null state, toggles pause afterwards and
// shuts the process down on StateNull.
func (p *Pipeline) SetState(ctx context.Context, state engine.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state == p.state {
		return nil
	}
	if state == engine.StateNull {
		err := p.shutdown(ctx)
		p.state = engine.StateNull
		return err
	}

	paused := state != engine.StatePlaying
	if p.cmd == nil {
		if err := p.start(ctx, paused); err != nil {
			return err
		}
	} else if _, err := p.ipc.command(ctx, "set_property", "pause", paused); err != nil {
		return fmt.Errorf("set pause=%t: %w", paused, err)
	}
	p.log.Debugf("%s -> %s", p.state, state)
	p.state = state
	return nil
}

func (p *Pipeline) args(socket string, paused bool) []string {
	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--idle=yes",
		"--force-window=yes",
		"--input-ipc-server=" + socket,
	}
	if paused {
		args = append(args, "--pause")
	}
	args = append(args, p.sink.args()...)
	args = append(args, p.config.Args...)
	// "--" keeps a media target starting with a dash from being read as an option.
	return append(args, "--", p.uri)
}

func (p *Pipeline) start(ctx context.Context, paused bool) error {
	socket, err := socketPath(p.config.SocketDir)
	if err != nil {
		return err
	}

	cmd := exec.Command(p.config.Path, p.args(socket, paused)...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}
	p.log.Infof("started mpv with PID %d for %s", cmd.Process.Pid, p.uri)

	p.quitting.Store(false)
	exited := make(chan struct{})
	go p.reap(cmd, exited)

	startCtx, cancel := context.WithTimeout(ctx, p.config.StartTimeout)
	defer cancel()
	c, err := waitForSocket(startCtx, socket, exited, p.onEvent)
	if err != nil {
		p.quitting.Store(true)
		select {
		case <-exited:
		default:
			p.log.Warn("killing mpv: socket never became ready")
			_ = killProcess(cmd)
		}
		_ = os.Remove(socket)
		return fmt.Errorf("mpv ipc: %w", err)
	}

	p.socket = socket
	p.cmd = cmd
	p.exited = exited
	p.ipc = c
	p.sink.attach(c)

	if _, err := c.command(ctx, "request_log_messages", "warn"); err != nil {
		p.log.WithError(err).Debug("request log messages")
	}
	return nil
}

// reap waits for mpv and reports an exit nobody asked for as a pipeline error.
func (p *Pipeline) reap(cmd *exec.Cmd, exited chan struct{}) {
	err := cmd.Wait()
	close(exited)
	if p.quitting.Load() {
		return
	}
	if err == nil {
		err = errors.New("exited unexpectedly")
	}
	p.bus.push(engine.Message{
		Type:   engine.MessageError,
		Source: source,
		Err:    fmt.Errorf("mpv process: %w", err),
	})
}

func (p *Pipeline) onEvent(l line) {
	msg, ok := translate(l)
	if !ok {
		return
	}
	p.bus.push(msg)
}

// shutdown asks mpv to quit and waits until it exits, ctx ends or the grace
// period runs out; the process group is killed in the last two cases.
func (p *Pipeline) shutdown(ctx context.Context) error {
	if p.cmd == nil {
		return nil
	}
	p.quitting.Store(true)
	p.sink.detach()

	quitCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	if _, err := p.ipc.command(quitCtx, "quit"); err != nil {
		p.log.WithError(err).Debug("quit")
	}
	cancel()

	var err error
	select {
	case <-p.exited:
	case <-ctx.Done():
		err = ctx.Err()
		_ = killProcess(p.cmd)
	case <-time.After(quitGrace):
		p.log.Warn("mpv ignored quit, killing")
		_ = killProcess(p.cmd)
	}

	if cerr := p.ipc.close(); cerr != nil {
		p.log.WithError(cerr).Debug("close ipc")
	}
	_ = os.Remove(p.socket)
	p.cmd, p.ipc, p.exited, p.socket = nil, nil, nil, ""
	p.log.Info("mpv stopped")
	return err
}

func socketPath(dir string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate socket name: %w", err)
	}
	return filepath.Join(dir, fmt.Sprintf("video-overlay-%x.sock", b)), nil
}
