// Package mpv is a media engine backed by an mpv process per pipeline.
//
// Video is embedded with --wid and the process is driven over mpv's JSON IPC
// socket. Asynchronous mpv events (end-file, file-loaded, log messages) are
// queued on the pipeline bus until the player polls.
package mpv

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"video-overlay/internal/engine"
	"video-overlay/internal/log"
)

// Config configures the mpv engine.
type Config struct {
	// Path is the mpv executable, looked up in PATH when not absolute.
	Path string
	// Args are extra options passed before the media target.
	Args []string
	// StartTimeout bounds how long mpv may take to open its IPC socket.
	StartTimeout time.Duration
	// SocketDir holds the IPC sockets. Empty means os.TempDir().
	SocketDir string
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Path:         "mpv",
		StartTimeout: 5 * time.Second,
	}
}

// Engine builds mpv pipelines.
type Engine struct {
	config Config
	// lookPath is swapped in tests.
	lookPath func(string) (string, error)
}

// New creates an mpv engine.
func New(config Config) *Engine {
	def := DefaultConfig()
	if config.Path == "" {
		config.Path = def.Path
	}
	if config.StartTimeout <= 0 {
		config.StartTimeout = def.StartTimeout
	}
	return &Engine{config: config, lookPath: exec.LookPath}
}

func (e *Engine) Name() string { return "mpv" }

// Build prepares a pipeline for uri. mpv itself starts on the first state change
// so the window handle and render rectangle can be passed on its command line.
func (e *Engine) Build(ctx context.Context, uri string) (engine.Pipeline, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errors.New("empty media uri")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := e.lookPath(e.config.Path)
	if err != nil {
		return nil, fmt.Errorf("mpv not found: %w", err)
	}

	cfg := e.config
	cfg.Path = path
	lg := log.WithComponent("mpv")
	return &Pipeline{
		config: cfg,
		uri:    uri,
		log:    lg,
		bus:    &bus{},
		sink:   &Overlay{log: lg},
		state:  engine.StateNull,
	}, nil
}
