package cmd

import (
	"context"
	"fmt"

	"video-overlay/internal/config"
	"video-overlay/internal/engine"
	"video-overlay/internal/engine/mpv"
	"video-overlay/internal/frontend"
	"video-overlay/internal/log"
	"video-overlay/internal/platform"
	"video-overlay/internal/platform/youtube"
	"video-overlay/internal/player"
	"video-overlay/internal/router"
	"video-overlay/internal/window"
	"video-overlay/internal/window/detached"
	"video-overlay/internal/window/x11"
)

var toolkits = []string{detached.Kind, "x11"}

// app is the wired object graph shared by serve and play.
type app struct {
	frontend *frontend.Frontend
	// x11 is set when the x11 toolkit is in use and needs its event loop run.
	x11     *x11.Toolkit
	stopX11 context.CancelFunc
}

func newApp(cfg *config.Config) (*app, error) {
	eng, err := newEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}

	sources := platform.NewRegistry()
	sources.Register(platform.File{})
	sources.Register(youtube.New(youtube.Config{
		CookiesFromBrowser: cfg.YouTube.CookiesBrowser,
		CookiesFile:        cfg.YouTube.CookiesFile,
		CacheFile:          cfg.YouTube.CacheFile,
		CacheLifetime:      cfg.YouTube.CacheLifetime,
	}))

	a := &app{}
	// The toolkit reports window events before the frontend exists, so the
	// listener resolves it lazily.
	listener := func(label, event string, payload any) {
		if a.frontend != nil {
			a.frontend.HandleWindowEvent(label, event, payload)
		}
	}

	var tk window.Toolkit
	switch cfg.Window.Toolkit {
	case "", detached.Kind:
		tk = detached.New(listener)
	case "x11":
		x, err := x11.Connect(cfg.Window.Display, listener)
		if err != nil {
			return nil, err
		}
		a.x11 = x
		tk = x
	default:
		return nil, fmt.Errorf("unknown window toolkit %q", cfg.Window.Toolkit)
	}

	rt := router.New(player.Deps{
		Toolkit:  tk,
		Engine:   eng,
		Sources:  sources,
		OpenSize: window.Size{Width: cfg.Player.Width, Height: cfg.Player.Height},
	})
	a.frontend = frontend.New(rt, cfg.Player.PollInterval, cfg.Engine.StartTimeout)
	return a, nil
}

func newEngine(cfg config.EngineConfig) (engine.Engine, error) {
	switch cfg.Backend {
	case "", "mpv":
		return mpv.New(mpv.Config{
			Path:         cfg.MPVPath,
			Args:         cfg.MPVArgs,
			StartTimeout: cfg.StartTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown engine backend %q", cfg.Backend)
	}
}

// run starts the toolkit event loop, if any. It outlives the caller's context
// so windows can still be destroyed during shutdown.
func (a *app) run() {
	if a.x11 == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.stopX11 = cancel
	go a.x11.Run(ctx)
}

// shutdown closes every player, stops polling and drops the X connection.
func (a *app) shutdown(ctx context.Context) {
	n := a.frontend.CloseAll(ctx)
	a.frontend.Close()
	if a.stopX11 != nil {
		a.stopX11()
	}
	log.WithComponent("cmd").Infof("closed %d player(s)", n)
}
