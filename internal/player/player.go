// Package player implements the per-player lifecycle: one window, at most one
// pipeline, and the overlay binding derived from that pipeline's sink.
package player

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/samber/mo"
	"github.com/sirupsen/logrus"

	"video-overlay/internal/engine"
	"video-overlay/internal/events"
	"video-overlay/internal/log"
	"video-overlay/internal/overlay"
	"video-overlay/internal/platform"
	"video-overlay/internal/window"
)

// Inbound event names.
const (
	EventReady   = "ready"
	EventPoll    = "poll"
	EventPlay    = "play"
	EventPause   = "pause"
	EventStop    = "stop"
	EventResized = "resized"
	EventClosed  = "closed"
)

var (
	// InitialSize is the surface size before the window opens.
	InitialSize = window.Size{Width: 800, Height: 600}
	// DefaultOpenSize is used when Deps.OpenSize is zero.
	DefaultOpenSize = window.Size{Width: 404, Height: 324}
)

// Deps are the collaborators a player drives.
type Deps struct {
	Toolkit window.Toolkit
	Engine  engine.Engine
	Binder  *overlay.Binder
	Emitter events.Emitter
	// Sources may be nil, in which case the url is handed to the engine unchanged.
	Sources *platform.Registry
	// OpenSize is the surface size a window opens with.
	OpenSize window.Size
}

// Player is one media surface.
type Player struct {
	id   string
	url  string
	deps Deps
	log  *logrus.Entry

	mu       sync.Mutex
	state    State
	window   mo.Option[window.Window]
	pipeline mo.Option[engine.Pipeline]
	overlay  mo.Option[*overlay.Binding]
	width    float64
	height   float64
}

// New creates a player for url. Nothing is opened yet.
func New(url string, deps Deps) *Player {
	if deps.Binder == nil {
		deps.Binder = overlay.NewBinder()
	}
	if deps.OpenSize.Width <= 0 || deps.OpenSize.Height <= 0 {
		deps.OpenSize = DefaultOpenSize
	}
	id := ID(url)
	return &Player{
		id:       id,
		url:      url,
		deps:     deps,
		log:      log.WithComponent("player").WithField("player", id),
		state:    StateCreated,
		window:   mo.None[window.Window](),
		pipeline: mo.None[engine.Pipeline](),
		overlay:  mo.None[*overlay.Binding](),
		width:    InitialSize.Width,
		height:   InitialSize.Height,
	}
}

func (p *Player) ID() string  { return p.id }
func (p *Player) URL() string { return p.url }

// Status is a point-in-time view of a player.
type Status struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	State       string  `json:"state"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	HasWindow   bool    `json:"has_window"`
	HasPipeline bool    `json:"has_pipeline"`
	Embedded    bool    `json:"embedded"`
}

// Status returns a snapshot of the player.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	embedded := false
	if bnd, ok := p.overlay.Get(); ok {
		embedded = bnd.Embedded()
	}
	return Status{
		ID:          p.id,
		URL:         p.url,
		State:       p.state.String(),
		Width:       p.width,
		Height:      p.height,
		HasWindow:   p.window.IsPresent(),
		HasPipeline: p.pipeline.IsPresent(),
		Embedded:    embedded,
	}
}

// State returns the current lifecycle state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Open fixes the surface to the open size and creates the window if there is none yet.
func (p *Player) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateClosed {
		return ErrClosed
	}

	p.log.Info("opening")
	p.width = p.deps.OpenSize.Width
	p.height = p.deps.OpenSize.Height

	if p.window.IsPresent() {
		return nil
	}

	w, err := p.deps.Toolkit.Create(window.Options{
		Label: p.id,
		Title: p.url,
		Size:  window.Size{Width: p.width, Height: p.height},
	})
	if err != nil {
		return &ConstructionError{Stage: "window", Err: err}
	}
	p.window = mo.Some(w)
	p.state = StateWindowOpen
	return nil
}

// HandleEvent applies one inbound event. Events are applied in call order.
func (p *Player) HandleEvent(ctx context.Context, name string, payload any) Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateClosed {
		return evict()
	}

	switch name {
	case EventReady:
		return p.ready(ctx)
	case EventPoll:
		p.poll(ctx)
	case EventPlay:
		return p.transition(ctx, engine.StatePlaying, StatePlaying)
	case EventPause:
		return p.transition(ctx, engine.StatePaused, StatePaused)
	case EventStop:
		p.stop(ctx)
	case EventResized:
		p.resized(payload)
	case EventClosed:
		p.close(ctx)
		return evict()
	default:
		p.log.Infof("unhandled event: %s", name)
	}
	return proceed()
}

// Close stops the pipeline and closes the window.
func (p *Player) Close(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.close(ctx)
}

// SendEvent pushes an outward message on the player's channel.
func (p *Player) SendEvent(name string, data any) {
	if p.deps.Emitter == nil {
		return
	}
	n := p.deps.Emitter.Emit(p.id, events.Message{Event: name, Data: data})
	p.log.Debugf("sent %s to %d listener(s)", name, n)
}

func (p *Player) ready(ctx context.Context) Outcome {
	w, ok := p.window.Get()
	if !ok {
		p.log.Warn("ready without a window")
		return failed(ErrNoWindow)
	}
	if p.pipeline.IsPresent() {
		p.log.Debug("ready: pipeline already built")
		return proceed()
	}

	pl, err := p.buildPipeline(ctx, w)
	if err != nil {
		p.log.WithError(err).Error("build pipeline")
		return failed(err)
	}
	p.state = StatePipelineReady
	p.fillCurrentWindow()

	if err := pl.SetState(ctx, engine.StatePlaying); err != nil {
		p.log.WithError(err).Error("start playback")
		p.stop(ctx)
		return failed(&ConstructionError{Stage: "playback", Err: err})
	}
	p.state = StatePlaying
	return proceed()
}

func (p *Player) buildPipeline(ctx context.Context, w window.Window) (engine.Pipeline, error) {
	p.log.Infof("building pipeline for %s", p.url)

	uri, err := p.deps.Sources.Resolve(ctx, p.url)
	if err != nil {
		return nil, &ConstructionError{Stage: "source", Err: err}
	}

	pl, err := p.deps.Engine.Build(ctx, uri)
	if err != nil {
		return nil, &ConstructionError{Stage: "pipeline", Err: err}
	}

	sink, ok := pl.Overlay()
	if !ok {
		if err := pl.SetState(ctx, engine.StateNull); err != nil {
			p.log.WithError(err).Warn("release pipeline without overlay")
		}
		return nil, &ConstructionError{Stage: "overlay", Err: ErrNoOverlay}
	}

	handle, err := w.Handle()
	if err != nil {
		p.log.WithError(err).Warn("window handle unavailable")
		handle = nil
	}
	// An unbindable handle still yields a binding; playback goes to a separate surface.
	bnd, _ := p.deps.Binder.Bind(sink, handle)

	p.pipeline = mo.Some(pl)
	p.overlay = mo.Some(bnd)
	return pl, nil
}

func (p *Player) transition(ctx context.Context, target engine.State, next State) Outcome {
	pl, ok := p.pipeline.Get()
	if !ok {
		p.log.Debugf("%s ignored without a pipeline", target)
		return proceed()
	}
	p.log.Infof("set pipeline %s", target)
	if err := pl.SetState(ctx, target); err != nil {
		p.log.WithError(err).Errorf("set pipeline %s", target)
		return failed(err)
	}
	p.state = next
	return proceed()
}

func (p *Player) stop(ctx context.Context) {
	pl, ok := p.pipeline.Get()
	if !ok {
		return
	}
	p.log.Info("stopping")
	if err := pl.SetState(ctx, engine.StateNull); err != nil {
		p.log.WithError(err).Warn("stop pipeline")
	}
	p.pipeline = mo.None[engine.Pipeline]()
	p.overlay = mo.None[*overlay.Binding]()
	p.state = StateStopped
}

// poll drains the status channel. The first error or end-of-stream stops the
// pipeline, notifies the UI and ends the drain.
func (p *Player) poll(ctx context.Context) {
	pl, ok := p.pipeline.Get()
	if !ok {
		return
	}
	bus := pl.Bus()
	if bus == nil {
		return
	}

	for {
		msg, ok := bus.Pop()
		if !ok {
			return
		}
		switch msg.Type {
		case engine.MessageError:
			p.log.WithFields(logrus.Fields{
				"source": msg.Source,
				"debug":  msg.Debug,
			}).Errorf("pipeline error: %v", msg.Err)
			p.stop(ctx)
			p.SendEvent(events.Closed, nil)
			return
		case engine.MessageEOS:
			p.log.Info("end of stream")
			p.stop(ctx)
			p.SendEvent(events.Closed, nil)
			return
		case engine.MessageWarning:
			p.log.WithField("source", msg.Source).Warnf("pipeline warning: %v", msg.Err)
		default:
			p.log.Tracef("bus: %s", msg)
		}
	}
}

func (p *Player) resized(payload any) {
	width, okW := numberField(payload, "width")
	height, okH := numberField(payload, "height")
	if !okW || !okH {
		p.log.Debug("resize without both dimensions ignored")
		return
	}
	p.width = width
	p.height = height
	p.fillCurrentWindow()
}

func (p *Player) fillCurrentWindow() {
	bnd, ok := p.overlay.Get()
	if !ok {
		return
	}
	if err := bnd.Fill(p.width, p.height); err != nil {
		p.log.WithError(err).Warn("fill window")
	}
}

func (p *Player) close(ctx context.Context) {
	p.log.Info("closing")
	p.stop(ctx)
	if w, ok := p.window.Get(); ok {
		if err := w.Close(); err != nil {
			p.log.WithError(err).Warn("close window")
		}
	}
	p.window = mo.None[window.Window]()
	p.state = StateClosed
}

// numberField reads a numeric field from a JSON-like object.
func numberField(payload any, key string) (float64, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return 0, false
	}
	switch v := obj[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
