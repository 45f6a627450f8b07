// Package frontend stands in for the UI side of each player window: it forwards
// window events to the router and polls every open player at a fixed cadence
// until the player is gone or asked to close.
package frontend

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"video-overlay/internal/events"
	"video-overlay/internal/log"
	"video-overlay/internal/player"
)

// DefaultPollInterval matches the cadence window front-ends poll at.
const DefaultPollInterval = 500 * time.Millisecond

// Router is the part of the router a frontend drives.
type Router interface {
	Open(ctx context.Context, url string) (string, error)
	Dispatch(ctx context.Context, id, event string, payload any) (player.Outcome, bool)
	CloseAll(ctx context.Context) int
	Subscribe(id string, buffer int) *events.Subscription
	Status(id string) (player.Status, bool)
	Statuses() []player.Status
}

// Frontend attaches a poller to every player it opens.
type Frontend struct {
	Router
	interval time.Duration
	timeout  time.Duration
	log      *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pollers map[string]chan struct{}
}

// New creates a frontend over r. interval <= 0 disables polling; timeout bounds
// every dispatched event and defaults to five seconds.
func New(r Router, interval, timeout time.Duration) *Frontend {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Frontend{
		Router:   r,
		interval: interval,
		timeout:  timeout,
		log:      log.WithComponent("frontend"),
		ctx:      ctx,
		cancel:   cancel,
		pollers:  make(map[string]chan struct{}),
	}
}

// Open opens a player and starts polling it.
func (f *Frontend) Open(ctx context.Context, url string) (string, error) {
	id, err := f.Router.Open(ctx, url)
	if err != nil || id == "" {
		return id, err
	}
	f.attach(id)
	return id, nil
}

// HandleWindowEvent forwards a toolkit event for the window labelled label.
// It has the window.Listener signature.
func (f *Frontend) HandleWindowEvent(label, event string, payload any) {
	ctx, cancel := context.WithTimeout(f.ctx, f.timeout)
	defer cancel()

	out, found := f.Dispatch(ctx, label, event, payload)
	if !found {
		f.log.WithField("player", label).Debugf("%s for unknown window", event)
		return
	}
	if !out.Alive() {
		f.detach(label)
	}
}

// Done returns a channel closed once the player id has been evicted or told to
// close. It is closed immediately when id is not being polled.
func (f *Frontend) Done(id string) <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if done, ok := f.pollers[id]; ok {
		return done
	}
	done := make(chan struct{})
	close(done)
	return done
}

// Close stops every poller and waits for them.
func (f *Frontend) Close() {
	f.cancel()
	f.wg.Wait()
}

func (f *Frontend) attach(id string) {
	f.mu.Lock()
	if _, ok := f.pollers[id]; ok {
		f.mu.Unlock()
		return
	}
	done := make(chan struct{})
	f.pollers[id] = done
	f.mu.Unlock()

	sub := f.Subscribe(id, 1)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer sub.Cancel()
		defer f.detach(id)
		f.poll(id, sub)
	}()
}

func (f *Frontend) detach(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if done, ok := f.pollers[id]; ok {
		close(done)
		delete(f.pollers, id)
	}
}

func (f *Frontend) poll(id string, sub *events.Subscription) {
	var tick <-chan time.Time
	if f.interval > 0 {
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	f.mu.Lock()
	done := f.pollers[id]
	f.mu.Unlock()

	for {
		select {
		case <-f.ctx.Done():
			return
		case <-done:
			return
		case msg, ok := <-sub.C:
			if !ok || msg.Event == events.Close {
				f.log.WithField("player", id).Debug("close requested")
				return
			}
		case <-tick:
			ctx, cancel := context.WithTimeout(f.ctx, f.timeout)
			_, found := f.Dispatch(ctx, id, player.EventPoll, nil)
			cancel()
			if !found {
				return
			}
		}
	}
}
