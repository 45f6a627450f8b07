// Package router is the command surface the UI layer calls into: open a player,
// route an event to it, close everything. A Router is built once at startup and
// handed to every transport.
package router

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"video-overlay/internal/events"
	"video-overlay/internal/log"
	"video-overlay/internal/player"
	"video-overlay/internal/registry"
)

// Router owns the registry and the outward event hub.
type Router struct {
	deps     player.Deps
	registry *registry.Registry
	hub      *events.Hub
	log      *logrus.Entry
}

// New creates a router. deps.Emitter is replaced by the router's own hub.
func New(deps player.Deps) *Router {
	hub := events.NewHub()
	deps.Emitter = hub
	return &Router{
		deps:     deps,
		registry: registry.New(),
		hub:      hub,
		log:      log.WithComponent("router"),
	}
}

// Open creates and registers a player for url and returns its id. A blank url
// is ignored and yields an empty id; any other url is used as given.
func (r *Router) Open(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		r.log.Debug("open with empty url ignored")
		return "", nil
	}

	p := player.New(url, r.deps)
	if err := r.registry.Add(p); err != nil {
		return p.ID(), err
	}
	return p.ID(), nil
}

// Dispatch routes an event to a player. Events for unknown ids are ignored and
// reported with found=false.
func (r *Router) Dispatch(ctx context.Context, id, event string, payload any) (out player.Outcome, found bool) {
	return r.registry.Dispatch(ctx, id, event, payload)
}

// CloseAll tears down every player and returns how many were closed.
func (r *Router) CloseAll(ctx context.Context) int {
	n := r.registry.CloseAll(ctx)
	r.log.Infof("closed %d player(s)", n)
	return n
}

// Subscribe opens an outward event subscription on a player's channel.
func (r *Router) Subscribe(id string, buffer int) *events.Subscription {
	return r.hub.Subscribe(id, buffer)
}

// Status returns one player's snapshot.
func (r *Router) Status(id string) (player.Status, bool) {
	p, ok := r.registry.Get(id)
	if !ok {
		return player.Status{}, false
	}
	return p.Status(), true
}

// Statuses returns every player's snapshot ordered by id.
func (r *Router) Statuses() []player.Status {
	return r.registry.Statuses()
}

// IDs returns the registered player ids.
func (r *Router) IDs() []string {
	return r.registry.IDs()
}
