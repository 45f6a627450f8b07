// Package registry tracks the live players of the process by id.
//
// The map lock is held only while the map is read or mutated. Each player
// serializes its own transitions, so a slow window or pipeline build never
// blocks events addressed to other players.
package registry

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"video-overlay/internal/events"
	"video-overlay/internal/log"
	"video-overlay/internal/player"
)

// ErrDuplicateID is returned when a player with the same id is already registered.
var ErrDuplicateID = errors.New("player id already registered")

// Registry maps player ids to players.
type Registry struct {
	mu      sync.Mutex
	players map[string]*player.Player
	log     *logrus.Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		players: make(map[string]*player.Player),
		log:     log.WithComponent("registry"),
	}
}

// Add registers p and opens it. If opening fails the entry is removed again and
// the error returned, so a registered player always had its window created.
func (r *Registry) Add(p *player.Player) error {
	id := p.ID()

	r.mu.Lock()
	if _, exists := r.players[id]; exists {
		r.mu.Unlock()
		r.log.WithField("player", id).Warn("duplicate id rejected")
		return ErrDuplicateID
	}
	r.players[id] = p
	r.mu.Unlock()

	if err := p.Open(); err != nil {
		r.removeIf(id, p)
		r.log.WithField("player", id).WithError(err).Error("open failed, entry rolled back")
		return err
	}
	r.log.WithField("player", id).Info("registered")
	return nil
}

// Remove drops id from the registry. It reports whether an entry was removed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; !ok {
		return false
	}
	delete(r.players, id)
	return true
}

// removeIf drops id only while it still maps to p.
func (r *Registry) removeIf(id string, p *player.Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.players[id]; !ok || cur != p {
		return false
	}
	delete(r.players, id)
	return true
}

// Get looks up a player.
func (r *Registry) Get(id string) (*player.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	return p, ok
}

// Len returns the number of registered players.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	ids := lo.Keys(r.players)
	r.mu.Unlock()
	slices.Sort(ids)
	return ids
}

// Statuses returns a snapshot of every player, ordered by id.
func (r *Registry) Statuses() []player.Status {
	r.mu.Lock()
	players := lo.Values(r.players)
	r.mu.Unlock()

	statuses := lo.Map(players, func(p *player.Player, _ int) player.Status {
		return p.Status()
	})
	slices.SortFunc(statuses, func(a, b player.Status) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return statuses
}

// CloseAll empties the registry in one step, then tells each player's UI to close
// and tears the player down. It returns how many players were closed.
func (r *Registry) CloseAll(ctx context.Context) int {
	r.mu.Lock()
	players := r.players
	r.players = make(map[string]*player.Player)
	r.mu.Unlock()

	for id, p := range players {
		r.log.WithField("player", id).Info("closing")
		p.SendEvent(events.Close, nil)
		p.Close(ctx)
	}
	return len(players)
}

// Dispatch routes one event to a player. The second result is false when no
// player has that id. A Remove outcome evicts the player in a separate step.
func (r *Registry) Dispatch(ctx context.Context, id, event string, payload any) (player.Outcome, bool) {
	p, ok := r.Get(id)
	if !ok {
		r.log.WithField("player", id).Debugf("%s for unknown player ignored", event)
		return player.Outcome{}, false
	}

	out := p.HandleEvent(ctx, event, payload)
	if out.Kind == player.Failed {
		r.log.WithField("player", id).WithError(out.Err).Warnf("%s failed", event)
	}
	if !out.Alive() {
		if r.removeIf(id, p) {
			r.log.WithField("player", id).Info("evicted")
		}
	}
	return out, true
}
