// Package events carries outward per-player notifications to the UI layer.
//
// Every player owns a named channel (its id). Emit is fire-and-forget: a message is
// handed to each subscriber that can take it right now and dropped for the rest.
package events

import (
	"sync"
)

// Outward event names.
const (
	// Closed tells the UI the player stopped on its own (error or end of stream).
	Closed = "closed"
	// Close asks the UI to close the player window during shutdown.
	Close = "close"
)

// Message is one outward notification.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Emitter publishes messages on named channels.
type Emitter interface {
	Emit(channel string, msg Message) int
}

// Hub fans messages out to channel subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription receives messages from one channel until cancelled.
type Subscription struct {
	Channel string
	C       <-chan Message

	c    chan Message
	hub  *Hub
	once sync.Once
}

// Subscribe opens a subscription on channel. With buffer 0 a message is only
// delivered if the receiver is already waiting.
func (h *Hub) Subscribe(channel string, buffer int) *Subscription {
	c := make(chan Message, buffer)
	s := &Subscription{Channel: channel, C: c, c: c, hub: h}

	h.mu.Lock()
	set, ok := h.subs[channel]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[channel] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Cancel detaches the subscription and closes C. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		if set, ok := h.subs[s.Channel]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.Channel)
			}
		}
		h.mu.Unlock()
		close(s.c)
	})
}

// Emit delivers msg to every ready subscriber of channel and returns how many took it.
func (h *Hub) Emit(channel string, msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for s := range h.subs[channel] {
		select {
		case s.c <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of live subscriptions on channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}
