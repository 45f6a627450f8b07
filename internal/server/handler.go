package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"video-overlay/internal/events"
	"video-overlay/internal/log"
	"video-overlay/internal/registry"
)

// Handler serves the JSON-lines protocol on one connection at a time.
type Handler struct {
	ctl     Controller
	buffer  int
	timeout time.Duration
	log     *logrus.Entry
}

// NewHandler creates a socket command handler. buffer sizes event subscriptions
// and timeout bounds every command.
func NewHandler(ctl Controller, buffer int, timeout time.Duration) *Handler {
	return &Handler{
		ctl:     ctl,
		buffer:  buffer,
		timeout: timeout,
		log:     log.WithComponent("socket"),
	}
}

// HandleConnection reads commands until the peer disconnects or ctx ends.
// Subscriptions opened on the connection end with it.
func (h *Handler) HandleConnection(ctx context.Context, conn net.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	var writeMu sync.Mutex
	enc := json.NewEncoder(conn)
	writeJSON := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return enc.Encode(v)
	}

	var forwarders sync.WaitGroup
	subs := newSubscriptions()
	defer func() {
		subs.cancelAll()
		forwarders.Wait()
	}()

	dec := json.NewDecoder(conn)
	for {
		var cmd Command
		if err := dec.Decode(&cmd); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				h.log.Debugf("decode: %v", err)
			}
			return
		}
		h.log.Debugf("received %s", cmd.Type)

		if cmd.Type == CommandSubscribe {
			h.subscribe(cmd, subs, &forwarders, writeJSON)
			continue
		}
		if err := writeJSON(h.handle(ctx, cmd)); err != nil {
			h.log.Debugf("write: %v", err)
			return
		}
	}
}

func (h *Handler) handle(ctx context.Context, cmd Command) Reply {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	switch cmd.Type {
	case CommandOpen:
		id, err := h.ctl.Open(ctx, cmd.URL)
		if err != nil {
			return NewErrorReply(id, errorMessage(err))
		}
		if id == "" {
			return Reply{Type: ReplyOK, Message: "empty url ignored"}
		}
		return Reply{Type: ReplyOpened, PlayerID: id}

	case CommandEvent:
		out, found := h.ctl.Dispatch(ctx, cmd.PlayerID, cmd.Event, cmd.Payload)
		if !found {
			return Reply{Type: ReplyNotFound, PlayerID: cmd.PlayerID}
		}
		return NewOutcomeReply(cmd.PlayerID, out)

	case CommandCloseAll:
		return Reply{Type: ReplyClosed, Count: h.ctl.CloseAll(ctx)}

	case CommandStatus:
		if cmd.PlayerID == "" {
			return Reply{Type: ReplyStatus, Players: h.ctl.Statuses()}
		}
		st, ok := h.ctl.Status(cmd.PlayerID)
		if !ok {
			return Reply{Type: ReplyNotFound, PlayerID: cmd.PlayerID}
		}
		return Reply{Type: ReplyStatus, PlayerID: cmd.PlayerID, Data: st}

	default:
		return NewErrorReply(cmd.PlayerID, "unknown command type")
	}
}

// subscribe forwards the player's outward events to the connection.
func (h *Handler) subscribe(cmd Command, subs *subscriptions, wg *sync.WaitGroup, writeJSON func(any) error) {
	if cmd.PlayerID == "" {
		_ = writeJSON(NewErrorReply("", "player_id is required"))
		return
	}
	sub, fresh := subs.add(h.ctl, cmd.PlayerID, h.buffer)
	_ = writeJSON(Reply{Type: ReplyOK, PlayerID: cmd.PlayerID, Message: "subscribed"})
	if !fresh {
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range sub.C {
			if err := writeJSON(NewEventReply(cmd.PlayerID, msg)); err != nil {
				return
			}
		}
	}()
}

// errorMessage flattens the sentinel errors transports report specially.
func errorMessage(err error) string {
	if errors.Is(err, registry.ErrDuplicateID) {
		return "player already open"
	}
	return err.Error()
}

// subscriptions are the event subscriptions of one connection, at most one per player.
type subscriptions struct {
	mu   sync.Mutex
	byID map[string]*events.Subscription
}

func newSubscriptions() *subscriptions {
	return &subscriptions{byID: make(map[string]*events.Subscription)}
}

func (s *subscriptions) add(ctl Controller, id string, buffer int) (*events.Subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.byID[id]; ok {
		return sub, false
	}
	sub := ctl.Subscribe(id, buffer)
	s.byID[id] = sub
	return sub, true
}

func (s *subscriptions) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sub := range s.byID {
		sub.Cancel()
		delete(s.byID, id)
	}
}
