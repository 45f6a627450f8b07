// Package server exposes the player router to UI processes: an HTTP control API
// with a server-sent event stream per player, and a JSON-lines unix socket.
package server

import (
	"context"

	"video-overlay/internal/events"
	"video-overlay/internal/player"
)

// Controller is the command surface the transports drive.
type Controller interface {
	Open(ctx context.Context, url string) (string, error)
	Dispatch(ctx context.Context, id, event string, payload any) (player.Outcome, bool)
	CloseAll(ctx context.Context) int
	Subscribe(id string, buffer int) *events.Subscription
	Status(id string) (player.Status, bool)
	Statuses() []player.Status
}

// CommandType identifies a socket command.
type CommandType string

const (
	CommandOpen      CommandType = "open"
	CommandEvent     CommandType = "event"
	CommandCloseAll  CommandType = "close_all"
	CommandSubscribe CommandType = "subscribe"
	CommandStatus    CommandType = "status"
)

// Command is one line received on the socket.
type Command struct {
	Type     CommandType `json:"type"`
	PlayerID string      `json:"player_id,omitempty"`
	URL      string      `json:"url,omitempty"`
	Event    string      `json:"event,omitempty"`
	Payload  any         `json:"payload,omitempty"`
}

// ReplyType identifies a socket reply.
type ReplyType string

const (
	ReplyOpened   ReplyType = "opened"
	ReplyOK       ReplyType = "ok"
	ReplyError    ReplyType = "error"
	ReplyEvent    ReplyType = "event"
	ReplyStatus   ReplyType = "status"
	ReplyClosed   ReplyType = "closed_all"
	ReplyNotFound ReplyType = "not_found"
)

// Reply is one line sent on the socket, either in answer to a command or as a
// forwarded outward player event.
type Reply struct {
	Type     ReplyType       `json:"type"`
	PlayerID string          `json:"player_id,omitempty"`
	Outcome  string          `json:"outcome,omitempty"`
	Event    string          `json:"event,omitempty"`
	Data     any             `json:"data,omitempty"`
	Count    int             `json:"count,omitempty"`
	Message  string          `json:"message,omitempty"`
	Players  []player.Status `json:"players,omitempty"`
}

// NewErrorReply creates an error reply.
func NewErrorReply(playerID string, message string) Reply {
	return Reply{
		Type:     ReplyError,
		PlayerID: playerID,
		Message:  message,
	}
}

// NewEventReply wraps an outward player event.
func NewEventReply(playerID string, msg events.Message) Reply {
	return Reply{
		Type:     ReplyEvent,
		PlayerID: playerID,
		Event:    msg.Event,
		Data:     msg.Data,
	}
}

// NewOutcomeReply reports the result of a dispatched event.
func NewOutcomeReply(playerID string, out player.Outcome) Reply {
	if out.Kind == player.Failed {
		r := NewErrorReply(playerID, out.Err.Error())
		r.Outcome = out.Kind.String()
		return r
	}
	return Reply{
		Type:     ReplyOK,
		PlayerID: playerID,
		Outcome:  out.Kind.String(),
	}
}
