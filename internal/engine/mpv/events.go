package mpv

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"video-overlay/internal/engine"
)

// source names mpv in bus messages.
const source = "mpv"

// translate maps an mpv event onto a bus message. Events that carry nothing the
// player acts on are dropped.
func translate(l line) (engine.Message, bool) {
	switch l.Event {
	case "end-file":
		switch l.Reason {
		case "eof":
			return engine.Message{Type: engine.MessageEOS, Source: source}, true
		case "error":
			reason := l.FileError
			if reason == "" {
				reason = "unknown error"
			}
			return engine.Message{
				Type:   engine.MessageError,
				Source: source,
				Err:    fmt.Errorf("playback failed: %s", reason),
				Debug:  l.FileError,
			}, true
		default:
			// quit, stop and redirect are not end of stream.
			return engine.Message{}, false
		}
	case "file-loaded":
		return engine.Message{Type: engine.MessageStateChanged, Source: source}, true
	case "log-message":
		msg := engine.Message{Source: source, Debug: l.Prefix}
		text := strings.TrimSpace(l.Text)
		switch l.Level {
		case "warn", "error", "fatal":
			// Log lines never stop playback; a fatal stream ends with end-file.
			msg.Type = engine.MessageWarning
		default:
			return engine.Message{}, false
		}
		msg.Err = errors.New(text)
		if l.Prefix != "" {
			msg.Source = source + "/" + l.Prefix
		}
		return msg, true
	default:
		return engine.Message{}, false
	}
}

// bus queues messages posted by the IPC reader until the player polls.
type bus struct {
	mu    sync.Mutex
	queue []engine.Message
}

func (b *bus) push(msg engine.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = append(b.queue, msg)
}

func (b *bus) Pop() (engine.Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return engine.Message{}, false
	}
	msg := b.queue[0]
	b.queue[0] = engine.Message{}
	b.queue = b.queue[1:]
	return msg, true
}
