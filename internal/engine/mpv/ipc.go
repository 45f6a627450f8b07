package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

const (
	socketWaitDelay = 100 * time.Millisecond
	commandTimeout  = time.Second
	maxLineSize     = 1 << 20
)

var errClientClosed = errors.New("mpv ipc connection closed")

// request is one JSON-IPC command. request_id ties the reply back to it.
type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// line is anything mpv writes on the socket: a reply (request_id + error) or an
// asynchronous event (event + event fields).
type line struct {
	Event     string `json:"event"`
	Reason    string `json:"reason"`
	FileError string `json:"file_error"`
	Level     string `json:"level"`
	Prefix    string `json:"prefix"`
	Text      string `json:"text"`

	RequestID *int64 `json:"request_id"`
	Error     string `json:"error"`
	Data      any    `json:"data"`
}

func parseLine(b []byte) (line, error) {
	var l line
	if err := json.Unmarshal(b, &l); err != nil {
		return line{}, fmt.Errorf("unmarshal: %w", err)
	}
	return l, nil
}

type reply struct {
	data any
	err  error
}

// client multiplexes commands and events over one persistent IPC connection.
type client struct {
	conn    net.Conn
	onEvent func(line)

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan reply
	closed  bool
	done    chan struct{}
}

func newClient(conn net.Conn, onEvent func(line)) *client {
	c := &client{
		conn:    conn,
		onEvent: onEvent,
		pending: make(map[int64]chan reply),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// waitForSocket dials socketPath until mpv accepts, the process exits or ctx ends.
func waitForSocket(ctx context.Context, socketPath string, exited <-chan struct{}, onEvent func(line)) (*client, error) {
	var d net.Dialer
	ticker := time.NewTicker(socketWaitDelay)
	defer ticker.Stop()

	for {
		conn, err := d.DialContext(ctx, "unix", socketPath)
		if err == nil {
			return newClient(conn, onEvent), nil
		}
		select {
		case <-exited:
			return nil, fmt.Errorf("mpv exited before socket was ready")
		case <-ctx.Done():
			return nil, fmt.Errorf("socket %s not ready: %w", socketPath, ctx.Err())
		case <-ticker.C:
		}
	}
}

// command sends one command and waits for its reply.
func (c *client) command(ctx context.Context, args ...any) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errClientClosed
	}
	c.nextID++
	id := c.nextID
	ch := make(chan reply, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	payload, err := json.Marshal(request{Command: args, RequestID: id})
	if err == nil {
		c.writeMu.Lock()
		_, err = c.conn.Write(append(payload, '\n'))
		c.writeMu.Unlock()
	}
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("write: %w", err)
	}

	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

func (c *client) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// commandWithTimeout runs command bounded by the default IPC timeout.
func (c *client) commandWithTimeout(args ...any) (any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return c.command(ctx, args...)
}

func (c *client) readLoop() {
	defer c.shutdown()

	r := bufio.NewReaderSize(c.conn, 4096)
	for {
		b, err := r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			// Oversized lines (huge property values) are skipped.
			if !c.skipLine(r) {
				return
			}
			continue
		}
		if err != nil {
			return
		}

		l, err := parseLine(b)
		if err != nil {
			continue
		}
		c.dispatch(l)
	}
}

func (c *client) skipLine(r *bufio.Reader) bool {
	for total := 0; total < maxLineSize; {
		b, err := r.ReadSlice('\n')
		total += len(b)
		if err == nil {
			return true
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return false
		}
	}
	return false
}

func (c *client) dispatch(l line) {
	if l.Event != "" {
		if c.onEvent != nil {
			c.onEvent(l)
		}
		return
	}
	if l.RequestID == nil {
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[*l.RequestID]
	delete(c.pending, *l.RequestID)
	c.mu.Unlock()
	if !ok {
		return
	}

	if l.Error != "" && l.Error != "success" {
		ch <- reply{err: fmt.Errorf("mpv error: %s", l.Error)}
		return
	}
	ch <- reply{data: l.Data}
}

// shutdown fails every pending command once the connection is gone.
func (c *client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.pending {
		ch <- reply{err: errClientClosed}
		delete(c.pending, id)
	}
	close(c.done)
}

func (c *client) close() error {
	err := c.conn.Close()
	<-c.done
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
