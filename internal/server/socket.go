package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"video-overlay/internal/log"
)

const DefaultSocketPath = "/tmp/video-overlay.sock"

// SocketServer accepts UI connections on a unix socket.
type SocketServer struct {
	socketPath string
	listener   net.Listener
	handler    *Handler
	log        *logrus.Entry
	wg         sync.WaitGroup
}

// NewSocketServer creates a new unix socket server.
func NewSocketServer(socketPath string, handler *Handler) *SocketServer {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	return &SocketServer{
		socketPath: socketPath,
		handler:    handler,
		log:        log.WithComponent("socket"),
	}
}

// Start listens on the socket and accepts connections in the background.
func (s *SocketServer) Start(ctx context.Context) error {
	// A stale socket from a crashed run would make Listen fail.
	_ = os.Remove(s.socketPath)

	var err error
	s.listener, err = net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}

	s.log.Infof("listening on %s", s.socketPath)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()
	return nil
}

func (s *SocketServer) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			s.log.Warnf("accept failed: %v", err)
			continue
		}

		s.log.Debug("client connected")
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handler.HandleConnection(ctx, conn)
			s.log.Debug("client disconnected")
		}()
	}
}

// Stop closes the listener and waits for every connection to finish. Callers
// cancel the Start context first so open connections are dropped.
func (s *SocketServer) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	_ = os.Remove(s.socketPath)
	s.log.Info("server stopped")
}

// SocketPath returns the socket path.
func (s *SocketServer) SocketPath() string {
	return s.socketPath
}
