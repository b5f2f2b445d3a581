package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
)

// Server publishes JSON-lines telemetry to a single TCP subscriber.
// A fresh connection replaces the previous one; messages published with
// no subscriber attached are dropped.
type Server struct {
	log *zap.SugaredLogger
	ln  net.Listener

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// NewServer listens on addr and starts accepting subscribers.
func NewServer(log *zap.SugaredLogger, addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	s := &Server{log: log, ln: ln}
	go s.acceptLoop()

	return s, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			s.log.Warnw("telemetry accept failed", "error", err)

			continue
		}

		s.mu.Lock()

		if s.closed {
			s.mu.Unlock()
			conn.Close()

			return
		}

		// At most one subscriber; a new connection replaces the old.
		if s.conn != nil {
			s.conn.Close()
		}

		s.conn = conn
		s.mu.Unlock()

		s.log.Infow("telemetry subscriber connected",
			"addr", s.ln.Addr().String(), "remote", conn.RemoteAddr().String())
	}
}

// Publish validates the message and writes it to the subscriber as one
// JSON line. Without a subscriber the message is silently dropped.
func (s *Server) Publish(msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Kind(), err)
	}

	payload = append(payload, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		s.log.Debugw("no telemetry subscriber, dropping message", "kind", msg.Kind())

		return nil
	}

	if _, err := s.conn.Write(payload); err != nil {
		s.conn.Close()
		s.conn = nil

		return fmt.Errorf("write %s: %w", msg.Kind(), err)
	}

	return nil
}

// Connected reports whether a subscriber is attached.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conn != nil
}

// Close stops accepting and drops the current subscriber.
func (s *Server) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return nil
	}

	s.closed = true

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}

	s.mu.Unlock()

	return s.ln.Close()
}
