package websocket

import (
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"flitz/metrics"
)

// Server runs one explorer session over a single websocket connection.
type Server struct {
	*Conn
	ID string

	// only touched before Start
	services       map[string]Service
	activeServices []string

	timeout        time.Duration
	checkInterval  time.Duration
	lastActiveTime atomic.Int64
	done           chan struct{}
}

// idleCheckInterval is how often a session compares its idle time to the timeout.
var idleCheckInterval = 10 * time.Second

func (s *Server) touch() {
	s.lastActiveTime.Store(time.Now().UnixNano())
}

func (s *Server) idleFor() time.Duration {
	return time.Since(time.Unix(0, s.lastActiveTime.Load()))
}

func (s *Server) checkTimeout() {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if s.idleFor() > s.timeout {
				s.logger.Info("session idle, closing", zap.Duration("timeout", s.timeout))
				s.Close()
				return
			}
		}
	}
}

// Register adds a service whose messages keep the session alive.
func (s *Server) Register(service Service) {
	s.RegisterPassive(service)
	s.activeServices = append(s.activeServices, service.Name())
}

// RegisterPassive adds a service whose messages do not count as activity.
func (s *Server) RegisterPassive(service Service) {
	if _, exists := s.services[service.Name()]; exists {
		s.logger.Warn("service already registered", zap.String("service", service.Name()))
		return
	}

	service.Register(s.Conn)
	s.services[service.Name()] = service
}

// dispatch routes one message to its service.
func (s *Server) dispatch(msg *ServiceMessage) {
	if slices.Contains(s.activeServices, msg.Service) {
		s.touch()
	}
	if service, exists := s.services[msg.Service]; exists {
		service.HandleTextMessage(msg.Id, msg.Action, msg.Data)
	} else {
		s.logger.Debug("message for unknown service", zap.String("service", msg.Service))
	}
}

// Start serves the session until the connection closes. Messages are handled
// one at a time, in arrival order.
func (s *Server) Start() error {
	metrics.SessionOpened()
	defer metrics.SessionClosed()
	s.logger.Info("session started")

	go s.checkTimeout()

	handled := make(chan struct{})
	go func() {
		defer close(handled)
		for msg := range s.TextMessage {
			s.dispatch(msg)
		}
	}()

	err := s.StartDispatch()
	<-handled
	close(s.done)

	for _, service := range s.services {
		service.Cleanup(err)
	}
	s.logger.Info("session ended", zap.Error(err))
	return err
}

func NewServer(w http.ResponseWriter, r *http.Request, timeout time.Duration) (*Server, error) {
	interval := idleCheckInterval
	conn, err := NewConn(w, r)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	conn.logger = conn.logger.With(zap.String("session", id))

	server := &Server{
		Conn:           conn,
		ID:             id,
		services:       make(map[string]Service),
		activeServices: make([]string, 0, 2),
		timeout:        timeout,
		checkInterval:  interval,
		done:           make(chan struct{}),
	}
	server.touch()

	return server, nil
}
