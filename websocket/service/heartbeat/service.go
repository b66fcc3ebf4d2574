package heartbeat

import (
	"encoding/json"

	ws "flitz/websocket"
)

// HeartbeatService echoes ping messages. It is registered passively so that
// pings alone do not keep an idle session open.
type HeartbeatService struct {
	conn ws.Writer
}

func (s *HeartbeatService) Name() string {
	return "heartbeat"
}

func (s *HeartbeatService) Register(conn ws.Writer) {
	s.conn = conn
}

func (s *HeartbeatService) HandleTextMessage(id, action string, _ json.RawMessage) {
	s.conn.WriteJSON(&ws.ServiceMessage{Service: s.Name(), Action: action, Id: id})
}

func (s *HeartbeatService) Cleanup(err error) {}

func NewService() ws.Service {
	return &HeartbeatService{}
}
