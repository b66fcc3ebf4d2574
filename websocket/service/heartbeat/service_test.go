package heartbeat

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "flitz/websocket"
)

// recordingConn keeps every message written to it.
type recordingConn struct {
	messages []*ws.ServiceMessage
	mutex    sync.Mutex
}

func (m *recordingConn) WriteJSON(v any) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.messages = append(m.messages, v.(*ws.ServiceMessage))
	return nil
}

func TestHeartbeatService_Name(t *testing.T) {
	assert.Equal(t, "heartbeat", NewService().Name())
}

func TestHeartbeatService_HandleTextMessage(t *testing.T) {
	conn := &recordingConn{}
	service := NewService()
	service.Register(conn)

	testCases := []struct {
		name     string
		id       string
		action   string
		expected ws.ServiceMessage
	}{
		{
			name:   "Simple heartbeat",
			id:     "test-id-1",
			action: "ping",
			expected: ws.ServiceMessage{
				Service: "heartbeat",
				Action:  "ping",
				Id:      "test-id-1",
			},
		},
		{
			name:   "Different action",
			id:     "test-id-2",
			action: "pong",
			expected: ws.ServiceMessage{
				Service: "heartbeat",
				Action:  "pong",
				Id:      "test-id-2",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service.HandleTextMessage(tc.id, tc.action, json.RawMessage(`{}`))

			conn.mutex.Lock()
			defer conn.mutex.Unlock()

			require.NotEmpty(t, conn.messages, "No message was recorded")
			msg := conn.messages[len(conn.messages)-1]
			assert.Equal(t, tc.expected, *msg)
		})
	}
}

func TestHeartbeatService_Cleanup(t *testing.T) {
	service := NewService().(*HeartbeatService)
	// Cleanup has no side effects
	assert.NotPanics(t, func() {
		service.Cleanup(nil)
		service.Cleanup(errors.New("test error"))
	})
}
