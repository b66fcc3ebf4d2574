package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// echoService replies to every message with the same id, action and data.
type echoService struct {
	name string
	conn Writer

	mu      sync.Mutex
	cleaned bool
}

func (e *echoService) Name() string         { return e.name }
func (e *echoService) Register(conn Writer) { e.conn = conn }

func (e *echoService) HandleTextMessage(id, action string, data json.RawMessage) {
	e.conn.WriteJSON(&ServiceMessage{Service: e.name, Id: id, Action: action, Data: data})
}

func (e *echoService) Cleanup(err error) {
	e.mu.Lock()
	e.cleaned = true
	e.mu.Unlock()
}

func (e *echoService) isCleaned() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cleaned
}

func startSession(t *testing.T, timeout time.Duration, active, passive *echoService) *ws.Conn {
	t.Helper()

	conn, _, err := ws.DefaultDialer.Dial(sessionURL(t, timeout, active, passive), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sessionURL(t *testing.T, timeout time.Duration, active, passive *echoService) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server, err := NewServer(w, r, timeout)
		if err != nil {
			return
		}
		if active != nil {
			server.Register(active)
		}
		if passive != nil {
			server.RegisterPassive(passive)
		}
		server.Start()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestServerOrigin(t *testing.T) {
	AllowOrigins("http://localhost:5173")
	t.Cleanup(func() { AllowOrigins() })
	target := sessionURL(t, time.Minute, nil, nil)
	host := strings.TrimPrefix(target, "ws://")

	tests := []struct {
		name   string
		origin string
		ok     bool
	}{
		{"no origin", "", true},
		{"same host", "http://" + host, true},
		{"allowed", "http://localhost:5173", true},
		{"foreign", "http://evil.example", false},
		{"malformed", "://", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := ws.DefaultDialer.Dial(target, header)
			if tt.ok {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestServerDispatch(t *testing.T) {
	echo := &echoService{name: "echo"}
	conn := startSession(t, time.Minute, echo, nil)

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(ws.BinaryMessage, []byte{1, 2, 3}))
	require.NoError(t, conn.WriteJSON(&ServiceMessage{Service: "nobody", Id: "0"}))
	require.NoError(t, conn.WriteJSON(&ServiceMessage{
		Service: "echo",
		Id:      "/home",
		Action:  "list",
		Data:    json.RawMessage(`{"showHidden":true}`),
	}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply ServiceMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "echo", reply.Service)
	assert.Equal(t, "/home", reply.Id)
	assert.Equal(t, "list", reply.Action)
	assert.JSONEq(t, `{"showHidden":true}`, string(reply.Data))
}

func TestServerOrdering(t *testing.T) {
	echo := &echoService{name: "echo"}
	conn := startSession(t, time.Minute, echo, nil)

	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		require.NoError(t, conn.WriteJSON(&ServiceMessage{Service: "echo", Id: id}))
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for _, id := range ids {
		var reply ServiceMessage
		require.NoError(t, conn.ReadJSON(&reply))
		assert.Equal(t, id, reply.Id)
	}
}

func TestServerCleanupOnClose(t *testing.T) {
	echo := &echoService{name: "echo"}
	beat := &echoService{name: "heartbeat"}
	conn := startSession(t, time.Minute, echo, beat)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return echo.isCleaned() && beat.isCleaned()
	}, 5*time.Second, 10*time.Millisecond)
}

func TestServerIdleTimeout(t *testing.T) {
	old := idleCheckInterval
	idleCheckInterval = 10 * time.Millisecond
	t.Cleanup(func() { idleCheckInterval = old })

	echo := &echoService{name: "echo"}
	beat := &echoService{name: "heartbeat"}
	conn := startSession(t, 100*time.Millisecond, echo, beat)

	// heartbeats alone do not keep the session open
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	deadline := time.Now().Add(5 * time.Second)
	var err error
	for time.Now().Before(deadline) {
		if err = conn.WriteJSON(&ServiceMessage{Service: "heartbeat", Id: "ping"}); err != nil {
			break
		}
		var reply ServiceMessage
		if err = conn.ReadJSON(&reply); err != nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	assert.Error(t, err, "session should close while only heartbeats arrive")

	assert.Eventually(t, echo.isCleaned, 5*time.Second, 10*time.Millisecond)
}

func TestRegisterDuplicate(t *testing.T) {
	first := &echoService{name: "echo"}
	second := &echoService{name: "echo"}

	server := &Server{
		Conn:     &Conn{logger: zap.NewNop()},
		services: make(map[string]Service),
	}
	server.Register(first)
	server.Register(second)

	assert.Same(t, first, server.services["echo"])
	assert.Nil(t, second.conn)
}
