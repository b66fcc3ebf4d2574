package websocket

import (
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"flitz/logging"
)

type Conn struct {
	*ws.Conn
	*sync.Mutex
	// TextMessage carries decoded client messages to the server loop.
	TextMessage chan *ServiceMessage

	logger *zap.Logger
}

var (
	upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	allowedOrigins []string
)

// AllowOrigins sets the origins, besides the server's own host, whose pages
// may open a session. Call it before serving.
func AllowOrigins(origins ...string) {
	allowedOrigins = origins
}

// checkOrigin accepts clients that send no Origin (non-browser), pages served
// from the same host, and the configured origins.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return slices.Contains(allowedOrigins, origin)
}

func (c *Conn) WriteJSON(v any) error {
	c.Lock()
	err := c.Conn.WriteJSON(v)
	c.Unlock()

	if err != nil {
		c.logger.Warn("websocket write failed", zap.Error(err))
	}
	return err
}

// NewConn upgrades the request and initializes the message channel.
func NewConn(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed", logging.Err(err))
		return nil, err
	}

	result := &Conn{
		Conn:        conn,
		Mutex:       new(sync.Mutex),
		TextMessage: make(chan *ServiceMessage, 10),
		logger:      logging.Named("ws"),
	}

	return result, nil
}

// StartDispatch reads messages until the connection fails. Text frames are
// decoded into TextMessage; the explorer protocol has no binary frames.
func (c *Conn) StartDispatch() error {
	for {
		msgType, data, err := c.ReadMessage()
		if err != nil {
			close(c.TextMessage)
			return err
		}

		if msgType == ws.BinaryMessage {
			c.logger.Debug("ignoring binary message", zap.Int("size", len(data)))
			continue
		}

		var msg ServiceMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("error unmarshalling message", zap.Error(err))
			continue
		}
		c.TextMessage <- &msg
	}
}
