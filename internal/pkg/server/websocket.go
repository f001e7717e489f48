package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tim-hellhake/homie-adapter/internal/pkg/model"
)

const (
	writeWait      = time.Second * 10
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient is one connected event-stream subscriber. The connection is
// only ever written to by its writePump goroutine; everyone else
// enqueues on send.
type wsClient struct {
	hub  *hub
	conn *websocket.Conn
	send chan []byte
}

// writePump drains the send channel onto the connection until the hub
// closes the channel or a write fails.
func (c *wsClient) writePump() {
	defer c.conn.Close()

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, nil)
}

// readPump drains the connection; clients only listen, a read error
// means gone.
func (c *wsClient) readPump() {
	defer c.hub.remove(c)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// hub tracks the websocket clients subscribed to the live event stream.
type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newHub() *hub {
	return &hub{
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	c.conn.Close()
}

func (h *hub) broadcast(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		zap.L().Error("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full, skip.
		}
	}
}

// ServeWS upgrades the request and streams adapter events until the
// client disconnects.
func (s *server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	s.hub.add(client)
	s.logger.Debug("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	go client.writePump()
	go client.readPump()
}

type event struct {
	Type     string                    `json:"type"`
	Device   *model.Device             `json:"device,omitempty"`
	DeviceID string                    `json:"device_id,omitempty"`
	Property *model.PropertyDescriptor `json:"property,omitempty"`
	Update   *model.ValueUpdate        `json:"update,omitempty"`
}

// The server doubles as a publisher backend: core announcements become
// events on the websocket stream.

func (s *server) RegisterDevice(_ context.Context, device model.Device) error {
	s.hub.broadcast(event{Type: "device_added", Device: &device})
	return nil
}

func (s *server) RegisterProperty(_ context.Context, deviceID string, desc model.PropertyDescriptor) error {
	s.hub.broadcast(event{Type: "property_added", DeviceID: deviceID, Property: &desc})
	return nil
}

func (s *server) PublishValue(_ context.Context, update model.ValueUpdate) error {
	s.hub.broadcast(event{Type: "value", Update: &update})
	return nil
}
