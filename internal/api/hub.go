package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/stakeflow/stakeflow-indexer/internal/services"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = wsPongTimeout * 9 / 10

	messageTypeDashboard = "dashboard"
)

type dashboardMessage struct {
	Type string              `json:"type"`
	Data *services.Dashboard `json:"data"`
}

type wsClient struct {
	conn   *websocket.Conn
	sendMu sync.Mutex
}

func (c *wsClient) send(messageType int, data []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// Hub pushes every refreshed dashboard to the connected websocket clients.
type Hub struct {
	upgrader websocket.Upgrader
	current  func() *services.Dashboard

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewHub builds a hub; current returns the dashboard sent to a client right
// after it connects, nil when there is none yet.
func NewHub(current func() *services.Dashboard) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the dashboard is served from another origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		current: current,
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish sends the dashboard to every client. Clients that can't be written
// to are dropped.
func (h *Hub) Publish(dashboard *services.Dashboard) {
	payload, err := json.Marshal(dashboardMessage{Type: messageTypeDashboard, Data: dashboard})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode dashboard message")
		return
	}

	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(websocket.TextMessage, payload); err != nil {
			log.Debug().Err(err).Msg("dropping websocket client")
			h.remove(c)
		}
	}

	log.Debug().Int("clients", len(clients)).Msg("dashboard published")
}

// ServeWS upgrades the request and keeps the connection registered until the
// client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &wsClient{conn: conn}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	if dashboard := h.current(); dashboard != nil {
		payload, err := json.Marshal(dashboardMessage{Type: messageTypeDashboard, Data: dashboard})
		if err == nil {
			err = c.send(websocket.TextMessage, payload)
		}
		if err != nil {
			h.remove(c)
			return
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.keepAlive(ctx, c)

	h.readUntilClosed(c)
	h.remove(c)
}

// readUntilClosed discards client messages; reading is what processes the
// close and pong control frames.
func (h *Hub) readUntilClosed(c *wsClient) {
	//nolint:errcheck
	c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) keepAlive(ctx context.Context, c *wsClient) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.send(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		c.conn.Close()
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*wsClient]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.conn.Close()
	}
}
