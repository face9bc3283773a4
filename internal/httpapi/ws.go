package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"predictperp/internal/tradelog"
)

// Hub fans out executed trades to connected /ws/trades subscribers. It
// implements tradelog.Sink directly, the same port internal/storage.Store
// mirrors onto, so the trade log's single SetSink hook is shared via the
// fanout Sink cmd/exchange wires in main — Hub itself only ever broadcasts.
// Grounded on the example pack's market-making dashboard hub
// (0xtitan6-polymarket-mm/internal/api/stream.go): register/unregister/
// broadcast channels drained by one Run loop, and a writePump/readPump
// goroutine pair per client.
type Hub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	mu         sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 256),
	}
}

// Run drains the hub's channels until ctx is cancelled. Call it in its own
// goroutine once, before accepting any /ws/trades connections.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Mirror implements tradelog.Sink: every appended trade is broadcast to
// all connected /ws/trades subscribers as JSON.
func (h *Hub) Mirror(t tradelog.Trade) {
	data, err := json.Marshal(toTradeView(t))
	if err != nil {
		log.Error().Err(err).Msg("httpapi: marshal trade for broadcast failed")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Warn().Msg("httpapi: trade broadcast channel full, dropping")
	}
}

var _ tradelog.Sink = (*Hub)(nil)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains the connection to notice client-initiated closes;
// the trade tape is a read-only broadcast, so any inbound message is
// discarded.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// serveTrades handles GET /ws/trades, upgrading the connection and
// registering a client with the hub.
func (h *handlers) serveTrades(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("httpapi: websocket upgrade failed")
			return
		}

		client := &wsClient{hub: hub, conn: conn, send: make(chan []byte, 256)}
		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}
