// Package websocket pushes order status changes to browsers waiting on a payment page.
package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"go-digistore/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are restricted by the CORS layer; the socket carries no credentials
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatusMessage is pushed whenever an order's payment status changes
type StatusMessage struct {
	OrderID       string               `json:"orderId"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
}

// Client is one browser connection subscribed to one order
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	orderID string
}

// Hub tracks subscribers per order and fans out status messages
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan StatusMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu    sync.RWMutex
	count int
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan StatusMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Close is called
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for _, subs := range h.clients {
				for c := range subs {
					close(c.send)
				}
			}
			h.clients = map[string]map[*Client]bool{}
			h.setCount(0)
			return

		case c := <-h.register:
			subs := h.clients[c.orderID]
			if subs == nil {
				subs = make(map[*Client]bool)
				h.clients[c.orderID] = subs
			}
			subs[c] = true
			h.addCount(1)

		case c := <-h.unregister:
			if subs, ok := h.clients[c.orderID]; ok && subs[c] {
				delete(subs, c)
				close(c.send)
				h.addCount(-1)
				if len(subs) == 0 {
					delete(h.clients, c.orderID)
				}
			}

		case msg := <-h.broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			for c := range h.clients[msg.OrderID] {
				select {
				case c.send <- payload:
				default:
					// Slow consumer
					delete(h.clients[msg.OrderID], c)
					close(c.send)
					h.addCount(-1)
				}
			}
		}
	}
}

// Close stops Run and disconnects every client
func (h *Hub) Close() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// BroadcastStatus queues a status change for subscribers of orderID
func (h *Hub) BroadcastStatus(orderID string, status models.PaymentStatus) {
	select {
	case h.broadcast <- StatusMessage{OrderID: orderID, PaymentStatus: status}:
	case <-h.done:
	default:
		log.Printf("[WS] Broadcast queue full, dropping %s update for %s", status, orderID)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) addCount(d int) {
	h.mu.Lock()
	h.count += d
	h.mu.Unlock()
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// Serve upgrades the request and subscribes it to orderID.
// initial, when set, is sent right after the upgrade.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, orderID string, initial *StatusMessage) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, 16), orderID: orderID}
	if initial != nil {
		if payload, err := json.Marshal(initial); err == nil {
			c.send <- payload
		}
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only watches for close and pong frames
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Read error for order %s: %v", c.orderID, err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
