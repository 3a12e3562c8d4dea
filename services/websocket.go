package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/database"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send pings, so reads stay small
	maxMessageSize = 4096

	sendBuffer      = 16
	broadcastBuffer = 256
)

// Message types sent to live-update clients.
const (
	MessageGroupUpdated = "group_updated"
	MessagePing         = "ping"
	MessagePong         = "pong"
)

// Client is one websocket subscribed to the updates of a single group.
type Client struct {
	ID      string
	GroupID database.ID
	UserID  database.ID
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, groupID, userID database.ID) *Client {
	return &Client{
		ID:      uuid.NewString(),
		GroupID: groupID,
		UserID:  userID,
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
	}
}

// WebSocketMessage is the envelope of every live-update frame.
type WebSocketMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ReadPump reads from the connection until it fails. The only message a
// client may send is a ping, answered with a pong to that client alone.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn().
					Err(err).
					Str("client_id", c.ID).
					Msg("websocket read failed")
			}
			break
		}

		var msg WebSocketMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.Hub.logger.Debug().
				Err(err).
				Str("client_id", c.ID).
				Msg("ignoring malformed websocket message")
			continue
		}
		if msg.Type != MessagePing {
			continue
		}

		pong, err := json.Marshal(WebSocketMessage{
			Type: MessagePong,
			Data: map[string]string{"timestamp": time.Now().Format(time.RFC3339)},
		})
		if err != nil {
			continue
		}
		c.Hub.reply(c, pong)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type outbound struct {
	groupID database.ID
	client  *Client
	payload []byte
}

// Hub fans group updates out to the clients watching that group. It
// implements Notifier. Publishing never blocks the caller; updates are
// dropped with a warning when the hub falls behind.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	direct     chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, broadcastBuffer),
		direct:     make(chan outbound, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Register adds a client to the hub. It is a no-op once the hub stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// GroupUpdated queues the group for every client subscribed to it.
func (h *Hub) GroupUpdated(group database.Group) {
	payload, err := json.Marshal(WebSocketMessage{Type: MessageGroupUpdated, Data: group})
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("group_id", int64(group.ID)).
			Msg("failed to marshal group update")
		return
	}

	select {
	case h.broadcast <- outbound{groupID: group.ID, payload: payload}:
	default:
		h.logger.Warn().
			Int64("group_id", int64(group.ID)).
			Msg("hub is backed up, dropping group update")
	}
}

func (h *Hub) reply(c *Client, payload []byte) {
	select {
	case h.direct <- outbound{client: c, payload: payload}:
	default:
	}
}

// Run serves the hub until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			close(client.Send)
			delete(h.clients, client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug().
				Str("client_id", client.ID).
				Int64("group_id", int64(client.GroupID)).
				Msg("client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Debug().
					Str("client_id", client.ID).
					Msg("client disconnected")
			}

		case msg := <-h.direct:
			if h.clients[msg.client] {
				h.deliver(msg.client, msg.payload)
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.GroupID != msg.groupID {
					continue
				}
				h.deliver(client, msg.payload)
			}
		}
	}
}

func (h *Hub) deliver(client *Client, payload []byte) {
	select {
	case client.Send <- payload:
	default:
		// Client's send buffer is full, assume disconnected
		h.logger.Warn().
			Str("client_id", client.ID).
			Msg("client send buffer full, removing client")
		close(client.Send)
		delete(h.clients, client)
	}
}
