package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 2048

	sendBufferSize = 256
)

const StatusOnline = "online"

// Client is one websocket connection. The room field is guarded by the
// hub's mutex; everything else is set once at construction.
type Client struct {
	ID       string
	UserID   uint
	Username string
	Avatar   string
	Status   string

	ConnectedAt time.Time

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	room uint
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uint, username, avatar string) *Client {
	return &Client{
		ID:          uuid.NewString(),
		UserID:      userID,
		Username:    username,
		Avatar:      avatar,
		Status:      StatusOnline,
		ConnectedAt: time.Now(),
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
	}
}

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

// Room returns the question room the client is currently in, 0 if none.
func (c *Client) Room() uint {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	return c.room
}

func (c *Client) memberInfo() MemberInfo {
	return MemberInfo{
		UserID:   c.UserID,
		Username: c.Username,
		Avatar:   c.Avatar,
		Status:   c.Status,
	}
}

// SendEvent queues an event for this client, dropping it if the buffer
// is full.
func (c *Client) SendEvent(event Event) {
	payload, err := marshalEvent(event)
	if err != nil {
		return
	}
	c.enqueue(payload)
}

// enqueue queues a payload for the write pump. The send channel is
// never closed; a broadcaster may still hold this client after the hub
// dropped it, so a send must always be legal. Messages for a gone or
// saturated client are dropped.
func (c *Client) enqueue(payload []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- payload:
	default:
		logrus.WithFields(logrus.Fields{
			"conn_id": c.ID,
			"user_id": c.UserID,
		}).Warn("ws: send buffer full, dropping message")
	}
}

// readPump relays incoming frames to the hub. When the connection dies,
// for any reason, the deferred unregister runs the same cleanup as an
// explicit disconnect.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithFields(logrus.Fields{
					"conn_id": c.ID,
					"user_id": c.UserID,
				}).WithError(err).Warn("ws: unexpected close")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		c.hub.HandleMessage(c, message)
	}
}

// writePump drains the send channel to the connection and keeps it
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func marshalEvent(event Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("ws: marshal event")
		return nil, err
	}
	return payload, nil
}
