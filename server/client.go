package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teranos/tzmeta/explorer"
	"github.com/teranos/tzmeta/logger"
)

// WebSocket timeout constants following Gorilla best practices
// See: https://github.com/gorilla/websocket/blob/master/examples/chat/client.go
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Clients only send control frames; anything large is a mistake
	maxMessageSize = 4096

	sendBuffer = 256
)

// Client is one websocket connection following one session
type Client struct {
	server     *Server
	conn       *websocket.Conn
	session    *explorer.Session
	sendMsg    chan interface{}
	id         string
	closeOnce  sync.Once
	stopFollow func()
}

// BroadcastJobUpdate queues a job snapshot for this client. It runs under a
// slot lock, so it never blocks: a full queue drops the update.
func (c *Client) BroadcastJobUpdate(slot string, job interface{}) {
	msg := JobUpdateMessage{
		Type:      "job_update",
		Slot:      slot,
		Job:       job,
		Timestamp: time.Now().Unix(),
	}
	select {
	case c.sendMsg <- msg:
	default:
		c.server.broadcastDrops.Add(1)
		c.server.logger.Debugw("Client send channel full, dropping job update",
			logger.FieldClientID, c.id,
			logger.FieldSlot, slot,
		)
	}
}

// readPump keeps the connection alive and detects disconnects
func (c *Client) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c:
		case <-c.server.ctx.Done():
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
			c.handleReadError(err)
			return
		}
	}
}

// handleReadError logs unexpected WebSocket read errors.
// Expected closure codes (going away, abnormal, no status) are silently ignored.
func (c *Client) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
		websocket.CloseNormalClosure,
	) {
		c.server.logger.Warnw("WebSocket read error",
			logger.FieldClientID, c.id,
			logger.FieldError, err,
		)
	}
}

// writePump is the only goroutine writing to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.server.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return

		case msg, ok := <-c.sendMsg:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.server.logger.Debugw("Message write error",
					logger.FieldClientID, c.id,
					logger.FieldError, err,
				)
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

// close closes the send channel once
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.sendMsg)
	})
}
