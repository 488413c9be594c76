package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only answer pings; anything larger is a protocol violation.
	maxMessageSize = 512

	defaultSendBuffer = 64
)

// connection is a presence.Handle backed by a WebSocket. The write pump is
// the only writer of data frames; Close may be called from any goroutine.
type connection struct {
	userID string
	ws     *websocket.Conn
	logger logging.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newConnection(userID string, ws *websocket.Conn, buffer int, logger logging.Logger) *connection {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	return &connection{
		userID: userID,
		ws:     ws,
		logger: logger,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

func (c *connection) UserID() string { return c.userID }

// Send queues frame without blocking. A closed connection or a full buffer
// yields common.ErrDeliveryFailed.
func (c *connection) Send(frame []byte) error {
	select {
	case <-c.done:
		return fmt.Errorf("%w: connection closed", common.ErrDeliveryFailed)
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return fmt.Errorf("%w: connection closed", common.ErrDeliveryFailed)
	default:
		return fmt.Errorf("%w: send buffer full", common.ErrDeliveryFailed)
	}
}

// Close stops the write pump and closes the socket, which also unblocks the
// read loop. Only the first call has an effect.
func (c *connection) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

func (c *connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug(ctx, "write failed", "user_id", c.userID, "error", err)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump blocks until the peer goes away. Inbound data frames are ignored.
func (c *connection) readPump(ctx context.Context) {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { c.ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn(ctx, "unexpected close", "user_id", c.userID, "error", err)
			}
			return
		}
	}
}
