package websocket

import (
	"context"
	"errors"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one dashboard connection. Dashboards only listen; anything they
// send is read and dropped so control frames keep flowing.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// Run registers the client and greets it with the current database health,
// then pumps until the connection closes or ctx ends.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	if data, err := c.hub.healthFrame(); err == nil {
		select {
		case c.send <- data:
		default:
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx, cancel)
	err := c.readPump(ctx)
	if ws.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
		c.hub.logger.Debug("dashboard disconnected", "error", err)
	}
}

func (c *Client) readPump(ctx context.Context) error {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return err
		}
	}
}

// writePump delivers queued frames and pings. A failed write or ping
// cancels the read side too.
func (c *Client) writePump(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.write(ctx, msg); err != nil {
				return
			}
		case <-ticker.C:
			pctx, pcancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			pcancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}
