package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"glimo/pkg/logger"
	"go.uber.org/zap"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one websocket connection of an authenticated user.
type Client struct {
	id     string
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
	subs   *xsync.MapOf[string, *Subscription]
	seen   *recentIDs

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewClient(userID uuid.UUID, conn *websocket.Conn) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		subs:   xsync.NewMapOf[*Subscription](),
		seen:   newRecentIDs(dedupeWindow),
	}
}

func (c *Client) UserID() uuid.UUID {
	return c.userID
}

// enqueue hands a frame to the writer without blocking. It reports false
// when the buffer is full.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return true
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

func (c *Client) sendFrame(frame serverFrame) {
	b, err := json.Marshal(frame)
	if err != nil {
		return
	}
	c.enqueue(b)
}

// Serve runs the client until the connection closes or ctx is done. All
// subscriptions are dropped on return.
func (c *Client) Serve(ctx context.Context, hub *Hub) {
	if err := hub.Register(c); err != nil {
		logger.Logger().Error("failed to register realtime client", zap.Error(err))
		c.conn.Close()
		return
	}

	done := make(chan struct{})
	go func() {
		c.writeLoop()
		close(done)
	}()

	c.readLoop(ctx, hub)
	hub.Unregister(c)
	<-done
}

func (c *Client) readLoop(ctx context.Context, hub *Hub) {
	log := logger.Logger()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		<-ctx.Done()
		_ = c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Info("realtime connection closed", zap.Error(err), zap.String("user_id", c.userID.String()))
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			c.sendFrame(serverFrame{Type: frameError, Message: "malformed frame"})
			continue
		}

		c.handleFrame(ctx, hub, &frame)
	}
}

func (c *Client) handleFrame(ctx context.Context, hub *Hub, frame *clientFrame) {
	switch frame.Type {
	case frameSubscribe:
		if frame.ID == "" {
			c.sendFrame(serverFrame{Type: frameError, Message: "subscription id is required"})
			return
		}

		filter, err := ParseFilter(frame.Filter)
		if err != nil {
			c.sendFrame(serverFrame{Type: frameError, Subscription: frame.ID, Message: err.Error()})
			return
		}

		err = hub.Subscribe(ctx, c, &Subscription{
			ID:     frame.ID,
			Table:  frame.Table,
			Event:  frame.Event,
			Filter: filter,
		})
		if err != nil {
			message := "subscription refused"
			if errors.Is(err, ErrUnknownTable) || errors.Is(err, ErrDuplicateSubID) {
				message = err.Error()
			}
			logger.Logger().Info("realtime subscription refused",
				zap.Error(err),
				zap.String("user_id", c.userID.String()),
				zap.String("table", frame.Table),
				zap.String("filter", frame.Filter))
			c.sendFrame(serverFrame{Type: frameError, Subscription: frame.ID, Message: message})
			return
		}

		c.sendFrame(serverFrame{Type: frameSubscribed, Subscription: frame.ID})

	case frameUnsubscribe:
		hub.Unsubscribe(c, frame.ID)

	default:
		c.sendFrame(serverFrame{Type: frameError, Message: "unknown frame type"})
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
