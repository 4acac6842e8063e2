package bybit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSClient handles a public WebSocket connection to Bybit and message
// routing. Topics are fixed at construction and resubscribed on reconnect.
type WSClient struct {
	url          string
	topics       []string
	pingInterval time.Duration
	handler      func([]byte)
	logger       *zap.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn
}

// NewWSClient creates a WebSocket client for the given stream URL and
// subscription topics (e.g., "publicTrade.BTCUSDT").
func NewWSClient(url string, topics []string, pingInterval time.Duration, logger *zap.Logger) *WSClient {
	return &WSClient{
		url:          url,
		topics:       topics,
		pingInterval: pingInterval,
		logger:       logger,
	}
}

// SetMessageHandler sets the function to handle incoming messages.
func (c *WSClient) SetMessageHandler(h func([]byte)) {
	c.handler = h
}

// Connect establishes the WebSocket connection and subscribes to the
// configured topics. It does not start the listener.
func (c *WSClient) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	c.conn = conn
	c.logger.Info("WebSocket connected", zap.String("url", c.url))

	if err := c.subscribe(); err != nil {
		return err
	}
	return nil
}

func (c *WSClient) subscribe() error {
	subMsg := map[string]interface{}{
		"op":   "subscribe",
		"args": c.topics,
	}
	if err := c.writeJSON(subMsg); err != nil {
		return fmt.Errorf("websocket subscribe failed: %w", err)
	}
	return nil
}

// writeJSON serializes writes; the ping loop and subscriptions share the
// connection.
func (c *WSClient) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Run reads messages until ctx is cancelled, reconnecting on read errors and
// sending periodic pings to keep the connection alive.
func (c *WSClient) Run(ctx context.Context) {
	go c.pingLoop(ctx)

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("WebSocket read error", zap.Error(err))

			// Retry reconnecting until ctx ends
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(3 * time.Second):
				}
				if err := c.reconnectAndResubscribe(); err != nil {
					c.logger.Warn("Retrying reconnect...", zap.Error(err))
					continue
				}
				c.logger.Info("Reconnected successfully")
				break
			}
			continue // Start listening again with the new connection
		}

		if c.handler != nil {
			c.handler(msg)
		}
	}
}

// Close terminates the connection; a blocked Run read returns after this.
func (c *WSClient) Close() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *WSClient) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.writeJSON(map[string]string{"op": "ping"}); err != nil {
				c.logger.Debug("WebSocket ping failed", zap.Error(err))
			}
		}
	}
}

func (c *WSClient) reconnectAndResubscribe() error {
	newConn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	// Close the old connection if it exists
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = newConn
	c.writeMu.Unlock()

	return c.subscribe()
}
