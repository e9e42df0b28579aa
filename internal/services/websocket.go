package services

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/realtime"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients send no Origin
	},
}

// WebSocketMessage is the frame sent on /api/ws.
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client is one plain-websocket connection streaming a user's bus events.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
	logger *zap.Logger
}

var streamedKinds = []realtime.Kind{
	realtime.KindLocation,
	realtime.KindNotification,
	realtime.KindMessage,
	realtime.KindGroupMessage,
}

// HandleWebSocket upgrades the request and forwards every bus event
// addressed to userID until the peer disconnects.
func HandleWebSocket(bus realtime.Subscriber, w http.ResponseWriter, r *http.Request, userID string, logger *zap.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade error", zap.Error(err))
		return
	}

	client := &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		logger: logger.With(zap.String("user_id", userID)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	for _, kind := range streamedKinds {
		go client.forward(ctx, kind, bus.Subscribe(ctx, realtime.Key(kind, userID)))
	}

	client.logger.Info("websocket client connected")
	go client.writePump(ctx)
	go func() {
		client.readPump()
		cancel()
		client.logger.Info("websocket client disconnected")
	}()
}

// forward encodes events of one kind onto the client's send queue.
func (c *Client) forward(ctx context.Context, kind realtime.Kind, events <-chan interface{}) {
	for event := range events {
		data, err := json.Marshal(WebSocketMessage{Type: string(kind), Data: event})
		if err != nil {
			c.logger.Error("encode websocket frame", zap.Error(err))
			continue
		}
		select {
		case c.Send <- data:
		case <-ctx.Done():
			return
		default:
			c.logger.Warn("websocket send queue full, dropping frame", zap.String("type", string(kind)))
		}
	}
}

// readPump only watches for close and pong frames; clients never send
// commands on this socket.
func (c *Client) readPump() {
	defer c.Conn.Close()

	c.Conn.SetReadLimit(4096)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.Conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		case message := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("websocket write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
