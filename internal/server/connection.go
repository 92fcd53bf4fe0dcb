package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one WebSocket client. It carries the connection context
// the protocol relies on: a session id, the remote IP for rate limiting, and
// the stable player/room association set by create_room or join_room.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	sessionID string
	ip        string
	playerID  string
	roomCode  string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	service   *RoomService
}

// NewConnection creates a connection wrapper around an upgraded socket.
func NewConnection(conn *websocket.Conn, ip string, logger *log.Logger, service *RoomService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	sessionID := uuid.NewString()

	return &Connection{
		conn:      conn,
		send:      make(chan *Message, 256),
		sessionID: sessionID,
		ip:        ip,
		logger:    logger.WithPrefix("conn").With("session", sessionID),
		ctx:       ctx,
		cancel:    cancel,
		service:   service,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SessionID returns the per-connection session identifier.
func (c *Connection) SessionID() string {
	return c.sessionID
}

// IP returns the remote address the connection arrived from.
func (c *Connection) IP() string {
	return c.ip
}

// Send queues a message for delivery to the client.
func (c *Connection) Send(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed during shutdown; nothing to deliver to.
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayerID associates this connection with a stable player identity.
func (c *Connection) SetPlayerID(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
}

// PlayerID returns the associated player ID, if any.
func (c *Connection) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// SetRoomCode associates this connection with a room.
func (c *Connection) SetRoomCode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
}

// RoomCode returns the associated room code, if any.
func (c *Connection) RoomCode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() {
		c.service.HandleDisconnect(c)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			// Unparseable payloads get an error back and the connection
			// stays open; only transport errors end the pump.
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				c.sendError("invalid_message", "Invalid JSON")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.logger.Debug("Received message", "type", msg.Type, "player", c.PlayerID())
		c.service.HandleMessage(c, &msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	_ = c.Send(errorMsg)
}
