package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 60
	messageBurst      = 20
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	playerID   string
	remoteAddr string
	limiter    *rate.Limiter
	lastJoin   *JoinMsg // replayed on respawn after game over
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
		limiter:    rate.NewLimiter(rate.Limit(maxMessagesPerSec), messageBurst),
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		if !c.limiter.Allow() {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		// Binary input: 6 bytes [0x01, x_hi, x_lo, y_hi, y_lo, flags]
		if msgType == websocket.BinaryMessage && len(message) == 6 && message[0] == binaryInputTag {
			c.handleBinaryInput(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
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
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
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

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgBonus:
		c.handleBonus()
	case MsgRespawn:
		c.handleRespawn()
	default:
		c.sendError("unknown message type")
	}
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("bad join")
		return
	}
	c.join(msg)
}

func (c *Client) join(msg JoinMsg) {
	arena := c.hub.arena
	if c.playerID != "" && arena.HasPlayer(c.playerID) {
		c.sendError("already joined")
		return
	}
	id, err := arena.Join(c, msg)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.playerID = id
	c.lastJoin = &msg
	w := arena.World()
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
		ID:    id,
		World: WorldInfo{Width: w.Width(), Height: w.Height()},
	}})
}

// handleBinaryInput decodes the compact binary input frame
func (c *Client) handleBinaryInput(msg []byte) {
	if c.playerID == "" {
		return
	}
	flags := msg[5]
	c.hub.arena.HandleInput(c.playerID, InputMsg{
		X:     float64(uint16(msg[1])<<8 | uint16(msg[2])),
		Y:     float64(uint16(msg[3])<<8 | uint16(msg[4])),
		Split: flags&flagSplit != 0,
		Eject: flags&flagEject != 0,
	})
}

func (c *Client) handleInput(data json.RawMessage) {
	if c.playerID == "" {
		return
	}
	var input InputMsg
	if err := json.Unmarshal(data, &input); err != nil {
		return
	}
	c.hub.arena.HandleInput(c.playerID, input)
}

func (c *Client) handleBonus() {
	if c.playerID == "" {
		c.sendError("not joined")
		return
	}
	c.SendJSON(Envelope{T: MsgBonus, Data: c.hub.arena.ClaimBonus(c.playerID)})
}

// handleRespawn re-enters the arena after game over with the last join settings
func (c *Client) handleRespawn() {
	if c.lastJoin == nil {
		c.sendError("not joined")
		return
	}
	if c.hub.arena.HasPlayer(c.playerID) {
		return
	}
	c.join(*c.lastJoin)
}
