package server

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"arena-server/internal/game"
)

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 4096
	sendBufSize        = 256
	maxMessagesPerSec  = 50
	maxNameLen         = 16
	maxSessionNameLen  = 30
	defaultNickname    = "Player"
	defaultSessionName = "Arena"
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	playerID   string
	sessionID  string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
	log        *logrus.Entry
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
		log:        hub.log.WithField("remote", remoteAddr),
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
				c.log.WithError(err).Warn("ws error")
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			c.log.Warn("rate limit exceeded, disconnecting")
			break
		}

		if msgType != websocket.TextMessage {
			continue
		}
		c.handleMessage(message)
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
		c.log.WithError(err).Error("marshal error")
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }() // send may be closed by the hub
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
		c.log.WithError(err).Debug("unmarshal error")
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgStart:
		c.handleStart()
	case MsgMove:
		c.handleMove(env.D)
	case MsgPause:
		c.handlePause()
	case MsgBonusExpired:
		c.handleBonusExpired(env.D)
	case MsgLeave:
		c.handleLeave()
	default:
		c.sendError("unknown message type")
	}
}

// session returns the session the client plays in, if any.
func (c *Client) session() *Session {
	if c.sessionID == "" || c.playerID == "" {
		return nil
	}
	return c.hub.sessions.GetSession(c.sessionID)
}

func trimName(name, fallback string, max int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if r := []rune(name); len(r) > max {
		name = string(r[:max])
	}
	return name
}

func (c *Client) handleList() {
	c.SendJSON(Envelope{T: MsgSessions, Data: c.hub.sessions.ListSessions()})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("invalid create message")
		return
	}
	sname := trimName(msg.SessionName, defaultSessionName, maxSessionNameLen)

	settings := c.hub.sessions.Defaults()
	if len(msg.Settings) > 0 {
		if err := json.Unmarshal(msg.Settings, &settings); err != nil {
			c.sendError("invalid settings")
			return
		}
	}

	sess := c.hub.sessions.CreateSession(sname, settings)
	if sess == nil {
		c.sendError("too many active sessions")
		return
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: CreatedMsg{SID: sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("invalid join message")
		return
	}
	if c.sessionID != "" {
		c.sendError("already in a session")
		return
	}
	name := trimName(msg.Name, defaultNickname, maxNameLen)

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}

	player, err := sess.Game.AddPlayer(name, time.Now())
	switch {
	case errors.Is(err, game.ErrGameFull):
		c.sendError("session full")
		return
	case err != nil:
		c.sendError(err.Error())
		return
	}
	c.playerID = player.ID
	c.sessionID = sess.ID
	owner := sess.claimOwner(player.ID)

	c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{SID: sess.ID, Owner: owner}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{ID: player.ID, Color: player.Color}})
	// Registered last so that state frames never precede the welcome.
	sess.Game.SetClient(player.ID, c)
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:     msg.SID,
		Exists:  true,
		Name:    sess.Name,
		Players: sess.Game.PlayerCount(),
		Started: sess.Game.Started(),
	}})
}

func (c *Client) handleStart() {
	sess := c.session()
	if sess == nil {
		c.sendError("not in a session")
		return
	}
	if !sess.CanStart(c.playerID) {
		c.sendError("only the session owner can start")
		return
	}
	if err := sess.Game.Start(time.Now()); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Client) handleMove(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	var msg MoveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess.Game.QueueMove(c.playerID, msg.DX, msg.DY, msg.Boost)
}

func (c *Client) handlePause() {
	sess := c.session()
	if sess == nil {
		return
	}
	if err := sess.Game.QueuePause(c.playerID); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Client) handleBonusExpired(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	var msg BonusExpiredMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	for _, t := range game.BonusTypes {
		if t == msg.Type {
			sess.Game.QueueBonusExpired(c.playerID, t)
			return
		}
	}
}

func (c *Client) handleLeave() {
	if c.sessionID == "" {
		return
	}
	c.hub.sessions.RemovePlayer(c.sessionID, c.playerID)
	c.sessionID = ""
	c.playerID = ""
}
