package server

import (
	"encoding/json"

	"arena-server/internal/game"
)

// Message types: client -> server
const (
	MsgList         = "list"
	MsgCreate       = "create"
	MsgJoin         = "join"
	MsgCheck        = "check"
	MsgStart        = "start"
	MsgMove         = "move"
	MsgPause        = "pause"
	MsgBonusExpired = "bonusExpired"
	MsgLeave        = "leave"
)

// Message types: server -> client. Game events use their own event type as t.
const (
	MsgSessions = "sessions"
	MsgCreated  = "created"
	MsgJoined   = "joined"
	MsgWelcome  = "welcome"
	MsgChecked  = "checked"
	MsgState    = "state" // binary msgpack frame, never sent as JSON
	MsgError    = "error"
)

// Envelope is the wire format for all messages
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for single-pass decoding of incoming messages
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// CreateMsg asks for a new session. Settings, when present, overrides the
// server defaults key by key.
type CreateMsg struct {
	Name        string          `json:"name"`
	SessionName string          `json:"sname"`
	Settings    json.RawMessage `json:"settings,omitempty"`
}

// JoinMsg is sent by a client to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

// CheckMsg asks whether a session exists before joining via URL
type CheckMsg struct {
	SID string `json:"sid"`
}

// MoveMsg carries one normalized direction vector.
type MoveMsg struct {
	DX    float64 `json:"dx"`
	DY    float64 `json:"dy"`
	Boost bool    `json:"boost"`
}

// BonusExpiredMsg reports that the client-side timer of a bonus ran out.
type BonusExpiredMsg struct {
	Type game.BonusType `json:"type"`
}

// CreatedMsg answers a create.
type CreatedMsg struct {
	SID string `json:"sid"`
}

// JoinedMsg answers a join.
type JoinedMsg struct {
	SID   string `json:"sid"`
	Owner bool   `json:"owner"`
}

// WelcomeMsg tells a player who they are.
type WelcomeMsg struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

// CheckedMsg answers a check.
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
	Started bool   `json:"started,omitempty"`
}

// SessionInfo is one line of the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	Started bool   `json:"started"`
}

// ErrorMsg is sent to report errors
type ErrorMsg struct {
	Msg string `json:"msg"`
}
