package main

import (
	"encoding/json"

	"cellarena/game"
)

// Client -> Server message types
const (
	MsgJoin    = "join"
	MsgInput   = "input"
	MsgBonus   = "bonus" // claim the timed coin bonus; the reply uses the same type
	MsgRespawn = "respawn"
)

// Server -> Client message types
const (
	MsgState       = "state" // binary msgpack frames only
	MsgWelcome     = "welcome"
	MsgLeaderboard = "leaderboard"
	MsgGameOver    = "game_over"
	MsgError       = "error"
)

// binaryInputTag marks the compact 6-byte input frame
const binaryInputTag = 0x01

// Input flag bits of the binary input frame
const (
	flagSplit = 1 << iota
	flagEject
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg is sent when a player wants to enter the arena
type JoinMsg struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Skin  string `json:"skin,omitempty"`
}

// InputMsg carries the pointer in world coordinates
type InputMsg struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Split bool    `json:"split,omitempty"`
	Eject bool    `json:"eject,omitempty"`
}

// WorldInfo describes the arena bounds
type WorldInfo struct {
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

type WelcomeMsg struct {
	ID    string    `json:"id"`
	World WorldInfo `json:"world"`
}

type BonusMsg struct {
	Granted bool `json:"granted"`
	Coins   int  `json:"coins"`
}

type LeaderboardMsg struct {
	Entries []game.LeaderboardEntry `json:"entries"`
}

// GameOverMsg is sent once a player has lost its last cell
type GameOverMsg struct {
	Score    int     `json:"score"`
	KilledBy string  `json:"by,omitempty"`
	Level    int     `json:"level"`
	XP       float64 `json:"xp"`
	Coins    int     `json:"coins"`
}

type ErrorMsg struct {
	Msg string `json:"msg"`
}

// StateMsg is the per-client viewport snapshot sent as a binary msgpack frame
type StateMsg struct {
	Tick     uint64           `msgpack:"tick"`
	Entities []game.Snapshot  `msgpack:"e"`
	Stats    game.PlayerStats `msgpack:"p"`
}
