package network

import (
	"encoding/json"

	"github.com/artsabotage/gameserver/models"
)

// Inbound event names.
const (
	EventRoomJoin       = "room:join"
	EventRoomLeave      = "room:leave"
	EventRoomMessage    = "room:message"
	EventStrokeStart    = "stroke:start"
	EventStrokeContinue = "stroke:continue"
	EventStrokeEnd      = "stroke:end"
	EventCanvasClear    = "canvas:clear"
	EventGameCreate     = "game:create"
	EventGameStart      = "game:start"
)

// Outbound event names.
const (
	EventRoomJoined       = "room:joined"
	EventRoomPlayerJoined = "room:playerJoined"
	EventRoomPlayerLeft   = "room:playerLeft"
	EventRoomError        = "room:error"
	EventGameCreated      = "game:created"
	EventGameStarted      = "game:started"
	EventGamePhaseChange  = "game:phaseChange"
	EventGameEnded        = "game:ended"
	EventGameError        = "game:error"
)

// Event is the wire envelope: a name tag plus a raw payload decoded into
// the matching variant at the gateway boundary.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// --- inbound payloads ---

type JoinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type LeaveRoomPayload struct {
	RoomCode string `json:"roomCode"`
}

type RoomMessagePayload struct {
	RoomCode string `json:"roomCode"`
	Message  string `json:"message"`
}

type StrokeStartPayload struct {
	RoomCode string       `json:"roomCode"`
	StrokeID string       `json:"strokeId"`
	Point    models.Point `json:"point"`
	Color    string       `json:"color"`
	Width    float64      `json:"width"`
}

type StrokeContinuePayload struct {
	RoomCode string       `json:"roomCode"`
	StrokeID string       `json:"strokeId"`
	Point    models.Point `json:"point"`
}

type StrokeEndPayload struct {
	RoomCode string `json:"roomCode"`
	StrokeID string `json:"strokeId"`
}

type CanvasClearPayload struct {
	RoomCode string `json:"roomCode"`
}

type GameCreatePayload struct {
	RoomCode string             `json:"roomCode"`
	Options  models.GameOptions `json:"options"`
}

type GameStartPayload struct {
	RoomCode string `json:"roomCode"`
}

// --- outbound payloads ---

type RoomJoinedPayload struct {
	Code     string           `json:"code"`
	Players  []*models.Player `json:"players"`
	PlayerID string           `json:"playerId"`
}

type PlayerJoinedPayload struct {
	Player  *models.Player   `json:"player"`
	Players []*models.Player `json:"players"`
}

type PlayerLeftPayload struct {
	PlayerID string           `json:"playerId"`
	Players  []*models.Player `json:"players"`
}

type RoomMessageBroadcast struct {
	PlayerID  string `json:"playerId"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type StrokeStartBroadcast struct {
	StrokeID  string       `json:"strokeId"`
	PlayerID  string       `json:"playerId"`
	Point     models.Point `json:"point"`
	Color     string       `json:"color"`
	Width     float64      `json:"width"`
	Timestamp int64        `json:"timestamp"`
}

type StrokeContinueBroadcast struct {
	StrokeID  string       `json:"strokeId"`
	PlayerID  string       `json:"playerId"`
	Point     models.Point `json:"point"`
	Timestamp int64        `json:"timestamp"`
}

type StrokeEndBroadcast struct {
	StrokeID  string `json:"strokeId"`
	PlayerID  string `json:"playerId"`
	Timestamp int64  `json:"timestamp"`
}

type CanvasClearBroadcast struct {
	PlayerID  string `json:"playerId"`
	Timestamp int64  `json:"timestamp"`
}

type GameCreatedPayload struct {
	Game models.Game `json:"game"`
}

type GameStartedPayload struct {
	Game    models.Game      `json:"game"`
	Players []*models.Player `json:"players"`
}

type PhaseChangePayload struct {
	Phase models.GamePhase `json:"phase"`
	Round int              `json:"round"`
}

type GameEndedPayload struct {
	Game models.Game `json:"game"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewEvent marshals a payload into an envelope. Payloads here are plain
// structs, so marshalling cannot realistically fail.
func NewEvent(name string, payload interface{}) *Event {
	data, err := json.Marshal(payload)
	if err != nil {
		return &Event{Name: name}
	}
	return &Event{Name: name, Data: data}
}
