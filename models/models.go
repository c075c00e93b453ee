package models

import (
	"time"
)

// GamePhase is the stage a game is currently in. LOBBY and RESULTS are
// reserved for the clients; the server never enters them itself.
type GamePhase string

const (
	PhaseLobby       GamePhase = "LOBBY"
	PhasePreparation GamePhase = "PREPARATION"
	PhaseDrawing     GamePhase = "DRAWING"
	PhaseVoting      GamePhase = "VOTING"
	PhaseResults     GamePhase = "RESULTS"
	PhaseGameOver    GamePhase = "GAME_OVER"
)

type PlayerRole string

const (
	RoleHonest   PlayerRole = "HONEST"
	RoleSaboteur PlayerRole = "SABOTEUR"
)

// Player is the identity record for one connected player. ID equals the
// connection id for the lifetime of the record.
type Player struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	IsHost    bool       `json:"isHost"`
	Role      PlayerRole `json:"role,omitempty"`
	Score     int        `json:"score"`
	GameTheme string     `json:"gameTheme,omitempty"`
}

// Room is a joinable session. Players keeps insertion order; the player
// at index 0 is next in line for host succession.
type Room struct {
	Code      string    `json:"code"`
	Players   []*Player `json:"players"`
	CreatedAt time.Time `json:"createdAt"`
	Game      *Game     `json:"game,omitempty"`
}

// GameThemes is the room-level theme pair drawn for the current round.
// It is drawn independently of the per-player themes.
type GameThemes struct {
	Honest   string `json:"honest"`
	Saboteur string `json:"saboteur"`
}

type Game struct {
	ID          string     `json:"id"`
	RoomCode    string     `json:"roomCode"`
	Phase       GamePhase  `json:"phase"`
	Round       int        `json:"round"`
	MaxRounds   int        `json:"maxRounds"`
	Themes      GameThemes `json:"themes"`
	DrawingTime int        `json:"drawingTime"` // seconds
	VotingTime  int        `json:"votingTime"`  // seconds
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
}

// GameOptions carries optional overrides for game creation. Zero values
// mean "use the configured default".
type GameOptions struct {
	MaxRounds   int `json:"maxRounds,omitempty"`
	DrawingTime int `json:"drawingTime,omitempty"`
	VotingTime  int `json:"votingTime,omitempty"`
}

// Point is one sampled canvas coordinate of a stroke.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
