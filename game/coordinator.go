package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/artsabotage/gameserver/config"
	"github.com/artsabotage/gameserver/logger"
	"github.com/artsabotage/gameserver/models"
	"github.com/artsabotage/gameserver/room"
)

// MinPlayers is the creation gate: a game needs at least three players
// so the saboteur count floor(N/3) is at least one.
const MinPlayers = 3

// VoteResolver is the extension point for the voting phase. The server
// transitions VOTING -> DRAWING/GAME_OVER on timers without tallying
// anything; a resolver plugged in here would turn ballots into a winner
// and score deltas.
type VoteResolver interface {
	Resolve(game *models.Game, players []*models.Player) (winnerID string, scores map[string]int)
}

// StartResult is what startGame hands back to the gateway: the game plus
// the per-player assignments it just wrote onto the player records.
type StartResult struct {
	Game   models.Game
	Roles  map[string]models.PlayerRole
	Themes map[string]string
}

// Coordinator owns at most one game per room: phase transitions, round
// counting, role and theme assignment. Rooms and players are mutated
// through the registries, never stored here. Game fields are only
// touched under the coordinator's lock; public methods return copies,
// so timer goroutines and handlers never share a mutable Game.
type Coordinator struct {
	games    map[string]*models.Game // game id -> game
	byRoom   map[string]*models.Game // room code -> game
	rooms    *room.Registry
	defaults config.GameConfig
	resolver VoteResolver
	mutex    sync.RWMutex
}

func NewCoordinator(rooms *room.Registry, defaults config.GameConfig) *Coordinator {
	return &Coordinator{
		games:    make(map[string]*models.Game),
		byRoom:   make(map[string]*models.Game),
		rooms:    rooms,
		defaults: defaults,
	}
}

// SetVoteResolver installs the voting hook. Nothing in the implemented
// flows calls it yet.
func (c *Coordinator) SetVoteResolver(r VoteResolver) {
	c.resolver = r
}

// CreateGame builds a game in PREPARATION and attaches it to the room.
// Fails if the room is unknown, already has a game, or has fewer than
// MinPlayers players. All checks happen before any mutation.
func (c *Coordinator) CreateGame(roomCode string, opts models.GameOptions) (models.Game, bool) {
	normalized := room.NormalizeCode(roomCode)

	r, exists := c.rooms.GetRoomByCode(normalized)
	if !exists {
		logger.Log.Infof("createGame: room not found: %s", normalized)
		return models.Game{}, false
	}
	if r.Game != nil {
		logger.Log.Infof("createGame: room %s already has a game", normalized)
		return models.Game{}, false
	}
	if len(r.Players) < MinPlayers {
		logger.Log.Infof("createGame: not enough players in room %s: %d", normalized, len(r.Players))
		return models.Game{}, false
	}

	maxRounds := opts.MaxRounds
	if maxRounds == 0 {
		maxRounds = c.defaults.MaxRounds
	}
	drawingTime := opts.DrawingTime
	if drawingTime == 0 {
		drawingTime = c.defaults.DrawingTime
	}
	votingTime := opts.VotingTime
	if votingTime == 0 {
		votingTime = c.defaults.VotingTime
	}

	now := time.Now()
	g := &models.Game{
		ID:          uuid.New().String(),
		RoomCode:    normalized,
		Phase:       models.PhasePreparation,
		Round:       1,
		MaxRounds:   maxRounds,
		DrawingTime: drawingTime,
		VotingTime:  votingTime,
		CreatedAt:   now,
	}

	c.mutex.Lock()
	c.games[g.ID] = g
	c.byRoom[normalized] = g
	c.mutex.Unlock()

	r.Game = g

	logger.Log.Infof("Game created: %s in room %s (rounds=%d, drawing=%ds, voting=%ds)",
		g.ID, normalized, maxRounds, drawingTime, votingTime)
	return *g, true
}

// StartGame assigns a role and a personal theme to every player, draws
// the room-level theme pair and moves the game into DRAWING.
func (c *Coordinator) StartGame(roomCode string) (*StartResult, bool) {
	normalized := room.NormalizeCode(roomCode)

	r, exists := c.rooms.GetRoomByCode(normalized)
	if !exists || r.Game == nil {
		logger.Log.Infof("startGame: no game for room %s", normalized)
		return nil, false
	}

	g := r.Game
	roles := assignRoles(r.Players)
	themes := assignThemes(r.Players, roles)

	for _, p := range r.Players {
		p.Role = roles[p.ID]
		p.GameTheme = themes[p.ID]
	}

	c.mutex.Lock()
	// The room-level pair is an independent draw; it is not taken from
	// the per-player assignments.
	g.Themes = models.GameThemes{
		Honest:   honestThemes[rand.Intn(len(honestThemes))],
		Saboteur: saboteurThemes[rand.Intn(len(saboteurThemes))],
	}
	g.Phase = models.PhaseDrawing
	now := time.Now()
	g.StartedAt = &now
	snapshot := *g
	c.mutex.Unlock()

	logger.Log.Infof("Game started: %s (%d players)", g.ID, len(r.Players))
	return &StartResult{Game: snapshot, Roles: roles, Themes: themes}, true
}

// SetPhase overwrites the phase unconditionally. Sequencing is the
// caller's job; the gateway's timers re-check phase before acting.
func (c *Coordinator) SetPhase(roomCode string, phase models.GamePhase) (models.Game, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	g, exists := c.byRoom[room.NormalizeCode(roomCode)]
	if !exists {
		return models.Game{}, false
	}
	g.Phase = phase
	logger.Log.Infof("Phase changed: %s -> %s", g.ID, phase)
	return *g, true
}

// AdvanceRound increments the round counter, or ends the game once the
// final round has been played. The phase is left untouched on advance;
// the caller sets it back to DRAWING for the new round.
func (c *Coordinator) AdvanceRound(roomCode string) (models.Game, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	normalized := room.NormalizeCode(roomCode)
	g, exists := c.byRoom[normalized]
	if !exists {
		return models.Game{}, false
	}

	if g.Round >= g.MaxRounds {
		return c.endGameLocked(normalized)
	}

	g.Round++
	logger.Log.Infof("Round advanced: %s -> round %d", g.ID, g.Round)
	return *g, true
}

func (c *Coordinator) EndGame(roomCode string) (models.Game, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.endGameLocked(room.NormalizeCode(roomCode))
}

func (c *Coordinator) endGameLocked(normalized string) (models.Game, bool) {
	g, exists := c.byRoom[normalized]
	if !exists {
		logger.Log.Infof("endGame: no game for room %s", normalized)
		return models.Game{}, false
	}

	g.Phase = models.PhaseGameOver
	now := time.Now()
	g.EndedAt = &now

	logger.Log.Infof("Game ended: %s in room %s", g.ID, g.RoomCode)
	return *g, true
}

func (c *Coordinator) GetGameByID(id string) (models.Game, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	g, exists := c.games[id]
	if !exists {
		return models.Game{}, false
	}
	return *g, true
}

func (c *Coordinator) GetGameByRoomCode(roomCode string) (models.Game, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	g, exists := c.byRoom[room.NormalizeCode(roomCode)]
	if !exists {
		return models.Game{}, false
	}
	return *g, true
}

// GetPlayerRole reports the player's role only while their room has an
// active game; stale fields on the record do not count.
func (c *Coordinator) GetPlayerRole(connID string) (models.PlayerRole, bool) {
	r, p, found := c.rooms.GetPlayerRoom(connID)
	if !found || r.Game == nil || p.Role == "" {
		return "", false
	}
	return p.Role, true
}

func (c *Coordinator) GetPlayerTheme(connID string) (string, bool) {
	r, p, found := c.rooms.GetPlayerRoom(connID)
	if !found || r.Game == nil || p.GameTheme == "" {
		return "", false
	}
	return p.GameTheme, true
}

func (c *Coordinator) GetAllGames() []models.Game {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	games := make([]models.Game, 0, len(c.games))
	for _, g := range c.games {
		games = append(games, *g)
	}
	return games
}

func (c *Coordinator) ActiveGameCount() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	count := 0
	for _, g := range c.games {
		if g.Phase != models.PhaseGameOver {
			count++
		}
	}
	return count
}

func (c *Coordinator) ClearAllGames() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.games = make(map[string]*models.Game)
	c.byRoom = make(map[string]*models.Game)
}

// assignRoles picks exactly floor(N/3) saboteurs via a Fisher-Yates
// shuffle of the index sequence, so every C(N, count) subset is equally
// likely. The rest are honest.
func assignRoles(players []*models.Player) map[string]models.PlayerRole {
	roles := make(map[string]models.PlayerRole, len(players))
	n := len(players)

	if n < MinPlayers {
		for _, p := range players {
			roles[p.ID] = models.RoleHonest
		}
		return roles
	}

	saboteurCount := n / 3
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}

	saboteurs := make(map[int]struct{}, saboteurCount)
	for _, idx := range indices[:saboteurCount] {
		saboteurs[idx] = struct{}{}
	}

	for i, p := range players {
		if _, ok := saboteurs[i]; ok {
			roles[p.ID] = models.RoleSaboteur
		} else {
			roles[p.ID] = models.RoleHonest
		}
	}
	return roles
}

// assignThemes draws a personal theme per player. Saboteur draws are
// resampled while they collide with a theme already used this game,
// until the pool runs out; honest draws may repeat freely.
func assignThemes(players []*models.Player, roles map[string]models.PlayerRole) map[string]string {
	themes := make(map[string]string, len(players))
	usedSaboteur := make(map[string]struct{})

	for _, p := range players {
		if roles[p.ID] == models.RoleSaboteur {
			theme := saboteurThemes[rand.Intn(len(saboteurThemes))]
			for {
				_, used := usedSaboteur[theme]
				if !used || len(usedSaboteur) >= len(saboteurThemes) {
					break
				}
				theme = saboteurThemes[rand.Intn(len(saboteurThemes))]
			}
			usedSaboteur[theme] = struct{}{}
			themes[p.ID] = theme
		} else {
			themes[p.ID] = honestThemes[rand.Intn(len(honestThemes))]
		}
	}
	return themes
}
