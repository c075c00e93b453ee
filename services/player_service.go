package services

import (
	"strings"
	"sync"

	"github.com/artsabotage/gameserver/models"
)

// PlayerService is the player registry: identity records keyed by
// connection id. It is a secondary index next to the room roster; the
// room registry keeps both in sync on every mutation.
type PlayerService struct {
	players map[string]*models.Player
	mutex   sync.RWMutex
}

func NewPlayerService() *PlayerService {
	return &PlayerService{
		players: make(map[string]*models.Player),
	}
}

func (s *PlayerService) CreatePlayer(name, connID string, isHost bool) *models.Player {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	player := &models.Player{
		ID:     connID,
		Name:   strings.TrimSpace(name),
		IsHost: isHost,
		Score:  0,
	}
	s.players[connID] = player
	return player
}

func (s *PlayerService) GetByID(id string) (*models.Player, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	player, exists := s.players[id]
	return player, exists
}

// UpdatePlayer applies fn to the record under the registry lock. Returns
// false if the id is unknown; no error, absence is not fatal here.
func (s *PlayerService) UpdatePlayer(id string, fn func(*models.Player)) (*models.Player, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	player, exists := s.players[id]
	if !exists {
		return nil, false
	}
	fn(player)
	return player, true
}

func (s *PlayerService) SetRole(id string, role models.PlayerRole) (*models.Player, bool) {
	return s.UpdatePlayer(id, func(p *models.Player) { p.Role = role })
}

func (s *PlayerService) AddScore(id string, points int) (*models.Player, bool) {
	return s.UpdatePlayer(id, func(p *models.Player) { p.Score += points })
}

func (s *PlayerService) SetScore(id string, score int) (*models.Player, bool) {
	return s.UpdatePlayer(id, func(p *models.Player) { p.Score = score })
}

func (s *PlayerService) RemovePlayer(id string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.players[id]; !exists {
		return false
	}
	delete(s.players, id)
	return true
}

func (s *PlayerService) GetAllPlayers() []*models.Player {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	players := make([]*models.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	return players
}

func (s *PlayerService) PlayerCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.players)
}

func (s *PlayerService) ClearAllPlayers() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.players = make(map[string]*models.Player)
}
