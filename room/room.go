package room

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/artsabotage/gameserver/logger"
	"github.com/artsabotage/gameserver/models"
	"github.com/artsabotage/gameserver/services"
)

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength      = 6
	maxCodeAttempts = 100
)

// ErrCodeSpaceExhausted is returned when a unique room code could not be
// generated after the bounded retry count. With 36^6 codes this means an
// operational anomaly, not a user mistake.
var ErrCodeSpaceExhausted = errors.New("room code space exhausted")

// Registry owns room lifecycle: creation with unique codes, membership,
// host succession and deletion-on-empty. Player records are materialized
// through the player service on join, and the two stores are kept in
// sync by every mutation here.
type Registry struct {
	rooms   map[string]*models.Room
	players *services.PlayerService
	mutex   sync.RWMutex
}

func NewRegistry(players *services.PlayerService) *Registry {
	return &Registry{
		rooms:   make(map[string]*models.Room),
		players: players,
	}
}

// NormalizeCode uppercases and trims a client-supplied room code. All
// lookups go through this; clients may send lowercase or padded codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func generateCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// CreateRoom generates a unique code and registers an empty room.
// Players are added later over the event channel, not here.
func (r *Registry) CreateRoom() (*models.Room, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var code string
	for attempt := 0; ; attempt++ {
		if attempt >= maxCodeAttempts {
			return nil, ErrCodeSpaceExhausted
		}
		code = generateCode()
		if _, taken := r.rooms[code]; !taken {
			break
		}
	}

	room := &models.Room{
		Code:      code,
		Players:   []*models.Player{},
		CreatedAt: time.Now(),
	}
	r.rooms[code] = room

	logger.Log.Infof("Room created: %s", code)
	return room, nil
}

func (r *Registry) GetRoomByCode(code string) (*models.Room, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	room, exists := r.rooms[NormalizeCode(code)]
	return room, exists
}

// AddPlayerToRoom joins a connection to a room. Re-joining with the same
// connection id returns the room unchanged, which guards against
// duplicate entries from reconnect races. The first player to join
// becomes host.
func (r *Registry) AddPlayerToRoom(code, name, connID string) (*models.Room, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	room, exists := r.rooms[NormalizeCode(code)]
	if !exists {
		return nil, false
	}

	for _, p := range room.Players {
		if p.ID == connID {
			return room, true
		}
	}

	isHost := len(room.Players) == 0
	player := r.players.CreatePlayer(name, connID, isHost)
	room.Players = append(room.Players, player)

	logger.Log.Infof("Player %s joined room %s (host=%v)", player.Name, room.Code, isHost)
	return room, true
}

// RemovePlayerFromRoom removes the player and its registry record. The
// last player leaving deletes the room, reported as (nil, true). If the
// host left, the first remaining player in join order is promoted.
func (r *Registry) RemovePlayerFromRoom(code, connID string) (*models.Room, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	normalized := NormalizeCode(code)
	room, exists := r.rooms[normalized]
	if !exists {
		return nil, false
	}

	idx := -1
	for i, p := range room.Players {
		if p.ID == connID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return room, false
	}

	leaving := room.Players[idx]
	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
	r.players.RemovePlayer(connID)

	logger.Log.Infof("Player %s left room %s", leaving.Name, room.Code)

	if len(room.Players) == 0 {
		delete(r.rooms, normalized)
		logger.Log.Infof("Room %s removed (empty)", room.Code)
		return nil, true
	}

	if leaving.IsHost {
		next := room.Players[0]
		next.IsHost = true
		r.players.UpdatePlayer(next.ID, func(p *models.Player) { p.IsHost = true })
		logger.Log.Infof("New host of room %s: %s", room.Code, next.Name)
	}

	return room, false
}

// GetPlayerRoom scans all rooms for the connection. Used primarily on
// disconnect, when only the connection id is known.
func (r *Registry) GetPlayerRoom(connID string) (*models.Room, *models.Player, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, room := range r.rooms {
		for _, p := range room.Players {
			if p.ID == connID {
				return room, p, true
			}
		}
	}
	return nil, nil, false
}

// MemberIDs returns a snapshot of the connection ids in a room. The
// broadcaster fans out over this copy, so it never iterates the live
// roster while a join or leave mutates it.
func (r *Registry) MemberIDs(code string) ([]string, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	room, exists := r.rooms[NormalizeCode(code)]
	if !exists {
		return nil, false
	}
	ids := make([]string, 0, len(room.Players))
	for _, p := range room.Players {
		ids = append(ids, p.ID)
	}
	return ids, true
}

func (r *Registry) GetAllRooms() []*models.Room {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	rooms := make([]*models.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (r *Registry) RoomCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.rooms)
}

func (r *Registry) PlayerCountInRoom(code string) int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	room, exists := r.rooms[NormalizeCode(code)]
	if !exists {
		return 0
	}
	return len(room.Players)
}

func (r *Registry) RoomExists(code string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, exists := r.rooms[NormalizeCode(code)]
	return exists
}

// DeleteRoom removes a room outright, cascading player removal from the
// player registry.
func (r *Registry) DeleteRoom(code string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	normalized := NormalizeCode(code)
	room, exists := r.rooms[normalized]
	if !exists {
		return false
	}

	for _, p := range room.Players {
		r.players.RemovePlayer(p.ID)
	}
	delete(r.rooms, normalized)

	logger.Log.Infof("Room %s removed", room.Code)
	return true
}

// ClearAllRooms wipes all state. Ops/test utility.
func (r *Registry) ClearAllRooms() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.rooms = make(map[string]*models.Room)
}
