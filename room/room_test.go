package room

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artsabotage/gameserver/logger"
	"github.com/artsabotage/gameserver/services"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func newTestRegistry() *Registry {
	return NewRegistry(services.NewPlayerService())
}

func TestCreateRoom_CodeFormat(t *testing.T) {
	reg := newTestRegistry()
	codePattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		r, err := reg.CreateRoom()
		require.NoError(t, err)
		assert.Regexp(t, codePattern, r.Code)
		assert.False(t, seen[r.Code], "codes must be unique among live rooms")
		seen[r.Code] = true
		assert.Empty(t, r.Players, "new room starts empty")
	}
	assert.Equal(t, 50, reg.RoomCount())
}

func TestGetRoomByCode_Normalization(t *testing.T) {
	reg := newTestRegistry()
	r, err := reg.CreateRoom()
	require.NoError(t, err)

	lower, exists := reg.GetRoomByCode("  " + r.Code + "  ")
	require.True(t, exists)
	assert.Same(t, r, lower)

	// lowercase lookup resolves to the same room
	found, exists := reg.GetRoomByCode(strings.ToLower(r.Code))
	require.True(t, exists)
	assert.Same(t, r, found)

	_, exists = reg.GetRoomByCode("NOPE99")
	assert.False(t, exists)
}

func TestAddPlayerToRoom(t *testing.T) {
	players := services.NewPlayerService()
	reg := NewRegistry(players)
	r, err := reg.CreateRoom()
	require.NoError(t, err)

	room1, ok := reg.AddPlayerToRoom(r.Code, "Alice", "conn-1")
	require.True(t, ok)
	require.Len(t, room1.Players, 1)
	assert.True(t, room1.Players[0].IsHost, "first joiner becomes host")

	_, ok = reg.AddPlayerToRoom(r.Code, "Bob", "conn-2")
	require.True(t, ok)
	assert.False(t, r.Players[1].IsHost)

	// registry record materialized on join
	stored, exists := players.GetByID("conn-1")
	require.True(t, exists)
	assert.Equal(t, "Alice", stored.Name)

	_, ok = reg.AddPlayerToRoom("ZZZZZ9", "Eve", "conn-3")
	assert.False(t, ok, "unknown room fails")
}

func TestAddPlayerToRoom_IdempotentRejoin(t *testing.T) {
	reg := newTestRegistry()
	r, _ := reg.CreateRoom()

	reg.AddPlayerToRoom(r.Code, "Alice", "conn-1")
	again, ok := reg.AddPlayerToRoom(r.Code, "Alice", "conn-1")
	require.True(t, ok)
	assert.Len(t, again.Players, 1, "re-join with same connection id must not duplicate")
}

func TestRemovePlayerFromRoom_HostSuccession(t *testing.T) {
	players := services.NewPlayerService()
	reg := NewRegistry(players)
	r, _ := reg.CreateRoom()

	reg.AddPlayerToRoom(r.Code, "Alice", "conn-1")
	reg.AddPlayerToRoom(r.Code, "Bob", "conn-2")
	reg.AddPlayerToRoom(r.Code, "Carol", "conn-3")

	updated, deleted := reg.RemovePlayerFromRoom(r.Code, "conn-1")
	require.False(t, deleted)
	require.Len(t, updated.Players, 2)

	hosts := 0
	for _, p := range updated.Players {
		if p.IsHost {
			hosts++
		}
	}
	assert.Equal(t, 1, hosts, "exactly one host after succession")
	assert.True(t, updated.Players[0].IsHost, "first remaining player in join order is promoted")
	assert.Equal(t, "Bob", updated.Players[0].Name)

	// the secondary index is kept in sync
	bob, exists := players.GetByID("conn-2")
	require.True(t, exists)
	assert.True(t, bob.IsHost)

	// the removed player's record is gone
	_, exists = players.GetByID("conn-1")
	assert.False(t, exists)
}

func TestRemovePlayerFromRoom_DeleteOnEmpty(t *testing.T) {
	reg := newTestRegistry()
	r, _ := reg.CreateRoom()
	reg.AddPlayerToRoom(r.Code, "Alice", "conn-1")

	updated, deleted := reg.RemovePlayerFromRoom(r.Code, "conn-1")
	assert.Nil(t, updated)
	assert.True(t, deleted)

	_, exists := reg.GetRoomByCode(r.Code)
	assert.False(t, exists, "empty rooms do not linger in the registry")
}

func TestRemovePlayerFromRoom_UnknownRoomAndPlayer(t *testing.T) {
	reg := newTestRegistry()
	r, _ := reg.CreateRoom()
	reg.AddPlayerToRoom(r.Code, "Alice", "conn-1")

	updated, deleted := reg.RemovePlayerFromRoom("NOPE99", "conn-1")
	assert.Nil(t, updated)
	assert.False(t, deleted)

	updated, deleted = reg.RemovePlayerFromRoom(r.Code, "conn-404")
	assert.NotNil(t, updated, "unknown player leaves the room untouched")
	assert.False(t, deleted)
	assert.Len(t, updated.Players, 1)
}

func TestGetPlayerRoom(t *testing.T) {
	reg := newTestRegistry()
	r1, _ := reg.CreateRoom()
	r2, _ := reg.CreateRoom()
	reg.AddPlayerToRoom(r1.Code, "Alice", "conn-1")
	reg.AddPlayerToRoom(r2.Code, "Bob", "conn-2")

	room, player, found := reg.GetPlayerRoom("conn-2")
	require.True(t, found)
	assert.Same(t, r2, room)
	assert.Equal(t, "Bob", player.Name)

	_, _, found = reg.GetPlayerRoom("conn-404")
	assert.False(t, found)
}

func TestDeleteRoom_Cascade(t *testing.T) {
	players := services.NewPlayerService()
	reg := NewRegistry(players)
	r, _ := reg.CreateRoom()
	reg.AddPlayerToRoom(r.Code, "Alice", "conn-1")
	reg.AddPlayerToRoom(r.Code, "Bob", "conn-2")

	assert.True(t, reg.DeleteRoom(r.Code))
	assert.False(t, reg.DeleteRoom(r.Code))
	assert.False(t, reg.RoomExists(r.Code))

	_, exists := players.GetByID("conn-1")
	assert.False(t, exists, "deletion cascades to the player registry")
	_, exists = players.GetByID("conn-2")
	assert.False(t, exists)
}

func TestClearAllRooms(t *testing.T) {
	reg := newTestRegistry()
	reg.CreateRoom()
	reg.CreateRoom()
	require.Equal(t, 2, reg.RoomCount())

	reg.ClearAllRooms()
	assert.Equal(t, 0, reg.RoomCount())
	assert.Empty(t, reg.GetAllRooms())
}

func TestPlayerCountInRoom(t *testing.T) {
	reg := newTestRegistry()
	r, _ := reg.CreateRoom()
	assert.Equal(t, 0, reg.PlayerCountInRoom(r.Code))

	reg.AddPlayerToRoom(r.Code, "Alice", "conn-1")
	reg.AddPlayerToRoom(r.Code, "Bob", "conn-2")
	assert.Equal(t, 2, reg.PlayerCountInRoom(r.Code))
	assert.Equal(t, 0, reg.PlayerCountInRoom("NOPE99"))
}
