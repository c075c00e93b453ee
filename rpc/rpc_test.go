package rpc

import (
	"net/rpc"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artsabotage/gameserver/config"
	"github.com/artsabotage/gameserver/game"
	"github.com/artsabotage/gameserver/logger"
	"github.com/artsabotage/gameserver/room"
	"github.com/artsabotage/gameserver/services"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func newAdmin(t *testing.T) (*AdminService, *room.Registry) {
	t.Helper()
	players := services.NewPlayerService()
	rooms := room.NewRegistry(players)
	games := game.NewCoordinator(rooms, config.GameConfig{MaxRounds: 5, DrawingTime: 60, VotingTime: 30})
	return NewAdminService(rooms, players, games), rooms
}

func TestAdminStats(t *testing.T) {
	admin, rooms := newAdmin(t)

	r, err := rooms.CreateRoom()
	require.NoError(t, err)
	rooms.AddPlayerToRoom(r.Code, "Alice", "conn-1")
	rooms.AddPlayerToRoom(r.Code, "Bob", "conn-2")

	var reply StatsReply
	require.NoError(t, admin.Stats(&StatsArgs{}, &reply))
	assert.Equal(t, 1, reply.Rooms)
	assert.Equal(t, 2, reply.Players)
	assert.Equal(t, 0, reply.ActiveGames)
}

func TestAdminClearAll(t *testing.T) {
	admin, rooms := newAdmin(t)

	r, _ := rooms.CreateRoom()
	rooms.AddPlayerToRoom(r.Code, "Alice", "conn-1")

	var reply ClearAllReply
	require.NoError(t, admin.ClearAll(&ClearAllArgs{}, &reply))
	assert.True(t, reply.Cleared)

	var stats StatsReply
	require.NoError(t, admin.Stats(&StatsArgs{}, &stats))
	assert.Equal(t, 0, stats.Rooms)
	assert.Equal(t, 0, stats.Players)
}

func TestServer_OverTheWire(t *testing.T) {
	admin, rooms := newAdmin(t)
	rooms.CreateRoom()

	srv, err := NewServer("127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, srv.Register(admin))
	go srv.Start()
	defer srv.Stop()

	client, err := rpc.Dial("tcp", srv.listener.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	var reply StatsReply
	require.NoError(t, client.Call("AdminService.Stats", &StatsArgs{}, &reply))
	assert.Equal(t, 1, reply.Rooms)
}
