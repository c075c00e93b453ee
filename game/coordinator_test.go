package game

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artsabotage/gameserver/config"
	"github.com/artsabotage/gameserver/logger"
	"github.com/artsabotage/gameserver/models"
	"github.com/artsabotage/gameserver/room"
	"github.com/artsabotage/gameserver/services"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

var testDefaults = config.GameConfig{MaxRounds: 5, DrawingTime: 60, VotingTime: 30}

func newTestCoordinator() (*Coordinator, *room.Registry) {
	rooms := room.NewRegistry(services.NewPlayerService())
	return NewCoordinator(rooms, testDefaults), rooms
}

func roomWithPlayers(t *testing.T, rooms *room.Registry, n int) *models.Room {
	t.Helper()
	r, err := rooms.CreateRoom()
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		name := string(rune('A' + i))
		_, ok := rooms.AddPlayerToRoom(r.Code, "Player"+name, "conn-"+name)
		require.True(t, ok)
	}
	return r
}

func TestCreateGame(t *testing.T) {
	coord, rooms := newTestCoordinator()
	r := roomWithPlayers(t, rooms, 3)

	g, ok := coord.CreateGame(r.Code, models.GameOptions{MaxRounds: 3, DrawingTime: 45, VotingTime: 20})
	require.True(t, ok)
	assert.Equal(t, models.PhasePreparation, g.Phase)
	assert.Equal(t, 1, g.Round)
	assert.Equal(t, 3, g.MaxRounds)
	assert.Equal(t, 45, g.DrawingTime)
	assert.Equal(t, 20, g.VotingTime)
	assert.Equal(t, r.Code, g.RoomCode)
	require.NotNil(t, r.Game, "game is attached to the room")
	assert.Equal(t, g.ID, r.Game.ID)
	assert.NotEmpty(t, g.ID)
}

func TestCreateGame_Defaults(t *testing.T) {
	coord, rooms := newTestCoordinator()
	r := roomWithPlayers(t, rooms, 4)

	g, ok := coord.CreateGame(r.Code, models.GameOptions{})
	require.True(t, ok)
	assert.Equal(t, 5, g.MaxRounds)
	assert.Equal(t, 60, g.DrawingTime)
	assert.Equal(t, 30, g.VotingTime)
}

func TestCreateGame_Gates(t *testing.T) {
	coord, rooms := newTestCoordinator()

	_, ok := coord.CreateGame("NOPE99", models.GameOptions{})
	assert.False(t, ok, "unknown room")

	for _, n := range []int{0, 1, 2} {
		r, err := rooms.CreateRoom()
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			rooms.AddPlayerToRoom(r.Code, "P", string(rune('a'+i))+r.Code)
		}
		_, ok := coord.CreateGame(r.Code, models.GameOptions{})
		assert.False(t, ok, "requires at least 3 players, got %d", n)
	}

	r := roomWithPlayers(t, rooms, 3)
	_, ok = coord.CreateGame(r.Code, models.GameOptions{})
	require.True(t, ok)
	_, ok = coord.CreateGame(r.Code, models.GameOptions{})
	assert.False(t, ok, "second createGame on the same room fails")
}

func TestStartGame_RolesAndThemes(t *testing.T) {
	for _, n := range []int{3, 4, 5, 6, 9} {
		coord, rooms := newTestCoordinator()
		r := roomWithPlayers(t, rooms, n)
		_, ok := coord.CreateGame(r.Code, models.GameOptions{})
		require.True(t, ok)

		result, ok := coord.StartGame(r.Code)
		require.True(t, ok)

		saboteurs := 0
		for _, role := range result.Roles {
			if role == models.RoleSaboteur {
				saboteurs++
			}
		}
		assert.Equal(t, n/3, saboteurs, "exactly floor(N/3) saboteurs for N=%d", n)
		assert.Len(t, result.Roles, n)
		assert.Len(t, result.Themes, n)

		for _, p := range r.Players {
			assert.NotEmpty(t, p.Role, "every player gets a role")
			assert.NotEmpty(t, p.GameTheme, "every player gets a theme")
			assert.Equal(t, result.Roles[p.ID], p.Role)
			assert.Equal(t, result.Themes[p.ID], p.GameTheme)
		}

		assert.Equal(t, models.PhaseDrawing, result.Game.Phase)
		assert.NotNil(t, result.Game.StartedAt)
		assert.NotEmpty(t, result.Game.Themes.Honest)
		assert.NotEmpty(t, result.Game.Themes.Saboteur)
	}
}

func TestStartGame_SaboteurThemesDistinct(t *testing.T) {
	// 6 players -> 2 saboteurs; their themes should differ while the
	// pool is big enough.
	coord, rooms := newTestCoordinator()
	r := roomWithPlayers(t, rooms, 6)
	coord.CreateGame(r.Code, models.GameOptions{})

	result, ok := coord.StartGame(r.Code)
	require.True(t, ok)

	seen := make(map[string]bool)
	for id, role := range result.Roles {
		if role != models.RoleSaboteur {
			continue
		}
		theme := result.Themes[id]
		assert.False(t, seen[theme], "saboteur theme %q repeated", theme)
		seen[theme] = true
	}
}

func TestStartGame_NoGame(t *testing.T) {
	coord, rooms := newTestCoordinator()
	r := roomWithPlayers(t, rooms, 3)

	_, ok := coord.StartGame(r.Code)
	assert.False(t, ok, "startGame needs an existing game")

	_, ok = coord.StartGame("NOPE99")
	assert.False(t, ok)
}

func TestSetPhase(t *testing.T) {
	coord, rooms := newTestCoordinator()
	r := roomWithPlayers(t, rooms, 3)
	coord.CreateGame(r.Code, models.GameOptions{})

	g, ok := coord.SetPhase(r.Code, models.PhaseVoting)
	require.True(t, ok)
	assert.Equal(t, models.PhaseVoting, g.Phase)

	// no transition validation here; the callers sequence phases
	g, ok = coord.SetPhase(r.Code, models.PhasePreparation)
	require.True(t, ok)
	assert.Equal(t, models.PhasePreparation, g.Phase)

	_, ok = coord.SetPhase("NOPE99", models.PhaseVoting)
	assert.False(t, ok)
}

func TestAdvanceRound(t *testing.T) {
	coord, rooms := newTestCoordinator()
	r := roomWithPlayers(t, rooms, 3)
	coord.CreateGame(r.Code, models.GameOptions{MaxRounds: 2})
	coord.SetPhase(r.Code, models.PhaseVoting)

	g, ok := coord.AdvanceRound(r.Code)
	require.True(t, ok)
	assert.Equal(t, 2, g.Round)
	assert.Equal(t, models.PhaseVoting, g.Phase, "advance leaves phase untouched")

	// at maxRounds the advance ends the game instead
	g, ok = coord.AdvanceRound(r.Code)
	require.True(t, ok)
	assert.Equal(t, 2, g.Round)
	assert.Equal(t, models.PhaseGameOver, g.Phase)
	assert.NotNil(t, g.EndedAt)

	_, ok = coord.AdvanceRound("NOPE99")
	assert.False(t, ok)
}

func TestEndGame(t *testing.T) {
	coord, rooms := newTestCoordinator()
	r := roomWithPlayers(t, rooms, 3)
	coord.CreateGame(r.Code, models.GameOptions{})

	g, ok := coord.EndGame(r.Code)
	require.True(t, ok)
	assert.Equal(t, models.PhaseGameOver, g.Phase)
	assert.NotNil(t, g.EndedAt)

	_, ok = coord.EndGame("NOPE99")
	assert.False(t, ok)
}

func TestGetPlayerRoleAndTheme(t *testing.T) {
	coord, rooms := newTestCoordinator()
	r := roomWithPlayers(t, rooms, 3)

	// no game yet: absence even though the record exists
	_, ok := coord.GetPlayerRole("conn-A")
	assert.False(t, ok)
	_, ok = coord.GetPlayerTheme("conn-A")
	assert.False(t, ok)

	coord.CreateGame(r.Code, models.GameOptions{})
	_, started := coord.StartGame(r.Code)
	require.True(t, started)

	role, ok := coord.GetPlayerRole("conn-A")
	require.True(t, ok)
	assert.Contains(t, []models.PlayerRole{models.RoleHonest, models.RoleSaboteur}, role)

	theme, ok := coord.GetPlayerTheme("conn-A")
	require.True(t, ok)
	assert.NotEmpty(t, theme)

	_, ok = coord.GetPlayerRole("conn-404")
	assert.False(t, ok)
}

func TestGameLookupsAndCounts(t *testing.T) {
	coord, rooms := newTestCoordinator()
	r := roomWithPlayers(t, rooms, 3)
	g, _ := coord.CreateGame(r.Code, models.GameOptions{})

	byID, ok := coord.GetGameByID(g.ID)
	require.True(t, ok)
	assert.Equal(t, g.ID, byID.ID)

	byRoom, ok := coord.GetGameByRoomCode(r.Code)
	require.True(t, ok)
	assert.Equal(t, g.ID, byRoom.ID)

	_, ok = coord.GetGameByID("nope")
	assert.False(t, ok)

	assert.Equal(t, 1, coord.ActiveGameCount())
	coord.EndGame(r.Code)
	assert.Equal(t, 0, coord.ActiveGameCount())
	assert.Len(t, coord.GetAllGames(), 1)

	coord.ClearAllGames()
	assert.Empty(t, coord.GetAllGames())
}

func TestPhaseMutationsConcurrent(t *testing.T) {
	// timer goroutines and the gateway read and mutate the same game
	coord, rooms := newTestCoordinator()
	r := roomWithPlayers(t, rooms, 3)
	_, ok := coord.CreateGame(r.Code, models.GameOptions{MaxRounds: 1000})
	require.True(t, ok)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				coord.SetPhase(r.Code, models.PhaseVoting)
				coord.AdvanceRound(r.Code)
				coord.SetPhase(r.Code, models.PhaseDrawing)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if g, exists := coord.GetGameByRoomCode(r.Code); exists {
					_ = g.Phase
					_ = g.Round
				}
				coord.ActiveGameCount()
			}
		}()
	}
	wg.Wait()

	g, exists := coord.GetGameByRoomCode(r.Code)
	require.True(t, exists)
	assert.Equal(t, 201, g.Round)
}
