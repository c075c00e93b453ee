package services

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artsabotage/gameserver/logger"
	"github.com/artsabotage/gameserver/models"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestCreateAndGetPlayer(t *testing.T) {
	svc := NewPlayerService()

	player := svc.CreatePlayer("  Alice  ", "conn-1", true)
	require.NotNil(t, player)
	assert.Equal(t, "conn-1", player.ID)
	assert.Equal(t, "Alice", player.Name, "name should be trimmed")
	assert.True(t, player.IsHost)
	assert.Equal(t, 0, player.Score)

	found, exists := svc.GetByID("conn-1")
	require.True(t, exists)
	assert.Same(t, player, found)

	_, exists = svc.GetByID("unknown")
	assert.False(t, exists)
}

func TestUpdatePlayer(t *testing.T) {
	svc := NewPlayerService()
	svc.CreatePlayer("Bob", "conn-1", false)

	updated, ok := svc.UpdatePlayer("conn-1", func(p *models.Player) {
		p.Role = models.RoleSaboteur
		p.GameTheme = "A circle"
	})
	require.True(t, ok)
	assert.Equal(t, models.RoleSaboteur, updated.Role)
	assert.Equal(t, "A circle", updated.GameTheme)

	_, ok = svc.UpdatePlayer("unknown", func(p *models.Player) { p.IsHost = true })
	assert.False(t, ok, "updating an unknown id fails silently")
}

func TestScoreHelpers(t *testing.T) {
	svc := NewPlayerService()
	svc.CreatePlayer("Carol", "conn-1", false)

	p, ok := svc.AddScore("conn-1", 10)
	require.True(t, ok)
	assert.Equal(t, 10, p.Score)

	p, ok = svc.AddScore("conn-1", 5)
	require.True(t, ok)
	assert.Equal(t, 15, p.Score)

	p, ok = svc.SetScore("conn-1", 3)
	require.True(t, ok)
	assert.Equal(t, 3, p.Score)
}

func TestRemovePlayer(t *testing.T) {
	svc := NewPlayerService()
	svc.CreatePlayer("Dave", "conn-1", false)

	assert.True(t, svc.RemovePlayer("conn-1"))
	assert.False(t, svc.RemovePlayer("conn-1"), "second removal reports no record")

	_, exists := svc.GetByID("conn-1")
	assert.False(t, exists)
}

func TestClearAllPlayers(t *testing.T) {
	svc := NewPlayerService()
	svc.CreatePlayer("A", "conn-1", true)
	svc.CreatePlayer("B", "conn-2", false)
	require.Equal(t, 2, svc.PlayerCount())

	svc.ClearAllPlayers()
	assert.Equal(t, 0, svc.PlayerCount())
	assert.Empty(t, svc.GetAllPlayers())
}
