package main

import (
	"github.com/artsabotage/gameserver/config"
	"github.com/artsabotage/gameserver/logger"
	"github.com/artsabotage/gameserver/monitor"
	"github.com/artsabotage/gameserver/server"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Metrics endpoint
	mon := monitor.NewMonitor("artsabotage")
	mon.StartServer(cfg.Metrics.Address)

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg, mon)

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
