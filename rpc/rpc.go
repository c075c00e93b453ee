package rpc

import (
	"net"
	"net/rpc"

	"github.com/artsabotage/gameserver/game"
	"github.com/artsabotage/gameserver/logger"
	"github.com/artsabotage/gameserver/room"
	"github.com/artsabotage/gameserver/services"
)

// Server manages the RPC listener for the admin surface. It carries its
// own rpc registry so multiple instances can coexist in one process.
type Server struct {
	listener net.Listener
	address  string
	registry *rpc.Server
}

func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
		registry: rpc.NewServer(),
	}, nil
}

// Register exposes a service on this listener.
func (s *Server) Register(rcvr interface{}) error {
	return s.registry.Register(rcvr)
}

func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.registry.ServeConn(conn)
	}
}

func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes operational queries and the bulk-clear used for
// test and ops parity with the in-memory registries.
type AdminService struct {
	rooms   *room.Registry
	players *services.PlayerService
	games   *game.Coordinator
}

func NewAdminService(rooms *room.Registry, players *services.PlayerService, games *game.Coordinator) *AdminService {
	return &AdminService{rooms: rooms, players: players, games: games}
}

type StatsArgs struct{}

type StatsReply struct {
	Rooms       int
	Players     int
	ActiveGames int
}

func (a *AdminService) Stats(args *StatsArgs, reply *StatsReply) error {
	reply.Rooms = a.rooms.RoomCount()
	reply.Players = a.players.PlayerCount()
	reply.ActiveGames = a.games.ActiveGameCount()
	return nil
}

type ClearAllArgs struct{}

type ClearAllReply struct {
	Cleared bool
}

// ClearAll wipes rooms, players and games. Destructive; intended for
// test environments.
func (a *AdminService) ClearAll(args *ClearAllArgs, reply *ClearAllReply) error {
	a.rooms.ClearAllRooms()
	a.players.ClearAllPlayers()
	a.games.ClearAllGames()
	reply.Cleared = true
	logger.Log.Warn("All rooms, players and games cleared over RPC")
	return nil
}
