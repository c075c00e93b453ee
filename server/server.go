package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/artsabotage/gameserver/broadcast"
	"github.com/artsabotage/gameserver/config"
	"github.com/artsabotage/gameserver/game"
	"github.com/artsabotage/gameserver/logger"
	"github.com/artsabotage/gameserver/monitor"
	"github.com/artsabotage/gameserver/network"
	"github.com/artsabotage/gameserver/room"
	gameserver_rpc "github.com/artsabotage/gameserver/rpc"
	"github.com/artsabotage/gameserver/services"
	"github.com/artsabotage/gameserver/session"
	"github.com/artsabotage/gameserver/timer"
)

// GameServer is the event gateway: the only boundary where inbound
// events are validated against room membership and where outbound events
// are targeted. It owns the phase timers.
type GameServer struct {
	cfg      config.ServerConfig
	upgrader websocket.Upgrader

	players     *services.PlayerService
	rooms       *room.Registry
	games       *game.Coordinator
	sessions    *session.Manager
	broadcaster broadcast.Broadcaster
	timers      *timer.Manager
	monitor     *monitor.Monitor
	rpcServer   *gameserver_rpc.Server

	// pending phase transition per game id, cancelled on early end
	phaseTimers map[string]int64
	phaseMutex  sync.Mutex

	shutdownChan chan struct{}
}

func NewGameServer(cfg *config.Config, mon *monitor.Monitor) *GameServer {
	players := services.NewPlayerService()
	rooms := room.NewRegistry(players)
	games := game.NewCoordinator(rooms, cfg.Game)

	s := &GameServer{
		cfg:         cfg.Server,
		players:     players,
		rooms:       rooms,
		games:       games,
		sessions:    session.NewManager(),
		timers:      timer.NewManager(),
		monitor:     mon,
		phaseTimers: make(map[string]int64),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		shutdownChan: make(chan struct{}),
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.rooms, s.sessions)

	rpcServer, err := gameserver_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	adminService := gameserver_rpc.NewAdminService(rooms, players, games)
	if err := rpcServer.Register(adminService); err != nil {
		logger.Log.Fatalf("Failed to register admin RPC service: %v", err)
	}

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	mux := http.NewServeMux()
	s.registerHTTP(mux)
	mux.HandleFunc("/ws", s.handleWebSocket)

	logger.Log.Infof("Game server listening on %s", s.cfg.HTTPAddress)
	return http.ListenAndServe(s.cfg.HTTPAddress, mux)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn))
}

func (s *GameServer) handleConnection(conn network.Connection) {
	sess := session.NewSession(uuid.New().String(), conn)
	s.sessions.Add(sess)
	if s.monitor != nil {
		s.monitor.IncOnlinePlayers()
	}

	logger.Log.Infof("New connection from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed, session ID: %s", sess.GetID())
		s.handleDisconnect(sess)
		s.sessions.Remove(sess.GetID())
		if s.monitor != nil {
			s.monitor.DecOnlinePlayers()
		}
		conn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			event, err := conn.ReadEvent()
			if err != nil {
				return
			}
			s.handleEvent(sess, event)
		}
	}
}

// handleEvent dispatches one inbound event. Payload decoding and every
// membership/permission check happen here before any registry mutation.
func (s *GameServer) handleEvent(sess *session.Session, event *network.Event) {
	start := time.Now()
	sess.Touch()
	if s.monitor != nil {
		s.monitor.IncEventsReceived()
		defer func() {
			s.monitor.ObserveEventLatency(time.Since(start))
		}()
	}

	switch event.Name {
	case network.EventRoomJoin:
		s.handleRoomJoin(sess, event)
	case network.EventRoomLeave:
		s.handleRoomLeave(sess, event)
	case network.EventRoomMessage:
		s.handleRoomMessage(sess, event)
	case network.EventStrokeStart:
		s.handleStrokeStart(sess, event)
	case network.EventStrokeContinue:
		s.handleStrokeContinue(sess, event)
	case network.EventStrokeEnd:
		s.handleStrokeEnd(sess, event)
	case network.EventCanvasClear:
		s.handleCanvasClear(sess, event)
	case network.EventGameCreate:
		s.handleGameCreate(sess, event)
	case network.EventGameStart:
		s.handleGameStart(sess, event)
	default:
		logger.Log.Infof("Unknown event from session %s: %s", sess.GetID(), event.Name)
	}
}

// handleDisconnect behaves like room:leave for whatever room the
// connection was joined to.
func (s *GameServer) handleDisconnect(sess *session.Session) {
	r, _, found := s.rooms.GetPlayerRoom(sess.GetID())
	if !found {
		return
	}
	s.removeFromRoom(sess, r.Code)
}

func (s *GameServer) sendError(sess *session.Session, event, message string) {
	sess.Send(network.NewEvent(event, network.ErrorPayload{Message: message}))
}

func (s *GameServer) updateGauges() {
	if s.monitor == nil {
		return
	}
	s.monitor.SetActiveRooms(s.rooms.RoomCount())
	s.monitor.SetActiveGames(s.games.ActiveGameCount())
}
