package server

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/artsabotage/gameserver/logger"
	"github.com/artsabotage/gameserver/models"
	"github.com/artsabotage/gameserver/network"
	"github.com/artsabotage/gameserver/room"
	"github.com/artsabotage/gameserver/session"
)

// memberRoom normalizes the claimed room code and verifies the session
// is currently joined to that room. Every inbound event except the
// initial join goes through this before any mutation or broadcast.
func (s *GameServer) memberRoom(sess *session.Session, code string) (string, bool) {
	normalized := room.NormalizeCode(code)
	if normalized == "" || sess.RoomCode != normalized {
		return normalized, false
	}
	return normalized, true
}

func (s *GameServer) handleRoomJoin(sess *session.Session, event *network.Event) {
	var p network.JoinRoomPayload
	if err := json.Unmarshal(event.Data, &p); err != nil {
		s.sendError(sess, network.EventRoomError, "Invalid payload")
		return
	}

	name := strings.TrimSpace(p.PlayerName)
	if name == "" {
		s.sendError(sess, network.EventRoomError, "Player name is required")
		return
	}

	normalized := room.NormalizeCode(p.RoomCode)
	if !s.rooms.RoomExists(normalized) {
		s.sendError(sess, network.EventRoomError, "Room not found")
		return
	}

	// Joining a different room leaves the current one first; a session
	// is a member of at most one room.
	if sess.RoomCode != "" && sess.RoomCode != normalized {
		s.removeFromRoom(sess, sess.RoomCode)
	}

	r, ok := s.rooms.AddPlayerToRoom(normalized, name, sess.GetID())
	if !ok {
		s.sendError(sess, network.EventRoomError, "Could not join room")
		return
	}
	sess.RoomCode = normalized

	sess.Send(network.NewEvent(network.EventRoomJoined, network.RoomJoinedPayload{
		Code:     r.Code,
		Players:  r.Players,
		PlayerID: sess.GetID(),
	}))

	var joined *models.Player
	for _, pl := range r.Players {
		if pl.ID == sess.GetID() {
			joined = pl
			break
		}
	}
	s.broadcaster.BroadcastToRoomExcept(normalized, sess.GetID(),
		network.NewEvent(network.EventRoomPlayerJoined, network.PlayerJoinedPayload{
			Player:  joined,
			Players: r.Players,
		}))

	s.updateGauges()
}

func (s *GameServer) handleRoomLeave(sess *session.Session, event *network.Event) {
	var p network.LeaveRoomPayload
	if err := json.Unmarshal(event.Data, &p); err != nil {
		s.sendError(sess, network.EventRoomError, "Invalid payload")
		return
	}

	normalized, member := s.memberRoom(sess, p.RoomCode)
	if !member {
		s.sendError(sess, network.EventRoomError, "You are not in this room")
		return
	}

	s.removeFromRoom(sess, normalized)
}

// removeFromRoom is shared by room:leave and disconnect. If the room
// survives, the remaining members are notified; if it was the last
// player, the room is gone and any running game is torn down with it.
func (s *GameServer) removeFromRoom(sess *session.Session, code string) {
	updated, deleted := s.rooms.RemovePlayerFromRoom(code, sess.GetID())
	sess.RoomCode = ""

	if deleted {
		if g, ok := s.games.GetGameByRoomCode(code); ok && g.Phase != models.PhaseGameOver {
			s.cancelPhaseTimer(g.ID)
			s.games.EndGame(code)
		}
	} else if updated != nil {
		s.broadcaster.BroadcastToRoomExcept(code, sess.GetID(),
			network.NewEvent(network.EventRoomPlayerLeft, network.PlayerLeftPayload{
				PlayerID: sess.GetID(),
				Players:  updated.Players,
			}))
	}

	s.updateGauges()
}

func (s *GameServer) handleRoomMessage(sess *session.Session, event *network.Event) {
	var p network.RoomMessagePayload
	if err := json.Unmarshal(event.Data, &p); err != nil {
		s.sendError(sess, network.EventRoomError, "Invalid payload")
		return
	}

	normalized, member := s.memberRoom(sess, p.RoomCode)
	if !member {
		s.sendError(sess, network.EventRoomError, "You are not in this room")
		return
	}

	// Chat is a shared truth: everyone converges on the same transcript,
	// so the sender is included.
	s.broadcaster.BroadcastToRoom(normalized,
		network.NewEvent(network.EventRoomMessage, network.RoomMessageBroadcast{
			PlayerID:  sess.GetID(),
			Message:   p.Message,
			Timestamp: time.Now().Format(time.RFC3339),
		}))
}

func (s *GameServer) handleStrokeStart(sess *session.Session, event *network.Event) {
	var p network.StrokeStartPayload
	if err := json.Unmarshal(event.Data, &p); err != nil {
		return
	}

	normalized, member := s.memberRoom(sess, p.RoomCode)
	if !member {
		// High-frequency drawing traffic from non-members is dropped
		// without a reply.
		return
	}

	s.broadcaster.BroadcastToRoomExcept(normalized, sess.GetID(),
		network.NewEvent(network.EventStrokeStart, network.StrokeStartBroadcast{
			StrokeID:  p.StrokeID,
			PlayerID:  sess.GetID(),
			Point:     p.Point,
			Color:     p.Color,
			Width:     p.Width,
			Timestamp: time.Now().UnixMilli(),
		}))
	if s.monitor != nil {
		s.monitor.IncStrokesRelayed()
	}
}

func (s *GameServer) handleStrokeContinue(sess *session.Session, event *network.Event) {
	var p network.StrokeContinuePayload
	if err := json.Unmarshal(event.Data, &p); err != nil {
		return
	}

	normalized, member := s.memberRoom(sess, p.RoomCode)
	if !member {
		return
	}

	s.broadcaster.BroadcastToRoomExcept(normalized, sess.GetID(),
		network.NewEvent(network.EventStrokeContinue, network.StrokeContinueBroadcast{
			StrokeID:  p.StrokeID,
			PlayerID:  sess.GetID(),
			Point:     p.Point,
			Timestamp: time.Now().UnixMilli(),
		}))
	if s.monitor != nil {
		s.monitor.IncStrokesRelayed()
	}
}

func (s *GameServer) handleStrokeEnd(sess *session.Session, event *network.Event) {
	var p network.StrokeEndPayload
	if err := json.Unmarshal(event.Data, &p); err != nil {
		return
	}

	normalized, member := s.memberRoom(sess, p.RoomCode)
	if !member {
		return
	}

	s.broadcaster.BroadcastToRoomExcept(normalized, sess.GetID(),
		network.NewEvent(network.EventStrokeEnd, network.StrokeEndBroadcast{
			StrokeID:  p.StrokeID,
			PlayerID:  sess.GetID(),
			Timestamp: time.Now().UnixMilli(),
		}))
	if s.monitor != nil {
		s.monitor.IncStrokesRelayed()
	}
}

func (s *GameServer) handleCanvasClear(sess *session.Session, event *network.Event) {
	var p network.CanvasClearPayload
	if err := json.Unmarshal(event.Data, &p); err != nil {
		return
	}

	normalized, member := s.memberRoom(sess, p.RoomCode)
	if !member {
		return
	}

	// Unlike strokes, a clear resets everyone's canvas identically,
	// sender included.
	s.broadcaster.BroadcastToRoom(normalized,
		network.NewEvent(network.EventCanvasClear, network.CanvasClearBroadcast{
			PlayerID:  sess.GetID(),
			Timestamp: time.Now().UnixMilli(),
		}))
}

func (s *GameServer) handleGameCreate(sess *session.Session, event *network.Event) {
	var p network.GameCreatePayload
	if err := json.Unmarshal(event.Data, &p); err != nil {
		s.sendError(sess, network.EventGameError, "Invalid payload")
		return
	}

	normalized, member := s.memberRoom(sess, p.RoomCode)
	if !member {
		s.sendError(sess, network.EventGameError, "You are not in this room")
		return
	}
	if !s.isHost(sess) {
		s.sendError(sess, network.EventGameError, "Only the host can create a game")
		return
	}

	g, ok := s.games.CreateGame(normalized, p.Options)
	if !ok {
		s.sendError(sess, network.EventGameError,
			"Could not create game: the room needs at least 3 players and no game in progress")
		return
	}

	s.broadcaster.BroadcastToRoom(normalized,
		network.NewEvent(network.EventGameCreated, network.GameCreatedPayload{Game: g}))
	s.updateGauges()
}

func (s *GameServer) handleGameStart(sess *session.Session, event *network.Event) {
	var p network.GameStartPayload
	if err := json.Unmarshal(event.Data, &p); err != nil {
		s.sendError(sess, network.EventGameError, "Invalid payload")
		return
	}

	normalized, member := s.memberRoom(sess, p.RoomCode)
	if !member {
		s.sendError(sess, network.EventGameError, "You are not in this room")
		return
	}
	if !s.isHost(sess) {
		s.sendError(sess, network.EventGameError, "Only the host can start the game")
		return
	}

	result, ok := s.games.StartGame(normalized)
	if !ok {
		s.sendError(sess, network.EventGameError, "Could not start game")
		return
	}

	r, _ := s.rooms.GetRoomByCode(normalized)
	s.broadcaster.BroadcastToRoom(normalized,
		network.NewEvent(network.EventGameStarted, network.GameStartedPayload{
			Game:    result.Game,
			Players: r.Players,
		}))

	s.scheduleDrawingEnd(result.Game)
	s.updateGauges()
}

func (s *GameServer) isHost(sess *session.Session) bool {
	player, exists := s.players.GetByID(sess.GetID())
	return exists && player.IsHost
}

// --- phase timers ---

// scheduleDrawingEnd arms the DRAWING -> VOTING transition. The pending
// task is tracked per game id so an early end can cancel it; the fire
// handler re-checks phase anyway, so a stale task is harmless.
func (s *GameServer) scheduleDrawingEnd(g models.Game) {
	delay := time.Duration(g.DrawingTime) * time.Second
	id := s.timers.AddTimer(delay, 0, func() {
		s.onDrawingExpired(g.RoomCode, g.ID)
	})
	s.trackPhaseTimer(g.ID, id)
}

func (s *GameServer) scheduleVotingEnd(g models.Game) {
	delay := time.Duration(g.VotingTime) * time.Second
	id := s.timers.AddTimer(delay, 0, func() {
		s.onVotingExpired(g.RoomCode, g.ID)
	})
	s.trackPhaseTimer(g.ID, id)
}

func (s *GameServer) onDrawingExpired(roomCode, gameID string) {
	g, ok := s.games.GetGameByRoomCode(roomCode)
	if !ok || g.ID != gameID || g.Phase != models.PhaseDrawing {
		// Superseded by a manual override or an early end.
		return
	}

	updated, ok := s.games.SetPhase(roomCode, models.PhaseVoting)
	if !ok {
		return
	}
	s.broadcaster.BroadcastToRoom(roomCode,
		network.NewEvent(network.EventGamePhaseChange, network.PhaseChangePayload{
			Phase: models.PhaseVoting,
			Round: updated.Round,
		}))

	s.scheduleVotingEnd(updated)
}

func (s *GameServer) onVotingExpired(roomCode, gameID string) {
	g, ok := s.games.GetGameByRoomCode(roomCode)
	if !ok || g.ID != gameID || g.Phase != models.PhaseVoting {
		return
	}

	if g.Round >= g.MaxRounds {
		ended, ok := s.games.EndGame(roomCode)
		if !ok {
			return
		}
		s.clearPhaseTimer(g.ID)
		s.broadcaster.BroadcastToRoom(roomCode,
			network.NewEvent(network.EventGameEnded, network.GameEndedPayload{Game: ended}))
		s.updateGauges()
		return
	}

	advanced, ok := s.games.AdvanceRound(roomCode)
	if !ok {
		return
	}
	s.games.SetPhase(roomCode, models.PhaseDrawing)
	s.broadcaster.BroadcastToRoom(roomCode,
		network.NewEvent(network.EventGamePhaseChange, network.PhaseChangePayload{
			Phase: models.PhaseDrawing,
			Round: advanced.Round,
		}))

	s.scheduleDrawingEnd(advanced)
}

func (s *GameServer) trackPhaseTimer(gameID string, timerID int64) {
	s.phaseMutex.Lock()
	defer s.phaseMutex.Unlock()
	s.phaseTimers[gameID] = timerID
}

func (s *GameServer) cancelPhaseTimer(gameID string) {
	s.phaseMutex.Lock()
	defer s.phaseMutex.Unlock()
	if id, ok := s.phaseTimers[gameID]; ok {
		s.timers.RemoveTimer(id)
		delete(s.phaseTimers, gameID)
	}
	logger.Log.Debugf("Phase timer cancelled for game %s", gameID)
}

func (s *GameServer) clearPhaseTimer(gameID string) {
	s.phaseMutex.Lock()
	defer s.phaseMutex.Unlock()
	delete(s.phaseTimers, gameID)
}
