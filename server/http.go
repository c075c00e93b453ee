package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/artsabotage/gameserver/logger"
	"github.com/artsabotage/gameserver/models"
	"github.com/artsabotage/gameserver/room"
)

// The HTTP surface only reads and creates through the room registry.
// Actual membership changes happen over the event channel.

type createRoomRequest struct {
	PlayerName string `json:"playerName"`
}

type joinRoomRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type roomResponse struct {
	Code    string           `json:"code"`
	Players []*models.Player `json:"players"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *GameServer) registerHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.withCORS(s.handleHealth))
	mux.HandleFunc("/rooms", s.withCORS(s.handleCreateRoom))
	mux.HandleFunc("/rooms/join", s.withCORS(s.handleJoinRoom))
}

func (s *GameServer) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Errorf("Error encoding response: %v", err)
	}
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"timestamp":   time.Now().Format(time.RFC3339),
		"environment": s.cfg.Environment,
	})
}

func (s *GameServer) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.PlayerName) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Player name is required"})
		return
	}

	// The caller joins over the websocket afterwards; the room starts empty.
	created, err := s.rooms.CreateRoom()
	if err != nil {
		if errors.Is(err, room.ErrCodeSpaceExhausted) {
			logger.Log.Errorf("Room code generation failed: %v", err)
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Could not create room"})
		return
	}

	s.updateGauges()
	writeJSON(w, http.StatusCreated, roomResponse{Code: created.Code, Players: created.Players})
}

func (s *GameServer) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.RoomCode) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Room code is required"})
		return
	}
	if strings.TrimSpace(req.PlayerName) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Player name is required"})
		return
	}

	found, exists := s.rooms.GetRoomByCode(req.RoomCode)
	if !exists {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Room not found"})
		return
	}

	writeJSON(w, http.StatusOK, roomResponse{Code: found.Code, Players: found.Players})
}
