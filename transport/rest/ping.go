package rest

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type statsResponse struct {
	ActivePlayers int `json:"active_players"`
	ActiveMatches int `json:"active_matches"`
}

func (that *Server) ping(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write ping response", "error", err)
	}
}

// stats - reports the active player count, every match holds two players.
func (that *Server) stats(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	active := that.players.Value()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(statsResponse{
		ActivePlayers: active,
		ActiveMatches: active / 2,
	}); err != nil {
		that.logger.Error("failed to write stats response", "error", err)
	}
}
