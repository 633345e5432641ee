package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
)

// getMatch - returns the board and turn of a match that is still being played.
func (that *Server) getMatch(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	log := that.logger.With("method", "getMatch")

	id := params.ByName("id")

	match, err := that.matchRepo.GetByID(r.Context(), id)
	if errors.Is(err, apperror.ErrMatchNotFound) {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get match", "match_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(match); err != nil {
		log.Error("failed to write match response", "error", err)
	}
}
