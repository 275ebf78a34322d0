package portfolio

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/agentstock/agentstock/internal/modules/agents"
)

// Handlers contains HTTP handlers for portfolio and leaderboard reads
type Handlers struct {
	valuator *Valuator
	log      zerolog.Logger
}

// NewHandlers creates new portfolio handlers
func NewHandlers(valuator *Valuator, log zerolog.Logger) *Handlers {
	return &Handlers{
		valuator: valuator,
		log:      log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetPortfolio returns one agent's marked-to-market portfolio
// GET /api/portfolio/{agentId}
func (h *Handlers) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")

	p, err := h.valuator.Valuate(agentID)
	if err != nil {
		if errors.Is(err, agents.ErrAgentNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Agent not found"})
			return
		}
		h.log.Error().Err(err).Str("agent_id", agentID).Msg("Failed to valuate portfolio")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "Failed to fetch portfolio"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "portfolio": p})
}

// HandleGetLeaderboard returns all agents ranked by portfolio value
// GET /api/leaderboard
func (h *Handlers) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.valuator.Leaderboard()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build leaderboard")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "Failed to fetch leaderboard"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "leaderboard": entries})
}

// HandleGetLeaderboardStats returns summary statistics for the field
// GET /api/leaderboard/stats
func (h *Handlers) HandleGetLeaderboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.valuator.Stats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute leaderboard stats")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "Failed to fetch stats"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stats": stats})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
