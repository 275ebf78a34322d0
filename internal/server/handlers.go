package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agentstock/agentstock/internal/modules/trading"
)

// handleHealth returns service health
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleGetAgent returns one agent with its portfolio and trade history
// GET /api/agents/{agentId}
func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")

	agent, err := s.cfg.AgentRepo.GetByID(agentID)
	if err != nil {
		s.log.Error().Err(err).Str("agent_id", agentID).Msg("Failed to get agent")
		s.respondJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "Failed to fetch agent"})
		return
	}
	if agent == nil {
		s.respondJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Agent not found"})
		return
	}

	p, err := s.cfg.Valuator.Valuate(agentID)
	if err != nil {
		s.log.Error().Err(err).Str("agent_id", agentID).Msg("Failed to valuate agent")
		s.respondJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "Failed to fetch agent"})
		return
	}

	trades, err := s.cfg.TradeRepo.GetByAgent(agentID, 100)
	if err != nil {
		s.log.Error().Err(err).Str("agent_id", agentID).Msg("Failed to get agent trades")
		s.respondJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "Failed to fetch agent"})
		return
	}

	if trades == nil {
		trades = []trading.Trade{}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"agent":     agent,
		"portfolio": p,
		"trades":    trades,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
