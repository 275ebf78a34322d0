package agents

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// Handlers contains HTTP handlers for agent registration
type Handlers struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandlers creates new agent handlers
func NewHandlers(repo *Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo: repo,
		log:  log.With().Str("handler", "agents").Logger(),
	}
}

type createAgentRequest struct {
	Name       string `json:"name"`
	SecondMeID string `json:"secondmeId"`
	Avatar     string `json:"avatar"`
	Bio        string `json:"bio"`
}

// HandleCreateAgent registers a new agent
// POST /api/agents
func (h *Handlers) HandleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "Invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "Name is required"})
		return
	}

	agent, err := h.repo.Create(req.Name, req.SecondMeID, req.Avatar, req.Bio)
	if err != nil {
		if errors.Is(err, ErrDuplicateAgent) {
			writeJSON(w, http.StatusConflict, map[string]interface{}{"success": false, "error": "Agent already registered"})
			return
		}
		h.log.Error().Err(err).Msg("Failed to create agent")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "Failed to create agent"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "agent": agent})
}

// HandleListAgents returns all registered agents
// GET /api/agents
func (h *Handlers) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list agents")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "Failed to fetch agents"})
		return
	}

	if all == nil {
		all = []Agent{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "agents": all})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
