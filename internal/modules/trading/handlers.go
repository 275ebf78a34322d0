package trading

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/agentstock/agentstock/internal/modules/agents"
	"github.com/agentstock/agentstock/internal/modules/market"
)

// Handlers contains HTTP handlers for trade execution and history
type Handlers struct {
	engine *Engine
	trades *TradeRepository
	log    zerolog.Logger
}

// NewHandlers creates new trading handlers
func NewHandlers(engine *Engine, trades *TradeRepository, log zerolog.Logger) *Handlers {
	return &Handlers{
		engine: engine,
		trades: trades,
		log:    log.With().Str("handler", "trading").Logger(),
	}
}

type tradeRequest struct {
	AgentID   string `json:"agentId"`
	Symbol    string `json:"symbol"`
	Shares    int    `json:"shares"`
	Type      string `json:"type"`
	Rationale string `json:"rationale"`
}

type tradeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Trade   *Trade `json:"trade,omitempty"`
}

// HandleTrade executes a buy or sell order
// POST /api/trade
func (h *Handlers) HandleTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, tradeResponse{Success: false, Message: "Invalid request body"})
		return
	}

	if req.AgentID == "" || req.Symbol == "" || req.Shares == 0 || req.Type == "" {
		writeJSON(w, http.StatusBadRequest, tradeResponse{Success: false, Message: "Missing required fields"})
		return
	}

	side, err := TradeSideFromString(req.Type)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, tradeResponse{Success: false, Message: "Invalid trade type"})
		return
	}

	var trade *Trade
	switch side {
	case TradeSideBuy:
		trade, err = h.engine.Buy(r.Context(), req.AgentID, req.Symbol, req.Shares, req.Rationale)
	case TradeSideSell:
		trade, err = h.engine.Sell(r.Context(), req.AgentID, req.Symbol, req.Shares, req.Rationale)
	}

	if err != nil {
		status := statusForTradeError(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("agent_id", req.AgentID).Str("symbol", req.Symbol).Msg("Trade failed")
			writeJSON(w, status, tradeResponse{Success: false, Message: "Trade failed"})
			return
		}
		writeJSON(w, status, tradeResponse{Success: false, Message: err.Error()})
		return
	}

	verb := "Bought"
	if side == TradeSideSell {
		verb = "Sold"
	}

	writeJSON(w, http.StatusOK, tradeResponse{
		Success: true,
		Message: fmt.Sprintf("%s %d shares of %s at $%.2f", verb, trade.Shares, trade.Symbol, trade.Price),
		Trade:   trade,
	})
}

// HandleGetRecentTrades returns the global recent-trades feed
// GET /api/trades?limit=
func (h *Handlers) HandleGetRecentTrades(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	trades, err := h.trades.GetRecent(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get recent trades")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "Failed to get trades"})
		return
	}

	if trades == nil {
		trades = []TradeWithAgent{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "trades": trades})
}

// statusForTradeError maps the trade error taxonomy to HTTP status codes
func statusForTradeError(err error) int {
	switch {
	case errors.Is(err, agents.ErrAgentNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrQuoteUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidOrder),
		errors.Is(err, market.ErrUnknownSymbol),
		errors.Is(err, ErrBelowMinimumTrade),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInsufficientShares):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
