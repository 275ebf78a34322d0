package market

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Handlers contains HTTP handlers for market data
type Handlers struct {
	quotes *QuoteService
	log    zerolog.Logger
}

// NewHandlers creates new market handlers
func NewHandlers(quotes *QuoteService, log zerolog.Logger) *Handlers {
	return &Handlers{
		quotes: quotes,
		log:    log.With().Str("handler", "market").Logger(),
	}
}

// HandleGetMarket returns the tradable universe with cached prices
// GET /api/market
func (h *Handlers) HandleGetMarket(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.quotes.AvailableInstruments()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch market data")
		http.Error(w, "Failed to fetch market data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"stocks":  stocks,
	})
}
