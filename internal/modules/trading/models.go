package trading

import (
	"fmt"
	"strings"
	"time"
)

// TradeSide represents the trade direction
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// IsValid checks if the trade side is valid
func (ts TradeSide) IsValid() bool {
	return ts == TradeSideBuy || ts == TradeSideSell
}

// TradeSideFromString creates a TradeSide from a string (case-insensitive)
func TradeSideFromString(value string) (TradeSide, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "buy":
		return TradeSideBuy, nil
	case "sell":
		return TradeSideSell, nil
	default:
		return "", fmt.Errorf("invalid trade side: %q", value)
	}
}

// Trade is an immutable record of one executed order. Rows are append-only
// and form the audit trail.
type Trade struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Symbol    string    `json:"symbol"`
	Side      TradeSide `json:"type"`
	Shares    int       `json:"shares"`
	Price     float64   `json:"price"`
	Total     float64   `json:"total"`
	Rationale string    `json:"rationale,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TradeWithAgent is a trade joined with the agent's display name, used by
// the global recent-trades feed.
type TradeWithAgent struct {
	Trade
	AgentName string `json:"agent_name"`
}
