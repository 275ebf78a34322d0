package portfolio

import "time"

// Position represents currently-held shares of one symbol for one agent.
// A row exists only while shares > 0; avg_cost is the volume-weighted
// average price paid for the shares still held.
type Position struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Symbol    string    `json:"symbol"`
	Shares    int       `json:"shares"`
	AvgCost   float64   `json:"avg_cost"`
	CreatedAt time.Time `json:"created_at"`
}

// PositionView is a position marked to market for display
type PositionView struct {
	Symbol       string  `json:"symbol"`
	Shares       int     `json:"shares"`
	AvgCost      float64 `json:"avgCost"`
	CurrentPrice float64 `json:"currentPrice"`
	Value        float64 `json:"value"`
	PnL          float64 `json:"pnl"`
	PnLPercent   float64 `json:"pnlPercent"`
}

// Portfolio is one agent's cash plus marked-to-market positions
type Portfolio struct {
	Cash           float64        `json:"cash"`
	PositionsValue float64        `json:"positionsValue"`
	Total          float64        `json:"total"`
	Positions      []PositionView `json:"positions"`
}

// LeaderboardEntry is one ranked agent on the leaderboard
type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	AgentID        string    `json:"agent_id"`
	Name           string    `json:"name"`
	Avatar         string    `json:"avatar,omitempty"`
	Cash           float64   `json:"cash"`
	PositionsValue float64   `json:"positionsValue"`
	Total          float64   `json:"total"`
	CreatedAt      time.Time `json:"created_at"`
}

// LeaderboardStats summarizes the field's portfolio values
type LeaderboardStats struct {
	Agents   int     `json:"agents"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	StdDev   float64 `json:"std_dev"`
	TopAgent string  `json:"top_agent,omitempty"`
	TopTotal float64 `json:"top_total"`
}
