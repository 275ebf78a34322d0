package portfolio

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/agentstock/agentstock/internal/modules/agents"
	"github.com/agentstock/agentstock/internal/modules/market"
)

// Valuator computes mark-to-market portfolio values and the leaderboard
// from ledger state plus cached prices. Pure reads, no persistent state.
type Valuator struct {
	agents    *agents.Repository
	positions *PositionRepository
	quotes    *market.QuoteRepository
	log       zerolog.Logger
}

// NewValuator creates a new valuator
func NewValuator(agentRepo *agents.Repository, positionRepo *PositionRepository, quoteRepo *market.QuoteRepository, log zerolog.Logger) *Valuator {
	return &Valuator{
		agents:    agentRepo,
		positions: positionRepo,
		quotes:    quoteRepo,
		log:       log.With().Str("service", "valuator").Logger(),
	}
}

// Valuate returns one agent's portfolio marked to latest cached prices.
// A position with no cached price is valued at its cost basis so
// valuation never fails outright on a cache miss.
func (v *Valuator) Valuate(agentID string) (*Portfolio, error) {
	agent, err := v.agents.GetByID(agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, agents.ErrAgentNotFound
	}

	positions, err := v.positions.GetByAgent(agentID)
	if err != nil {
		return nil, err
	}

	prices, err := v.quotes.PriceMap()
	if err != nil {
		return nil, err
	}

	views, positionsValue := valuePositions(positions, prices)

	return &Portfolio{
		Cash:           agent.Cash,
		PositionsValue: positionsValue,
		Total:          agent.Cash + positionsValue,
		Positions:      views,
	}, nil
}

// Leaderboard valuates every agent and returns them ranked by total
// portfolio value, highest first. Ties break by registration order.
func (v *Valuator) Leaderboard() ([]LeaderboardEntry, error) {
	allAgents, err := v.agents.GetAll()
	if err != nil {
		return nil, err
	}

	prices, err := v.quotes.PriceMap()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(allAgents))
	for _, agent := range allAgents {
		positions, err := v.positions.GetByAgent(agent.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to valuate agent %s: %w", agent.ID, err)
		}

		_, positionsValue := valuePositions(positions, prices)
		entries = append(entries, LeaderboardEntry{
			AgentID:        agent.ID,
			Name:           agent.Name,
			Avatar:         agent.Avatar,
			Cash:           agent.Cash,
			PositionsValue: positionsValue,
			Total:          agent.Cash + positionsValue,
			CreatedAt:      agent.CreatedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].AgentID < entries[j].AgentID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries, nil
}

// Stats summarizes the current leaderboard
func (v *Valuator) Stats() (*LeaderboardStats, error) {
	entries, err := v.Leaderboard()
	if err != nil {
		return nil, err
	}

	stats := &LeaderboardStats{Agents: len(entries)}
	if len(entries) == 0 {
		return stats, nil
	}

	totals := make([]float64, len(entries))
	for i, e := range entries {
		totals[i] = e.Total
	}

	stats.Mean = stat.Mean(totals, nil)
	if len(totals) > 1 {
		stats.StdDev = stat.StdDev(totals, nil)
	}

	sorted := make([]float64, len(totals))
	copy(sorted, totals)
	sort.Float64s(sorted)
	stats.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	stats.TopAgent = entries[0].Name
	stats.TopTotal = entries[0].Total

	return stats, nil
}

// valuePositions marks positions to the given price map, falling back to
// each position's cost basis when no price is cached.
func valuePositions(positions []Position, prices map[string]float64) ([]PositionView, float64) {
	views := make([]PositionView, 0, len(positions))
	total := 0.0

	for _, pos := range positions {
		currentPrice, ok := prices[pos.Symbol]
		if !ok {
			currentPrice = pos.AvgCost
		}

		value := float64(pos.Shares) * currentPrice
		cost := float64(pos.Shares) * pos.AvgCost
		pnl := value - cost

		pnlPercent := 0.0
		if cost != 0 {
			pnlPercent = pnl / cost * 100
		}

		total += value
		views = append(views, PositionView{
			Symbol:       pos.Symbol,
			Shares:       pos.Shares,
			AvgCost:      pos.AvgCost,
			CurrentPrice: currentPrice,
			Value:        value,
			PnL:          pnl,
			PnLPercent:   pnlPercent,
		})
	}

	return views, total
}
