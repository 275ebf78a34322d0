package portfolio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstock/agentstock/internal/database"
	"github.com/agentstock/agentstock/internal/modules/agents"
	"github.com/agentstock/agentstock/internal/modules/market"
	"github.com/agentstock/agentstock/pkg/logger"
)

type valuatorFixture struct {
	db        *database.DB
	valuator  *Valuator
	agents    *agents.Repository
	positions *PositionRepository
	quotes    *market.QuoteRepository
}

func newValuatorFixture(t *testing.T) *valuatorFixture {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	agentRepo := agents.NewRepository(db.Conn(), log)
	positionRepo := NewPositionRepository(db.Conn(), log)
	quoteRepo := market.NewQuoteRepository(db.Conn(), log)

	return &valuatorFixture{
		db:        db,
		valuator:  NewValuator(agentRepo, positionRepo, quoteRepo, log),
		agents:    agentRepo,
		positions: positionRepo,
		quotes:    quoteRepo,
	}
}

func (f *valuatorFixture) addPosition(t *testing.T, agentID, symbol string, shares int, avgCost float64) {
	t.Helper()
	require.NoError(t, f.positions.Create(f.db, Position{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		Symbol:    symbol,
		Shares:    shares,
		AvgCost:   avgCost,
		CreatedAt: time.Now(),
	}))
}

func TestValuate_MarksPositionsToMarket(t *testing.T) {
	f := newValuatorFixture(t)
	agent, err := f.agents.Create("alpha", "", "", "")
	require.NoError(t, err)
	require.NoError(t, f.agents.UpdateValue(f.db, agent.ID, 40000, 40000))

	f.addPosition(t, agent.ID, "AAPL", 100, 150)
	f.addPosition(t, agent.ID, "NVDA", 10, 500)
	require.NoError(t, f.quotes.Upsert("AAPL", 180, 0, 0, time.Now()))
	require.NoError(t, f.quotes.Upsert("NVDA", 450, 0, 0, time.Now()))

	p, err := f.valuator.Valuate(agent.ID)
	require.NoError(t, err)

	assert.Equal(t, 40000.0, p.Cash)
	// 100*180 + 10*450
	assert.Equal(t, 22500.0, p.PositionsValue)
	assert.Equal(t, 62500.0, p.Total)
	require.Len(t, p.Positions, 2)

	var apple PositionView
	for _, v := range p.Positions {
		if v.Symbol == "AAPL" {
			apple = v
		}
	}
	assert.Equal(t, 180.0, apple.CurrentPrice)
	assert.Equal(t, 18000.0, apple.Value)
	assert.Equal(t, 3000.0, apple.PnL)
	assert.InDelta(t, 20.0, apple.PnLPercent, 0.001)
}

func TestValuate_FallsBackToCostBasisOnCacheMiss(t *testing.T) {
	f := newValuatorFixture(t)
	agent, err := f.agents.Create("alpha", "", "", "")
	require.NoError(t, err)

	f.addPosition(t, agent.ID, "SHOP", 20, 75)

	p, err := f.valuator.Valuate(agent.ID)
	require.NoError(t, err)
	require.Len(t, p.Positions, 1)

	assert.Equal(t, 75.0, p.Positions[0].CurrentPrice)
	assert.Equal(t, 1500.0, p.Positions[0].Value)
	assert.Equal(t, 0.0, p.Positions[0].PnL)
}

func TestValuate_AgentNotFound(t *testing.T) {
	f := newValuatorFixture(t)

	_, err := f.valuator.Valuate("no-such-agent")
	assert.ErrorIs(t, err, agents.ErrAgentNotFound)
}

func TestLeaderboard_RanksByTotalValue(t *testing.T) {
	f := newValuatorFixture(t)

	low, err := f.agents.Create("low", "", "", "")
	require.NoError(t, err)
	high, err := f.agents.Create("high", "", "", "")
	require.NoError(t, err)
	mid, err := f.agents.Create("mid", "", "", "")
	require.NoError(t, err)

	require.NoError(t, f.agents.UpdateValue(f.db, low.ID, 50000, 50000))
	require.NoError(t, f.agents.UpdateValue(f.db, high.ID, 90000, 90000))
	require.NoError(t, f.agents.UpdateValue(f.db, mid.ID, 20000, 20000))

	// mid also holds stock worth 50,000, lifting it above low.
	f.addPosition(t, mid.ID, "AAPL", 500, 90)
	require.NoError(t, f.quotes.Upsert("AAPL", 100, 0, 0, time.Now()))

	entries, err := f.valuator.Leaderboard()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, []string{"high", "mid", "low"}, []string{entries[0].Name, entries[1].Name, entries[2].Name})
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
	assert.Equal(t, 90000.0, entries[0].Total)
	assert.Equal(t, 70000.0, entries[1].Total)
}

func TestLeaderboard_Deterministic(t *testing.T) {
	f := newValuatorFixture(t)
	for _, name := range []string{"a", "b", "c", "d"} {
		_, err := f.agents.Create(name, "", "", "")
		require.NoError(t, err)
	}

	first, err := f.valuator.Leaderboard()
	require.NoError(t, err)
	second, err := f.valuator.Leaderboard()
	require.NoError(t, err)

	// All four tie on total; the ordering must still be stable.
	assert.Equal(t, first, second)
}

func TestStats_SummarizesField(t *testing.T) {
	f := newValuatorFixture(t)

	a, err := f.agents.Create("a", "", "", "")
	require.NoError(t, err)
	b, err := f.agents.Create("b", "", "", "")
	require.NoError(t, err)
	c, err := f.agents.Create("c", "", "", "")
	require.NoError(t, err)

	require.NoError(t, f.agents.UpdateValue(f.db, a.ID, 80000, 80000))
	require.NoError(t, f.agents.UpdateValue(f.db, b.ID, 100000, 100000))
	require.NoError(t, f.agents.UpdateValue(f.db, c.ID, 120000, 120000))

	stats, err := f.valuator.Stats()
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Agents)
	assert.InDelta(t, 100000.0, stats.Mean, 0.001)
	assert.InDelta(t, 100000.0, stats.Median, 0.001)
	assert.InDelta(t, 20000.0, stats.StdDev, 0.001)
	assert.Equal(t, "c", stats.TopAgent)
	assert.Equal(t, 120000.0, stats.TopTotal)
}

func TestStats_EmptyField(t *testing.T) {
	f := newValuatorFixture(t)

	stats, err := f.valuator.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Agents)
	assert.Equal(t, 0.0, stats.Mean)
}
