package trading

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/agentstock/agentstock/internal/database"
	"github.com/agentstock/agentstock/internal/modules/agents"
	"github.com/agentstock/agentstock/internal/modules/market"
	"github.com/agentstock/agentstock/internal/modules/portfolio"
)

// MinTradeAmount is the minimum ticket size in dollars. Buys below it are
// rejected to keep micro-trades out of the history feed.
const MinTradeAmount = 1000

// txAttempts bounds retries when the settlement transaction cannot commit.
const txAttempts = 3

var minTicket = decimal.NewFromInt(MinTradeAmount)

// Engine validates and executes buy/sell orders against the ledger. Every
// order runs under the agent's lock so per-agent executions are
// linearizable; the cash, position, trade, and total-value writes commit
// as one transaction.
type Engine struct {
	db        *database.DB
	agents    *agents.Repository
	positions *portfolio.PositionRepository
	trades    *TradeRepository
	quotes    *market.QuoteService
	prices    *market.QuoteRepository
	locks     agentLocks
	log       zerolog.Logger
}

// NewEngine creates a new trade engine
func NewEngine(
	db *database.DB,
	agentRepo *agents.Repository,
	positionRepo *portfolio.PositionRepository,
	tradeRepo *TradeRepository,
	quoteService *market.QuoteService,
	quoteRepo *market.QuoteRepository,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		db:        db,
		agents:    agentRepo,
		positions: positionRepo,
		trades:    tradeRepo,
		quotes:    quoteService,
		prices:    quoteRepo,
		log:       log.With().Str("service", "trade_engine").Logger(),
	}
}

// Buy executes a buy order: debit cash, grow or create the position with
// a volume-weighted average cost, record the trade, and refresh the
// agent's total value.
func (e *Engine) Buy(ctx context.Context, agentID, symbol string, shares int, rationale string) (*Trade, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if shares <= 0 {
		return nil, fmt.Errorf("%w: shares must be a positive integer", ErrInvalidOrder)
	}
	if !market.IsTradable(symbol) {
		return nil, fmt.Errorf("%w: %s is not in the tradable universe", ErrInvalidOrder, symbol)
	}

	mu := e.locks.get(agentID)
	mu.Lock()
	defer mu.Unlock()

	agent, err := e.agents.GetByID(agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, agents.ErrAgentNotFound
	}

	quote, err := e.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	price := decimal.NewFromFloat(quote.Price)
	qty := decimal.NewFromInt(int64(shares))
	cost := price.Mul(qty).Round(2)

	if cost.LessThan(minTicket) {
		return nil, fmt.Errorf("%w: trade must be at least $%d, got $%s", ErrBelowMinimumTrade, MinTradeAmount, cost.StringFixed(2))
	}

	cash := decimal.NewFromFloat(agent.Cash)
	if cash.LessThan(cost) {
		return nil, &InsufficientFundsError{Need: cost.InexactFloat64(), Have: agent.Cash}
	}

	pos, err := e.positions.Get(agentID, symbol)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newCash := cash.Sub(cost)
	trade := Trade{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		Symbol:    symbol,
		Side:      TradeSideBuy,
		Shares:    shares,
		Price:     quote.Price,
		Total:     cost.InexactFloat64(),
		Rationale: rationale,
		CreatedAt: now,
	}

	err = e.execTx(func(tx *sql.Tx) error {
		if pos == nil {
			return e.applyFirstBuy(tx, trade, now, newCash)
		}

		// Volume-weighted average over old basis plus this purchase.
		newShares := pos.Shares + shares
		oldBasis := decimal.NewFromFloat(pos.AvgCost).Mul(decimal.NewFromInt(int64(pos.Shares)))
		newAvg := oldBasis.Add(price.Mul(qty)).Div(decimal.NewFromInt(int64(newShares))).Round(4)

		if err := e.positions.UpdateBuy(tx, pos.ID, newShares, newAvg.InexactFloat64()); err != nil {
			return err
		}
		if err := e.trades.Create(tx, trade); err != nil {
			return err
		}
		return e.settle(tx, agentID, newCash)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("agent_id", agentID).
		Str("symbol", symbol).
		Int("shares", shares).
		Float64("price", quote.Price).
		Float64("total", trade.Total).
		Msg("Buy executed")

	return &trade, nil
}

func (e *Engine) applyFirstBuy(tx *sql.Tx, trade Trade, now time.Time, newCash decimal.Decimal) error {
	err := e.positions.Create(tx, portfolio.Position{
		ID:        uuid.NewString(),
		AgentID:   trade.AgentID,
		Symbol:    trade.Symbol,
		Shares:    trade.Shares,
		AvgCost:   trade.Price,
		CreatedAt: now,
	})
	if err != nil {
		return err
	}
	if err := e.trades.Create(tx, trade); err != nil {
		return err
	}
	return e.settle(tx, trade.AgentID, newCash)
}

// Sell executes a sell order: credit proceeds, shrink or delete the
// position (cost basis of remaining shares unchanged), record the trade,
// and refresh the agent's total value. Sells have no minimum ticket or
// funds gate; share availability is the only check.
func (e *Engine) Sell(ctx context.Context, agentID, symbol string, shares int, rationale string) (*Trade, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if shares <= 0 {
		return nil, fmt.Errorf("%w: shares must be a positive integer", ErrInvalidOrder)
	}
	if !market.IsTradable(symbol) {
		return nil, fmt.Errorf("%w: %s is not in the tradable universe", ErrInvalidOrder, symbol)
	}

	mu := e.locks.get(agentID)
	mu.Lock()
	defer mu.Unlock()

	agent, err := e.agents.GetByID(agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, agents.ErrAgentNotFound
	}

	pos, err := e.positions.Get(agentID, symbol)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return nil, &InsufficientSharesError{Symbol: symbol, Held: 0, Requested: shares}
	}
	if pos.Shares < shares {
		return nil, &InsufficientSharesError{Symbol: symbol, Held: pos.Shares, Requested: shares}
	}

	quote, err := e.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	price := decimal.NewFromFloat(quote.Price)
	proceeds := price.Mul(decimal.NewFromInt(int64(shares))).Round(2)
	newCash := decimal.NewFromFloat(agent.Cash).Add(proceeds)
	remaining := pos.Shares - shares

	trade := Trade{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		Symbol:    symbol,
		Side:      TradeSideSell,
		Shares:    shares,
		Price:     quote.Price,
		Total:     proceeds.InexactFloat64(),
		Rationale: rationale,
		CreatedAt: time.Now().UTC(),
	}

	err = e.execTx(func(tx *sql.Tx) error {
		if remaining == 0 {
			if err := e.positions.Delete(tx, pos.ID); err != nil {
				return err
			}
		} else {
			if err := e.positions.SetShares(tx, pos.ID, remaining); err != nil {
				return err
			}
		}
		if err := e.trades.Create(tx, trade); err != nil {
			return err
		}
		return e.settle(tx, agentID, newCash)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("agent_id", agentID).
		Str("symbol", symbol).
		Int("shares", shares).
		Float64("price", quote.Price).
		Float64("total", trade.Total).
		Msg("Sell executed")

	return &trade, nil
}

// settle recomputes the agent's total value from post-trade cash plus the
// mark-to-market of all positions at latest cached prices, and persists
// cash and total together. Positions without a cached price are valued at
// cost basis.
func (e *Engine) settle(tx *sql.Tx, agentID string, newCash decimal.Decimal) error {
	positions, err := e.positions.GetByAgentTx(tx, agentID)
	if err != nil {
		return err
	}

	prices, err := e.prices.PriceMap()
	if err != nil {
		return err
	}

	total := newCash
	for _, pos := range positions {
		price, ok := prices[pos.Symbol]
		if !ok {
			price = pos.AvgCost
		}
		total = total.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(pos.Shares))))
	}

	return e.agents.UpdateValue(tx, agentID, newCash.InexactFloat64(), total.Round(2).InexactFloat64())
}

// execTx runs fn inside a transaction. Begin/commit failures are retried
// a bounded number of times; errors from fn itself are not, since they
// represent invalid business state rather than transient contention.
func (e *Engine) execTx(fn func(tx *sql.Tx) error) error {
	var lastErr error

	for attempt := 0; attempt < txAttempts; attempt++ {
		tx, err := e.db.Begin()
		if err != nil {
			lastErr = err
			continue
		}

		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			lastErr = err
			continue
		}

		return nil
	}

	return fmt.Errorf("%w: %v", ErrConcurrencyConflict, lastErr)
}
