package trading

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstock/agentstock/internal/database"
)

// TradeRepository handles trade database operations. Trades are
// append-only; there are no update or delete paths.
type TradeRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		db:  db,
		log: log.With().Str("repo", "trade").Logger(),
	}
}

// Create inserts a new trade record. Takes a Queryer so the engine can
// record the trade inside its settlement transaction.
func (r *TradeRepository) Create(q database.Queryer, trade Trade) error {
	_, err := q.Exec(
		`INSERT INTO trades (id, agent_id, symbol, side, shares, price, total, rationale, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.ID,
		trade.AgentID,
		strings.ToUpper(strings.TrimSpace(trade.Symbol)),
		string(trade.Side),
		trade.Shares,
		trade.Price,
		trade.Total,
		nullString(trade.Rationale),
		trade.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	return nil
}

// GetByAgent returns an agent's trades, most recent first
func (r *TradeRepository) GetByAgent(agentID string, limit int) ([]Trade, error) {
	rows, err := r.db.Query(
		`SELECT id, agent_id, symbol, side, shares, price, total, rationale, created_at
		 FROM trades
		 WHERE agent_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		agentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		trade, err := scanTrade(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, *trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// GetRecent returns the newest trades across all agents, joined with
// agent display names for the public feed
func (r *TradeRepository) GetRecent(limit int) ([]TradeWithAgent, error) {
	rows, err := r.db.Query(
		`SELECT t.id, t.agent_id, t.symbol, t.side, t.shares, t.price, t.total, t.rationale, t.created_at, a.name
		 FROM trades t
		 JOIN agents a ON t.agent_id = a.id
		 ORDER BY t.created_at DESC, t.id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent trades: %w", err)
	}
	defer rows.Close()

	var trades []TradeWithAgent
	for rows.Next() {
		var t TradeWithAgent
		var rationale sql.NullString
		var createdAt string

		err := rows.Scan(&t.ID, &t.AgentID, &t.Symbol, &t.Side, &t.Shares, &t.Price, &t.Total, &rationale, &createdAt, &t.AgentName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		t.Rationale = rationale.String
		t.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse trade created_at: %w", err)
		}

		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

func scanTrade(scan func(dest ...interface{}) error) (*Trade, error) {
	var trade Trade
	var rationale sql.NullString
	var createdAt string

	err := scan(
		&trade.ID,
		&trade.AgentID,
		&trade.Symbol,
		&trade.Side,
		&trade.Shares,
		&trade.Price,
		&trade.Total,
		&rationale,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	trade.Rationale = rationale.String

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse trade created_at: %w", err)
	}
	trade.CreatedAt = t

	return &trade, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
