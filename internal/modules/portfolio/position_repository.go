package portfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstock/agentstock/internal/database"
)

// PositionRepository handles position database operations
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "position").Logger(),
	}
}

// Get returns the position for (agent, symbol), or nil if none exists
func (r *PositionRepository) Get(agentID, symbol string) (*Position, error) {
	row := r.db.QueryRow(
		`SELECT id, agent_id, symbol, shares, avg_cost, created_at FROM positions WHERE agent_id = ? AND symbol = ?`,
		agentID, strings.ToUpper(strings.TrimSpace(symbol)),
	)

	pos, err := scanPosition(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	return pos, nil
}

// GetByAgent returns all of an agent's positions
func (r *PositionRepository) GetByAgent(agentID string) ([]Position, error) {
	return r.GetByAgentTx(r.db, agentID)
}

// GetByAgentTx is GetByAgent against an arbitrary Queryer, so the trade
// engine can read position state it has written inside a transaction.
func (r *PositionRepository) GetByAgentTx(q database.Queryer, agentID string) ([]Position, error) {
	rows, err := q.Query(
		`SELECT id, agent_id, symbol, shares, avg_cost, created_at FROM positions WHERE agent_id = ? ORDER BY symbol`,
		agentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		pos, err := scanPosition(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, *pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// Create inserts a new position row
func (r *PositionRepository) Create(q database.Queryer, pos Position) error {
	if pos.Shares <= 0 {
		return fmt.Errorf("cannot create position with %d shares", pos.Shares)
	}

	_, err := q.Exec(
		`INSERT INTO positions (id, agent_id, symbol, shares, avg_cost, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		pos.ID,
		pos.AgentID,
		strings.ToUpper(strings.TrimSpace(pos.Symbol)),
		pos.Shares,
		pos.AvgCost,
		pos.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}

	return nil
}

// UpdateBuy sets the new share count and recomputed average cost after a buy
func (r *PositionRepository) UpdateBuy(q database.Queryer, id string, shares int, avgCost float64) error {
	_, err := q.Exec(`UPDATE positions SET shares = ?, avg_cost = ? WHERE id = ?`, shares, avgCost, id)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	return nil
}

// SetShares reduces a position's share count after a partial sell.
// The average cost of the remaining shares is deliberately untouched.
func (r *PositionRepository) SetShares(q database.Queryer, id string, shares int) error {
	if shares <= 0 {
		return fmt.Errorf("cannot set position to %d shares, delete it instead", shares)
	}

	_, err := q.Exec(`UPDATE positions SET shares = ? WHERE id = ?`, shares, id)
	if err != nil {
		return fmt.Errorf("failed to set position shares: %w", err)
	}
	return nil
}

// Delete removes a position that has been sold down to zero shares
func (r *PositionRepository) Delete(q database.Queryer, id string) error {
	_, err := q.Exec(`DELETE FROM positions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return nil
}

func scanPosition(scan func(dest ...interface{}) error) (*Position, error) {
	var pos Position
	var createdAt string

	err := scan(&pos.ID, &pos.AgentID, &pos.Symbol, &pos.Shares, &pos.AvgCost, &createdAt)
	if err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse position created_at: %w", err)
	}
	pos.CreatedAt = t

	return &pos, nil
}
