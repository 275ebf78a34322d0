package agents

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstock/agentstock/internal/database"
)

// Repository handles agent database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new agent repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "agent").Logger(),
	}
}

// Create registers a new agent with the starting cash balance
func (r *Repository) Create(name, secondMeID, avatar, bio string) (*Agent, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("agent name cannot be empty")
	}

	agent := &Agent{
		ID:         uuid.NewString(),
		Name:       name,
		SecondMeID: secondMeID,
		Avatar:     avatar,
		Bio:        bio,
		Cash:       StartingCash,
		TotalValue: StartingCash,
		CreatedAt:  time.Now().UTC(),
	}

	query := `
		INSERT INTO agents (id, name, secondme_id, avatar, bio, cash, total_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		agent.ID,
		agent.Name,
		nullString(agent.SecondMeID),
		nullString(agent.Avatar),
		nullString(agent.Bio),
		agent.Cash,
		agent.TotalValue,
		agent.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: secondme_id %s", ErrDuplicateAgent, secondMeID)
		}
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	r.log.Info().Str("agent_id", agent.ID).Str("name", agent.Name).Msg("Agent registered")

	return agent, nil
}

// GetByID returns an agent by id, or nil if it does not exist
func (r *Repository) GetByID(id string) (*Agent, error) {
	row := r.db.QueryRow(`SELECT id, name, secondme_id, avatar, bio, cash, total_value, created_at FROM agents WHERE id = ?`, id)
	agent, err := scanAgent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return agent, nil
}

// GetBySecondMeID returns an agent by its external identity, or nil
func (r *Repository) GetBySecondMeID(secondMeID string) (*Agent, error) {
	row := r.db.QueryRow(`SELECT id, name, secondme_id, avatar, bio, cash, total_value, created_at FROM agents WHERE secondme_id = ?`, secondMeID)
	agent, err := scanAgent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent by secondme_id: %w", err)
	}
	return agent, nil
}

// GetAll returns all agents ordered by cached total value, highest first
func (r *Repository) GetAll() ([]Agent, error) {
	rows, err := r.db.Query(`SELECT id, name, secondme_id, avatar, bio, cash, total_value, created_at FROM agents ORDER BY total_value DESC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	var result []Agent
	for rows.Next() {
		agent, err := scanAgent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		result = append(result, *agent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agents: %w", err)
	}

	return result, nil
}

// UpdateValue persists an agent's cash and recomputed total value.
// Takes a Queryer so the trade engine can run it inside its transaction.
func (r *Repository) UpdateValue(q database.Queryer, id string, cash, totalValue float64) error {
	res, err := q.Exec(`UPDATE agents SET cash = ?, total_value = ? WHERE id = ?`, cash, totalValue, id)
	if err != nil {
		return fmt.Errorf("failed to update agent value: %w", err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return ErrAgentNotFound
	}

	return nil
}

func scanAgent(scan func(dest ...interface{}) error) (*Agent, error) {
	var agent Agent
	var secondMeID, avatar, bio sql.NullString
	var createdAt string

	err := scan(
		&agent.ID,
		&agent.Name,
		&secondMeID,
		&avatar,
		&bio,
		&agent.Cash,
		&agent.TotalValue,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	agent.SecondMeID = secondMeID.String
	agent.Avatar = avatar.String
	agent.Bio = bio.String

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse agent created_at: %w", err)
	}
	agent.CreatedAt = t

	return &agent, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
