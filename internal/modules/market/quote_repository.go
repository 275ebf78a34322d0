package market

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// QuoteRepository handles stock_cache database operations
type QuoteRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *sql.DB, log zerolog.Logger) *QuoteRepository {
	return &QuoteRepository{
		db:  db,
		log: log.With().Str("repo", "quote").Logger(),
	}
}

// Upsert overwrites the cached quote for a symbol. Last writer wins.
func (r *QuoteRepository) Upsert(symbol string, price, change, changePercent float64, updatedAt time.Time) error {
	query := `
		INSERT INTO stock_cache (symbol, price, change, change_percent, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			price = excluded.price,
			change = excluded.change,
			change_percent = excluded.change_percent,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		strings.ToUpper(strings.TrimSpace(symbol)),
		price,
		change,
		changePercent,
		updatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert quote: %w", err)
	}

	return nil
}

// Get returns the cached quote for a symbol, or nil if none exists
func (r *QuoteRepository) Get(symbol string) (*CachedQuote, error) {
	query := `
		SELECT symbol, price, change, change_percent, updated_at
		FROM stock_cache
		WHERE symbol = ?
	`

	row := r.db.QueryRow(query, strings.ToUpper(strings.TrimSpace(symbol)))

	var q CachedQuote
	var updatedAt string
	err := row.Scan(&q.Symbol, &q.Price, &q.Change, &q.ChangePercent, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached quote: %w", err)
	}

	q.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quote timestamp: %w", err)
	}

	return &q, nil
}

// GetAll returns all cached quotes ordered by symbol
func (r *QuoteRepository) GetAll() ([]CachedQuote, error) {
	query := `
		SELECT symbol, price, change, change_percent, updated_at
		FROM stock_cache
		ORDER BY symbol
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached quotes: %w", err)
	}
	defer rows.Close()

	var quotes []CachedQuote
	for rows.Next() {
		var q CachedQuote
		var updatedAt string
		if err := rows.Scan(&q.Symbol, &q.Price, &q.Change, &q.ChangePercent, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cached quote: %w", err)
		}
		q.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse quote timestamp: %w", err)
		}
		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cached quotes: %w", err)
	}

	return quotes, nil
}

// PriceMap returns symbol -> latest cached price for all cached symbols
func (r *QuoteRepository) PriceMap() (map[string]float64, error) {
	quotes, err := r.GetAll()
	if err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(quotes))
	for _, q := range quotes {
		prices[q.Symbol] = q.Price
	}

	return prices, nil
}
