package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstock/agentstock/internal/modules/market"
)

// PriceRefreshJob sweeps the instrument universe and refreshes cached
// quotes. Best-effort: it only writes the quote cache and never blocks
// trade execution, which always resolves quotes on demand.
type PriceRefreshJob struct {
	quotes  *market.QuoteService
	timeout time.Duration
	log     zerolog.Logger
}

// NewPriceRefreshJob creates a new price refresh job
func NewPriceRefreshJob(quotes *market.QuoteService, log zerolog.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		quotes:  quotes,
		timeout: 10 * time.Minute,
		log:     log.With().Str("job", "price_refresh").Logger(),
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Run refreshes all cached quotes
func (j *PriceRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	return j.quotes.RefreshAll(ctx)
}
