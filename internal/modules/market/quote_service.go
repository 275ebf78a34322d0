package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// FreshnessWindow is the maximum age a cached quote may have before the
// provider is consulted again.
const FreshnessWindow = 15 * time.Minute

// defaultRefreshPace spaces bulk refresh calls to stay inside the Polygon
// free-tier rate limit (5 calls/minute).
const defaultRefreshPace = 12 * time.Second

// QuoteService serves quotes from the cache, refreshing from the provider
// when an entry is missing or stale. Provider failures fall back to the
// stale cached entry so trading degrades instead of halting.
type QuoteService struct {
	repo     *QuoteRepository
	provider QuoteProvider
	group    singleflight.Group
	now      func() time.Time
	freshFor time.Duration
	pace     time.Duration
	log      zerolog.Logger
}

// NewQuoteService creates a new quote service
func NewQuoteService(repo *QuoteRepository, provider QuoteProvider, log zerolog.Logger) *QuoteService {
	return &QuoteService{
		repo:     repo,
		provider: provider,
		now:      time.Now,
		freshFor: FreshnessWindow,
		pace:     defaultRefreshPace,
		log:      log.With().Str("service", "quotes").Logger(),
	}
}

// GetQuote returns the quote for a symbol, serving the cache when fresh.
// On a miss or stale entry it fetches from the provider; concurrent
// refreshes for the same symbol are collapsed into one provider call.
func (s *QuoteService) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !IsTradable(symbol) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	cached, err := s.repo.Get(symbol)
	if err != nil {
		return nil, err
	}

	if cached != nil && s.now().Sub(cached.UpdatedAt) < s.freshFor {
		return quoteFromCache(cached, false), nil
	}

	v, err, _ := s.group.Do(symbol, func() (interface{}, error) {
		return s.refresh(ctx, symbol)
	})
	if err != nil {
		if cached != nil {
			s.log.Warn().
				Err(err).
				Str("symbol", symbol).
				Time("cached_at", cached.UpdatedAt).
				Msg("Provider failed, serving stale quote")
			return quoteFromCache(cached, true), nil
		}
		return nil, fmt.Errorf("%w for %s: %v", ErrQuoteUnavailable, symbol, err)
	}

	return v.(*Quote), nil
}

// refresh fetches a fresh quote from the provider and upserts the cache
func (s *QuoteService) refresh(ctx context.Context, symbol string) (*Quote, error) {
	pq, err := s.provider.Fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}

	change := pq.Price - pq.Open
	changePercent := 0.0
	if pq.Open != 0 {
		changePercent = change / pq.Open * 100
	}

	now := s.now()
	if err := s.repo.Upsert(symbol, pq.Price, change, changePercent, now); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("symbol", symbol).
		Float64("price", pq.Price).
		Msg("Quote refreshed")

	return &Quote{
		Symbol:        symbol,
		Price:         pq.Price,
		Change:        change,
		ChangePercent: changePercent,
		UpdatedAt:     now,
	}, nil
}

// RefreshAll refreshes every instrument in the universe, pacing calls to
// respect the provider rate limit. Best-effort: individual failures are
// logged and skipped.
func (s *QuoteService) RefreshAll(ctx context.Context) error {
	refreshed := 0
	for i, inst := range Universe {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if _, err := s.GetQuote(ctx, inst.Symbol); err != nil {
			s.log.Error().Err(err).Str("symbol", inst.Symbol).Msg("Failed to refresh quote")
		} else {
			refreshed++
		}

		if i < len(Universe)-1 && s.pace > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pace):
			}
		}
	}

	s.log.Info().
		Int("refreshed", refreshed).
		Int("universe", len(Universe)).
		Msg("Price refresh sweep completed")

	return nil
}

// AvailableInstruments returns the universe with latest cached prices merged in
func (s *QuoteService) AvailableInstruments() ([]InstrumentQuote, error) {
	cached, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}

	bySymbol := make(map[string]CachedQuote, len(cached))
	for _, q := range cached {
		bySymbol[q.Symbol] = q
	}

	result := make([]InstrumentQuote, 0, len(Universe))
	for _, inst := range Universe {
		iq := InstrumentQuote{Symbol: inst.Symbol, Name: inst.Name}
		if q, ok := bySymbol[inst.Symbol]; ok {
			price, change, changePct := q.Price, q.Change, q.ChangePercent
			iq.Price = &price
			iq.Change = &change
			iq.ChangePercent = &changePct
		}
		result = append(result, iq)
	}

	return result, nil
}

func quoteFromCache(c *CachedQuote, stale bool) *Quote {
	return &Quote{
		Symbol:        c.Symbol,
		Price:         c.Price,
		Change:        c.Change,
		ChangePercent: c.ChangePercent,
		UpdatedAt:     c.UpdatedAt,
		Stale:         stale,
	}
}
