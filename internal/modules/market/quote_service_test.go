package market

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstock/agentstock/internal/database"
	"github.com/agentstock/agentstock/pkg/logger"
)

type fakeProvider struct {
	mu     sync.Mutex
	calls  int
	quotes map[string]ProviderQuote
	err    error
}

func (f *fakeProvider) Fetch(ctx context.Context, symbol string) (*ProviderQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, errors.New("no data")
	}
	return &q, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestService(t *testing.T, provider *fakeProvider) (*QuoteService, *QuoteRepository) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	repo := NewQuoteRepository(db.Conn(), log)
	svc := NewQuoteService(repo, provider, log)
	svc.pace = 0
	return svc, repo
}

func TestGetQuote_ServesFreshCache(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]ProviderQuote{}}
	svc, repo := newTestService(t, provider)

	now := time.Now()
	svc.now = func() time.Time { return now }
	require.NoError(t, repo.Upsert("AAPL", 175.50, 1.25, 0.72, now.Add(-5*time.Minute)))

	q, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 175.50, q.Price)
	assert.False(t, q.Stale)
	assert.Equal(t, 0, provider.callCount(), "a fresh cache entry must not hit the provider")
}

func TestGetQuote_RefreshesStaleEntry(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]ProviderQuote{
		"AAPL": {Price: 180, Open: 176, Volume: 1000},
	}}
	svc, repo := newTestService(t, provider)

	now := time.Now()
	svc.now = func() time.Time { return now }
	require.NoError(t, repo.Upsert("AAPL", 175.50, 0, 0, now.Add(-20*time.Minute)))

	q, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 180.0, q.Price)
	assert.Equal(t, 4.0, q.Change)
	assert.InDelta(t, 2.27, q.ChangePercent, 0.01)
	assert.False(t, q.Stale)
	assert.Equal(t, 1, provider.callCount())

	cached, err := repo.Get("AAPL")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 180.0, cached.Price)
	assert.WithinDuration(t, now, cached.UpdatedAt, time.Second)
}

func TestGetQuote_StaleFallbackWhenProviderFails(t *testing.T) {
	provider := &fakeProvider{err: errors.New("rate limited")}
	svc, repo := newTestService(t, provider)

	now := time.Now()
	svc.now = func() time.Time { return now }
	require.NoError(t, repo.Upsert("AAPL", 175.50, 1.25, 0.72, now.Add(-2*time.Hour)))

	q, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err, "a stale quote is still usable when the provider is down")
	assert.Equal(t, 175.50, q.Price)
	assert.True(t, q.Stale)
}

func TestGetQuote_UnavailableWithoutCache(t *testing.T) {
	provider := &fakeProvider{err: errors.New("rate limited")}
	svc, _ := newTestService(t, provider)

	_, err := svc.GetQuote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestGetQuote_UnknownSymbol(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]ProviderQuote{}}
	svc, _ := newTestService(t, provider)

	_, err := svc.GetQuote(context.Background(), "ENRON")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
	assert.Equal(t, 0, provider.callCount())
}

func TestGetQuote_NormalizesSymbol(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]ProviderQuote{
		"AAPL": {Price: 180, Open: 176},
	}}
	svc, _ := newTestService(t, provider)

	q, err := svc.GetQuote(context.Background(), "  aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
}

func TestRefreshAll_SweepsUniverse(t *testing.T) {
	quotes := make(map[string]ProviderQuote, len(Universe))
	for _, inst := range Universe {
		quotes[inst.Symbol] = ProviderQuote{Price: 100, Open: 99}
	}
	provider := &fakeProvider{quotes: quotes}
	svc, repo := newTestService(t, provider)

	require.NoError(t, svc.RefreshAll(context.Background()))

	cached, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, cached, len(Universe))
	assert.Equal(t, len(Universe), provider.callCount())
}

func TestRefreshAll_StopsOnCancelledContext(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]ProviderQuote{}}
	svc, _ := newTestService(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.RefreshAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAvailableInstruments_MergesCachedPrices(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]ProviderQuote{}}
	svc, repo := newTestService(t, provider)

	require.NoError(t, repo.Upsert("AAPL", 175.50, 1.25, 0.72, time.Now()))

	instruments, err := svc.AvailableInstruments()
	require.NoError(t, err)
	require.Len(t, instruments, len(Universe))

	for _, iq := range instruments {
		if iq.Symbol == "AAPL" {
			require.NotNil(t, iq.Price)
			assert.Equal(t, 175.50, *iq.Price)
		} else {
			assert.Nil(t, iq.Price, "%s has no cached quote yet", iq.Symbol)
		}
	}
}
