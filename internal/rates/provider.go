// Package rates serves USD/ARS market quotes with a short-lived cache and
// a stale-cache fallback when the external source is down.
package rates

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/domain"
)

// DefaultTTL is how long a fetched quote stays fresh.
const DefaultTTL = 5 * time.Minute

// Sink persists quotes as they are fetched, so the rest of the system can
// convert with the latest known rate even when the source is down.
type Sink interface {
	SaveQuote(ctx context.Context, quote domain.RateQuote) error
}

type cachedQuote struct {
	quote     domain.RateQuote
	fetchedAt time.Time
}

// Provider is the live rate provider. The cache is the only shared
// mutable state here; races are benign (worst case a redundant fetch).
type Provider struct {
	client Client
	sink   Sink
	ttl    time.Duration
	log    zerolog.Logger

	mu    sync.RWMutex
	cache map[domain.RateSource]cachedQuote

	now func() time.Time
}

// Option configures a Provider.
type Option func(*Provider)

// WithTTL overrides the cache TTL.
func WithTTL(ttl time.Duration) Option {
	return func(p *Provider) { p.ttl = ttl }
}

// WithSink sets the quote persistence sink.
func WithSink(sink Sink) Option {
	return func(p *Provider) { p.sink = sink }
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// NewProvider creates a Provider around a quote client.
func NewProvider(client Client, log zerolog.Logger, opts ...Option) *Provider {
	p := &Provider{
		client: client,
		ttl:    DefaultTTL,
		log:    log,
		cache:  make(map[domain.RateSource]cachedQuote),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// defaultQuote is the last-resort rate used when even the blue source is
// unavailable and no cache exists. Callers always get a full rate map.
func defaultQuote(source domain.RateSource, at time.Time) domain.RateQuote {
	return domain.RateQuote{
		Source: source,
		Buy:    decimal.NewFromInt(1000),
		Sell:   decimal.NewFromInt(1050),
		AsOf:   at,
	}
}

// GetRate returns the quote for one source, serving from cache within the
// TTL. On provider failure a stale cache entry is returned (degraded);
// with no cache at all the operation fails with ErrRateUnavailable.
func (p *Provider) GetRate(ctx context.Context, source domain.RateSource) (domain.RateQuote, error) {
	if !source.IsValid() {
		return domain.RateQuote{}, fmt.Errorf("%w: %q", domain.ErrUnknownRateSource, source)
	}

	if quote, ok := p.cachedFresh(source); ok {
		return quote, nil
	}

	quote, err := p.client.FetchQuote(ctx, source)
	if err == nil {
		p.store(source, quote)
		p.persist(ctx, quote)

		return quote, nil
	}

	if stale, ok := p.cachedAny(source); ok {
		p.log.Warn().
			Err(err).
			Str("source", string(source)).
			Time("as_of", stale.AsOf).
			Msg("rate source unavailable, serving stale quote")

		return stale, nil
	}

	return domain.RateQuote{}, fmt.Errorf("%w: %s: %v", domain.ErrRateUnavailable, source, err)
}

// GetAllRates fetches every known source concurrently. A failed source is
// back-filled with the blue quote; if blue itself is unavailable the
// hardcoded default fills in, so the caller never sees a partial map.
func (p *Provider) GetAllRates(ctx context.Context) map[domain.RateSource]domain.RateQuote {
	type result struct {
		source domain.RateSource
		quote  domain.RateQuote
		err    error
	}

	results := make([]result, len(domain.KnownRateSources))

	var wg sync.WaitGroup
	for i, source := range domain.KnownRateSources {
		wg.Add(1)

		go func(i int, source domain.RateSource) {
			defer wg.Done()

			quote, err := p.GetRate(ctx, source)
			results[i] = result{source: source, quote: quote, err: err}
		}(i, source)
	}
	wg.Wait()

	blue, blueOK := defaultQuote(domain.RateSourceBlue, p.now().UTC()), false
	for _, r := range results {
		if r.source == domain.RateSourceBlue && r.err == nil {
			blue, blueOK = r.quote, true
			break
		}
	}

	if !blueOK {
		p.log.Warn().Msg("blue rate unavailable, backfilling with default quote")
	}

	all := make(map[domain.RateSource]domain.RateQuote, len(results))
	for _, r := range results {
		if r.err != nil {
			fill := blue
			fill.Source = r.source
			all[r.source] = fill

			continue
		}

		all[r.source] = r.quote
	}

	return all
}

func (p *Provider) cachedFresh(source domain.RateSource) (domain.RateQuote, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.cache[source]
	if !ok || p.now().Sub(entry.fetchedAt) > p.ttl {
		return domain.RateQuote{}, false
	}

	return entry.quote, true
}

func (p *Provider) cachedAny(source domain.RateSource) (domain.RateQuote, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.cache[source]

	return entry.quote, ok
}

func (p *Provider) store(source domain.RateSource, quote domain.RateQuote) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cache[source] = cachedQuote{quote: quote, fetchedAt: p.now()}
}

func (p *Provider) persist(ctx context.Context, quote domain.RateQuote) {
	if p.sink == nil {
		return
	}

	if err := p.sink.SaveQuote(ctx, quote); err != nil {
		p.log.Warn().Err(err).Str("source", string(quote.Source)).Msg("failed to persist quote")
	}
}
