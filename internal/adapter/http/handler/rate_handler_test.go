package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/adapter/http/dto"
	"github.com/atelierhq/studioledger/internal/currency"
	"github.com/atelierhq/studioledger/internal/domain"
)

type stubRates struct {
	quote domain.RateQuote
	err   error
	calls int
}

func (s *stubRates) GetRate(_ context.Context, source domain.RateSource) (domain.RateQuote, error) {
	s.calls++
	if s.err != nil {
		return domain.RateQuote{}, s.err
	}

	quote := s.quote
	quote.Source = source

	return quote, nil
}

func (s *stubRates) GetAllRates(ctx context.Context) map[domain.RateSource]domain.RateQuote {
	quote, _ := s.GetRate(ctx, domain.RateSourceBlue)

	return map[domain.RateSource]domain.RateQuote{domain.RateSourceBlue: quote}
}

type stubRateStore struct {
	quote domain.RateQuote
	err   error
}

func (s *stubRateStore) LatestQuote(_ context.Context, source domain.RateSource) (domain.RateQuote, error) {
	if s.err != nil {
		return domain.RateQuote{}, s.err
	}

	quote := s.quote
	quote.Source = source

	return quote, nil
}

// memoryCache is an in-process usecase.Cache for handler tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	lastTTL time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries[key]
	if !ok {
		return nil, domain.ErrRateUnavailable
	}

	return value, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = value
	c.lastTTL = ttl

	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}

func testQuote() domain.RateQuote {
	return domain.RateQuote{
		Buy:  decimal.NewFromInt(1000),
		Sell: decimal.NewFromInt(1050),
		AsOf: time.Now().UTC(),
	}
}

func TestRateHandler_ListCachesBoard(t *testing.T) {
	rates := &stubRates{quote: testQuote()}
	cache := newMemoryCache()
	h := NewRateHandler(rates, nil, cache, 0)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/rates/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var board map[string]dto.RateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("decode board: %v", err)
	}
	if _, ok := board["blue"]; !ok {
		t.Fatalf("expected blue quote in board, got %v", board)
	}

	// Second request is served from cache without hitting the provider.
	before := rates.calls
	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/rates/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("cached status = %d, want 200", rec.Code)
	}
	if rates.calls != before {
		t.Errorf("provider called %d more times, want cache hit", rates.calls-before)
	}
}

func TestRateHandler_BoardTTL(t *testing.T) {
	cache := newMemoryCache()
	h := NewRateHandler(&stubRates{quote: testQuote()}, nil, cache, 45*time.Second)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/rates/", nil))

	if cache.lastTTL != 45*time.Second {
		t.Errorf("board cached with TTL %s, want 45s", cache.lastTTL)
	}

	// Zero falls back to the default.
	cache = newMemoryCache()
	h = NewRateHandler(&stubRates{quote: testQuote()}, nil, cache, 0)

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/rates/", nil))

	if cache.lastTTL != DefaultBoardTTL {
		t.Errorf("board cached with TTL %s, want %s", cache.lastTTL, DefaultBoardTTL)
	}
}

func TestRateHandler_Get(t *testing.T) {
	h := NewRateHandler(&stubRates{quote: testQuote()}, nil, nil, 0)

	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/rates/blue", nil), "source", "blue")
	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp dto.RateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Source != "blue" || !resp.Sell.Equal(decimal.NewFromInt(1050)) {
		t.Errorf("unexpected quote %+v", resp)
	}
}

func TestRateHandler_GetUnavailable(t *testing.T) {
	h := NewRateHandler(&stubRates{err: domain.ErrRateUnavailable}, nil, nil, 0)

	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/rates/blue", nil), "source", "blue")
	h.Get(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestRateHandler_Preview(t *testing.T) {
	converter := currency.NewService(&stubRateStore{quote: testQuote()})
	h := NewRateHandler(&stubRates{quote: testQuote()}, converter, nil, 0)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rates/preview?amount=100&from=USD&to=ARS", nil)
	h.Preview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp dto.ConversionPreviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Converted.Equal(decimal.NewFromInt(105000)) {
		t.Errorf("converted = %s, want 105000", resp.Converted)
	}
	if resp.FormattedConverted != "$ 105.000,00" {
		t.Errorf("formatted = %q", resp.FormattedConverted)
	}
}

func TestRateHandler_PreviewInvalidInput(t *testing.T) {
	converter := currency.NewService(&stubRateStore{quote: testQuote()})
	h := NewRateHandler(&stubRates{}, converter, nil, 0)

	cases := []string{
		"/rates/preview?amount=abc&from=USD&to=ARS",
		"/rates/preview?amount=100&from=GBP&to=ARS",
		"/rates/preview?amount=100&from=USD&to=??",
	}

	for _, url := range cases {
		rec := httptest.NewRecorder()
		h.Preview(rec, httptest.NewRequest(http.MethodGet, url, nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", url, rec.Code)
		}
	}
}
