package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/adapter/http/dto"
	"github.com/atelierhq/studioledger/internal/currency"
	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/usecase"
)

const rateBoardCacheKey = "rates:board"

// DefaultBoardTTL is how long the full rate board stays cached.
const DefaultBoardTTL = 30 * time.Second

// RateHandler serves market quotes. The full board is cached briefly so a
// dashboard polling it does not hammer the upstream API.
type RateHandler struct {
	provider  usecase.RateProvider
	converter *currency.Service
	cache     usecase.Cache
	boardTTL  time.Duration
}

// NewRateHandler creates a new RateHandler. converter and cache may be
// nil; a zero boardTTL falls back to DefaultBoardTTL.
func NewRateHandler(provider usecase.RateProvider, converter *currency.Service, cache usecase.Cache, boardTTL time.Duration) *RateHandler {
	if boardTTL <= 0 {
		boardTTL = DefaultBoardTTL
	}

	return &RateHandler{
		provider:  provider,
		converter: converter,
		cache:     cache,
		boardTTL:  boardTTL,
	}
}

// List returns quotes for every known source.
func (h *RateHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), rateBoardCacheKey); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Write(cached)

			return
		}
	}

	quotes := h.provider.GetAllRates(r.Context())

	board := make(map[string]dto.RateResponse, len(quotes))
	for source, quote := range quotes {
		board[string(source)] = dto.RateFromDomain(quote)
	}

	body, err := json.Marshal(board)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode rates", err.Error())
		return
	}

	if h.cache != nil {
		h.cache.Set(r.Context(), rateBoardCacheKey, body, h.boardTTL)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// Get returns the quote for one source.
func (h *RateHandler) Get(w http.ResponseWriter, r *http.Request) {
	source := domain.RateSource(chi.URLParam(r, "source"))

	quote, err := h.provider.GetRate(r.Context(), source)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get rate", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RateFromDomain(quote))
}

// Preview converts an amount using the latest persisted quote without
// touching any balance. Useful for quoting a client before moving money.
func (h *RateHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.converter == nil {
		writeError(w, http.StatusServiceUnavailable, "conversion preview unavailable", "no rate store configured")
		return
	}

	query := r.URL.Query()

	amount, err := decimal.NewFromString(query.Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	from, err := domain.ParseCurrency(query.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from currency", err.Error())
		return
	}

	to, err := domain.ParseCurrency(query.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to currency", err.Error())
		return
	}

	source := domain.RateSource(query.Get("source"))
	if source == "" {
		source = domain.RateSourceBlue
	}

	converted, err := h.converter.Convert(r.Context(), amount, from, to, source)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to convert", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConversionPreviewResponse{
		Amount:             amount,
		FromCurrency:       string(from),
		ToCurrency:         string(to),
		Source:             string(source),
		Converted:          converted,
		FormattedAmount:    h.converter.Format(amount, from),
		FormattedConverted: h.converter.Format(converted, to),
	})
}
