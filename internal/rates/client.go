package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/domain"
)

// Client fetches a live quote for one rate source.
type Client interface {
	FetchQuote(ctx context.Context, source domain.RateSource) (domain.RateQuote, error)
}

// HTTPClient fetches quotes from a dolarapi-style endpoint:
// GET {baseURL}/{source} returning compra/venta/fechaActualizacion.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a quote client. The timeout bounds each fetch;
// the external source is untrusted and may hang.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type quoteResponse struct {
	Compra decimal.Decimal `json:"compra"`
	Venta  decimal.Decimal `json:"venta"`
	Fecha  time.Time       `json:"fechaActualizacion"`
}

// dolarapi names two of the series differently than the market does.
var sourcePaths = map[domain.RateSource]string{
	domain.RateSourceMEP: "bolsa",
	domain.RateSourceCCL: "contadoconliqui",
}

func sourcePath(source domain.RateSource) string {
	if p, ok := sourcePaths[source]; ok {
		return p
	}
	return string(source)
}

// FetchQuote performs one GET against the rate source.
func (c *HTTPClient) FetchQuote(ctx context.Context, source domain.RateSource) (domain.RateQuote, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, sourcePath(source))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.RateQuote{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.RateQuote{}, fmt.Errorf("fetch %s quote: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RateQuote{}, fmt.Errorf("fetch %s quote: unexpected status %d", source, resp.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.RateQuote{}, fmt.Errorf("decode %s quote: %w", source, err)
	}

	if body.Venta.LessThanOrEqual(decimal.Zero) || body.Compra.LessThanOrEqual(decimal.Zero) {
		return domain.RateQuote{}, fmt.Errorf("fetch %s quote: non-positive rates", source)
	}

	asOf := body.Fecha
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	return domain.RateQuote{
		Source: source,
		Buy:    body.Compra,
		Sell:   body.Venta,
		AsOf:   asOf,
	}, nil
}
