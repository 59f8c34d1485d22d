package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"liirat-news/internal/worker/config"
	"liirat-news/pkg/logger"
	"liirat-news/pkg/pricecache"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

var ErrMissingTwelveDataKey = errors.New("Missing TWELVE_DATA_API_KEY")

// QuoteRepository fetches the latest quote for a symbol.
type QuoteRepository interface {
	Quote(ctx context.Context, symbol string) (*pricecache.Quote, error)
}

type twelveDataRepository struct {
	cfg            config.TwelveData
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

func NewTwelveDataRepository(cfg config.TwelveData, log *logger.Logger) QuoteRepository {
	if cfg.MaxRequestPerMinute <= 0 {
		cfg.MaxRequestPerMinute = 8
	}
	secondsPerRequest := time.Minute / time.Duration(cfg.MaxRequestPerMinute)
	return &twelveDataRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

type twelveDataQuote struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Close         string `json:"close"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`

	// set on error payloads, which arrive with HTTP 200
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Quote returns the latest quote. symbol is the ticker symbol (EURUSD), not the provider form (EUR/USD).
func (r *twelveDataRepository) Quote(ctx context.Context, symbol string) (*pricecache.Quote, error) {
	if r.cfg.APIKey == "" {
		return nil, ErrMissingTwelveDataKey
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		r.log.ErrorContext(ctx, "Failed to wait for request limit", logger.ErrorField(err))
		return nil, err
	}

	params := url.Values{}
	params.Set("symbol", ProviderSymbol(symbol))
	params.Set("apikey", r.cfg.APIKey)
	endpoint := strings.TrimRight(r.cfg.BaseURL, "/") + "/quote?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to send request to Twelve Data", logger.ErrorField(err), logger.StringField("symbol", symbol))
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twelve data returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var q twelveDataQuote
	if err := json.Unmarshal(body, &q); err != nil {
		return nil, fmt.Errorf("failed to decode quote: %w", err)
	}
	if q.Status == "error" {
		return nil, fmt.Errorf("twelve data error %d: %s", q.Code, q.Message)
	}

	price, err := decimal.NewFromString(q.Close)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q for %s: %w", q.Close, symbol, err)
	}
	quote := &pricecache.Quote{Symbol: symbol, Name: q.Name, Price: price}
	if v, err := decimal.NewFromString(q.Change); err == nil {
		quote.Change = v
	}
	if v, err := decimal.NewFromString(q.PercentChange); err == nil {
		quote.ChangePercent = v
	}
	return quote, nil
}

var quoteCurrencies = []string{"USD", "EUR", "GBP", "JPY", "CHF", "CAD", "AUD", "NZD"}

// ProviderSymbol turns six-letter pairs such as EURUSD or XAUUSD into EUR/USD form. Stock tickers pass through.
func ProviderSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if len(s) != 6 || strings.Contains(s, "/") {
		return s
	}
	for _, c := range quoteCurrencies {
		if strings.HasSuffix(s, c) {
			return s[:3] + "/" + s[3:]
		}
	}
	return s
}
