package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"liirat-news/internal/entity"
	"liirat-news/internal/worker/repository"
	"liirat-news/pkg/logger"
	"liirat-news/pkg/pricecache"
	"liirat-news/pkg/utils"
)

// PriceRefreshPayload is the job payload. Without symbols every tracked asset is refreshed.
type PriceRefreshPayload struct {
	Symbols []string `json:"symbols"`
}

type priceRefreshResult struct {
	Status  string   `json:"status"`
	Updated []string `json:"updated"`
	Failed  []string `json:"failed"`
	Errors  []string `json:"errors"`
}

// PriceRefreshStrategy fetches quotes and publishes the ticker snapshot.
type PriceRefreshStrategy struct {
	quotes repository.QuoteRepository
	assets repository.AssetRepository
	store  pricecache.Store
	logger *logger.Logger
	now    func() time.Time
}

func NewPriceRefreshStrategy(quotes repository.QuoteRepository, assets repository.AssetRepository, store pricecache.Store, log *logger.Logger) *PriceRefreshStrategy {
	return &PriceRefreshStrategy{quotes: quotes, assets: assets, store: store, logger: log, now: time.Now}
}

func (s *PriceRefreshStrategy) GetType() entity.JobType {
	return entity.JobTypePriceRefresh
}

func (s *PriceRefreshStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	var payload PriceRefreshPayload
	if err := json.Unmarshal(job.PayloadBytes(), &payload); err != nil {
		return "", fmt.Errorf("failed to unmarshal job payload: %w", err)
	}

	symbols, names, err := s.symbols(ctx, payload)
	if err != nil {
		return "", err
	}
	if len(symbols) == 0 {
		return marshalResult(priceRefreshResult{Status: SKIPPED})
	}

	result := priceRefreshResult{Updated: []string{}, Failed: []string{}, Errors: []string{}}
	quotes := make([]pricecache.Quote, 0, len(symbols))
	var lastErr error
	for _, symbol := range symbols {
		if !utils.ShouldContinue(ctx, s.logger) {
			break
		}
		q, err := s.quotes.Quote(ctx, symbol)
		if err != nil {
			s.logger.Warn("Failed to fetch quote", logger.StringField("symbol", symbol), logger.ErrorField(err))
			result.Failed = append(result.Failed, symbol)
			result.Errors = append(result.Errors, err.Error())
			lastErr = err
			if errors.Is(err, repository.ErrMissingTwelveDataKey) {
				break
			}
			continue
		}
		if q.Name == "" {
			q.Name = names[symbol]
		}
		quotes = append(quotes, *q)
		result.Updated = append(result.Updated, symbol)
	}

	now := s.now().UTC()
	if len(quotes) == 0 {
		if lastErr == nil {
			lastErr = ctx.Err()
		}
		if err := s.store.RecordFailure(ctx, lastErr, now); err != nil {
			s.logger.Error("Failed to record price refresh failure", logger.ErrorField(err))
		}
		return "", fmt.Errorf("no quotes refreshed: %w", lastErr)
	}

	if err := s.store.Save(ctx, quotes, now); err != nil {
		return "", fmt.Errorf("failed to save price snapshot: %w", err)
	}
	for _, q := range quotes {
		if err := s.assets.UpdatePrice(ctx, q.Symbol, q.Price, q.ChangePercent, now); err != nil {
			s.logger.Warn("Failed to update asset price", logger.StringField("symbol", q.Symbol), logger.ErrorField(err))
		}
	}

	result.Status = SUCCESS
	if len(result.Failed) > 0 {
		result.Status = PARTIAL
	}
	return marshalResult(result)
}

func (s *PriceRefreshStrategy) symbols(ctx context.Context, payload PriceRefreshPayload) ([]string, map[string]string, error) {
	names := map[string]string{}
	if len(payload.Symbols) > 0 {
		out := make([]string, 0, len(payload.Symbols))
		for _, sym := range payload.Symbols {
			if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
				out = append(out, sym)
			}
		}
		return out, names, nil
	}

	assets, err := s.assets.FindAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get assets: %w", err)
	}
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.Symbol)
		names[a.Symbol] = a.Name
	}
	return out, names, nil
}

func marshalResult(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	return string(b), nil
}
