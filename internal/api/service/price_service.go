package service

import (
	"context"
	"time"

	"liirat-news/internal/api/dto"
	"liirat-news/pkg/logger"
	"liirat-news/pkg/pricecache"
)

type PriceService interface {
	Ticker(ctx context.Context) (*dto.PriceTickerResponse, error)
}

func NewPriceService(store pricecache.Store, staleAfter time.Duration, policy DegradePolicy, log *logger.Logger) PriceService {
	if staleAfter <= 0 {
		staleAfter = 3 * time.Minute
	}
	if policy == nil {
		policy = DefaultDegradePolicy()
	}
	return &priceService{store: store, staleAfter: staleAfter, policy: policy, logger: log, now: time.Now}
}

type priceService struct {
	store      pricecache.Store
	staleAfter time.Duration
	policy     DegradePolicy
	logger     *logger.Logger
	now        func() time.Time
}

// Ticker serves the worker's last snapshot. Sample prices are returned, flagged
// as fallback, when no snapshot exists or it cannot be read.
func (s *priceService) Ticker(ctx context.Context) (*dto.PriceTickerResponse, error) {
	res := s.load(ctx)
	if res.Err != nil && !res.Fallback {
		return nil, res.Err
	}
	return res.Data, nil
}

func (s *priceService) load(ctx context.Context) Result[*dto.PriceTickerResponse] {
	now := s.now()
	snap, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("Failed to read price snapshot", logger.ErrorField(err))
		if !s.policy.Degrade(DataPrices) {
			return Result[*dto.PriceTickerResponse]{Err: err}
		}
		return Degraded(s.fallback(err.Error(), nil), err, now)
	}

	if snap.Empty() {
		var since *time.Time
		if !snap.LastErrorAt.IsZero() {
			since = &snap.LastErrorAt
		}
		resp := s.fallback(snap.LastError, since)
		return Result[*dto.PriceTickerResponse]{Data: resp, Stale: true, Fallback: true, StaleSince: resp.StaleSince}
	}

	resp := &dto.PriceTickerResponse{Prices: mapQuotes(snap.Quotes), UpdatedAt: &snap.UpdatedAt}
	if now.Sub(snap.UpdatedAt) > s.staleAfter {
		resp.Stale = true
		resp.StaleSince = &snap.UpdatedAt
		resp.Error = snap.LastError
	}
	return Result[*dto.PriceTickerResponse]{Data: resp, Stale: resp.Stale, StaleSince: resp.StaleSince}
}

func (s *priceService) fallback(cause string, since *time.Time) *dto.PriceTickerResponse {
	return &dto.PriceTickerResponse{
		Prices:     mapQuotes(pricecache.FallbackQuotes()),
		Stale:      true,
		Fallback:   true,
		StaleSince: since,
		Error:      cause,
	}
}

func mapQuotes(quotes []pricecache.Quote) []dto.PriceQuote {
	out := make([]dto.PriceQuote, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, dto.PriceQuote{
			Symbol:        q.Symbol,
			Name:          q.Name,
			Price:         q.Price,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
		})
	}
	return out
}
