package service

import (
	"context"
	"encoding/json"
	"time"

	"liirat-news/internal/api/dto"
	"liirat-news/pkg/common"
	"liirat-news/pkg/eodhd"
)

// EconomicEventsSource is the upstream calendar provider.
type EconomicEventsSource interface {
	EconomicEventsRaw(ctx context.Context, q eodhd.Query) (json.RawMessage, error)
}

// EconomicEventsService proxies the upstream economic calendar.
type EconomicEventsService interface {
	List(ctx context.Context, q dto.EconomicEventsQuery) (*dto.EconomicEventsResponse, error)
}

func NewEconomicEventsService(source EconomicEventsSource, lookbackDays, lookaheadDays int, now func() time.Time) EconomicEventsService {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	if lookaheadDays <= 0 {
		lookaheadDays = 30
	}
	if now == nil {
		now = time.Now
	}
	return &economicEventsService{source: source, lookback: lookbackDays, lookahead: lookaheadDays, now: now}
}

type economicEventsService struct {
	source    EconomicEventsSource
	lookback  int
	lookahead int
	now       func() time.Time
}

// List fills a missing from/to with today minus lookback / plus lookahead days in UTC.
// Upstream errors, including *eodhd.StatusError, are returned unchanged.
// A non-array body is forwarded as data with count 0.
func (s *economicEventsService) List(ctx context.Context, q dto.EconomicEventsQuery) (*dto.EconomicEventsResponse, error) {
	from, to := s.Window(q.From, q.To)
	data, err := s.source.EconomicEventsRaw(ctx, eodhd.Query{
		From:    from,
		To:      to,
		Country: q.Country,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		data = json.RawMessage(`[]`)
	}
	rows, _ := eodhd.Rows(data)
	return &dto.EconomicEventsResponse{OK: true, Count: len(rows), Data: data}, nil
}

// Window returns the effective date window.
func (s *economicEventsService) Window(from, to string) (string, string) {
	today := s.now().UTC()
	if from == "" {
		from = today.AddDate(0, 0, -s.lookback).Format(common.DateLayout)
	}
	if to == "" {
		to = today.AddDate(0, 0, s.lookahead).Format(common.DateLayout)
	}
	return from, to
}
