// Package pricecache stores the latest ticker quotes in Redis so the
// worker can publish them and the API can serve them.
package pricecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"liirat-news/pkg/common"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Quote is one ticker entry.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name,omitempty"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Change        decimal.Decimal `json:"change"`
}

// Snapshot is the last successful refresh plus the most recent failure, if any.
type Snapshot struct {
	Quotes      []Quote
	UpdatedAt   time.Time
	LastError   string
	LastErrorAt time.Time
}

// Empty reports whether the snapshot holds no quotes.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Quotes) == 0
}

// Store reads and writes the snapshot.
type Store interface {
	Save(ctx context.Context, quotes []Quote, at time.Time) error
	RecordFailure(ctx context.Context, err error, at time.Time) error
	Load(ctx context.Context) (*Snapshot, error)
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed Store. Entries expire after ttl.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Save(ctx context.Context, quotes []Quote, at time.Time) error {
	fields := make(map[string]interface{}, len(quotes))
	for _, q := range quotes {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("failed to encode quote %s: %w", q.Symbol, err)
		}
		fields[q.Symbol] = string(data)
	}
	if len(fields) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, common.RedisKeyPriceTicker, fields)
	pipe.Set(ctx, common.RedisKeyPriceTickerUpdatedAt, at.UTC().Format(time.RFC3339Nano), s.ttl)
	pipe.Del(ctx, common.RedisKeyPriceTickerError)
	if s.ttl > 0 {
		pipe.Expire(ctx, common.RedisKeyPriceTicker, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save price snapshot: %w", err)
	}
	return nil
}

func (s *redisStore) RecordFailure(ctx context.Context, cause error, at time.Time) error {
	payload, _ := json.Marshal(map[string]string{
		"error": cause.Error(),
		"at":    at.UTC().Format(time.RFC3339Nano),
	})
	return s.client.Set(ctx, common.RedisKeyPriceTickerError, string(payload), s.ttl).Err()
}

func (s *redisStore) Load(ctx context.Context) (*Snapshot, error) {
	fields, err := s.client.HGetAll(ctx, common.RedisKeyPriceTicker).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read price snapshot: %w", err)
	}

	snap := &Snapshot{}
	for _, raw := range fields {
		var q Quote
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			continue
		}
		snap.Quotes = append(snap.Quotes, q)
	}
	sort.Slice(snap.Quotes, func(i, j int) bool { return snap.Quotes[i].Symbol < snap.Quotes[j].Symbol })

	updatedAt, err := s.client.Get(ctx, common.RedisKeyPriceTickerUpdatedAt).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read price snapshot time: %w", err)
	}
	if updatedAt != "" {
		snap.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	}

	lastErr, err := s.client.Get(ctx, common.RedisKeyPriceTickerError).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read price snapshot error: %w", err)
	}
	if lastErr != "" {
		var payload map[string]string
		if json.Unmarshal([]byte(lastErr), &payload) == nil {
			snap.LastError = payload["error"]
			snap.LastErrorAt, _ = time.Parse(time.RFC3339Nano, payload["at"])
		}
	}
	return snap, nil
}

// FallbackQuotes is sample data shown when no live snapshot exists.
// Callers must flag it as fallback.
func FallbackQuotes() []Quote {
	q := func(symbol, name, price, pct, change string) Quote {
		return Quote{
			Symbol:        symbol,
			Name:          name,
			Price:         decimal.RequireFromString(price),
			ChangePercent: decimal.RequireFromString(pct),
			Change:        decimal.RequireFromString(change),
		}
	}
	return []Quote{
		q("EURUSD", "Euro / US Dollar", "1.0876", "0.12", "0.0013"),
		q("GBPUSD", "British Pound / US Dollar", "1.2654", "-0.08", "-0.0010"),
		q("USDJPY", "US Dollar / Japanese Yen", "149.25", "0.15", "0.22"),
		q("XAUUSD", "Gold / US Dollar", "2034.50", "0.25", "5.10"),
		q("BTCUSD", "Bitcoin / US Dollar", "43250", "1.24", "530"),
		q("AAPL", "Apple Inc.", "189.50", "0.35", "0.66"),
		q("GOOGL", "Alphabet Inc.", "142.30", "0.28", "0.39"),
		q("TSLA", "Tesla Inc.", "248.75", "-0.45", "-1.12"),
	}
}
