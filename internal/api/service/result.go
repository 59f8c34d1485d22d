package service

import "time"

// DataKind names a class of data whose failures may degrade instead of failing the request.
type DataKind string

const (
	DataEvents   DataKind = "events"
	DataUserData DataKind = "user_data"
	DataPrices   DataKind = "prices"
)

// DegradePolicy decides per kind whether a fetch failure falls back (true) or surfaces (false).
type DegradePolicy map[DataKind]bool

// DefaultDegradePolicy surfaces event failures and degrades user lookups and prices.
func DefaultDegradePolicy() DegradePolicy {
	return DegradePolicy{
		DataEvents:   false,
		DataUserData: true,
		DataPrices:   true,
	}
}

func (p DegradePolicy) Degrade(kind DataKind) bool {
	return p[kind]
}

// Result is a fetched value plus how trustworthy it is.
type Result[T any] struct {
	Data       T
	Stale      bool
	Fallback   bool
	StaleSince *time.Time
	Err        error
}

// Fresh wraps live data.
func Fresh[T any](data T) Result[T] {
	return Result[T]{Data: data}
}

// Degraded wraps fallback data produced after err.
func Degraded[T any](data T, err error, since time.Time) Result[T] {
	return Result[T]{Data: data, Stale: true, Fallback: true, StaleSince: &since, Err: err}
}
