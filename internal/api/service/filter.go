package service

import (
	"sort"
	"strings"
	"time"

	"liirat-news/internal/entity"
	"liirat-news/pkg/utils"
)

type DateRange string

const (
	DateRangeAll      DateRange = "all"
	DateRangeToday    DateRange = "today"
	DateRangeThisWeek DateRange = "thisWeek"
	DateRangeNextWeek DateRange = "nextWeek"
	DateRangeCustom   DateRange = "custom"
)

// CategoryAll disables the category filter.
const CategoryAll = "all"

// EventFilters is the calendar filter state. Zero values mean "no filter".
type EventFilters struct {
	Search     string
	Importance []int
	Category   string
	DateRange  DateRange
	CustomDate time.Time
}

// MatchesSearch is a case-insensitive substring match on title, currency or country.
func MatchesSearch(e entity.Event, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(e.Title), q) ||
		strings.Contains(strings.ToLower(e.Currency), q) ||
		strings.Contains(strings.ToLower(e.Country), q)
}

// MatchesImportance reports membership in selected; an empty selection matches everything.
func MatchesImportance(e entity.Event, selected []int) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if e.Importance == s {
			return true
		}
	}
	return false
}

func MatchesCategory(e entity.Event, category string) bool {
	return category == "" || category == CategoryAll || e.Category == category
}

// DateWindow is the [from, to) span a date range covers in now's location.
// ok is false for ranges that do not restrict time.
func DateWindow(r DateRange, custom, now time.Time) (from, to time.Time, ok bool) {
	switch r {
	case DateRangeToday:
		from = utils.StartOfDay(now)
		return from, from.AddDate(0, 0, 1), true
	case DateRangeThisWeek:
		from = utils.StartOfISOWeek(now)
		return from, from.AddDate(0, 0, 7), true
	case DateRangeNextWeek:
		from = utils.StartOfISOWeek(now).AddDate(0, 0, 7)
		return from, from.AddDate(0, 0, 7), true
	case DateRangeCustom:
		if custom.IsZero() {
			return time.Time{}, time.Time{}, false
		}
		from = utils.StartOfDay(custom.In(now.Location()))
		return from, from.AddDate(0, 0, 1), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// MatchesDateRange evaluates the range in now's location.
func MatchesDateRange(e entity.Event, r DateRange, custom, now time.Time) bool {
	from, to, ok := DateWindow(r, custom, now)
	if !ok {
		return true
	}
	return utils.InRange(e.EventTime, from, to)
}

// ApplyFilters returns the matching events sorted ascending by event time.
// The input slice is not modified.
func ApplyFilters(events []entity.Event, f EventFilters, now time.Time) []entity.Event {
	out := make([]entity.Event, 0, len(events))
	for _, e := range events {
		if !MatchesSearch(e, f.Search) ||
			!MatchesImportance(e, f.Importance) ||
			!MatchesCategory(e, f.Category) ||
			!MatchesDateRange(e, f.DateRange, f.CustomDate, now) {
			continue
		}
		out = append(out, e)
	}
	SortByEventTime(out)
	return out
}

// SortByEventTime sorts ascending by event time, then id.
func SortByEventTime(events []entity.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].EventTime.Equal(events[j].EventTime) {
			return events[i].ID < events[j].ID
		}
		return events[i].EventTime.Before(events[j].EventTime)
	})
}

// Page is a truncated view over a full result set.
type Page[T any] struct {
	Items   []T
	Total   int
	HasMore bool
}

// Paginate keeps the first pageSize items unless showAll. Total always counts every item.
func Paginate[T any](items []T, pageSize int, showAll bool) Page[T] {
	total := len(items)
	if showAll || pageSize <= 0 || total <= pageSize {
		return Page[T]{Items: items, Total: total}
	}
	return Page[T]{Items: items[:pageSize], Total: total, HasMore: true}
}

// SearchSuggestions returns up to limit distinct titles containing query, in first-seen order.
func SearchSuggestions(events []entity.Event, query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || limit <= 0 {
		return []string{}
	}
	seen := make(map[string]bool)
	out := make([]string, 0, limit)
	for _, e := range events {
		if len(out) == limit {
			break
		}
		if seen[e.Title] || !strings.Contains(strings.ToLower(e.Title), q) {
			continue
		}
		seen[e.Title] = true
		out = append(out, e.Title)
	}
	return out
}

// Categories lists the distinct non-empty categories, sorted.
func Categories(events []entity.Event) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, e := range events {
		if e.Category != "" && !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	sort.Strings(out)
	return out
}
