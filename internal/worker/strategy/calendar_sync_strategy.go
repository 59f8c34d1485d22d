package strategy

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"liirat-news/internal/entity"
	"liirat-news/internal/worker/repository"
	"liirat-news/pkg/common"
	"liirat-news/pkg/eodhd"
	"liirat-news/pkg/logger"

	"gorm.io/datatypes"
)

// EconomicEventsSource returns typed calendar rows.
type EconomicEventsSource interface {
	EconomicEvents(ctx context.Context, q eodhd.Query) ([]eodhd.EconomicEvent, error)
}

// CalendarSyncPayload is the job payload.
// Rows without an importance label are classified by keyword lists.
type CalendarSyncPayload struct {
	DaysBack     int      `json:"days_back"`
	DaysAhead    int      `json:"days_ahead"`
	Countries    []string `json:"countries"`
	HighImpact   []string `json:"high_impact"`
	MediumImpact []string `json:"medium_impact"`
}

type calendarSyncResult struct {
	Status   string   `json:"status"`
	Fetched  int      `json:"fetched"`
	Upserted int64    `json:"upserted"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

var (
	defaultHighImpact   = []string{"non farm payrolls", "nonfarm payrolls", "interest rate decision", "cpi", "consumer price index", "gdp growth rate", "fomc"}
	defaultMediumImpact = []string{"retail sales", "unemployment rate", "ppi", "pmi", "trade balance", "industrial production", "jobless claims"}
)

// CalendarSyncStrategy mirrors the upstream economic calendar into the events table.
type CalendarSyncStrategy struct {
	source EconomicEventsSource
	events repository.EventRepository
	logger *logger.Logger
	now    func() time.Time
}

func NewCalendarSyncStrategy(source EconomicEventsSource, events repository.EventRepository, log *logger.Logger) *CalendarSyncStrategy {
	return &CalendarSyncStrategy{source: source, events: events, logger: log, now: time.Now}
}

func (s *CalendarSyncStrategy) GetType() entity.JobType {
	return entity.JobTypeCalendarSync
}

func (s *CalendarSyncStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	var payload CalendarSyncPayload
	if err := json.Unmarshal(job.PayloadBytes(), &payload); err != nil {
		return "", fmt.Errorf("failed to unmarshal job payload: %w", err)
	}
	if payload.DaysBack <= 0 {
		payload.DaysBack = 1
	}
	if payload.DaysAhead <= 0 {
		payload.DaysAhead = 14
	}
	if len(payload.HighImpact) == 0 {
		payload.HighImpact = defaultHighImpact
	}
	if len(payload.MediumImpact) == 0 {
		payload.MediumImpact = defaultMediumImpact
	}

	today := s.now().UTC()
	query := eodhd.Query{
		From: today.AddDate(0, 0, -payload.DaysBack).Format(common.DateLayout),
		To:   today.AddDate(0, 0, payload.DaysAhead).Format(common.DateLayout),
	}

	countries := payload.Countries
	if len(countries) == 0 {
		countries = []string{""}
	}

	result := calendarSyncResult{Errors: []string{}}
	var events []entity.Event
	for _, country := range countries {
		query.Country = country
		rows, err := s.source.EconomicEvents(ctx, query)
		if err != nil {
			s.logger.Error("Failed to fetch economic events", logger.ErrorField(err), logger.StringField("country", country))
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Fetched += len(rows)
		for _, row := range rows {
			ev, ok := s.toEvent(row, payload)
			if !ok {
				result.Skipped++
				continue
			}
			events = append(events, ev)
		}
	}

	if len(result.Errors) == len(countries) {
		return "", fmt.Errorf("calendar sync failed: %s", strings.Join(result.Errors, "; "))
	}

	upserted, err := s.events.UpsertByExternalID(ctx, dedupeByExternalID(events))
	if err != nil {
		return "", fmt.Errorf("failed to upsert events: %w", err)
	}
	result.Upserted = upserted
	result.Status = SUCCESS
	if len(result.Errors) > 0 {
		result.Status = PARTIAL
	}
	return marshalResult(result)
}

func (s *CalendarSyncStrategy) toEvent(row eodhd.EconomicEvent, payload CalendarSyncPayload) (entity.Event, bool) {
	title := strings.TrimSpace(row.Type)
	if title == "" {
		return entity.Event{}, false
	}
	if cmp := strings.TrimSpace(row.Comparison); cmp != "" {
		title += " (" + strings.ToUpper(cmp) + ")"
	}
	at, err := eodhd.ParseEventTime(row.Date)
	if err != nil {
		s.logger.Debug("Skipping event with unparseable date", logger.StringField("date", row.Date))
		return entity.Event{}, false
	}

	raw, _ := json.Marshal(row)
	externalID := EventExternalID(row)
	return entity.Event{
		Title:       title,
		EventTime:   at,
		Country:     strings.ToUpper(row.Country),
		Currency:    CurrencyForCountry(row.Country),
		Importance:  ClassifyImportance(row, payload.HighImpact, payload.MediumImpact),
		Category:    Categorize(title),
		ActualValue: formatValue(row.Actual),
		Forecast:    formatValue(row.Estimate),
		Previous:    formatValue(row.Previous),
		Source:      "eodhd",
		ExternalID:  &externalID,
		Raw:         datatypes.JSON(raw),
	}, true
}

// EventExternalID is stable across syncs of the same release. The comparison
// (yoy, mom, qoq) only joins the key when present so older ids keep matching.
func EventExternalID(row eodhd.EconomicEvent) string {
	key := strings.ToUpper(row.Country) + "|" + row.Type + "|" + row.Date + "|" + row.Period
	if cmp := strings.ToLower(strings.TrimSpace(row.Comparison)); cmp != "" {
		key += "|" + cmp
	}
	sum := md5.Sum([]byte(key))
	return "eodhd:" + hex.EncodeToString(sum[:])
}

// dedupeByExternalID keeps the last row for each id. Postgres rejects an
// ON CONFLICT batch that touches the same row twice.
func dedupeByExternalID(events []entity.Event) []entity.Event {
	index := make(map[string]int, len(events))
	out := make([]entity.Event, 0, len(events))
	for _, ev := range events {
		if ev.ExternalID == nil {
			out = append(out, ev)
			continue
		}
		if i, ok := index[*ev.ExternalID]; ok {
			out[i] = ev
			continue
		}
		index[*ev.ExternalID] = len(out)
		out = append(out, ev)
	}
	return out
}

// ClassifyImportance prefers the upstream High/Medium/Low label and falls back to keyword lists.
func ClassifyImportance(row eodhd.EconomicEvent, high, medium []string) int {
	switch strings.ToLower(strings.TrimSpace(row.Importance)) {
	case "high", "3":
		return entity.ImportanceHigh
	case "medium", "2":
		return entity.ImportanceMedium
	case "low", "1":
		return entity.ImportanceLow
	}
	title := strings.ToLower(row.Type)
	for _, k := range high {
		if strings.Contains(title, strings.ToLower(k)) {
			return entity.ImportanceHigh
		}
	}
	for _, k := range medium {
		if strings.Contains(title, strings.ToLower(k)) {
			return entity.ImportanceMedium
		}
	}
	return entity.ImportanceLow
}

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"inflation", []string{"cpi", "ppi", "inflation", "price index", "pce"}},
	{"employment", []string{"payroll", "unemployment", "jobless", "employment", "jobs"}},
	{"central_bank", []string{"interest rate", "fomc", "fed ", "ecb", "boe", "boj", "monetary"}},
	{"growth", []string{"gdp", "industrial production", "retail sales", "pmi"}},
	{"trade", []string{"trade balance", "exports", "imports", "current account"}},
	{"housing", []string{"housing", "home sales", "building permits", "mortgage"}},
	{"sentiment", []string{"confidence", "sentiment", "zew", "ifo"}},
}

// Categorize derives the calendar category from the event title.
func Categorize(title string) string {
	t := strings.ToLower(title) + " "
	for _, c := range categoryKeywords {
		for _, k := range c.keywords {
			if strings.Contains(t, k) {
				return c.category
			}
		}
	}
	return "other"
}

var countryCurrency = map[string]string{
	"US": "USD", "EU": "EUR", "EMU": "EUR", "DE": "EUR", "FR": "EUR", "IT": "EUR", "ES": "EUR",
	"GB": "GBP", "UK": "GBP", "JP": "JPY", "CH": "CHF", "CA": "CAD", "AU": "AUD", "NZ": "NZD",
	"CN": "CNY", "SA": "SAR", "AE": "AED",
}

func CurrencyForCountry(country string) string {
	return countryCurrency[strings.ToUpper(strings.TrimSpace(country))]
}

func formatValue(v *float64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	return &s
}
