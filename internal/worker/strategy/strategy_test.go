package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"liirat-news/internal/entity"
	"liirat-news/internal/worker/repository"
	"liirat-news/pkg/eodhd"
	"liirat-news/pkg/logger"
	"liirat-news/pkg/pricecache"

	"github.com/mmcdole/gofeed"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuotes struct {
	quotes map[string]string
	err    map[string]error
}

func (f *fakeQuotes) Quote(_ context.Context, symbol string) (*pricecache.Quote, error) {
	if err := f.err[symbol]; err != nil {
		return nil, err
	}
	price, ok := f.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", symbol)
	}
	return &pricecache.Quote{Symbol: symbol, Price: decimal.RequireFromString(price), ChangePercent: decimal.RequireFromString("0.5")}, nil
}

type fakeAssets struct {
	assets  []entity.Asset
	updated map[string]decimal.Decimal
}

func (f *fakeAssets) FindAll(context.Context) ([]entity.Asset, error) {
	return f.assets, nil
}

func (f *fakeAssets) UpdatePrice(_ context.Context, symbol string, price, _ decimal.Decimal, _ time.Time) error {
	if f.updated == nil {
		f.updated = map[string]decimal.Decimal{}
	}
	f.updated[symbol] = price
	return nil
}

type fakeStore struct {
	saved    []pricecache.Quote
	savedAt  time.Time
	failures []error
}

func (f *fakeStore) Save(_ context.Context, quotes []pricecache.Quote, at time.Time) error {
	f.saved = quotes
	f.savedAt = at
	return nil
}

func (f *fakeStore) RecordFailure(_ context.Context, err error, _ time.Time) error {
	f.failures = append(f.failures, err)
	return nil
}

func (f *fakeStore) Load(context.Context) (*pricecache.Snapshot, error) {
	return &pricecache.Snapshot{Quotes: f.saved, UpdatedAt: f.savedAt}, nil
}

func TestPriceRefresh_SavesSnapshotAndAssets(t *testing.T) {
	quotes := &fakeQuotes{quotes: map[string]string{"EURUSD": "1.0876", "XAUUSD": "2034.50"}}
	assets := &fakeAssets{assets: []entity.Asset{{Symbol: "EURUSD", Name: "Euro"}, {Symbol: "XAUUSD", Name: "Gold"}}}
	store := &fakeStore{}
	s := NewPriceRefreshStrategy(quotes, assets, store, logger.NewNop())

	out, err := s.Execute(context.Background(), &entity.Job{Type: entity.JobTypePriceRefresh})
	require.NoError(t, err)

	var res priceRefreshResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, SUCCESS, res.Status)
	require.Len(t, store.saved, 2)
	assert.Equal(t, "Euro", store.saved[0].Name)
	assert.True(t, assets.updated["XAUUSD"].Equal(decimal.RequireFromString("2034.50")))
}

func TestPriceRefresh_PartialFailureKeepsGoodQuotes(t *testing.T) {
	quotes := &fakeQuotes{quotes: map[string]string{"EURUSD": "1.08"}}
	store := &fakeStore{}
	s := NewPriceRefreshStrategy(quotes, &fakeAssets{}, store, logger.NewNop())

	out, err := s.Execute(context.Background(), &entity.Job{Payload: json.RawMessage(`{"symbols":["eurusd","BTCUSD"]}`)})
	require.NoError(t, err)

	var res priceRefreshResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, PARTIAL, res.Status)
	assert.Equal(t, []string{"EURUSD"}, res.Updated)
	assert.Equal(t, []string{"BTCUSD"}, res.Failed)
	assert.Len(t, store.saved, 1)
	assert.Empty(t, store.failures)
}

func TestPriceRefresh_AllFailedRecordsFailure(t *testing.T) {
	upstream := errors.New("rate limited")
	quotes := &fakeQuotes{err: map[string]error{"EURUSD": upstream}}
	store := &fakeStore{}
	s := NewPriceRefreshStrategy(quotes, &fakeAssets{}, store, logger.NewNop())

	_, err := s.Execute(context.Background(), &entity.Job{Payload: json.RawMessage(`{"symbols":["EURUSD"]}`)})
	require.ErrorIs(t, err, upstream)
	assert.Nil(t, store.saved)
	require.Len(t, store.failures, 1)
}

func TestPriceRefresh_MissingKeyStopsEarly(t *testing.T) {
	quotes := &fakeQuotes{err: map[string]error{"EURUSD": repository.ErrMissingTwelveDataKey, "GBPUSD": repository.ErrMissingTwelveDataKey}}
	s := NewPriceRefreshStrategy(quotes, &fakeAssets{}, &fakeStore{}, logger.NewNop())

	_, err := s.Execute(context.Background(), &entity.Job{Payload: json.RawMessage(`{"symbols":["EURUSD","GBPUSD"]}`)})
	require.ErrorIs(t, err, repository.ErrMissingTwelveDataKey)
}

type fakeCalendarSource struct {
	mu      sync.Mutex
	rows    map[string][]eodhd.EconomicEvent
	errs    map[string]error
	queries []eodhd.Query
}

func (f *fakeCalendarSource) EconomicEvents(_ context.Context, q eodhd.Query) ([]eodhd.EconomicEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if err := f.errs[q.Country]; err != nil {
		return nil, err
	}
	return f.rows[q.Country], nil
}

type fakeEventRepo struct {
	events []entity.Event
}

func (f *fakeEventRepo) UpsertByExternalID(_ context.Context, events []entity.Event) (int64, error) {
	f.events = append(f.events, events...)
	return int64(len(events)), nil
}

func float(v float64) *float64 {
	return &v
}

func TestCalendarSync_MapsRows(t *testing.T) {
	source := &fakeCalendarSource{rows: map[string][]eodhd.EconomicEvent{
		"US": {
			{Type: "Non Farm Payrolls", Country: "US", Date: "2024-03-08 13:30:00", Actual: float(275), Estimate: float(200), Previous: float(229)},
			{Type: "Retail Sales MoM", Country: "US", Date: "2024-03-14 12:30:00", Importance: "Low"},
			{Type: "", Country: "US", Date: "2024-03-14 12:30:00"},
			{Type: "Bad date", Country: "US", Date: "tomorrow"},
		},
	}}
	repo := &fakeEventRepo{}
	s := NewCalendarSyncStrategy(source, repo, logger.NewNop())
	s.now = func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) }

	out, err := s.Execute(context.Background(), &entity.Job{Payload: json.RawMessage(`{"countries":["US"],"days_back":2,"days_ahead":7}`)})
	require.NoError(t, err)

	require.Len(t, source.queries, 1)
	assert.Equal(t, "2024-03-08", source.queries[0].From)
	assert.Equal(t, "2024-03-17", source.queries[0].To)

	var res calendarSyncResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 4, res.Fetched)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, int64(2), res.Upserted)

	require.Len(t, repo.events, 2)
	nfp := repo.events[0]
	assert.Equal(t, entity.ImportanceHigh, nfp.Importance)
	assert.Equal(t, "employment", nfp.Category)
	assert.Equal(t, "USD", nfp.Currency)
	assert.Equal(t, "275", *nfp.ActualValue)
	assert.Equal(t, "200", *nfp.Forecast)
	assert.Equal(t, time.Date(2024, 3, 8, 13, 30, 0, 0, time.UTC), nfp.EventTime)
	require.NotNil(t, nfp.ExternalID)
	assert.Empty(t, nfp.Analysis)

	assert.Equal(t, entity.ImportanceLow, repo.events[1].Importance, "upstream label wins over keywords")
}

func TestCalendarSync_ExternalIDIsStable(t *testing.T) {
	row := eodhd.EconomicEvent{Type: "CPI", Country: "us", Date: "2024-03-12 12:30:00", Period: "Feb"}
	assert.Equal(t, EventExternalID(row), EventExternalID(row))

	other := row
	other.Period = "Mar"
	assert.NotEqual(t, EventExternalID(row), EventExternalID(other))
}

func TestCalendarSync_ComparisonsAreDistinctEvents(t *testing.T) {
	cpi := eodhd.EconomicEvent{Type: "CPI", Country: "US", Date: "2024-03-12 12:30:00", Period: "Feb"}
	yoy, mom := cpi, cpi
	yoy.Comparison, mom.Comparison = "yoy", "mom"
	assert.NotEqual(t, EventExternalID(yoy), EventExternalID(mom))
	assert.NotEqual(t, EventExternalID(cpi), EventExternalID(yoy))

	revised := yoy
	revised.Actual = float(3.2)
	source := &fakeCalendarSource{rows: map[string][]eodhd.EconomicEvent{"US": {yoy, mom, revised}}}
	repo := &fakeEventRepo{}
	s := NewCalendarSyncStrategy(source, repo, logger.NewNop())
	s.now = func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) }

	out, err := s.Execute(context.Background(), &entity.Job{Payload: json.RawMessage(`{"countries":["US"]}`)})
	require.NoError(t, err)
	var res calendarSyncResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, int64(2), res.Upserted)

	require.Len(t, repo.events, 2)
	assert.Equal(t, "CPI (YOY)", repo.events[0].Title)
	assert.Equal(t, "3.2", *repo.events[0].ActualValue, "later duplicate wins")
	assert.Equal(t, "CPI (MOM)", repo.events[1].Title)
	assert.NotEqual(t, *repo.events[0].ExternalID, *repo.events[1].ExternalID)
}

func TestCalendarSync_PartialAndTotalFailure(t *testing.T) {
	source := &fakeCalendarSource{
		rows: map[string][]eodhd.EconomicEvent{"GB": {{Type: "GDP Growth Rate", Country: "GB", Date: "2024-03-13 07:00:00"}}},
		errs: map[string]error{"US": errors.New("upstream down")},
	}
	s := NewCalendarSyncStrategy(source, &fakeEventRepo{}, logger.NewNop())

	out, err := s.Execute(context.Background(), &entity.Job{Payload: json.RawMessage(`{"countries":["US","GB"]}`)})
	require.NoError(t, err)
	assert.Contains(t, out, `"status":"partial"`)

	source.errs["GB"] = errors.New("also down")
	_, err = s.Execute(context.Background(), &entity.Job{Payload: json.RawMessage(`{"countries":["US","GB"]}`)})
	require.Error(t, err)
}

func TestClassifyAndCategorize(t *testing.T) {
	high, medium := defaultHighImpact, defaultMediumImpact
	assert.Equal(t, entity.ImportanceHigh, ClassifyImportance(eodhd.EconomicEvent{Type: "Fed Interest Rate Decision"}, high, medium))
	assert.Equal(t, entity.ImportanceMedium, ClassifyImportance(eodhd.EconomicEvent{Type: "Initial Jobless Claims"}, high, medium))
	assert.Equal(t, entity.ImportanceLow, ClassifyImportance(eodhd.EconomicEvent{Type: "Redbook YoY"}, high, medium))
	assert.Equal(t, entity.ImportanceHigh, ClassifyImportance(eodhd.EconomicEvent{Type: "Redbook YoY", Importance: "High"}, high, medium))

	assert.Equal(t, "inflation", Categorize("Core CPI MoM"))
	assert.Equal(t, "central_bank", Categorize("ECB Interest Rate Decision"))
	assert.Equal(t, "other", Categorize("Redbook YoY"))
	assert.Equal(t, "EUR", CurrencyForCountry("de"))
	assert.Empty(t, CurrencyForCountry("ZZ"))
}

type memoryNewsRepo struct {
	mu       sync.Mutex
	articles map[string]entity.NewsArticle
}

func (r *memoryNewsRepo) ExistingHashes(_ context.Context, hashes []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]bool{}
	for _, h := range hashes {
		if _, ok := r.articles[h]; ok {
			out[h] = true
		}
	}
	return out, nil
}

func (r *memoryNewsRepo) CreateIgnoreConflict(_ context.Context, a *entity.NewsArticle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[a.HashIdentifier]; !ok {
		r.articles[a.HashIdentifier] = *a
	}
	return nil
}

func newFeedServer(t *testing.T, published time.Time) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Market Wire</title>
<item><title>Gold rallies as Fed holds rates</title><link>%[1]s/a/1</link><pubDate>%[2]s</pubDate></item>
<item><title>Old story</title><link>%[1]s/a/2</link><pubDate>%[3]s</pubDate></item>
<item><title>Broken link</title><link>%[1]s/a/404</link><pubDate>%[2]s</pubDate></item>
</channel></rss>`, srv.URL, published.Format(time.RFC1123Z), published.AddDate(0, 0, -30).Format(time.RFC1123Z))
	})
	mux.HandleFunc("/a/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><nav>menu</nav><article><h1>Gold rallies</h1>
<p>Gold prices climbed on Tuesday after the Federal Reserve left interest rates unchanged, with traders
betting that inflation is cooling fast enough for cuts later this year. The dollar slipped against majors.</p>
<p>Analysts said the move extends a three week rally in bullion markets and keeps record highs in sight.</p>
</article></body></html>`)
	})
	mux.HandleFunc("/a/404", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewsIngest_StoresNewArticlesOnce(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	srv := newFeedServer(t, now.Add(-time.Hour))
	repo := &memoryNewsRepo{articles: map[string]entity.NewsArticle{}}
	s := NewNewsIngestStrategy(repo, logger.NewNop())

	payload := fmt.Sprintf(`{"feeds":["%s/rss"],"max_news_age_in_days":3,"keywords":["gold","oil"]}`, srv.URL)
	job := &entity.Job{Type: entity.JobTypeNewsIngest, Payload: json.RawMessage(payload)}

	out, err := s.Execute(context.Background(), job)
	require.NoError(t, err)

	var results []ingestResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, PARTIAL, results[0].Status)
	assert.Equal(t, 1, results[0].Stored)
	assert.Equal(t, []string{srv.URL + "/a/404"}, results[0].FailedLinks)

	require.Len(t, repo.articles, 1)
	for _, a := range repo.articles {
		assert.Equal(t, "Market Wire", a.Source)
		assert.Contains(t, a.Content, "Federal Reserve")
		assert.NotContains(t, a.Content, "<p>")
		assert.Equal(t, []string{"gold"}, []string(a.Keywords))
		assert.NotEmpty(t, a.Summary)
	}

	// second run sees the stored hash and only retries the broken link
	out, err = s.Execute(context.Background(), job)
	require.Error(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Equal(t, FAILED, results[0].Status)
	assert.Equal(t, 0, results[0].Stored)
	assert.Len(t, repo.articles, 1)
}

func TestNewsIngest_AllFeedsFailing(t *testing.T) {
	s := NewNewsIngestStrategy(&memoryNewsRepo{articles: map[string]entity.NewsArticle{}}, logger.NewNop())
	_, err := s.Execute(context.Background(), &entity.Job{Payload: json.RawMessage(`{"feeds":["http://127.0.0.1:1/rss"]}`)})
	require.Error(t, err)
}

func TestItemHash(t *testing.T) {
	a := &gofeed.Item{Link: "https://example.com/a", Published: "Mon, 11 Mar 2024 10:00:00 +0000"}
	b := &gofeed.Item{Link: "https://example.com/a", Published: "Tue, 12 Mar 2024 10:00:00 +0000"}
	assert.Len(t, ItemHash(a), 32)
	assert.NotEqual(t, ItemHash(a), ItemHash(b))
}
