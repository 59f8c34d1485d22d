package strategy

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"liirat-news/internal/entity"
	"liirat-news/internal/worker/repository"
	"liirat-news/pkg/logger"
	"liirat-news/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/lib/pq"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
	"github.com/patrickmn/go-cache"
)

// NewsIngestPayload is the job payload.
type NewsIngestPayload struct {
	Feeds              []string `json:"feeds"`
	MaxNewsPerFeed     int      `json:"max_news_per_feed"`
	MaxNewsAgeInDays   int      `json:"max_news_age_in_days"`
	MaxConcurrent      int      `json:"max_concurrent"`
	BlackListedDomains []string `json:"blacklisted_domains"`
	Keywords           []string `json:"keywords"`
	SummaryLength      int      `json:"summary_length"`
}

type ingestResult struct {
	Status      string   `json:"status"`
	Feed        string   `json:"feed"`
	Stored      int      `json:"stored"`
	FailedLinks []string `json:"failed_links"`
	Errors      []string `json:"errors"`
}

// NewsIngestStrategy pulls RSS feeds and stores the readable text of new articles.
type NewsIngestStrategy struct {
	newsRepo      repository.NewsArticleRepository
	logger        *logger.Logger
	client        *http.Client
	inmemoryCache *cache.Cache
	now           func() time.Time
}

// NewNewsIngestStrategy creates a new instance of NewsIngestStrategy.
func NewNewsIngestStrategy(newsRepo repository.NewsArticleRepository, log *logger.Logger) *NewsIngestStrategy {
	return &NewsIngestStrategy{
		newsRepo:      newsRepo,
		logger:        log,
		client:        &http.Client{Timeout: 30 * time.Second},
		inmemoryCache: cache.New(6*time.Hour, 12*time.Hour),
		now:           time.Now,
	}
}

// GetType returns the job type this strategy handles.
func (s *NewsIngestStrategy) GetType() entity.JobType {
	return entity.JobTypeNewsIngest
}

func (s *NewsIngestStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	var payload NewsIngestPayload
	if err := json.Unmarshal(job.PayloadBytes(), &payload); err != nil {
		return "", fmt.Errorf("failed to unmarshal job payload: %w", err)
	}
	if len(payload.Feeds) == 0 {
		return marshalResult([]ingestResult{})
	}
	if payload.MaxConcurrent <= 0 {
		payload.MaxConcurrent = 2
	}
	if payload.MaxNewsPerFeed <= 0 {
		payload.MaxNewsPerFeed = 10
	}
	if payload.MaxNewsAgeInDays <= 0 {
		payload.MaxNewsAgeInDays = 3
	}
	if payload.SummaryLength <= 0 {
		payload.SummaryLength = 280
	}

	var (
		results []ingestResult
		wg      sync.WaitGroup
		mu      sync.Mutex
	)
	semaphore := make(chan struct{}, payload.MaxConcurrent)

	for _, feedURL := range payload.Feeds {
		if !utils.ShouldContinue(ctx, s.logger) {
			break
		}
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			res := s.ingestFeed(ctx, feedURL, payload)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		})
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Feed < results[j].Feed })

	failed := 0
	for _, r := range results {
		if r.Status == FAILED {
			failed++
		}
	}
	if failed == len(payload.Feeds) {
		out, _ := marshalResult(results)
		return out, fmt.Errorf("all %d feeds failed", failed)
	}
	return marshalResult(results)
}

func (s *NewsIngestStrategy) ingestFeed(ctx context.Context, feedURL string, payload NewsIngestPayload) ingestResult {
	res := ingestResult{Feed: feedURL, FailedLinks: []string{}, Errors: []string{}}

	s.logger.Info("Processing RSS feed", logger.StringField("url", feedURL))
	fp := gofeed.NewParser()
	fp.Client = s.client
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		s.logger.Error("Failed to parse RSS feed", logger.ErrorField(err), logger.StringField("url", feedURL))
		res.Status = FAILED
		res.Errors = append(res.Errors, err.Error())
		return res
	}

	// newest first
	sort.Slice(feed.Items, func(i, j int) bool {
		if feed.Items[i].PublishedParsed == nil || feed.Items[j].PublishedParsed == nil {
			return false
		}
		return feed.Items[i].PublishedParsed.After(*feed.Items[j].PublishedParsed)
	})

	items, err := s.filterExistingItems(ctx, feed.Items, payload.MaxNewsAgeInDays)
	if err != nil {
		res.Status = FAILED
		res.Errors = append(res.Errors, err.Error())
		return res
	}

	for _, item := range items {
		if res.Stored >= payload.MaxNewsPerFeed || !utils.ShouldContinue(ctx, s.logger) {
			break
		}
		article, status, err := s.processItem(ctx, item, feed.Title, payload)
		if err != nil {
			res.FailedLinks = append(res.FailedLinks, item.Link)
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		if status == SKIPPED {
			continue
		}
		s.inmemoryCache.SetDefault(article.HashIdentifier, true)
		res.Stored++
	}

	switch {
	case len(res.FailedLinks) == 0:
		res.Status = SUCCESS
	case res.Stored == 0:
		res.Status = FAILED
	default:
		res.Status = PARTIAL
	}
	return res
}

// ItemHash identifies a feed item across runs.
func ItemHash(item *gofeed.Item) string {
	sum := md5.Sum([]byte(item.Link + "|" + item.Published))
	return hex.EncodeToString(sum[:])
}

// filterExistingItems drops items already stored, already seen by this process, undated or too old.
func (s *NewsIngestStrategy) filterExistingItems(ctx context.Context, items []*gofeed.Item, maxAgeInDays int) ([]*gofeed.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	hashes := make([]string, 0, len(items))
	for _, item := range items {
		hashes = append(hashes, ItemHash(item))
	}
	existing, err := s.newsRepo.ExistingHashes(ctx, hashes)
	if err != nil {
		s.logger.Error("Failed to fetch existing news", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to fetch existing news: %w", err)
	}

	cutoff := s.now().Add(-time.Duration(maxAgeInDays*24) * time.Hour)
	var filtered []*gofeed.Item
	for i, item := range items {
		hash := hashes[i]
		if existing[hash] {
			continue
		}
		if _, seen := s.inmemoryCache.Get(hash); seen {
			continue
		}
		if item.PublishedParsed == nil || item.PublishedParsed.Before(cutoff) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered, nil
}

func (s *NewsIngestStrategy) processItem(ctx context.Context, item *gofeed.Item, feedTitle string, payload NewsIngestPayload) (*entity.NewsArticle, string, error) {
	parsedURL, err := url.Parse(item.Link)
	if err != nil || parsedURL.Hostname() == "" {
		return nil, FAILED, fmt.Errorf("invalid article link %q", item.Link)
	}
	if utils.ContainsString(payload.BlackListedDomains, parsedURL.Hostname()) {
		s.logger.Debug("Skip news from blacklisted domain", logger.StringField("domain", parsedURL.Hostname()))
		return nil, SKIPPED, nil
	}

	source := feedTitle
	if source == "" {
		source = parsedURL.Hostname()
	}
	article := &entity.NewsArticle{
		Title:          utils.CleanToValidUTF8(strings.TrimSpace(item.Title)),
		Link:           item.Link,
		Source:         source,
		PublishedAt:    item.PublishedParsed,
		HashIdentifier: ItemHash(item),
	}

	content, err := s.fetchContent(ctx, item.Link)
	if err != nil {
		return nil, FAILED, err
	}
	article.Content = content
	summary := item.Description
	if summary == "" {
		summary = content
	}
	article.Summary = utils.Truncate(plainText(summary), payload.SummaryLength)
	article.Keywords = pq.StringArray(matchKeywords(article.Title+" "+content, payload.Keywords))

	if err := s.newsRepo.CreateIgnoreConflict(ctx, article); err != nil {
		s.logger.Error("Failed to store news article", logger.ErrorField(err), logger.StringField("link", article.Link))
		return nil, FAILED, fmt.Errorf("failed to store news article: %w", err)
	}
	return article, SUCCESS, nil
}

func (s *NewsIngestStrategy) fetchContent(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for news item: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Failed to fetch news content", logger.ErrorField(err), logger.StringField("url", link))
		return "", fmt.Errorf("failed to fetch news content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch news content, status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse news content: %w", err)
	}
	return plainText(doc.Content()), nil
}

// plainText strips markup and collapses whitespace.
func plainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func matchKeywords(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	matched := []string{}
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			matched = append(matched, k)
		}
	}
	return matched
}
