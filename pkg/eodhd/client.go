package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"liirat-news/pkg/logger"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://eodhd.com/api"

// ErrMissingToken is returned before any request when no API token is configured.
var ErrMissingToken = errors.New("Missing EODHD_TOKEN")

// ErrInvalidResponse is returned for a 2xx response whose body is not JSON.
var ErrInvalidResponse = errors.New("eodhd returned a non-JSON body")

// StatusError carries a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("eodhd returned status %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// Query selects a window of economic events. From and To are YYYY-MM-DD.
type Query struct {
	From    string
	To      string
	Country string
	Limit   int
	Offset  int
}

// EconomicEvent is one row of the economic-events endpoint.
type EconomicEvent struct {
	Type             string   `json:"type"`
	Comparison       string   `json:"comparison"`
	Period           string   `json:"period"`
	Country          string   `json:"country"`
	Date             string   `json:"date"`
	Actual           *float64 `json:"actual"`
	Previous         *float64 `json:"previous"`
	Estimate         *float64 `json:"estimate"`
	Change           *float64 `json:"change"`
	ChangePercentage *float64 `json:"change_percentage"`
	Importance       string   `json:"importance,omitempty"`
}

// Client talks to the EODHD REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewClient creates a client. maxRequestPerMinute <= 0 disables client-side limiting.
func NewClient(baseURL, token string, maxRequestPerMinute int, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if maxRequestPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(maxRequestPerMinute)), 1)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
		logger:  log,
	}
}

// HasToken reports whether a token is configured.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// EconomicEventsRaw returns the upstream JSON body without reshaping it. The body is
// usually an array of rows but some error payloads arrive as an object with status 200.
func (c *Client) EconomicEventsRaw(ctx context.Context, q Query) (json.RawMessage, error) {
	if !c.HasToken() {
		return nil, ErrMissingToken
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	params := url.Values{}
	params.Set("api_token", c.token)
	params.Set("fmt", "json")
	params.Set("from", q.From)
	params.Set("to", q.To)
	if q.Country != "" {
		params.Set("country", q.Country)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}

	endpoint := c.baseURL + "/economic-events?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Failed to call EODHD", logger.ErrorField(err), logger.StringField("from", q.From), logger.StringField("to", q.To))
		return nil, fmt.Errorf("failed to call eodhd: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read eodhd response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Received non-OK response from EODHD", logger.IntField("status_code", resp.StatusCode))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	if !json.Valid(body) {
		c.logger.Error("Received non-JSON response from EODHD", logger.IntField("status_code", resp.StatusCode))
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, truncate(body, 200))
	}
	return json.RawMessage(body), nil
}

// Rows splits a body into its array elements. ok is false when the body is not an array.
func Rows(body json.RawMessage) (rows []json.RawMessage, ok bool) {
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

// EconomicEvents returns typed rows, skipping any that fail to decode.
// A body that is not an array is an error.
func (c *Client) EconomicEvents(ctx context.Context, q Query) ([]EconomicEvent, error) {
	body, err := c.EconomicEventsRaw(ctx, q)
	if err != nil {
		return nil, err
	}
	raw, ok := Rows(body)
	if !ok {
		return nil, fmt.Errorf("unexpected eodhd payload: %s", truncate(body, 200))
	}
	events := make([]EconomicEvent, 0, len(raw))
	for _, r := range raw {
		var ev EconomicEvent
		if err := json.Unmarshal(r, &ev); err != nil {
			c.logger.Warn("Skipping undecodable economic event", logger.ErrorField(err))
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// ParseEventTime parses the "2006-01-02 15:04:05" timestamps EODHD returns (UTC).
func ParseEventTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised event time %q", s)
}
