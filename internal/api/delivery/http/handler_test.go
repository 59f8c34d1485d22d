package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/service"
	"liirat-news/internal/session"
	"liirat-news/pkg/common"
	"liirat-news/pkg/eodhd"
	"liirat-news/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCalendar struct {
	gotSession *session.Session
	gotQuery   dto.CalendarQuery
	err        error
}

func (s *stubCalendar) Load(_ context.Context, sess *session.Session, q dto.CalendarQuery) (*dto.CalendarView, error) {
	s.gotSession = sess
	s.gotQuery = q
	if s.err != nil {
		return nil, s.err
	}
	state := service.StateUnauthenticated
	if sess != nil {
		state = service.StateAuthenticated
	}
	return &dto.CalendarView{AuthState: string(state), Events: []dto.EventResponse{}}, nil
}

func (s *stubCalendar) Suggestions(_ context.Context, query string) ([]string, error) {
	return []string{query + " y/y"}, nil
}

func (s *stubCalendar) Lookups(context.Context, *session.Session, bool) service.Result[service.UserLookups] {
	return service.Result[service.UserLookups]{}
}

func (s *stubCalendar) Invalidate(string) {}

func (s *stubCalendar) Close() {}

type failingStorage struct{}

func (failingStorage) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("redis down")
}

func (failingStorage) Set(context.Context, string, string, time.Duration) error {
	return errors.New("redis down")
}

func (failingStorage) Delete(context.Context, string) error {
	return errors.New("redis down")
}

func newCalendarServer(t *testing.T, storage session.Storage, cal service.CalendarService) (*echo.Echo, *session.Manager) {
	t.Helper()
	manager := session.NewManager(storage, session.NewBus(), time.Hour)
	e := echo.New()
	api := e.Group("/api/v1", SessionMiddleware(manager, logger.NewNop()))
	NewCalendarHandler(cal, logger.NewNop()).RegisterRoutes(api.Group("/calendar"))
	return e, manager
}

func doRequest(e *echo.Echo, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCalendarHandler_Anonymous(t *testing.T) {
	cal := &stubCalendar{}
	e, _ := newCalendarServer(t, session.NewMemoryStorage(), cal)

	rec := doRequest(e, http.MethodGet, "/api/v1/calendar?search=cpi&importance=3&importance=2&date_range=today", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, cal.gotSession)
	assert.Equal(t, "cpi", cal.gotQuery.Search)
	assert.ElementsMatch(t, []int{2, 3}, cal.gotQuery.Importance)
	assert.Equal(t, "today", cal.gotQuery.DateRange)

	var view dto.CalendarView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "unauthenticated", view.AuthState)
}

func TestCalendarHandler_SessionHeaderLoadsSession(t *testing.T) {
	cal := &stubCalendar{}
	e, manager := newCalendarServer(t, session.NewMemoryStorage(), cal)
	require.NoError(t, manager.Store("tok").Save(context.Background(), &session.Session{ID: "user-1", Email: "a@example.com"}))

	rec := doRequest(e, http.MethodGet, "/api/v1/calendar", "", map[string]string{common.SessionHeader: "tok"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, cal.gotSession)
	assert.Equal(t, "user-1", cal.gotSession.ID)
}

func TestCalendarHandler_SessionLookupFailureIsAuthenticating(t *testing.T) {
	cal := &stubCalendar{}
	e, _ := newCalendarServer(t, failingStorage{}, cal)

	rec := doRequest(e, http.MethodGet, "/api/v1/calendar", "", map[string]string{common.SessionHeader: "tok"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, cal.gotSession)

	var view dto.CalendarView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "authenticating", view.AuthState)
}

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &service.ValidationError{Message: "Invalid input", Fields: map[string]string{"email": "required"}}, http.StatusBadRequest},
		{"unauthenticated", service.ErrUnauthenticated, http.StatusUnauthorized},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"conflict", service.ErrConflict, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cal := &stubCalendar{err: tc.err}
			e, _ := newCalendarServer(t, session.NewMemoryStorage(), cal)
			rec := doRequest(e, http.MethodGet, "/api/v1/calendar", "", nil)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "boom")
			}
		})
	}
}

type stubEconomicEvents struct {
	resp *dto.EconomicEventsResponse
	err  error
}

func (s *stubEconomicEvents) List(context.Context, dto.EconomicEventsQuery) (*dto.EconomicEventsResponse, error) {
	return s.resp, s.err
}

func newEconomicEventsServer(svc service.EconomicEventsService) *echo.Echo {
	e := echo.New()
	NewEconomicEventsHandler(svc, logger.NewNop()).RegisterRoutes(e.Group("/api"))
	return e
}

func TestEconomicEventsHandler_Success(t *testing.T) {
	e := newEconomicEventsServer(&stubEconomicEvents{resp: &dto.EconomicEventsResponse{OK: true, Count: 1, Data: json.RawMessage(`[{"type":"CPI"}]`)}})

	rec := doRequest(e, http.MethodGet, "/api/economic-events?country=US", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"count":1,"data":[{"type":"CPI"}]}`, rec.Body.String())
}

func TestEconomicEventsHandler_UpstreamStatusIsPropagated(t *testing.T) {
	e := newEconomicEventsServer(&stubEconomicEvents{err: &eodhd.StatusError{StatusCode: http.StatusForbidden, Body: []byte(`{"message":"bad token"}`)}})

	rec := doRequest(e, http.MethodGet, "/api/economic-events", "", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":{"message":"bad token"}}`, rec.Body.String())
}

func TestEconomicEventsHandler_UpstreamTextBody(t *testing.T) {
	e := newEconomicEventsServer(&stubEconomicEvents{err: &eodhd.StatusError{StatusCode: http.StatusBadGateway, Body: []byte("gateway down")}})

	rec := doRequest(e, http.MethodGet, "/api/economic-events", "", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"gateway down"}`, rec.Body.String())
}

func TestEconomicEventsHandler_InvalidUpstreamBody(t *testing.T) {
	e := newEconomicEventsServer(&stubEconomicEvents{err: fmt.Errorf("%w: <html>", eodhd.ErrInvalidResponse)})

	rec := doRequest(e, http.MethodGet, "/api/economic-events", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":false`)
}

func TestEconomicEventsHandler_MissingToken(t *testing.T) {
	e := newEconomicEventsServer(&stubEconomicEvents{err: eodhd.ErrMissingToken})

	rec := doRequest(e, http.MethodGet, "/api/economic-events", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Missing EODHD_TOKEN"}`, rec.Body.String())
}

type stubTranslate struct {
	calls int
	err   error
}

func (s *stubTranslate) Translate(_ context.Context, req dto.TranslateRequest) (*dto.TranslateResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &dto.TranslateResponse{OK: true, Translation: "[" + req.Lang + "] " + req.Text}, nil
}

func newTranslateServer(svc service.TranslateService) *echo.Echo {
	e := echo.New()
	NewTranslateHandler(svc, logger.NewNop()).RegisterRoutes(e.Group("/api"))
	return e
}

func TestTranslateHandler_RejectsNonPost(t *testing.T) {
	svc := &stubTranslate{}
	e := newTranslateServer(svc)

	rec := doRequest(e, http.MethodGet, "/api/translate", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Zero(t, svc.calls)
}

func TestTranslateHandler_Translates(t *testing.T) {
	e := newTranslateServer(&stubTranslate{})

	rec := doRequest(e, http.MethodPost, "/api/translate", `{"text":"Hello","lang":"fr"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.TranslateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "[fr] Hello", resp.Translation)
}

func TestTranslateHandler_ErrorShapes(t *testing.T) {
	rec := doRequest(newTranslateServer(&stubTranslate{err: &service.ValidationError{Message: "Missing text"}}), http.MethodPost, "/api/translate", `{"text":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Missing text"}`, rec.Body.String())

	rec = doRequest(newTranslateServer(&stubTranslate{err: errors.New("Missing OPENAI_API_KEY")}), http.MethodPost, "/api/translate", `{"text":"hi"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Missing OPENAI_API_KEY"}`, rec.Body.String())
}

type stubHistory struct {
	gotJob   string
	gotLimit int
}

func (s *stubHistory) GetExecutionHistoryByID(_ context.Context, id uint) (*dto.ExecutionHistoryResponse, error) {
	if id != 7 {
		return nil, service.ErrNotFound
	}
	return &dto.ExecutionHistoryResponse{ID: 7, JobName: "price_refresh", Status: "success"}, nil
}

func (s *stubHistory) GetExecutionHistories(_ context.Context, jobName string, limit int) ([]*dto.ExecutionHistoryResponse, error) {
	s.gotJob = jobName
	s.gotLimit = limit
	return []*dto.ExecutionHistoryResponse{}, nil
}

func TestExecutionHistoryHandler(t *testing.T) {
	svc := &stubHistory{}
	e := echo.New()
	NewExecutionHistoryHandler(svc, logger.NewNop()).RegisterRoutes(e.Group("/executions"))

	rec := doRequest(e, http.MethodGet, "/executions?job=news_ingest&limit=5", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "news_ingest", svc.gotJob)
	assert.Equal(t, 5, svc.gotLimit)

	assert.Equal(t, http.StatusOK, doRequest(e, http.MethodGet, "/executions/7", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, doRequest(e, http.MethodGet, "/executions/8", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(e, http.MethodGet, "/executions/abc", "", nil).Code)
}

func TestMetricsMiddleware_RecordsHandlerErrors(t *testing.T) {
	e := echo.New()
	e.Use(MetricsMiddleware())
	e.GET("/metrics", MetricsHandler())
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	rec := doRequest(e, http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = doRequest(e, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `liirat_http_requests_total{method="GET",path="/boom",status="418"}`)
}
