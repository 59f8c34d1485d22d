package http

import (
	"strconv"
	"strings"
	"time"

	"liirat-news/internal/api/service"
	"liirat-news/internal/session"
	"liirat-news/pkg/common"
	"liirat-news/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ctxSessionStore = "session_store"
	ctxSession      = "session"
	ctxAuthState    = "auth_state"
)

// SessionMiddleware resolves the session token header into a store and its loaded session.
// A failed lookup leaves the request in the authenticating state without a session.
func SessionMiddleware(manager *session.Manager, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := strings.TrimSpace(c.Request().Header.Get(common.SessionHeader))
			if token == "" {
				c.Set(ctxAuthState, service.StateUnauthenticated)
				return next(c)
			}

			store := manager.Store(token)
			c.Set(ctxSessionStore, store)

			sess, err := store.Load(c.Request().Context())
			switch {
			case err != nil:
				log.Warn("Failed to load session", logger.ErrorField(err))
				c.Set(ctxAuthState, service.StateAuthenticating)
			case sess == nil:
				c.Set(ctxAuthState, service.StateUnauthenticated)
			default:
				c.Set(ctxSession, sess)
				c.Set(ctxAuthState, service.StateAuthenticated)
			}
			return next(c)
		}
	}
}

func sessionFrom(c echo.Context) *session.Session {
	sess, _ := c.Get(ctxSession).(*session.Session)
	return sess
}

func storeFrom(c echo.Context) *session.Store {
	store, _ := c.Get(ctxSessionStore).(*session.Store)
	return store
}

func authStateFrom(c echo.Context) service.AuthState {
	state, ok := c.Get(ctxAuthState).(service.AuthState)
	if !ok {
		return service.StateUnauthenticated
	}
	return state
}

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liirat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "liirat_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "liirat_http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)
)

// MetricsMiddleware records request count and latency per route. Docs and metrics routes are skipped.
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if strings.HasPrefix(path, "/swagger") || path == "/metrics" {
				return next(c)
			}

			start := time.Now()
			httpActiveRequests.Inc()
			defer httpActiveRequests.Dec()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = path
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)
			httpRequestsTotal.WithLabelValues(method, route, status).Inc()
			httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
