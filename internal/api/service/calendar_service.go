package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/repository"
	"liirat-news/internal/entity"
	"liirat-news/internal/session"
	"liirat-news/pkg/common"
	"liirat-news/pkg/logger"
	"liirat-news/pkg/utils"

	"github.com/patrickmn/go-cache"
)

// AuthState is where a request sits in the sign-in lifecycle.
type AuthState string

const (
	StateUnauthenticated AuthState = "unauthenticated"
	StateAuthenticating  AuthState = "authenticating"
	StateAuthenticated   AuthState = "authenticated"
)

// UserLookups are the per-user sets the calendar decorates events with.
type UserLookups struct {
	AlertsByEvent map[uint]entity.Alert
	Watchlist     map[uint]bool
}

func emptyLookups() UserLookups {
	return UserLookups{AlertsByEvent: map[uint]entity.Alert{}, Watchlist: map[uint]bool{}}
}

// CalendarService reconciles events with the caller's alerts and watchlist.
type CalendarService interface {
	Load(ctx context.Context, sess *session.Session, q dto.CalendarQuery) (*dto.CalendarView, error)
	Suggestions(ctx context.Context, query string) ([]string, error)
	Lookups(ctx context.Context, sess *session.Session, refresh bool) Result[UserLookups]
	Invalidate(userID string)
	Close()
}

// CalendarOptions tunes the calendar service.
type CalendarOptions struct {
	PageSize    int
	UserDataTTL time.Duration
	Policy      DegradePolicy
	Now         func() time.Time
}

type calendarService struct {
	events      repository.Gateway[entity.Event]
	alerts      repository.Gateway[entity.Alert]
	watchlist   repository.Gateway[entity.WatchlistItem]
	logger      *logger.Logger
	lookups     *cache.Cache
	genMu       sync.Mutex
	generations map[string]uint64
	pageSize    int
	policy      DegradePolicy
	now         func() time.Time
	unsubscribe func()
}

// NewCalendarService creates the service and subscribes it to auth changes so a
// sign-in or sign-out always triggers a fresh lookup.
func NewCalendarService(
	events repository.Gateway[entity.Event],
	alerts repository.Gateway[entity.Alert],
	watchlist repository.Gateway[entity.WatchlistItem],
	bus *session.Bus,
	opts CalendarOptions,
	log *logger.Logger,
) CalendarService {
	if opts.PageSize <= 0 {
		opts.PageSize = common.CalendarPageSize
	}
	if opts.UserDataTTL <= 0 {
		opts.UserDataTTL = 30 * time.Second
	}
	if opts.Policy == nil {
		opts.Policy = DefaultDegradePolicy()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &calendarService{
		events:      events,
		alerts:      alerts,
		watchlist:   watchlist,
		logger:      log,
		lookups:     cache.New(opts.UserDataTTL, 2*opts.UserDataTTL),
		generations: make(map[string]uint64),
		pageSize:    opts.PageSize,
		policy:      opts.Policy,
		now:         opts.Now,
	}
	if bus != nil {
		s.unsubscribe = bus.Subscribe(func(evt session.AuthChanged) {
			if evt.Session != nil {
				s.Invalidate(evt.Session.ID)
			}
		})
	}
	return s
}

func (s *calendarService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Invalidate drops the cached lookups and bumps the user's generation so a
// fetch that started before the mutation cannot repopulate the cache.
func (s *calendarService) Invalidate(userID string) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generations[userID]++
	s.lookups.Delete(userID)
}

func (s *calendarService) generation(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[userID]
}

// storeLookups caches lookups only if no invalidation happened since gen was read.
func (s *calendarService) storeLookups(userID string, gen uint64, lookups UserLookups) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.generations[userID] != gen {
		return
	}
	s.lookups.SetDefault(userID, lookups)
}

// Load returns the filtered calendar. Without a session only events are read.
func (s *calendarService) Load(ctx context.Context, sess *session.Session, q dto.CalendarQuery) (*dto.CalendarView, error) {
	filters, now, err := s.parseQuery(sess, q)
	if err != nil {
		return nil, err
	}

	// the date window is applied in the query so Total counts every matching row
	where := repository.Predicate{}
	if from, to, ok := DateWindow(filters.DateRange, filters.CustomDate, now); ok {
		where["event_time"] = repository.Between{From: from, To: to}
	}
	events, err := s.events.Filter(ctx, where, "event_time", 0)
	if err != nil {
		s.logger.Error("Failed to load events", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	filtered := ApplyFilters(events, filters, now)
	page := Paginate(filtered, s.pageSize, q.ShowAll)

	view := &dto.CalendarView{
		AuthState:     string(StateUnauthenticated),
		Events:        make([]dto.EventResponse, 0, len(page.Items)),
		Total:         page.Total,
		HasMore:       page.HasMore,
		AlertsByEvent: map[uint]dto.AlertResponse{},
		Watchlist:     []uint{},
		Categories:    Categories(events),
	}

	lookups := emptyLookups()
	if sess.Valid() {
		view.AuthState = string(StateAuthenticated)
		res := s.Lookups(ctx, sess, q.Refresh)
		if res.Err != nil && !res.Fallback {
			return nil, res.Err
		}
		lookups = res.Data
		view.UserDataStale = res.Stale
		view.StaleSince = res.StaleSince
		view.AlertsByEvent = alertsByEventResponse(lookups.AlertsByEvent)
		view.Watchlist = watchlistIDs(lookups.Watchlist)
	}

	for i := range page.Items {
		resp := mapToEventResponse(&page.Items[i])
		_, resp.HasAlert = lookups.AlertsByEvent[resp.ID]
		resp.InWatchlist = lookups.Watchlist[resp.ID]
		view.Events = append(view.Events, resp)
	}
	return view, nil
}

func (s *calendarService) Suggestions(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}, nil
	}
	events, err := s.events.Filter(ctx, repository.Predicate{"title": repository.Contains(query)}, "event_time", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return SearchSuggestions(events, query, common.SearchSuggestionLimit), nil
}

// Lookups fetches the active alerts and event watchlist of the user.
// Cached results are reused until refresh, a mutation or an auth change.
func (s *calendarService) Lookups(ctx context.Context, sess *session.Session, refresh bool) Result[UserLookups] {
	if !sess.Valid() {
		return Fresh(emptyLookups())
	}
	if !refresh {
		if cached, ok := s.lookups.Get(sess.ID); ok {
			return Fresh(cached.(UserLookups))
		}
	}

	gen := s.generation(sess.ID)
	lookups, err := s.fetchLookups(ctx, sess.ID)
	if err != nil {
		s.logger.Warn("Failed to load user calendar data", logger.ErrorField(err), logger.StringField("user_id", sess.ID))
		if s.policy.Degrade(DataUserData) {
			return Degraded(emptyLookups(), err, s.now())
		}
		return Result[UserLookups]{Err: err}
	}
	s.storeLookups(sess.ID, gen, lookups)
	return Fresh(lookups)
}

func (s *calendarService) fetchLookups(ctx context.Context, userID string) (UserLookups, error) {
	alerts, err := s.alerts.Filter(ctx, repository.Predicate{"user_id": userID, "is_active": true}, "created_at", 0)
	if err != nil {
		return UserLookups{}, fmt.Errorf("failed to load alerts: %w", err)
	}
	items, err := s.watchlist.Filter(ctx, repository.Predicate{"user_id": userID, "item_type": string(entity.ItemTypeEvent)}, "", 0)
	if err != nil {
		return UserLookups{}, fmt.Errorf("failed to load watchlist: %w", err)
	}

	lookups := emptyLookups()
	for _, a := range alerts {
		if a.EventID != nil {
			lookups.AlertsByEvent[*a.EventID] = a
		}
	}
	for _, it := range items {
		if it.EventID != nil {
			lookups.Watchlist[*it.EventID] = true
		}
	}
	return lookups, nil
}

func (s *calendarService) parseQuery(sess *session.Session, q dto.CalendarQuery) (EventFilters, time.Time, error) {
	tz := q.Timezone
	if tz == "" && sess != nil {
		tz = sess.Timezone
	}
	loc := utils.LoadLocation(tz)
	now := s.now().In(loc)

	f := EventFilters{
		Search:     q.Search,
		Importance: q.Importance,
		Category:   q.Category,
		DateRange:  DateRange(q.DateRange),
	}
	for _, imp := range q.Importance {
		if imp < entity.ImportanceLow || imp > entity.ImportanceHigh {
			return f, now, newValidationError("importance must be 1, 2 or 3")
		}
	}

	switch f.DateRange {
	case "", DateRangeAll, DateRangeToday, DateRangeThisWeek, DateRangeNextWeek:
	case DateRangeCustom:
		if q.CustomDate != "" {
			d, err := time.ParseInLocation(common.DateLayout, q.CustomDate, loc)
			if err != nil {
				return f, now, newValidationError("custom_date must be YYYY-MM-DD")
			}
			f.CustomDate = d
		}
	default:
		return f, now, newValidationError("date_range must be one of all, today, thisWeek, nextWeek, custom")
	}
	return f, now, nil
}

func alertsByEventResponse(m map[uint]entity.Alert) map[uint]dto.AlertResponse {
	out := make(map[uint]dto.AlertResponse, len(m))
	for id, a := range m {
		a := a
		out[id] = mapToAlertResponse(&a)
	}
	return out
}

func watchlistIDs(m map[uint]bool) []uint {
	out := make([]uint, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
