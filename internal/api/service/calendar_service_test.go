package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/entity"
	"liirat-news/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarLoad_Unauthenticated(t *testing.T) {
	h := newHarness(reconcileNow, reconcileEvents()...)

	view, err := h.calendar.Load(context.Background(), nil, dto.CalendarQuery{})
	require.NoError(t, err)
	assert.Equal(t, string(StateUnauthenticated), view.AuthState)
	require.Len(t, view.Events, 2)
	assert.Equal(t, uint(1), view.Events[0].ID)
	assert.Equal(t, "high", view.Events[0].ImportanceLabel)
	assert.Empty(t, view.AlertsByEvent)
	assert.Empty(t, view.Watchlist)
	assert.Equal(t, []string{"growth", "inflation"}, view.Categories)
	assert.Equal(t, 0, h.alerts.totalCalls()+h.watchlist.totalCalls())
}

func TestCalendarLoad_DecoratesWithUserData(t *testing.T) {
	h := newHarness(reconcileNow, reconcileEvents()...)
	sess := testSession()
	eventID := uint(2)
	h.alerts.seed(entity.Alert{UserID: sess.ID, EventID: &eventID, AlertType: entity.AlertTypeOnRelease, IsActive: true})
	h.watchlist.seed(entity.WatchlistItem{UserID: sess.ID, ItemType: entity.ItemTypeEvent, EventID: &eventID})

	view, err := h.calendar.Load(context.Background(), sess, dto.CalendarQuery{})
	require.NoError(t, err)
	assert.Equal(t, string(StateAuthenticated), view.AuthState)
	assert.False(t, view.Events[0].HasAlert)
	assert.True(t, view.Events[1].HasAlert)
	assert.True(t, view.Events[1].InWatchlist)
	assert.Equal(t, []uint{2}, view.Watchlist)
	assert.False(t, view.UserDataStale)
}

func TestCalendarLoad_UserDataFailureDegrades(t *testing.T) {
	h := newHarness(reconcileNow, reconcileEvents()...)
	h.alerts.failErr = errors.New("connection refused")

	view, err := h.calendar.Load(context.Background(), testSession(), dto.CalendarQuery{})
	require.NoError(t, err)
	assert.True(t, view.UserDataStale)
	assert.NotNil(t, view.StaleSince)
	assert.Len(t, view.Events, 2)
}

func TestCalendarLoad_EventFailureSurfaces(t *testing.T) {
	h := newHarness(reconcileNow, reconcileEvents()...)
	h.events.failErr = errors.New("connection refused")

	_, err := h.calendar.Load(context.Background(), nil, dto.CalendarQuery{})
	assert.Error(t, err)
}

func TestCalendarLoad_FiltersAndValidation(t *testing.T) {
	h := newHarness(reconcileNow, reconcileEvents()...)
	ctx := context.Background()

	view, err := h.calendar.Load(ctx, nil, dto.CalendarQuery{DateRange: "today"})
	require.NoError(t, err)
	require.Len(t, view.Events, 1)
	assert.Equal(t, "CPI", view.Events[0].Title)

	view, err = h.calendar.Load(ctx, nil, dto.CalendarQuery{DateRange: "custom", CustomDate: "2024-01-11"})
	require.NoError(t, err)
	require.Len(t, view.Events, 1)
	assert.Equal(t, "GDP", view.Events[0].Title)

	var verr *ValidationError
	_, err = h.calendar.Load(ctx, nil, dto.CalendarQuery{Importance: []int{4}})
	assert.True(t, errors.As(err, &verr))
	_, err = h.calendar.Load(ctx, nil, dto.CalendarQuery{DateRange: "yesterday"})
	assert.True(t, errors.As(err, &verr))
	_, err = h.calendar.Load(ctx, nil, dto.CalendarQuery{DateRange: "custom", CustomDate: "11/01/2024"})
	assert.True(t, errors.As(err, &verr))
}

func TestCalendarLoad_Pagination(t *testing.T) {
	var events []entity.Event
	for i := 1; i <= 8; i++ {
		e := reconcileEvents()[0]
		e.ID = uint(i)
		e.EventTime = e.EventTime.AddDate(0, 0, i)
		events = append(events, e)
	}
	h := newHarness(reconcileNow, events...)

	view, err := h.calendar.Load(context.Background(), nil, dto.CalendarQuery{})
	require.NoError(t, err)
	assert.Len(t, view.Events, 6)
	assert.Equal(t, 8, view.Total)
	assert.True(t, view.HasMore)

	view, err = h.calendar.Load(context.Background(), nil, dto.CalendarQuery{ShowAll: true})
	require.NoError(t, err)
	assert.Len(t, view.Events, 8)
	assert.False(t, view.HasMore)
}

func TestCalendarLoad_DateWindowOverLargeTable(t *testing.T) {
	var events []entity.Event
	old := reconcileNow.AddDate(0, 0, -60)
	for i := 1; i <= 1000; i++ {
		events = append(events, entity.Event{ID: uint(i), Title: "Redbook YoY", Importance: 1, Category: "other", EventTime: old.Add(time.Duration(i) * time.Minute)})
	}
	events = append(events, entity.Event{ID: 1001, Title: "CPI", Importance: 3, Category: "inflation", EventTime: reconcileNow.Add(2 * time.Hour)})
	h := newHarness(reconcileNow, events...)
	ctx := context.Background()

	view, err := h.calendar.Load(ctx, nil, dto.CalendarQuery{DateRange: "today"})
	require.NoError(t, err)
	assert.Equal(t, 1, view.Total)
	require.Len(t, view.Events, 1)
	assert.Equal(t, uint(1001), view.Events[0].ID)

	view, err = h.calendar.Load(ctx, nil, dto.CalendarQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1001, view.Total)
	assert.True(t, view.HasMore)
}

func TestDateWindow(t *testing.T) {
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC) // Wednesday
	from, to, ok := DateWindow(DateRangeThisWeek, time.Time{}, now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), to)

	from, _, ok = DateWindow(DateRangeNextWeek, time.Time{}, now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), from)

	_, _, ok = DateWindow(DateRangeAll, time.Time{}, now)
	assert.False(t, ok)
	_, _, ok = DateWindow(DateRangeCustom, time.Time{}, now)
	assert.False(t, ok)
}

func TestCalendarLookups_SlowFetchDoesNotOverwriteInvalidation(t *testing.T) {
	h := newHarness(reconcileNow, reconcileEvents()...)
	ctx := context.Background()
	sess := testSession()
	eventID := uint(1)

	// an alert is created and the cache invalidated while the first fetch is in flight
	h.alerts.afterFilter = func() {
		h.alerts.seed(entity.Alert{UserID: sess.ID, EventID: &eventID, AlertType: entity.AlertTypeOnRelease, IsActive: true})
		h.calendar.Invalidate(sess.ID)
		fresh := h.calendar.Lookups(ctx, sess, true)
		assert.Contains(t, fresh.Data.AlertsByEvent, eventID)
	}

	slow := h.calendar.Lookups(ctx, sess, false)
	assert.NotContains(t, slow.Data.AlertsByEvent, eventID)

	cached := h.calendar.Lookups(ctx, sess, false)
	assert.Contains(t, cached.Data.AlertsByEvent, eventID)
}

func TestCalendarLookups_InvalidatedOnAuthChange(t *testing.T) {
	h := newHarness(reconcileNow, reconcileEvents()...)
	ctx := context.Background()
	sess := testSession()

	h.calendar.Lookups(ctx, sess, false)
	h.calendar.Lookups(ctx, sess, false)
	assert.Equal(t, 2, h.alerts.totalCalls()+h.watchlist.totalCalls())

	h.bus.Publish(session.AuthChanged{Token: "t", Session: sess})
	h.calendar.Lookups(ctx, sess, false)
	assert.Equal(t, 4, h.alerts.totalCalls()+h.watchlist.totalCalls())

	h.calendar.Close()
	assert.Equal(t, 0, h.bus.Len())
}

func TestCalendarSuggestions(t *testing.T) {
	h := newHarness(reconcileNow, reconcileEvents()...)
	got, err := h.calendar.Suggestions(context.Background(), "gd")
	require.NoError(t, err)
	assert.Equal(t, []string{"GDP"}, got)

	calls := h.events.totalCalls()
	got, err = h.calendar.Suggestions(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, calls, h.events.totalCalls())
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	k := NewKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.size())

	done := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		unlock()
		close(done)
	}()

	unlockA()
	<-done
	unlockB()
	assert.Equal(t, 0, k.size())
}
