package service

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/repository"
	"liirat-news/internal/entity"
	"liirat-news/internal/session"
	"liirat-news/pkg/logger"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// fakeGateway is an in-memory Gateway that counts every call.
type fakeGateway[T any] struct {
	mu      sync.Mutex
	items   map[uint]*T
	nextID  uint
	columns func(*T) map[string]any
	setID   func(*T, uint)
	apply   func(*T, map[string]any)
	unique  func(a, b *T) bool
	failErr error
	// createErr is returned by Create, e.g. a foreign key miss
	createErr error
	// afterFilter runs once a Filter result is read, outside the lock
	afterFilter func()

	calls   map[string]int
	creates int
	deletes int
}

func newFakeGateway[T any](columns func(*T) map[string]any, setID func(*T, uint), apply func(*T, map[string]any)) *fakeGateway[T] {
	return &fakeGateway[T]{
		items:   map[uint]*T{},
		columns: columns,
		setID:   setID,
		apply:   apply,
		calls:   map[string]int{},
	}
}

func (g *fakeGateway[T]) totalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

func (g *fakeGateway[T]) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}

func (g *fakeGateway[T]) seed(items ...T) {
	for i := range items {
		item := items[i]
		g.mu.Lock()
		g.nextID++
		g.setID(&item, g.nextID)
		g.items[g.nextID] = &item
		g.mu.Unlock()
	}
}

func (g *fakeGateway[T]) List(_ context.Context, order string, limit int) ([]T, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["List"]++
	return g.query(nil, order, limit)
}

func (g *fakeGateway[T]) Filter(_ context.Context, where repository.Predicate, order string, limit int) ([]T, error) {
	g.mu.Lock()
	g.calls["Filter"]++
	out, err := g.query(where, order, limit)
	hook := g.afterFilter
	g.afterFilter = nil
	g.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, err
}

func (g *fakeGateway[T]) query(where repository.Predicate, order string, limit int) ([]T, error) {
	if g.failErr != nil {
		return nil, g.failErr
	}

	keys := make([]uint, 0, len(g.items))
	for id := range g.items {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	if strings.HasPrefix(order, "-") {
		sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })
	}

	var out []T
	for _, id := range keys {
		item := g.items[id]
		if matches(g.columns(item), where) {
			out = append(out, *item)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func matches(cols map[string]any, where repository.Predicate) bool {
	for col, want := range where {
		got := cols[col]
		if want == nil {
			if got != nil {
				return false
			}
			continue
		}
		switch w := want.(type) {
		case repository.Between:
			t, ok := got.(time.Time)
			if !ok || (!w.From.IsZero() && t.Before(w.From)) || (!w.To.IsZero() && !t.Before(w.To)) {
				return false
			}
			continue
		case repository.Contains:
			str, ok := got.(string)
			if !ok || !strings.Contains(strings.ToLower(str), strings.ToLower(string(w))) {
				return false
			}
			continue
		}
		if got == nil {
			return false
		}
		if v := reflect.ValueOf(want); v.Kind() == reflect.Slice {
			found := false
			for i := 0; i < v.Len(); i++ {
				if fmt.Sprint(v.Index(i).Interface()) == fmt.Sprint(got) {
					found = true
				}
			}
			if !found {
				return false
			}
			continue
		}
		if fmt.Sprint(want) != fmt.Sprint(got) {
			return false
		}
	}
	return true
}

func (g *fakeGateway[T]) Get(_ context.Context, id uint) (*T, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["Get"]++
	item, ok := g.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (g *fakeGateway[T]) Create(_ context.Context, item *T) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["Create"]++
	if g.createErr != nil {
		return g.createErr
	}
	if g.unique != nil {
		for _, existing := range g.items {
			if g.unique(existing, item) {
				return repository.ErrConflict
			}
		}
	}
	g.creates++
	g.nextID++
	g.setID(item, g.nextID)
	cp := *item
	g.items[g.nextID] = &cp
	return nil
}

func (g *fakeGateway[T]) Update(_ context.Context, id uint, fields map[string]any) (*T, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["Update"]++
	item, ok := g.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	g.apply(item, fields)
	cp := *item
	return &cp, nil
}

func (g *fakeGateway[T]) Delete(_ context.Context, id uint) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["Delete"]++
	if _, ok := g.items[id]; !ok {
		return repository.ErrNotFound
	}
	g.deletes++
	delete(g.items, id)
	return nil
}

func uintOrNil(p *uint) any {
	if p == nil {
		return nil
	}
	return *p
}

func newEventFake(events ...entity.Event) *fakeGateway[entity.Event] {
	g := newFakeGateway(
		func(e *entity.Event) map[string]any {
			return map[string]any{"id": e.ID, "title": e.Title, "event_time": e.EventTime, "importance": e.Importance, "category": e.Category}
		},
		func(e *entity.Event, id uint) {
			if e.ID == 0 {
				e.ID = id
			}
		},
		func(e *entity.Event, fields map[string]any) {
			if v, ok := fields["analysis"].(string); ok {
				e.Analysis = v
			}
			if v, ok := fields["analysis_date"].(time.Time); ok {
				e.AnalysisDate = &v
			}
		},
	)
	for _, e := range events {
		e := e
		g.items[e.ID] = &e
		if e.ID > g.nextID {
			g.nextID = e.ID
		}
	}
	return g
}

func newAlertFake() *fakeGateway[entity.Alert] {
	g := newFakeGateway(
		func(a *entity.Alert) map[string]any {
			return map[string]any{
				"id":         a.ID,
				"user_id":    a.UserID,
				"event_id":   uintOrNil(a.EventID),
				"asset_id":   uintOrNil(a.AssetID),
				"alert_type": string(a.AlertType),
				"is_active":  a.IsActive,
			}
		},
		func(a *entity.Alert, id uint) { a.ID = id },
		func(a *entity.Alert, fields map[string]any) {
			for k, v := range fields {
				switch k {
				case "alert_type":
					a.AlertType = entity.AlertType(v.(string))
				case "lead_time_minutes":
					a.LeadTimeMinutes = v.(int)
				case "notification_channels":
					a.NotificationChannels = v.(pq.StringArray)
				case "is_active":
					a.IsActive = v.(bool)
				case "target_price":
					a.TargetPrice = v.(decimal.NullDecimal)
				}
			}
		},
	)
	// Mirrors the partial unique index on active event alerts.
	g.unique = func(a, b *entity.Alert) bool {
		return a.EventID != nil && b.EventID != nil && a.IsActive && b.IsActive &&
			a.UserID == b.UserID && *a.EventID == *b.EventID
	}
	return g
}

func newWatchlistFake() *fakeGateway[entity.WatchlistItem] {
	g := newFakeGateway(
		func(w *entity.WatchlistItem) map[string]any {
			return map[string]any{
				"id":        w.ID,
				"user_id":   w.UserID,
				"item_type": string(w.ItemType),
				"event_id":  uintOrNil(w.EventID),
				"asset_id":  uintOrNil(w.AssetID),
			}
		},
		func(w *entity.WatchlistItem, id uint) { w.ID = id },
		func(*entity.WatchlistItem, map[string]any) {},
	)
	g.unique = func(a, b *entity.WatchlistItem) bool {
		return a.UserID == b.UserID && a.EventID != nil && b.EventID != nil && *a.EventID == *b.EventID
	}
	return g
}

func newAssetFake(assets ...entity.Asset) *fakeGateway[entity.Asset] {
	g := newFakeGateway(
		func(a *entity.Asset) map[string]any {
			return map[string]any{"id": a.ID, "symbol": a.Symbol, "name": a.Name}
		},
		func(a *entity.Asset, id uint) { a.ID = id },
		func(*entity.Asset, map[string]any) {},
	)
	g.seed(assets...)
	return g
}

type recordedNotification struct {
	UserID, Kind, Message string
}

type fakeNotifications struct {
	mu   sync.Mutex
	sent []recordedNotification
}

func (f *fakeNotifications) Notify(_ context.Context, userID, kind, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, recordedNotification{userID, kind, message})
}

func (f *fakeNotifications) Recent(context.Context, *session.Session) ([]dto.RecentNotification, error) {
	return nil, nil
}

func (f *fakeNotifications) List(context.Context, *session.Session, int) ([]dto.NotificationResponse, error) {
	return nil, nil
}

func (f *fakeNotifications) MarkRead(context.Context, *session.Session, uint) error {
	return nil
}

func (f *fakeNotifications) DeleteAll(context.Context, *session.Session) (int64, error) {
	return 0, nil
}

func (f *fakeNotifications) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// harness wires the reconciliation services over fakes.
type harness struct {
	events        *fakeGateway[entity.Event]
	alerts        *fakeGateway[entity.Alert]
	watchlist     *fakeGateway[entity.WatchlistItem]
	assets        *fakeGateway[entity.Asset]
	notifications *fakeNotifications
	bus           *session.Bus
	calendar      CalendarService
	alertSvc      AlertService
	watchlistSvc  WatchlistService
}

func newHarness(now time.Time, events ...entity.Event) *harness {
	h := &harness{
		events:        newEventFake(events...),
		alerts:        newAlertFake(),
		watchlist:     newWatchlistFake(),
		assets:        newAssetFake(entity.Asset{Symbol: "EURUSD", Name: "Euro / US Dollar"}, entity.Asset{Symbol: "XAUUSD", Name: "Gold"}),
		notifications: &fakeNotifications{},
		bus:           session.NewBus(),
	}
	log := logger.NewNop()
	locks := NewKeyedMutex()
	h.calendar = NewCalendarService(h.events, h.alerts, h.watchlist, h.bus, CalendarOptions{
		Now: func() time.Time { return now },
	}, log)
	h.alertSvc = NewAlertService(h.alerts, h.events, h.assets, h.calendar, h.notifications, locks, 5, log)
	h.watchlistSvc = NewWatchlistService(h.watchlist, h.events, h.assets, h.calendar, h.alertSvc, h.notifications, locks, log)
	return h
}

func (h *harness) gatewayCalls() int {
	return h.events.totalCalls() + h.alerts.totalCalls() + h.watchlist.totalCalls() + h.assets.totalCalls()
}

func testSession() *session.Session {
	return &session.Session{ID: "user-1", Email: "user@example.com", Timezone: "UTC"}
}
