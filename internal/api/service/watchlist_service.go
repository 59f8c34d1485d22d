package service

import (
	"context"
	"errors"
	"fmt"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/repository"
	"liirat-news/internal/entity"
	"liirat-news/internal/session"
	"liirat-news/pkg/logger"

	"github.com/shopspring/decimal"
)

// WatchlistService manages the events and assets a user follows.
type WatchlistService interface {
	ToggleWatchlist(ctx context.Context, sess *session.Session, eventID uint) (*dto.ToggleWatchlistResponse, error)
	ListWatchlist(ctx context.Context, sess *session.Session, itemType string) ([]dto.WatchlistItemResponse, error)
	Remove(ctx context.Context, sess *session.Session, itemID uint) error
	CreateAlertFromWatchlist(ctx context.Context, sess *session.Session, itemID uint) (*dto.AlertResponse, error)
}

func NewWatchlistService(
	watchlist repository.Gateway[entity.WatchlistItem],
	events repository.Gateway[entity.Event],
	assets repository.Gateway[entity.Asset],
	calendar CalendarService,
	alerts AlertService,
	notifications NotificationService,
	locks *KeyedMutex,
	log *logger.Logger,
) WatchlistService {
	return &watchlistService{
		watchlist:     watchlist,
		events:        events,
		assets:        assets,
		calendar:      calendar,
		alerts:        alerts,
		notifications: notifications,
		locks:         locks,
		logger:        log,
	}
}

type watchlistService struct {
	watchlist     repository.Gateway[entity.WatchlistItem]
	events        repository.Gateway[entity.Event]
	assets        repository.Gateway[entity.Asset]
	calendar      CalendarService
	alerts        AlertService
	notifications NotificationService
	locks         *KeyedMutex
	logger        *logger.Logger
}

// ToggleWatchlist removes the event from the watchlist when present, otherwise adds it.
func (s *watchlistService) ToggleWatchlist(ctx context.Context, sess *session.Session, eventID uint) (*dto.ToggleWatchlistResponse, error) {
	if !sess.Valid() {
		return nil, ErrUnauthenticated
	}
	if eventID == 0 {
		return nil, newValidationError("event_id is required")
	}

	unlock := s.locks.Lock(fmt.Sprintf("watchlist:%s:%d", sess.ID, eventID))
	defer unlock()

	existing, err := s.watchlist.Filter(ctx, repository.Predicate{"user_id": sess.ID, "event_id": eventID}, "", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to look up watchlist: %w", err)
	}

	added := len(existing) == 0
	if added {
		item := &entity.WatchlistItem{UserID: sess.ID, ItemType: entity.ItemTypeEvent, EventID: &eventID}
		err := s.watchlist.Create(ctx, item)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		if err != nil && !errors.Is(err, repository.ErrConflict) {
			s.logger.Error("Failed to add watchlist item", logger.ErrorField(err), logger.StringField("user_id", sess.ID))
			return nil, fmt.Errorf("failed to add watchlist item: %w", err)
		}
	} else {
		for _, it := range existing {
			if err := s.watchlist.Delete(ctx, it.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				s.logger.Error("Failed to remove watchlist item", logger.ErrorField(err), logger.StringField("user_id", sess.ID))
				return nil, fmt.Errorf("failed to remove watchlist item: %w", err)
			}
		}
	}

	s.calendar.Invalidate(sess.ID)
	lookups := s.calendar.Lookups(ctx, sess, true)
	if added {
		s.notifications.Notify(ctx, sess.ID, "watchlist_added", fmt.Sprintf("Event #%d added to watchlist", eventID))
	} else {
		s.notifications.Notify(ctx, sess.ID, "watchlist_removed", fmt.Sprintf("Event #%d removed from watchlist", eventID))
	}

	return &dto.ToggleWatchlistResponse{Added: added, Watchlist: watchlistIDs(lookups.Data.Watchlist)}, nil
}

// ListWatchlist resolves every item; items whose target was deleted are returned as unavailable placeholders.
func (s *watchlistService) ListWatchlist(ctx context.Context, sess *session.Session, itemType string) ([]dto.WatchlistItemResponse, error) {
	if !sess.Valid() {
		return nil, ErrUnauthenticated
	}
	where := repository.Predicate{"user_id": sess.ID}
	if itemType != "" {
		if !entity.ItemType(itemType).Valid() {
			return nil, newValidationError("type must be event or asset")
		}
		where["item_type"] = itemType
	}
	items, err := s.watchlist.Filter(ctx, where, "-added_at", 0)
	if err != nil {
		s.logger.Error("Failed to list watchlist", logger.ErrorField(err), logger.StringField("user_id", sess.ID))
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}

	var eventIDs, assetIDs []uint
	for _, it := range items {
		if it.EventID != nil {
			eventIDs = append(eventIDs, *it.EventID)
		}
		if it.AssetID != nil {
			assetIDs = append(assetIDs, *it.AssetID)
		}
	}

	events := map[uint]entity.Event{}
	if len(eventIDs) > 0 {
		found, err := s.events.Filter(ctx, repository.Predicate{"id": eventIDs}, "", 0)
		if err != nil {
			return nil, fmt.Errorf("failed to load watchlist events: %w", err)
		}
		for _, e := range found {
			events[e.ID] = e
		}
	}
	assets := map[uint]entity.Asset{}
	if len(assetIDs) > 0 {
		found, err := s.assets.Filter(ctx, repository.Predicate{"id": assetIDs}, "", 0)
		if err != nil {
			return nil, fmt.Errorf("failed to load watchlist assets: %w", err)
		}
		for _, a := range found {
			assets[a.ID] = a
		}
	}

	out := make([]dto.WatchlistItemResponse, 0, len(items))
	for _, it := range items {
		resp := dto.WatchlistItemResponse{ID: it.ID, ItemType: string(it.ItemType), AddedAt: it.AddedAt}
		switch it.ItemType {
		case entity.ItemTypeEvent:
			if it.EventID != nil {
				if e, ok := events[*it.EventID]; ok {
					er := mapToEventResponse(&e)
					er.InWatchlist = true
					resp.Event = &er
					resp.Available = true
				}
			}
		case entity.ItemTypeAsset:
			if it.AssetID != nil {
				if a, ok := assets[*it.AssetID]; ok {
					ar := mapToAssetResponse(&a)
					resp.Asset = &ar
					resp.Available = true
				}
			}
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *watchlistService) Remove(ctx context.Context, sess *session.Session, itemID uint) error {
	if !sess.Valid() {
		return ErrUnauthenticated
	}
	item, err := s.ownedItem(ctx, sess, itemID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.watchlist.Delete(ctx, item.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to remove watchlist item: %w", err)
	}
	s.calendar.Invalidate(sess.ID)
	s.calendar.Lookups(ctx, sess, true)
	return nil
}

// CreateAlertFromWatchlist creates the default alert for a watched item:
// onRelease for events, crossesAbove with a zero target for assets.
func (s *watchlistService) CreateAlertFromWatchlist(ctx context.Context, sess *session.Session, itemID uint) (*dto.AlertResponse, error) {
	if !sess.Valid() {
		return nil, ErrUnauthenticated
	}
	item, err := s.ownedItem(ctx, sess, itemID)
	if err != nil {
		return nil, err
	}

	switch {
	case item.ItemType == entity.ItemTypeEvent && item.EventID != nil:
		res, err := s.alerts.SetEventAlert(ctx, sess, dto.SetAlertRequest{
			EventID:   *item.EventID,
			AlertType: string(entity.AlertTypeOnRelease),
		})
		if err != nil {
			return nil, err
		}
		return &res.Alert, nil
	case item.ItemType == entity.ItemTypeAsset && item.AssetID != nil:
		return s.alerts.CreatePriceAlert(ctx, sess, dto.PriceAlertRequest{
			AssetID:     *item.AssetID,
			TargetPrice: decimal.NewNullDecimal(decimal.Zero),
			AlertType:   string(entity.AlertTypeCrossesAbove),
		})
	default:
		return nil, newValidationError("watchlist item has no target")
	}
}

func (s *watchlistService) ownedItem(ctx context.Context, sess *session.Session, itemID uint) (*entity.WatchlistItem, error) {
	item, err := s.watchlist.Get(ctx, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist item: %w", err)
	}
	if item.UserID != sess.ID {
		return nil, ErrForbidden
	}
	return item, nil
}
