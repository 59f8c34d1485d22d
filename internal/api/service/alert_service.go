package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/repository"
	"liirat-news/internal/entity"
	"liirat-news/internal/session"
	"liirat-news/pkg/common"
	"liirat-news/pkg/logger"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const defaultChannel = entity.ChannelPush

// AlertService manages event and price alerts of the signed-in user.
type AlertService interface {
	SetEventAlert(ctx context.Context, sess *session.Session, req dto.SetAlertRequest) (*dto.SetAlertResponse, error)
	CreatePriceAlert(ctx context.Context, sess *session.Session, req dto.PriceAlertRequest) (*dto.AlertResponse, error)
	ListAlerts(ctx context.Context, sess *session.Session, showAll bool) (*dto.AlertListResponse, error)
	DeleteAlert(ctx context.Context, sess *session.Session, alertID uint) error
	ToggleAlertActive(ctx context.Context, sess *session.Session, alertID uint) (*dto.AlertResponse, error)
	AssetSuggestions(ctx context.Context, query string) ([]dto.AssetResponse, error)
}

func NewAlertService(
	alerts repository.Gateway[entity.Alert],
	events repository.Gateway[entity.Event],
	assets repository.Gateway[entity.Asset],
	calendar CalendarService,
	notifications NotificationService,
	locks *KeyedMutex,
	pageSize int,
	log *logger.Logger,
) AlertService {
	if pageSize <= 0 {
		pageSize = common.AlertsPageSize
	}
	return &alertService{
		alerts:        alerts,
		events:        events,
		assets:        assets,
		calendar:      calendar,
		notifications: notifications,
		locks:         locks,
		pageSize:      pageSize,
		logger:        log,
	}
}

type alertService struct {
	alerts        repository.Gateway[entity.Alert]
	events        repository.Gateway[entity.Event]
	assets        repository.Gateway[entity.Asset]
	calendar      CalendarService
	notifications NotificationService
	locks         *KeyedMutex
	pageSize      int
	logger        *logger.Logger
}

// SetEventAlert updates the user's active alert for the event in place, or creates one.
func (s *alertService) SetEventAlert(ctx context.Context, sess *session.Session, req dto.SetAlertRequest) (*dto.SetAlertResponse, error) {
	if !sess.Valid() {
		return nil, ErrUnauthenticated
	}
	alertType, channels, err := validateEventAlert(req)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(fmt.Sprintf("alert:%s:%d", sess.ID, req.EventID))
	defer unlock()

	saved, err := s.upsertEventAlert(ctx, sess.ID, req.EventID, alertType, req.LeadTimeMinutes, channels)
	if err != nil {
		return nil, err
	}

	s.calendar.Invalidate(sess.ID)
	lookups := s.calendar.Lookups(ctx, sess, true)
	s.notifications.Notify(ctx, sess.ID, "alert_set", fmt.Sprintf("Alert set for event #%d", req.EventID))

	return &dto.SetAlertResponse{
		Alert:         mapToAlertResponse(saved),
		AlertsByEvent: alertsByEventResponse(lookups.Data.AlertsByEvent),
	}, nil
}

func (s *alertService) upsertEventAlert(ctx context.Context, userID string, eventID uint, alertType entity.AlertType, leadTime int, channels []string) (*entity.Alert, error) {
	fields := map[string]any{
		"alert_type":            string(alertType),
		"lead_time_minutes":     leadTime,
		"notification_channels": pq.StringArray(channels),
	}

	existing, err := s.findActiveEventAlert(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.updateAlert(ctx, existing.ID, fields)
	}

	alert := &entity.Alert{
		UserID:               userID,
		EventID:              &eventID,
		AlertType:            alertType,
		LeadTimeMinutes:      leadTime,
		NotificationChannels: pq.StringArray(channels),
		IsActive:             true,
	}
	err = s.alerts.Create(ctx, alert)
	if errors.Is(err, repository.ErrConflict) {
		// Another replica created it between our read and write.
		existing, ferr := s.findActiveEventAlert(ctx, userID, eventID)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, ErrConflict
		}
		return s.updateAlert(ctx, existing.ID, fields)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("Failed to create alert", logger.ErrorField(err), logger.StringField("user_id", userID))
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return alert, nil
}

func (s *alertService) findActiveEventAlert(ctx context.Context, userID string, eventID uint) (*entity.Alert, error) {
	found, err := s.alerts.Filter(ctx, repository.Predicate{"user_id": userID, "event_id": eventID, "is_active": true}, "-created_at", 1)
	if err != nil {
		return nil, fmt.Errorf("failed to look up alert: %w", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (s *alertService) updateAlert(ctx context.Context, id uint, fields map[string]any) (*entity.Alert, error) {
	updated, err := s.alerts.Update(ctx, id, fields)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	return updated, nil
}

func (s *alertService) CreatePriceAlert(ctx context.Context, sess *session.Session, req dto.PriceAlertRequest) (*dto.AlertResponse, error) {
	if !sess.Valid() {
		return nil, ErrUnauthenticated
	}
	alertType := entity.AlertType(req.AlertType)
	if !alertType.IsPrice() {
		return nil, newValidationError("alert_type must be crossesAbove or crossesBelow")
	}
	if req.AssetID == 0 {
		return nil, newValidationError("asset_id is required")
	}
	if !req.TargetPrice.Valid || req.TargetPrice.Decimal.IsNegative() {
		return nil, newValidationError("target_price must not be negative")
	}
	channels, err := normaliseChannels(req.Channels)
	if err != nil {
		return nil, err
	}

	if _, err := s.assets.Get(ctx, req.AssetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load asset: %w", err)
	}

	alert, err := s.createAssetAlert(ctx, sess.ID, req.AssetID, alertType, req.TargetPrice, channels)
	if err != nil {
		return nil, err
	}
	resp := mapToAlertResponse(alert)
	return &resp, nil
}

func (s *alertService) createAssetAlert(ctx context.Context, userID string, assetID uint, alertType entity.AlertType, target decimal.NullDecimal, channels []string) (*entity.Alert, error) {
	alert := &entity.Alert{
		UserID:               userID,
		AssetID:              &assetID,
		TargetPrice:          target,
		AlertType:            alertType,
		NotificationChannels: pq.StringArray(channels),
		IsActive:             true,
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("Failed to create price alert", logger.ErrorField(err), logger.StringField("user_id", userID))
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	s.calendar.Invalidate(userID)
	s.notifications.Notify(ctx, userID, "alert_set", fmt.Sprintf("Price alert set for asset #%d", assetID))
	return alert, nil
}

// ListAlerts returns every alert of the user, newest first, resolved to event titles and asset symbols.
func (s *alertService) ListAlerts(ctx context.Context, sess *session.Session, showAll bool) (*dto.AlertListResponse, error) {
	if !sess.Valid() {
		return nil, ErrUnauthenticated
	}
	alerts, err := s.alerts.Filter(ctx, repository.Predicate{"user_id": sess.ID}, "-created_at", 0)
	if err != nil {
		s.logger.Error("Failed to list alerts", logger.ErrorField(err), logger.StringField("user_id", sess.ID))
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	page := Paginate(alerts, s.pageSize, showAll)
	titles, symbols := s.resolveTargets(ctx, page.Items)

	out := &dto.AlertListResponse{Alerts: make([]dto.AlertResponse, 0, len(page.Items)), Total: page.Total, HasMore: page.HasMore}
	for i := range page.Items {
		resp := mapToAlertResponse(&page.Items[i])
		if resp.EventID != nil {
			resp.EventTitle = titles[*resp.EventID]
		}
		if resp.AssetID != nil {
			resp.AssetSymbol = symbols[*resp.AssetID]
		}
		out.Alerts = append(out.Alerts, resp)
	}
	return out, nil
}

func (s *alertService) resolveTargets(ctx context.Context, alerts []entity.Alert) (map[uint]string, map[uint]string) {
	var eventIDs, assetIDs []uint
	for _, a := range alerts {
		if a.EventID != nil {
			eventIDs = append(eventIDs, *a.EventID)
		}
		if a.AssetID != nil {
			assetIDs = append(assetIDs, *a.AssetID)
		}
	}
	titles := map[uint]string{}
	symbols := map[uint]string{}
	if len(eventIDs) > 0 {
		events, err := s.events.Filter(ctx, repository.Predicate{"id": eventIDs}, "", 0)
		if err != nil {
			s.logger.Warn("Failed to resolve alert events", logger.ErrorField(err))
		}
		for _, e := range events {
			titles[e.ID] = e.Title
		}
	}
	if len(assetIDs) > 0 {
		assets, err := s.assets.Filter(ctx, repository.Predicate{"id": assetIDs}, "", 0)
		if err != nil {
			s.logger.Warn("Failed to resolve alert assets", logger.ErrorField(err))
		}
		for _, a := range assets {
			symbols[a.ID] = a.Symbol
		}
	}
	return titles, symbols
}

// DeleteAlert is idempotent: deleting a missing alert succeeds.
func (s *alertService) DeleteAlert(ctx context.Context, sess *session.Session, alertID uint) error {
	if !sess.Valid() {
		return ErrUnauthenticated
	}
	alert, err := s.alerts.Get(ctx, alertID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load alert: %w", err)
	}
	if alert.UserID != sess.ID {
		return ErrForbidden
	}

	if err := s.alerts.Delete(ctx, alertID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("Failed to delete alert", logger.ErrorField(err), logger.Field("alert_id", alertID))
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	s.calendar.Invalidate(sess.ID)
	s.calendar.Lookups(ctx, sess, true)
	s.notifications.Notify(ctx, sess.ID, "alert_deleted", fmt.Sprintf("Alert #%d deleted", alertID))
	return nil
}

func (s *alertService) ToggleAlertActive(ctx context.Context, sess *session.Session, alertID uint) (*dto.AlertResponse, error) {
	if !sess.Valid() {
		return nil, ErrUnauthenticated
	}
	alert, err := s.alerts.Get(ctx, alertID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}
	if alert.UserID != sess.ID {
		return nil, ErrForbidden
	}

	updated, err := s.updateAlert(ctx, alertID, map[string]any{"is_active": !alert.IsActive})
	if err != nil {
		return nil, err
	}
	s.calendar.Invalidate(sess.ID)
	s.calendar.Lookups(ctx, sess, true)
	resp := mapToAlertResponse(updated)
	return &resp, nil
}

// AssetSuggestions matches symbol or name prefixes, symbols first.
func (s *alertService) AssetSuggestions(ctx context.Context, query string) ([]dto.AssetResponse, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []dto.AssetResponse{}, nil
	}
	assets, err := s.assets.List(ctx, "symbol", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	type scored struct {
		asset entity.Asset
		rank  int
	}
	var matches []scored
	for _, a := range assets {
		switch {
		case strings.HasPrefix(strings.ToLower(a.Symbol), q):
			matches = append(matches, scored{a, 0})
		case strings.HasPrefix(strings.ToLower(a.Name), q):
			matches = append(matches, scored{a, 1})
		case strings.Contains(strings.ToLower(a.Name), q):
			matches = append(matches, scored{a, 2})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].rank < matches[j].rank })

	out := make([]dto.AssetResponse, 0, common.AssetSuggestionLimit)
	for _, m := range matches {
		if len(out) == common.AssetSuggestionLimit {
			break
		}
		m := m
		out = append(out, mapToAssetResponse(&m.asset))
	}
	return out, nil
}

func validateEventAlert(req dto.SetAlertRequest) (entity.AlertType, []string, error) {
	if req.EventID == 0 {
		return "", nil, newValidationError("event_id is required")
	}
	alertType := entity.AlertType(req.AlertType)
	if alertType == "" {
		alertType = entity.AlertTypeOnRelease
	}
	if alertType != entity.AlertTypeOnRelease && alertType != entity.AlertTypeBeforeRelease {
		return "", nil, newValidationError("alert_type must be onRelease or beforeRelease")
	}
	if req.LeadTimeMinutes < 0 {
		return "", nil, newValidationError("lead_time_minutes must not be negative")
	}
	var requested []string
	if req.Channel != "" {
		requested = []string{req.Channel}
	}
	channels, err := normaliseChannels(requested)
	if err != nil {
		return "", nil, err
	}
	return alertType, channels, nil
}

func normaliseChannels(in []string) ([]string, error) {
	if len(in) == 0 {
		return []string{defaultChannel}, nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if !entity.ValidChannel(c) {
			return nil, newValidationError("channel must be email, push or whatsapp")
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}
