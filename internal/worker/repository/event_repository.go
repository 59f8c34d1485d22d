package repository

import (
	"context"

	"liirat-news/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventRepository writes synced calendar events.
type EventRepository interface {
	UpsertByExternalID(ctx context.Context, events []entity.Event) (int64, error)
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

type eventRepository struct {
	db *gorm.DB
}

// syncedColumns are overwritten on conflict. analysis and analysis_date are left alone.
var syncedColumns = []string{
	"title", "event_time", "country", "currency", "importance", "category",
	"actual_value", "forecast", "previous", "source", "raw", "updated_at",
}

// UpsertByExternalID inserts new events and refreshes existing ones matched on external_id.
func (r *eventRepository) UpsertByExternalID(ctx context.Context, events []entity.Event) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns(syncedColumns),
	}).CreateInBatches(events, 200)
	return result.RowsAffected, result.Error
}
