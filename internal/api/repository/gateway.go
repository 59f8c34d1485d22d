package repository

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"

	"liirat-news/internal/entity"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrConflict     = errors.New("record already exists")
	ErrInvalidField = errors.New("invalid field")
)

// Predicate is a column-equality filter. A slice value matches any of its elements,
// nil matches NULL, and Between or Contains values select ranges and substrings.
type Predicate map[string]any

// Between matches From <= column < To. A zero bound leaves that side open.
type Between struct {
	From time.Time
	To   time.Time
}

// Contains is a case-insensitive substring match.
type Contains string

// Gateway is the per-entity CRUD surface used by the services.
// Sort is a column name, prefixed with "-" for descending order.
type Gateway[T any] interface {
	List(ctx context.Context, sort string, limit int) ([]T, error)
	Filter(ctx context.Context, where Predicate, sort string, limit int) ([]T, error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, id uint, fields map[string]any) (*T, error)
	Delete(ctx context.Context, id uint) error
}

type gormGateway[T any] struct {
	db       *gorm.DB
	columns  map[string]bool
	writable map[string]bool
}

func newGormGateway[T any](db *gorm.DB, columns []string, writable []string) *gormGateway[T] {
	g := &gormGateway[T]{
		db:       db,
		columns:  make(map[string]bool, len(columns)),
		writable: make(map[string]bool, len(writable)),
	}
	for _, c := range columns {
		g.columns[c] = true
	}
	for _, c := range writable {
		g.writable[c] = true
	}
	return g
}

// NewEventGateway creates the Event gateway.
func NewEventGateway(db *gorm.DB) Gateway[entity.Event] {
	return newGormGateway[entity.Event](db,
		[]string{"id", "title", "event_time", "country", "currency", "importance", "category", "source", "external_id", "created_at"},
		[]string{"title", "event_time", "country", "currency", "importance", "category", "actual_value", "forecast", "previous", "analysis", "analysis_date"},
	)
}

// NewAlertGateway creates the Alert gateway.
func NewAlertGateway(db *gorm.DB) Gateway[entity.Alert] {
	return newGormGateway[entity.Alert](db,
		[]string{"id", "user_id", "event_id", "asset_id", "alert_type", "is_active", "created_at"},
		[]string{"alert_type", "lead_time_minutes", "notification_channels", "target_price", "is_active"},
	)
}

// NewWatchlistGateway creates the WatchlistItem gateway.
func NewWatchlistGateway(db *gorm.DB) Gateway[entity.WatchlistItem] {
	return newGormGateway[entity.WatchlistItem](db,
		[]string{"id", "user_id", "item_type", "event_id", "asset_id", "added_at"},
		nil,
	)
}

// NewAssetGateway creates the Asset gateway.
func NewAssetGateway(db *gorm.DB) Gateway[entity.Asset] {
	return newGormGateway[entity.Asset](db,
		[]string{"id", "symbol", "name", "category", "created_at"},
		[]string{"name", "category", "latest_price", "change_percent", "price_updated_at"},
	)
}

func (g *gormGateway[T]) List(ctx context.Context, sort string, limit int) ([]T, error) {
	return g.Filter(ctx, nil, sort, limit)
}

func (g *gormGateway[T]) Filter(ctx context.Context, where Predicate, sort string, limit int) ([]T, error) {
	query := g.db.WithContext(ctx).Model(new(T))
	for _, col := range slices.Sorted(maps.Keys(where)) {
		val := where[col]
		if !g.columns[col] {
			return nil, fmt.Errorf("%w: filter on %q", ErrInvalidField, col)
		}
		switch v := val.(type) {
		case nil:
			query = query.Where(col + " IS NULL")
		case Between:
			if !v.From.IsZero() {
				query = query.Where(col+" >= ?", v.From)
			}
			if !v.To.IsZero() {
				query = query.Where(col+" < ?", v.To)
			}
		case Contains:
			query = query.Where("LOWER("+col+") LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(string(v)))+"%")
		default:
			if isSlice(val) {
				query = query.Where(col+" IN ?", val)
			} else {
				query = query.Where(col+" = ?", val)
			}
		}
	}

	order, err := g.orderClause(sort)
	if err != nil {
		return nil, err
	}
	if order != "" {
		query = query.Order(order)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var items []T
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (g *gormGateway[T]) Get(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := g.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

func (g *gormGateway[T]) Create(ctx context.Context, item *T) error {
	return translateError(g.db.WithContext(ctx).Create(item).Error)
}

func (g *gormGateway[T]) Update(ctx context.Context, id uint, fields map[string]any) (*T, error) {
	for col := range fields {
		if !g.writable[col] {
			return nil, fmt.Errorf("%w: update of %q", ErrInvalidField, col)
		}
	}
	res := g.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return g.Get(ctx, id)
}

func (g *gormGateway[T]) Delete(ctx context.Context, id uint) error {
	res := g.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *gormGateway[T]) orderClause(sort string) (string, error) {
	if sort == "" {
		return "", nil
	}
	dir := "asc"
	col := sort
	if strings.HasPrefix(sort, "-") {
		dir = "desc"
		col = sort[1:]
	}
	if !g.columns[col] {
		return "", fmt.Errorf("%w: sort by %q", ErrInvalidField, col)
	}
	return col + " " + dir + ", id " + dir, nil
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		// the referenced event or asset does not exist
		return ErrNotFound
	default:
		return err
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func isSlice(v any) bool {
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}
