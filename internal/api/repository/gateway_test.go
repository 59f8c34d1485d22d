package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"liirat-news/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type sqlRecorder struct {
	statements []string
	vars       [][]interface{}
}

func (r *sqlRecorder) record(db *gorm.DB) {
	r.statements = append(r.statements, db.Statement.SQL.String())
	r.vars = append(r.vars, append([]interface{}(nil), db.Statement.Vars...))
}

func (r *sqlRecorder) last() (string, []interface{}) {
	if len(r.statements) == 0 {
		return "", nil
	}
	return r.statements[len(r.statements)-1], r.vars[len(r.vars)-1]
}

// newDryRunDB builds statements against the postgres dialect without a server.
func newDryRunDB(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=liirat dbname=liirat sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	rec := &sqlRecorder{}
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:record_query", rec.record))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:record_update", rec.record))
	require.NoError(t, db.Callback().Delete().After("gorm:delete").Register("test:record_delete", rec.record))
	return db, rec
}

func TestGateway_FilterBuildsWhereClauses(t *testing.T) {
	db, rec := newDryRunDB(t)
	alerts := NewAlertGateway(db)

	_, err := alerts.Filter(context.Background(), Predicate{
		"user_id":  "user-1",
		"event_id": []uint{1, 2},
		"asset_id": nil,
	}, "-created_at", 5)
	require.NoError(t, err)

	sql, vars := rec.last()
	assert.Contains(t, sql, `SELECT * FROM "alerts" WHERE asset_id IS NULL AND event_id IN ($1,$2) AND user_id = $3 ORDER BY created_at desc, id desc LIMIT`)
	require.GreaterOrEqual(t, len(vars), 3)
	assert.Equal(t, []interface{}{uint(1), uint(2), "user-1"}, vars[:3])
}

func TestGateway_FilterRangesAndSubstrings(t *testing.T) {
	db, rec := newDryRunDB(t)
	events := NewEventGateway(db)
	from := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	_, err := events.Filter(context.Background(), Predicate{"event_time": Between{From: from, To: to}}, "event_time", 0)
	require.NoError(t, err)
	sql, vars := rec.last()
	assert.Equal(t, `SELECT * FROM "events" WHERE event_time >= $1 AND event_time < $2 ORDER BY event_time asc, id asc`, sql)
	assert.Equal(t, []interface{}{from, to}, vars)

	_, err = events.Filter(context.Background(), Predicate{"event_time": Between{From: from}}, "", 0)
	require.NoError(t, err)
	sql, _ = rec.last()
	assert.Equal(t, `SELECT * FROM "events" WHERE event_time >= $1`, sql)

	_, err = events.Filter(context.Background(), Predicate{"title": Contains("CPI 10%_")}, "", 0)
	require.NoError(t, err)
	sql, vars = rec.last()
	assert.Contains(t, sql, "LOWER(title) LIKE $1")
	assert.Equal(t, []interface{}{`%cpi 10\%\_%`}, vars)
}

func TestGateway_RejectsUnknownColumns(t *testing.T) {
	db, rec := newDryRunDB(t)
	events := NewEventGateway(db)
	ctx := context.Background()

	_, err := events.Filter(ctx, Predicate{"password_hash": "x"}, "", 0)
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = events.List(ctx, "-raw", 0)
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = events.Update(ctx, 1, map[string]any{"external_id": "eodhd:x"})
	assert.ErrorIs(t, err, ErrInvalidField)

	assert.Empty(t, rec.statements)
}

func TestGateway_UpdateAndDeleteWithoutRowsAreNotFound(t *testing.T) {
	db, rec := newDryRunDB(t)
	events := NewEventGateway(db)
	ctx := context.Background()

	_, err := events.Update(ctx, 7, map[string]any{"analysis": "Hawkish surprise"})
	assert.ErrorIs(t, err, ErrNotFound)
	sql, vars := rec.last()
	assert.Contains(t, sql, `UPDATE "events" SET "analysis"=$1`)
	assert.Contains(t, sql, "WHERE id = $")
	assert.Contains(t, vars, "Hawkish surprise")

	err = events.Delete(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
	sql, _ = rec.last()
	assert.Contains(t, sql, `DELETE FROM "events" WHERE "events"."id" = $1`)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"missing row", gorm.ErrRecordNotFound, ErrNotFound},
		{"unique violation", gorm.ErrDuplicatedKey, ErrConflict},
		{"foreign key violation", gorm.ErrForeignKeyViolated, ErrNotFound},
		{"wrapped", fmt.Errorf("insert alert: %w", gorm.ErrDuplicatedKey), ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.in), tt.want)
		})
	}

	other := errors.New("connection reset")
	assert.Equal(t, other, translateError(other))
	assert.NoError(t, translateError(nil))
}

func TestGateway_EntityTables(t *testing.T) {
	db, rec := newDryRunDB(t)
	ctx := context.Background()

	_, err := NewWatchlistGateway(db).Filter(ctx, Predicate{"item_type": string(entity.ItemTypeEvent)}, "", 0)
	require.NoError(t, err)
	sql, _ := rec.last()
	assert.Equal(t, `SELECT * FROM "watchlist_items" WHERE item_type = $1`, sql)

	_, err = NewAssetGateway(db).List(ctx, "symbol", 0)
	require.NoError(t, err)
	sql, _ = rec.last()
	assert.Equal(t, `SELECT * FROM "assets" ORDER BY symbol asc, id asc`, sql)
}
