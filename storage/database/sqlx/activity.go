package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/activity"
)

type activityRepository struct {
	db *sqlx.DB
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db *sql.DB) activity.Repository {
	return &activityRepository{db: sqlx.NewDb(db, "postgres")}
}

type activityRow struct {
	ID               string    `db:"id"`
	OwnerID          string    `db:"owner_id"`
	Title            string    `db:"title"`
	Type             string    `db:"type"`
	DueAt            null.Time `db:"due_at"`
	EventStartAt     null.Time `db:"event_start_at"`
	EventEndAt       null.Time `db:"event_end_at"`
	EstimatedMinutes int       `db:"estimated_minutes"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func newActivityRow(act activity.Activity) activityRow {
	return activityRow{
		ID:               act.ID,
		OwnerID:          act.OwnerID,
		Title:            act.Title,
		Type:             string(act.Type),
		DueAt:            null.TimeFromPtr(act.DueAt),
		EventStartAt:     null.TimeFromPtr(act.EventStartAt),
		EventEndAt:       null.TimeFromPtr(act.EventEndAt),
		EstimatedMinutes: act.EstimatedMinutes,
		CreatedAt:        act.CreatedAt,
		UpdatedAt:        act.UpdatedAt,
	}
}

func (row activityRow) activity() activity.Activity {
	return activity.Activity{
		ID:               row.ID,
		OwnerID:          row.OwnerID,
		Title:            row.Title,
		Type:             activity.Type(row.Type),
		DueAt:            utcPtr(row.DueAt.Ptr()),
		EventStartAt:     utcPtr(row.EventStartAt.Ptr()),
		EventEndAt:       utcPtr(row.EventEndAt.Ptr()),
		EstimatedMinutes: row.EstimatedMinutes,
		CreatedAt:        row.CreatedAt.UTC(),
		UpdatedAt:        row.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

const activityColumns = "id, owner_id, title, type, due_at, event_start_at, event_end_at, estimated_minutes, created_at, updated_at"

func (repo *activityRepository) CreateActivity(ctx context.Context, act activity.Activity) (activity.Activity, error) {
	query := `
INSERT INTO activities (` + activityColumns + `)
VALUES (:id, :owner_id, :title, :type, :due_at, :event_start_at, :event_end_at, :estimated_minutes, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, newActivityRow(act)); err != nil {
		return activity.Activity{}, wrapDBErr(err, "inserting activity")
	}
	return act, nil
}

func (repo *activityRepository) GetActivity(ctx context.Context, ownerID, id string) (activity.Activity, error) {
	var row activityRow
	query := `SELECT ` + activityColumns + ` FROM activities WHERE owner_id = $1 AND id = $2`
	if err := repo.db.GetContext(ctx, &row, query, ownerID, id); err != nil {
		return activity.Activity{}, trapNoRowsErr(err, activity.ErrNotFound, "getting activity")
	}
	return row.activity(), nil
}

func (repo *activityRepository) QueryActivities(ctx context.Context, ownerID string, filter *activity.QueryFilter, ordering ...core.DBOrdering) ([]activity.Activity, error) {
	where := []string{"owner_id = $1"}
	args := []interface{}{ownerID}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if len(filter.Types) > 0 {
			ph := make([]string, 0, len(filter.Types))
			for _, t := range filter.Types {
				ph = append(ph, arg(string(t)))
			}
			where = append(where, "type IN ("+strings.Join(ph, ",")+")")
		}
		if !filter.EventsFrom.IsZero() {
			// the default 60min window still counts when no explicit end is set
			where = append(where, "COALESCE(event_end_at, event_start_at + interval '60 minutes') > "+arg(filter.EventsFrom))
		}
		if !filter.EventsTo.IsZero() {
			where = append(where, "event_start_at < "+arg(filter.EventsTo))
		}
		if !filter.DueFrom.IsZero() {
			where = append(where, "due_at >= "+arg(filter.DueFrom))
		}
		if !filter.DueTo.IsZero() {
			where = append(where, "due_at <= "+arg(filter.DueTo))
		}
	}

	query := `SELECT ` + activityColumns + ` FROM activities WHERE ` + strings.Join(where, " AND ")
	if clause := orderingClause(ordering, "created_at", "title"); clause != "" {
		query += " ORDER BY " + clause
	}

	var rows []activityRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapDBErr(err, "querying activities")
	}

	acts := make([]activity.Activity, 0, len(rows))
	for _, row := range rows {
		acts = append(acts, row.activity())
	}
	return acts, nil
}

func (repo *activityRepository) DeleteActivitiesByID(ctx context.Context, ownerID string, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM activities WHERE owner_id = ? AND id IN (?)`, ownerID, ids)
	if err != nil {
		return 0, wrapDBErr(err, "deleting activities")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, wrapDBErr(err, "deleting activities")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
