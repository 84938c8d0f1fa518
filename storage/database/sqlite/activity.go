package sqliterepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/activity"
)

type activityRepository struct {
	db core.DBExecutor
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db core.DBExecutor) activity.Repository {
	return &activityRepository{db: db}
}

const activityColumns = "id, owner_id, title, type, due_at, event_start_at, event_end_at, estimated_minutes, created_at, updated_at"

func scanActivity(row interface{ Scan(...interface{}) error }) (activity.Activity, error) {
	var (
		act     activity.Activity
		typ     string
		dueAt   sql.NullTime
		evStart sql.NullTime
		evEnd   sql.NullTime
	)
	err := row.Scan(&act.ID, &act.OwnerID, &act.Title, &typ, &dueAt, &evStart, &evEnd,
		&act.EstimatedMinutes, &act.CreatedAt, &act.UpdatedAt)
	if err != nil {
		return activity.Activity{}, err
	}
	act.Type = activity.Type(typ)
	act.DueAt = timePtr(dueAt)
	act.EventStartAt = timePtr(evStart)
	act.EventEndAt = timePtr(evEnd)
	act.CreatedAt = act.CreatedAt.UTC()
	act.UpdatedAt = act.UpdatedAt.UTC()
	return act, nil
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (repo *activityRepository) CreateActivity(ctx context.Context, act activity.Activity) (activity.Activity, error) {
	query := `
INSERT INTO activities (` + activityColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := repo.db.ExecContext(ctx, query,
		act.ID, act.OwnerID, act.Title, string(act.Type),
		nullTime(act.DueAt), nullTime(act.EventStartAt), nullTime(act.EventEndAt),
		act.EstimatedMinutes, act.CreatedAt, act.UpdatedAt)
	if err != nil {
		return activity.Activity{}, errors.Wrap(err, "inserting activity")
	}
	return act, nil
}

func (repo *activityRepository) GetActivity(ctx context.Context, ownerID, id string) (activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE owner_id = ? AND id = ?`
	act, err := scanActivity(repo.db.QueryRowContext(ctx, query, ownerID, id))
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return activity.Activity{}, activity.ErrNotFound
		}
		return activity.Activity{}, errors.Wrap(err, "getting activity")
	}
	return act, nil
}

func (repo *activityRepository) QueryActivities(ctx context.Context, ownerID string, filter *activity.QueryFilter, ordering ...core.DBOrdering) ([]activity.Activity, error) {
	where := []string{"owner_id = ?"}
	args := []interface{}{ownerID}

	if filter != nil {
		if len(filter.Types) > 0 {
			ph := make([]string, 0, len(filter.Types))
			for _, t := range filter.Types {
				ph = append(ph, "?")
				args = append(args, string(t))
			}
			where = append(where, "type IN ("+strings.Join(ph, ",")+")")
		}
		if !filter.EventsFrom.IsZero() {
			// fall back to the 60min default window when no explicit end is set
			where = append(where, "COALESCE(event_end_at, datetime(event_start_at, '+60 minutes')) > ?")
			args = append(args, filter.EventsFrom)
		}
		if !filter.EventsTo.IsZero() {
			where = append(where, "event_start_at < ?")
			args = append(args, filter.EventsTo)
		}
		if !filter.DueFrom.IsZero() {
			where = append(where, "due_at >= ?")
			args = append(args, filter.DueFrom)
		}
		if !filter.DueTo.IsZero() {
			where = append(where, "due_at <= ?")
			args = append(args, filter.DueTo)
		}
	}

	query := `SELECT ` + activityColumns + ` FROM activities WHERE ` + strings.Join(where, " AND ")
	if clause := orderingClause(ordering, "created_at", "title"); clause != "" {
		query += " ORDER BY " + clause
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	defer func() { _ = rows.Close() }()

	var acts []activity.Activity
	for rows.Next() {
		act, err := scanActivity(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning activity")
		}
		acts = append(acts, act)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	return acts, nil
}

func (repo *activityRepository) DeleteActivitiesByID(ctx context.Context, ownerID string, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ph := make([]string, 0, len(ids))
	args := []interface{}{ownerID}
	for _, id := range ids {
		ph = append(ph, "?")
		args = append(args, id)
	}
	query := `DELETE FROM activities WHERE owner_id = ? AND id IN (` + strings.Join(ph, ",") + `)`
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting activities")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
