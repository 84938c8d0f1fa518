package sqliterepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/planner"
)

type plannerRepository struct {
	db core.DBExecutor
}

var _ planner.Repository = (*plannerRepository)(nil) // interface compliance check

func NewPlannerRepository(db core.DBExecutor) planner.Repository {
	return &plannerRepository{db: db}
}

const blockColumns = "id, owner_id, activity_id, date, start_time, end_time, category, status, created_at, updated_at"

func scanBlock(row interface{ Scan(...interface{}) error }) (planner.Block, error) {
	var (
		blk        planner.Block
		activityID sql.NullString
		category   string
		status     string
	)
	err := row.Scan(&blk.ID, &blk.OwnerID, &activityID, &blk.Date, &blk.StartTime, &blk.EndTime,
		&category, &status, &blk.CreatedAt, &blk.UpdatedAt)
	if err != nil {
		return planner.Block{}, err
	}
	blk.ActivityID = activityID.String
	blk.Category = planner.Category(category)
	blk.Status = planner.Status(status)
	blk.Date = blk.Date.UTC()
	blk.CreatedAt = blk.CreatedAt.UTC()
	blk.UpdatedAt = blk.UpdatedAt.UTC()
	return blk, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (repo *plannerRepository) CreateBlock(ctx context.Context, blk planner.Block) (planner.Block, error) {
	query := `
INSERT INTO blocks (` + blockColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := repo.db.ExecContext(ctx, query,
		blk.ID, blk.OwnerID, nullString(blk.ActivityID), blk.Date, blk.StartTime, blk.EndTime,
		string(blk.Category), string(blk.Status), blk.CreatedAt, blk.UpdatedAt)
	if err != nil {
		return planner.Block{}, errors.Wrap(err, "inserting block")
	}
	return blk, nil
}

func (repo *plannerRepository) GetBlock(ctx context.Context, ownerID, id string) (planner.Block, error) {
	query := `SELECT ` + blockColumns + ` FROM blocks WHERE owner_id = ? AND id = ?`
	blk, err := scanBlock(repo.db.QueryRowContext(ctx, query, ownerID, id))
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return planner.Block{}, planner.ErrNotFound
		}
		return planner.Block{}, errors.Wrap(err, "getting block")
	}
	return blk, nil
}

func (repo *plannerRepository) QueryBlocks(ctx context.Context, ownerID string, filter *planner.QueryFilter, ordering ...core.DBOrdering) ([]planner.Block, error) {
	where := []string{"owner_id = ?"}
	args := []interface{}{ownerID}

	if filter != nil {
		if !filter.DateFrom.IsZero() {
			where = append(where, "date >= ?")
			args = append(args, filter.DateFrom)
		}
		if !filter.DateTo.IsZero() {
			where = append(where, "date <= ?")
			args = append(args, filter.DateTo)
		}
		if filter.ActivityID != "" {
			where = append(where, "activity_id = ?")
			args = append(args, filter.ActivityID)
		}
		if len(filter.Statuses) > 0 {
			ph := make([]string, 0, len(filter.Statuses))
			for _, s := range filter.Statuses {
				ph = append(ph, "?")
				args = append(args, string(s))
			}
			where = append(where, "status IN ("+strings.Join(ph, ",")+")")
		}
		if len(filter.Categories) > 0 {
			ph := make([]string, 0, len(filter.Categories))
			for _, c := range filter.Categories {
				ph = append(ph, "?")
				args = append(args, string(c))
			}
			where = append(where, "category IN ("+strings.Join(ph, ",")+")")
		}
	}

	query := `SELECT ` + blockColumns + ` FROM blocks WHERE ` + strings.Join(where, " AND ")
	if clause := orderingClause(ordering, "date", "start_time", "created_at"); clause != "" {
		query += " ORDER BY " + clause
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying blocks")
	}
	defer func() { _ = rows.Close() }()

	var blocks []planner.Block
	for rows.Next() {
		blk, err := scanBlock(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning block")
		}
		blocks = append(blocks, blk)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying blocks")
	}
	return blocks, nil
}

func (repo *plannerRepository) UpdateBlock(ctx context.Context, blk planner.Block) (planner.Block, error) {
	query := `
UPDATE blocks
SET activity_id = ?, date = ?, start_time = ?, end_time = ?, category = ?, status = ?, updated_at = ?
WHERE owner_id = ? AND id = ?`
	res, err := repo.db.ExecContext(ctx, query,
		nullString(blk.ActivityID), blk.Date, blk.StartTime, blk.EndTime,
		string(blk.Category), string(blk.Status), blk.UpdatedAt, blk.OwnerID, blk.ID)
	if err != nil {
		return planner.Block{}, errors.Wrap(err, "updating block")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return planner.Block{}, planner.ErrNotFound
	}
	return blk, nil
}

func (repo *plannerRepository) DeleteBlocksByID(ctx context.Context, ownerID string, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ph := make([]string, 0, len(ids))
	args := []interface{}{ownerID}
	for _, id := range ids {
		ph = append(ph, "?")
		args = append(args, id)
	}
	query := `DELETE FROM blocks WHERE owner_id = ? AND id IN (` + strings.Join(ph, ",") + `)`
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting blocks")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (repo *plannerRepository) GetPreferences(ctx context.Context, ownerID string) (planner.Preferences, error) {
	var (
		prefs  planner.Preferences
		window string
	)
	query := `SELECT owner_id, block_size, preferred_window, focus_duration, updated_at FROM preferences WHERE owner_id = ?`
	err := repo.db.QueryRowContext(ctx, query, ownerID).
		Scan(&prefs.OwnerID, &prefs.BlockSize, &window, &prefs.FocusDuration, &prefs.UpdatedAt)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return planner.Preferences{}, planner.ErrPreferencesNotFound
		}
		return planner.Preferences{}, errors.Wrap(err, "getting preferences")
	}
	prefs.PreferredWindow = planner.Window(window)
	prefs.UpdatedAt = prefs.UpdatedAt.UTC()
	return prefs, nil
}

func (repo *plannerRepository) SavePreferences(ctx context.Context, prefs planner.Preferences) (planner.Preferences, error) {
	query := `
INSERT INTO preferences (owner_id, block_size, preferred_window, focus_duration, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (owner_id)
DO UPDATE SET block_size = excluded.block_size, preferred_window = excluded.preferred_window,
              focus_duration = excluded.focus_duration, updated_at = excluded.updated_at`
	_, err := repo.db.ExecContext(ctx, query,
		prefs.OwnerID, prefs.BlockSize, string(prefs.PreferredWindow), prefs.FocusDuration, prefs.UpdatedAt)
	if err != nil {
		return planner.Preferences{}, errors.Wrap(err, "saving preferences")
	}
	return prefs, nil
}

func orderingClause(ordering []core.DBOrdering, allowed ...string) string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		var ok bool
		for _, field := range allowed {
			if ord.Field == field {
				ok = true
				break
			}
		}
		if !ok {
			continue
		}
		parts = append(parts, ord.String())
	}
	return strings.Join(parts, ", ")
}
