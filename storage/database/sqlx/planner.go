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
	"github.com/trezcool/ratiba/core/planner"
)

type plannerRepository struct {
	db *sqlx.DB
}

var _ planner.Repository = (*plannerRepository)(nil) // interface compliance check

func NewPlannerRepository(db *sql.DB) planner.Repository {
	return &plannerRepository{db: sqlx.NewDb(db, "postgres")}
}

type blockRow struct {
	ID         string      `db:"id"`
	OwnerID    string      `db:"owner_id"`
	ActivityID null.String `db:"activity_id"`
	Date       time.Time   `db:"date"`
	StartTime  string      `db:"start_time"`
	EndTime    string      `db:"end_time"`
	Category   string      `db:"category"`
	Status     string      `db:"status"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func newBlockRow(blk planner.Block) blockRow {
	return blockRow{
		ID:         blk.ID,
		OwnerID:    blk.OwnerID,
		ActivityID: null.NewString(blk.ActivityID, blk.ActivityID != ""),
		Date:       blk.Date,
		StartTime:  blk.StartTime,
		EndTime:    blk.EndTime,
		Category:   string(blk.Category),
		Status:     string(blk.Status),
		CreatedAt:  blk.CreatedAt,
		UpdatedAt:  blk.UpdatedAt,
	}
}

func (row blockRow) block() planner.Block {
	return planner.Block{
		ID:         row.ID,
		OwnerID:    row.OwnerID,
		ActivityID: row.ActivityID.String,
		Date:       row.Date.UTC(),
		StartTime:  row.StartTime,
		EndTime:    row.EndTime,
		Category:   planner.Category(row.Category),
		Status:     planner.Status(row.Status),
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}

const blockColumns = "id, owner_id, activity_id, date, start_time, end_time, category, status, created_at, updated_at"

func (repo *plannerRepository) CreateBlock(ctx context.Context, blk planner.Block) (planner.Block, error) {
	query := `
INSERT INTO blocks (` + blockColumns + `)
VALUES (:id, :owner_id, :activity_id, :date, :start_time, :end_time, :category, :status, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, newBlockRow(blk)); err != nil {
		return planner.Block{}, wrapDBErr(err, "inserting block")
	}
	return blk, nil
}

func (repo *plannerRepository) GetBlock(ctx context.Context, ownerID, id string) (planner.Block, error) {
	var row blockRow
	query := `SELECT ` + blockColumns + ` FROM blocks WHERE owner_id = $1 AND id = $2`
	if err := repo.db.GetContext(ctx, &row, query, ownerID, id); err != nil {
		return planner.Block{}, trapNoRowsErr(err, planner.ErrNotFound, "getting block")
	}
	return row.block(), nil
}

func (repo *plannerRepository) QueryBlocks(ctx context.Context, ownerID string, filter *planner.QueryFilter, ordering ...core.DBOrdering) ([]planner.Block, error) {
	where := []string{"owner_id = $1"}
	args := []interface{}{ownerID}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if !filter.DateFrom.IsZero() {
			where = append(where, "date >= "+arg(filter.DateFrom))
		}
		if !filter.DateTo.IsZero() {
			where = append(where, "date <= "+arg(filter.DateTo))
		}
		if filter.ActivityID != "" {
			where = append(where, "activity_id = "+arg(filter.ActivityID))
		}
		if len(filter.Statuses) > 0 {
			ph := make([]string, 0, len(filter.Statuses))
			for _, s := range filter.Statuses {
				ph = append(ph, arg(string(s)))
			}
			where = append(where, "status IN ("+strings.Join(ph, ",")+")")
		}
		if len(filter.Categories) > 0 {
			ph := make([]string, 0, len(filter.Categories))
			for _, c := range filter.Categories {
				ph = append(ph, arg(string(c)))
			}
			where = append(where, "category IN ("+strings.Join(ph, ",")+")")
		}
	}

	query := `SELECT ` + blockColumns + ` FROM blocks WHERE ` + strings.Join(where, " AND ")
	if clause := orderingClause(ordering, "date", "start_time", "created_at"); clause != "" {
		query += " ORDER BY " + clause
	}

	var rows []blockRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapDBErr(err, "querying blocks")
	}

	blocks := make([]planner.Block, 0, len(rows))
	for _, row := range rows {
		blocks = append(blocks, row.block())
	}
	return blocks, nil
}

func (repo *plannerRepository) UpdateBlock(ctx context.Context, blk planner.Block) (planner.Block, error) {
	query := `
UPDATE blocks
SET activity_id = :activity_id, date = :date, start_time = :start_time, end_time = :end_time,
    category = :category, status = :status, updated_at = :updated_at
WHERE owner_id = :owner_id AND id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, newBlockRow(blk))
	if err != nil {
		return planner.Block{}, wrapDBErr(err, "updating block")
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
	query, args, err := sqlx.In(`DELETE FROM blocks WHERE owner_id = ? AND id IN (?)`, ownerID, ids)
	if err != nil {
		return 0, wrapDBErr(err, "deleting blocks")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, wrapDBErr(err, "deleting blocks")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type prefsRow struct {
	OwnerID       string    `db:"owner_id"`
	BlockSize     int       `db:"block_size"`
	Window        string    `db:"preferred_window"`
	FocusDuration int       `db:"focus_duration"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (row prefsRow) preferences() planner.Preferences {
	return planner.Preferences{
		OwnerID:         row.OwnerID,
		BlockSize:       row.BlockSize,
		PreferredWindow: planner.Window(row.Window),
		FocusDuration:   row.FocusDuration,
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}

func (repo *plannerRepository) GetPreferences(ctx context.Context, ownerID string) (planner.Preferences, error) {
	var row prefsRow
	query := `SELECT owner_id, block_size, preferred_window, focus_duration, updated_at FROM preferences WHERE owner_id = $1`
	if err := repo.db.GetContext(ctx, &row, query, ownerID); err != nil {
		return planner.Preferences{}, trapNoRowsErr(err, planner.ErrPreferencesNotFound, "getting preferences")
	}
	return row.preferences(), nil
}

func (repo *plannerRepository) SavePreferences(ctx context.Context, prefs planner.Preferences) (planner.Preferences, error) {
	query := `
INSERT INTO preferences (owner_id, block_size, preferred_window, focus_duration, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (owner_id)
DO UPDATE SET block_size = $2, preferred_window = $3, focus_duration = $4, updated_at = $5`
	_, err := repo.db.ExecContext(ctx, query,
		prefs.OwnerID, prefs.BlockSize, string(prefs.PreferredWindow), prefs.FocusDuration, prefs.UpdatedAt)
	if err != nil {
		return planner.Preferences{}, wrapDBErr(err, "saving preferences")
	}
	return prefs, nil
}
