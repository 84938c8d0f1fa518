package planner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

type Service struct {
	repo       Repository
	activities ActivityDirectory
	defaults   core.PlannerConfig
	log        core.Logger

	idGen func() string
	now   func() time.Time
}

func NewService(repo Repository, activities ActivityDirectory, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:       repo,
		activities: activities,
		defaults:   conf.Planner,
		log:        logger,
		idGen:      func() string { return uuid.New().String() },
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create plans a new block. Unless nb.AllowOverlap is set, the conflict
// detector runs first and a *ConflictError (carrying the offending blocks,
// class events and the next free slot) is returned on overlap.
func (svc *Service) Create(ctx context.Context, nb NewBlock) (Block, error) {
	date, err := ParseDate(nb.Date)
	if err != nil {
		return Block{}, errors.Wrap(err, "parsing block date")
	}

	if !nb.AllowOverlap {
		info, err := svc.CheckConflict(ctx, nb.OwnerID, date, nb.StartTime, nb.EndTime, "")
		if err != nil {
			return Block{}, err
		}
		if info.HasConflict {
			return Block{}, &ConflictError{Info: info}
		}
	}

	now := svc.now()
	blk := Block{
		ID:         svc.idGen(),
		OwnerID:    nb.OwnerID,
		ActivityID: nb.ActivityID,
		Date:       DateOnly(date),
		StartTime:  nb.StartTime,
		EndTime:    nb.EndTime,
		Category:   nb.Category,
		Status:     StatusScheduled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateBlock(ctx, blk)
}

func (svc *Service) Get(ctx context.Context, ownerID, id string) (Block, error) {
	return svc.repo.GetBlock(ctx, ownerID, id)
}

// Update merges the provided fields into the block. When the interval moved,
// or the block re-enters the schedule via a status change, the merged result
// is re-checked for conflicts (excluding the block's own prior position).
func (svc *Service) Update(ctx context.Context, ownerID, id string, ub UpdateBlock) (Block, error) {
	blk, err := svc.repo.GetBlock(ctx, ownerID, id)
	if err != nil {
		return Block{}, err
	}

	moved := false
	if ub.ActivityID != nil {
		blk.ActivityID = *ub.ActivityID
	}
	if ub.Date != "" {
		date, err := ParseDate(ub.Date)
		if err != nil {
			return Block{}, errors.Wrap(err, "parsing block date")
		}
		if !date.Equal(blk.Date) {
			blk.Date, moved = date, true
		}
	}
	if ub.StartTime != "" && ub.StartTime != blk.StartTime {
		blk.StartTime, moved = ub.StartTime, true
	}
	if ub.EndTime != "" && ub.EndTime != blk.EndTime {
		blk.EndTime, moved = ub.EndTime, true
	}
	if ub.Category != "" {
		blk.Category = ub.Category
	}
	reinstated := false
	if ub.Status != "" && ub.Status != blk.Status {
		reinstated = ub.Status == StatusScheduled
		blk.Status = ub.Status
	}

	if (moved || reinstated) && blk.Status == StatusScheduled && !ub.AllowOverlap {
		info, err := svc.CheckConflict(ctx, ownerID, blk.Date, blk.StartTime, blk.EndTime, blk.ID)
		if err != nil {
			return Block{}, err
		}
		if info.HasConflict {
			return Block{}, &ConflictError{Info: info}
		}
	}

	blk.UpdatedAt = svc.now()
	return svc.repo.UpdateBlock(ctx, blk)
}

// Move relocates a block, preserving its duration: the new end time is
// recomputed as newStart + (oldEnd - oldStart). Date, start and end are
// updated as one repository mutation.
func (svc *Service) Move(ctx context.Context, ownerID, id string, mv MoveBlock) (Block, error) {
	blk, err := svc.repo.GetBlock(ctx, ownerID, id)
	if err != nil {
		return Block{}, err
	}
	if blk.Status != StatusScheduled {
		return Block{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: errNotMovable})
	}

	date, err := ParseDate(mv.Date)
	if err != nil {
		return Block{}, errors.Wrap(err, "parsing block date")
	}
	startMin := ToMinutes(mv.StartTime)
	endTime := ToTimeString(startMin + blk.Duration())

	if !mv.AllowOverlap {
		info, err := svc.CheckConflict(ctx, ownerID, date, mv.StartTime, endTime, blk.ID)
		if err != nil {
			return Block{}, err
		}
		if info.HasConflict {
			return Block{}, &ConflictError{Info: info}
		}
	}
	return svc.applyMove(ctx, blk, date, startMin)
}

// applyMove performs the duration-preserving relocation without re-running
// the detector; callers have already cleared the target slot.
func (svc *Service) applyMove(ctx context.Context, blk Block, date time.Time, startMin int) (Block, error) {
	dur := blk.Duration()
	blk.Date = DateOnly(date)
	blk.StartTime = ToTimeString(startMin)
	blk.EndTime = ToTimeString(startMin + dur)
	blk.UpdatedAt = svc.now()
	return svc.repo.UpdateBlock(ctx, blk)
}

func (svc *Service) Delete(ctx context.Context, ownerID string, ids ...string) error {
	_, err := svc.repo.DeleteBlocksByID(ctx, ownerID, ids...)
	return err
}

// MarkCompleted transitions a block out of conflict consideration.
func (svc *Service) MarkCompleted(ctx context.Context, ownerID, id string) (Block, error) {
	return svc.setStatus(ctx, ownerID, id, StatusCompleted)
}

// MarkSkipped records the block as deliberately not done.
func (svc *Service) MarkSkipped(ctx context.Context, ownerID, id string) (Block, error) {
	return svc.setStatus(ctx, ownerID, id, StatusSkipped)
}

func (svc *Service) setStatus(ctx context.Context, ownerID, id string, status Status) (Block, error) {
	blk, err := svc.repo.GetBlock(ctx, ownerID, id)
	if err != nil {
		return Block{}, err
	}
	blk.Status = status
	blk.UpdatedAt = svc.now()
	return svc.repo.UpdateBlock(ctx, blk)
}

// BlocksOn returns all of the owner's blocks on the exact date, earliest first.
func (svc *Service) BlocksOn(ctx context.Context, ownerID string, date time.Time) ([]Block, error) {
	day := DateOnly(date)
	return svc.repo.QueryBlocks(ctx, ownerID,
		&QueryFilter{DateFrom: day, DateTo: day},
		core.DBOrdering{Field: "start_time", Ascending: true},
	)
}

// BlocksInWeek returns blocks in the 7-day window [start, start+6] inclusive.
func (svc *Service) BlocksInWeek(ctx context.Context, ownerID string, start time.Time) ([]Block, error) {
	from := DateOnly(start)
	return svc.repo.QueryBlocks(ctx, ownerID,
		&QueryFilter{DateFrom: from, DateTo: from.AddDate(0, 0, 6)},
		core.DBOrdering{Field: "date", Ascending: true},
		core.DBOrdering{Field: "start_time", Ascending: true},
	)
}

func (svc *Service) Filter(ctx context.Context, ownerID string, filter QueryFilter, ordering ...core.DBOrdering) ([]Block, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{
			{Field: "date", Ascending: true},
			{Field: "start_time", Ascending: true},
		}
	}
	return svc.repo.QueryBlocks(ctx, ownerID, &filter, ordering...)
}

// GetPreferences returns the owner's saved preferences, falling back to the
// configured defaults when none were saved yet.
func (svc *Service) GetPreferences(ctx context.Context, ownerID string) (Preferences, error) {
	prefs, err := svc.repo.GetPreferences(ctx, ownerID)
	if err != nil {
		if errors.Cause(err) == ErrPreferencesNotFound {
			return Preferences{
				OwnerID:         ownerID,
				BlockSize:       svc.defaults.BlockSize,
				PreferredWindow: Window(svc.defaults.PreferredWindow),
				FocusDuration:   svc.defaults.FocusDuration,
			}, nil
		}
		return Preferences{}, err
	}
	return prefs, nil
}

// SavePreferences upserts the owner's preferences.
func (svc *Service) SavePreferences(ctx context.Context, ownerID string, prefs Preferences) (Preferences, error) {
	prefs.OwnerID = ownerID
	prefs.UpdatedAt = svc.now()
	return svc.repo.SavePreferences(ctx, prefs)
}

// plannedMinutes sums the minutes already allocated to an activity
// (scheduled or completed blocks; skipped ones freed their time).
func (svc *Service) plannedMinutes(ctx context.Context, ownerID, activityID string) (int, error) {
	blocks, err := svc.repo.QueryBlocks(ctx, ownerID, &QueryFilter{
		ActivityID: activityID,
		Statuses:   []Status{StatusScheduled, StatusCompleted},
	})
	if err != nil {
		return 0, err
	}
	var total int
	for _, blk := range blocks {
		total += blk.Duration()
	}
	return total, nil
}
