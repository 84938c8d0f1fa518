package planner

import (
	"context"
	"time"

	"github.com/trezcool/ratiba/core"
)

// snoozeHorizonDays bounds how far SmartSnooze will look for a new home.
const snoozeHorizonDays = 7

// MoveToNextSlot relocates a block to the first conflict-free slot strictly
// after its current start on the same day, falling back to the first slot of
// the following day. The block's own position is excluded from the conflict
// check. Returns false — with the store untouched — when both days are full.
func (svc *Service) MoveToNextSlot(ctx context.Context, ownerID, id string) (Block, bool, error) {
	blk, err := svc.repo.GetBlock(ctx, ownerID, id)
	if err != nil {
		return Block{}, false, err
	}
	if blk.Status != StatusScheduled {
		return Block{}, false, core.NewValidationError(nil, core.FieldError{Field: "status", Error: errNotMovable})
	}
	dur := blk.Duration()

	// same day: first free slot after the current start
	slots, err := svc.availableSlots(ctx, ownerID, blk.Date, dur, blk.ID, 0)
	if err != nil {
		return Block{}, false, err
	}
	currStart := ToMinutes(blk.StartTime)
	for _, slot := range slots {
		if start := ToMinutes(slot.StartTime); start > currStart {
			moved, err := svc.applyMove(ctx, blk, blk.Date, start)
			return moved, err == nil, err
		}
	}

	// following day: first free slot
	nextDay := blk.Date.AddDate(0, 0, 1)
	slots, err = svc.availableSlots(ctx, ownerID, nextDay, dur, blk.ID, 1)
	if err != nil {
		return Block{}, false, err
	}
	if len(slots) > 0 {
		moved, err := svc.applyMove(ctx, blk, nextDay, ToMinutes(slots[0].StartTime))
		return moved, err == nil, err
	}

	return Block{}, false, nil
}

// SmartSnooze pushes a block to the first free slot on a later day, starting
// the day after its current date and walking up to 7 calendar days. When a
// due date is supplied the search aborts — without mutating — the moment the
// candidate day would land past it, so a task is never snoozed beyond its
// deadline.
func (svc *Service) SmartSnooze(ctx context.Context, ownerID, id string, due *time.Time) (Block, bool, error) {
	blk, err := svc.repo.GetBlock(ctx, ownerID, id)
	if err != nil {
		return Block{}, false, err
	}
	if blk.Status != StatusScheduled {
		return Block{}, false, core.NewValidationError(nil, core.FieldError{Field: "status", Error: errNotMovable})
	}
	dur := blk.Duration()

	var deadline time.Time
	if due != nil {
		deadline = DateOnly(*due)
	}

	for i := 1; i <= snoozeHorizonDays; i++ {
		day := blk.Date.AddDate(0, 0, i)
		if due != nil && day.After(deadline) {
			return Block{}, false, nil
		}

		slots, err := svc.availableSlots(ctx, ownerID, day, dur, blk.ID, 1)
		if err != nil {
			return Block{}, false, err
		}
		if len(slots) > 0 {
			moved, err := svc.applyMove(ctx, blk, day, ToMinutes(slots[0].StartTime))
			return moved, err == nil, err
		}
	}

	return Block{}, false, nil
}
