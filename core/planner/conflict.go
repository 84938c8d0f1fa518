package planner

import (
	"context"
	"time"
)

// ConflictInfo reports both conflict sources for a candidate interval: the
// owner's own scheduled blocks (movable) and class events from the feed
// (immovable), plus the first alternative slot of the same duration.
type ConflictInfo struct {
	HasConflict bool         `json:"has_conflict"`
	Blocks      []Block      `json:"conflicting_blocks,omitempty"`
	Events      []ClassEvent `json:"conflicting_events,omitempty"`
	NextSlot    *Slot        `json:"next_available_slot,omitempty"`
}

// ConflictError is returned by mutating operations when the target interval
// is already taken and the caller did not ask to overlap.
type ConflictError struct {
	Info ConflictInfo
}

func (e *ConflictError) Error() string {
	return "the requested time slot conflicts with existing plans"
}

// HasConflict reports whether [startTime, endTime) on date overlaps any of
// the owner's scheduled blocks. excludeID ignores a block's own prior
// position when re-validating a proposed move.
func (svc *Service) HasConflict(ctx context.Context, ownerID string, date time.Time, startTime, endTime, excludeID string) (bool, error) {
	blocks, err := svc.conflictingBlocks(ctx, ownerID, date, startTime, endTime, excludeID)
	if err != nil {
		return false, err
	}
	return len(blocks) > 0, nil
}

// CheckConflict composes the block overlap test with a scan of the same
// day's class events and computes the next available slot for the same
// duration (same day first, then the next day; nil when both are full).
func (svc *Service) CheckConflict(ctx context.Context, ownerID string, date time.Time, startTime, endTime, excludeID string) (ConflictInfo, error) {
	blocks, err := svc.conflictingBlocks(ctx, ownerID, date, startTime, endTime, excludeID)
	if err != nil {
		return ConflictInfo{}, err
	}
	events, err := svc.conflictingEvents(ctx, ownerID, date, startTime, endTime)
	if err != nil {
		return ConflictInfo{}, err
	}

	info := ConflictInfo{
		HasConflict: len(blocks) > 0 || len(events) > 0,
		Blocks:      blocks,
		Events:      events,
	}
	if info.HasConflict {
		duration := ToMinutes(endTime) - ToMinutes(startTime)
		next, err := svc.nextAvailableSlot(ctx, ownerID, date, duration, excludeID)
		if err != nil {
			return ConflictInfo{}, err
		}
		info.NextSlot = next
	}
	return info, nil
}

// conflictingBlocks runs the half-open interval test against the owner's
// scheduled blocks on date.
func (svc *Service) conflictingBlocks(ctx context.Context, ownerID string, date time.Time, startTime, endTime, excludeID string) ([]Block, error) {
	day := DateOnly(date)
	stored, err := svc.repo.QueryBlocks(ctx, ownerID, &QueryFilter{
		DateFrom: day,
		DateTo:   day,
		Statuses: []Status{StatusScheduled},
	})
	if err != nil {
		return nil, err
	}

	qs, qe := ToMinutes(startTime), ToMinutes(endTime)
	var conflicting []Block
	for _, blk := range stored {
		if blk.ID == excludeID {
			continue
		}
		if Overlap(ToMinutes(blk.StartTime), ToMinutes(blk.EndTime), qs, qe) {
			conflicting = append(conflicting, blk)
		}
	}
	return conflicting, nil
}

// conflictingEvents tests the candidate against the day's class events.
// Events carry absolute instants, so the candidate is anchored on the date
// before comparing.
func (svc *Service) conflictingEvents(ctx context.Context, ownerID string, date time.Time, startTime, endTime string) ([]ClassEvent, error) {
	if svc.activities == nil {
		return nil, nil
	}
	events, err := svc.activities.ClassEventsOn(ctx, ownerID, date)
	if err != nil {
		return nil, err
	}

	qStart := instantAt(date, ToMinutes(startTime))
	qEnd := instantAt(date, ToMinutes(endTime))
	var conflicting []ClassEvent
	for _, ev := range events {
		if ev.StartAt.Before(qEnd) && qStart.Before(ev.EndAt) {
			conflicting = append(conflicting, ev)
		}
	}
	return conflicting, nil
}
