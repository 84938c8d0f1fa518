package planner

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

// maxSuggestions bounds the slots surfaced to the UI; not a correctness
// constraint, internal searches walk the full window.
const maxSuggestions = 5

var errNotPlannable = "activity has no due date or estimated work to plan"

// AvailableSlots enumerates conflict-free start times on date for the given
// duration inside the owner's preferred window, at block-size granularity.
// At most 5 slots are returned, earliest first.
func (svc *Service) AvailableSlots(ctx context.Context, ownerID string, date time.Time, durationMin int) ([]Slot, error) {
	return svc.availableSlots(ctx, ownerID, date, durationMin, "", maxSuggestions)
}

// availableSlots is the unbounded variant backing the reschedule strategies;
// limit <= 0 returns every free slot of the day.
func (svc *Service) availableSlots(ctx context.Context, ownerID string, date time.Time, durationMin int, excludeID string, limit int) ([]Slot, error) {
	prefs, err := svc.GetPreferences(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	day := DateOnly(date)
	taken, err := svc.repo.QueryBlocks(ctx, ownerID, &QueryFilter{
		DateFrom: day,
		DateTo:   day,
		Statuses: []Status{StatusScheduled},
	})
	if err != nil {
		return nil, err
	}
	var events []ClassEvent
	if svc.activities != nil {
		if events, err = svc.activities.ClassEventsOn(ctx, ownerID, day); err != nil {
			return nil, err
		}
	}

	var slots []Slot
	for _, candidate := range capacitySlots(prefs, durationMin) {
		if svc.slotTaken(day, candidate, taken, events, excludeID) {
			continue
		}
		slots = append(slots, candidate)
		if limit > 0 && len(slots) >= limit {
			break
		}
	}
	return slots, nil
}

// capacitySlots walks the preferred window at block-size granularity and
// keeps every start where start+duration still fits the window. Conflicts
// are not considered here.
func capacitySlots(prefs Preferences, durationMin int) []Slot {
	span, ok := windowSpans[prefs.PreferredWindow]
	if !ok {
		span = windowSpans[WindowAll]
	}
	step := prefs.BlockSize
	if step <= 0 {
		step = 30
	}

	var slots []Slot
	for start := span.start; start+durationMin <= span.end; start += step {
		slots = append(slots, Slot{
			StartTime: ToTimeString(start),
			EndTime:   ToTimeString(start + durationMin),
		})
	}
	return slots
}

func (svc *Service) slotTaken(day time.Time, slot Slot, taken []Block, events []ClassEvent, excludeID string) bool {
	ss, se := ToMinutes(slot.StartTime), ToMinutes(slot.EndTime)
	for _, blk := range taken {
		if blk.ID == excludeID {
			continue
		}
		if Overlap(ToMinutes(blk.StartTime), ToMinutes(blk.EndTime), ss, se) {
			return true
		}
	}
	sStart, sEnd := instantAt(day, ss), instantAt(day, se)
	for _, ev := range events {
		if ev.StartAt.Before(sEnd) && sStart.Before(ev.EndAt) {
			return true
		}
	}
	return false
}

// nextAvailableSlot finds the first free slot for the duration on the same
// day, then on the next day; nil when both days are full.
func (svc *Service) nextAvailableSlot(ctx context.Context, ownerID string, date time.Time, durationMin int, excludeID string) (*Slot, error) {
	for _, day := range []time.Time{DateOnly(date), DateOnly(date).AddDate(0, 0, 1)} {
		slots, err := svc.availableSlots(ctx, ownerID, day, durationMin, excludeID, 1)
		if err != nil {
			return nil, err
		}
		if len(slots) > 0 {
			return &slots[0], nil
		}
	}
	return nil, nil
}

// SuggestStudyBlocks builds a study plan for an activity with a due date and
// an estimated amount of work: day by day from today until the due date, it
// allocates the largest remaining chunk up to the preferred focus duration
// into the first free slot of the day, at most one block per day. Work that
// cannot be placed before the due date is reported as the plan's shortfall.
func (svc *Service) SuggestStudyBlocks(ctx context.Context, ownerID, activityID string) (StudyPlan, error) {
	if svc.activities == nil {
		return StudyPlan{}, errors.New("activity directory not configured")
	}
	info, err := svc.activities.PlannedActivity(ctx, ownerID, activityID)
	if err != nil {
		return StudyPlan{}, err
	}
	if info.DueAt == nil || info.EstimatedMinutes <= 0 {
		return StudyPlan{}, core.NewValidationError(nil, core.FieldError{Field: "activity_id", Error: errNotPlannable})
	}

	planned, err := svc.plannedMinutes(ctx, ownerID, activityID)
	if err != nil {
		return StudyPlan{}, err
	}
	remaining := info.EstimatedMinutes - planned
	plan := StudyPlan{ActivityID: activityID}
	if remaining <= 0 {
		return plan, nil
	}

	prefs, err := svc.GetPreferences(ctx, ownerID)
	if err != nil {
		return StudyPlan{}, err
	}

	due := DateOnly(*info.DueAt)
	for day := DateOnly(svc.now()); !day.After(due) && remaining > 0; day = day.AddDate(0, 0, 1) {
		chunk := remaining
		if chunk > prefs.FocusDuration {
			chunk = prefs.FocusDuration
		}

		slots, err := svc.availableSlots(ctx, ownerID, day, chunk, "", 1)
		if err != nil {
			return StudyPlan{}, err
		}
		if len(slots) == 0 {
			continue
		}

		plan.Suggested = append(plan.Suggested, SuggestedBlock{
			Date:      day,
			StartTime: slots[0].StartTime,
			EndTime:   slots[0].EndTime,
			Minutes:   chunk,
			Category:  CategoryStudy,
		})
		remaining -= chunk
	}

	plan.ShortfallMinutes = remaining
	return plan, nil
}
