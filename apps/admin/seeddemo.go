package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/activity"
	"github.com/trezcool/ratiba/core/planner"
)

// seedDemo populates a demo agenda for a student: a few class events, an
// assignment with a due date and a first study block.
func (cli *commandLine) seedDemo(ownerID string) error {
	ctx := context.Background()
	now := time.Now().UTC()
	today := planner.DateOnly(now)

	mathsClass := activity.Activity{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Title:        "Maths class",
		Type:         activity.TypeEvent,
		EventStartAt: timePtr(today.Add(9 * time.Hour)),
		EventEndAt:   timePtr(today.Add(10 * time.Hour)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	physicsClass := activity.Activity{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Title:        "Physics class",
		Type:         activity.TypeEvent,
		EventStartAt: timePtr(today.AddDate(0, 0, 1).Add(14 * time.Hour)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	essay := activity.Activity{
		ID:               uuid.New().String(),
		OwnerID:          ownerID,
		Title:            "History essay",
		Type:             activity.TypeAssignment,
		DueAt:            timePtr(today.AddDate(0, 0, 7)),
		EstimatedMinutes: 180,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, act := range []activity.Activity{mathsClass, physicsClass, essay} {
		if _, err := cli.activityRepo.CreateActivity(ctx, act); err != nil {
			return errors.Wrapf(err, "seeding activity %q", act.Title)
		}
		logger.Printf("seeded activity %q (%s)", act.Title, act.ID)
	}

	firstStudy := planner.Block{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		ActivityID: essay.ID,
		Date:       today,
		StartTime:  "10:30",
		EndTime:    "11:15",
		Category:   planner.CategoryStudy,
		Status:     planner.StatusScheduled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := cli.plannerRepo.CreateBlock(ctx, firstStudy); err != nil {
		return errors.Wrap(err, "seeding block")
	}
	logger.Printf("seeded block %s (%s %s-%s)", firstStudy.ID,
		planner.FormatDate(firstStudy.Date), firstStudy.StartTime, firstStudy.EndTime)

	prefs := planner.Preferences{
		OwnerID:         ownerID,
		BlockSize:       cli.conf.Planner.BlockSize,
		PreferredWindow: planner.Window(cli.conf.Planner.PreferredWindow),
		FocusDuration:   cli.conf.Planner.FocusDuration,
		UpdatedAt:       now,
	}
	if _, err := cli.plannerRepo.SavePreferences(ctx, prefs); err != nil {
		return errors.Wrap(err, "seeding preferences")
	}
	logger.Printf("seeded preferences for %s", ownerID)
	return nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
