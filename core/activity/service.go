package activity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/planner"
)

type Service struct {
	repo Repository

	idGen func() string
	now   func() time.Time
}

// Service doubles as the planner's view of the feed.
var _ planner.ActivityDirectory = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		idGen: func() string { return uuid.New().String() },
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (svc *Service) Create(ctx context.Context, na NewActivity) (Activity, error) {
	now := svc.now()
	act := Activity{
		ID:               svc.idGen(),
		OwnerID:          na.OwnerID,
		Title:            na.Title,
		Type:             na.Type,
		DueAt:            na.DueAt,
		EventStartAt:     na.EventStartAt,
		EventEndAt:       na.EventEndAt,
		EstimatedMinutes: na.EstimatedMinutes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return svc.repo.CreateActivity(ctx, act)
}

func (svc *Service) Get(ctx context.Context, ownerID, id string) (Activity, error) {
	return svc.repo.GetActivity(ctx, ownerID, id)
}

func (svc *Service) Query(ctx context.Context, ownerID string, filter QueryFilter) ([]Activity, error) {
	return svc.repo.QueryActivities(ctx, ownerID, &filter,
		core.DBOrdering{Field: "created_at", Ascending: false},
	)
}

func (svc *Service) Delete(ctx context.Context, ownerID string, ids ...string) error {
	_, err := svc.repo.DeleteActivitiesByID(ctx, ownerID, ids...)
	return err
}

// ClassEventsOn projects the day's event activities into immovable class
// events for the conflict detector.
func (svc *Service) ClassEventsOn(ctx context.Context, ownerID string, date time.Time) ([]planner.ClassEvent, error) {
	dayStart := planner.DateOnly(date)
	acts, err := svc.repo.QueryActivities(ctx, ownerID, &QueryFilter{
		Types:      []Type{TypeEvent},
		EventsFrom: dayStart,
		EventsTo:   dayStart.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, err
	}

	events := make([]planner.ClassEvent, 0, len(acts))
	for _, act := range acts {
		start, end, ok := act.EventWindow()
		if !ok {
			continue
		}
		events = append(events, planner.ClassEvent{
			ActivityID: act.ID,
			Title:      act.Title,
			StartAt:    start,
			EndAt:      end,
		})
	}
	return events, nil
}

// PlannedActivity exposes the due date and work estimate the study planner
// needs.
func (svc *Service) PlannedActivity(ctx context.Context, ownerID, id string) (planner.ActivityInfo, error) {
	act, err := svc.repo.GetActivity(ctx, ownerID, id)
	if err != nil {
		return planner.ActivityInfo{}, err
	}
	return planner.ActivityInfo{
		ID:               act.ID,
		Title:            act.Title,
		DueAt:            act.DueAt,
		EstimatedMinutes: act.EstimatedMinutes,
	}, nil
}
