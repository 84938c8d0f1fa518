package activity

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
)

var (
	// errors
	ErrNotFound = errors.New("activity not found")

	errEventNeedsStart = "event activities require an event start"
)

// DefaultEventDuration applies when a class event carries no explicit end.
const DefaultEventDuration = 60 * time.Minute

type Type string

const (
	TypeEvent        Type = "event"
	TypeAssignment   Type = "assignment"
	TypeAnnouncement Type = "announcement"
)

var AllTypes = []Type{TypeEvent, TypeAssignment, TypeAnnouncement}

// Activity is a feed post the planner consumes: class events are immovable
// conflict sources, assignments with a due date and an estimate are study-
// plannable.
type Activity struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"-"`
	Title            string     `json:"title"`
	Type             Type       `json:"type"`
	DueAt            *time.Time `json:"due_at,omitempty"`
	EventStartAt     *time.Time `json:"event_start_at,omitempty"`
	EventEndAt       *time.Time `json:"event_end_at,omitempty"`
	EstimatedMinutes int        `json:"estimated_minutes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"` // UTC
	UpdatedAt        time.Time  `json:"updated_at"` // UTC
}

// EventWindow returns the activity's fixed time window when it is a
// scheduled class event; the end defaults to start + 60min when absent.
func (a Activity) EventWindow() (start, end time.Time, ok bool) {
	if a.Type != TypeEvent || a.EventStartAt == nil {
		return time.Time{}, time.Time{}, false
	}
	start = a.EventStartAt.UTC()
	if a.EventEndAt != nil {
		end = a.EventEndAt.UTC()
	} else {
		end = start.Add(DefaultEventDuration)
	}
	return start, end, true
}

// NewActivity contains information needed to publish a new Activity.
type NewActivity struct {
	OwnerID          string     `json:"-"`
	Title            string     `json:"title" validate:"required"`
	Type             Type       `json:"type" validate:"required,oneof=event assignment announcement"`
	DueAt            *time.Time `json:"due_at"`
	EventStartAt     *time.Time `json:"event_start_at"`
	EventEndAt       *time.Time `json:"event_end_at"`
	EstimatedMinutes int        `json:"estimated_minutes" validate:"omitempty,min=0,max=6000"`
}

func (na *NewActivity) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)

	if err := validate.Struct(na); err != nil {
		return err
	}
	if na.Type == TypeEvent && na.EventStartAt == nil {
		return core.NewValidationError(nil, core.FieldError{Field: "event_start_at", Error: errEventNeedsStart})
	}
	return nil
}

type Repository interface {
	CreateActivity(ctx context.Context, act Activity) (Activity, error)
	GetActivity(ctx context.Context, ownerID, id string) (Activity, error)
	// QueryActivities applies AND operation on available QueryFilter fields.
	QueryActivities(ctx context.Context, ownerID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]Activity, error)
	DeleteActivitiesByID(ctx context.Context, ownerID string, ids ...string) (int, error)
}

type QueryFilter struct {
	Types []Type
	// events whose window intersects [EventsFrom, EventsTo)
	EventsFrom time.Time
	EventsTo   time.Time
	DueFrom    time.Time
	DueTo      time.Time
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Types == nil && qf.EventsFrom.IsZero() && qf.EventsTo.IsZero() &&
		qf.DueFrom.IsZero() && qf.DueTo.IsZero()
}
