package planner

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
)

var (
	// errors
	ErrNotFound            = errors.New("planned block not found")
	ErrPreferencesNotFound = errors.New("planner preferences not found")

	errEndNotAfterStart = "end time must be after start time"
	errNotMovable       = "only scheduled blocks can be moved"
)

// Block categories: a semantic tag only, conflict logic treats them alike.
type Category string

const (
	CategoryStudy     Category = "study"
	CategoryExecution Category = "execution"
	CategoryReview    Category = "review"
)

var AllCategories = []Category{CategoryStudy, CategoryExecution, CategoryReview}

// Block statuses. Only scheduled blocks count as conflict sources.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
)

var AllStatuses = []Status{StatusScheduled, StatusCompleted, StatusSkipped}

// Preferred search windows for slot suggestions, as minute-of-day spans.
type Window string

const (
	WindowMorning   Window = "morning"   // 08:00 - 12:00
	WindowAfternoon Window = "afternoon" // 13:00 - 18:00
	WindowEvening   Window = "evening"   // 19:00 - 22:00
	WindowAll       Window = "all"       // 08:00 - 22:00
)

var AllWindows = []Window{WindowMorning, WindowAfternoon, WindowEvening, WindowAll}

type windowSpan struct {
	start, end int
}

var windowSpans = map[Window]windowSpan{
	WindowMorning:   {8 * 60, 12 * 60},
	WindowAfternoon: {13 * 60, 18 * 60},
	WindowEvening:   {19 * 60, 22 * 60},
	WindowAll:       {8 * 60, 22 * 60},
}

// Block is a planned study block on a student's personal agenda.
// Date is anchored at UTC midnight; StartTime/EndTime are "HH:mm" times of
// day with StartTime < EndTime — a block never spans midnight.
type Block struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"-"`
	ActivityID string    `json:"activity_id,omitempty"` // "" = free-standing study time
	Date       time.Time `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Category   Category  `json:"category"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// Duration returns the block length in minutes.
func (b Block) Duration() int {
	return ToMinutes(b.EndTime) - ToMinutes(b.StartTime)
}

// Slot is a feasible start/end pair offered by the suggester.
type Slot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ClassEvent is an immovable conflict source projected from the activity
// feed: a scheduled class activity with absolute start/end instants.
type ClassEvent struct {
	ActivityID string    `json:"activity_id"`
	Title      string    `json:"title"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
}

// ActivityInfo carries the slice of an activity the planner needs to build a
// study plan.
type ActivityInfo struct {
	ID               string
	Title            string
	DueAt            *time.Time
	EstimatedMinutes int
}

// Preferences drive slot enumeration and study-plan generation.
type Preferences struct {
	OwnerID         string    `json:"-"`
	BlockSize       int       `json:"block_size" validate:"required,oneof=15 30 45 60"`
	PreferredWindow Window    `json:"preferred_window" validate:"required"`
	FocusDuration   int       `json:"focus_duration" validate:"required,min=15,max=240"`
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

func (p *Preferences) Validate(validate *validator.Validate) error {
	p.PreferredWindow = Window(core.CleanString(string(p.PreferredWindow), true /* lower */))

	if err := validate.Struct(p); err != nil {
		return err
	}
	return validateWindow(p.PreferredWindow)
}

type (
	Repository interface {
		CreateBlock(ctx context.Context, blk Block) (Block, error)
		GetBlock(ctx context.Context, ownerID, id string) (Block, error)
		// QueryBlocks applies AND operation on available QueryFilter fields.
		QueryBlocks(ctx context.Context, ownerID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]Block, error)
		UpdateBlock(ctx context.Context, blk Block) (Block, error)
		DeleteBlocksByID(ctx context.Context, ownerID string, ids ...string) (int, error)

		GetPreferences(ctx context.Context, ownerID string) (Preferences, error)
		SavePreferences(ctx context.Context, prefs Preferences) (Preferences, error)
	}

	// ActivityDirectory exposes the activity-feed lookups the detector and
	// suggester consume.
	ActivityDirectory interface {
		ClassEventsOn(ctx context.Context, ownerID string, date time.Time) ([]ClassEvent, error)
		PlannedActivity(ctx context.Context, ownerID, id string) (ActivityInfo, error)
	}
)

type QueryFilter struct {
	DateFrom   time.Time
	DateTo     time.Time
	ActivityID string
	Statuses   []Status
	Categories []Category
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.DateFrom.IsZero() && qf.DateTo.IsZero() && qf.ActivityID == "" &&
		qf.Statuses == nil && qf.Categories == nil
}

// NewBlock contains information needed to plan a new Block.
type NewBlock struct {
	OwnerID      string   `json:"-"`
	ActivityID   string   `json:"activity_id"`
	Date         string   `json:"date" validate:"required,datestr"`
	StartTime    string   `json:"start_time" validate:"required,timestr"`
	EndTime      string   `json:"end_time" validate:"required,timestr"`
	Category     Category `json:"category" validate:"omitempty,category"`
	AllowOverlap bool     `json:"allow_overlap"`
}

func (nb *NewBlock) Validate(validate *validator.Validate) error {
	nb.ActivityID = core.CleanString(nb.ActivityID)
	nb.Date = core.CleanString(nb.Date)
	nb.StartTime = core.CleanString(nb.StartTime)
	nb.EndTime = core.CleanString(nb.EndTime)
	if nb.Category == "" {
		nb.Category = CategoryStudy
	}

	if err := validate.Struct(nb); err != nil {
		return err
	}
	if ToMinutes(nb.StartTime) >= ToMinutes(nb.EndTime) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_time", Error: errEndNotAfterStart})
	}
	return nil
}

// UpdateBlock defines what information may be provided to modify an existing
// Block. Empty fields keep their current value.
type UpdateBlock struct {
	ActivityID   *string  `json:"activity_id"`
	Date         string   `json:"date" validate:"omitempty,datestr"`
	StartTime    string   `json:"start_time" validate:"omitempty,timestr"`
	EndTime      string   `json:"end_time" validate:"omitempty,timestr"`
	Category     Category `json:"category" validate:"omitempty,category"`
	Status       Status   `json:"status" validate:"omitempty,blockstatus"`
	AllowOverlap bool     `json:"allow_overlap"`
}

func (ub *UpdateBlock) Validate(orig Block, validate *validator.Validate) error {
	ub.Date = core.CleanString(ub.Date)
	ub.StartTime = core.CleanString(ub.StartTime)
	ub.EndTime = core.CleanString(ub.EndTime)

	if err := validate.Struct(ub); err != nil {
		return err
	}

	// the merged interval must remain ordered
	start, end := orig.StartTime, orig.EndTime
	if ub.StartTime != "" {
		start = ub.StartTime
	}
	if ub.EndTime != "" {
		end = ub.EndTime
	}
	if ToMinutes(start) >= ToMinutes(end) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_time", Error: errEndNotAfterStart})
	}
	return nil
}

// MoveBlock relocates a block to a new date/start, preserving its duration.
type MoveBlock struct {
	Date         string `json:"date" validate:"required,datestr"`
	StartTime    string `json:"start_time" validate:"required,timestr"`
	AllowOverlap bool   `json:"allow_overlap"`
}

func (mv *MoveBlock) Validate(validate *validator.Validate) error {
	mv.Date = core.CleanString(mv.Date)
	mv.StartTime = core.CleanString(mv.StartTime)
	return validate.Struct(mv)
}

// SuggestedBlock is one allocation proposed by the study planner.
type SuggestedBlock struct {
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Minutes   int       `json:"minutes"`
	Category  Category  `json:"category"`
}

// StudyPlan is the result of greedy day-by-day allocation for an activity.
// ShortfallMinutes is the work that could not be placed before the due date;
// it is always reported, never silently dropped.
type StudyPlan struct {
	ActivityID       string           `json:"activity_id"`
	Suggested        []SuggestedBlock `json:"suggested"`
	ShortfallMinutes int              `json:"shortfall_minutes"`
}
