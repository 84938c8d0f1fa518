package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/activity"
	"github.com/trezcool/ratiba/core/planner"
)

// NewValidator returns a validator and translator with all of the app's
// custom tags registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	planner.InitValidators(validate, translator)
	return validate, translator
}

func Date(t *testing.T, s string) time.Time {
	t.Helper()
	date, err := planner.ParseDate(s)
	if err != nil {
		t.Fatalf("Date(%q) failed: %v", s, err)
	}
	return date
}

func CreateBlock(
	t *testing.T,
	repo planner.Repository,
	owner, activityID, date, start, end string,
	status planner.Status,
) planner.Block {
	t.Helper()
	now := time.Now().UTC()
	blk := planner.Block{
		ID:         uuid.New().String(),
		OwnerID:    owner,
		ActivityID: activityID,
		Date:       Date(t, date),
		StartTime:  start,
		EndTime:    end,
		Category:   planner.CategoryStudy,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	blk, err := repo.CreateBlock(context.Background(), blk)
	if err != nil {
		t.Fatalf("CreateBlock() failed: %v", err)
	}
	return blk
}

func CreateEvent(
	t *testing.T,
	repo activity.Repository,
	owner, title string,
	startAt time.Time,
	endAt *time.Time,
) activity.Activity {
	t.Helper()
	now := time.Now().UTC()
	act := activity.Activity{
		ID:           uuid.New().String(),
		OwnerID:      owner,
		Title:        title,
		Type:         activity.TypeEvent,
		EventStartAt: &startAt,
		EventEndAt:   endAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	act, err := repo.CreateActivity(context.Background(), act)
	if err != nil {
		t.Fatalf("CreateEvent() failed: %v", err)
	}
	return act
}

func CreateAssignment(
	t *testing.T,
	repo activity.Repository,
	owner, title string,
	dueAt time.Time,
	estimatedMinutes int,
) activity.Activity {
	t.Helper()
	now := time.Now().UTC()
	act := activity.Activity{
		ID:               uuid.New().String(),
		OwnerID:          owner,
		Title:            title,
		Type:             activity.TypeAssignment,
		DueAt:            &dueAt,
		EstimatedMinutes: estimatedMinutes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	act, err := repo.CreateActivity(context.Background(), act)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return act
}
