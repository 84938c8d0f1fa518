package planner

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/trezcool/ratiba/core"
)

func setPrefs(t *testing.T, svc *Service, blockSize int, window Window, focus int) {
	t.Helper()
	if _, err := svc.SavePreferences(context.Background(), testOwner, Preferences{
		BlockSize: blockSize, PreferredWindow: window, FocusDuration: focus,
	}); err != nil {
		t.Fatalf("SavePreferences() failed: %v", err)
	}
}

func TestAvailableSlots_morningWindow(t *testing.T) {
	svc, _, _ := newTestService()
	setPrefs(t, svc, 30, WindowMorning, 45)

	slots, err := svc.AvailableSlots(context.Background(), testOwner, mustDate(t, "2026-03-16"), 60)
	if err != nil {
		t.Fatalf("AvailableSlots() failed: %v", err)
	}

	want := []Slot{
		{StartTime: "08:00", EndTime: "09:00"},
		{StartTime: "08:30", EndTime: "09:30"},
		{StartTime: "09:00", EndTime: "10:00"},
		{StartTime: "09:30", EndTime: "10:30"},
		{StartTime: "10:00", EndTime: "11:00"},
	}
	if !reflect.DeepEqual(slots, want) {
		t.Errorf("AvailableSlots() = %+v, want %+v", slots, want)
	}
}

func TestAvailableSlots_skipsBusyTime(t *testing.T) {
	svc, _, dir := newTestService()
	setPrefs(t, svc, 30, WindowMorning, 45)

	createTestBlock(t, svc, "2026-03-16", "08:00", "09:00")
	dir.addEvent("2026-03-16", "10:00", "11:00", "maths")

	slots, err := svc.AvailableSlots(context.Background(), testOwner, mustDate(t, "2026-03-16"), 60)
	if err != nil {
		t.Fatalf("AvailableSlots() failed: %v", err)
	}

	// only 09:00-10:00 and 11:00-12:00 dodge both the block and the event
	want := []Slot{
		{StartTime: "09:00", EndTime: "10:00"},
		{StartTime: "11:00", EndTime: "12:00"},
	}
	if !reflect.DeepEqual(slots, want) {
		t.Errorf("AvailableSlots() = %+v, want %+v", slots, want)
	}
}

func TestAvailableSlots_durationMustFitWindow(t *testing.T) {
	svc, _, _ := newTestService()
	setPrefs(t, svc, 60, WindowEvening, 45) // evening: 19:00-22:00

	slots, err := svc.AvailableSlots(context.Background(), testOwner, mustDate(t, "2026-03-16"), 180)
	if err != nil {
		t.Fatalf("AvailableSlots() failed: %v", err)
	}
	if len(slots) != 1 || slots[0].StartTime != "19:00" {
		t.Errorf("AvailableSlots() = %+v, want the single 19:00-22:00 slot", slots)
	}

	if slots, err = svc.AvailableSlots(context.Background(), testOwner, mustDate(t, "2026-03-16"), 240); err != nil {
		t.Fatalf("AvailableSlots() failed: %v", err)
	} else if len(slots) != 0 {
		t.Errorf("AvailableSlots() = %+v, want none for an oversized duration", slots)
	}
}

func TestAvailableSlots_capsAtFive(t *testing.T) {
	svc, _, _ := newTestService()
	setPrefs(t, svc, 15, WindowAll, 45)

	slots, err := svc.AvailableSlots(context.Background(), testOwner, mustDate(t, "2026-03-16"), 30)
	if err != nil {
		t.Fatalf("AvailableSlots() failed: %v", err)
	}
	if len(slots) != 5 {
		t.Errorf("len(slots) = %v, want 5", len(slots))
	}
}

func TestSuggestStudyBlocks(t *testing.T) {
	svc, _, dir := newTestService()
	setPrefs(t, svc, 30, WindowMorning, 45)

	due := time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)
	dir.infos["act-1"] = ActivityInfo{ID: "act-1", Title: "History essay", DueAt: &due, EstimatedMinutes: 100}

	plan, err := svc.SuggestStudyBlocks(context.Background(), testOwner, "act-1")
	if err != nil {
		t.Fatalf("SuggestStudyBlocks() failed: %v", err)
	}

	// 100min at 45min focus: 45 + 45 + 10 over the first three days
	if len(plan.Suggested) != 3 {
		t.Fatalf("len(Suggested) = %v, want 3", len(plan.Suggested))
	}
	wantDays := []string{"2026-03-16", "2026-03-17", "2026-03-18"}
	wantMins := []int{45, 45, 10}
	for i, sb := range plan.Suggested {
		if FormatDate(sb.Date) != wantDays[i] {
			t.Errorf("Suggested[%d].Date = %v, want %v", i, FormatDate(sb.Date), wantDays[i])
		}
		if sb.Minutes != wantMins[i] {
			t.Errorf("Suggested[%d].Minutes = %v, want %v", i, sb.Minutes, wantMins[i])
		}
		if sb.StartTime != "08:00" {
			t.Errorf("Suggested[%d].StartTime = %v, want 08:00 (first free slot)", i, sb.StartTime)
		}
		if sb.Category != CategoryStudy {
			t.Errorf("Suggested[%d].Category = %v, want %v", i, sb.Category, CategoryStudy)
		}
	}
	if plan.ShortfallMinutes != 0 {
		t.Errorf("ShortfallMinutes = %v, want 0", plan.ShortfallMinutes)
	}
}

func TestSuggestStudyBlocks_reportsShortfall(t *testing.T) {
	svc, _, dir := newTestService()
	setPrefs(t, svc, 30, WindowMorning, 45)

	// due tomorrow: at most 2 days x 45min can be placed
	due := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	dir.infos["act-1"] = ActivityInfo{ID: "act-1", DueAt: &due, EstimatedMinutes: 180}

	plan, err := svc.SuggestStudyBlocks(context.Background(), testOwner, "act-1")
	if err != nil {
		t.Fatalf("SuggestStudyBlocks() failed: %v", err)
	}
	if len(plan.Suggested) != 2 {
		t.Errorf("len(Suggested) = %v, want 2", len(plan.Suggested))
	}
	if plan.ShortfallMinutes != 90 {
		t.Errorf("ShortfallMinutes = %v, want 90", plan.ShortfallMinutes)
	}
}

func TestSuggestStudyBlocks_discountsPlannedWork(t *testing.T) {
	svc, _, dir := newTestService()
	setPrefs(t, svc, 30, WindowMorning, 45)

	due := time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)
	dir.infos["act-1"] = ActivityInfo{ID: "act-1", DueAt: &due, EstimatedMinutes: 90}

	// 60min already on the agenda for this activity
	blk, err := svc.Create(context.Background(), NewBlock{
		OwnerID: testOwner, ActivityID: "act-1", Date: "2026-03-16", StartTime: "10:00", EndTime: "11:00",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	plan, err := svc.SuggestStudyBlocks(context.Background(), testOwner, "act-1")
	if err != nil {
		t.Fatalf("SuggestStudyBlocks() failed: %v", err)
	}
	if len(plan.Suggested) != 1 || plan.Suggested[0].Minutes != 30 {
		t.Errorf("Suggested = %+v, want one 30min block", plan.Suggested)
	}

	// skipping the block frees its minutes: the full 90 needs planning again
	if _, err = svc.MarkSkipped(context.Background(), testOwner, blk.ID); err != nil {
		t.Fatalf("MarkSkipped() failed: %v", err)
	}
	plan, err = svc.SuggestStudyBlocks(context.Background(), testOwner, "act-1")
	if err != nil {
		t.Fatalf("SuggestStudyBlocks() failed: %v", err)
	}
	var total int
	for _, sb := range plan.Suggested {
		total += sb.Minutes
	}
	if total+plan.ShortfallMinutes != 90 {
		t.Errorf("planned %v + shortfall %v, want 90 total", total, plan.ShortfallMinutes)
	}
}

func TestSuggestStudyBlocks_notPlannable(t *testing.T) {
	svc, _, dir := newTestService()

	dir.infos["no-due"] = ActivityInfo{ID: "no-due", EstimatedMinutes: 60}
	dir.infos["no-estimate"] = ActivityInfo{ID: "no-estimate", DueAt: &testNow}

	for _, id := range []string{"no-due", "no-estimate"} {
		_, err := svc.SuggestStudyBlocks(context.Background(), testOwner, id)
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("SuggestStudyBlocks(%s) error = %v, want *core.ValidationError", id, err)
		}
	}

	if _, err := svc.SuggestStudyBlocks(context.Background(), testOwner, "ghost"); err != ErrNotFound {
		t.Errorf("SuggestStudyBlocks(ghost) error = %v, want ErrNotFound", err)
	}
}
