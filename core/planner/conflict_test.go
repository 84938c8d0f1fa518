package planner

import (
	"context"
	"testing"
)

func TestCheckConflict(t *testing.T) {
	svc, _, dir := newTestService()
	ctx := context.Background()
	day := mustDate(t, "2026-03-16")

	blk := createTestBlock(t, svc, "2026-03-16", "09:00", "10:00")
	dir.addEvent("2026-03-16", "13:00", "14:00", "maths")

	tests := []struct {
		name       string
		start, end string
		excludeID  string
		wantBlocks int
		wantEvents int
	}{
		{name: "free interval", start: "15:00", end: "16:00"},
		{name: "overlaps block", start: "09:30", end: "10:30", wantBlocks: 1},
		{name: "overlaps event", start: "13:30", end: "14:30", wantEvents: 1},
		{name: "adjacent to block", start: "10:00", end: "11:00"},
		{name: "adjacent to event", start: "14:00", end: "15:00"},
		{name: "excluded self", start: "09:30", end: "10:30", excludeID: blk.ID},
		{name: "spans both", start: "09:30", end: "13:30", wantBlocks: 1, wantEvents: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.CheckConflict(ctx, testOwner, day, tt.start, tt.end, tt.excludeID)
			if err != nil {
				t.Fatalf("CheckConflict() failed: %v", err)
			}
			wantConflict := tt.wantBlocks > 0 || tt.wantEvents > 0
			if info.HasConflict != wantConflict {
				t.Errorf("HasConflict = %v, want %v", info.HasConflict, wantConflict)
			}
			if len(info.Blocks) != tt.wantBlocks {
				t.Errorf("Blocks = %v, want %v", len(info.Blocks), tt.wantBlocks)
			}
			if len(info.Events) != tt.wantEvents {
				t.Errorf("Events = %v, want %v", len(info.Events), tt.wantEvents)
			}
			if wantConflict && info.NextSlot == nil {
				t.Error("NextSlot = nil, want a suggestion")
			}
			if !wantConflict && info.NextSlot != nil {
				t.Errorf("NextSlot = %+v, want nil", info.NextSlot)
			}
		})
	}
}

func TestCheckConflict_nextSlotSkipsTakenTime(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	day := mustDate(t, "2026-03-16")

	// window all: 08:00-22:00; occupy the first morning hours
	createTestBlock(t, svc, "2026-03-16", "08:00", "10:00")

	info, err := svc.CheckConflict(ctx, testOwner, day, "08:30", "09:30", "")
	if err != nil {
		t.Fatalf("CheckConflict() failed: %v", err)
	}
	if !info.HasConflict {
		t.Fatal("HasConflict = false, want true")
	}
	if info.NextSlot == nil || info.NextSlot.StartTime != "10:00" {
		t.Errorf("NextSlot = %+v, want start 10:00", info.NextSlot)
	}
	if info.NextSlot != nil && info.NextSlot.EndTime != "11:00" {
		t.Errorf("NextSlot end = %v, want 11:00 (same duration)", info.NextSlot.EndTime)
	}
}

func TestHasConflict_ignoresNonScheduled(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	day := mustDate(t, "2026-03-16")

	blk := createTestBlock(t, svc, "2026-03-16", "09:00", "10:00")
	if _, err := svc.MarkSkipped(ctx, testOwner, blk.ID); err != nil {
		t.Fatalf("MarkSkipped() failed: %v", err)
	}

	got, err := svc.HasConflict(ctx, testOwner, day, "09:00", "10:00", "")
	if err != nil {
		t.Fatalf("HasConflict() failed: %v", err)
	}
	if got {
		t.Error("HasConflict = true, want false for a skipped block")
	}
}
