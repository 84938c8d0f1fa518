package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/ratiba/core/planner"
	testutil "github.com/trezcool/ratiba/tests"
)

const testOwner = "std-001"

func TestBlockCreate(t *testing.T) {
	deps := newTestServer(t)

	taken := testutil.CreateBlock(t, deps.plannerRepo, testOwner, "", "2026-03-16", "09:00", "10:00", planner.StatusScheduled)

	tests := []httpTest{
		{
			name:     "no owner header",
			body:     []byte(`{"date": "2026-03-16", "start_time": "15:00", "end_time": "16:00"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, httpErr{Error: "owner not identified"}),
		},
		{
			name:     "missing fields",
			owner:    testOwner,
			body:     []byte(`{"date": "2026-03-16"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{
				"start_time": "this field is required",
				"end_time":   "this field is required",
			}),
		},
		{
			name:     "end before start",
			owner:    testOwner,
			body:     []byte(`{"date": "2026-03-16", "start_time": "16:00", "end_time": "15:00"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"end_time": "end time must be after start time"}),
		},
		{
			name:     "ok",
			owner:    testOwner,
			body:     []byte(`{"date": "2026-03-16", "start_time": "15:00", "end_time": "16:00"}`),
			wantCode: http.StatusCreated,
		},
		{
			name:     "conflict",
			owner:    testOwner,
			body:     []byte(`{"date": "2026-03-16", "start_time": "09:30", "end_time": "10:30"}`),
			wantCode: http.StatusConflict,
		},
		{
			name:     "conflict overridden",
			owner:    testOwner,
			body:     []byte(`{"date": "2026-03-16", "start_time": "09:30", "end_time": "10:30", "allow_overlap": true}`),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newOwnerRequest(http.MethodPost, "/v1/blocks", tt.owner, tt.body)
			deps.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %v, want %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusCreated {
				var blk planner.Block
				if err := json.Unmarshal(rec.Body.Bytes(), &blk); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if blk.ID == "" || blk.Status != planner.StatusScheduled {
					t.Errorf("block = %+v", blk)
				}
			}
			if tt.wantCode == http.StatusConflict {
				var payload struct {
					Error    string               `json:"error"`
					Conflict planner.ConflictInfo `json:"conflict"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if !payload.Conflict.HasConflict {
					t.Error("conflict payload missing")
				}
				if len(payload.Conflict.Blocks) == 0 || payload.Conflict.Blocks[0].ID != taken.ID {
					t.Errorf("conflicting blocks = %+v, want [%s]", payload.Conflict.Blocks, taken.ID)
				}
				if payload.Conflict.NextSlot == nil {
					t.Error("next_available_slot missing")
				}
			}
		})
	}
}

func TestBlockRetrieveAndDay(t *testing.T) {
	deps := newTestServer(t)

	early := testutil.CreateBlock(t, deps.plannerRepo, testOwner, "", "2026-03-16", "08:00", "09:00", planner.StatusScheduled)
	late := testutil.CreateBlock(t, deps.plannerRepo, testOwner, "", "2026-03-16", "14:00", "15:00", planner.StatusScheduled)
	testutil.CreateBlock(t, deps.plannerRepo, "std-002", "", "2026-03-16", "08:00", "09:00", planner.StatusScheduled)

	// retrieve
	req, rec := newOwnerRequest(http.MethodGet, "/v1/blocks/"+early.ID, testOwner)
	deps.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, early)}, rec)

	// another owner's block is invisible
	req, rec = newOwnerRequest(http.MethodGet, "/v1/blocks/"+early.ID, "std-002")
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %v, want 404", rec.Code)
	}

	// day view, ordered by start time
	req, rec = newOwnerRequest(http.MethodGet, "/v1/blocks/day?date=2026-03-16", testOwner)
	deps.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marshallObj(t, []planner.Block{early, late}),
	}, rec)

	// bad date
	req, rec = newOwnerRequest(http.MethodGet, "/v1/blocks/day?date=lol", testOwner)
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %v, want 400", rec.Code)
	}
}

func TestBlockMoveAndStatus(t *testing.T) {
	deps := newTestServer(t)

	blk := testutil.CreateBlock(t, deps.plannerRepo, testOwner, "", "2026-03-16", "09:00", "10:30", planner.StatusScheduled)

	// move preserves duration
	req, rec := newOwnerRequest(http.MethodPost, "/v1/blocks/"+blk.ID+"/move", testOwner,
		[]byte(`{"date": "2026-03-17", "start_time": "14:00"}`))
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want 200; body %s", rec.Code, rec.Body.String())
	}
	var moved planner.Block
	if err := json.Unmarshal(rec.Body.Bytes(), &moved); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if moved.StartTime != "14:00" || moved.EndTime != "15:30" {
		t.Errorf("interval = %s-%s, want 14:00-15:30", moved.StartTime, moved.EndTime)
	}

	// complete
	req, rec = newOwnerRequest(http.MethodPost, "/v1/blocks/"+blk.ID+"/complete", testOwner)
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want 200", rec.Code)
	}

	// moving a completed block is a validation error
	req, rec = newOwnerRequest(http.MethodPost, "/v1/blocks/"+blk.ID+"/move", testOwner,
		[]byte(`{"date": "2026-03-18", "start_time": "09:00"}`))
	deps.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marshallObj(t, map[string]string{"status": "only scheduled blocks can be moved"}),
	}, rec)
}

func TestBlockDestroy(t *testing.T) {
	deps := newTestServer(t)

	b1 := testutil.CreateBlock(t, deps.plannerRepo, testOwner, "", "2026-03-16", "09:00", "10:00", planner.StatusScheduled)
	b2 := testutil.CreateBlock(t, deps.plannerRepo, testOwner, "", "2026-03-16", "11:00", "12:00", planner.StatusScheduled)

	req, rec := newOwnerRequest(http.MethodDelete, "/v1/blocks?id="+b1.ID+"&id="+b2.ID, testOwner)
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %v, want 204", rec.Code)
	}

	req, rec = newOwnerRequest(http.MethodGet, "/v1/blocks/"+b1.ID, testOwner)
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %v, want 404 after delete", rec.Code)
	}
}

func TestAvailableSlots(t *testing.T) {
	deps := newTestServer(t)

	if _, err := deps.plannerSvc.SavePreferences(context.Background(), testOwner, planner.Preferences{
		BlockSize: 30, PreferredWindow: planner.WindowMorning, FocusDuration: 45,
	}); err != nil {
		t.Fatalf("SavePreferences() failed: %v", err)
	}

	req, rec := newOwnerRequest(http.MethodGet, "/v1/slots?date=2026-03-16&duration=60", testOwner)
	deps.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marshallObj(t, []planner.Slot{
			{StartTime: "08:00", EndTime: "09:00"},
			{StartTime: "08:30", EndTime: "09:30"},
			{StartTime: "09:00", EndTime: "10:00"},
			{StartTime: "09:30", EndTime: "10:30"},
			{StartTime: "10:00", EndTime: "11:00"},
		}),
	}, rec)

	// missing duration
	req, rec = newOwnerRequest(http.MethodGet, "/v1/slots?date=2026-03-16", testOwner)
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %v, want 400", rec.Code)
	}
}

func TestConflictCheck(t *testing.T) {
	deps := newTestServer(t)

	testutil.CreateBlock(t, deps.plannerRepo, testOwner, "", "2026-03-16", "09:00", "10:00", planner.StatusScheduled)

	req, rec := newOwnerRequest(http.MethodGet, "/v1/conflicts?date=2026-03-16&start=09:30&end=10:30", testOwner)
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want 200; body %s", rec.Code, rec.Body.String())
	}
	var info planner.ConflictInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if !info.HasConflict || len(info.Blocks) != 1 {
		t.Errorf("info = %+v, want one conflicting block", info)
	}

	req, rec = newOwnerRequest(http.MethodGet, "/v1/conflicts?date=2026-03-16&start=10:00&end=11:00", testOwner)
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want 200", rec.Code)
	}
	info = planner.ConflictInfo{}
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if info.HasConflict {
		t.Error("adjacent interval reported as conflicting")
	}
}

func TestPreferences(t *testing.T) {
	deps := newTestServer(t)

	// defaults come back before anything is saved
	req, rec := newOwnerRequest(http.MethodGet, "/v1/preferences", testOwner)
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want 200", rec.Code)
	}
	var prefs planner.Preferences
	if err := json.Unmarshal(rec.Body.Bytes(), &prefs); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if prefs.BlockSize != 30 || prefs.PreferredWindow != planner.WindowAll {
		t.Errorf("defaults = %+v", prefs)
	}

	tests := []httpTest{
		{
			name:     "save ok",
			body:     []byte(`{"block_size": 15, "preferred_window": "evening", "focus_duration": 60}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "bad block size",
			body:     []byte(`{"block_size": 25, "preferred_window": "evening", "focus_duration": 60}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "window typo",
			body:     []byte(`{"block_size": 30, "preferred_window": "evenin", "focus_duration": 60}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"preferred_window": `unknown window; did you mean "evening"?`}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newOwnerRequest(http.MethodPut, "/v1/preferences", testOwner, tt.body)
			deps.server.ServeHTTP(rec, req)
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Errorf("code = %v, want %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func TestStudyPlan(t *testing.T) {
	deps := newTestServer(t)

	act := testutil.CreateAssignment(t, deps.actRepo, testOwner, "History essay",
		testutil.Date(t, futureDate(5)), 90)

	req, rec := newOwnerRequest(http.MethodGet, "/v1/activities/"+act.ID+"/study-plan", testOwner)
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want 200; body %s", rec.Code, rec.Body.String())
	}
	var plan planner.StudyPlan
	if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if plan.ActivityID != act.ID {
		t.Errorf("ActivityID = %v, want %v", plan.ActivityID, act.ID)
	}
	var total int
	for _, sb := range plan.Suggested {
		total += sb.Minutes
	}
	if total+plan.ShortfallMinutes != 90 {
		t.Errorf("planned %v + shortfall %v, want 90", total, plan.ShortfallMinutes)
	}

	// an announcement has nothing to plan
	evt := testutil.CreateEvent(t, deps.actRepo, testOwner, "Maths class",
		testutil.Date(t, futureDate(1)).Add(9*time.Hour), nil)
	req, rec = newOwnerRequest(http.MethodGet, "/v1/activities/"+evt.ID+"/study-plan", testOwner)
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %v, want 400", rec.Code)
	}
}
