package echoapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/trezcool/ratiba/core/activity"
	testutil "github.com/trezcool/ratiba/tests"
)

func TestActivityCreate(t *testing.T) {
	deps := newTestServer(t)

	tests := []httpTest{
		{
			name:     "no owner header",
			body:     []byte(`{"title": "Maths class", "type": "event", "event_start_at": "2026-09-01T09:00:00Z"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, httpErr{Error: "owner not identified"}),
		},
		{
			name:     "missing title",
			owner:    testOwner,
			body:     []byte(`{"type": "assignment"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"title": "this field is required"}),
		},
		{
			name:     "event without start",
			owner:    testOwner,
			body:     []byte(`{"title": "Maths class", "type": "event"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "event ok",
			owner:    testOwner,
			body:     []byte(`{"title": "Maths class", "type": "event", "event_start_at": "2026-09-01T09:00:00Z"}`),
			wantCode: http.StatusCreated,
		},
		{
			name:     "assignment ok",
			owner:    testOwner,
			body:     []byte(`{"title": "History essay", "type": "assignment", "due_at": "2026-09-08T00:00:00Z", "estimated_minutes": 180}`),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newOwnerRequest(http.MethodPost, "/v1/activities", tt.owner, tt.body)
			deps.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %v, want %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusCreated {
				var act activity.Activity
				if err := json.Unmarshal(rec.Body.Bytes(), &act); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if act.ID == "" || act.OwnerID != "" {
					// OwnerID is never serialized
					t.Errorf("activity = %+v", act)
				}
			}
		})
	}
}

func TestActivityQuery(t *testing.T) {
	deps := newTestServer(t)

	day := testutil.Date(t, "2026-09-01")
	maths := testutil.CreateEvent(t, deps.actRepo, testOwner, "Maths class", day.Add(9*time.Hour), nil)
	testutil.CreateEvent(t, deps.actRepo, testOwner, "Next week", day.AddDate(0, 0, 7).Add(9*time.Hour), nil)
	essay := testutil.CreateAssignment(t, deps.actRepo, testOwner, "History essay", day.AddDate(0, 0, 5), 180)
	testutil.CreateEvent(t, deps.actRepo, "std-002", "Not mine", day.Add(9*time.Hour), nil)

	tests := []struct {
		name      string
		rawQuery  string
		wantCode  int
		wantCount int
	}{
		{name: "all", wantCode: http.StatusOK, wantCount: 3},
		{name: "events only", rawQuery: "type=event", wantCode: http.StatusOK, wantCount: 2},
		{
			name: "events in range",
			rawQuery: url.Values{
				"events_from": {"2026-09-01T00:00:00Z"},
				"events_to":   {"2026-09-02T00:00:00Z"},
			}.Encode(),
			wantCode:  http.StatusOK,
			wantCount: 1,
		},
		{name: "bad timestamp", rawQuery: "events_from=yesterday", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/v1/activities"
			if tt.rawQuery != "" {
				path += "?" + tt.rawQuery
			}
			req, rec := newOwnerRequest(http.MethodGet, path, testOwner)
			deps.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("code = %v, want %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var acts []activity.Activity
			if err := json.Unmarshal(rec.Body.Bytes(), &acts); err != nil {
				t.Fatalf("unmarshalling response: %v", err)
			}
			if len(acts) != tt.wantCount {
				t.Errorf("len(acts) = %v, want %v", len(acts), tt.wantCount)
			}
		})
	}

	// retrieve
	req, rec := newOwnerRequest(http.MethodGet, "/v1/activities/"+essay.ID, testOwner)
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want 200", rec.Code)
	}

	// another owner's activity is invisible
	req, rec = newOwnerRequest(http.MethodGet, "/v1/activities/"+maths.ID, "std-002")
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %v, want 404", rec.Code)
	}
}

func TestActivityDestroy(t *testing.T) {
	deps := newTestServer(t)

	day := testutil.Date(t, "2026-09-01")
	act := testutil.CreateEvent(t, deps.actRepo, testOwner, "Maths class", day.Add(9*time.Hour), nil)

	req, rec := newOwnerRequest(http.MethodDelete, "/v1/activities/"+act.ID, testOwner)
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %v, want 204", rec.Code)
	}

	req, rec = newOwnerRequest(http.MethodGet, "/v1/activities/"+act.ID, testOwner)
	deps.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %v, want 404 after delete", rec.Code)
	}
}
