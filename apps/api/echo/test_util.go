package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/activity"
	"github.com/trezcool/ratiba/core/planner"
	dummydb "github.com/trezcool/ratiba/storage/database/dummy"
	testutil "github.com/trezcool/ratiba/tests"
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	owner    string
	wantCode int
	wantData []byte
	extra    interface{}
}

// nopLogger drops everything; the error handler still needs a core.Logger.
type nopLogger struct{}

var _ core.Logger = (*nopLogger)(nil)

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type testDeps struct {
	server      *Server
	plannerRepo planner.Repository
	actRepo     activity.Repository
	plannerSvc  *planner.Service
	actSvc      *activity.Service
}

func newTestServer(t *testing.T) testDeps {
	t.Helper()

	conf := &core.Config{
		Env:      "TEST",
		TestMode: true,
		AppName:  "Ratiba",
		Planner:  core.PlannerConfig{BlockSize: 30, PreferredWindow: "all", FocusDuration: 45},
	}

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	plannerRepo := dummydb.NewPlannerRepository(db)
	actRepo := dummydb.NewActivityRepository(db)

	actSvc := activity.NewService(actRepo)
	plannerSvc := planner.NewService(plannerRepo, actSvc, conf, nopLogger{})

	validate, translator := testutil.NewValidator()

	server := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      nopLogger{},
		PlannerSvc:  plannerSvc,
		ActivitySvc: actSvc,
		Validate:    validate,
		Translator:  translator,
	})
	return testDeps{
		server:      server,
		plannerRepo: plannerRepo,
		actRepo:     actRepo,
		plannerSvc:  plannerSvc,
		actSvc:      actSvc,
	}
}

func newOwnerRequest(method, path, owner string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set(ownerHeader, owner)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func futureDate(days int) string {
	return planner.FormatDate(time.Now().UTC().AddDate(0, 0, days))
}
