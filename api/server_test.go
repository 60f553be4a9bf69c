package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/matiasvr/fireline/core/allocator"
	"github.com/matiasvr/fireline/core/model"
	"github.com/matiasvr/fireline/core/planlog"
	fieldmock "github.com/matiasvr/fireline/infra/fieldcomms"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testFixture() ([]model.DemandPoint, []model.Resource) {
	demands := []model.DemandPoint{
		{
			ID:       "F001",
			Kind:     model.DemandWildfire,
			Location: model.Location{Lat: -42.91, Lon: -71.32, Name: "Esquel hills"},
			Severity: model.SeverityHigh,
			Priority: 80, Urgency: 1.5, Intensity: 0.7, Workload: 2500,
		},
		{
			ID:       "F002",
			Kind:     model.DemandWildfire,
			Location: model.Location{Lat: -43.10, Lon: -71.60, Name: "Trevelin ridge"},
			Severity: model.SeverityCritical,
			Priority: 95, Urgency: 2.2, Intensity: 0.9, Workload: 3000,
		},
	}
	resources := []model.Resource{
		{
			ID: "AC001", Kind: model.KindAircraft,
			Location: model.Location{Lat: -42.90, Lon: -71.15, Name: "Esquel airfield"},
			Capacity: 3000, SpeedKMH: 250, RangeKM: 400,
			HoursLeft: 6, ShiftLeft: 8, Available: true,
		},
		{
			ID: "BR001", Kind: model.KindGroundCrew,
			Location: model.Location{Lat: -42.95, Lon: -71.30, Name: "Base Esquel"},
			Capacity: 1200, SpeedKMH: 60, RangeKM: 200,
			HoursLeft: 10, ShiftLeft: 12, Available: true,
		},
	}
	return demands, resources
}

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, planlog.Store) {
	t.Helper()
	store, err := planlog.NewJSONLStore(filepath.Join(t.TempDir(), "plans.jsonl"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := allocator.DefaultConfig()
	planner, err := allocator.New(cfg)
	if err != nil {
		t.Fatalf("planner: %v", err)
	}
	return NewServer(planner, allocator.NewExplainer(cfg), store, opts...), store
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOptimizeEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	router := srv.Router()
	demands, resources := testFixture()

	w := postJSON(t, router, "/api/optimize", optimizeRequest{
		Scenario:  "drill",
		Demands:   demands,
		Resources: resources,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var plan model.AllocationPlan
	if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if plan.ID == "" {
		t.Fatal("plan has no id")
	}
	if plan.Scenario != "drill" {
		t.Fatalf("scenario = %q", plan.Scenario)
	}
	if len(plan.Assignments) == 0 {
		t.Fatal("expected assignments")
	}
	for _, a := range plan.Assignments {
		if a.Explanation == "" {
			t.Fatalf("assignment %s/%s not annotated", a.ResourceID, a.DemandID)
		}
	}

	// The plan must be persisted for later acceptance.
	rec, err := store.Get(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("persisted plan: %v", err)
	}
	if rec.Scenario != "drill" {
		t.Fatalf("stored scenario = %q", rec.Scenario)
	}
}

func TestOptimizeDefaultsScenarioName(t *testing.T) {
	srv, _ := newTestServer(t)
	demands, resources := testFixture()

	w := postJSON(t, srv.Router(), "/api/optimize", optimizeRequest{
		Demands:   demands,
		Resources: resources,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var plan model.AllocationPlan
	if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if plan.Scenario != "baseline" {
		t.Fatalf("scenario = %q, want baseline", plan.Scenario)
	}
}

func TestOptimizeRejectsInvalidInput(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()
	demands, resources := testFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/optimize", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d", w.Code)
	}

	bad := demands
	bad[0].Priority = -5
	w = postJSON(t, router, "/api/optimize", optimizeRequest{Demands: bad, Resources: resources})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid demand: status = %d", w.Code)
	}
}

func TestCompareEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()
	demands, resources := testFixture()

	w := postJSON(t, router, "/api/optimize", optimizeRequest{Scenario: "baseline", Demands: demands, Resources: resources})
	var base model.AllocationPlan
	if err := json.Unmarshal(w.Body.Bytes(), &base); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Alternative scenario with the aircraft out of service.
	grounded := make([]model.Resource, len(resources))
	copy(grounded, resources)
	grounded[0].Available = false
	w = postJSON(t, router, "/api/optimize", optimizeRequest{Scenario: "aircraft_down", Demands: demands, Resources: grounded})
	var alt model.AllocationPlan
	if err := json.Unmarshal(w.Body.Bytes(), &alt); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = postJSON(t, router, "/api/compare", compareRequest{BaselineID: base.ID, AlternativeID: alt.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var diff allocator.Diff
	if err := json.Unmarshal(w.Body.Bytes(), &diff); err != nil {
		t.Fatalf("decode diff: %v", err)
	}
	if diff.Summary == "" {
		t.Fatal("empty diff summary")
	}

	w = postJSON(t, router, "/api/compare", compareRequest{BaselineID: base.ID, AlternativeID: "nope"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown plan: status = %d", w.Code)
	}
}

func TestPlansEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()
	demands, resources := testFixture()

	postJSON(t, router, "/api/optimize", optimizeRequest{Scenario: "alpha", Demands: demands, Resources: resources})
	postJSON(t, router, "/api/optimize", optimizeRequest{Scenario: "beta", Demands: demands, Resources: resources})

	req := httptest.NewRequest(http.MethodGet, "/api/plans", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var records []planlog.Record
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/plans?scenario=beta", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	records = nil
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].Scenario != "beta" {
		t.Fatalf("scenario filter returned %+v", records)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/plans?start=garbage", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad start: status = %d", w.Code)
	}
}

func TestAcceptEndpoint(t *testing.T) {
	pub := fieldmock.NewMockPublisher()
	srv, store := newTestServer(t, WithPublisher(pub), WithAckWait(time.Second))
	router := srv.Router()
	demands, resources := testFixture()

	w := postJSON(t, router, "/api/optimize", optimizeRequest{Scenario: "drill", Demands: demands, Resources: resources})
	var plan model.AllocationPlan
	if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = postJSON(t, router, "/api/plans/"+plan.ID+"/accept", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		PlanID string        `json:"plan_id"`
		Orders []orderResult `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Orders) != len(plan.Assignments) {
		t.Fatalf("got %d orders, want %d", len(resp.Orders), len(plan.Assignments))
	}
	for _, o := range resp.Orders {
		if !o.Acknowledged {
			t.Fatalf("order for %s not acknowledged", o.ResourceID)
		}
		sent, ok := pub.Orders[o.ResourceID]
		if !ok {
			t.Fatalf("no order published for %s", o.ResourceID)
		}
		if sent.PlanID != plan.ID {
			t.Fatalf("order plan id = %q", sent.PlanID)
		}
	}

	rec, err := store.Get(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !rec.Accepted {
		t.Fatal("plan not marked accepted")
	}

	// Double acceptance is refused.
	w = postJSON(t, router, "/api/plans/"+plan.ID+"/accept", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second accept: status = %d", w.Code)
	}

	w = postJSON(t, router, "/api/plans/unknown/accept", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown plan: status = %d", w.Code)
	}
}

func TestAcceptReportsPublishFailures(t *testing.T) {
	pub := fieldmock.NewMockPublisher()
	pub.FailIDs["AC001"] = true
	srv, _ := newTestServer(t, WithPublisher(pub))
	router := srv.Router()
	demands, resources := testFixture()

	w := postJSON(t, router, "/api/optimize", optimizeRequest{Scenario: "drill", Demands: demands, Resources: resources})
	var plan model.AllocationPlan
	if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := plan.AssignmentFor("F002"); !ok {
		t.Skip("fixture did not assign the aircraft")
	}

	w = postJSON(t, router, "/api/plans/"+plan.ID+"/accept", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Orders []orderResult `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var sawFailure bool
	for _, o := range resp.Orders {
		if o.ResourceID == "AC001" {
			if o.Error == "" || o.Acknowledged {
				t.Fatalf("expected failed order for AC001, got %+v", o)
			}
			sawFailure = true
		}
	}
	if !sawFailure {
		t.Skip("aircraft not part of the accepted plan")
	}
}
