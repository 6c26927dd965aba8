package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/anomalab/ids-server/pkg/conf"
	"github.com/anomalab/ids-server/pkg/stor"
)

// Server context
type Server struct {
	Config *conf.Config
	stor.Store
	Router *chi.Mux
}

// s is the server variable shared by all tests
var s Server

// ---
// Utilities
// ---
func setConfig() *conf.Config {

	c := conf.Config{
		Dsn: "sqlite3://file::memory:?cache=shared",
		Access: conf.Access{
			Username: "user",
			Password: "password",
		},
		Detection: conf.Detection{
			ThresholdFactor: 2,
			AlertLink:       "http://localhost/runs/{run_id}/days/{day}",
		},
	}

	return &c
}

func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)

	return rr
}

func checkResponseCode(t *testing.T, expected int, response *httptest.ResponseRecorder) bool {
	ok := true
	if expected != response.Code {
		t.Errorf("Expected response code %d. Got %d\n", expected, response.Code)
		t.Log(response.Body.String())
		ok = false
	}
	return ok
}

// a valid simulation payload; the live statistics carry a zero deviation,
// therefore generated values and daily scores are deterministic
const simulationPayload = `{
	"days": 3,
	"events": [
		{"name": "Logins", "type": "D", "min": 0, "max": 10, "weight": 2},
		{"name": "Time online", "type": "C", "min": 0, "max": 1440, "weight": 1}
	],
	"baseline": {
		"Logins": {"mean": 4, "stddev": 1},
		"Time online": {"mean": 120, "stddev": 10}
	},
	"live": {
		"Logins": {"mean": 9, "stddev": 0},
		"Time online": {"mean": 150, "stddev": 0}
	}
}`

func runSimulation(t *testing.T) *SimulationResponse {
	t.Helper()

	req, _ := http.NewRequest("POST", "/simulations", strings.NewReader(simulationPayload))
	req.Header.Set("Content-Type", "application/json")
	response := executeRequest(req)
	if !checkResponseCode(t, http.StatusCreated, response) {
		t.FailNow()
	}

	var simResp SimulationResponse
	if err := json.Unmarshal(response.Body.Bytes(), &simResp); err != nil {
		t.Fatalf("Failed to decode the simulation response: %v", err)
	}
	return &simResp
}

// ---
// Main Test
// ---

func TestMain(m *testing.M) {

	s.Config = setConfig()

	// Setup the database
	var err error
	s.Store, err = stor.Init(s.Config.Dsn)
	if err != nil {
		panic("Database setup failed")
	}

	// Set a context for handlers
	a := NewAPICtrl(s.Config, s.Store)

	// Define the router
	r := chi.NewRouter()

	s.Router = r

	r.Use(middleware.RequestID)
	//r.Use(middleware.Logger)

	// Only public routes for these tests
	r.Group(func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("This is the IDS Server running!"))
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		// Simulations
		r.Post("/simulations", a.RunSimulation)

		// Runs
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", a.ListRuns)
			r.Get("/search", a.SearchRuns) // GET /runs/search{?source}

			r.Route("/{runID}", func(r chi.Router) {
				r.Get("/", a.GetRun)                          // GET /runs/123
				r.Delete("/", a.DeleteRun)                    // DELETE /runs/123
				r.Get("/alerts", a.ListRunAlerts)             // GET /runs/123/alerts{?flagged}
				r.Get("/observations", a.ListRunObservations) // GET /runs/123/observations{?event}
				r.Get("/report.csv", a.ReportRun)             // GET /runs/123/report.csv
			})
		})

		// Dashboard
		r.Route("/dashdata", func(r chi.Router) {
			r.Get("/data", a.GetDashboardData)
			r.Get("/noisiest", a.GetNoisiestEvents)
		})
	})

	code := m.Run()
	os.Exit(code)
}

// ---
// Simulation Tests
// ---

func TestRunSimulation(t *testing.T) {

	simResp := runSimulation(t)

	if simResp.Run == nil {
		t.Fatal("Missing run in the simulation response")
	}
	if simResp.Run.Source != stor.SOURCE_API {
		t.Fatalf("Incorrect run source: %s", simResp.Run.Source)
	}
	if simResp.Run.Days != 3 {
		t.Fatalf("Incorrect run days: %d", simResp.Run.Days)
	}
	// threshold = 2 * (2 + 1)
	if simResp.Run.Threshold != 6 {
		t.Fatalf("Incorrect run threshold: %v", simResp.Run.Threshold)
	}
	if len(simResp.Reports) != 3 {
		t.Fatalf("Incorrect report count: %d", len(simResp.Reports))
	}
	// each day scores 2*|9-4|/1 + 1*|150-120|/10 = 13, above the threshold
	for _, report := range simResp.Reports {
		if report.Score != 13 {
			t.Fatalf("Incorrect day %d score: %v", report.Day, report.Score)
		}
		if !report.Alert {
			t.Fatalf("Day %d expected to be flagged", report.Day)
		}
		if !strings.Contains(report.Link, simResp.Run.UUID) {
			t.Fatalf("Incorrect day %d link: %s", report.Day, report.Link)
		}
	}
	if simResp.Run.MaxScore != 13 || simResp.Run.FlaggedDays != 3 {
		t.Fatalf("Incorrect run rollup: %+v", simResp.Run)
	}
}

func TestRunSimulationInvalid(t *testing.T) {

	// an empty payload is rejected by the json schema
	req, _ := http.NewRequest("POST", "/simulations", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	response := executeRequest(req)
	checkResponseCode(t, http.StatusBadRequest, response)

	// an invalid event type is rejected
	payload := strings.Replace(simulationPayload, `"type": "D"`, `"type": "X"`, 1)
	req, _ = http.NewRequest("POST", "/simulations", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	response = executeRequest(req)
	checkResponseCode(t, http.StatusBadRequest, response)

	// live statistics must cover every event
	payload = strings.Replace(simulationPayload, `"Logins": {"mean": 9, "stddev": 0},`, ``, 1)
	req, _ = http.NewRequest("POST", "/simulations", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	response = executeRequest(req)
	checkResponseCode(t, http.StatusBadRequest, response)

	// the day count must be positive
	payload = strings.Replace(simulationPayload, `"days": 3`, `"days": 0`, 1)
	req, _ = http.NewRequest("POST", "/simulations", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	response = executeRequest(req)
	checkResponseCode(t, http.StatusBadRequest, response)
}

// ---
// Run Tests
// ---

func TestGetRun(t *testing.T) {

	simResp := runSimulation(t)

	req, _ := http.NewRequest("GET", "/runs/"+simResp.Run.UUID, nil)
	response := executeRequest(req)
	checkResponseCode(t, http.StatusOK, response)

	var run stor.Run
	if err := json.Unmarshal(response.Body.Bytes(), &run); err != nil {
		t.Fatalf("Failed to decode the run: %v", err)
	}
	if run.UUID != simResp.Run.UUID {
		t.Fatalf("Incorrect run uuid: %s", run.UUID)
	}

	// an unknown run yields a 404
	req, _ = http.NewRequest("GET", "/runs/unknown-run-id", nil)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusNotFound, response)
}

func TestListAndSearchRuns(t *testing.T) {

	runSimulation(t)

	req, _ := http.NewRequest("GET", "/runs/", nil)
	response := executeRequest(req)
	checkResponseCode(t, http.StatusOK, response)

	var runs []stor.Run
	if err := json.Unmarshal(response.Body.Bytes(), &runs); err != nil {
		t.Fatalf("Failed to decode the run list: %v", err)
	}
	if len(runs) == 0 {
		t.Fatal("Empty run list")
	}

	// search by source
	req, _ = http.NewRequest("GET", "/runs/search?source=api", nil)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusOK, response)

	if err := json.Unmarshal(response.Body.Bytes(), &runs); err != nil {
		t.Fatalf("Failed to decode the run list: %v", err)
	}
	for _, run := range runs {
		if run.Source != stor.SOURCE_API {
			t.Fatalf("Incorrect source in search results: %s", run.Source)
		}
	}

	// an invalid source yields a 404
	req, _ = http.NewRequest("GET", "/runs/search?source=guess", nil)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusNotFound, response)
}

func TestDeleteRun(t *testing.T) {

	simResp := runSimulation(t)

	req, _ := http.NewRequest("DELETE", "/runs/"+simResp.Run.UUID, nil)
	response := executeRequest(req)
	checkResponseCode(t, http.StatusOK, response)

	// check that the run has been deleted
	req, _ = http.NewRequest("GET", "/runs/"+simResp.Run.UUID, nil)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusNotFound, response)
}

// ---
// Alert and Observation Tests
// ---

func TestListRunAlerts(t *testing.T) {

	simResp := runSimulation(t)

	req, _ := http.NewRequest("GET", "/runs/"+simResp.Run.UUID+"/alerts", nil)
	response := executeRequest(req)
	checkResponseCode(t, http.StatusOK, response)

	var alerts []stor.Alert
	if err := json.Unmarshal(response.Body.Bytes(), &alerts); err != nil {
		t.Fatalf("Failed to decode the alert list: %v", err)
	}
	if len(alerts) != 3 {
		t.Fatalf("Incorrect alert count: %d", len(alerts))
	}

	// only flagged days
	req, _ = http.NewRequest("GET", "/runs/"+simResp.Run.UUID+"/alerts?flagged=true", nil)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusOK, response)

	if err := json.Unmarshal(response.Body.Bytes(), &alerts); err != nil {
		t.Fatalf("Failed to decode the alert list: %v", err)
	}
	if len(alerts) != 3 {
		t.Fatalf("Incorrect flagged alert count: %d", len(alerts))
	}
}

func TestListRunObservations(t *testing.T) {

	simResp := runSimulation(t)

	req, _ := http.NewRequest("GET", "/runs/"+simResp.Run.UUID+"/observations", nil)
	response := executeRequest(req)
	checkResponseCode(t, http.StatusOK, response)

	var observations []stor.Observation
	if err := json.Unmarshal(response.Body.Bytes(), &observations); err != nil {
		t.Fatalf("Failed to decode the observation list: %v", err)
	}
	// 3 days * 2 events
	if len(observations) != 6 {
		t.Fatalf("Incorrect observation count: %d", len(observations))
	}

	// observations of a single event
	req, _ = http.NewRequest("GET", "/runs/"+simResp.Run.UUID+"/observations?event=Logins", nil)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusOK, response)

	if err := json.Unmarshal(response.Body.Bytes(), &observations); err != nil {
		t.Fatalf("Failed to decode the observation list: %v", err)
	}
	if len(observations) != 3 {
		t.Fatalf("Incorrect observation count for one event: %d", len(observations))
	}
	for _, o := range observations {
		// the live deviation is zero, every value is the mean
		if o.Value != 9 {
			t.Fatalf("Incorrect observation value: %v", o.Value)
		}
	}
}

// ---
// Report Tests
// ---

func TestReportRun(t *testing.T) {

	simResp := runSimulation(t)

	req, _ := http.NewRequest("GET", "/runs/"+simResp.Run.UUID+"/report.csv", nil)
	response := executeRequest(req)
	checkResponseCode(t, http.StatusOK, response)

	if ct := response.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("Incorrect content type: %s", ct)
	}

	lines := strings.Split(strings.TrimSpace(response.Body.String()), "\n")
	// header + 3 days
	if len(lines) != 4 {
		t.Fatalf("Incorrect CSV line count: %d", len(lines))
	}
	if lines[0] != "Day,Logins,Time Online,Score,Status" {
		t.Fatalf("Incorrect CSV header: %s", lines[0])
	}
	if lines[1] != "1,9,150,13,ALERT" {
		t.Fatalf("Incorrect CSV record: %s", lines[1])
	}

	// an unknown run yields a 404
	req, _ = http.NewRequest("GET", "/runs/unknown-run-id/report.csv", nil)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusNotFound, response)
}

// ---
// Dashboard Tests
// ---

func TestDashboard(t *testing.T) {

	runSimulation(t)

	req, _ := http.NewRequest("GET", "/dashdata/data", nil)
	response := executeRequest(req)
	checkResponseCode(t, http.StatusOK, response)

	var data stor.DashboardData
	if err := json.Unmarshal(response.Body.Bytes(), &data); err != nil {
		t.Fatalf("Failed to decode the dashboard data: %v", err)
	}
	if data.TotalRuns == 0 || data.TotalObservations == 0 {
		t.Fatalf("Incorrect dashboard totals: %+v", data)
	}

	req, _ = http.NewRequest("GET", "/dashdata/noisiest?limit=5", nil)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusOK, response)

	var events []stor.EventActivityData
	if err := json.Unmarshal(response.Body.Bytes(), &events); err != nil {
		t.Fatalf("Failed to decode the noisiest events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Incorrect event count: %d", len(events))
	}
}
