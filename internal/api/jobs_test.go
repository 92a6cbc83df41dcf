package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mparks/geode/internal/model"
)

// pollJobStatus polls a job status URL until the job reaches a terminal state.
func pollJobStatus(t *testing.T, url string, timeout time.Duration) map[string]any {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err != nil {
			t.Fatalf("GET %s: %v", url, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			t.Fatalf("GET %s: status %d", url, resp.StatusCode)
		}
		body := decodeJSON(t, resp)
		status, _ := body["status"].(string)
		if model.Terminal(status) {
			return body
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job at %s did not reach a terminal state within %v", url, timeout)
	return nil
}

func TestAsyncExecuteBufferPolygon(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/processes/geometry-buffer/execution",
		`{"inputs": {"geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}, "distance": 0.25}}`,
		map[string]string{"Prefer": "respond-async"})

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	if location == "" {
		t.Fatal("Location header is empty")
	}
	if v := resp.Header.Get("Preference-Applied"); v != "respond-async" {
		t.Errorf("Preference-Applied = %q, want respond-async", v)
	}

	accepted := decodeJSON(t, resp)
	if _, ok := accepted["jobID"]; !ok {
		t.Error("accepted body missing jobID")
	}

	// Poll the job's status resource to completion.
	job := pollJobStatus(t, ts.URL+location, 10*time.Second)
	if job["status"] != model.StatusSuccessful {
		t.Fatalf("status = %v, want successful (message: %v)", job["status"], job["message"])
	}

	// Fetch results; ?f=json is accepted for client compatibility.
	resultResp, err := http.Get(ts.URL + location + "/results?f=json")
	if err != nil {
		t.Fatalf("GET results: %v", err)
	}
	defer resultResp.Body.Close()

	if resultResp.StatusCode != http.StatusOK {
		t.Fatalf("results status = %d, want 200", resultResp.StatusCode)
	}
	raw, err := io.ReadAll(resultResp.Body)
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	if !strings.Contains(string(raw), "Polygon") && !strings.Contains(string(raw), "Feature") {
		t.Errorf("results body missing geometry output: %.120s", string(raw))
	}
}

func TestAsyncJobTerminalStateIsIdempotent(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/processes/geometry-buffer/execution",
		`{"inputs": {"geometry": {"type": "Point", "coordinates": [0,0]}, "distance": 1.0}}`,
		map[string]string{"Prefer": "respond-async"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	resp.Body.Close()

	first := pollJobStatus(t, ts.URL+location, 10*time.Second)

	// Repeated reads after a terminal state return the same status.
	for i := 0; i < 3; i++ {
		again, err := http.Get(ts.URL + location)
		if err != nil {
			t.Fatalf("GET job: %v", err)
		}
		body := decodeJSON(t, again)
		if body["status"] != first["status"] {
			t.Errorf("read %d: status = %v, want stable %v", i, body["status"], first["status"])
		}
	}
}

func TestAsyncExecuteValidationError(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/processes/geometry-buffer/execution",
		`{"inputs": {"distance": 1.0}}`,
		map[string]string{"Prefer": "respond-async"})
	defer resp.Body.Close()

	// Validation runs before job creation, so the error is raised inline.
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if resp.Header.Get("Location") != "" {
		t.Error("Location header set on rejected submission")
	}
}

func TestListJobs(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/processes/geometry-buffer/execution",
		`{"inputs": {"geometry": {"type": "Point", "coordinates": [0,0]}, "distance": 1.0}}`,
		map[string]string{"Prefer": "respond-async"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	resp.Body.Close()
	pollJobStatus(t, ts.URL+location, 10*time.Second)

	listResp, err := http.Get(ts.URL + "/jobs")
	if err != nil {
		t.Fatalf("GET /jobs: %v", err)
	}
	if listResp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", listResp.StatusCode)
	}

	body := decodeJSON(t, listResp)
	jobs, ok := body["jobs"].([]any)
	if !ok || len(jobs) == 0 {
		t.Fatalf("jobs = %v, want non-empty list", body["jobs"])
	}
	first := jobs[0].(map[string]any)
	if _, ok := first["jobID"]; !ok {
		t.Error("job entry missing jobID")
	}
	if _, ok := first["status"]; !ok {
		t.Error("job entry missing status")
	}
}

func TestGetJobNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/jobs/does-not-exist")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetJobResultsNotReady(t *testing.T) {
	srv, s := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	// Seed an accepted job directly so no worker races the assertion.
	now := time.Now().UTC()
	j := &model.Job{
		ID:        model.NewID(),
		ProcessID: "geometry-buffer",
		Status:    model.StatusAccepted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateJob(context.Background(), j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	resp, err := http.Get(ts.URL + "/jobs/" + j.ID + "/results")
	if err != nil {
		t.Fatalf("GET results: %v", err)
	}

	// Not ready is a distinct 4xx, not a 404: the job exists, retry later.
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	body := decodeJSON(t, resp)
	if body["code"] != "ResultNotReady" {
		t.Errorf("code = %v, want ResultNotReady", body["code"])
	}
}

func TestGetJobResultsNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/jobs/does-not-exist/results")
	if err != nil {
		t.Fatalf("GET results: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDismissAcceptedJob(t *testing.T) {
	srv, s := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	now := time.Now().UTC()
	j := &model.Job{
		ID:        model.NewID(),
		ProcessID: "geometry-buffer",
		Status:    model.StatusAccepted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateJob(context.Background(), j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	req, _ := http.NewRequest("DELETE", ts.URL+"/jobs/"+j.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE job: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeJSON(t, resp)
	if body["status"] != model.StatusDismissed {
		t.Errorf("status = %v, want dismissed", body["status"])
	}
}

func TestDismissTerminalJobRejected(t *testing.T) {
	srv, s := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	j := &model.Job{
		ID:        model.NewID(),
		ProcessID: "geometry-buffer",
		Status:    model.StatusAccepted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := s.UpdateJobStatus(ctx, j.ID, model.StatusRunning); err != nil {
		t.Fatalf("accepted→running: %v", err)
	}
	if err := s.FailJob(ctx, j.ID, "done"); err != nil {
		t.Fatalf("FailJob: %v", err)
	}

	req, _ := http.NewRequest("DELETE", ts.URL+"/jobs/"+j.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE job: %v", err)
	}

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
	body := decodeJSON(t, resp)
	if body["code"] != "JobNotDismissible" {
		t.Errorf("code = %v, want JobNotDismissible", body["code"])
	}
}

func TestDismissUnknownJob(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	req, _ := http.NewRequest("DELETE", ts.URL+"/jobs/does-not-exist", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE job: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestConcurrentAsyncJobsAreIsolated(t *testing.T) {
	srv, s := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	const n = 5
	locations := make([]string, 0, n)
	seen := make(map[string]bool)

	for i := 0; i < n; i++ {
		resp := postJSON(t, ts.URL+"/processes/geometry-buffer/execution",
			`{"inputs": {"geometry": {"type": "Point", "coordinates": [0,0]}, "distance": 1.0}}`,
			map[string]string{"Prefer": "respond-async"})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("submit %d: status = %d, want 201", i, resp.StatusCode)
		}
		location := resp.Header.Get("Location")
		body := decodeJSON(t, resp)
		id, _ := body["jobID"].(string)
		if seen[id] {
			t.Fatalf("duplicate job id %s", id)
		}
		seen[id] = true
		locations = append(locations, location)
	}

	for _, location := range locations {
		job := pollJobStatus(t, ts.URL+location, 10*time.Second)
		if job["status"] != model.StatusSuccessful {
			t.Errorf("job at %s: status = %v, want successful", location, job["status"])
		}
	}

	// Every job resolved to its own consistent terminal record.
	for id := range seen {
		if _, err := s.GetJobResult(context.Background(), id); err != nil {
			t.Errorf("GetJobResult(%s) = %v, want result", id, err)
		}
	}
}
