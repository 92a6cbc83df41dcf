package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mparks/geode/internal/engine"
	"github.com/mparks/geode/internal/model"
	"github.com/mparks/geode/internal/validate"
)

const maxBodySize = 1 << 20 // 1 MB

// executeRequest is the JSON body for POST /processes/{id}/execution.
type executeRequest struct {
	Inputs  map[string]any `json:"inputs"`
	Outputs map[string]any `json:"outputs,omitempty"`
}

type listProcessesResponse struct {
	Processes []model.Summary `json:"processes"`
	Links     []model.Link    `json:"links"`
}

func (s *Server) handleListProcesses(w http.ResponseWriter, r *http.Request) {
	descs := s.registry.List()
	summaries := make([]model.Summary, 0, len(descs))
	for _, d := range descs {
		summaries = append(summaries, d.Summary())
	}

	s.writeJSON(w, http.StatusOK, listProcessesResponse{
		Processes: summaries,
		Links: []model.Link{
			{Href: "/processes", Rel: "self", Type: "application/json"},
		},
	})
}

func (s *Server) handleDescribeProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	proc, ok := s.registry.Lookup(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "NoSuchProcess", "process not found: "+id)
		return
	}

	s.writeJSON(w, http.StatusOK, proc.Describe())
}

// handleExecute accepts an execution request and dispatches it sync or async.
// Async is used only when the client prefers it and the process advertises
// async-execute; otherwise execution falls back to sync, observable to the
// caller through the 200 response code and absent Preference-Applied header.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	proc, ok := s.registry.Lookup(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "NoSuchProcess", "process not found: "+id)
		return
	}

	var req executeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid JSON body")
		return
	}
	if req.Inputs == nil {
		req.Inputs = map[string]any{}
	}

	if prefersAsync(r) && proc.Describe().SupportsAsync() {
		s.executeAsync(w, r, id, req.Inputs)
		return
	}
	s.executeSync(w, r, id, req.Inputs)
}

// executeSync runs the process inline and returns the result body directly.
func (s *Server) executeSync(w http.ResponseWriter, r *http.Request, id string, inputs map[string]any) {
	mimetype, result, err := s.engine.Execute(r.Context(), id, inputs)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	if mimetype == "" {
		mimetype = "application/json"
	}
	w.Header().Set("Content-Type", mimetype)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Error("encode result", "error", err)
	}
}

// executeAsync creates a job and returns 201 with a Location header pointing
// at the job's status resource. The request goroutine only blocks on job
// creation, never on the computation.
func (s *Server) executeAsync(w http.ResponseWriter, r *http.Request, id string, inputs map[string]any) {
	job, err := s.engine.Submit(r.Context(), id, inputs)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	w.Header().Set("Location", "/jobs/"+job.ID)
	w.Header().Set("Preference-Applied", "respond-async")
	s.writeJSON(w, http.StatusCreated, s.statusInfo(job))
}

// writeEngineError maps engine error kinds to HTTP responses. Unknown process
// and validation failures are client errors; anything else is internal.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var vErr *validate.Error
	var xErr *engine.ExecutionError

	switch {
	case errors.Is(err, engine.ErrNoSuchProcess):
		s.writeError(w, http.StatusNotFound, "NoSuchProcess", err.Error())
	case errors.As(err, &vErr):
		s.writeError(w, http.StatusBadRequest, "InvalidParameterValue", vErr.Error())
	case errors.As(err, &xErr):
		s.writeError(w, http.StatusBadRequest, "ExecutionFailed", xErr.Error())
	default:
		s.logger.Error("execute process", "error", err)
		s.writeError(w, http.StatusInternalServerError, "InternalServerError", "failed to execute process")
	}
}

// prefersAsync reports whether the request carries a Prefer header with the
// respond-async preference token.
func prefersAsync(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Prefer"), ",") {
		if strings.EqualFold(strings.TrimSpace(part), "respond-async") {
			return true
		}
	}
	return false
}
