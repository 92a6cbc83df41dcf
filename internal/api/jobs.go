package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mparks/geode/internal/model"
	"github.com/mparks/geode/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// statusInfoResponse is the job status document served at /jobs/{jobID}.
type statusInfoResponse struct {
	*model.Job
	Type  string       `json:"type"`
	Links []model.Link `json:"links"`
}

// statusInfo builds the status document for a job, including a results link
// once the job has succeeded.
func (s *Server) statusInfo(j *model.Job) statusInfoResponse {
	links := []model.Link{
		{Href: "/jobs/" + j.ID, Rel: "status", Type: "application/json"},
	}
	if j.Status == model.StatusSuccessful {
		links = append(links, model.Link{
			Href: "/jobs/" + j.ID + "/results", Rel: "results", Type: "application/json",
		})
	}
	return statusInfoResponse{Job: j, Type: "process", Links: links}
}

type listJobsResponse struct {
	Jobs  []statusInfoResponse `json:"jobs"`
	Total int                  `json:"total"`
	Links []model.Link         `json:"links"`
}

// handleListJobs returns jobs ordered by creation time descending (newest
// first).
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)
	offset := parseIntQuery(r, "offset", 0)

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	jobs, total, err := s.store.ListJobs(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list jobs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "InternalServerError", "failed to list jobs")
		return
	}

	infos := make([]statusInfoResponse, 0, len(jobs))
	for _, j := range jobs {
		infos = append(infos, s.statusInfo(j))
	}

	s.writeJSON(w, http.StatusOK, listJobsResponse{
		Jobs:  infos,
		Total: total,
		Links: []model.Link{
			{Href: "/jobs", Rel: "self", Type: "application/json"},
		},
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	job, err := s.store.GetJob(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "NoSuchJob", "job not found: "+id)
		return
	}
	if err != nil {
		s.logger.Error("get job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "InternalServerError", "failed to get job")
		return
	}

	s.writeJSON(w, http.StatusOK, s.statusInfo(job))
}

// handleGetJobResults serves the raw result payload of a successful job. For
// any non-successful status it returns a not-ready error distinct from 404,
// signaling the caller to retry later. The ?f=json query parameter is
// accepted for client compatibility; JSON is the only representation served.
func (s *Server) handleGetJobResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	result, err := s.store.GetJobResult(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "NoSuchJob", "job not found: "+id)
		return
	}
	if errors.Is(err, store.ErrNotReady) {
		s.writeError(w, http.StatusBadRequest, "ResultNotReady", err.Error())
		return
	}
	if err != nil {
		s.logger.Error("get job results", "error", err)
		s.writeError(w, http.StatusInternalServerError, "InternalServerError", "failed to get job results")
		return
	}

	mime := result.MIME
	if mime == "" {
		mime = "application/json"
	}
	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Payload); err != nil {
		s.logger.Error("write job results", "error", err)
	}
}

// handleDismissJob cancels a job that has not started running. Dismissing a
// running or terminal job is rejected explicitly rather than silently ignored;
// the computation is not preemptible.
func (s *Server) handleDismissJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	err := s.store.UpdateJobStatus(r.Context(), id, model.StatusDismissed)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "NoSuchJob", "job not found: "+id)
		return
	}
	if errors.Is(err, store.ErrInvalidTransition) {
		s.writeError(w, http.StatusConflict, "JobNotDismissible",
			"only jobs with status accepted can be dismissed")
		return
	}
	if err != nil {
		s.logger.Error("dismiss job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "InternalServerError", "failed to dismiss job")
		return
	}

	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.logger.Error("get dismissed job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "InternalServerError", "failed to retrieve job")
		return
	}

	s.writeJSON(w, http.StatusOK, s.statusInfo(job))
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
