package api

import (
	"net/http"

	"github.com/mparks/geode/internal/model"
)

// conformsTo lists the conformance classes this service implements, in a
// stable order.
var conformsTo = []string{
	"http://www.opengis.net/spec/ogcapi-processes-1/1.0/conf/core",
	"http://www.opengis.net/spec/ogcapi-processes-1/1.0/conf/ogc-process-description",
	"http://www.opengis.net/spec/ogcapi-processes-1/1.0/conf/json",
	"http://www.opengis.net/spec/ogcapi-processes-1/1.0/conf/job-list",
	"http://www.opengis.net/spec/ogcapi-processes-1/1.0/conf/dismiss",
}

type landingResponse struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Links       []model.Link `json:"links"`
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, landingResponse{
		Title:       "geode",
		Description: "OGC API - Processes host for named, schema-described computations",
		Links: []model.Link{
			{Href: "/", Rel: "self", Type: "application/json", Title: "this document"},
			{Href: "/conformance", Rel: "http://www.opengis.net/def/rel/ogc/1.0/conformance", Type: "application/json", Title: "conformance declaration"},
			{Href: "/processes", Rel: "http://www.opengis.net/def/rel/ogc/1.0/processes", Type: "application/json", Title: "process list"},
			{Href: "/jobs", Rel: "http://www.opengis.net/def/rel/ogc/1.0/job-list", Type: "application/json", Title: "job list"},
		},
	})
}

type conformanceResponse struct {
	ConformsTo []string `json:"conformsTo"`
}

func (s *Server) handleConformance(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, conformanceResponse{ConformsTo: conformsTo})
}
