package server

import (
	"net/http"

	"careercoach/internal/observability"
)

// setupRoutes configures every page and operational route
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	limited := s.rateLimitMiddleware(om)
	sized := s.requestSizeLimitMiddleware

	mux.HandleFunc("GET /{$}", s.dashboardPage)
	mux.HandleFunc("GET /resumes", s.listPage)
	mux.HandleFunc("GET /resumes/new", s.createPage)
	mux.HandleFunc("POST /resumes", sized(s.createSubmit))
	mux.HandleFunc("GET /resumes/{id}", s.detailPage)
	mux.HandleFunc("GET /resumes/{id}/edit", s.editPage)
	mux.HandleFunc("POST /resumes/{id}", sized(s.editSubmit))
	mux.HandleFunc("POST /resumes/{id}/delete", sized(s.deleteSubmit))
	mux.HandleFunc("GET /resumes/{id}/interview", limited(s.interviewPage))
	mux.HandleFunc("GET /resumes/{id}/learning-path", limited(s.learningPathPage))

	mux.HandleFunc("/", s.notFoundPage)

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	if path, h := om.MetricsHandler(); h != nil {
		mux.Handle("GET "+path, h)
	}

	return mux
}

// Handler builds the complete middleware chain around the routes
func (s *Server) Handler(om *observability.ObservabilityManager) http.Handler {
	var h http.Handler = s.setupRoutes(om)
	h = s.recoveryMiddleware(h)
	h = s.loggingMiddleware(h)
	h = requestIDMiddleware(h)
	return om.HTTPMiddleware()(h)
}
