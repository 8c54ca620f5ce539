package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Submission
	mux.HandleFunc("/submit/", s.handleSubmitRoutes)
	mux.HandleFunc("/submit", s.app.SubmitHandler.SubmitTaskHandler)

	// Monitoring
	mux.HandleFunc("/monitor/", s.handleMonitorRoutes)
	mux.HandleFunc("/monitor", s.app.MonitorHandler.RegisterJobHandler)

	// Liveness
	mux.HandleFunc("/ping", s.app.APIHandler.PingHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleSubmitRoutes routes submission requests to the appropriate handler
func (s *Server) handleSubmitRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/submit/" || path == "/submit":
		s.app.SubmitHandler.SubmitTaskHandler(w, r)
	case path == "/submit/tasks" || path == "/submit/tasks/":
		s.app.SubmitHandler.ListTasksHandler(w, r)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleMonitorRoutes routes monitoring requests to the appropriate handler
func (s *Server) handleMonitorRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/monitor/" || path == "/monitor":
		s.app.MonitorHandler.RegisterJobHandler(w, r)
	case hasRoutePrefix(path, "/monitor/slurm_job_id/"):
		s.app.MonitorHandler.JobByIDHandler(w, r)
	case hasRoutePrefix(path, "/monitor/task_uuid/"):
		s.app.MonitorHandler.JobByTaskUUIDHandler(w, r)
	case hasRoutePrefix(path, "/monitor/slurm_state/"):
		s.app.MonitorHandler.JobsByStateHandler(w, r)
	case path == "/monitor/slurm_states" || path == "/monitor/slurm_states/":
		s.app.MonitorHandler.StatesHandler(w, r)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

func hasRoutePrefix(path, prefix string) bool {
	return len(path) > len(prefix) && path[:len(prefix)] == prefix
}
