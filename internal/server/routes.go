package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/navcheck/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Validations
	mux.HandleFunc("/api/validations/run", s.handleValidationRun)
	mux.HandleFunc("/api/validations/evaluate", s.handleValidationEvaluate)
	mux.HandleFunc("/api/validations/runs", s.handleRunList)
	mux.HandleFunc("/api/validations/runs/", s.routeRuns)

	// Reference data
	mux.HandleFunc("/api/metrics", s.handleMetrics)
	mux.HandleFunc("/api/kpis", s.handleKPIs)

	// Cache
	mux.HandleFunc("/api/cache/invalidate", s.handleCacheInvalidate)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found")
	})
}

// routeRuns dispatches /api/validations/runs/{id}/* to the appropriate handler.
func (s *Server) routeRuns(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/validations/runs/")
	if path == "" {
		s.handleRunList(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	subpath := ""
	if len(parts) > 1 {
		subpath = parts[1]
	}

	switch subpath {
	case "":
		s.handleRun(w, r, id)
	case "export":
		s.handleRunExport(w, r, id)
	case "chart":
		s.handleRunChart(w, r, id)
	case "report":
		s.handleRunReport(w, r, id)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}
