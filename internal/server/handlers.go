package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/interfaces"
	"github.com/bobmcallan/navcheck/internal/models"
)

// defaultRunListLimit caps run listings when no limit is given.
const defaultRunListLimit = 50

// --- Validation handlers ---

func (s *Server) handleValidationRun(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.RunRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	run, err := s.app.RunService.Run(r.Context(), req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, run)
}

func (s *Server) handleValidationEvaluate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var input interfaces.EvaluateInput
	if !DecodeJSON(w, r, &input) {
		return
	}

	results, err := s.app.RunService.Evaluate(r.Context(), input)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if results == nil {
		results = []models.ValidationResult{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// runStore returns the run store, writing 503 when history is disabled.
func (s *Server) runStore(w http.ResponseWriter) interfaces.RunStore {
	store := s.app.Storage.RunStore()
	if store == nil {
		WriteErrorWithCode(w, http.StatusServiceUnavailable, "Run history is disabled", "history_disabled")
	}
	return store
}

func (s *Server) handleRunList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit, ok := QueryInt(r, "limit", defaultRunListLimit)
	if !ok {
		WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	store := s.runStore(w)
	if store == nil {
		return
	}

	fund := strings.TrimSpace(r.URL.Query().Get("fund"))
	runs, err := store.ListRuns(r.Context(), fund, limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing runs: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodDelete) {
		return
	}

	store := s.runStore(w)
	if store == nil {
		return
	}

	if r.Method == http.MethodDelete {
		if err := store.DeleteRun(r.Context(), id); err != nil {
			WriteServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	run, err := store.GetRun(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunExport(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	data, err := s.app.ReportService.Workbook(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="validation-%s.xlsx"`, id))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleRunChart(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	data, err := s.app.ReportService.Chart(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	md, err := s.app.ReportService.Markdown(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(md))
}

// --- Reference data handlers ---

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	fund := strings.TrimSpace(q.Get("fund"))
	source := strings.TrimSpace(q.Get("source"))
	if fund == "" || source == "" || q.Get("date") == "" {
		WriteError(w, http.StatusBadRequest, "fund, source and date are required")
		return
	}
	date, err := common.ParseDate(q.Get("date"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	metrics, err := s.app.RunService.Metrics(r.Context(), fund, source, date)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"fund":    fund,
		"source":  source,
		"date":    common.FormatDate(date),
		"metrics": metrics,
	})
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	kpis, err := s.app.Storage.KPIStore().ActiveKPIs(r.Context(), strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing KPIs: %v", err))
		return
	}
	if kpis == nil {
		kpis = []models.KPI{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"kpis":  kpis,
		"count": len(kpis),
	})
}

// --- Cache handlers ---

func (s *Server) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Fund string `json:"fund"`
	}
	if r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody {
		if !DecodeJSON(w, r, &req) {
			return
		}
	}

	removed := s.app.RunService.InvalidateCache(strings.TrimSpace(req.Fund))
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"fund":        req.Fund,
		"invalidated": removed,
	})
}
