package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Portfolio/internal/benefit"
	"github.com/MikeSquared-Agency/Portfolio/internal/ilp"
	"github.com/MikeSquared-Agency/Portfolio/internal/optimize"
	"github.com/MikeSquared-Agency/Portfolio/internal/runner"
	"github.com/MikeSquared-Agency/Portfolio/internal/store"
)

const maxListLimit = 500

type SweepsHandler struct {
	runner *runner.Runner
	store  store.Store
	logger *slog.Logger
}

func NewSweepsHandler(run *runner.Runner, s store.Store, logger *slog.Logger) *SweepsHandler {
	return &SweepsHandler{runner: run, store: s, logger: logger}
}

// Create runs a sweep synchronously and returns the stored run. A sweep that
// fails after validation is still stored; its ID is returned with the error.
func (h *SweepsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req runner.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	run, err := h.runner.Run(r.Context(), &req, runner.SourceAPI, chiMiddleware.GetReqID(r.Context()))
	if err != nil {
		body := map[string]string{"error": err.Error()}
		if run != nil {
			body["run_id"] = run.ID.String()
		}
		writeJSON(w, statusFor(err), body)
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

func (h *SweepsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{Source: q.Get("source")}
	if s := q.Get("status"); s != "" {
		status := store.RunStatus(s)
		if status != store.RunCompleted && status != store.RunFailed {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		filter.Status = &status
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil || filter.Limit > maxListLimit {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
		return
	}

	runs, err := h.store.ListSweepRuns(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []*store.SweepRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *SweepsHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Table renders a stored run as output rows, as JSON or CSV. frontier=true
// keeps only the cost/coverage non-dominated rows.
func (h *SweepsHandler) Table(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	results := runner.ResultsFromRun(run)
	if r.URL.Query().Get("frontier") == "true" {
		results = optimize.Frontier(results)
	}
	rows := optimize.Rows(results)

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, rows)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="sweep-`+run.ID.String()+`.csv"`)
		w.WriteHeader(http.StatusOK)
		if err := optimize.WriteCSV(w, rows); err != nil {
			h.logger.Warn("failed to write csv", "run_id", run.ID, "error", err)
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be json or csv"})
	}
}

func (h *SweepsHandler) Solve(w http.ResponseWriter, r *http.Request) {
	var req runner.SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	res, err := h.runner.Solve(r.Context(), &req)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SweepsHandler) Budgets(w http.ResponseWriter, r *http.Request) {
	var req runner.BudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	budgets, err := h.runner.Budgets(&req)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]float64{"budgets": budgets})
}

func (h *SweepsHandler) loadRun(w http.ResponseWriter, r *http.Request) (*store.SweepRun, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return nil, false
	}
	run, err := h.store.GetSweepRun(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	if run == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "sweep run not found"})
		return nil, false
	}
	return run, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, benefit.ErrValidation), errors.Is(err, benefit.ErrUnknownStrategy):
		return http.StatusBadRequest
	case errors.Is(err, ilp.ErrNoSolution), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
