package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/okian/donorflow/internal/adapters/export"
	"github.com/okian/donorflow/internal/app"
	"github.com/okian/donorflow/pkg/logger"
)

type submitResponse struct {
	RunID  string     `json:"run_id"`
	Status app.Status `json:"status"`
}

// handleSubmitRun handles POST /v1/runs.
func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.svc.Submit(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/runs/"+id)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, submitResponse{RunID: id, Status: app.StatusQueued})
}

// handleListRuns handles GET /v1/runs?limit=N.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	n := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		var err error
		n, err = strconv.Atoi(v)
		if err != nil || n < 1 {
			s.fail(w, r, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		if n > s.maxRunLimit {
			s.fail(w, r, fmt.Errorf("%w: limit exceeds %d", ErrBadRequest, s.maxRunLimit))
			return
		}
	}
	runs, err := s.svc.Recent(r.Context(), n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	// Listings omit results; they can be large.
	for i := range runs {
		runs[i].Result = nil
	}
	render.JSON(w, r, runs)
}

// handleGetRun handles GET /v1/runs/{id}.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, run)
}

// handleExportCSV handles GET /v1/runs/{id}/summaries.csv.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	res, ok := s.finished(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(chi.URLParam(r, "id"), "csv"))
	if err := export.WriteCSV(w, res.Summaries); err != nil {
		s.logger.Error(r.Context(), "csv export failed", logger.Error(err))
	}
}

// handleExportXLSX handles GET /v1/runs/{id}/summaries.xlsx.
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	res, ok := s.finished(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment(chi.URLParam(r, "id"), "xlsx"))
	rep := export.Report{Summaries: res.Summaries, Stats: res.Stats, ROI: res.ROI}
	if err := export.WriteXLSX(w, rep); err != nil {
		s.logger.Error(r.Context(), "xlsx export failed", logger.Error(err))
	}
}

// finished returns the result of a succeeded run, or writes the error.
func (s *Server) finished(w http.ResponseWriter, r *http.Request) (*app.Result, bool) {
	run, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	if run.Status != app.StatusSucceeded || run.Result == nil {
		s.fail(w, r, fmt.Errorf("%w: run %s is %s", ErrNotReady, run.ID, run.Status))
		return nil, false
	}
	return run.Result, true
}

func attachment(id, ext string) string {
	return fmt.Sprintf("attachment; filename=%q", "summaries-"+id+"."+ext)
}
