package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/example/daygap/internal/apperr"
	"github.com/example/daygap/internal/backfill"
	"github.com/example/daygap/internal/confirm"
	"github.com/example/daygap/internal/dailynotes"
	"github.com/example/daygap/internal/date"
	"github.com/example/daygap/internal/history"
	"github.com/example/daygap/internal/scan"
	"github.com/example/daygap/internal/settings"
)

// Handler holds API route handlers.
type Handler struct {
	notes    dailynotes.Provider
	settings *settings.Store
	flows    *confirm.Manager
	hist     history.History
}

// NewHandler creates a new Handler.
func NewHandler(notes dailynotes.Provider, st *settings.Store, flows *confirm.Manager, hist history.History) *Handler {
	return &Handler{notes: notes, settings: st, flows: flows, hist: hist}
}

// Status handles GET /api/status.
//
//	@Summary		Daily notes facility status from a fresh vault scan
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	reg, err := h.notes.All(r.Context())
	if err != nil {
		slog.Error("status scan failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	today := date.Today()
	first, _ := reg.First()
	last, _ := reg.Last()
	writeJSON(w, http.StatusOK, StatusResponse{
		Enabled:   h.notes.Enabled(),
		Pattern:   h.notes.Pattern().String(),
		Notes:     reg.Len(),
		First:     first,
		Last:      last,
		Today:     today,
		TodayNote: reg.Has(today),
		Malformed: len(reg.Malformed()),
	})
}

// Missing handles GET /api/missing.
//
//	@Summary		Ad-hoc gap scan over an inclusive date range
//	@Tags			status
//	@Produce		json
//	@Param			start	query		string	true	"Range start (YYYY-MM-DD)"
//	@Param			end		query		string	true	"Range end (YYYY-MM-DD)"
//	@Success		200		{object}	MissingResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/missing [get]
func (h *Handler) Missing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := date.Parse(q.Get("start"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid start date, want YYYY-MM-DD"))
		return
	}
	end, err := date.Parse(q.Get("end"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid end date, want YYYY-MM-DD"))
		return
	}

	reg, err := h.notes.All(r.Context())
	if err != nil {
		slog.Error("missing scan failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	missing := scan.FindMissingDates(reg, start, end)
	if missing == nil {
		missing = []date.Date{}
	}
	writeJSON(w, http.StatusOK, MissingResponse{
		Start:   start,
		End:     end,
		Missing: missing,
		Count:   len(missing),
	})
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Read the backfill preferences
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	SettingsResponse
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SettingsResponse{
		Settings: h.settings.Get(),
		Checksum: h.settings.Checksum(),
	})
}

// UpdateSettings handles PUT /api/settings.
//
//	@Summary		Update the backfill preferences
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			If-Match	header		string		false	"Settings checksum for optimistic concurrency"
//	@Param			body		body		Settings	true	"New preferences"
//	@Success		200			{object}	SettingsResponse
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	// Decode over the current record so omitted fields keep their value.
	next := h.settings.Get()
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)
	if ifMatch != "" && ifMatch != h.settings.Checksum() {
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		return
	}

	rec, err := h.settings.Update(func(r *settings.Record) { *r = next })
	if err != nil {
		var verr validation.Errors
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorBody(verr.Error()))
			return
		}
		slog.Error("update settings failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{
		Settings: rec,
		Checksum: h.settings.Checksum(),
	})
}

// CreatePlan handles POST /api/backfill/plans.
//
//	@Summary		Open a confirmation flow for missing daily notes
//	@Tags			plans
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreatePlanRequest	false	"Optional explicit range"
//	@Success		201		{object}	PlanResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backfill/plans [post]
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	var (
		id  string
		err error
	)
	switch {
	case req.Start == "" && req.End == "":
		id, _, err = h.flows.Open(r.Context())
	case req.Start != "" && req.End != "":
		var start, end date.Date
		if start, err = date.Parse(req.Start); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid start date, want YYYY-MM-DD"))
			return
		}
		if end, err = date.Parse(req.End); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid end date, want YYYY-MM-DD"))
			return
		}
		id, err = h.flows.OpenRange(r.Context(), start, end)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("start and end must be given together"))
		return
	}
	if err != nil {
		if errors.Is(err, apperr.ErrDailyNotesDisabled) {
			writeJSON(w, http.StatusConflict, errorBody(backfill.DisabledMessage))
			return
		}
		slog.Error("open plan failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	p, ok := h.flows.Get(id)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, planResponse(p))
}

// ListPlans handles GET /api/backfill/plans.
//
//	@Summary		List open confirmation flows, oldest first
//	@Tags			plans
//	@Produce		json
//	@Success		200	{object}	PlanListResponse
//	@Security		BearerAuth
//	@Router			/backfill/plans [get]
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans := h.flows.List()
	out := make([]PlanResponse, len(plans))
	for i, p := range plans {
		out[i] = planResponse(p)
	}
	writeJSON(w, http.StatusOK, PlanListResponse{Plans: out, Total: len(out)})
}

// GetPlan handles GET /api/backfill/plans/{id}.
//
//	@Summary		Read one confirmation flow
//	@Tags			plans
//	@Produce		json
//	@Param			id	path		string	true	"Plan id"
//	@Success		200	{object}	PlanResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backfill/plans/{id} [get]
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	p, ok := h.flows.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, planResponse(p))
}

// PatchPlan handles PATCH /api/backfill/plans/{id}.
//
//	@Summary		Edit the date fields of an open flow
//	@Tags			plans
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Plan id"
//	@Param			body	body		PatchPlanRequest	true	"Fields to edit"
//	@Success		200		{object}	PlanResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backfill/plans/{id} [patch]
func (h *Handler) PatchPlan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")

	var req PatchPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Start == nil && req.End == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("nothing to edit"))
		return
	}

	var err error
	if req.Start != nil {
		_, err = h.flows.Apply(r.Context(), id, confirm.SetStart(*req.Start))
	}
	if err == nil && req.End != nil {
		_, err = h.flows.Apply(r.Context(), id, confirm.SetEnd(*req.End))
	}
	if err != nil {
		h.writePlanError(w, id, err)
		return
	}

	p, ok := h.flows.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, planResponse(p))
}

// ConfirmPlan handles POST /api/backfill/plans/{id}/confirm.
//
//	@Summary		Confirm a flow and create its missing notes
//	@Tags			plans
//	@Produce		json
//	@Param			id	path		string	true	"Plan id"
//	@Success		200	{object}	ConfirmResponse
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backfill/plans/{id}/confirm [post]
func (h *Handler) ConfirmPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	_, res, err := h.flows.Confirm(r.Context(), id)
	if err != nil {
		h.writePlanError(w, id, err)
		return
	}

	p, ok := h.flows.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	created := res.Created
	if created == nil {
		created = []dailynotes.Note{}
	}
	failed := make([]FailureDTO, len(res.Failed))
	for i, f := range res.Failed {
		failed[i] = FailureDTO{Date: f.Date, Error: f.Err.Error()}
	}
	writeJSON(w, http.StatusOK, ConfirmResponse{
		Plan:    planResponse(p),
		RunID:   res.RunID,
		Message: res.Message(),
		Created: created,
		Failed:  failed,
	})
}

// CancelPlan handles DELETE /api/backfill/plans/{id}.
//
//	@Summary		Cancel a flow without creating anything
//	@Tags			plans
//	@Param			id	path	string	true	"Plan id"
//	@Success		204	"Plan canceled"
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backfill/plans/{id} [delete]
func (h *Handler) CancelPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.flows.Apply(r.Context(), id, confirm.Cancel()); err != nil {
		h.writePlanError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /api/history.
//
//	@Summary		List recorded backfill runs, newest first
//	@Tags			history
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	runs, total, err := h.hist.ListRuns(limit, offset)
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if runs == nil {
		runs = []Run{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Runs: runs, Total: total})
}

// HistoryRun handles GET /api/history/{id}.
//
//	@Summary		Read one backfill run with per-day outcomes
//	@Tags			history
//	@Produce		json
//	@Param			id	path		string	true	"Run id"
//	@Success		200	{object}	Run
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/history/{id} [get]
func (h *Handler) HistoryRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.hist.GetRun(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("get run failed", slog.String("run_id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// writePlanError maps flow errors onto status codes shared by the plan
// handlers.
func (h *Handler) writePlanError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrPlanClosed):
		writeJSON(w, http.StatusConflict, errorBody("plan already closed"))
	default:
		slog.Error("plan operation failed", slog.String("plan_id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
