package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Facility status and ad-hoc scans.
	r.Get("/status", h.Status)
	r.Get("/missing", h.Missing)

	// Preferences.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)

	// Confirmation flows.
	r.Post("/backfill/plans", h.CreatePlan)
	r.Get("/backfill/plans", h.ListPlans)
	r.Get("/backfill/plans/{id}", h.GetPlan)
	r.Patch("/backfill/plans/{id}", h.PatchPlan)
	r.Post("/backfill/plans/{id}/confirm", h.ConfirmPlan)
	r.Delete("/backfill/plans/{id}", h.CancelPlan)

	// Run history.
	r.Get("/history", h.History)
	r.Get("/history/{id}", h.HistoryRun)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
