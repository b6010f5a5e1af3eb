package admin

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns admin router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(AuthMiddleware(h.jwtSvc, h.service))

	r.Route("/trust", func(r chi.Router) {
		// Read surface
		r.Group(func(r chi.Router) {
			r.Use(RequirePermission(PermTrustView))
			r.Get("/users/{id}", h.GetUserTrust)
			r.Get("/location-checks", h.LocationChecks)
			r.Get("/location-checks/{id}", h.LocationCheckByID)
		})

		// Overrides and releases
		r.Group(func(r chi.Router) {
			r.Use(RequirePermission(PermTrustOverride))
			r.Post("/risk-overrides", h.OverrideRisk)
			r.Post("/reputation-overrides", h.OverrideReputation)
			r.Post("/booking-blocks/release", h.ReleaseBookingBlock)
		})

		// Audit trail (super_admin only)
		r.Group(func(r chi.Router) {
			r.Use(RequirePermission(PermAuditView))
			r.Get("/audit", h.AuditLogs)
		})

		// Live alert stream for staff dashboards
		if h.alerts != nil {
			r.Group(func(r chi.Router) {
				r.Use(RequirePermission(PermAlertStream))
				r.Get("/alerts/stream", h.alerts.Stream)
			})
		}
	})

	return r
}
