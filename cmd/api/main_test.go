package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/admin"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/alert"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/booking"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/feedback"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/location"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/reputation"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/swipe"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/trust"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/middleware"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/concerns"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/places"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/token"
)

// buildTestRouter mirrors the wiring in main with inert dependencies.
// Catches route collisions and missing mounts without a database.
func buildTestRouter(t *testing.T) chi.Router {
	t.Helper()

	alerts := alert.NopPublisher{}
	riskService := risk.NewService(risk.NewRepository(nil), alerts)
	reputationService := reputation.NewService(reputation.NewRepository(nil), nil)
	bookingService := booking.NewService(booking.NewRepository(nil), riskService, alerts)
	swipeService := swipe.NewService(swipe.NewRepository(nil), alerts)
	locationService := location.NewService(location.NewRepository(nil), places.NewClient(places.Config{}), riskService, alerts)
	feedbackService := feedback.NewService(riskService, reputationService, concerns.NopClassifier{})
	trustService := trust.NewService(riskService, reputationService)
	adminService := admin.NewService(admin.NewRepository(nil))

	tokenService := token.NewService("test-secret", time.Minute)
	adminJWTService := admin.NewJWTService("test-secret", time.Hour)

	alertHandler := alert.NewHandler(alert.NewHub(nil), admin.GetAdminID, nil)
	adminHandler := admin.NewHandler(adminService, adminJWTService, riskService, reputationService, bookingService, locationService, trustService, alertHandler)

	serviceAuth := middleware.ServiceAuth(tokenService)
	trustWrite := middleware.RequireScope(token.ScopeTrustWrite)
	locationCheck := middleware.RequireScope(token.ScopeLocation, token.ScopeTrustWrite)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/risk", risk.NewHandler(riskService).Routes(serviceAuth, trustWrite))
		r.Mount("/bookings", booking.NewHandler(bookingService).Routes(serviceAuth, trustWrite))
		r.Mount("/swipes", swipe.NewHandler(swipeService).Routes(serviceAuth, trustWrite))
		r.Mount("/locations", location.NewHandler(locationService).Routes(serviceAuth, locationCheck))
		r.Mount("/reputation", reputation.NewHandler(reputationService).Routes(serviceAuth, trustWrite))
		r.Mount("/trust", trust.NewHandler(trustService).Routes(serviceAuth))
		r.Mount("/events", feedback.NewHandler(feedbackService).Routes(serviceAuth, trustWrite))
	})
	r.Mount("/api/admin", adminHandler.Routes())
	return r
}

func TestRouterRegistersAllDomains(t *testing.T) {
	r := buildTestRouter(t)

	got := map[string]bool{}
	walkFn := func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		got[method+" "+route] = true
		return nil
	}
	if err := chi.Walk(r, walkFn); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	want := []string{
		"POST /api/v1/risk/events",
		"PUT /api/v1/risk/users/{id}/category",
		"GET /api/v1/bookings/gate",
		"POST /api/v1/bookings/outcomes",
		"GET /api/v1/swipes/visibility",
		"POST /api/v1/swipes/actions",
		"POST /api/v1/locations/assess",
		"GET /api/v1/reputation/users/{id}/multiplier",
		"GET /api/v1/reputation/users/{id}/hint",
		"POST /api/v1/reputation/events",
		"GET /api/v1/trust/users/{id}/effective-risk",
		"GET /api/v1/trust/users/{id}/verification-requirement",
		"POST /api/v1/events/feedback",
		"POST /api/v1/events/account-created",
		"GET /api/admin/trust/users/{id}",
		"GET /api/admin/trust/location-checks",
		"POST /api/admin/trust/risk-overrides",
		"POST /api/admin/trust/reputation-overrides",
		"POST /api/admin/trust/booking-blocks/release",
		"GET /api/admin/trust/audit",
		"GET /api/admin/trust/alerts/stream",
	}
	for _, pattern := range want {
		if !got[pattern] {
			t.Errorf("route %s not registered", pattern)
		}
	}
}
