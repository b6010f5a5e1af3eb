package trust

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// EffectiveRisk handles GET /trust/users/{id}/effective-risk
func (h *Handler) EffectiveRisk(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	response.OK(w, h.svc.EffectiveRisk(r.Context(), userID))
}

// VerificationRequirement handles GET /trust/users/{id}/verification-requirement
func (h *Handler) VerificationRequirement(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	response.OK(w, &VerificationRequirement{
		UserID:   userID,
		Required: h.svc.RequiresExtraVerification(r.Context(), userID),
	})
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/users/{id}/effective-risk", h.EffectiveRisk)
	r.Get("/users/{id}/verification-requirement", h.VerificationRequirement)
	return r
}
