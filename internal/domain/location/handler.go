package location

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/response"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Assess handles POST /locations/assess
func (h *Handler) Assess(w http.ResponseWriter, r *http.Request) {
	var req AssessRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	check, err := h.svc.Assess(r.Context(), AssessInput{
		RequestedBy: req.RequestedBy,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		PlaceName:   req.PlaceName,
		BookingID:   req.BookingID,
		EventID:     req.EventID,
	})
	if err != nil {
		response.Error(w, http.StatusBadGateway, "CLASSIFIER_UNAVAILABLE", "place classification unavailable")
		return
	}

	response.OK(w, check)
}

func (h *Handler) Routes(authMiddleware, writeScope func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Group(func(r chi.Router) {
		r.Use(writeScope)
		r.Post("/assess", h.Assess)
	})
	return r
}
