package booking

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/response"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RecordOutcome handles POST /bookings/outcomes
func (h *Handler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	var req RecordOutcomeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	outcome, err := ParseOutcome(req.Outcome)
	if err != nil {
		response.BadRequest(w, "unknown booking outcome")
		return
	}

	in := RecordOutcomeInput{
		RequesterID: req.RequesterID,
		TargetID:    req.TargetID,
		Outcome:     outcome,
		BookingID:   req.BookingID,
	}
	if req.PanicBy != nil {
		in.PanicBy = uuid.NullUUID{UUID: *req.PanicBy, Valid: true}
	}

	result, err := h.svc.RecordOutcome(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrSelfBooking):
			response.BadRequest(w, "requester and target must differ")
		case errors.Is(err, ErrPanicByRequired):
			response.BadRequest(w, "panic_by is required for PANIC_ENDED")
		default:
			// Surface the failure so the delivery pipeline retries.
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

// Gate handles GET /bookings/gate
func (h *Handler) Gate(w http.ResponseWriter, r *http.Request) {
	requesterID, err := uuid.Parse(r.URL.Query().Get("requester_id"))
	if err != nil {
		response.BadRequest(w, "Invalid requester_id")
		return
	}
	targetID, err := uuid.Parse(r.URL.Query().Get("target_id"))
	if err != nil {
		response.BadRequest(w, "Invalid target_id")
		return
	}

	response.OK(w, h.svc.CheckCooldown(r.Context(), requesterID, targetID))
}

func (h *Handler) Routes(authMiddleware, writeScope func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/gate", h.Gate)
	r.Group(func(r chi.Router) {
		r.Use(writeScope)
		r.Post("/outcomes", h.RecordOutcome)
	})
	return r
}
