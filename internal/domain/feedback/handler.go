package feedback

import (
	"errors"
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

// Submit handles POST /events/feedback
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	in := SubmitInput{
		GiverID:    req.GiverID,
		ReceiverID: req.ReceiverID,
		Positive:   req.Positive,
		ShowedUp:   *req.ShowedUp,
		ContextID:  req.ContextID,
		Comment:    req.Comment,
	}
	if req.VibeRating != nil {
		in.VibeRating = *req.VibeRating
	}

	result, err := h.svc.Submit(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrSelfFeedback):
			response.BadRequest(w, "feedback about yourself is not accepted")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

// AccountCreated handles POST /events/account-created
func (h *Handler) AccountCreated(w http.ResponseWriter, r *http.Request) {
	var req AccountCreatedRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	response.OK(w, h.svc.AccountCreated(r.Context(), req.UserID))
}

func (h *Handler) Routes(authMiddleware, writeScope func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Group(func(r chi.Router) {
		r.Use(writeScope)
		r.Post("/feedback", h.Submit)
		r.Post("/account-created", h.AccountCreated)
	})
	return r
}
