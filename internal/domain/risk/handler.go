package risk

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

// ApplyEvent handles POST /risk/events
func (h *Handler) ApplyEvent(w http.ResponseWriter, r *http.Request) {
	var req ApplyEventRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	event, err := ParseEvent(req.Event)
	if err != nil {
		response.BadRequest(w, "unknown event kind")
		return
	}

	in := ApplyEventInput{
		UserID:     req.UserID,
		Event:      event,
		ContextRef: req.ContextRef,
		Metadata:   req.Metadata,
	}
	if req.RelatedUserID != nil {
		in.RelatedUserID = uuid.NullUUID{UUID: *req.RelatedUserID, Valid: true}
	}

	result, err := h.svc.ApplyEvent(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrScoringDegraded):
			// The caller's primary action proceeds regardless.
			response.Accepted(w, &EventResult{Applied: false})
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

// Categorize handles PUT /risk/users/{id}/category
func (h *Handler) Categorize(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	var req CategorizeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	profile, err := h.svc.Categorize(r.Context(), userID, SafetyCategory(req.Category))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCategory):
			response.BadRequest(w, "invalid safety category")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, profile)
}

func (h *Handler) Routes(authMiddleware, writeScope func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Group(func(r chi.Router) {
		r.Use(writeScope)
		r.Post("/events", h.ApplyEvent)
		r.Put("/users/{id}/category", h.Categorize)
	})
	return r
}
