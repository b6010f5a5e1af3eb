package reputation

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

// ApplyEvent handles POST /reputation/events
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
			response.Accepted(w, &EventResult{Applied: false})
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

// Multiplier handles GET /reputation/users/{id}/multiplier
func (h *Handler) Multiplier(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	contextName := r.URL.Query().Get("context")
	if err := validator.ValidateVar(contextName, "ranking_context"); err != nil {
		response.BadRequest(w, "unknown ranking context")
		return
	}
	if contextName == "" {
		contextName = ContextDiscovery
	}

	response.OK(w, &MultiplierResponse{
		UserID:     userID,
		Context:    contextName,
		Multiplier: h.svc.RankingMultiplier(r.Context(), userID, contextName),
	})
}

// UserHint handles GET /reputation/users/{id}/hint
func (h *Handler) UserHint(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	response.OK(w, h.svc.Hint(r.Context(), userID))
}

func (h *Handler) Routes(authMiddleware, writeScope func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/users/{id}/multiplier", h.Multiplier)
	r.Get("/users/{id}/hint", h.UserHint)
	r.Group(func(r chi.Router) {
		r.Use(writeScope)
		r.Post("/events", h.ApplyEvent)
	})
	return r
}
