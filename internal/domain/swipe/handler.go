package swipe

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

// Track handles POST /swipes/actions
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	var req TrackRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.svc.Track(r.Context(), TrackInput{
		SwiperID:           req.SwiperID,
		TargetID:           req.TargetID,
		IsRightSwipe:       req.IsRightSwipe,
		MatchHappened:      req.MatchHappened,
		WasBlockedByTarget: req.WasBlockedByTarget,
	})
	if err != nil {
		if errors.Is(err, ErrTrackingDegraded) {
			// The swipe already happened; visibility falls back to open.
			response.Accepted(w, &TrackResult{})
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, result)
}

// Visibility handles GET /swipes/visibility
func (h *Handler) Visibility(w http.ResponseWriter, r *http.Request) {
	swiperID, err := uuid.Parse(r.URL.Query().Get("swiper_id"))
	if err != nil {
		response.BadRequest(w, "Invalid swiper_id")
		return
	}
	targetID, err := uuid.Parse(r.URL.Query().Get("target_id"))
	if err != nil {
		response.BadRequest(w, "Invalid target_id")
		return
	}

	hidden := h.svc.IsHidden(r.Context(), swiperID, targetID)
	response.OK(w, map[string]bool{"hidden": hidden})
}

func (h *Handler) Routes(authMiddleware, writeScope func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/visibility", h.Visibility)
	r.Group(func(r chi.Router) {
		r.Use(writeScope)
		r.Post("/actions", h.Track)
	})
	return r
}
