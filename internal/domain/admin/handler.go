package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/booking"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/location"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/reputation"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/trust"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/response"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/validator"
)

// Narrow views of the trust services. The admin surface only needs the
// read and override paths, and the fakes in tests implement these.
type RiskAdmin interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*risk.UserRiskProfile, error)
	OverrideScore(ctx context.Context, in risk.OverrideInput) (*risk.EventResult, error)
}

type ReputationAdmin interface {
	GetReputation(ctx context.Context, userID uuid.UUID) (*reputation.UserReputation, error)
	GetActiveAdjustment(ctx context.Context, userID uuid.UUID) (*reputation.ReputationAdjustment, error)
	ListAdjustments(ctx context.Context, userID uuid.UUID, limit int) ([]reputation.ReputationAdjustment, error)
	OverrideScore(ctx context.Context, in reputation.OverrideInput) (*reputation.EventResult, error)
}

type BookingAdmin interface {
	ReleasePermanentBlock(ctx context.Context, in booking.ReleaseInput) (*booking.BookingAttemptHistory, error)
}

type LocationReads interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]location.LocationSafetyCheck, error)
	GetByID(ctx context.Context, id uuid.UUID) (*location.LocationSafetyCheck, error)
}

type TrustReads interface {
	EffectiveRisk(ctx context.Context, userID uuid.UUID) *trust.Assessment
}

// AlertStreamer serves the websocket feed for staff dashboards.
type AlertStreamer interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

// Handler handles admin HTTP requests
type Handler struct {
	service    *Service
	jwtSvc     *JWTService
	risk       RiskAdmin
	reputation ReputationAdmin
	booking    BookingAdmin
	location   LocationReads
	trust      TrustReads
	alerts     AlertStreamer
}

// NewHandler creates admin handler
func NewHandler(service *Service, jwtSvc *JWTService, riskSvc RiskAdmin, repSvc ReputationAdmin, bookingSvc BookingAdmin, locationSvc LocationReads, trustSvc TrustReads, alerts AlertStreamer) *Handler {
	return &Handler{
		service:    service,
		jwtSvc:     jwtSvc,
		risk:       riskSvc,
		reputation: repSvc,
		booking:    bookingSvc,
		location:   locationSvc,
		trust:      trustSvc,
		alerts:     alerts,
	}
}

// --- User trust view ---

// GetUserTrust handles GET /admin/trust/users/{id}
func (h *Handler) GetUserTrust(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	profile, err := h.risk.GetProfile(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	rep, err := h.reputation.GetReputation(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	adj, err := h.reputation.GetActiveAdjustment(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	history, err := h.reputation.ListAdjustments(r.Context(), userID, 10)
	if err != nil {
		response.InternalError(w)
		return
	}

	view := &UserTrustView{
		UserID:            userID,
		Risk:              profile,
		Reputation:        rep,
		Adjustment:        adj,
		AdjustmentHistory: history,
		Effective:         h.trust.EffectiveRisk(r.Context(), userID),
	}

	// Staff reads of a user's trust record are themselves audited.
	h.service.Audit(r.Context(), GetAdminID(r.Context()), "trust.user_view", "user", userID, "", nil, nil)

	response.OK(w, view)
}

// --- Overrides ---

// OverrideRisk handles POST /admin/trust/risk-overrides
func (h *Handler) OverrideRisk(w http.ResponseWriter, r *http.Request) {
	var req risk.OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	adminID := GetAdminID(r.Context())

	old, err := h.risk.GetProfile(r.Context(), req.UserID)
	if err != nil {
		response.InternalError(w)
		return
	}

	result, err := h.risk.OverrideScore(r.Context(), risk.OverrideInput{
		UserID:   req.UserID,
		NewScore: req.NewScore,
		Reason:   req.Reason,
		AdminID:  adminID,
	})
	if err != nil {
		switch err {
		case risk.ErrScoreOutOfRange:
			response.BadRequest(w, "Score must be between 0 and 1000")
		default:
			response.InternalError(w)
		}
		return
	}

	h.service.Audit(r.Context(), adminID, "trust.risk_override", "user", req.UserID, req.Reason, old, result)

	response.OK(w, result)
}

// OverrideReputation handles POST /admin/trust/reputation-overrides
func (h *Handler) OverrideReputation(w http.ResponseWriter, r *http.Request) {
	var req reputation.OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	adminID := GetAdminID(r.Context())

	old, err := h.reputation.GetReputation(r.Context(), req.UserID)
	if err != nil {
		response.InternalError(w)
		return
	}

	result, err := h.reputation.OverrideScore(r.Context(), reputation.OverrideInput{
		UserID:   req.UserID,
		NewScore: req.NewScore,
		Reason:   req.Reason,
		AdminID:  adminID,
	})
	if err != nil {
		switch err {
		case reputation.ErrScoreOutOfRange:
			response.BadRequest(w, "Score must be between 0 and 100")
		default:
			response.InternalError(w)
		}
		return
	}

	h.service.Audit(r.Context(), adminID, "trust.reputation_override", "user", req.UserID, req.Reason, old, result)

	response.OK(w, result)
}

// ReleaseBookingBlock handles POST /admin/trust/booking-blocks/release
func (h *Handler) ReleaseBookingBlock(w http.ResponseWriter, r *http.Request) {
	var req booking.ReleaseBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	adminID := GetAdminID(r.Context())

	history, err := h.booking.ReleasePermanentBlock(r.Context(), booking.ReleaseInput{
		RequesterID: req.RequesterID,
		TargetID:    req.TargetID,
		AdminID:     adminID,
		Reason:      req.Reason,
	})
	if err != nil {
		switch err {
		case booking.ErrNotBlocked:
			response.Conflict(w, "Pair is not permanently blocked")
		default:
			response.InternalError(w)
		}
		return
	}

	h.service.Audit(r.Context(), adminID, "trust.block_release", "booking_pair", req.RequesterID, req.Reason, nil, history)

	response.OK(w, &BlockReleaseResponse{History: history})
}

// --- Location checks ---

// LocationChecks handles GET /admin/trust/location-checks
func (h *Handler) LocationChecks(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		response.BadRequest(w, "Invalid or missing user_id")
		return
	}

	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	items, err := h.location.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, &LocationChecksResponse{Items: items})
}

// LocationCheckByID handles GET /admin/trust/location-checks/{id}
func (h *Handler) LocationCheckByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid check ID")
		return
	}

	check, err := h.location.GetByID(r.Context(), id)
	if err != nil {
		response.InternalError(w)
		return
	}
	if check == nil {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "No safety check with that ID")
		return
	}

	response.OK(w, check)
}

// --- Audit logs ---

// AuditLogs handles GET /admin/trust/audit
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	filter := AuditFilter{
		Limit:  limit,
		Offset: offset,
	}

	if action := r.URL.Query().Get("action"); action != "" {
		filter.Action = &action
	}
	if entityType := r.URL.Query().Get("entity_type"); entityType != "" {
		filter.EntityType = &entityType
	}
	if adminID := r.URL.Query().Get("admin_id"); adminID != "" {
		id, err := uuid.Parse(adminID)
		if err != nil {
			response.BadRequest(w, "Invalid admin_id")
			return
		}
		filter.AdminID = &id
	}

	logs, total, err := h.service.ListAuditLogs(r.Context(), filter)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, &AuditListResponse{
		Items: logs,
		Total: total,
	})
}
