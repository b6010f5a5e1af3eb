package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/password"
)

// Service verifies staff identity and keeps the audit trail. Admin
// accounts are provisioned by the platform's central panel; this
// service only reads them, except for the dev seeding path.
type Service struct {
	repo Repository
}

// NewService creates admin service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetAdminByID returns admin by ID
func (s *Service) GetAdminByID(ctx context.Context, id uuid.UUID) (*AdminUser, error) {
	admin, err := s.repo.GetAdminByID(ctx, id)
	if err != nil || admin == nil {
		return nil, ErrAdminNotFound
	}
	return admin, nil
}

// EnsureAdmin creates an admin account if the email is free and returns
// the existing one otherwise. Used by the dev token tool, never exposed
// over HTTP.
func (s *Service) EnsureAdmin(ctx context.Context, email, name, pwd string, role Role) (*AdminUser, error) {
	existing, err := s.repo.GetAdminByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	hash, err := password.Hash(pwd)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	admin := &AdminUser{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         name,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// ListAuditLogs returns audit trail entries
func (s *Service) ListAuditLogs(ctx context.Context, filter AuditFilter) ([]*AuditLog, int, error) {
	return s.repo.ListAuditLogs(ctx, filter)
}

// Audit appends one audit trail entry. The write is best-effort: a
// failed audit insert is logged loudly but never undoes the admin
// action it describes, which already committed.
func (s *Service) Audit(ctx context.Context, adminID uuid.UUID, action, entityType string, entityID uuid.UUID, reason string, oldValue, newValue interface{}) {
	admin, _ := s.repo.GetAdminByID(ctx, adminID)
	email := ""
	if admin != nil {
		email = admin.Email
	}

	oldJSON, _ := json.Marshal(oldValue)
	newJSON, _ := json.Marshal(newValue)

	entry := &AuditLog{
		ID:         uuid.New(),
		AdminID:    uuid.NullUUID{UUID: adminID, Valid: adminID != uuid.Nil},
		AdminEmail: email,
		Action:     action,
		EntityType: entityType,
		EntityID:   uuid.NullUUID{UUID: entityID, Valid: entityID != uuid.Nil},
		OldValue:   oldJSON,
		NewValue:   newJSON,
		Reason:     sql.NullString{String: reason, Valid: reason != ""},
		CreatedAt:  time.Now(),
	}

	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("action", action).
			Str("admin_id", adminID.String()).
			Msg("Failed to write admin audit entry")
	}
}
