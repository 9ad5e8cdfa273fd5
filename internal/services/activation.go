package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-chat-relay/internal/domain"
	"github.com/tbourn/go-chat-relay/internal/repo"
)

// ActivationRegistry tracks which WhatsApp contacts have an open learning
// session. Lookups fail open to inactive: a contact whose status cannot be
// read is treated as if it never started a session.
type ActivationRegistry struct {
	DB *gorm.DB
}

// NewActivationRegistry returns a registry backed by db.
func NewActivationRegistry(db *gorm.DB) *ActivationRegistry {
	return &ActivationRegistry{DB: db}
}

// GetStatus returns domain.StatusActive or domain.StatusInactive.
func (r *ActivationRegistry) GetStatus(ctx context.Context, phone string) string {
	u, err := repo.GetWhatsAppUser(ctx, r.DB, phone)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			zerolog.Ctx(ctx).Error().Err(err).Msg("activation lookup failed")
		}
		return domain.StatusInactive
	}
	if u.Status == domain.StatusActive {
		return domain.StatusActive
	}
	return domain.StatusInactive
}

// SetStatus upserts status, name and last-updated time for a contact and
// reports whether the write succeeded.
func (r *ActivationRegistry) SetStatus(ctx context.Context, phone, status, name string) bool {
	if err := repo.UpsertWhatsAppUser(ctx, r.DB, phone, status, name); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("status", status).Msg("activation update failed")
		return false
	}
	return true
}
