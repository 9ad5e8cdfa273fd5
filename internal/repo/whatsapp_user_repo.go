// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for WhatsApp
// contact activation rows.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-chat-relay/internal/domain"
)

// GetWhatsAppUser fetches a contact row by phone number, or ErrNotFound.
func GetWhatsAppUser(ctx context.Context, db *gorm.DB, phone string) (*domain.WhatsAppUser, error) {
	var u domain.WhatsAppUser
	if err := db.WithContext(ctx).Where("phone_number = ?", phone).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertWhatsAppUser writes status, name and last_updated for a contact,
// replacing any previous row.
func UpsertWhatsAppUser(ctx context.Context, db *gorm.DB, phone, status, name string) error {
	u := &domain.WhatsAppUser{
		PhoneNumber: phone,
		Status:      status,
		Name:        name,
		LastUpdated: time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "name", "last_updated"}),
		}).
		Create(u).Error
}
