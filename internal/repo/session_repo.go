// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Session model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-chat-relay/internal/domain"
)

// EnsureSession inserts the session row if it is missing. Existing rows are
// left untouched, so repeated calls are harmless.
func EnsureSession(ctx context.Context, db *gorm.DB, sessionID string) error {
	s := &domain.Session{SessionID: sessionID, CreatedAt: time.Now().UTC()}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(s).Error
}

// GetSession fetches a session by id, or ErrNotFound.
func GetSession(ctx context.Context, db *gorm.DB, sessionID string) (*domain.Session, error) {
	var s domain.Session
	if err := db.WithContext(ctx).Where("session_id = ?", sessionID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
