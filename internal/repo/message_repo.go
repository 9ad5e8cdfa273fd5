// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-chat-relay/internal/domain"
)

// AppendMessage stores one turn. The owning session row is created in the
// same transaction when it does not exist yet.
func AppendMessage(ctx context.Context, db *gorm.DB, sessionID, role, content, source string) (*domain.Message, error) {
	m := &domain.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := EnsureSession(ctx, tx, sessionID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(m).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecentMessages returns the newest limit messages of a session, oldest first.
// Rows are picked by (timestamp DESC, id DESC) and then reversed, so equal
// timestamps come back in insertion order.
func RecentMessages(ctx context.Context, db *gorm.DB, sessionID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return []domain.Message{}, nil
	}
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ListMessages returns every message of a session (timestamp ASC, id ASC).
func ListMessages(ctx context.Context, db *gorm.DB, sessionID string) ([]domain.Message, error) {
	out := []domain.Message{}
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC, id ASC").
		Find(&out).Error
	return out, err
}

// DeleteMessages removes all messages of a session and reports how many
// rows went away. The session row itself is kept.
func DeleteMessages(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	res := db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&domain.Message{})
	return res.RowsAffected, res.Error
}

// GetMessage fetches a message by id.
func GetMessage(ctx context.Context, db *gorm.DB, id uint) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
