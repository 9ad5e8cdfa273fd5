// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-chat-relay/internal/domain"
)

// MessagesStats returns the number of messages in a session and the newest
// timestamp among them. When the session has no messages, count is 0 and
// lastAt is nil.
func MessagesStats(ctx context.Context, db *gorm.DB, sessionID string) (count int64, lastAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Message{}).Where("session_id = ?", sessionID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest timestamp (avoid MAX() -> TEXT in SQLite)
	var row struct {
		Timestamp time.Time
	}
	err = db.WithContext(ctx).Model(&domain.Message{}).
		Where("session_id = ?", sessionID).
		Select("timestamp").
		Order("timestamp DESC, id DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return 0, nil, err
	}
	return count, &row.Timestamp, nil
}
