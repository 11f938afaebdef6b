package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"eshop-backend/internal/model"
)

// ErrDuplicateEvent reports that another delivery already claimed this
// session. Callers treat it as idempotent success, not a failure.
var ErrDuplicateEvent = errors.New("webhook event already processed")

type WebhookEventRepository interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
	// MarkProcessed must run in the same transaction as the order it settles:
	// the row is what makes a redelivery a no-op, so it is only allowed to
	// become visible together with the order.
	MarkProcessed(ctx context.Context, tx *gorm.DB, sessionID, eventID, eventType string) error
}

type webhookEventRepoImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepoImpl{db: db}
}

func (r *webhookEventRepoImpl) Exists(ctx context.Context, sessionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error

	return count > 0, err
}

func (r *webhookEventRepoImpl) MarkProcessed(ctx context.Context, tx *gorm.DB, sessionID, eventID, eventType string) error {
	err := tx.WithContext(ctx).Create(&model.WebhookEvent{
		SessionID:   sessionID,
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now(),
	}).Error

	// Two deliveries racing past the Exists check land here; the primary key
	// decides the winner.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEvent
	}

	return err
}
