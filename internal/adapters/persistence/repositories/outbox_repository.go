package repositories

import (
	"context"
	"time"

	"e-nagarpalika-portal/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// outboxRepository implements OutboxRepository on GORM
type outboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new notification outbox repository
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

// Enqueue stores an undelivered notification
func (r *outboxRepository) Enqueue(ctx context.Context, entry *models.NotificationOutbox) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Due lists undelivered entries whose next attempt time has passed
func (r *outboxRepository) Due(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*models.NotificationOutbox, error) {
	var entries []*models.NotificationOutbox
	err := r.db.WithContext(ctx).
		Where("delivered_at IS NULL").
		Where("attempts < ?", maxAttempts).
		Where("next_attempt_at <= ?", now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// MarkDelivered records a successful retry
func (r *outboxRepository) MarkDelivered(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"delivered_at": at,
			"attempts":     gorm.Expr("attempts + 1"),
		}).Error
}

// MarkFailed records a failed retry and schedules the next one
func (r *outboxRepository) MarkFailed(ctx context.Context, id uint, lastErr string, nextAttempt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_error":      lastErr,
			"next_attempt_at": nextAttempt,
			"attempts":        gorm.Expr("attempts + 1"),
		}).Error
}
