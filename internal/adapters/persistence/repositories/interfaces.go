package repositories

import (
	"context"
	"time"

	"e-nagarpalika-portal/internal/adapters/persistence/models"
	"e-nagarpalika-portal/internal/core/workflow"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// ApplicationRepository is the application document store.
//
// Every method returns workflow errors: ErrNotFound for a missing document,
// ErrConcurrentModification when a conditional update loses, and ErrStore
// wrapping any driver failure.
type ApplicationRepository interface {
	Create(ctx context.Context, app *workflow.Application) error
	FindByID(ctx context.Context, id string) (*workflow.Application, error)
	// FindByTicketOrEmail returns the newest application whose ticket number or
	// contact email equals query.
	FindByTicketOrEmail(ctx context.Context, query string) (*workflow.Application, error)
	// FindMany returns one page, newest first, and the total match count.
	// A limit <= 0 returns every match.
	FindMany(ctx context.Context, filter workflow.Filter, offset, limit int) ([]*workflow.Application, int64, error)
	Count(ctx context.Context, filter workflow.Filter) (int64, error)
	// ConditionalUpdate writes app only if the stored version still equals
	// expectedVersion, and bumps app.Version on success.
	ConditionalUpdate(ctx context.Context, app *workflow.Application, expectedVersion int64) error
}

// OutboxRepository stores undelivered notifications for retry
type OutboxRepository interface {
	Enqueue(ctx context.Context, entry *models.NotificationOutbox) error
	Due(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*models.NotificationOutbox, error)
	MarkDelivered(ctx context.Context, id uint, at time.Time) error
	MarkFailed(ctx context.Context, id uint, lastErr string, nextAttempt time.Time) error
}
