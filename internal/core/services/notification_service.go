package services

import (
	"context"
	"fmt"
	"time"

	"e-nagarpalika-portal/internal/adapters/persistence/models"
	"e-nagarpalika-portal/internal/adapters/persistence/repositories"
	"e-nagarpalika-portal/internal/core/workflow"
	"e-nagarpalika-portal/internal/pkg/logger"
	"e-nagarpalika-portal/internal/pkg/metrics"
)

// NotificationService sends workflow emails and parks failed ones in the outbox
type NotificationService struct {
	sender      Sender
	outbox      repositories.OutboxRepository
	maxAttempts int
	batchSize   int
	now         func() time.Time
}

// NewNotificationService creates a new notification service. outbox may be nil,
// in which case failed sends are only logged.
func NewNotificationService(sender Sender, outbox repositories.OutboxRepository, maxAttempts, batchSize int) *NotificationService {
	if maxAttempts < 1 {
		maxAttempts = 5
	}
	if batchSize < 1 {
		batchSize = 50
	}
	return &NotificationService{
		sender:      sender,
		outbox:      outbox,
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
		now:         time.Now,
	}
}

// IsEnabled checks if email delivery is configured
func (s *NotificationService) IsEnabled() bool {
	return s.sender != nil && s.sender.Enabled()
}

// Notify sends n once. On failure the message is queued for the retry job and
// a notifier error is returned for the caller to log.
func (s *NotificationService) Notify(ctx context.Context, n workflow.Notification) error {
	log := logger.With("notify")

	if n.To == "" {
		log.Debug().Str("subject", n.Subject).Msg("notification without recipient dropped")
		return nil
	}
	if !s.IsEnabled() {
		log.Debug().Str("to", n.To).Str("subject", n.Subject).Msg("email disabled, notification skipped")
		return nil
	}

	err := s.sender.Send(ctx, n.To, n.Subject, n.Body)
	if err == nil {
		metrics.RecordNotification("sent")
		return nil
	}

	log.Warn().Err(err).Str("to", n.To).Str("subject", n.Subject).Msg("email send failed")
	if s.outbox == nil {
		metrics.RecordNotification("failed")
		return workflow.Wrap(workflow.ErrNotifier, err)
	}

	entry := &models.NotificationOutbox{
		Recipient:     n.To,
		Subject:       n.Subject,
		Body:          n.Body,
		Attempts:      1,
		LastError:     err.Error(),
		NextAttemptAt: s.now().Add(backoff(1)),
	}
	if qerr := s.outbox.Enqueue(ctx, entry); qerr != nil {
		log.Error().Err(qerr).Str("to", n.To).Msg("outbox enqueue failed, notification lost")
		metrics.RecordNotification("failed")
		return workflow.Wrap(workflow.ErrNotifier, fmt.Errorf("%v; enqueue: %w", err, qerr))
	}

	metrics.RecordNotification("queued")
	return workflow.Wrap(workflow.ErrNotifier, err)
}

// RetryOutbox re-sends due outbox entries and returns how many were delivered
func (s *NotificationService) RetryOutbox(ctx context.Context) (int, error) {
	if s.outbox == nil || !s.IsEnabled() {
		return 0, nil
	}

	now := s.now()
	entries, err := s.outbox.Due(ctx, now, s.maxAttempts, s.batchSize)
	if err != nil {
		return 0, err
	}

	log := logger.With("outbox")
	delivered := 0
	for _, e := range entries {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}

		if err := s.sender.Send(ctx, e.Recipient, e.Subject, e.Body); err != nil {
			next := now.Add(backoff(e.Attempts + 1))
			if merr := s.outbox.MarkFailed(ctx, e.ID, err.Error(), next); merr != nil {
				return delivered, merr
			}
			if e.Attempts+1 >= s.maxAttempts {
				log.Error().Err(err).Uint("id", e.ID).Str("to", e.Recipient).Msg("notification abandoned")
				metrics.RecordNotification("failed")
			}
			continue
		}

		if err := s.outbox.MarkDelivered(ctx, e.ID, s.now()); err != nil {
			return delivered, err
		}
		delivered++
		metrics.RecordNotification("retried")
	}
	return delivered, nil
}

// backoff doubles from one minute per attempt, capped at one hour
func backoff(attempt int) time.Duration {
	if attempt < 1 {
		return time.Minute
	}
	if attempt > 7 {
		return time.Hour
	}
	d := time.Minute << (attempt - 1)
	if d > time.Hour {
		return time.Hour
	}
	return d
}
