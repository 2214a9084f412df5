package services

import (
	"context"
	"time"

	"e-nagarpalika-portal/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// TokenCleaner removes expired refresh tokens
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// CronService runs the background jobs: notification outbox retry and
// refresh token cleanup. Workflow transitions are never retried here.
type CronService struct {
	cron     *cron.Cron
	notifier *NotificationService
	tokens   TokenCleaner
	schedule string
	timeout  time.Duration
}

// NewCronService creates the scheduler. schedule drives the outbox job and
// accepts cron specs or descriptors such as "@every 5m".
func NewCronService(notifier *NotificationService, tokens TokenCleaner, schedule string) *CronService {
	if schedule == "" {
		schedule = "@every 5m"
	}
	return &CronService{
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{}))),
		notifier: notifier,
		tokens:   tokens,
		schedule: schedule,
		timeout:  2 * time.Minute,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.RetryOutbox); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", s.CleanupTokens); err != nil {
		return err
	}
	s.cron.Start()

	logger.With("cron").Info().Str("outbox_schedule", s.schedule).Msg("cron service started")
	return nil
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	logger.With("cron").Info().Msg("cron service stopped")
}

// RetryOutbox is the outbox job
func (s *CronService) RetryOutbox() {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.notifier.RetryOutbox(ctx)
	log := logger.With("cron")
	if err != nil {
		log.Error().Err(err).Msg("outbox retry failed")
		return
	}
	if n > 0 {
		log.Info().Int("delivered", n).Msg("outbox retry delivered notifications")
	}
}

// CleanupTokens is the refresh token cleanup job
func (s *CronService) CleanupTokens() {
	if s.tokens == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.tokens.CleanupExpiredTokens(ctx)
	log := logger.With("cron")
	if err != nil {
		log.Error().Err(err).Msg("refresh token cleanup failed")
		return
	}
	log.Debug().Int64("deleted", n).Msg("refresh token cleanup done")
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.With("cron").Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.With("cron").Error().Err(err).Fields(keysAndValues).Msg(msg)
}
