package services

import (
	"context"

	"e-nagarpalika-portal/internal/core/workflow"
)

// Sender delivers one email. Implemented by mailer.Mailer.
type Sender interface {
	Enabled() bool
	Send(ctx context.Context, to, subject, body string) error
}

// Notifier delivers workflow notifications after a change is committed.
// A returned error never undoes the change.
type Notifier interface {
	Notify(ctx context.Context, n workflow.Notification) error
}

// IdentityProvider resolves credentials and tokens into workflow actors
type IdentityProvider interface {
	Verify(accessToken string) (workflow.Actor, error)
}

var (
	_ IdentityProvider = (*AuthService)(nil)
	_ Notifier         = (*NotificationService)(nil)
)
