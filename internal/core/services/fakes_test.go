package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"e-nagarpalika-portal/internal/adapters/persistence/models"
	"e-nagarpalika-portal/internal/core/workflow"
)

// memoryRepo is an in-memory ApplicationRepository with the same conditional
// update contract as the real stores.
type memoryRepo struct {
	mu   sync.Mutex
	apps map[string]workflow.Application

	// beforeRead, when set, runs inside FindByID after the copy is taken and
	// before it is returned
	beforeRead func()
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{apps: map[string]workflow.Application{}}
}

func (r *memoryRepo) Create(_ context.Context, app *workflow.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[app.ID] = app.Clone()
	return nil
}

func (r *memoryRepo) FindByID(_ context.Context, id string) (*workflow.Application, error) {
	r.mu.Lock()
	app, ok := r.apps[id]
	var c workflow.Application
	if ok {
		c = app.Clone()
	}
	r.mu.Unlock()

	if r.beforeRead != nil {
		r.beforeRead()
	}
	if !ok {
		return nil, workflow.ErrNotFound
	}
	return &c, nil
}

func (r *memoryRepo) FindByTicketOrEmail(_ context.Context, query string) (*workflow.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *workflow.Application
	for _, app := range r.apps {
		if app.TicketNo != query && app.Request.Email != query {
			continue
		}
		if best == nil || app.CreatedAt.After(best.CreatedAt) {
			c := app.Clone()
			best = &c
		}
	}
	if best == nil {
		return nil, workflow.ErrNotFound
	}
	return best, nil
}

func (r *memoryRepo) FindMany(_ context.Context, filter workflow.Filter, offset, limit int) ([]*workflow.Application, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*workflow.Application
	for _, app := range r.apps {
		if filter.Matches(app) {
			c := app.Clone()
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if limit > 0 {
		if offset >= len(out) {
			return []*workflow.Application{}, total, nil
		}
		end := offset + limit
		if end > len(out) {
			end = len(out)
		}
		out = out[offset:end]
	}
	return out, total, nil
}

func (r *memoryRepo) Count(ctx context.Context, filter workflow.Filter) (int64, error) {
	_, total, err := r.FindMany(ctx, filter, 0, 0)
	return total, err
}

func (r *memoryRepo) ConditionalUpdate(_ context.Context, app *workflow.Application, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.apps[app.ID]
	if !ok {
		return workflow.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return workflow.ErrConcurrentModification
	}
	app.Version = expectedVersion + 1
	r.apps[app.ID] = app.Clone()
	return nil
}

func (r *memoryRepo) get(id string) workflow.Application {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apps[id].Clone()
}

// recordingNotifier captures notifications and can be told to fail
type recordingNotifier struct {
	mu   sync.Mutex
	sent []workflow.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg workflow.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *recordingNotifier) all() []workflow.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]workflow.Notification(nil), n.sent...)
}

// fakeSender is a Sender whose failures are scripted per call
type fakeSender struct {
	enabled bool
	fail    int
	calls   int
}

func (s *fakeSender) Enabled() bool { return s.enabled }

func (s *fakeSender) Send(_ context.Context, _, _, _ string) error {
	s.calls++
	if s.calls <= s.fail {
		return errors.New("smtp: connection refused")
	}
	return nil
}

// memoryOutbox is an in-memory OutboxRepository
type memoryOutbox struct {
	entries []*models.NotificationOutbox
}

func (o *memoryOutbox) Enqueue(_ context.Context, e *models.NotificationOutbox) error {
	e.ID = uint(len(o.entries) + 1)
	o.entries = append(o.entries, e)
	return nil
}

func (o *memoryOutbox) Due(_ context.Context, now time.Time, maxAttempts, limit int) ([]*models.NotificationOutbox, error) {
	var out []*models.NotificationOutbox
	for _, e := range o.entries {
		if e.DeliveredAt == nil && e.Attempts < maxAttempts && !e.NextAttemptAt.After(now) {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (o *memoryOutbox) MarkDelivered(_ context.Context, id uint, at time.Time) error {
	e := o.entries[id-1]
	e.DeliveredAt = &at
	e.Attempts++
	return nil
}

func (o *memoryOutbox) MarkFailed(_ context.Context, id uint, lastErr string, next time.Time) error {
	e := o.entries[id-1]
	e.LastError = lastErr
	e.NextAttemptAt = next
	e.Attempts++
	return nil
}
