package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"e-nagarpalika-portal/internal/adapters/persistence/repositories"
	"e-nagarpalika-portal/internal/core/workflow"
	"e-nagarpalika-portal/internal/pkg/logger"
	"e-nagarpalika-portal/internal/pkg/metrics"
	"e-nagarpalika-portal/internal/pkg/pagination"
	"e-nagarpalika-portal/internal/pkg/validate"

	"github.com/google/uuid"
)

// ApplicationService runs the approval workflow against the application store
type ApplicationService struct {
	repo     repositories.ApplicationRepository
	engine   *workflow.Engine
	notifier Notifier
	now      func() time.Time
}

// NewApplicationService creates a new application service
func NewApplicationService(repo repositories.ApplicationRepository, engine *workflow.Engine, notifier Notifier) *ApplicationService {
	return &ApplicationService{
		repo:     repo,
		engine:   engine,
		notifier: notifier,
		now:      time.Now,
	}
}

// SubmitInput is the request form filed by an employee or clerk
type SubmitInput struct {
	NatureOfRequest []string `json:"natureOfRequest" validate:"required,min=1"`
	SourceSystem    []string `json:"sourceSystem" validate:"required,min=1"`
	ULBCode         string   `json:"ulbCode" validate:"max=20"`
	EmployeeName    string   `json:"employeeName" validate:"required,max=150"`
	EmployeeCode    string   `json:"employeeCode" validate:"required,max=50"`
	Designation     string   `json:"designation" validate:"max=100"`
	Mobile          string   `json:"mobile" validate:"max=20"`
	Email           string   `json:"email" validate:"required,email"`
	Section         string   `json:"section" validate:"max=100"`
	TCodeList       string   `json:"tcodeList"`
}

// normalized trims every field, drops blank list entries and lowercases the
// email, so validation sees what will be stored
func (in *SubmitInput) normalized() SubmitInput {
	return SubmitInput{
		NatureOfRequest: trimAll(in.NatureOfRequest),
		SourceSystem:    trimAll(in.SourceSystem),
		ULBCode:         strings.TrimSpace(in.ULBCode),
		EmployeeName:    strings.TrimSpace(in.EmployeeName),
		EmployeeCode:    strings.TrimSpace(in.EmployeeCode),
		Designation:     strings.TrimSpace(in.Designation),
		Mobile:          strings.TrimSpace(in.Mobile),
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		Section:         strings.TrimSpace(in.Section),
		TCodeList:       strings.TrimSpace(in.TCodeList),
	}
}

// TransitionInput is an approver's decision on one application
type TransitionInput struct {
	Action  string `json:"action" example:"approve"`
	Level   string `json:"level" example:"ITAssistant"`
	Remarks string `json:"remarks"`
}

// SubmitResult is returned after filing
type SubmitResult struct {
	ID       string `json:"id"`
	TicketNo string `json:"ticketNo"`
}

// Submit files a new application on behalf of actor
func (s *ApplicationService) Submit(ctx context.Context, actor workflow.Actor, input *SubmitInput) (*SubmitResult, error) {
	if actor.Identity == "" {
		return nil, workflow.ErrUnauthorizedActor
	}
	form := input.normalized()
	if err := validate.Struct(&form); err != nil {
		return nil, workflow.Errorf(workflow.ErrInvalidRequest, "%s", err.Error())
	}

	now := s.now()
	app := workflow.NewApplication(uuid.NewString(), NewTicketNo(now), actor.Identity, workflow.RequestDetails{
		NatureOfRequest: form.NatureOfRequest,
		SourceSystem:    form.SourceSystem,
		ULBCode:         form.ULBCode,
		EmployeeName:    form.EmployeeName,
		EmployeeCode:    form.EmployeeCode,
		Designation:     form.Designation,
		Mobile:          form.Mobile,
		Email:           form.Email,
		Section:         form.Section,
		TCodeList:       form.TCodeList,
	}, now)

	if err := s.repo.Create(ctx, &app); err != nil {
		return nil, err
	}
	metrics.RecordSubmission()

	logger.With("applications").Info().
		Str("ticket", app.TicketNo).
		Str("filed_by", actor.Identity).
		Msg("application submitted")

	s.notify(ctx, workflow.SubmissionNotice(app))

	return &SubmitResult{ID: app.ID, TicketNo: app.TicketNo}, nil
}

// List returns the page of applications viewer may see in bucket
func (s *ApplicationService) List(ctx context.Context, viewer workflow.Viewer, bucket string, params *pagination.Params) ([]*ApplicationView, int64, error) {
	b, err := workflow.ParseBucket(bucket)
	if err != nil {
		return nil, 0, err
	}
	filter, err := s.engine.Policy().Plan(viewer, b)
	if err != nil {
		return nil, 0, err
	}

	apps, total, err := s.repo.FindMany(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}

	views := make([]*ApplicationView, len(apps))
	for i, app := range apps {
		views[i] = NewApplicationView(app)
	}
	return views, total, nil
}

// Get returns one application. Requesters may only read their own.
func (s *ApplicationService) Get(ctx context.Context, actor workflow.Actor, id string) (*ApplicationView, error) {
	if actor.Identity == "" {
		return nil, workflow.ErrUnauthorizedActor
	}

	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	policy := s.engine.Policy()
	switch {
	case policy.IsRequester(actor.Role):
		if app.FiledBy != actor.Identity {
			return nil, workflow.Errorf(workflow.ErrUnauthorizedActor, "application %s belongs to another user", app.TicketNo)
		}
	default:
		if _, ok := policy.HomeStage(actor.Role); !ok {
			return nil, workflow.Errorf(workflow.ErrUnauthorizedActor, "role %s may not read applications", actor.Role)
		}
	}
	return NewApplicationView(app), nil
}

// Track looks up the newest application by ticket number or contact email
func (s *ApplicationService) Track(ctx context.Context, query string) (*ApplicationView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, workflow.Errorf(workflow.ErrInvalidRequest, "ticket number or email is required")
	}
	if strings.Contains(query, "@") {
		query = strings.ToLower(query)
	}

	app, err := s.repo.FindByTicketOrEmail(ctx, query)
	if err != nil {
		return nil, err
	}
	return NewApplicationView(app), nil
}

// Transition applies an approve or reject decision. The write is conditional on
// the version that was read, so of two concurrent decisions only one commits.
// The status email is sent after the commit and never fails the call.
func (s *ApplicationService) Transition(ctx context.Context, actor workflow.Actor, id string, input *TransitionInput) (*ApplicationView, error) {
	action := workflow.Action(strings.ToLower(strings.TrimSpace(input.Action)))
	view, err := s.transition(ctx, actor, id, workflow.TransitionRequest{
		Action:  action,
		Stage:   workflow.Stage(strings.TrimSpace(input.Level)),
		Remarks: input.Remarks,
	})
	metrics.RecordTransition(string(action), resultLabel(err))
	return view, err
}

func (s *ApplicationService) transition(ctx context.Context, actor workflow.Actor, id string, req workflow.TransitionRequest) (*ApplicationView, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := s.engine.Apply(*current, actor, req)
	if err != nil {
		return nil, err
	}

	next := out.Application
	if err := s.repo.ConditionalUpdate(ctx, &next, current.Version); err != nil {
		return nil, err
	}

	logger.With("applications").Info().
		Str("ticket", next.TicketNo).
		Str("actor", actor.Identity).
		Str("role", string(actor.Role)).
		Str("action", string(req.Action)).
		Str("status", string(next.Status)).
		Str("level", string(next.CurrentLevel)).
		Msg("application transitioned")

	s.notify(ctx, out.Notification)

	return NewApplicationView(&next), nil
}

// notify delivers n without letting a failure reach the caller
func (s *ApplicationService) notify(ctx context.Context, n workflow.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.With("applications").Warn().Err(err).Str("to", n.To).Str("subject", n.Subject).Msg("notification not delivered")
	}
}

// NewTicketNo builds a ticket number from the submission time and a random suffix
func NewTicketNo(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("TICKET-%d-%s", now.UnixMilli(), strings.ToUpper(suffix))
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := workflow.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}
