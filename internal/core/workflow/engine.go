package workflow

import (
	"fmt"
	"strings"
	"time"
)

const (
	SubjectSubmitted     = "Application Submitted"
	SubjectStatusChanged = "Application Status Updated"
)

// TransitionRequest is the caller's requested action. Stage is only read for approvals.
type TransitionRequest struct {
	Action  Action
	Stage   Stage
	Remarks string
}

// Notification is a message to deliver after a committed change.
type Notification struct {
	To      string
	Subject string
	Body    string
}

// Outcome is the result of a legal transition: the state to persist and the
// notification to send once it is committed.
type Outcome struct {
	Application  Application
	Notification Notification
}

// Engine validates and applies transitions. It holds no mutable state and never
// touches the store; persisting an Outcome is the caller's job.
type Engine struct {
	policy *Policy
	now    func() time.Time
}

// NewEngine creates an engine bound to an authorization policy.
func NewEngine(policy *Policy) *Engine {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Engine{policy: policy, now: time.Now}
}

// Policy returns the authorization table the engine enforces.
func (e *Engine) Policy() *Policy {
	return e.policy
}

// Apply checks req against app and actor and returns the next state.
// app itself is left untouched.
func (e *Engine) Apply(app Application, actor Actor, req TransitionRequest) (*Outcome, error) {
	if app.IsTerminal() {
		return nil, Errorf(ErrAlreadyTerminal, "application %s is already %s", app.TicketNo, app.Status)
	}
	if actor.Identity == "" {
		return nil, ErrUnauthorizedActor
	}

	next := app.Clone()
	var err error
	switch req.Action {
	case ActionApprove:
		err = e.approve(&next, actor, req.Stage)
	case ActionReject:
		err = e.reject(&next, actor, req.Remarks)
	default:
		err = Errorf(ErrUnknownAction, "unknown action %q", req.Action)
	}
	if err != nil {
		return nil, err
	}

	next.PreviousLevels = append(next.PreviousLevels, actor.Role)
	next.UpdatedAt = e.now()

	return &Outcome{
		Application:  next,
		Notification: statusChanged(next, actor, req),
	}, nil
}

func (e *Engine) approve(app *Application, actor Actor, target Stage) error {
	idx := StageIndex(target)
	if idx < 0 {
		return Errorf(ErrInvalidStage, "invalid approval level %q", target)
	}
	for _, prior := range Stages[:idx] {
		if !app.Stage(prior).Approved {
			return Errorf(ErrPriorStageIncomplete, "%s approval required before %s", prior, target)
		}
	}
	if app.Stage(target).Approved {
		return Errorf(ErrAlreadyApprovedAtStage, "already approved as %s", target)
	}
	if !e.policy.CanApprove(actor.Role, target) {
		return Errorf(ErrUnauthorizedActor, "role %s may not approve at %s", actor.Role, target)
	}

	rec := app.Stage(target)
	rec.Approved = true
	rec.ApprovedBy = actor.Identity
	app.Stages[target] = rec

	// The first approval already marks the application approved; CurrentLevel
	// tells partial from full completion.
	app.Status = StatusApproved
	app.CurrentLevel = NextLevel(target)
	if app.CurrentLevel == Completed {
		app.StatusMessage = "Final Approved by " + string(target)
	} else {
		app.StatusMessage = "Forwarded to " + string(app.CurrentLevel)
	}
	return nil
}

func (e *Engine) reject(app *Application, actor Actor, remarks string) error {
	home, ok := e.policy.HomeStage(actor.Role)
	if !ok {
		return Errorf(ErrUnauthorizedActor, "role %s may not reject applications", actor.Role)
	}
	remarks = strings.TrimSpace(remarks)
	if remarks == "" {
		return ErrMissingRejectionRemarks
	}

	rec := app.Stage(home)
	rec.RejectedBy = actor.Identity
	app.Stages[home] = rec

	app.Status = StatusRejected
	app.CurrentLevel = Completed
	app.Remarks = remarks
	app.StatusMessage = "Rejected by " + string(actor.Role)
	return nil
}

// SubmissionNotice is the acknowledgement sent when an application is filed.
func SubmissionNotice(app Application) Notification {
	return Notification{
		To:      app.Request.Email,
		Subject: SubjectSubmitted,
		Body:    fmt.Sprintf("Your application has been submitted successfully. Your ticket number is: %s", app.TicketNo),
	}
}

func statusChanged(app Application, actor Actor, req TransitionRequest) Notification {
	verb := "approved"
	if req.Action == ActionReject {
		verb = "rejected"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your application (%s) has been %s by %s.", app.TicketNo, verb, actor.Role)
	fmt.Fprintf(&b, " Current status: %s", app.Status)
	if app.CurrentLevel != Completed {
		fmt.Fprintf(&b, ", awaiting %s", app.CurrentLevel)
	}
	b.WriteString(".")
	if remarks := strings.TrimSpace(req.Remarks); remarks != "" {
		fmt.Fprintf(&b, " Remarks: %s", remarks)
	}

	return Notification{
		To:      app.Request.Email,
		Subject: SubjectStatusChanged,
		Body:    b.String(),
	}
}
