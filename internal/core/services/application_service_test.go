package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"e-nagarpalika-portal/internal/core/workflow"
	"e-nagarpalika-portal/internal/pkg/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	employee  = workflow.Actor{Identity: "emp001", Role: workflow.RoleEmployee}
	clerk     = workflow.Actor{Identity: "clerk007", Role: workflow.RoleClerk}
	assistant = workflow.Actor{Identity: "it.assistant", Role: workflow.RoleITAssistant}
	officer   = workflow.Actor{Identity: "it.officer", Role: workflow.RoleITOfficer}
	head      = workflow.Actor{Identity: "it.head", Role: workflow.RoleITHead}
)

func newTestService(t *testing.T) (*ApplicationService, *memoryRepo, *recordingNotifier) {
	t.Helper()
	repo := newMemoryRepo()
	notifier := &recordingNotifier{}
	svc := NewApplicationService(repo, workflow.NewEngine(nil), notifier)
	return svc, repo, notifier
}

func validInput() *SubmitInput {
	return &SubmitInput{
		NatureOfRequest: []string{"New User ID"},
		SourceSystem:    []string{"SAP", " "},
		ULBCode:         "ULB042",
		EmployeeName:    " Asha Patil ",
		EmployeeCode:    "E-1042",
		Email:           "Asha@Example.com",
		TCodeList:       "ME21N, MIGO",
	}
}

func submit(t *testing.T, svc *ApplicationService, actor workflow.Actor) *SubmitResult {
	t.Helper()
	res, err := svc.Submit(context.Background(), actor, validInput())
	require.NoError(t, err)
	return res
}

func decide(t *testing.T, svc *ApplicationService, actor workflow.Actor, id, action, level, remarks string) *ApplicationView {
	t.Helper()
	view, err := svc.Transition(context.Background(), actor, id, &TransitionInput{Action: action, Level: level, Remarks: remarks})
	require.NoError(t, err)
	return view
}

func TestSubmit(t *testing.T) {
	svc, repo, notifier := newTestService(t)

	res := submit(t, svc, employee)

	assert.Regexp(t, regexp.MustCompile(`^TICKET-\d+-[0-9A-F]{6}$`), res.TicketNo)
	stored := repo.get(res.ID)
	assert.Equal(t, workflow.StatusPending, stored.Status)
	assert.Equal(t, workflow.StageITAssistant, stored.CurrentLevel)
	assert.Equal(t, "emp001", stored.FiledBy)
	assert.Equal(t, []string{"SAP"}, stored.Request.SourceSystem)
	assert.Equal(t, "Asha Patil", stored.Request.EmployeeName)
	assert.Equal(t, "asha@example.com", stored.Request.Email)

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, workflow.SubjectSubmitted, sent[0].Subject)
	assert.Contains(t, sent[0].Body, res.TicketNo)
}

func TestSubmit_Rejections(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), workflow.Actor{}, validInput())
	assert.ErrorIs(t, err, workflow.ErrUnauthorizedActor)

	in := validInput()
	in.Email = "not-an-email"
	in.NatureOfRequest = nil
	_, err = svc.Submit(context.Background(), employee, in)
	assert.ErrorIs(t, err, workflow.ErrInvalidRequest)
	assert.Equal(t, workflow.KindValidation, workflow.KindOf(err))

	in = validInput()
	in.NatureOfRequest = []string{"  "}
	in.SourceSystem = []string{" "}
	_, err = svc.Submit(context.Background(), employee, in)
	assert.ErrorIs(t, err, workflow.ErrInvalidRequest)

	in = validInput()
	in.EmployeeName = "   "
	_, err = svc.Submit(context.Background(), employee, in)
	assert.ErrorIs(t, err, workflow.ErrInvalidRequest)
}

func TestTransition_FullChain(t *testing.T) {
	svc, repo, notifier := newTestService(t)
	res := submit(t, svc, employee)

	v := decide(t, svc, assistant, res.ID, "approve", "ITAssistant", "")
	assert.Equal(t, workflow.StatusApproved, v.Status)
	assert.Equal(t, workflow.StageITOfficer, v.CurrentLevel)
	assert.Equal(t, "Forwarded to ITOfficer", v.StatusMessage)
	assert.Equal(t, int64(1), v.Version)

	decide(t, svc, officer, res.ID, "approve", "ITOfficer", "")
	v = decide(t, svc, head, res.ID, "approve", "ITHead", "")

	assert.Equal(t, workflow.Completed, v.CurrentLevel)
	assert.Equal(t, "Final Approved by ITHead", v.StatusMessage)
	assert.Equal(t, workflow.FlowStatus{
		workflow.StageITAssistant: workflow.FlowApproved,
		workflow.StageITOfficer:   workflow.FlowApproved,
		workflow.StageITHead:      workflow.FlowApproved,
	}, v.FlowStatus)
	assert.Equal(t, int64(3), repo.get(res.ID).Version)

	// submission + three decisions
	assert.Len(t, notifier.all(), 4)

	_, err := svc.Transition(context.Background(), head, res.ID, &TransitionInput{Action: "reject", Remarks: "late"})
	assert.ErrorIs(t, err, workflow.ErrAlreadyTerminal)
}

func TestTransition_RejectNeedsRemarks(t *testing.T) {
	svc, repo, _ := newTestService(t)
	res := submit(t, svc, employee)

	_, err := svc.Transition(context.Background(), assistant, res.ID, &TransitionInput{Action: "reject", Remarks: "  "})
	assert.ErrorIs(t, err, workflow.ErrMissingRejectionRemarks)
	assert.Equal(t, int64(0), repo.get(res.ID).Version)

	v := decide(t, svc, assistant, res.ID, "reject", "", "incomplete form")
	assert.Equal(t, workflow.StatusRejected, v.Status)
	assert.Equal(t, "it.assistant", v.ITAssistantRejectedBy)
	assert.Equal(t, "incomplete form", v.Remarks)
}

func TestTransition_StoreErrorsPassThrough(t *testing.T) {
	svc, _, notifier := newTestService(t)

	_, err := svc.Transition(context.Background(), assistant, "missing", &TransitionInput{Action: "approve", Level: "ITAssistant"})
	assert.ErrorIs(t, err, workflow.ErrNotFound)
	assert.Empty(t, notifier.all())
}

func TestTransition_NotifierFailureDoesNotFailCommit(t *testing.T) {
	svc, repo, notifier := newTestService(t)
	res := submit(t, svc, employee)
	notifier.err = workflow.Wrap(workflow.ErrNotifier, errors.New("smtp down"))

	v, err := svc.Transition(context.Background(), assistant, res.ID, &TransitionInput{Action: "approve", Level: "ITAssistant"})
	require.NoError(t, err)
	assert.Equal(t, workflow.StageITOfficer, v.CurrentLevel)
	assert.Equal(t, workflow.StageITOfficer, repo.get(res.ID).CurrentLevel)
}

func TestTransition_ConcurrentApprovalsCommitOnce(t *testing.T) {
	svc, repo, notifier := newTestService(t)
	res := submit(t, svc, employee)

	// both callers read version 0 before either writes
	var ready sync.WaitGroup
	ready.Add(2)
	release := make(chan struct{})
	repo.beforeRead = func() {
		ready.Done()
		<-release
	}
	go func() {
		ready.Wait()
		close(release)
	}()

	errs := make([]error, 2)
	var done sync.WaitGroup
	for i := range errs {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			_, errs[i] = svc.Transition(context.Background(), assistant, res.ID, &TransitionInput{Action: "approve", Level: "ITAssistant"})
		}(i)
	}
	done.Wait()
	repo.beforeRead = nil

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, workflow.ErrConcurrentModification):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	stored := repo.get(res.ID)
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, []workflow.Role{workflow.RoleITAssistant}, stored.PreviousLevels)
	// submission + the one committed decision
	assert.Len(t, notifier.all(), 2)
}

func TestList_Buckets(t *testing.T) {
	svc, _, _ := newTestService(t)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	fresh := submit(t, svc, employee)
	atOfficer := submit(t, svc, employee)
	decide(t, svc, assistant, atOfficer.ID, "approve", "ITAssistant", "")
	rejected := submit(t, svc, clerk)
	decide(t, svc, assistant, rejected.ID, "reject", "", "duplicate")

	ids := func(views []*ApplicationView) []string {
		out := make([]string, len(views))
		for i, v := range views {
			out[i] = v.ID
		}
		return out
	}
	page := pagination.NewParams(1, 10)

	views, total, err := svc.List(context.Background(), workflow.Viewer(employee), "", page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []string{atOfficer.ID, fresh.ID}, ids(views))

	views, _, err = svc.List(context.Background(), workflow.Viewer(assistant), "pending", page)
	require.NoError(t, err)
	assert.Equal(t, []string{fresh.ID}, ids(views))

	views, _, err = svc.List(context.Background(), workflow.Viewer(officer), "partially-approved", page)
	require.NoError(t, err)
	assert.Equal(t, []string{atOfficer.ID}, ids(views))

	views, _, err = svc.List(context.Background(), workflow.Viewer(clerk), "rejected", page)
	require.NoError(t, err)
	assert.Equal(t, []string{rejected.ID}, ids(views))

	_, _, err = svc.List(context.Background(), workflow.Viewer(officer), "archived", page)
	assert.ErrorIs(t, err, workflow.ErrUnknownBucket)
}

func TestGet_RequesterOwnership(t *testing.T) {
	svc, _, _ := newTestService(t)
	res := submit(t, svc, employee)

	v, err := svc.Get(context.Background(), employee, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.TicketNo, v.TicketNo)

	_, err = svc.Get(context.Background(), clerk, res.ID)
	assert.ErrorIs(t, err, workflow.ErrUnauthorizedActor)

	_, err = svc.Get(context.Background(), officer, res.ID)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), workflow.Actor{Identity: "x", Role: "Auditor"}, res.ID)
	assert.ErrorIs(t, err, workflow.ErrUnauthorizedActor)
}

func TestTrack(t *testing.T) {
	svc, _, _ := newTestService(t)
	res := submit(t, svc, employee)

	v, err := svc.Track(context.Background(), res.TicketNo)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPending, v.Status)
	assert.Equal(t, "Asha Patil", v.EmployeeName)

	v, err = svc.Track(context.Background(), " ASHA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, res.TicketNo, v.TicketNo)

	_, err = svc.Track(context.Background(), "")
	assert.ErrorIs(t, err, workflow.ErrInvalidRequest)

	_, err = svc.Track(context.Background(), "TICKET-0")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}
