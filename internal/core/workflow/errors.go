package workflow

import (
	"errors"
	"fmt"
)

// Kind groups errors by how a caller should react to them.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindWorkflowState Kind = "workflow_state"
	KindConcurrency   Kind = "concurrency"
	KindNotFound      Kind = "not_found"
	KindStore         Kind = "store"
	KindNotifier      Kind = "notifier"
)

// Code identifies a specific failure. Two errors with the same code match under errors.Is.
type Code string

// Error is the typed error returned by the engine, the planner and the store adapters.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so that a detailed error still compares equal to its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrAlreadyTerminal         = &Error{Kind: KindWorkflowState, Code: "ALREADY_TERMINAL", Message: "application workflow is already completed"}
	ErrPriorStageIncomplete    = &Error{Kind: KindWorkflowState, Code: "PRIOR_STAGE_INCOMPLETE", Message: "a prior stage has not been approved"}
	ErrAlreadyApprovedAtStage  = &Error{Kind: KindWorkflowState, Code: "ALREADY_APPROVED_AT_STAGE", Message: "stage is already approved"}
	ErrMissingRejectionRemarks = &Error{Kind: KindWorkflowState, Code: "MISSING_REJECTION_REMARKS", Message: "remarks are required to reject an application"}
	ErrUnauthorizedActor       = &Error{Kind: KindAuthorization, Code: "UNAUTHORIZED_ACTOR", Message: "actor is not authorized for this action"}
	ErrInvalidStage            = &Error{Kind: KindValidation, Code: "INVALID_STAGE", Message: "invalid approval level"}
	ErrUnknownAction           = &Error{Kind: KindValidation, Code: "UNKNOWN_ACTION", Message: "action must be approve or reject"}
	ErrUnknownBucket           = &Error{Kind: KindValidation, Code: "UNKNOWN_BUCKET", Message: "unknown status filter"}
	ErrInvalidRequest          = &Error{Kind: KindValidation, Code: "INVALID_REQUEST", Message: "invalid request"}
	ErrConcurrentModification  = &Error{Kind: KindConcurrency, Code: "CONCURRENT_MODIFICATION", Message: "application was modified concurrently, refetch and retry"}
	ErrNotFound                = &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: "application not found"}
	ErrStore                   = &Error{Kind: KindStore, Code: "STORE_FAILURE", Message: "application store failure"}
	ErrNotifier                = &Error{Kind: KindNotifier, Code: "NOTIFIER_FAILURE", Message: "notification delivery failed"}
)

// Errorf returns a copy of base carrying a more specific message.
func Errorf(base *Error, format string, args ...any) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to a copy of base.
func Wrap(base *Error, cause error) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: base.Message, Err: cause}
}

// KindOf returns the Kind of err, or "" when err is not a workflow error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
