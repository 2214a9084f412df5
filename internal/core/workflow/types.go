package workflow

import "time"

// Stage is one position in the approval chain. Completed is the terminal
// pseudo-stage reported by CurrentLevel once the chain has ended.
type Stage string

const (
	StageITAssistant Stage = "ITAssistant"
	StageITOfficer   Stage = "ITOfficer"
	StageITHead      Stage = "ITHead"
	Completed        Stage = "Completed"
)

// Stages is the fixed approval order.
var Stages = []Stage{StageITAssistant, StageITOfficer, StageITHead}

// StageIndex returns the position of s in Stages or -1.
func StageIndex(s Stage) int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// IsStage reports whether s is an approver stage (Completed is not).
func IsStage(s Stage) bool {
	return StageIndex(s) >= 0
}

// NextLevel returns the stage after s, or Completed for the last stage.
func NextLevel(s Stage) Stage {
	i := StageIndex(s)
	if i < 0 || i == len(Stages)-1 {
		return Completed
	}
	return Stages[i+1]
}

// LastStage returns the final approver stage.
func LastStage() Stage {
	return Stages[len(Stages)-1]
}

// Status is the persisted application status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Role is the role claim of an authenticated caller.
type Role string

const (
	RoleEmployee    Role = "Employee"
	RoleClerk       Role = "Clerk"
	RoleITAssistant Role = "ITAssistant"
	RoleITOfficer   Role = "ITOfficer"
	RoleITHead      Role = "ITHead"
)

// Action is a requested transition.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Actor is the authenticated caller requesting a transition.
type Actor struct {
	Identity string
	Role     Role
}

// StageRecord holds the per-stage approval and rejection attribution.
type StageRecord struct {
	Approved   bool
	ApprovedBy string
	RejectedBy string
}

// RequestDetails is the submitted form payload. It is never changed by a transition.
type RequestDetails struct {
	NatureOfRequest []string `json:"natureOfRequest"`
	SourceSystem    []string `json:"sourceSystem"`
	ULBCode         string   `json:"ulbCode"`
	EmployeeName    string   `json:"employeeName"`
	EmployeeCode    string   `json:"employeeCode"`
	Designation     string   `json:"designation"`
	Mobile          string   `json:"mobile"`
	Email           string   `json:"email"`
	Section         string   `json:"section"`
	TCodeList       string   `json:"tcodeList"`
}

// Application is a "User ID / Authorization" request moving through the chain.
type Application struct {
	ID             string
	TicketNo       string
	Status         Status
	CurrentLevel   Stage
	PreviousLevels []Role
	Stages         map[Stage]StageRecord
	Remarks        string
	StatusMessage  string
	Request        RequestDetails
	FiledBy        string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewApplication returns a fresh pending application waiting on the first stage.
func NewApplication(id, ticketNo, filedBy string, req RequestDetails, now time.Time) Application {
	stages := make(map[Stage]StageRecord, len(Stages))
	for _, s := range Stages {
		stages[s] = StageRecord{}
	}
	return Application{
		ID:             id,
		TicketNo:       ticketNo,
		Status:         StatusPending,
		CurrentLevel:   Stages[0],
		PreviousLevels: []Role{},
		Stages:         stages,
		Request:        req,
		FiledBy:        filedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Stage returns the record for s; missing entries read as zero.
func (a Application) Stage(s Stage) StageRecord {
	return a.Stages[s]
}

// IsTerminal reports whether no further transition may be applied.
func (a Application) IsTerminal() bool {
	return a.CurrentLevel == Completed || a.Status == StatusRejected
}

// Clone returns a deep copy so callers can mutate it freely.
func (a Application) Clone() Application {
	c := a
	c.PreviousLevels = append([]Role(nil), a.PreviousLevels...)
	c.Stages = make(map[Stage]StageRecord, len(a.Stages))
	for k, v := range a.Stages {
		c.Stages[k] = v
	}
	c.Request.NatureOfRequest = append([]string(nil), a.Request.NatureOfRequest...)
	c.Request.SourceSystem = append([]string(nil), a.Request.SourceSystem...)
	return c
}
