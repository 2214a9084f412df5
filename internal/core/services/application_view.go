package services

import (
	"time"

	"e-nagarpalika-portal/internal/core/workflow"
)

// ApplicationView is the JSON shape of an application returned to portal users
type ApplicationView struct {
	ID       string `json:"id"`
	TicketNo string `json:"ticketNo"`
	workflow.RequestDetails
	UserID string `json:"userId"`

	Status         workflow.Status     `json:"status"`
	CurrentLevel   workflow.Stage      `json:"currentLevel"`
	PreviousLevels []workflow.Role     `json:"previousLevels"`
	FlowStatus     workflow.FlowStatus `json:"flowStatus"`

	ITAssistantApproved   bool   `json:"ITAssistantApproved"`
	ITAssistantApprovedBy string `json:"ITAssistantApprovedBy,omitempty"`
	ITAssistantRejectedBy string `json:"ITAssistantRejectedBy,omitempty"`
	ITOfficerApproved     bool   `json:"ITOfficerApproved"`
	ITOfficerApprovedBy   string `json:"ITOfficerApprovedBy,omitempty"`
	ITOfficerRejectedBy   string `json:"ITOfficerRejectedBy,omitempty"`
	ITHeadApproved        bool   `json:"ITHeadApproved"`
	ITHeadApprovedBy      string `json:"ITHeadApprovedBy,omitempty"`
	ITHeadRejectedBy      string `json:"ITHeadRejectedBy,omitempty"`

	Remarks       string    `json:"remarks,omitempty"`
	StatusMessage string    `json:"statusMessage,omitempty"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewApplicationView projects an application for the API
func NewApplicationView(app *workflow.Application) *ApplicationView {
	assistant := app.Stage(workflow.StageITAssistant)
	officer := app.Stage(workflow.StageITOfficer)
	head := app.Stage(workflow.StageITHead)

	return &ApplicationView{
		ID:             app.ID,
		TicketNo:       app.TicketNo,
		RequestDetails: app.Request,
		UserID:         app.FiledBy,
		Status:         app.Status,
		CurrentLevel:   app.CurrentLevel,
		PreviousLevels: app.PreviousLevels,
		FlowStatus:     workflow.DeriveFlowStatus(*app),

		ITAssistantApproved:   assistant.Approved,
		ITAssistantApprovedBy: assistant.ApprovedBy,
		ITAssistantRejectedBy: assistant.RejectedBy,
		ITOfficerApproved:     officer.Approved,
		ITOfficerApprovedBy:   officer.ApprovedBy,
		ITOfficerRejectedBy:   officer.RejectedBy,
		ITHeadApproved:        head.Approved,
		ITHeadApprovedBy:      head.ApprovedBy,
		ITHeadRejectedBy:      head.RejectedBy,

		Remarks:       app.Remarks,
		StatusMessage: app.StatusMessage,
		Version:       app.Version,
		CreatedAt:     app.CreatedAt,
		UpdatedAt:     app.UpdatedAt,
	}
}
