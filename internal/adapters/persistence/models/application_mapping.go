package models

import (
	"e-nagarpalika-portal/internal/core/workflow"
)

// NewApplicationRow converts a workflow application into its table row
func NewApplicationRow(app *workflow.Application) *Application {
	assistant := app.Stage(workflow.StageITAssistant)
	officer := app.Stage(workflow.StageITOfficer)
	head := app.Stage(workflow.StageITHead)

	return &Application{
		ID:              app.ID,
		TicketNo:        app.TicketNo,
		NatureOfRequest: datatypesSlice(app.Request.NatureOfRequest),
		SourceSystem:    datatypesSlice(app.Request.SourceSystem),
		ULBCode:         app.Request.ULBCode,
		EmployeeName:    app.Request.EmployeeName,
		EmployeeCode:    app.Request.EmployeeCode,
		Designation:     app.Request.Designation,
		Mobile:          app.Request.Mobile,
		Email:           app.Request.Email,
		Section:         app.Request.Section,
		TCodeList:       app.Request.TCodeList,
		UserID:          app.FiledBy,

		Status:         string(app.Status),
		CurrentLevel:   string(app.CurrentLevel),
		PreviousLevels: rolesToStrings(app.PreviousLevels),

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

// ToDomain converts the row back into a workflow application
func (a *Application) ToDomain() *workflow.Application {
	return &workflow.Application{
		ID:             a.ID,
		TicketNo:       a.TicketNo,
		Status:         workflow.Status(a.Status),
		CurrentLevel:   workflow.Stage(a.CurrentLevel),
		PreviousLevels: stringsToRoles(a.PreviousLevels),
		Stages: map[workflow.Stage]workflow.StageRecord{
			workflow.StageITAssistant: {Approved: a.ITAssistantApproved, ApprovedBy: a.ITAssistantApprovedBy, RejectedBy: a.ITAssistantRejectedBy},
			workflow.StageITOfficer:   {Approved: a.ITOfficerApproved, ApprovedBy: a.ITOfficerApprovedBy, RejectedBy: a.ITOfficerRejectedBy},
			workflow.StageITHead:      {Approved: a.ITHeadApproved, ApprovedBy: a.ITHeadApprovedBy, RejectedBy: a.ITHeadRejectedBy},
		},
		Remarks:       a.Remarks,
		StatusMessage: a.StatusMessage,
		Request: workflow.RequestDetails{
			NatureOfRequest: append([]string{}, a.NatureOfRequest...),
			SourceSystem:    append([]string{}, a.SourceSystem...),
			ULBCode:         a.ULBCode,
			EmployeeName:    a.EmployeeName,
			EmployeeCode:    a.EmployeeCode,
			Designation:     a.Designation,
			Mobile:          a.Mobile,
			Email:           a.Email,
			Section:         a.Section,
			TCodeList:       a.TCodeList,
		},
		FiledBy:   a.UserID,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// TransitionColumns returns the columns a workflow transition may change,
// keyed by column name.
func (a *Application) TransitionColumns() map[string]interface{} {
	return map[string]interface{}{
		"status":                   a.Status,
		"current_level":            a.CurrentLevel,
		"previous_levels":          a.PreviousLevels,
		"it_assistant_approved":    a.ITAssistantApproved,
		"it_assistant_approved_by": a.ITAssistantApprovedBy,
		"it_assistant_rejected_by": a.ITAssistantRejectedBy,
		"it_officer_approved":      a.ITOfficerApproved,
		"it_officer_approved_by":   a.ITOfficerApprovedBy,
		"it_officer_rejected_by":   a.ITOfficerRejectedBy,
		"it_head_approved":         a.ITHeadApproved,
		"it_head_approved_by":      a.ITHeadApprovedBy,
		"it_head_rejected_by":      a.ITHeadRejectedBy,
		"remarks":                  a.Remarks,
		"status_message":           a.StatusMessage,
		"version":                  a.Version,
		"updated_at":               a.UpdatedAt,
	}
}

func datatypesSlice(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func rolesToStrings(roles []workflow.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func stringsToRoles(in []string) []workflow.Role {
	out := make([]workflow.Role, len(in))
	for i, s := range in {
		out[i] = workflow.Role(s)
	}
	return out
}
