package models

import (
	"time"

	"e-nagarpalika-portal/internal/core/workflow"
)

// ApplicationDocument is the MongoDB shape of an application. Field names follow
// the portal's public JSON so documents read the same in the shell and the API.
type ApplicationDocument struct {
	ID              string   `bson:"_id"`
	TicketNo        string   `bson:"ticketNo"`
	NatureOfRequest []string `bson:"natureOfRequest"`
	SourceSystem    []string `bson:"sourceSystem"`
	ULBCode         string   `bson:"ulbCode,omitempty"`
	EmployeeName    string   `bson:"employeeName,omitempty"`
	EmployeeCode    string   `bson:"employeeCode,omitempty"`
	Designation     string   `bson:"designation,omitempty"`
	Mobile          string   `bson:"mobile,omitempty"`
	Email           string   `bson:"email,omitempty"`
	Section         string   `bson:"section,omitempty"`
	TCodeList       string   `bson:"tcodeList,omitempty"`
	UserID          string   `bson:"userId"`

	Status         string   `bson:"status"`
	CurrentLevel   string   `bson:"currentLevel"`
	PreviousLevels []string `bson:"previousLevels"`

	ITAssistantApproved   bool   `bson:"ITAssistantApproved"`
	ITAssistantApprovedBy string `bson:"ITAssistantApprovedBy,omitempty"`
	ITAssistantRejectedBy string `bson:"ITAssistantRejectedBy,omitempty"`
	ITOfficerApproved     bool   `bson:"ITOfficerApproved"`
	ITOfficerApprovedBy   string `bson:"ITOfficerApprovedBy,omitempty"`
	ITOfficerRejectedBy   string `bson:"ITOfficerRejectedBy,omitempty"`
	ITHeadApproved        bool   `bson:"ITHeadApproved"`
	ITHeadApprovedBy      string `bson:"ITHeadApprovedBy,omitempty"`
	ITHeadRejectedBy      string `bson:"ITHeadRejectedBy,omitempty"`

	Remarks       string    `bson:"remarks,omitempty"`
	StatusMessage string    `bson:"statusMessage,omitempty"`
	Version       int64     `bson:"version"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

// NewApplicationDocument reuses the row mapping so both stores agree on field values
func NewApplicationDocument(app *workflow.Application) *ApplicationDocument {
	row := NewApplicationRow(app)
	return &ApplicationDocument{
		ID:                    row.ID,
		TicketNo:              row.TicketNo,
		NatureOfRequest:       row.NatureOfRequest,
		SourceSystem:          row.SourceSystem,
		ULBCode:               row.ULBCode,
		EmployeeName:          row.EmployeeName,
		EmployeeCode:          row.EmployeeCode,
		Designation:           row.Designation,
		Mobile:                row.Mobile,
		Email:                 row.Email,
		Section:               row.Section,
		TCodeList:             row.TCodeList,
		UserID:                row.UserID,
		Status:                row.Status,
		CurrentLevel:          row.CurrentLevel,
		PreviousLevels:        row.PreviousLevels,
		ITAssistantApproved:   row.ITAssistantApproved,
		ITAssistantApprovedBy: row.ITAssistantApprovedBy,
		ITAssistantRejectedBy: row.ITAssistantRejectedBy,
		ITOfficerApproved:     row.ITOfficerApproved,
		ITOfficerApprovedBy:   row.ITOfficerApprovedBy,
		ITOfficerRejectedBy:   row.ITOfficerRejectedBy,
		ITHeadApproved:        row.ITHeadApproved,
		ITHeadApprovedBy:      row.ITHeadApprovedBy,
		ITHeadRejectedBy:      row.ITHeadRejectedBy,
		Remarks:               row.Remarks,
		StatusMessage:         row.StatusMessage,
		Version:               row.Version,
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
	}
}

// ToDomain converts the document back into a workflow application
func (d *ApplicationDocument) ToDomain() *workflow.Application {
	row := &Application{
		ID:                    d.ID,
		TicketNo:              d.TicketNo,
		NatureOfRequest:       d.NatureOfRequest,
		SourceSystem:          d.SourceSystem,
		ULBCode:               d.ULBCode,
		EmployeeName:          d.EmployeeName,
		EmployeeCode:          d.EmployeeCode,
		Designation:           d.Designation,
		Mobile:                d.Mobile,
		Email:                 d.Email,
		Section:               d.Section,
		TCodeList:             d.TCodeList,
		UserID:                d.UserID,
		Status:                d.Status,
		CurrentLevel:          d.CurrentLevel,
		PreviousLevels:        d.PreviousLevels,
		ITAssistantApproved:   d.ITAssistantApproved,
		ITAssistantApprovedBy: d.ITAssistantApprovedBy,
		ITAssistantRejectedBy: d.ITAssistantRejectedBy,
		ITOfficerApproved:     d.ITOfficerApproved,
		ITOfficerApprovedBy:   d.ITOfficerApprovedBy,
		ITOfficerRejectedBy:   d.ITOfficerRejectedBy,
		ITHeadApproved:        d.ITHeadApproved,
		ITHeadApprovedBy:      d.ITHeadApprovedBy,
		ITHeadRejectedBy:      d.ITHeadRejectedBy,
		Remarks:               d.Remarks,
		StatusMessage:         d.StatusMessage,
		Version:               d.Version,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
	return row.ToDomain()
}
