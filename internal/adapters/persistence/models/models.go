package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password     string         `gorm:"size:255;not null" json:"-"`
	Role         string         `gorm:"size:20;not null;index" json:"role"`
	EmployeeName string         `gorm:"size:150" json:"employee_name"`
	EmployeeCode string         `gorm:"size:50" json:"employee_code"`
	Designation  string         `gorm:"size:100" json:"designation"`
	Mobile       string         `gorm:"size:20" json:"mobile"`
	Email        string         `gorm:"size:100" json:"email"`
	ULBCode      string         `gorm:"column:ulb_code;size:20" json:"ulb_code"`
	Section      string         `gorm:"size:100" json:"section"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	EmployeeName string `json:"employee_name,omitempty"`
	EmployeeCode string `json:"employee_code,omitempty"`
	Designation  string `json:"designation,omitempty"`
	Mobile       string `json:"mobile,omitempty"`
	Email        string `json:"email,omitempty"`
	ULBCode      string `json:"ulb_code,omitempty"`
	Section      string `json:"section,omitempty"`
	IsActive     bool   `json:"is_active"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Role:         u.Role,
		EmployeeName: u.EmployeeName,
		EmployeeCode: u.EmployeeCode,
		Designation:  u.Designation,
		Mobile:       u.Mobile,
		Email:        u.Email,
		ULBCode:      u.ULBCode,
		Section:      u.Section,
		IsActive:     u.IsActive,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Workflow Tables
// ============================================================

// Application represents applications table.
// One column group per approver stage; the stage set is fixed.
type Application struct {
	ID              string                      `gorm:"primaryKey;size:36" json:"id"`
	TicketNo        string                      `gorm:"uniqueIndex;size:40;not null" json:"ticket_no"`
	NatureOfRequest datatypes.JSONSlice[string] `gorm:"type:json" json:"nature_of_request"`
	SourceSystem    datatypes.JSONSlice[string] `gorm:"type:json" json:"source_system"`
	ULBCode         string                      `gorm:"column:ulb_code;size:20" json:"ulb_code"`
	EmployeeName    string                      `gorm:"size:150" json:"employee_name"`
	EmployeeCode    string                      `gorm:"size:50" json:"employee_code"`
	Designation     string                      `gorm:"size:100" json:"designation"`
	Mobile          string                      `gorm:"size:20" json:"mobile"`
	Email           string                      `gorm:"size:100;index" json:"email"`
	Section         string                      `gorm:"size:100" json:"section"`
	TCodeList       string                      `gorm:"column:tcode_list;type:text" json:"tcode_list"`
	UserID          string                      `gorm:"column:user_id;size:100;index" json:"user_id"`

	Status         string                      `gorm:"size:20;not null;index;default:'pending'" json:"status"`
	CurrentLevel   string                      `gorm:"size:20;not null;index" json:"current_level"`
	PreviousLevels datatypes.JSONSlice[string] `gorm:"type:json" json:"previous_levels"`

	ITAssistantApproved   bool   `gorm:"column:it_assistant_approved;default:false" json:"it_assistant_approved"`
	ITAssistantApprovedBy string `gorm:"column:it_assistant_approved_by;size:100" json:"it_assistant_approved_by"`
	ITAssistantRejectedBy string `gorm:"column:it_assistant_rejected_by;size:100" json:"it_assistant_rejected_by"`
	ITOfficerApproved     bool   `gorm:"column:it_officer_approved;default:false" json:"it_officer_approved"`
	ITOfficerApprovedBy   string `gorm:"column:it_officer_approved_by;size:100" json:"it_officer_approved_by"`
	ITOfficerRejectedBy   string `gorm:"column:it_officer_rejected_by;size:100" json:"it_officer_rejected_by"`
	ITHeadApproved        bool   `gorm:"column:it_head_approved;default:false" json:"it_head_approved"`
	ITHeadApprovedBy      string `gorm:"column:it_head_approved_by;size:100" json:"it_head_approved_by"`
	ITHeadRejectedBy      string `gorm:"column:it_head_rejected_by;size:100" json:"it_head_rejected_by"`

	Remarks       string    `gorm:"type:text" json:"remarks"`
	StatusMessage string    `gorm:"size:255" json:"status_message"`
	Version       int64     `gorm:"not null;default:0" json:"version"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Application) TableName() string {
	return "applications"
}

// NotificationOutbox holds emails whose first delivery failed
type NotificationOutbox struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Recipient     string     `gorm:"size:100;not null" json:"recipient"`
	Subject       string     `gorm:"size:255;not null" json:"subject"`
	Body          string     `gorm:"type:text" json:"body"`
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`
	LastError     string     `gorm:"type:text" json:"last_error"`
	NextAttemptAt time.Time  `gorm:"index" json:"next_attempt_at"`
	DeliveredAt   *time.Time `gorm:"index" json:"delivered_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (NotificationOutbox) TableName() string {
	return "notification_outbox"
}

// AutoMigrate creates or updates every table owned by the portal
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Application{},
		&NotificationOutbox{},
	)
}
