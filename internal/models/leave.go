// internal/models/leave.go
package models

import "time"

type Leave struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"not null;index" json:"username"`
	OriginalText string    `gorm:"not null" json:"original_text"`
	StartAt      time.Time `gorm:"not null" json:"start_at"`
	EndAt        time.Time `gorm:"not null" json:"end_at"`
	Duration     string    `json:"duration"`
	Type         string    `gorm:"type:varchar(20);not null" json:"type"` // WFH, RUNNING_LATE, SICK, VACATION, OTHER
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Leave) TableName() string {
	return "leaves"
}

const (
	LeaveTypeWFH         = "WFH"
	LeaveTypeRunningLate = "RUNNING_LATE"
	LeaveTypeSick        = "SICK"
	LeaveTypeVacation    = "VACATION"
	LeaveTypeOther       = "OTHER"
)

// IsValidLeaveType проверяет, входит ли тип в закрытый перечень
func IsValidLeaveType(t string) bool {
	switch t {
	case LeaveTypeWFH, LeaveTypeRunningLate, LeaveTypeSick, LeaveTypeVacation, LeaveTypeOther:
		return true
	}
	return false
}
