package leave

import (
	"time"

	"go-timeoff/internal/leavepolicy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Leave struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID `gorm:"type:uuid;not null;index:idx_leaves_company_status;uniqueIndex:uq_leaves_request_number"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;index:idx_leaves_employee_dates"`
	RequestNumber string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_leaves_request_number"`

	LeaveType   leavepolicy.LeaveType `gorm:"type:varchar(20);not null"`
	StartDate   time.Time             `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	EndDate     time.Time             `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	TotalDays   int                   `gorm:"type:int;not null;default:1"`
	LeaveAmount int                   `gorm:"type:int;not null;default:0"` // jam, TotalDays * 8
	Reason      string                `gorm:"type:text"`

	Status          leavepolicy.LeaveStatus `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leaves_company_status"`
	CreatedBy       uuid.UUID               `gorm:"type:uuid;not null"`
	DecidedBy       *uuid.UUID              `gorm:"type:uuid"`
	DecidedAt       *time.Time
	RejectionReason *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index:idx_leaves_deleted_at"`
}
