package balance

import (
	"time"

	"go-timeoff/internal/leavepolicy"

	"github.com/google/uuid"
)

type LeaveBalance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_balances_company"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balance_employee"`

	VacationDaysLeft int `gorm:"type:int;not null;default:0"`
	SickDaysLeft     int `gorm:"type:int;not null;default:0"`
	PersonalDaysLeft int `gorm:"type:int;not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b LeaveBalance) Policy() leavepolicy.Balance {
	return leavepolicy.Balance{
		VacationDaysLeft: b.VacationDaysLeft,
		SickDaysLeft:     b.SickDaysLeft,
		PersonalDaysLeft: b.PersonalDaysLeft,
	}
}
