// Package leavepolicy holds the time-off rules shared by the leave service and
// the request form: inclusive day spans, request-date policy windows and
// balance projection. Everything here is pure; callers pass the employee's
// balance, the dates and "today" explicitly.
package leavepolicy

import (
	"fmt"
	"strings"
)

type LeaveType string

const (
	LeaveTypeVacation LeaveType = "VACATION"
	LeaveTypeSick     LeaveType = "SICK"
	LeaveTypePersonal LeaveType = "PERSONAL"
)

// AllLeaveTypes returns the leave types in display order.
func AllLeaveTypes() []LeaveType {
	return []LeaveType{LeaveTypeVacation, LeaveTypeSick, LeaveTypePersonal}
}

func ParseLeaveType(v string) (LeaveType, error) {
	switch t := LeaveType(strings.ToUpper(strings.TrimSpace(v))); t {
	case LeaveTypeVacation, LeaveTypeSick, LeaveTypePersonal:
		return t, nil
	default:
		return "", fmt.Errorf("unknown leave type %q", v)
	}
}

func (t LeaveType) Valid() bool {
	_, err := ParseLeaveType(string(t))
	return err == nil
}

type LeaveStatus string

const (
	StatusPending  LeaveStatus = "PENDING"
	StatusApproved LeaveStatus = "APPROVED"
	StatusRejected LeaveStatus = "REJECTED"
)

// HoursPerDay is the standard working day used to express a request as hours.
const HoursPerDay = 8

// LeaveAmount converts an inclusive day span into requested hours. Negative
// spans count as zero.
func LeaveAmount(days int) int {
	if days < 0 {
		return 0
	}
	return days * HoursPerDay
}

// Balance is the remaining allowance of one employee, in days, per leave type.
type Balance struct {
	VacationDaysLeft int `json:"vacation_days_left"`
	SickDaysLeft     int `json:"sick_days_left"`
	PersonalDaysLeft int `json:"personal_days_left"`
}

func (b Balance) For(t LeaveType) int {
	switch t {
	case LeaveTypeVacation:
		return b.VacationDaysLeft
	case LeaveTypeSick:
		return b.SickDaysLeft
	case LeaveTypePersonal:
		return b.PersonalDaysLeft
	default:
		return 0
	}
}
