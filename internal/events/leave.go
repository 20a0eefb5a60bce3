package events

import "time"

const (
	LeaveRequestedTopic = "hr.leave.requested.v1"
	LeaveDecidedTopic   = "hr.leave.decided.v1"

	EventLeaveRequested = "leave.requested"
	EventLeaveDecided   = "leave.decided"

	AggregateLeave = "leave"
)

type LeaveRequestedEvent struct {
	EventType     string    `json:"event_type"`
	RequestID     string    `json:"request_id,omitempty"`
	LeaveID       string    `json:"leave_id"`
	RequestNumber string    `json:"request_number"`
	CompanyID     string    `json:"company_id"`
	EmployeeID    string    `json:"employee_id"`
	LeaveType     string    `json:"leave_type"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	TotalDays     int       `json:"total_days"`
	LeaveAmount   int       `json:"leave_amount"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// LeaveDecidedEvent carries an approval or a rejection. Reason is set only
// for rejections.
type LeaveDecidedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	LeaveID    string    `json:"leave_id"`
	CompanyID  string    `json:"company_id"`
	EmployeeID string    `json:"employee_id"`
	Status     string    `json:"status"`
	DecidedBy  string    `json:"decided_by"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
