package leave

import "go-timeoff/internal/leavepolicy"

// CreateLeaveRequest leaves leave_type unconstrained beyond required: the
// policy layer normalises case and reports unknown types on their own field.
type CreateLeaveRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	LeaveType  string `json:"leave_type" binding:"required"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	Reason     string `json:"reason" binding:"max=1000"`
}

// PreviewLeaveRequest mirrors CreateLeaveRequest without the required tags:
// a half-filled form still gets a preview.
type PreviewLeaveRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	LeaveType  string `json:"leave_type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

type RejectLeaveRequest struct {
	RejectionReason string `json:"rejection_reason" binding:"required"`
}

type LeaveResponse struct {
	ID              string  `json:"id"`
	RequestNumber   string  `json:"request_number"`
	CompanyID       string  `json:"company_id"`
	EmployeeID      string  `json:"employee_id"`
	LeaveType       string  `json:"leave_type"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	TotalDays       int     `json:"total_days"`
	LeaveAmount     int     `json:"leave_amount"`
	Reason          string  `json:"reason"`
	Status          string  `json:"status"`
	CreatedBy       string  `json:"created_by"`
	DecidedBy       *string `json:"decided_by,omitempty"`
	DecidedAt       *string `json:"decided_at,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// PreviewResponse is the live feedback for a draft. Messages are nil when the
// matching field passes.
type PreviewResponse struct {
	LeaveTypeMessage *leavepolicy.ValidationMessage `json:"leave_type_message"`
	StartDateMessage *leavepolicy.ValidationMessage `json:"start_date_message"`
	EndDateMessage   *leavepolicy.ValidationMessage `json:"end_date_message"`
	TotalDays        int                            `json:"total_days"`
	LeaveAmount      int                            `json:"leave_amount"`
	Balances         []leavepolicy.ProjectedBalance `json:"balances"`
	Valid            bool                           `json:"valid"`
}

type ListFilter struct {
	Status     string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}
