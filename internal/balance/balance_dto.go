package balance

import "go-timeoff/internal/leavepolicy"

type BalanceResponse struct {
	EmployeeID string `json:"employee_id"`
	leavepolicy.Balance
}
