package domain

// EnforceRequest is what the RBAC gate asks the enforcer. Role comes from the
// verified token, so the enforcer never looks the employee up.
type EnforceRequest struct {
	Role       string `json:"role" binding:"required"`
	EmployeeID string `json:"employee_id"`
	CompanyID  string `json:"company_id" binding:"required"`
	Resource   string `json:"resource" binding:"required"`
	Action     string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}

type PermissionResponse struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

type RoleResponse struct {
	Name        string               `json:"name"`
	Permissions []PermissionResponse `json:"permissions"`
}
