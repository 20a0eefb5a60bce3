package rbac

import (
	"sync"

	"go-timeoff/internal/domain"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/zap"
)

const (
	RoleEmployee = "EMPLOYEE"
	RoleManager  = "MANAGER"
	RoleAdmin    = "ADMIN"

	// AnyCompany matches every tenant in a policy row.
	AnyCompany = "*"
)

const modelText = `[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.dom == "*" || r.dom == p.dom) && r.obj == p.obj && r.act == p.act
`

// DefaultPolicies: manager mewarisi employee, admin mewarisi manager.
var (
	DefaultPolicies = [][]string{
		{RoleEmployee, AnyCompany, "leave", "read"},
		{RoleEmployee, AnyCompany, "leave", "create"},
		{RoleEmployee, AnyCompany, "balance", "read"},
		{RoleManager, AnyCompany, "leave", "approve"},
		{RoleAdmin, AnyCompany, "balance", "manage"},
	}
	DefaultRoleInheritance = [][]string{
		{RoleManager, RoleEmployee},
		{RoleAdmin, RoleManager},
	}
)

// NewEnforcer builds an in-memory enforcer loaded with the default policies.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	if _, err := e.AddPolicies(DefaultPolicies); err != nil {
		return nil, err
	}
	if _, err := e.AddGroupingPolicies(DefaultRoleInheritance); err != nil {
		return nil, err
	}
	return e, nil
}

type Service interface {
	Enforce(req domain.EnforceRequest) (bool, error)
	Permissions(role string) ([]domain.PermissionResponse, error)
}

type service struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   *zap.Logger
}

func NewService(enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{
		enforcer: enforcer,
		logger:   l,
	}
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(req.Role, req.CompanyID, req.Resource, req.Action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("role", req.Role),
			zap.String("company_id", req.CompanyID),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("role", req.Role),
		zap.String("employee_id", req.EmployeeID),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

func (s *service) Permissions(role string) ([]domain.PermissionResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.enforcer.GetImplicitPermissionsForUser(role)
	if err != nil {
		return nil, err
	}

	perms := make([]domain.PermissionResponse, 0, len(rows))
	for _, row := range rows {
		// row: sub, dom, obj, act
		if len(row) < 4 {
			continue
		}
		perms = append(perms, domain.PermissionResponse{Resource: row[2], Action: row[3]})
	}
	return perms, nil
}
