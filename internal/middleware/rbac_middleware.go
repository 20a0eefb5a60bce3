package middleware

import (
	"net/http"

	"go-timeoff/internal/domain"
	"go-timeoff/internal/shared/apperror"
	"go-timeoff/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ContextKey string

const (
	ContextUserID     ContextKey = "user_id"
	ContextEmployeeID ContextKey = "employee_id"
	ContextCompanyID  ContextKey = "company_id"
	ContextRole       ContextKey = "role"
	// ContextCanManage is set by RBACFlag on routes that serve both
	// employees and approvers.
	ContextCanManage ContextKey = "can_manage"
)

// RBACService adalah interface lokal.
// Apapun package yang punya method Enforce(domain.EnforceRequest) bisa masuk ke sini.
type RBACService interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.GetString(string(ContextCompanyID))
		role := c.GetString(string(ContextRole))

		if companyID == "" || role == "" {
			response.Abort(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "missing auth context")
			return
		}

		req := domain.EnforceRequest{
			Role:       role,
			EmployeeID: c.GetString(string(ContextEmployeeID)),
			CompanyID:  companyID,
			Resource:   resource,
			Action:     action,
		}

		allowed, err := service.Enforce(req)
		if err != nil {
			zap.L().Named("middleware.rbac").Error("rbac enforce failed", zap.String("role", role), zap.Error(err))
			response.Abort(c, http.StatusInternalServerError, apperror.CodeInternalError, apperror.ErrInternal.Message)
			return
		}

		if !allowed {
			response.Error(c, http.StatusForbidden, apperror.CodeForbidden,
				apperror.ErrForbidden.Message,
				gin.H{"required": resource + ":" + action},
			)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RBACFlag records whether the caller holds resource:action under key without
// blocking the request. Handlers use it to widen what they return.
func RBACFlag(service RBACService, resource, action, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := service.Enforce(domain.EnforceRequest{
			Role:       c.GetString(string(ContextRole)),
			EmployeeID: c.GetString(string(ContextEmployeeID)),
			CompanyID:  c.GetString(string(ContextCompanyID)),
			Resource:   resource,
			Action:     action,
		})
		if err != nil {
			zap.L().Named("middleware.rbac").Warn("rbac flag enforce failed", zap.String("key", key), zap.Error(err))
		}
		c.Set(key, err == nil && allowed)
		c.Next()
	}
}
