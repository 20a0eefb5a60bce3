package balance

import (
	"go-timeoff/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes expects r to already carry the auth middleware.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService middleware.RBACService) {
	r.GET("/employees/:id/leave-balance",
		middleware.RBACAuthorize(rbacService, "balance", "read"),
		middleware.RBACFlag(rbacService, "leave", "approve", string(middleware.ContextCanManage)),
		handler.GetByEmployee,
	)
}
