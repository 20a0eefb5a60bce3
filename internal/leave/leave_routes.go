package leave

import (
	"go-timeoff/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RegisterRoutes expects r to already carry the auth middleware.
func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	rdb *redis.Client,
) {
	canManage := middleware.RBACFlag(rbacService, "leave", "approve", string(middleware.ContextCanManage))

	leaves := r.Group("/leaves")
	leaves.Use(canManage)
	{
		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetAll)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetById)
		leaves.GET("/:id/slip", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.Slip)
		leaves.POST("", middleware.RBACAuthorize(rbacService, "leave", "create"), middleware.Idempotency(rdb), handler.Create)
		leaves.POST("/preview", middleware.RBACAuthorize(rbacService, "leave", "create"), handler.Preview)
		leaves.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "leave", "approve"), handler.Approve)
		leaves.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "leave", "approve"), handler.Reject)
	}

	r.GET("/employees/:id/leave-requests",
		middleware.RBACAuthorize(rbacService, "leave", "read"),
		canManage,
		handler.GetRecentByEmployee,
	)
}
