package routes

import (
	"royaltypool/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupDepositRoutes sets up all routes related to station deposit requests
func SetupDepositRoutes(r *gin.Engine) {
	deposits := r.Group("/deposits")
	{
		deposits.POST("", handlers.CreateDeposit)
		deposits.GET("", handlers.ListDeposits)
		deposits.POST("/:id/approve", handlers.ApproveDeposit)
		deposits.POST("/:id/reject", handlers.RejectDeposit)
	}
}
