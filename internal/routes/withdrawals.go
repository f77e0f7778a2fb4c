package routes

import (
	"royaltypool/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupWithdrawalRoutes sets up all routes related to royalty withdrawals
func SetupWithdrawalRoutes(r *gin.Engine) {
	withdrawals := r.Group("/withdrawals")
	{
		withdrawals.POST("", handlers.CreateWithdrawal)
		withdrawals.GET("", handlers.ListWithdrawals)
		withdrawals.GET("/:id", handlers.GetWithdrawal)
		withdrawals.POST("/:id/process", handlers.ProcessWithdrawal)
		withdrawals.POST("/:id/reject", handlers.RejectWithdrawal)
		withdrawals.POST("/:id/cancel", handlers.CancelWithdrawal)
	}
}
