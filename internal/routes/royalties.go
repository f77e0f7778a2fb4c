package routes

import (
	"royaltypool/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRoyaltyRoutes sets up all routes related to royalty distributions
func SetupRoyaltyRoutes(r *gin.Engine) {
	distributions := r.Group("/distributions")
	{
		distributions.GET("", handlers.ListDistributions)
		distributions.GET("/:id", handlers.GetDistribution)
		distributions.POST("/:id/approve", handlers.ApproveDistribution)
		distributions.POST("/:id/pay", handlers.PayDistribution)
		distributions.POST("/:id/fail", handlers.FailDistribution)
		distributions.GET("/:id/sub-distributions", handlers.ListSubDistributions)
	}

	subDistributions := r.Group("/sub-distributions")
	{
		subDistributions.POST("/:id/approve", handlers.ApproveSubDistribution)
		subDistributions.POST("/:id/pay", handlers.PaySubDistribution)
	}
}
