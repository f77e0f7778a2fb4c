package routes

import (
	"royaltypool/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupPlayRoutes sets up all routes related to play logs and station charges
func SetupPlayRoutes(r *gin.Engine) {
	plays := r.Group("/plays")
	{
		plays.POST("", handlers.RecordPlay)
		plays.GET("", handlers.ListPlays)
		plays.GET("/:id", handlers.GetPlay)
		plays.POST("/:id/verify", handlers.MarkPlayVerified)
		plays.POST("/:id/dispute", handlers.MarkPlayDisputed)
		plays.GET("/:id/royalties", handlers.CalculateRoyalties)
		plays.POST("/:id/distribute", handlers.CreateDistributions)
	}

	failedCharges := r.Group("/failed-charges")
	{
		failedCharges.GET("", handlers.ListFailedCharges)
		failedCharges.POST("/retry", handlers.RetryFailedCharges)
	}
}
