package routes

import (
	"royaltypool/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRateRoutes sets up all routes related to royalty rates
func SetupRateRoutes(r *gin.Engine) {
	rates := r.Group("/royalty-rates")
	{
		rates.GET("", handlers.ListRoyaltyRates)
		rates.POST("", handlers.CreateRoyaltyRate)
		rates.POST("/:id/deactivate", handlers.DeactivateRoyaltyRate)
	}
}
