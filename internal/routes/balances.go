package routes

import (
	"royaltypool/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupBalanceRoutes sets up all routes related to account balances
func SetupBalanceRoutes(r *gin.Engine) {
	platform := r.Group("/platform")
	{
		platform.GET("/balance", handlers.GetPlatformBalance)
		platform.GET("/transactions", handlers.ListPlatformTransactions)
	}

	stations := r.Group("/stations")
	{
		stations.GET("/:station_id/balance", handlers.GetStationBalance)
		stations.GET("/:station_id/transactions", handlers.ListStationTransactions)
		stations.POST("/:station_id/fund", handlers.StationAddFunds)
	}

	wallets := r.Group("/wallets")
	{
		wallets.GET("/:user_id/balance", handlers.GetWalletBalance)
		wallets.GET("/:user_id/transactions", handlers.ListWalletTransactions)
	}
}
