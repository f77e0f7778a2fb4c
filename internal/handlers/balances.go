package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"royaltypool/internal/models"
	dbconfig "royaltypool/pkg/config"
)

// GetPlatformBalance returns the central pool's current state
func GetPlatformBalance(c *gin.Context) {
	pool, err := flowService().PlatformBalance()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}

// ListPlatformTransactions returns the central pool's transaction history
func ListPlatformTransactions(c *gin.Context) {
	query := dbconfig.DB.Model(&models.PlatformTransaction{})
	if txType := c.Query("type"); txType != "" {
		query = query.Where("type = ?", txType)
	}

	var transactions []models.PlatformTransaction
	if err := query.Order("id DESC").Limit(200).Find(&transactions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// GetStationBalance returns a station's prepaid account
func GetStationBalance(c *gin.Context) {
	stationID, err := strconv.Atoi(c.Param("station_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	account, err := flowService().StationBalance(uint(stationID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// ListStationTransactions returns a station's transaction history
func ListStationTransactions(c *gin.Context) {
	stationID, err := strconv.Atoi(c.Param("station_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var account models.StationAccount
	if err := dbconfig.DB.Where("station_id = ?", stationID).First(&account).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	var transactions []models.StationTransaction
	if err := dbconfig.DB.Where("station_account_id = ?", account.ID).
		Order("id DESC").Limit(200).Find(&transactions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// StationAddFundsRequest represents the request body for directly funding a station
type StationAddFundsRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

// StationAddFunds credits a station's prepaid account directly, creating
// the account on first use. Admin path; stations go through deposits.
func StationAddFunds(c *gin.Context) {
	stationID, err := strconv.Atoi(c.Param("station_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var request StationAddFundsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	description := request.Description
	if description == "" {
		description = "Account funding"
	}

	result, err := flowService().StationAddFunds(uint(stationID), request.Amount, description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetWalletBalance returns a user's royalty wallet
func GetWalletBalance(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	wallet, err := flowService().WalletBalance(uint(userID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// ListWalletTransactions returns a user's wallet transaction history
func ListWalletTransactions(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var wallet models.BankAccount
	if err := dbconfig.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	var transactions []models.Transaction
	if err := dbconfig.DB.Where("bank_account_id = ?", wallet.ID).
		Order("id DESC").Limit(200).Find(&transactions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, transactions)
}
