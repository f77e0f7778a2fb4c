package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"royaltypool/internal/models"
	dbconfig "royaltypool/pkg/config"
)

// CreateDepositRequest represents the request body for a station deposit request
type CreateDepositRequest struct {
	StationID     uint            `json:"station_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
	Reference     string          `json:"reference"`
	Notes         string          `json:"notes"`
}

// CreateDeposit files a station deposit request. The station's balance only
// changes when an admin approves it.
func CreateDeposit(c *gin.Context) {
	var request CreateDepositRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.Amount.IsNegative() || request.Amount.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	deposit := models.StationDepositRequest{
		StationID:     request.StationID,
		Amount:        request.Amount,
		Currency:      models.DefaultCurrency,
		PaymentMethod: request.PaymentMethod,
		Reference:     request.Reference,
		Notes:         request.Notes,
		Status:        models.DepositPending,
	}
	if err := dbconfig.DB.Create(&deposit).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, deposit)
}

// ListDeposits returns deposit requests, optionally filtered by status or station
func ListDeposits(c *gin.Context) {
	query := dbconfig.DB.Model(&models.StationDepositRequest{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if stationID := c.Query("station_id"); stationID != "" {
		query = query.Where("station_id = ?", stationID)
	}

	var deposits []models.StationDepositRequest
	if err := query.Order("id DESC").Find(&deposits).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, deposits)
}

// ApproveDeposit approves a pending deposit and funds the station's account
func ApproveDeposit(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var request ApproverRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deposit, err := withdrawalProcessor().ApproveDeposit(uint(id), request.ApproverID)
	if err != nil {
		respondError(c, err)
		return
	}

	notify("deposit.approved", deposit)
	c.JSON(http.StatusOK, deposit)
}

// RejectDeposit rejects a pending deposit without funding
func RejectDeposit(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var request ApproverRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deposit, err := withdrawalProcessor().RejectDeposit(uint(id), request.ApproverID, request.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}
