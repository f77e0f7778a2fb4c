package handlers

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"royaltypool/internal/models"
	dbconfig "royaltypool/pkg/config"
)

// CreateWithdrawalRequest represents the request body for a withdrawal request
type CreateWithdrawalRequest struct {
	RequesterType string          `json:"requester_type" binding:"required"`
	ArtistID      *uint           `json:"artist_id"`
	PublisherID   *uint           `json:"publisher_id"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
}

// CreateWithdrawal files a withdrawal request. Nothing moves until an
// admin processes it.
func CreateWithdrawal(c *gin.Context) {
	var request CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.Amount.IsNegative() || request.Amount.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}
	if request.RequesterType != models.RequesterArtist && request.RequesterType != models.RequesterPublisher {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requester_type must be artist or publisher"})
		return
	}

	withdrawal := models.RoyaltyWithdrawal{
		RequesterType: request.RequesterType,
		ArtistID:      request.ArtistID,
		PublisherID:   request.PublisherID,
		Amount:        request.Amount,
		Currency:      models.DefaultCurrency,
		Status:        models.WithdrawalPending,
	}
	if err := dbconfig.DB.Create(&withdrawal).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, withdrawal)
}

// ListWithdrawals returns withdrawal requests with pagination and optional status filter
func ListWithdrawals(c *gin.Context) {
	pageStr := c.DefaultQuery("page", "1")
	pageSizeStr := c.DefaultQuery("page_size", "10")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	offset := (page - 1) * pageSize

	query := dbconfig.DB.Model(&models.RoyaltyWithdrawal{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if requesterType := c.Query("requester_type"); requesterType != "" {
		query = query.Where("requester_type = ?", requesterType)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var withdrawals []models.RoyaltyWithdrawal
	if err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&withdrawals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(pageSize)))

	c.JSON(http.StatusOK, gin.H{
		"data": withdrawals,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total_count": totalCount,
			"total_pages": totalPages,
			"has_next":    page < totalPages,
			"has_prev":    page > 1,
		},
	})
}

// GetWithdrawal returns a specific withdrawal by its withdrawal ID
func GetWithdrawal(c *gin.Context) {
	var withdrawal models.RoyaltyWithdrawal
	if err := dbconfig.DB.Where("withdrawal_id = ?", c.Param("id")).First(&withdrawal).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, withdrawal)
}

// ApproverRequest carries the admin approving or rejecting a request
type ApproverRequest struct {
	ApproverID uint   `json:"approver_id" binding:"required"`
	Reason     string `json:"reason"`
}

// ProcessWithdrawal approves a pending withdrawal and pays it out of the
// central pool into the recipient's wallet.
func ProcessWithdrawal(c *gin.Context) {
	var request ApproverRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := withdrawalProcessor().ProcessPayout(c.Param("id"), request.ApproverID)
	if err != nil {
		respondError(c, err)
		return
	}

	notify("withdrawal.processed", result)
	c.JSON(http.StatusOK, result)
}

// RejectWithdrawal rejects a pending withdrawal with a reason. No balance changes.
func RejectWithdrawal(c *gin.Context) {
	var request ApproverRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	withdrawal, err := withdrawalProcessor().Reject(c.Param("id"), request.ApproverID, request.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	notify("withdrawal.rejected", withdrawal)
	c.JSON(http.StatusOK, withdrawal)
}

// CancelWithdrawal lets the requester withdraw a pending request
func CancelWithdrawal(c *gin.Context) {
	var withdrawal models.RoyaltyWithdrawal
	if err := dbconfig.DB.Where("withdrawal_id = ?", c.Param("id")).First(&withdrawal).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	if withdrawal.IsFinalized() {
		c.JSON(http.StatusConflict, gin.H{"error": "withdrawal already " + withdrawal.Status})
		return
	}

	now := time.Now()
	if err := dbconfig.DB.Model(&withdrawal).Updates(map[string]interface{}{
		"status":       models.WithdrawalCancelled,
		"processed_at": now,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	withdrawal.Status = models.WithdrawalCancelled
	withdrawal.ProcessedAt = &now

	c.JSON(http.StatusOK, withdrawal)
}
