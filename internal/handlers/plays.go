package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"royaltypool/internal/models"
	"royaltypool/internal/playevents"
	dbconfig "royaltypool/pkg/config"
)

// RecordPlayRequest represents the request body for recording a confirmed play
type RecordPlayRequest struct {
	ExternalID      string          `json:"external_id"`
	TrackID         uint            `json:"track_id" binding:"required"`
	StationID       uint            `json:"station_id" binding:"required"`
	RoyaltyAmount   decimal.Decimal `json:"royalty_amount"`
	ConfidenceScore decimal.Decimal `json:"confidence_score"`
	DurationSeconds int             `json:"duration_seconds"`
}

// RecordPlay stores a confirmed play and charges the originating station.
// Redelivery with the same external_id returns the existing record.
func RecordPlay(c *gin.Context) {
	var request RecordPlayRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	play, err := playReactor().RecordConfirmedPlay(playevents.ConfirmedPlayInput{
		ExternalID:      request.ExternalID,
		TrackID:         request.TrackID,
		StationID:       request.StationID,
		RoyaltyAmount:   request.RoyaltyAmount,
		ConfidenceScore: request.ConfidenceScore,
		DurationSeconds: request.DurationSeconds,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if play.PaymentStatus == models.PaymentCharged {
		notify("play.charged", play)
	}

	c.JSON(http.StatusCreated, play)
}

// ListPlays returns plays with pagination and optional status filters
func ListPlays(c *gin.Context) {
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

	query := dbconfig.DB.Model(&models.PlayLog{})
	if status := c.Query("payment_status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}
	if status := c.Query("royalty_status"); status != "" {
		query = query.Where("royalty_status = ?", status)
	}
	if stationID := c.Query("station_id"); stationID != "" {
		query = query.Where("station_id = ?", stationID)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var plays []models.PlayLog
	if err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&plays).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(pageSize)))

	c.JSON(http.StatusOK, gin.H{
		"data": plays,
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

// GetPlay returns a specific play by ID
func GetPlay(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var play models.PlayLog
	if err := dbconfig.DB.First(&play, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, play)
}

// MarkPlayVerified moves a play's verification status back to verified
func MarkPlayVerified(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var play models.PlayLog
	if err := dbconfig.DB.First(&play, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	if err := play.MarkVerified(dbconfig.DB); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, play)
}

// MarkPlayDisputed flags a play as disputed, withholding royalty distribution
func MarkPlayDisputed(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var play models.PlayLog
	if err := dbconfig.DB.First(&play, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	if err := play.MarkDisputed(dbconfig.DB); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, play)
}

// ListFailedCharges returns failed play charges still pending retry
func ListFailedCharges(c *gin.Context) {
	var failures []models.FailedPlayCharge
	if err := dbconfig.DB.Where("will_retry = ?", true).Order("id").Find(&failures).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, failures)
}

// RetryFailedCharges re-attempts all retryable failed charges immediately
func RetryFailedCharges(c *gin.Context) {
	recovered, err := playReactor().RetryFailedCharges()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recovered": recovered})
}
