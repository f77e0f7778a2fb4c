package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"royaltypool/internal/models"
	dbconfig "royaltypool/pkg/config"
)

// CalculateRoyalties computes the royalty split for a play without
// persisting anything. Calculation errors are returned in the body, not as
// an HTTP failure.
func CalculateRoyalties(c *gin.Context) {
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

	result, err := royaltyService().CalculateRoyalties(&play)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"play_log_id":   result.PlayLogID,
		"distributions": result.Distributions(),
		"errors":        result.Errors,
	})
}

// CreateDistributions calculates and persists the royalty distributions for
// a play. All-or-nothing: any calculation error withholds every distribution.
func CreateDistributions(c *gin.Context) {
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

	svc := royaltyService()
	result, err := svc.CalculateRoyalties(&play)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(result.Errors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "royalty distribution withheld",
			"errors": result.Errors,
		})
		return
	}

	created, err := svc.CreateDistributions(result)
	if err != nil {
		respondError(c, err)
		return
	}

	notify("distributions.created", gin.H{"play_log_id": play.ID, "count": len(created)})
	c.JSON(http.StatusCreated, created)
}

// ListDistributions returns distributions with pagination and optional filters
func ListDistributions(c *gin.Context) {
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

	query := dbconfig.DB.Model(&models.RoyaltyDistribution{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if recipientType := c.Query("recipient_type"); recipientType != "" {
		query = query.Where("recipient_type = ?", recipientType)
	}
	if recipientID := c.Query("recipient_id"); recipientID != "" {
		query = query.Where("recipient_id = ?", recipientID)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var distributions []models.RoyaltyDistribution
	if err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&distributions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(pageSize)))

	c.JSON(http.StatusOK, gin.H{
		"data": distributions,
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

// GetDistribution returns a specific distribution by its distribution ID
func GetDistribution(c *gin.Context) {
	var dist models.RoyaltyDistribution
	if err := dbconfig.DB.Where("distribution_id = ?", c.Param("id")).First(&dist).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, dist)
}

// ApproveDistribution moves a calculated distribution to approved
func ApproveDistribution(c *gin.Context) {
	dist, err := royaltyService().ApproveDistribution(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dist)
}

// PaymentRequest represents the request body for marking a payment made
type PaymentRequest struct {
	Reference string `json:"reference"`
	Method    string `json:"method"`
}

// PayDistribution marks an approved distribution as paid
func PayDistribution(c *gin.Context) {
	var request PaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dist, err := royaltyService().MarkDistributionPaid(c.Param("id"), request.Reference, request.Method)
	if err != nil {
		respondError(c, err)
		return
	}

	notify("distribution.paid", dist)
	c.JSON(http.StatusOK, dist)
}

// FailDistributionRequest represents the request body for recording a payment failure
type FailDistributionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// FailDistribution records a payment failure on a distribution
func FailDistribution(c *gin.Context) {
	var request FailDistributionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dist, err := royaltyService().MarkDistributionFailed(c.Param("id"), request.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dist)
}

// ListSubDistributions returns the sub-distributions of a parent distribution
func ListSubDistributions(c *gin.Context) {
	var parent models.RoyaltyDistribution
	if err := dbconfig.DB.Where("distribution_id = ?", c.Param("id")).First(&parent).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	var subs []models.PublisherArtistSubDistribution
	if err := dbconfig.DB.Where("parent_distribution_id = ?", parent.ID).Order("id").Find(&subs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, subs)
}

// ApproveSubDistribution moves a calculated sub-distribution to approved
func ApproveSubDistribution(c *gin.Context) {
	sub, err := royaltyService().ApproveSubDistribution(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// PaySubDistribution records the publisher's payment to the artist and
// refreshes the parent distribution's status.
func PaySubDistribution(c *gin.Context) {
	var request PaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := royaltyService().MarkSubDistributionPaid(c.Param("id"), request.Reference, request.Method)
	if err != nil {
		respondError(c, err)
		return
	}

	notify("sub_distribution.paid", sub)
	c.JSON(http.StatusOK, sub)
}
