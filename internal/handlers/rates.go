package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"royaltypool/internal/models"
	dbconfig "royaltypool/pkg/config"
)

// RoyaltyRateRequest represents the request body for royalty rate operations
type RoyaltyRateRequest struct {
	ArtistID    *uint           `json:"artist_id"`
	RatePerPlay decimal.Decimal `json:"rate_per_play" binding:"required"`
}

// ListRoyaltyRates returns all royalty rates, active first
func ListRoyaltyRates(c *gin.Context) {
	var rates []models.RoyaltyRate
	if err := dbconfig.DB.Order("is_active DESC, id").Find(&rates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rates)
}

// CreateRoyaltyRate creates a per-play rate for an artist, or the global
// default when no artist is given. Any previous active rate for the same
// scope is deactivated.
func CreateRoyaltyRate(c *gin.Context) {
	var request RoyaltyRateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.RatePerPlay.IsNegative() || request.RatePerPlay.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rate_per_play must be positive"})
		return
	}

	scope := dbconfig.DB.Model(&models.RoyaltyRate{}).Where("is_active = ?", true)
	if request.ArtistID != nil {
		scope = scope.Where("artist_id = ?", *request.ArtistID)
	} else {
		scope = scope.Where("artist_id IS NULL")
	}
	if err := scope.Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rate := models.RoyaltyRate{
		ArtistID:    request.ArtistID,
		RatePerPlay: request.RatePerPlay,
		Currency:    models.DefaultCurrency,
		IsActive:    true,
	}
	if err := dbconfig.DB.Create(&rate).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, rate)
}

// DeactivateRoyaltyRate retires a rate without deleting its history
func DeactivateRoyaltyRate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var rate models.RoyaltyRate
	if err := dbconfig.DB.First(&rate, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	if err := dbconfig.DB.Model(&rate).Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rate)
}
