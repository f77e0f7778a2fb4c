package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"royaltypool/internal/ledger"
	"royaltypool/internal/models"
	"royaltypool/internal/moneyflow"
	"royaltypool/internal/playevents"
	"royaltypool/internal/royalty"
	"royaltypool/internal/withdrawal"
	dbconfig "royaltypool/pkg/config"
)

func flowService() *moneyflow.Service {
	return moneyflow.NewService(dbconfig.DB, withdrawal.LinkageValidator{})
}

func royaltyService() *royalty.Service {
	return royalty.NewService(dbconfig.DB)
}

func playReactor() *playevents.Reactor {
	return playevents.NewReactor(dbconfig.DB, flowService())
}

func withdrawalProcessor() *withdrawal.Processor {
	return withdrawal.NewProcessor(dbconfig.DB, flowService())
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, withdrawal.ErrReasonRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrNoAccountFound),
		errors.Is(err, withdrawal.ErrNotFound),
		errors.Is(err, royalty.ErrDistributionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, moneyflow.ErrAuthorityInvalid):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, withdrawal.ErrAlreadyFinalized),
		errors.Is(err, models.ErrInvalidStatusTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrCreditLimitExceeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// notify publishes an event to the notifications queue when RabbitMQ is
// configured. Failures are logged and never fail the request.
func notify(event string, payload interface{}) {
	if dbconfig.RabbitMQ == nil {
		return
	}

	pub, err := dbconfig.NewPublisher()
	if err != nil {
		log.WithError(err).Warn("notification publisher unavailable")
		return
	}
	defer pub.Close()

	if err := pub.Publish(dbconfig.NotificationsQueue, gin.H{
		"event": event,
		"data":  payload,
	}); err != nil {
		log.WithError(err).WithField("event", event).Warn("failed to publish notification")
	}
}
