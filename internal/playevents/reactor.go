// Package playevents reacts to confirmed plays being recorded. Charging
// the station happens synchronously in the recording path, but a charge
// failure never prevents the play itself from existing.
package playevents

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"royaltypool/internal/ledger"
	"royaltypool/internal/models"
	"royaltypool/internal/moneyflow"
	"royaltypool/internal/royalty"
)

type Reactor struct {
	db    *gorm.DB
	flows *moneyflow.Service
	rates *royalty.Service
}

func NewReactor(db *gorm.DB, flows *moneyflow.Service) *Reactor {
	return &Reactor{db: db, flows: flows, rates: royalty.NewService(db)}
}

// ConfirmedPlayInput is what the detection pipeline delivers for a
// verified play: track, station and royalty amount already populated.
type ConfirmedPlayInput struct {
	ExternalID      string          `json:"external_id"`
	TrackID         uint            `json:"track_id"`
	StationID       uint            `json:"station_id"`
	RoyaltyAmount   decimal.Decimal `json:"royalty_amount"`
	ConfidenceScore decimal.Decimal `json:"confidence_score"`
	DurationSeconds int             `json:"duration_seconds"`
}

// RecordConfirmedPlay stores the play and fires the charge hook once.
// Recording is idempotent on the external id: redelivery of the same play
// returns the existing record and never charges twice. Plays delivered
// without an external id are stored as NULL and never deduplicated. A zero
// royalty amount is resolved through the rate chain before recording.
func (r *Reactor) RecordConfirmedPlay(input ConfirmedPlayInput) (*models.PlayLog, error) {
	if input.ExternalID != "" {
		var existing models.PlayLog
		err := r.db.Where("external_id = ?", input.ExternalID).First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	play := models.PlayLog{
		TrackID:            input.TrackID,
		StationID:          input.StationID,
		RoyaltyAmount:      input.RoyaltyAmount,
		AvgConfidenceScore: input.ConfidenceScore,
		DurationSeconds:    input.DurationSeconds,
		VerificationStatus: models.VerificationVerified,
		PaymentStatus:      models.PaymentPending,
		RoyaltyStatus:      models.RoyaltyPending,
	}
	if input.ExternalID != "" {
		externalID := input.ExternalID
		play.ExternalID = &externalID
	}
	if play.RoyaltyAmount.IsZero() {
		rate, err := r.rates.RateForPlay(&play)
		if err != nil {
			return nil, err
		}
		play.RoyaltyAmount = rate
	}
	if err := r.db.Create(&play).Error; err != nil {
		return nil, err
	}

	r.OnPlayConfirmed(&play)
	return &play, nil
}

// OnPlayConfirmed charges the originating station for a newly recorded
// play. Failures of any kind are converted into a recorded payment status;
// nothing propagates past this boundary.
func (r *Reactor) OnPlayConfirmed(play *models.PlayLog) {
	if play.RoyaltyAmount.IsZero() || play.RoyaltyAmount.IsNegative() {
		log.WithField("play_log_id", play.ID).Warn("play has no royalty amount, skipping charge")
		return
	}
	if play.IsCharged() {
		return
	}

	_, err := r.flows.ChargeStationForPlay(play, play.RoyaltyAmount)
	if err == nil {
		if err := play.MarkPaymentCharged(r.db); err != nil {
			log.WithError(err).WithField("play_log_id", play.ID).Error("failed to mark play charged")
		}
		return
	}

	reason := err.Error()
	retryable := errors.Is(err, ledger.ErrInsufficientFunds) || errors.Is(err, ledger.ErrCreditLimitExceeded)
	if !retryable {
		reason = fmt.Sprintf("payment failed: %s", reason)
	}

	log.WithError(err).WithFields(log.Fields{
		"play_log_id": play.ID,
		"station_id":  play.StationID,
	}).Error("failed to charge station for play")

	if err := play.MarkPaymentFailed(r.db, reason); err != nil {
		log.WithError(err).WithField("play_log_id", play.ID).Error("failed to record payment failure")
	}
	failure := models.FailedPlayCharge{
		PlayLogID: play.ID,
		Reason:    reason,
		WillRetry: retryable,
	}
	if err := r.db.Create(&failure).Error; err != nil {
		log.WithError(err).WithField("play_log_id", play.ID).Error("failed to record failed charge")
	}
}

// RetryFailedCharges re-attempts every retryable failed charge, clearing
// entries whose station has since been funded. Invoked by the worker on a
// schedule.
func (r *Reactor) RetryFailedCharges() (int, error) {
	var failures []models.FailedPlayCharge
	if err := r.db.Where("will_retry = ?", true).Order("id").Find(&failures).Error; err != nil {
		return 0, err
	}

	recovered := 0
	for _, failure := range failures {
		var play models.PlayLog
		if err := r.db.First(&play, failure.PlayLogID).Error; err != nil {
			continue
		}
		if play.IsCharged() {
			r.db.Model(&failure).Update("will_retry", false)
			continue
		}

		if _, err := r.flows.ChargeStationForPlay(&play, play.RoyaltyAmount); err != nil {
			continue
		}
		if err := play.MarkPaymentCharged(r.db); err != nil {
			log.WithError(err).WithField("play_log_id", play.ID).Error("failed to mark retried play charged")
			continue
		}
		if err := r.db.Model(&failure).Update("will_retry", false).Error; err != nil {
			log.WithError(err).WithField("play_log_id", play.ID).Error("failed to clear failed charge")
		}
		recovered++
	}

	if recovered > 0 {
		log.WithField("recovered", recovered).Info("retried failed play charges")
	}
	return recovered, nil
}
