// Package withdrawal validates cash-out and deposit requests and drives
// them through the money-flow orchestrator. Requests in a terminal state
// are immutable.
package withdrawal

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"royaltypool/internal/ledger"
	"royaltypool/internal/models"
	"royaltypool/internal/moneyflow"
)

var (
	// ErrAlreadyFinalized guards processed/rejected/cancelled requests
	ErrAlreadyFinalized = models.ErrRequestFinalized

	// ErrNotFound is returned for unknown withdrawal or deposit ids
	ErrNotFound = errors.New("request not found")

	// ErrReasonRequired rejects a rejection without a reason
	ErrReasonRequired = errors.New("rejection reason required")
)

type Processor struct {
	db    *gorm.DB
	flows *moneyflow.Service
}

func NewProcessor(db *gorm.DB, flows *moneyflow.Service) *Processor {
	return &Processor{db: db, flows: flows}
}

// ProcessPayout approves a pending withdrawal and pays it out of the
// central pool. A withdrawal transitions to processed exactly once.
func (p *Processor) ProcessPayout(withdrawalID string, approverID uint) (*moneyflow.PayoutResult, error) {
	var withdrawal models.RoyaltyWithdrawal
	if err := p.db.Where("withdrawal_id = ?", withdrawalID).First(&withdrawal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if withdrawal.IsFinalized() {
		return nil, fmt.Errorf("withdrawal already %s: %w", withdrawal.Status, ErrAlreadyFinalized)
	}

	if withdrawal.RequesterType != models.RequesterArtist && withdrawal.RequesterType != models.RequesterPublisher {
		return nil, fmt.Errorf("invalid requester type %q: %w", withdrawal.RequesterType, moneyflow.ErrAuthorityInvalid)
	}

	return p.flows.ProcessWithdrawalPayout(&withdrawal, approverID)
}

// Reject moves a pending withdrawal to rejected. No balance changes.
func (p *Processor) Reject(withdrawalID string, approverID uint, reason string) (*models.RoyaltyWithdrawal, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}

	var withdrawal models.RoyaltyWithdrawal
	if err := p.db.Where("withdrawal_id = ?", withdrawalID).First(&withdrawal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if withdrawal.IsFinalized() {
		return nil, fmt.Errorf("withdrawal already %s: %w", withdrawal.Status, ErrAlreadyFinalized)
	}

	now := time.Now()
	withdrawal.Status = models.WithdrawalRejected
	withdrawal.ProcessedByID = &approverID
	withdrawal.ProcessedAt = &now
	withdrawal.RejectionReason = reason
	if err := p.db.Model(&withdrawal).Updates(map[string]interface{}{
		"status":           models.WithdrawalRejected,
		"processed_by_id":  approverID,
		"processed_at":     now,
		"rejection_reason": reason,
	}).Error; err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"withdrawal_id": withdrawal.WithdrawalID,
		"reason":        reason,
	}).Info("withdrawal rejected")
	return &withdrawal, nil
}

// ApproveDeposit approves a pending deposit request and funds the
// station's account. This is the only external path that raises a station
// balance.
func (p *Processor) ApproveDeposit(depositID uint, approverID uint) (*models.StationDepositRequest, error) {
	var deposit models.StationDepositRequest
	if err := p.db.First(&deposit, depositID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if deposit.Status != models.DepositPending {
		return nil, fmt.Errorf("deposit already %s: %w", deposit.Status, ErrAlreadyFinalized)
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		account, err := ledger.GetOrCreateStationAccount(tx, deposit.StationID)
		if err != nil {
			return err
		}

		description := fmt.Sprintf("Deposit via %s - Ref: %s", deposit.PaymentMethod, deposit.Reference)
		if err := ledger.FundStation(tx, account, deposit.Amount, description); err != nil {
			return err
		}

		now := time.Now()
		deposit.Status = models.DepositCompleted
		deposit.ProcessedByID = &approverID
		deposit.ProcessedAt = &now
		return tx.Model(&deposit).Updates(map[string]interface{}{
			"status":          models.DepositCompleted,
			"processed_by_id": approverID,
			"processed_at":    now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"deposit_id": deposit.ID,
		"station_id": deposit.StationID,
		"amount":     deposit.Amount,
	}).Info("station deposit approved")
	return &deposit, nil
}

// RejectDeposit moves a pending deposit to rejected without funding
func (p *Processor) RejectDeposit(depositID uint, approverID uint, reason string) (*models.StationDepositRequest, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}

	var deposit models.StationDepositRequest
	if err := p.db.First(&deposit, depositID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if deposit.Status != models.DepositPending {
		return nil, fmt.Errorf("deposit already %s: %w", deposit.Status, ErrAlreadyFinalized)
	}

	now := time.Now()
	deposit.Status = models.DepositRejected
	deposit.ProcessedByID = &approverID
	deposit.ProcessedAt = &now
	deposit.RejectionReason = reason
	if err := p.db.Model(&deposit).Updates(map[string]interface{}{
		"status":           models.DepositRejected,
		"processed_by_id":  approverID,
		"processed_at":     now,
		"rejection_reason": reason,
	}).Error; err != nil {
		return nil, err
	}
	return &deposit, nil
}
