// Package moneyflow orchestrates the physical transfers between station
// accounts, the central pool and user wallets. It decides nothing about
// royalty splits; it only moves money through the ledger.
package moneyflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"royaltypool/internal/ledger"
	"royaltypool/internal/models"
)

// ErrAuthorityInvalid is returned when a withdrawal's publishing authority
// check fails. No balance is mutated in that case.
var ErrAuthorityInvalid = errors.New("publishing authority validation failed")

// AuthorityValidator answers whether a withdrawal request is backed by
// valid publishing authority. The actual publishing-status rules are owned
// outside this service; only the verdict and a message are consumed here.
type AuthorityValidator interface {
	ValidatePublishingAuthority(db *gorm.DB, w *models.RoyaltyWithdrawal) (bool, string)
}

type Service struct {
	db        *gorm.DB
	authority AuthorityValidator
}

func NewService(db *gorm.DB, authority AuthorityValidator) *Service {
	return &Service{db: db, authority: authority}
}

// ChargeResult reports a successful station charge
type ChargeResult struct {
	StationID      uint            `json:"station_id"`
	Amount         decimal.Decimal `json:"amount"`
	StationBalance decimal.Decimal `json:"station_balance"`
}

// ChargeStationForPlay charges the station that aired the play and credits
// the central pool with the same amount. Ledger errors are returned
// unchanged; the caller decides whether the play is marked failed.
func (s *Service) ChargeStationForPlay(play *models.PlayLog, amount decimal.Decimal) (*ChargeResult, error) {
	var result *ChargeResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := ledger.GetOrCreateStationAccount(tx, play.StationID)
		if err != nil {
			return err
		}
		if err := ledger.ChargeStation(tx, account, play, amount); err != nil {
			return err
		}
		result = &ChargeResult{
			StationID:      play.StationID,
			Amount:         amount,
			StationBalance: account.Balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"station_id":      result.StationID,
		"play_log_id":     play.ID,
		"amount":          result.Amount,
		"station_balance": result.StationBalance,
	}).Info("station charged for play")
	return result, nil
}

// PayoutResult reports a processed withdrawal
type PayoutResult struct {
	WithdrawalID    string          `json:"withdrawal_id"`
	RecipientUserID uint            `json:"recipient_user_id"`
	RecipientType   string          `json:"recipient_type"`
	Amount          decimal.Decimal `json:"amount"`
	WalletBalance   decimal.Decimal `json:"wallet_balance"`
	PlatformBalance decimal.Decimal `json:"platform_balance"`
}

// ProcessWithdrawalPayout re-validates the withdrawal's publishing
// authority, resolves the recipient wallet and pays out of the central
// pool. Wallets are provisioned at funding time, never here: a missing
// wallet fails with ledger.ErrNoAccountFound.
func (s *Service) ProcessWithdrawalPayout(withdrawal *models.RoyaltyWithdrawal, approverID uint) (*PayoutResult, error) {
	valid, message := s.authority.ValidatePublishingAuthority(s.db, withdrawal)
	if !valid {
		return nil, fmt.Errorf("%s: %w", message, ErrAuthorityInvalid)
	}

	recipientUserID, err := s.resolveRecipientUser(withdrawal)
	if err != nil {
		return nil, err
	}

	var result *PayoutResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Re-read the withdrawal under lock: it must still be pending, or a
		// concurrent approval already paid it out.
		var locked models.RoyaltyWithdrawal
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, withdrawal.ID).Error; err != nil {
			return err
		}
		if locked.Status != models.WithdrawalPending {
			return fmt.Errorf("withdrawal already %s: %w", locked.Status, models.ErrRequestFinalized)
		}

		var wallet models.BankAccount
		if err := tx.Where("user_id = ?", recipientUserID).First(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("no wallet for user %d: %w", recipientUserID, ledger.ErrNoAccountFound)
			}
			return err
		}

		description := fmt.Sprintf("Royalty payout: %s", withdrawal.WithdrawalID)
		if err := ledger.DebitPoolToUser(tx, withdrawal.Amount, &wallet, &withdrawal.ID, description); err != nil {
			return err
		}

		now := time.Now()
		withdrawal.Status = models.WithdrawalProcessed
		withdrawal.ProcessedByID = &approverID
		withdrawal.ProcessedAt = &now
		withdrawal.PublishingStatusValidated = true
		withdrawal.ValidationNotes = message
		if err := tx.Model(withdrawal).Updates(map[string]interface{}{
			"status":                      models.WithdrawalProcessed,
			"processed_by_id":             approverID,
			"processed_at":                now,
			"publishing_status_validated": true,
			"validation_notes":            message,
		}).Error; err != nil {
			return err
		}

		pool, err := ledger.GetOrCreatePool(tx)
		if err != nil {
			return err
		}
		result = &PayoutResult{
			WithdrawalID:    withdrawal.WithdrawalID,
			RecipientUserID: recipientUserID,
			RecipientType:   withdrawal.RequesterType,
			Amount:          withdrawal.Amount,
			WalletBalance:   wallet.Balance,
			PlatformBalance: pool.Balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"withdrawal_id":    result.WithdrawalID,
		"recipient_user":   result.RecipientUserID,
		"recipient_type":   result.RecipientType,
		"amount":           result.Amount,
		"platform_balance": result.PlatformBalance,
	}).Info("withdrawal payout processed")
	return result, nil
}

func (s *Service) resolveRecipientUser(withdrawal *models.RoyaltyWithdrawal) (uint, error) {
	switch withdrawal.RequesterType {
	case models.RequesterArtist:
		if withdrawal.ArtistID == nil {
			return 0, fmt.Errorf("no artist specified for artist withdrawal: %w", ErrAuthorityInvalid)
		}
		var artist models.Artist
		if err := s.db.First(&artist, *withdrawal.ArtistID).Error; err != nil {
			return 0, err
		}
		return artist.UserID, nil
	case models.RequesterPublisher:
		if withdrawal.PublisherID == nil {
			return 0, fmt.Errorf("no publisher specified for publisher withdrawal: %w", ErrAuthorityInvalid)
		}
		var publisher models.PublisherProfile
		if err := s.db.First(&publisher, *withdrawal.PublisherID).Error; err != nil {
			return 0, err
		}
		return publisher.UserID, nil
	default:
		return 0, fmt.Errorf("invalid requester type %q: %w", withdrawal.RequesterType, ErrAuthorityInvalid)
	}
}

// FundResult reports a station funding
type FundResult struct {
	StationID  uint            `json:"station_id"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// StationAddFunds credits a station's prepaid account, creating the
// account on first use.
func (s *Service) StationAddFunds(stationID uint, amount decimal.Decimal, description string) (*FundResult, error) {
	var result *FundResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := ledger.GetOrCreateStationAccount(tx, stationID)
		if err != nil {
			return err
		}
		if err := ledger.FundStation(tx, account, amount, description); err != nil {
			return err
		}
		result = &FundResult{
			StationID:  stationID,
			Amount:     amount,
			NewBalance: account.Balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"station_id":  stationID,
		"amount":      amount,
		"new_balance": result.NewBalance,
	}).Info("station account funded")
	return result, nil
}

// PlatformBalance returns the central pool's current state
func (s *Service) PlatformBalance() (*models.PlatformAccount, error) {
	return ledger.GetOrCreatePool(s.db)
}

// StationBalance returns the station's account, or ErrNoAccountFound when
// no account exists yet.
func (s *Service) StationBalance(stationID uint) (*models.StationAccount, error) {
	var account models.StationAccount
	if err := s.db.Where("station_id = ?", stationID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNoAccountFound
		}
		return nil, err
	}
	return &account, nil
}

// WalletBalance returns a user's wallet, or ErrNoAccountFound
func (s *Service) WalletBalance(userID uint) (*models.BankAccount, error) {
	var account models.BankAccount
	if err := s.db.Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNoAccountFound
		}
		return nil, err
	}
	return &account, nil
}
