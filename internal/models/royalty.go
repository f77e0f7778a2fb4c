package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrRequestFinalized guards withdrawal and deposit requests that already
// reached a terminal state.
var ErrRequestFinalized = errors.New("request already finalized")

// Withdrawal requester types
const (
	RequesterArtist    = "artist"
	RequesterPublisher = "publisher"
)

// Withdrawal statuses
const (
	WithdrawalPending   = "pending"
	WithdrawalProcessed = "processed"
	WithdrawalRejected  = "rejected"
	WithdrawalCancelled = "cancelled"
)

// RoyaltyRate is the per-play rate for an artist, or the global default
// when ArtistID is null.
type RoyaltyRate struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	ArtistID    *uint           `gorm:"index" json:"artist_id,omitempty"`
	RatePerPlay decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"rate_per_play"`
	Currency    string          `gorm:"size:50;default:GHS" json:"currency"`
	IsActive    bool            `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (RoyaltyRate) TableName() string {
	return "royalty_rates"
}

// RoyaltyWithdrawal is a cash-out request from the central pool to a
// wallet, initiated by an artist directly or by a publisher on behalf of
// one. It transitions to processed exactly once.
type RoyaltyWithdrawal struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	WithdrawalID  string          `gorm:"size:36;uniqueIndex" json:"withdrawal_id"`
	RequesterType string          `gorm:"size:20;not null" json:"requester_type"`
	ArtistID      *uint           `gorm:"index" json:"artist_id,omitempty"`
	PublisherID   *uint           `gorm:"index" json:"publisher_id,omitempty"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency      string          `gorm:"size:50;default:GHS" json:"currency"`

	Status          string     `gorm:"size:20;default:pending;index" json:"status"`
	RequestedAt     time.Time  `json:"requested_at" gorm:"autoCreateTime"`
	ProcessedByID   *uint      `json:"processed_by_id,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`

	PublishingStatusValidated bool   `gorm:"default:false" json:"publishing_status_validated"`
	ValidationNotes           string `gorm:"type:text" json:"validation_notes,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Artist    *Artist           `gorm:"foreignKey:ArtistID" json:"artist,omitempty"`
	Publisher *PublisherProfile `gorm:"foreignKey:PublisherID" json:"publisher,omitempty"`
}

func (RoyaltyWithdrawal) TableName() string {
	return "royalty_withdrawals"
}

func (w *RoyaltyWithdrawal) BeforeCreate(tx *gorm.DB) error {
	if w.WithdrawalID == "" {
		w.WithdrawalID = uuid.New().String()
	}
	return nil
}

// IsFinalized reports whether the withdrawal is in a terminal state
func (w *RoyaltyWithdrawal) IsFinalized() bool {
	switch w.Status {
	case WithdrawalProcessed, WithdrawalRejected, WithdrawalCancelled:
		return true
	}
	return false
}

// Deposit request statuses
const (
	DepositPending   = "pending"
	DepositCompleted = "completed"
	DepositRejected  = "rejected"
)

// Deposit payment methods
const (
	PaymentMethodMomo         = "mtn_momo"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCard         = "card"
	PaymentMethodCash         = "cash"
)

// StationDepositRequest is a station's request to fund its prepaid
// account. Approval is the only external path that raises a station balance.
type StationDepositRequest struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	StationID     uint            `gorm:"not null;index" json:"station_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency      string          `gorm:"size:50;default:GHS" json:"currency"`
	PaymentMethod string          `gorm:"size:50;not null" json:"payment_method"`
	Reference     string          `gorm:"size:255" json:"reference"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`

	Status          string     `gorm:"size:20;default:pending;index" json:"status"`
	RequestedAt     time.Time  `json:"requested_at" gorm:"autoCreateTime"`
	ProcessedByID   *uint      `json:"processed_by_id,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Station *Station `gorm:"foreignKey:StationID" json:"station,omitempty"`
}

func (StationDepositRequest) TableName() string {
	return "station_deposit_requests"
}
