package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrInvalidStatusTransition is returned when a distribution or
// sub-distribution is moved out of a state that does not allow it.
var ErrInvalidStatusTransition = errors.New("invalid status transition")

// Distribution recipient types
const (
	RecipientArtist      = "artist"
	RecipientPublisher   = "publisher"
	RecipientContributor = "contributor"
	RecipientPRO         = "pro"
	RecipientExternalPRO = "external_pro"
)

// Distribution statuses
const (
	DistributionPending       = "pending"
	DistributionCalculated    = "calculated"
	DistributionApproved      = "approved"
	DistributionPaid          = "paid"
	DistributionPartiallyPaid = "partially_paid"
	DistributionFailed        = "failed"
	DistributionDisputed      = "disputed"
	DistributionWithheld      = "withheld"
)

// RoyaltyDistribution is one recipient's computed share of one play's
// royalty amount. Amount fields are immutable once approved.
type RoyaltyDistribution struct {
	ID             uint   `gorm:"primarykey" json:"id"`
	DistributionID string `gorm:"size:36;uniqueIndex" json:"distribution_id"`

	PlayLogID *uint    `gorm:"index" json:"play_log_id,omitempty"`
	PlayLog   *PlayLog `gorm:"foreignKey:PlayLogID" json:"play_log,omitempty"`

	RecipientID   uint   `gorm:"not null;index" json:"recipient_id"`
	RecipientType string `gorm:"size:20;not null" json:"recipient_type"`

	GrossAmount     decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"gross_amount"`
	NetAmount       decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"net_amount"`
	Currency        string          `gorm:"size:3;default:GHS" json:"currency"`
	PercentageSplit decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"percentage_split"`
	ContributorRole string          `gorm:"size:50" json:"contributor_role,omitempty"`

	Status       string     `gorm:"size:20;default:pending;index" json:"status"`
	CalculatedAt time.Time  `json:"calculated_at" gorm:"autoCreateTime"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`

	PaymentMethod    string `gorm:"size:50" json:"payment_method,omitempty"`
	PaymentReference string `gorm:"size:100" json:"payment_reference,omitempty"`
	Notes            string `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (RoyaltyDistribution) TableName() string {
	return "royalty_distributions"
}

func (d *RoyaltyDistribution) BeforeCreate(tx *gorm.DB) error {
	if d.DistributionID == "" {
		d.DistributionID = uuid.New().String()
	}
	if d.Currency == "" {
		d.Currency = DefaultCurrency
	}
	return nil
}

// ApproveForPayment moves a calculated distribution to approved
func (d *RoyaltyDistribution) ApproveForPayment(db *gorm.DB) error {
	if d.Status != DistributionCalculated {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	d.Status = DistributionApproved
	d.ApprovedAt = &now
	return db.Model(d).Updates(map[string]interface{}{
		"status":      DistributionApproved,
		"approved_at": now,
	}).Error
}

// MarkAsPaid moves an approved distribution to paid
func (d *RoyaltyDistribution) MarkAsPaid(db *gorm.DB, reference, method string) error {
	if d.Status != DistributionApproved {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	d.Status = DistributionPaid
	d.PaidAt = &now
	d.PaymentReference = reference
	updates := map[string]interface{}{
		"status":            DistributionPaid,
		"paid_at":           now,
		"payment_reference": reference,
	}
	if method != "" {
		d.PaymentMethod = method
		updates["payment_method"] = method
	}
	return db.Model(d).Updates(updates).Error
}

// MarkAsFailed is allowed from any state; the reason is appended to the
// notes, never overwriting earlier failures.
func (d *RoyaltyDistribution) MarkAsFailed(db *gorm.DB, reason string) error {
	d.Status = DistributionFailed
	if d.Notes != "" {
		d.Notes = d.Notes + "\nPayment failed: " + reason
	} else {
		d.Notes = "Payment failed: " + reason
	}
	return db.Model(d).Updates(map[string]interface{}{
		"status": DistributionFailed,
		"notes":  d.Notes,
	}).Error
}

// Sub-distribution statuses mirror the parent, minus partially_paid and withheld
const (
	SubDistributionPending    = "pending"
	SubDistributionCalculated = "calculated"
	SubDistributionApproved   = "approved"
	SubDistributionPaid       = "paid"
	SubDistributionFailed     = "failed"
	SubDistributionDisputed   = "disputed"
)

// PublisherArtistSubDistribution tracks a publisher's downstream obligation
// to the artist behind a distribution routed to that publisher.
type PublisherArtistSubDistribution struct {
	ID                uint   `gorm:"primarykey" json:"id"`
	SubDistributionID string `gorm:"size:36;uniqueIndex" json:"sub_distribution_id"`

	ParentDistributionID uint                 `gorm:"not null;index" json:"parent_distribution_id"`
	ParentDistribution   *RoyaltyDistribution `gorm:"foreignKey:ParentDistributionID" json:"parent_distribution,omitempty"`

	PublisherID  uint `gorm:"not null;index" json:"publisher_id"`
	ArtistUserID uint `gorm:"not null;index" json:"artist_user_id"`

	TotalAmount            decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"total_amount"`
	PublisherFeePercentage decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"publisher_fee_percentage"`
	PublisherFeeAmount     decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"publisher_fee_amount"`
	ArtistNetAmount        decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"artist_net_amount"`
	Currency               string          `gorm:"size:3;default:GHS" json:"currency"`

	Status           string     `gorm:"size:20;default:pending;index" json:"status"`
	CalculatedAt     time.Time  `json:"calculated_at" gorm:"autoCreateTime"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	PaidToArtistAt   *time.Time `json:"paid_to_artist_at,omitempty"`
	PaymentReference string     `gorm:"size:100" json:"payment_reference,omitempty"`
	PaymentMethod    string     `gorm:"size:50" json:"payment_method,omitempty"`
	Notes            string     `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (PublisherArtistSubDistribution) TableName() string {
	return "publisher_artist_sub_distributions"
}

func (s *PublisherArtistSubDistribution) BeforeCreate(tx *gorm.DB) error {
	if s.SubDistributionID == "" {
		s.SubDistributionID = uuid.New().String()
	}
	if s.Currency == "" {
		s.Currency = DefaultCurrency
	}
	return nil
}

// CalculateAmounts derives the publisher fee and the artist net from the
// total; fee + artistNet always equals total exactly.
func (s *PublisherArtistSubDistribution) CalculateAmounts() decimal.Decimal {
	s.PublisherFeeAmount = s.TotalAmount.Mul(s.PublisherFeePercentage).Div(decimal.NewFromInt(100)).Round(4)
	s.ArtistNetAmount = s.TotalAmount.Sub(s.PublisherFeeAmount)
	return s.ArtistNetAmount
}
