package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PlayLog verification statuses (artist/publisher perspective)
const (
	VerificationVerified = "verified"
	VerificationPending  = "pending"
	VerificationDisputed = "disputed"
	VerificationRejected = "rejected"
)

// PlayLog payment statuses (station perspective)
const (
	PaymentPending  = "pending"
	PaymentCharged  = "charged"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// PlayLog royalty distribution statuses
const (
	RoyaltyPending     = "pending"
	RoyaltyCalculated  = "calculated"
	RoyaltyDistributed = "distributed"
	RoyaltyFailed      = "failed"
	RoyaltyWithheld    = "withheld"
)

// PlayLog is a confirmed, royalty-bearing play of a track on a station.
// The detection pipeline creates these; this service only mutates the three
// status machines and the charge/distribution timestamps.
type PlayLog struct {
	ID                 uint            `gorm:"primarykey" json:"id"`
	ExternalID         *string         `gorm:"size:64;uniqueIndex" json:"external_id,omitempty"`
	TrackID            uint            `gorm:"not null;index" json:"track_id"`
	StationID          uint            `gorm:"not null;index" json:"station_id"`
	PlayedAt           *time.Time      `json:"played_at,omitempty"`
	DurationSeconds    int             `json:"duration_seconds"`
	RoyaltyAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"royalty_amount"`
	AvgConfidenceScore decimal.Decimal `gorm:"type:decimal(10,2)" json:"avg_confidence_score"`

	VerificationStatus string `gorm:"size:20;default:verified;index" json:"verification_status"`

	PaymentStatus string     `gorm:"size:20;default:pending;index" json:"payment_status"`
	PaymentError  string     `gorm:"type:text" json:"payment_error,omitempty"`
	ChargedAt     *time.Time `json:"charged_at,omitempty"`

	RoyaltyStatus        string     `gorm:"size:20;default:pending;index" json:"royalty_status"`
	RoyaltyDistributedAt *time.Time `json:"royalty_distributed_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Track   *Track   `gorm:"foreignKey:TrackID" json:"track,omitempty"`
	Station *Station `gorm:"foreignKey:StationID" json:"station,omitempty"`
}

func (PlayLog) TableName() string {
	return "play_logs"
}

// IsCharged reports whether the station has been charged for this play
func (p *PlayLog) IsCharged() bool {
	return p.PaymentStatus == PaymentCharged
}

// MarkVerified flips the verification machine back to verified
func (p *PlayLog) MarkVerified(db *gorm.DB) error {
	p.VerificationStatus = VerificationVerified
	return db.Model(p).Update("verification_status", VerificationVerified).Error
}

// MarkDisputed withholds distribution until the dispute resolves
func (p *PlayLog) MarkDisputed(db *gorm.DB) error {
	p.VerificationStatus = VerificationDisputed
	return db.Model(p).Update("verification_status", VerificationDisputed).Error
}

// MarkPaymentCharged records a successful station charge
func (p *PlayLog) MarkPaymentCharged(db *gorm.DB) error {
	now := time.Now()
	p.PaymentStatus = PaymentCharged
	p.ChargedAt = &now
	return db.Model(p).Updates(map[string]interface{}{
		"payment_status": PaymentCharged,
		"charged_at":     now,
	}).Error
}

// MarkPaymentFailed records a failed charge without touching the play itself
func (p *PlayLog) MarkPaymentFailed(db *gorm.DB, reason string) error {
	p.PaymentStatus = PaymentFailed
	p.PaymentError = reason
	return db.Model(p).Updates(map[string]interface{}{
		"payment_status": PaymentFailed,
		"payment_error":  reason,
	}).Error
}

// MarkRoyaltyDistributed records completed distribution
func (p *PlayLog) MarkRoyaltyDistributed(db *gorm.DB) error {
	now := time.Now()
	p.RoyaltyStatus = RoyaltyDistributed
	p.RoyaltyDistributedAt = &now
	return db.Model(p).Updates(map[string]interface{}{
		"royalty_status":         RoyaltyDistributed,
		"royalty_distributed_at": now,
	}).Error
}

// FailedPlayCharge records a play the station could not be charged for,
// so the worker can retry once the account is funded.
type FailedPlayCharge struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	PlayLogID uint      `gorm:"not null;index" json:"play_log_id"`
	Reason    string    `gorm:"type:text" json:"reason"`
	WillRetry bool      `gorm:"default:true" json:"will_retry"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	PlayLog   *PlayLog  `gorm:"foreignKey:PlayLogID" json:"play_log,omitempty"`
}

func (FailedPlayCharge) TableName() string {
	return "failed_play_charges"
}
