package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Station is a radio station. Registration and profile management live
// outside this service; only the fields the money flow needs are here.
type Station struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Station) TableName() string {
	return "stations"
}

// Artist is a performing rights holder
type Artist struct {
	ID            uint              `gorm:"primarykey" json:"id"`
	UserID        uint              `gorm:"not null;index" json:"user_id"`
	StageName     string            `gorm:"size:255;not null" json:"stage_name"`
	SelfPublished bool              `gorm:"default:true" json:"self_published"`
	PublisherID   *uint             `gorm:"index" json:"publisher_id,omitempty"`
	Publisher     *PublisherProfile `gorm:"foreignKey:PublisherID" json:"publisher,omitempty"`
	CreatedAt     time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Artist) TableName() string {
	return "artists"
}

// PublisherProfile represents a publishing company collecting on behalf of artists
type PublisherProfile struct {
	ID                     uint            `gorm:"primarykey" json:"id"`
	UserID                 uint            `gorm:"not null;index" json:"user_id"`
	CompanyName            string          `gorm:"size:255;not null" json:"company_name"`
	DefaultAdminFeePercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"default_admin_fee_percent"`
	CreatedAt              time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt              time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (PublisherProfile) TableName() string {
	return "publisher_profiles"
}

// Track is a registered work
type Track struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ArtistID  uint      `gorm:"not null;index" json:"artist_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Artist    *Artist   `gorm:"foreignKey:ArtistID" json:"artist,omitempty"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Track) TableName() string {
	return "tracks"
}

// Contributor is one rights holder's share of a track. Active contributors'
// percent splits must total 100 before royalties can be calculated.
type Contributor struct {
	ID           uint              `gorm:"primarykey" json:"id"`
	UserID       uint              `gorm:"not null;index" json:"user_id"`
	TrackID      uint              `gorm:"not null;index" json:"track_id"`
	Role         string            `gorm:"size:50" json:"role"`
	PercentSplit decimal.Decimal   `gorm:"type:decimal(5,2);not null" json:"percent_split"`
	PublisherID  *uint             `gorm:"index" json:"publisher_id,omitempty"`
	Publisher    *PublisherProfile `gorm:"foreignKey:PublisherID" json:"publisher,omitempty"`
	Active       bool              `gorm:"default:true" json:"active"`
	CreatedAt    time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Contributor) TableName() string {
	return "contributors"
}
