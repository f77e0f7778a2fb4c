// Package royalty computes how a confirmed play's royalty amount is split
// among rights holders, and drives the distribution lifecycle that follows.
package royalty

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"royaltypool/internal/models"
)

// DefaultRatePerPlay is the hard floor when no rate rows exist
var DefaultRatePerPlay = decimal.NewFromFloat(2.00)

// splitTolerance absorbs rounding on contributor splits
var splitTolerance = decimal.NewFromFloat(0.01)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ComputedShare is one contributor's computed distribution plus the
// routing facts needed to spawn a sub-distribution when the money goes
// through a publisher.
type ComputedShare struct {
	Distribution models.RoyaltyDistribution
	ArtistUserID uint
	PublisherID  *uint
	FeePercent   decimal.Decimal
}

// CalculationResult is all-or-nothing: any error withholds every
// distribution for the play.
type CalculationResult struct {
	PlayLogID uint
	Shares    []ComputedShare
	Errors    []string
}

// Distributions returns the computed distributions in order
func (r *CalculationResult) Distributions() []models.RoyaltyDistribution {
	out := make([]models.RoyaltyDistribution, 0, len(r.Shares))
	for _, s := range r.Shares {
		out = append(out, s.Distribution)
	}
	return out
}

// RateForPlay resolves the applicable per-play rate: an active
// artist-specific rate wins, then the active global default, then the
// hard-coded minimum.
func (s *Service) RateForPlay(play *models.PlayLog) (decimal.Decimal, error) {
	var track models.Track
	err := s.db.First(&track, play.TrackID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, err
	}
	if err == nil {
		var rate models.RoyaltyRate
		err := s.db.Where("artist_id = ? AND is_active = ?", track.ArtistID, true).
			Order("id").First(&rate).Error
		if err == nil {
			return rate.RatePerPlay, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, err
		}
	}

	var defaultRate models.RoyaltyRate
	err = s.db.Where("artist_id IS NULL AND is_active = ?", true).
		Order("id").First(&defaultRate).Error
	if err == nil {
		return defaultRate.RatePerPlay, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, err
	}

	return DefaultRatePerPlay, nil
}

// CalculateRoyalties validates the track's contributor splits and computes
// one distribution per active contributor, routing each share to the
// contributor's publisher when one collects for them.
func (s *Service) CalculateRoyalties(play *models.PlayLog) (*CalculationResult, error) {
	result := &CalculationResult{PlayLogID: play.ID}

	if play.VerificationStatus == models.VerificationDisputed {
		result.Errors = append(result.Errors, "play is under dispute; royalties withheld")
		return result, nil
	}

	var track models.Track
	if err := s.db.Preload("Artist").First(&track, play.TrackID).Error; err != nil {
		return nil, fmt.Errorf("load track %d: %w", play.TrackID, err)
	}

	var contributors []models.Contributor
	if err := s.db.Where("track_id = ? AND active = ?", track.ID, true).
		Order("id").Find(&contributors).Error; err != nil {
		return nil, err
	}

	if len(contributors) == 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("track %q has no active contributors", track.Title))
		return result, nil
	}

	total := decimal.Zero
	for _, c := range contributors {
		total = total.Add(c.PercentSplit)
	}
	if total.Sub(decimal.NewFromInt(100)).Abs().Cmp(splitTolerance) > 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("invalid contributor splits for track %q: total %s%%, expected 100%%", track.Title, total))
		return result, nil
	}

	hundred := decimal.NewFromInt(100)
	for _, c := range contributors {
		gross := play.RoyaltyAmount.Mul(c.PercentSplit).Div(hundred).Round(4)

		share := ComputedShare{ArtistUserID: c.UserID}
		recipientID := c.UserID
		recipientType := models.RecipientArtist

		publisherID, feePercent, err := s.resolvePublisher(&c, &track)
		if err != nil {
			return nil, err
		}
		if publisherID != nil {
			var publisher models.PublisherProfile
			if err := s.db.First(&publisher, *publisherID).Error; err != nil {
				return nil, fmt.Errorf("load publisher %d: %w", *publisherID, err)
			}
			recipientID = publisher.UserID
			recipientType = models.RecipientPublisher
			share.PublisherID = publisherID
			share.FeePercent = feePercent
		}

		share.Distribution = models.RoyaltyDistribution{
			PlayLogID:       &play.ID,
			RecipientID:     recipientID,
			RecipientType:   recipientType,
			GrossAmount:     gross,
			NetAmount:       gross,
			PercentageSplit: c.PercentSplit,
			ContributorRole: c.Role,
			Status:          models.DistributionCalculated,
		}
		result.Shares = append(result.Shares, share)
	}

	return result, nil
}

// resolvePublisher decides whether a contributor's share is collected by a
// publisher. The contributor's own publisher link wins; otherwise the
// track artist's publisher applies unless the artist is self-published.
func (s *Service) resolvePublisher(c *models.Contributor, track *models.Track) (*uint, decimal.Decimal, error) {
	if c.PublisherID != nil {
		var publisher models.PublisherProfile
		if err := s.db.First(&publisher, *c.PublisherID).Error; err != nil {
			return nil, decimal.Zero, err
		}
		return c.PublisherID, publisher.DefaultAdminFeePercent, nil
	}

	if track.Artist != nil && !track.Artist.SelfPublished && track.Artist.PublisherID != nil {
		var publisher models.PublisherProfile
		if err := s.db.First(&publisher, *track.Artist.PublisherID).Error; err != nil {
			return nil, decimal.Zero, err
		}
		return track.Artist.PublisherID, publisher.DefaultAdminFeePercent, nil
	}

	return nil, decimal.Zero, nil
}

// CreateDistributions persists the computed shares. Shares routed to a
// publisher spawn exactly one sub-distribution carrying the underlying
// artist's cut. Nothing is written when the calculation carries errors.
func (s *Service) CreateDistributions(result *CalculationResult) ([]models.RoyaltyDistribution, error) {
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("calculation has %d error(s); distributions withheld", len(result.Errors))
	}
	if len(result.Shares) == 0 {
		return nil, errors.New("calculation produced no distributions")
	}

	created := make([]models.RoyaltyDistribution, 0, len(result.Shares))
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range result.Shares {
			share := &result.Shares[i]
			dist := share.Distribution
			if err := tx.Create(&dist).Error; err != nil {
				return err
			}

			if share.PublisherID != nil {
				sub := models.PublisherArtistSubDistribution{
					ParentDistributionID:   dist.ID,
					PublisherID:            *share.PublisherID,
					ArtistUserID:           share.ArtistUserID,
					TotalAmount:            dist.NetAmount,
					PublisherFeePercentage: share.FeePercent,
					Status:                 models.SubDistributionCalculated,
				}
				sub.CalculateAmounts()
				if err := tx.Create(&sub).Error; err != nil {
					return err
				}
			}
			created = append(created, dist)
		}

		return tx.Model(&models.PlayLog{}).Where("id = ?", result.PlayLogID).
			Update("royalty_status", models.RoyaltyCalculated).Error
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"play_log_id":   result.PlayLogID,
		"distributions": len(created),
	}).Info("royalty distributions created")
	return created, nil
}
