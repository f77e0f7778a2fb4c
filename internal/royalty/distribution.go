package royalty

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"royaltypool/internal/models"
)

// ErrDistributionNotFound is returned for unknown distribution ids
var ErrDistributionNotFound = errors.New("distribution not found")

// ApproveDistribution moves a calculated distribution to approved
func (s *Service) ApproveDistribution(distributionID string) (*models.RoyaltyDistribution, error) {
	var dist models.RoyaltyDistribution
	if err := s.db.Where("distribution_id = ?", distributionID).First(&dist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDistributionNotFound
		}
		return nil, err
	}
	if err := dist.ApproveForPayment(s.db); err != nil {
		return nil, err
	}
	return &dist, nil
}

// MarkDistributionPaid moves an approved distribution to paid
func (s *Service) MarkDistributionPaid(distributionID, reference, method string) (*models.RoyaltyDistribution, error) {
	var dist models.RoyaltyDistribution
	if err := s.db.Where("distribution_id = ?", distributionID).First(&dist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDistributionNotFound
		}
		return nil, err
	}
	if err := dist.MarkAsPaid(s.db, reference, method); err != nil {
		return nil, err
	}
	return &dist, nil
}

// MarkDistributionFailed records a payment failure with its reason
func (s *Service) MarkDistributionFailed(distributionID, reason string) (*models.RoyaltyDistribution, error) {
	var dist models.RoyaltyDistribution
	if err := s.db.Where("distribution_id = ?", distributionID).First(&dist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDistributionNotFound
		}
		return nil, err
	}
	if err := dist.MarkAsFailed(s.db, reason); err != nil {
		return nil, err
	}
	return &dist, nil
}

// ApproveSubDistribution moves a calculated sub-distribution to approved
func (s *Service) ApproveSubDistribution(subDistributionID string) (*models.PublisherArtistSubDistribution, error) {
	var sub models.PublisherArtistSubDistribution
	if err := s.db.Where("sub_distribution_id = ?", subDistributionID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDistributionNotFound
		}
		return nil, err
	}
	if sub.Status != models.SubDistributionCalculated {
		return nil, fmt.Errorf("sub-distribution is %s: %w", sub.Status, models.ErrInvalidStatusTransition)
	}

	now := time.Now()
	sub.Status = models.SubDistributionApproved
	sub.ApprovedAt = &now
	if err := s.db.Model(&sub).Updates(map[string]interface{}{
		"status":      models.SubDistributionApproved,
		"approved_at": now,
	}).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// MarkSubDistributionPaid records the publisher's payment to the artist
// and recomputes the parent distribution's status from all of its
// sub-distribution rows. The aggregation is never cached.
func (s *Service) MarkSubDistributionPaid(subDistributionID, reference, method string) (*models.PublisherArtistSubDistribution, error) {
	var sub models.PublisherArtistSubDistribution
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sub_distribution_id = ?", subDistributionID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDistributionNotFound
			}
			return err
		}
		if sub.Status != models.SubDistributionApproved {
			return fmt.Errorf("sub-distribution is %s: %w", sub.Status, models.ErrInvalidStatusTransition)
		}

		now := time.Now()
		sub.Status = models.SubDistributionPaid
		sub.PaidToArtistAt = &now
		sub.PaymentReference = reference
		updates := map[string]interface{}{
			"status":            models.SubDistributionPaid,
			"paid_to_artist_at": now,
			"payment_reference": reference,
		}
		if method != "" {
			sub.PaymentMethod = method
			updates["payment_method"] = method
		}
		if err := tx.Model(&sub).Updates(updates).Error; err != nil {
			return err
		}

		return refreshParentStatus(tx, sub.ParentDistributionID)
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// refreshParentStatus recomputes a parent distribution's status from its
// sub-distribution rows: all paid means paid, some paid means
// partially_paid.
func refreshParentStatus(tx *gorm.DB, parentID uint) error {
	var total, paid int64
	if err := tx.Model(&models.PublisherArtistSubDistribution{}).
		Where("parent_distribution_id = ?", parentID).Count(&total).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.PublisherArtistSubDistribution{}).
		Where("parent_distribution_id = ? AND status = ?", parentID, models.SubDistributionPaid).
		Count(&paid).Error; err != nil {
		return err
	}

	switch {
	case total > 0 && paid == total:
		now := time.Now()
		return tx.Model(&models.RoyaltyDistribution{}).Where("id = ?", parentID).
			Updates(map[string]interface{}{
				"status":  models.DistributionPaid,
				"paid_at": now,
			}).Error
	case paid > 0:
		return tx.Model(&models.RoyaltyDistribution{}).Where("id = ?", parentID).
			Update("status", models.DistributionPartiallyPaid).Error
	}
	return nil
}
