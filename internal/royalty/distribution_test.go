package royalty

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"royaltypool/internal/models"
)

func seedDistribution(t *testing.T, db *gorm.DB, status string) *models.RoyaltyDistribution {
	t.Helper()
	dist := models.RoyaltyDistribution{
		RecipientID:     10,
		RecipientType:   models.RecipientArtist,
		GrossAmount:     decimal.RequireFromString("6.00"),
		NetAmount:       decimal.RequireFromString("6.00"),
		PercentageSplit: decimal.NewFromInt(100),
		Status:          status,
	}
	require.NoError(t, db.Create(&dist).Error)
	return &dist
}

func seedSubDistribution(t *testing.T, db *gorm.DB, parentID uint, status string) *models.PublisherArtistSubDistribution {
	t.Helper()
	sub := models.PublisherArtistSubDistribution{
		ParentDistributionID:   parentID,
		PublisherID:            1,
		ArtistUserID:           10,
		TotalAmount:            decimal.RequireFromString("6.00"),
		PublisherFeePercentage: decimal.NewFromInt(15),
		Status:                 status,
	}
	sub.CalculateAmounts()
	require.NoError(t, db.Create(&sub).Error)
	return &sub
}

func TestDistributionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	dist := seedDistribution(t, db, models.DistributionCalculated)

	approved, err := svc.ApproveDistribution(dist.DistributionID)
	require.NoError(t, err)
	require.Equal(t, models.DistributionApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	paid, err := svc.MarkDistributionPaid(dist.DistributionID, "MOMO-123", "mtn_momo")
	require.NoError(t, err)
	require.Equal(t, models.DistributionPaid, paid.Status)
	require.Equal(t, "MOMO-123", paid.PaymentReference)
	require.NotNil(t, paid.PaidAt)
}

func TestDistributionInvalidTransitions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	// Paying straight from calculated is not allowed
	dist := seedDistribution(t, db, models.DistributionCalculated)
	_, err := svc.MarkDistributionPaid(dist.DistributionID, "REF", "")
	require.ErrorIs(t, err, models.ErrInvalidStatusTransition)

	// Approving twice is not allowed
	_, err = svc.ApproveDistribution(dist.DistributionID)
	require.NoError(t, err)
	_, err = svc.ApproveDistribution(dist.DistributionID)
	require.ErrorIs(t, err, models.ErrInvalidStatusTransition)

	_, err = svc.ApproveDistribution("no-such-id")
	require.ErrorIs(t, err, ErrDistributionNotFound)
}

func TestDistributionMarkFailedAppendsNotes(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	dist := seedDistribution(t, db, models.DistributionApproved)

	failed, err := svc.MarkDistributionFailed(dist.DistributionID, "momo timeout")
	require.NoError(t, err)
	require.Equal(t, models.DistributionFailed, failed.Status)
	require.Contains(t, failed.Notes, "Payment failed: momo timeout")

	// A second failure keeps the first reason
	failed, err = svc.MarkDistributionFailed(dist.DistributionID, "bank rejected")
	require.NoError(t, err)
	require.Contains(t, failed.Notes, "momo timeout")
	require.Contains(t, failed.Notes, "bank rejected")
}

func TestSubDistributionLifecycleAndParentAggregation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	parent := seedDistribution(t, db, models.DistributionApproved)
	sub := seedSubDistribution(t, db, parent.ID, models.SubDistributionCalculated)

	_, err := svc.ApproveSubDistribution(sub.SubDistributionID)
	require.NoError(t, err)

	paid, err := svc.MarkSubDistributionPaid(sub.SubDistributionID, "BANK-42", "bank_transfer")
	require.NoError(t, err)
	require.Equal(t, models.SubDistributionPaid, paid.Status)
	require.NotNil(t, paid.PaidToArtistAt)

	// The only sub-distribution is paid: the parent becomes paid
	var fresh models.RoyaltyDistribution
	require.NoError(t, db.First(&fresh, parent.ID).Error)
	require.Equal(t, models.DistributionPaid, fresh.Status)
	require.NotNil(t, fresh.PaidAt)
}

func TestParentPartiallyPaidWithMultipleSubs(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	parent := seedDistribution(t, db, models.DistributionApproved)
	first := seedSubDistribution(t, db, parent.ID, models.SubDistributionApproved)
	second := seedSubDistribution(t, db, parent.ID, models.SubDistributionApproved)

	_, err := svc.MarkSubDistributionPaid(first.SubDistributionID, "REF-1", "")
	require.NoError(t, err)

	var fresh models.RoyaltyDistribution
	require.NoError(t, db.First(&fresh, parent.ID).Error)
	require.Equal(t, models.DistributionPartiallyPaid, fresh.Status)

	_, err = svc.MarkSubDistributionPaid(second.SubDistributionID, "REF-2", "")
	require.NoError(t, err)

	require.NoError(t, db.First(&fresh, parent.ID).Error)
	require.Equal(t, models.DistributionPaid, fresh.Status)
}

func TestSubDistributionInvalidTransitions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	parent := seedDistribution(t, db, models.DistributionApproved)
	sub := seedSubDistribution(t, db, parent.ID, models.SubDistributionCalculated)

	// Paying an unapproved sub-distribution is not allowed
	_, err := svc.MarkSubDistributionPaid(sub.SubDistributionID, "REF", "")
	require.ErrorIs(t, err, models.ErrInvalidStatusTransition)

	_, err = svc.ApproveSubDistribution("no-such-id")
	require.ErrorIs(t, err, ErrDistributionNotFound)
}
