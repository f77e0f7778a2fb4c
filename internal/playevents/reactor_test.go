package playevents

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"royaltypool/internal/ledger"
	"royaltypool/internal/models"
	"royaltypool/internal/moneyflow"
)

type okValidator struct{}

func (okValidator) ValidatePublishingAuthority(db *gorm.DB, w *models.RoyaltyWithdrawal) (bool, string) {
	return true, "ok"
}

func setupReactor(t *testing.T) (*gorm.DB, *Reactor) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Track{},
		&models.RoyaltyRate{},
		&models.BankAccount{},
		&models.Transaction{},
		&models.PlatformAccount{},
		&models.PlatformTransaction{},
		&models.StationAccount{},
		&models.StationTransaction{},
		&models.PlayLog{},
		&models.FailedPlayCharge{},
	))

	flows := moneyflow.NewService(db, okValidator{})
	return db, NewReactor(db, flows)
}

func fundStation(t *testing.T, db *gorm.DB, stationID uint, amount int64) {
	t.Helper()
	account, err := ledger.GetOrCreateStationAccount(db, stationID)
	require.NoError(t, err)
	require.NoError(t, ledger.FundStation(db, account, decimal.NewFromInt(amount), "top-up"))
}

func TestRecordConfirmedPlayChargesStation(t *testing.T) {
	db, reactor := setupReactor(t)
	fundStation(t, db, 4, 100)

	play, err := reactor.RecordConfirmedPlay(ConfirmedPlayInput{
		ExternalID:    "det-001",
		TrackID:       1,
		StationID:     4,
		RoyaltyAmount: decimal.RequireFromString("25.00"),
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentCharged, play.PaymentStatus)
	require.NotNil(t, play.ChargedAt)

	var account models.StationAccount
	require.NoError(t, db.Where("station_id = ?", 4).First(&account).Error)
	require.True(t, account.Balance.Equal(decimal.NewFromInt(75)), account.Balance.String())
}

func TestRecordConfirmedPlayIdempotent(t *testing.T) {
	db, reactor := setupReactor(t)
	fundStation(t, db, 4, 100)

	input := ConfirmedPlayInput{
		ExternalID:    "det-002",
		TrackID:       1,
		StationID:     4,
		RoyaltyAmount: decimal.RequireFromString("25.00"),
	}

	first, err := reactor.RecordConfirmedPlay(input)
	require.NoError(t, err)

	// Redelivery returns the existing record and never charges twice
	second, err := reactor.RecordConfirmedPlay(input)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var account models.StationAccount
	require.NoError(t, db.Where("station_id = ?", 4).First(&account).Error)
	require.True(t, account.Balance.Equal(decimal.NewFromInt(75)), account.Balance.String())

	var count int64
	require.NoError(t, db.Model(&models.PlayLog{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestChargeFailureNeverLosesThePlay(t *testing.T) {
	db, reactor := setupReactor(t)

	// Unfunded station: the charge fails but the play still exists
	play, err := reactor.RecordConfirmedPlay(ConfirmedPlayInput{
		ExternalID:    "det-003",
		TrackID:       1,
		StationID:     5,
		RoyaltyAmount: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentFailed, play.PaymentStatus)
	require.NotEmpty(t, play.PaymentError)

	var failure models.FailedPlayCharge
	require.NoError(t, db.Where("play_log_id = ?", play.ID).First(&failure).Error)
	require.True(t, failure.WillRetry)
}

func TestZeroAmountPlayResolvesRate(t *testing.T) {
	db, reactor := setupReactor(t)
	fundStation(t, db, 5, 10)

	// No rate rows exist, so the hard floor applies
	play, err := reactor.RecordConfirmedPlay(ConfirmedPlayInput{
		ExternalID: "det-004",
		TrackID:    1,
		StationID:  5,
	})
	require.NoError(t, err)
	require.True(t, play.RoyaltyAmount.Equal(decimal.RequireFromString("2.00")), play.RoyaltyAmount.String())
	require.Equal(t, models.PaymentCharged, play.PaymentStatus)

	var account models.StationAccount
	require.NoError(t, db.Where("station_id = ?", 5).First(&account).Error)
	require.True(t, account.Balance.Equal(decimal.NewFromInt(8)), account.Balance.String())
}

func TestPlaysWithoutExternalIDAreIndependent(t *testing.T) {
	db, reactor := setupReactor(t)
	fundStation(t, db, 9, 100)

	input := ConfirmedPlayInput{
		TrackID:       1,
		StationID:     9,
		RoyaltyAmount: decimal.RequireFromString("10.00"),
	}

	// Without an external id there is nothing to deduplicate on: each
	// delivery is a distinct play and each one charges the station.
	first, err := reactor.RecordConfirmedPlay(input)
	require.NoError(t, err)
	second, err := reactor.RecordConfirmedPlay(input)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
	require.Nil(t, second.ExternalID)

	var count int64
	require.NoError(t, db.Model(&models.PlayLog{}).Count(&count).Error)
	require.EqualValues(t, 2, count)

	var account models.StationAccount
	require.NoError(t, db.Where("station_id = ?", 9).First(&account).Error)
	require.True(t, account.Balance.Equal(decimal.NewFromInt(80)), account.Balance.String())
}

func TestRetryFailedCharges(t *testing.T) {
	db, reactor := setupReactor(t)

	play, err := reactor.RecordConfirmedPlay(ConfirmedPlayInput{
		ExternalID:    "det-005",
		TrackID:       1,
		StationID:     6,
		RoyaltyAmount: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentFailed, play.PaymentStatus)

	// Nothing recovers while the account stays unfunded
	recovered, err := reactor.RetryFailedCharges()
	require.NoError(t, err)
	require.Zero(t, recovered)

	fundStation(t, db, 6, 50)

	recovered, err = reactor.RetryFailedCharges()
	require.NoError(t, err)
	require.Equal(t, 1, recovered)

	var fresh models.PlayLog
	require.NoError(t, db.First(&fresh, play.ID).Error)
	require.Equal(t, models.PaymentCharged, fresh.PaymentStatus)

	var failure models.FailedPlayCharge
	require.NoError(t, db.Where("play_log_id = ?", play.ID).First(&failure).Error)
	require.False(t, failure.WillRetry)

	// A later run has nothing left to do
	recovered, err = reactor.RetryFailedCharges()
	require.NoError(t, err)
	require.Zero(t, recovered)

	var account models.StationAccount
	require.NoError(t, db.Where("station_id = ?", 6).First(&account).Error)
	require.True(t, account.Balance.Equal(decimal.NewFromInt(40)), account.Balance.String())
}
