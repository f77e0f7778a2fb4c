package withdrawal

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

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Artist{},
		&models.PublisherProfile{},
		&models.BankAccount{},
		&models.Transaction{},
		&models.PlatformAccount{},
		&models.PlatformTransaction{},
		&models.StationAccount{},
		&models.StationTransaction{},
		&models.RoyaltyWithdrawal{},
		&models.StationDepositRequest{},
	))
	return db
}

func newProcessor(db *gorm.DB) *Processor {
	return NewProcessor(db, moneyflow.NewService(db, LinkageValidator{}))
}

func seedSelfPublishedArtist(t *testing.T, db *gorm.DB) *models.Artist {
	t.Helper()
	artist := models.Artist{UserID: 10, StageName: "Kofi", SelfPublished: true}
	require.NoError(t, db.Create(&artist).Error)
	return &artist
}

func seedWithdrawal(t *testing.T, db *gorm.DB, requesterType string, artistID, publisherID *uint, amount string) *models.RoyaltyWithdrawal {
	t.Helper()
	w := models.RoyaltyWithdrawal{
		RequesterType: requesterType,
		ArtistID:      artistID,
		PublisherID:   publisherID,
		Amount:        decimal.RequireFromString(amount),
		Status:        models.WithdrawalPending,
	}
	require.NoError(t, db.Create(&w).Error)
	return &w
}

func TestProcessPayoutSelfPublishedArtist(t *testing.T) {
	db := setupTestDB(t)
	p := newProcessor(db)

	artist := seedSelfPublishedArtist(t, db)
	_, err := ledger.GetOrCreateWallet(db, artist.UserID)
	require.NoError(t, err)
	require.NoError(t, ledger.CreditPool(db, decimal.NewFromInt(100), 1, nil, "seed"))

	w := seedWithdrawal(t, db, models.RequesterArtist, &artist.ID, nil, "40.00")
	result, err := p.ProcessPayout(w.WithdrawalID, 99)
	require.NoError(t, err)
	require.True(t, result.WalletBalance.Equal(decimal.NewFromInt(40)))

	// Processing again hits the terminal-state guard
	_, err = p.ProcessPayout(w.WithdrawalID, 99)
	require.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestProcessPayoutManagedArtistDenied(t *testing.T) {
	db := setupTestDB(t)
	p := newProcessor(db)

	publisher := models.PublisherProfile{UserID: 500, CompanyName: "Accra Rights Ltd"}
	require.NoError(t, db.Create(&publisher).Error)
	artist := models.Artist{
		UserID: 10, StageName: "Kofi",
		SelfPublished: false, PublisherID: &publisher.ID,
	}
	require.NoError(t, db.Create(&artist).Error)
	_, err := ledger.GetOrCreateWallet(db, artist.UserID)
	require.NoError(t, err)
	require.NoError(t, ledger.CreditPool(db, decimal.NewFromInt(100), 1, nil, "seed"))

	// A managed artist cannot withdraw directly; the publisher collects
	w := seedWithdrawal(t, db, models.RequesterArtist, &artist.ID, nil, "40.00")
	_, err = p.ProcessPayout(w.WithdrawalID, 99)
	require.ErrorIs(t, err, moneyflow.ErrAuthorityInvalid)

	var fresh models.RoyaltyWithdrawal
	require.NoError(t, db.First(&fresh, w.ID).Error)
	require.Equal(t, models.WithdrawalPending, fresh.Status)
}

func TestProcessPayoutPublisherForManagedArtist(t *testing.T) {
	db := setupTestDB(t)
	p := newProcessor(db)

	publisher := models.PublisherProfile{UserID: 500, CompanyName: "Accra Rights Ltd"}
	require.NoError(t, db.Create(&publisher).Error)
	artist := models.Artist{
		UserID: 10, StageName: "Kofi",
		SelfPublished: false, PublisherID: &publisher.ID,
	}
	require.NoError(t, db.Create(&artist).Error)

	// The payout lands in the publisher's wallet
	_, err := ledger.GetOrCreateWallet(db, publisher.UserID)
	require.NoError(t, err)
	require.NoError(t, ledger.CreditPool(db, decimal.NewFromInt(100), 1, nil, "seed"))

	w := seedWithdrawal(t, db, models.RequesterPublisher, &artist.ID, &publisher.ID, "40.00")
	result, err := p.ProcessPayout(w.WithdrawalID, 99)
	require.NoError(t, err)
	require.EqualValues(t, 500, result.RecipientUserID)
	require.Equal(t, models.RequesterPublisher, result.RecipientType)
}

func TestProcessPayoutPublisherWithoutLinkageDenied(t *testing.T) {
	db := setupTestDB(t)
	p := newProcessor(db)

	publisher := models.PublisherProfile{UserID: 500, CompanyName: "Accra Rights Ltd"}
	require.NoError(t, db.Create(&publisher).Error)
	artist := seedSelfPublishedArtist(t, db) // not managed by this publisher
	_, err := ledger.GetOrCreateWallet(db, publisher.UserID)
	require.NoError(t, err)
	require.NoError(t, ledger.CreditPool(db, decimal.NewFromInt(100), 1, nil, "seed"))

	w := seedWithdrawal(t, db, models.RequesterPublisher, &artist.ID, &publisher.ID, "40.00")
	_, err = p.ProcessPayout(w.WithdrawalID, 99)
	require.ErrorIs(t, err, moneyflow.ErrAuthorityInvalid)
}

func TestProcessPayoutUnknownWithdrawal(t *testing.T) {
	db := setupTestDB(t)
	p := newProcessor(db)

	_, err := p.ProcessPayout("no-such-id", 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRejectWithdrawal(t *testing.T) {
	db := setupTestDB(t)
	p := newProcessor(db)

	artist := seedSelfPublishedArtist(t, db)
	w := seedWithdrawal(t, db, models.RequesterArtist, &artist.ID, nil, "40.00")

	_, err := p.Reject(w.WithdrawalID, 99, "")
	require.ErrorIs(t, err, ErrReasonRequired)

	rejected, err := p.Reject(w.WithdrawalID, 99, "unverified account")
	require.NoError(t, err)
	require.Equal(t, models.WithdrawalRejected, rejected.Status)
	require.Equal(t, "unverified account", rejected.RejectionReason)

	// Terminal states are immutable
	_, err = p.Reject(w.WithdrawalID, 99, "again")
	require.ErrorIs(t, err, ErrAlreadyFinalized)
	_, err = p.ProcessPayout(w.WithdrawalID, 99)
	require.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestApproveDeposit(t *testing.T) {
	db := setupTestDB(t)
	p := newProcessor(db)

	deposit := models.StationDepositRequest{
		StationID:     7,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: models.PaymentMethodMomo,
		Reference:     "MOMO-REF-1",
		Status:        models.DepositPending,
	}
	require.NoError(t, db.Create(&deposit).Error)

	approved, err := p.ApproveDeposit(deposit.ID, 99)
	require.NoError(t, err)
	require.Equal(t, models.DepositCompleted, approved.Status)

	var account models.StationAccount
	require.NoError(t, db.Where("station_id = ?", 7).First(&account).Error)
	require.True(t, account.Balance.Equal(decimal.NewFromInt(100)), account.Balance.String())

	var tx models.StationTransaction
	require.NoError(t, db.Where("station_account_id = ?", account.ID).First(&tx).Error)
	require.Contains(t, tx.Description, "MOMO-REF-1")

	// Approving twice never funds twice
	_, err = p.ApproveDeposit(deposit.ID, 99)
	require.ErrorIs(t, err, ErrAlreadyFinalized)

	require.NoError(t, db.Where("station_id = ?", 7).First(&account).Error)
	require.True(t, account.Balance.Equal(decimal.NewFromInt(100)))
}

func TestRejectDeposit(t *testing.T) {
	db := setupTestDB(t)
	p := newProcessor(db)

	deposit := models.StationDepositRequest{
		StationID:     8,
		Amount:        decimal.NewFromInt(50),
		PaymentMethod: models.PaymentMethodBankTransfer,
		Status:        models.DepositPending,
	}
	require.NoError(t, db.Create(&deposit).Error)

	_, err := p.RejectDeposit(deposit.ID, 99, "")
	require.ErrorIs(t, err, ErrReasonRequired)

	rejected, err := p.RejectDeposit(deposit.ID, 99, "reference mismatch")
	require.NoError(t, err)
	require.Equal(t, models.DepositRejected, rejected.Status)

	// No station account was ever created
	var count int64
	require.NoError(t, db.Model(&models.StationAccount{}).Where("station_id = ?", 8).Count(&count).Error)
	require.Zero(t, count)
}
