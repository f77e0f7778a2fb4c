package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"royaltypool/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.BankAccount{},
		&models.Transaction{},
		&models.PlatformAccount{},
		&models.PlatformTransaction{},
		&models.StationAccount{},
		&models.StationTransaction{},
		&models.PlayLog{},
	))
	return db
}

func newPlay(t *testing.T, db *gorm.DB, stationID uint, amount string) *models.PlayLog {
	t.Helper()
	play := models.PlayLog{
		TrackID:            1,
		StationID:          stationID,
		RoyaltyAmount:      decimal.RequireFromString(amount),
		VerificationStatus: models.VerificationVerified,
		PaymentStatus:      models.PaymentPending,
		RoyaltyStatus:      models.RoyaltyPending,
	}
	require.NoError(t, db.Create(&play).Error)
	return &play
}

func TestGetOrCreatePoolIsSingleton(t *testing.T) {
	db := setupTestDB(t)

	first, err := GetOrCreatePool(db)
	require.NoError(t, err)
	second, err := GetOrCreatePool(db)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, models.CentralPoolAccountID, first.AccountID)
	require.True(t, first.Balance.IsZero())

	var count int64
	require.NoError(t, db.Model(&models.PlatformAccount{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestFundAndChargeStation(t *testing.T) {
	db := setupTestDB(t)

	account, err := GetOrCreateStationAccount(db, 7)
	require.NoError(t, err)
	require.NoError(t, FundStation(db, account, decimal.NewFromInt(100), "initial top-up"))
	require.True(t, account.Balance.Equal(decimal.NewFromInt(100)), account.Balance.String())

	play := newPlay(t, db, 7, "25.00")
	require.NoError(t, ChargeStation(db, account, play, play.RoyaltyAmount))

	require.True(t, account.Balance.Equal(decimal.NewFromInt(75)), account.Balance.String())
	require.True(t, account.TotalSpent.Equal(decimal.NewFromInt(25)))
	require.Equal(t, 1, account.TotalPlays)

	// Station debit implies pool credit with the same amount
	pool, err := GetOrCreatePool(db)
	require.NoError(t, err)
	require.True(t, pool.Balance.Equal(decimal.NewFromInt(25)), pool.Balance.String())
	require.True(t, pool.TotalReceived.Equal(decimal.NewFromInt(25)))

	var stationTxs []models.StationTransaction
	require.NoError(t, db.Where("station_account_id = ?", account.ID).Find(&stationTxs).Error)
	require.Len(t, stationTxs, 2) // deposit + play_charge

	var poolTxs []models.PlatformTransaction
	require.NoError(t, db.Where("type = ?", TxStationPayment).Find(&poolTxs).Error)
	require.Len(t, poolTxs, 1)
	require.NotNil(t, poolTxs[0].PlayLogID)
	require.Equal(t, play.ID, *poolTxs[0].PlayLogID)
}

func TestChargeStationInsufficientFunds(t *testing.T) {
	db := setupTestDB(t)

	account, err := GetOrCreateStationAccount(db, 3)
	require.NoError(t, err)
	play := newPlay(t, db, 3, "10.00")

	err = ChargeStation(db, account, play, play.RoyaltyAmount)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// Nothing moved
	var fresh models.StationAccount
	require.NoError(t, db.First(&fresh, account.ID).Error)
	require.True(t, fresh.Balance.IsZero())

	pool, err := GetOrCreatePool(db)
	require.NoError(t, err)
	require.True(t, pool.Balance.IsZero())
}

func TestChargeStationCreditLimit(t *testing.T) {
	db := setupTestDB(t)

	account, err := GetOrCreateStationAccount(db, 9)
	require.NoError(t, err)
	require.NoError(t, db.Model(account).Updates(map[string]interface{}{
		"allow_negative_balance": true,
		"credit_limit":           decimal.NewFromInt(50),
	}).Error)
	account.AllowNegativeBalance = true
	account.CreditLimit = decimal.NewFromInt(50)

	play := newPlay(t, db, 9, "30.00")
	require.NoError(t, ChargeStation(db, account, play, play.RoyaltyAmount))
	require.True(t, account.Balance.Equal(decimal.NewFromInt(-30)), account.Balance.String())

	second := newPlay(t, db, 9, "30.00")
	err = ChargeStation(db, account, second, second.RoyaltyAmount)
	require.ErrorIs(t, err, ErrCreditLimitExceeded)
}

func TestDepositAndWithdraw(t *testing.T) {
	db := setupTestDB(t)

	wallet, err := GetOrCreateWallet(db, 42)
	require.NoError(t, err)
	require.NoError(t, Deposit(db, wallet, decimal.NewFromInt(50), "royalty payout"))
	require.True(t, wallet.Balance.Equal(decimal.NewFromInt(50)))

	err = Withdraw(db, wallet, decimal.NewFromInt(80), "cash out")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	require.NoError(t, Withdraw(db, wallet, decimal.NewFromInt(30), "cash out"))
	require.True(t, wallet.Balance.Equal(decimal.NewFromInt(20)))

	var txs []models.Transaction
	require.NoError(t, db.Where("bank_account_id = ?", wallet.ID).Order("id").Find(&txs).Error)
	require.Len(t, txs, 2)
	require.Equal(t, TxDeposit, txs[0].Type)
	require.Equal(t, TxWithdrawal, txs[1].Type)
}

func TestInvalidAmountsRejected(t *testing.T) {
	db := setupTestDB(t)

	wallet, err := GetOrCreateWallet(db, 1)
	require.NoError(t, err)
	station, err := GetOrCreateStationAccount(db, 1)
	require.NoError(t, err)
	play := newPlay(t, db, 1, "0.00")

	require.ErrorIs(t, Deposit(db, wallet, decimal.Zero, ""), ErrInvalidAmount)
	require.ErrorIs(t, Deposit(db, wallet, decimal.NewFromInt(-5), ""), ErrInvalidAmount)
	require.ErrorIs(t, Withdraw(db, wallet, decimal.Zero, ""), ErrInvalidAmount)
	require.ErrorIs(t, FundStation(db, station, decimal.Zero, ""), ErrInvalidAmount)
	require.ErrorIs(t, ChargeStation(db, station, play, decimal.Zero), ErrInvalidAmount)
	require.ErrorIs(t, CreditPool(db, decimal.Zero, 1, nil, ""), ErrInvalidAmount)
	require.ErrorIs(t, DebitPoolToUser(db, decimal.Zero, wallet, nil, ""), ErrInvalidAmount)
}

func TestDebitPoolToUser(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, CreditPool(db, decimal.NewFromInt(100), 5, nil, "station payment"))

	wallet, err := GetOrCreateWallet(db, 11)
	require.NoError(t, err)

	require.NoError(t, DebitPoolToUser(db, decimal.NewFromInt(40), wallet, nil, "payout"))
	require.True(t, wallet.Balance.Equal(decimal.NewFromInt(40)))

	pool, err := GetOrCreatePool(db)
	require.NoError(t, err)
	require.True(t, pool.Balance.Equal(decimal.NewFromInt(60)), pool.Balance.String())
	require.True(t, pool.TotalPaidOut.Equal(decimal.NewFromInt(40)))

	// The pool never pays out more than it holds
	err = DebitPoolToUser(db, decimal.NewFromInt(100), wallet, nil, "payout")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	pool, err = GetOrCreatePool(db)
	require.NoError(t, err)
	require.True(t, pool.Balance.Equal(decimal.NewFromInt(60)))
}
