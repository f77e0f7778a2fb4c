// Package ledger owns every account balance on the platform. All other
// packages mutate balances only through these operations; each mutation
// locks the account row and writes its append-only transaction record in
// the same database transaction.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"royaltypool/internal/models"
)

// Transaction row types
const (
	TxDeposit        = "deposit"
	TxWithdrawal     = "withdrawal"
	TxPlayCharge     = "play_charge"
	TxStationPayment = "station_payment"
	TxPayout         = "payout"
)

// GetOrCreatePool returns the singleton central pool account, creating it
// on first use. The unique index on account_id backstops the singleton.
func GetOrCreatePool(db *gorm.DB) (*models.PlatformAccount, error) {
	var pool models.PlatformAccount
	err := db.Where(models.PlatformAccount{AccountID: models.CentralPoolAccountID}).
		Attrs(models.PlatformAccount{
			Balance:       decimal.Zero,
			TotalReceived: decimal.Zero,
			TotalPaidOut:  decimal.Zero,
			Currency:      models.DefaultCurrency,
			IsActive:      true,
		}).
		FirstOrCreate(&pool).Error
	if err != nil {
		return nil, fmt.Errorf("get or create central pool: %w", err)
	}
	return &pool, nil
}

// GetOrCreateStationAccount returns the station's prepaid account,
// creating it lazily with a zero balance and no credit.
func GetOrCreateStationAccount(db *gorm.DB, stationID uint) (*models.StationAccount, error) {
	var account models.StationAccount
	err := db.Where(models.StationAccount{StationID: stationID}).
		Attrs(models.StationAccount{
			Balance:     decimal.Zero,
			CreditLimit: decimal.Zero,
			TotalSpent:  decimal.Zero,
			Currency:    models.DefaultCurrency,
			IsActive:    true,
		}).
		FirstOrCreate(&account).Error
	if err != nil {
		return nil, fmt.Errorf("get or create station account: %w", err)
	}
	return &account, nil
}

// GetOrCreateWallet returns the user's bank account, creating it lazily.
// Used on the funding path only; payout never creates wallets.
func GetOrCreateWallet(db *gorm.DB, userID uint) (*models.BankAccount, error) {
	var account models.BankAccount
	err := db.Where(models.BankAccount{UserID: userID}).
		Attrs(models.BankAccount{
			Balance:  decimal.Zero,
			Currency: models.DefaultCurrency,
			IsActive: true,
		}).
		FirstOrCreate(&account).Error
	if err != nil {
		return nil, fmt.Errorf("get or create wallet: %w", err)
	}
	return &account, nil
}

// Deposit credits a wallet and records the transaction. Must run inside a
// database transaction supplied by the caller.
func Deposit(tx *gorm.DB, account *models.BankAccount, amount decimal.Decimal, description string) error {
	if amount.Cmp(decimal.Zero) <= 0 {
		return ErrInvalidAmount
	}

	var locked models.BankAccount
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, account.ID).Error; err != nil {
		return fmt.Errorf("lock wallet %d: %w", account.ID, err)
	}

	newBalance := locked.Balance.Add(amount)
	if err := tx.Model(&locked).Update("balance", newBalance).Error; err != nil {
		return err
	}

	record := models.Transaction{
		BankAccountID: locked.ID,
		Type:          TxDeposit,
		Amount:        amount,
		Currency:      locked.Currency,
		Description:   description,
	}
	if err := tx.Create(&record).Error; err != nil {
		return err
	}

	account.Balance = newBalance
	return nil
}

// Withdraw debits a wallet; the balance may never go below zero.
func Withdraw(tx *gorm.DB, account *models.BankAccount, amount decimal.Decimal, description string) error {
	if amount.Cmp(decimal.Zero) <= 0 {
		return ErrInvalidAmount
	}

	var locked models.BankAccount
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, account.ID).Error; err != nil {
		return fmt.Errorf("lock wallet %d: %w", account.ID, err)
	}

	if locked.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("wallet %s: balance %s, requested %s: %w",
			locked.AccountID, locked.Balance, amount, ErrInsufficientFunds)
	}

	newBalance := locked.Balance.Sub(amount)
	if err := tx.Model(&locked).Update("balance", newBalance).Error; err != nil {
		return err
	}

	record := models.Transaction{
		BankAccountID: locked.ID,
		Type:          TxWithdrawal,
		Status:        "Paid",
		Amount:        amount,
		Currency:      locked.Currency,
		Description:   description,
	}
	if err := tx.Create(&record).Error; err != nil {
		return err
	}

	account.Balance = newBalance
	return nil
}

// CreditPool receives a station payment into the central pool
func CreditPool(tx *gorm.DB, amount decimal.Decimal, stationID uint, playLogID *uint, description string) error {
	if amount.Cmp(decimal.Zero) <= 0 {
		return ErrInvalidAmount
	}

	pool, err := GetOrCreatePool(tx)
	if err != nil {
		return err
	}

	var locked models.PlatformAccount
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, pool.ID).Error; err != nil {
		return fmt.Errorf("lock central pool: %w", err)
	}

	if err := tx.Model(&locked).Updates(map[string]interface{}{
		"balance":        locked.Balance.Add(amount),
		"total_received": locked.TotalReceived.Add(amount),
	}).Error; err != nil {
		return err
	}

	record := models.PlatformTransaction{
		PlatformAccountID: locked.ID,
		Type:              TxStationPayment,
		Amount:            amount,
		StationID:         &stationID,
		PlayLogID:         playLogID,
		Description:       description,
	}
	return tx.Create(&record).Error
}

// DebitPoolToUser pays out of the central pool into a wallet. The pool
// never pays out more than its current balance. The wallet deposit happens
// in the same transaction, so the pool debit and the wallet credit are one
// atomic unit.
func DebitPoolToUser(tx *gorm.DB, amount decimal.Decimal, wallet *models.BankAccount, withdrawalID *uint, description string) error {
	if amount.Cmp(decimal.Zero) <= 0 {
		return ErrInvalidAmount
	}

	pool, err := GetOrCreatePool(tx)
	if err != nil {
		return err
	}

	var locked models.PlatformAccount
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, pool.ID).Error; err != nil {
		return fmt.Errorf("lock central pool: %w", err)
	}

	if locked.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("central pool: available %s, requested %s: %w",
			locked.Balance, amount, ErrInsufficientFunds)
	}

	if err := tx.Model(&locked).Updates(map[string]interface{}{
		"balance":        locked.Balance.Sub(amount),
		"total_paid_out": locked.TotalPaidOut.Add(amount),
	}).Error; err != nil {
		return err
	}

	record := models.PlatformTransaction{
		PlatformAccountID: locked.ID,
		Type:              TxPayout,
		Amount:            amount,
		BankAccountID:     &wallet.ID,
		WithdrawalID:      withdrawalID,
		Description:       description,
	}
	if err := tx.Create(&record).Error; err != nil {
		return err
	}

	return Deposit(tx, wallet, amount, description)
}

// ChargeStation debits the station for a play and credits the central pool
// with the same amount in the same transaction. Station debit implies pool
// credit; the two can never diverge.
func ChargeStation(tx *gorm.DB, account *models.StationAccount, play *models.PlayLog, amount decimal.Decimal) error {
	if amount.Cmp(decimal.Zero) <= 0 {
		return ErrInvalidAmount
	}

	var locked models.StationAccount
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, account.ID).Error; err != nil {
		return fmt.Errorf("lock station account %d: %w", account.ID, err)
	}

	newBalance := locked.Balance.Sub(amount)
	if !locked.AllowNegativeBalance && locked.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("station %s: balance %s, required %s: %w",
			locked.AccountID, locked.Balance, amount, ErrInsufficientFunds)
	}
	if locked.AllowNegativeBalance && newBalance.Cmp(locked.CreditLimit.Neg()) < 0 {
		return fmt.Errorf("station %s: balance %s, limit %s: %w",
			locked.AccountID, locked.Balance, locked.CreditLimit, ErrCreditLimitExceeded)
	}

	if err := tx.Model(&locked).Updates(map[string]interface{}{
		"balance":     newBalance,
		"total_spent": locked.TotalSpent.Add(amount),
		"total_plays": gorm.Expr("total_plays + 1"),
	}).Error; err != nil {
		return err
	}

	record := models.StationTransaction{
		StationAccountID: locked.ID,
		Type:             TxPlayCharge,
		Amount:           amount,
		PlayLogID:        &play.ID,
		Description:      fmt.Sprintf("Charge for play %d", play.ID),
	}
	if err := tx.Create(&record).Error; err != nil {
		return err
	}

	if err := CreditPool(tx, amount, locked.StationID, &play.ID,
		fmt.Sprintf("Payment from station %d for play %d", locked.StationID, play.ID)); err != nil {
		return err
	}

	account.Balance = newBalance
	account.TotalSpent = locked.TotalSpent.Add(amount)
	account.TotalPlays = locked.TotalPlays + 1
	return nil
}

// FundStation credits a station account, used by deposit approval and
// admin top-ups.
func FundStation(tx *gorm.DB, account *models.StationAccount, amount decimal.Decimal, description string) error {
	if amount.Cmp(decimal.Zero) <= 0 {
		return ErrInvalidAmount
	}

	var locked models.StationAccount
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, account.ID).Error; err != nil {
		return fmt.Errorf("lock station account %d: %w", account.ID, err)
	}

	newBalance := locked.Balance.Add(amount)
	if err := tx.Model(&locked).Update("balance", newBalance).Error; err != nil {
		return err
	}

	if description == "" {
		description = "Account top-up"
	}
	record := models.StationTransaction{
		StationAccountID: locked.ID,
		Type:             TxDeposit,
		Amount:           amount,
		Description:      description,
	}
	if err := tx.Create(&record).Error; err != nil {
		return err
	}

	account.Balance = newBalance
	return nil
}
