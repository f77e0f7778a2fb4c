package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CentralPoolAccountID is the fixed account id of the singleton clearing account.
const CentralPoolAccountID = "ROYALTYPOOL-CENTRAL"

// DefaultCurrency is used for every account unless overridden
const DefaultCurrency = "GHS"

// BankAccount is a rights holder's cash-out wallet
type BankAccount struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	AccountID string          `gorm:"size:20;uniqueIndex" json:"account_id"`
	Balance   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance"`
	Currency  string          `gorm:"size:50" json:"currency"`
	IsActive  bool            `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (BankAccount) TableName() string {
	return "bank_accounts"
}

// BeforeCreate assigns an account id if the caller did not set one
func (a *BankAccount) BeforeCreate(tx *gorm.DB) error {
	if a.AccountID == "" {
		a.AccountID = generateID("ACC")
	}
	if a.Currency == "" {
		a.Currency = DefaultCurrency
	}
	return nil
}

// Transaction is an append-only ledger row for a bank account.
// Rows are never updated or deleted after creation.
type Transaction struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	BankAccountID uint            `gorm:"not null;index" json:"bank_account_id"`
	TransactionID string          `gorm:"size:20;uniqueIndex" json:"transaction_id"`
	Type          string          `gorm:"size:50;not null" json:"type"` // deposit, withdrawal
	Status        string          `gorm:"size:100" json:"status"`
	PaymentMethod string          `gorm:"size:100" json:"payment_method"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency      string          `gorm:"size:50" json:"currency"`
	Description   string          `gorm:"type:text" json:"description"`
	Timestamp     time.Time       `json:"timestamp" gorm:"autoCreateTime"`
	BankAccount   *BankAccount    `gorm:"foreignKey:BankAccountID" json:"bank_account,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.TransactionID == "" {
		t.TransactionID = generateID("TXN")
	}
	if t.Currency == "" {
		t.Currency = DefaultCurrency
	}
	return nil
}

// PlatformAccount is the central clearing pool. Exactly one row exists,
// keyed by CentralPoolAccountID; a unique index backstops the singleton.
type PlatformAccount struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	AccountID     string          `gorm:"size:50;uniqueIndex" json:"account_id"`
	Balance       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance"`
	TotalReceived decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_received"`
	TotalPaidOut  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_paid_out"`
	Currency      string          `gorm:"size:50" json:"currency"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (PlatformAccount) TableName() string {
	return "platform_accounts"
}

// PlatformTransaction is an append-only ledger row for the central pool
type PlatformTransaction struct {
	ID                uint            `gorm:"primarykey" json:"id"`
	PlatformAccountID uint            `gorm:"not null;index" json:"platform_account_id"`
	TransactionID     string          `gorm:"size:20;uniqueIndex" json:"transaction_id"`
	Type              string          `gorm:"size:50;not null" json:"type"` // station_payment, payout, adjustment, refund
	Amount            decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	StationID         *uint           `gorm:"index" json:"station_id,omitempty"`
	PlayLogID         *uint           `gorm:"index" json:"play_log_id,omitempty"`
	BankAccountID     *uint           `json:"bank_account_id,omitempty"`
	WithdrawalID      *uint           `json:"withdrawal_id,omitempty"`
	Description       string          `gorm:"type:text" json:"description"`
	Timestamp         time.Time       `json:"timestamp" gorm:"autoCreateTime"`
}

func (PlatformTransaction) TableName() string {
	return "platform_transactions"
}

func (t *PlatformTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.TransactionID == "" {
		t.TransactionID = generateID("PLT")
	}
	return nil
}

// StationAccount is a station's prepaid spending account, one per station,
// created lazily the first time money moves for that station.
type StationAccount struct {
	ID                   uint            `gorm:"primarykey" json:"id"`
	StationID            uint            `gorm:"not null;uniqueIndex" json:"station_id"`
	AccountID            string          `gorm:"size:20;uniqueIndex" json:"account_id"`
	Balance              decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance"`
	Currency             string          `gorm:"size:50" json:"currency"`
	AllowNegativeBalance bool            `gorm:"default:false" json:"allow_negative_balance"`
	CreditLimit          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"credit_limit"`
	TotalSpent           decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_spent"`
	TotalPlays           int             `gorm:"default:0" json:"total_plays"`
	IsActive             bool            `gorm:"default:true" json:"is_active"`
	CreatedAt            time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt            time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	Station              *Station        `gorm:"foreignKey:StationID" json:"station,omitempty"`
}

func (StationAccount) TableName() string {
	return "station_accounts"
}

func (a *StationAccount) BeforeCreate(tx *gorm.DB) error {
	if a.AccountID == "" {
		a.AccountID = generateID("STA")
	}
	if a.Currency == "" {
		a.Currency = DefaultCurrency
	}
	return nil
}

// Floor returns the lowest balance this account may reach
func (a *StationAccount) Floor() decimal.Decimal {
	if a.AllowNegativeBalance {
		return a.CreditLimit.Neg()
	}
	return decimal.Zero
}

// StationTransaction is an append-only ledger row for a station account
type StationTransaction struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	StationAccountID uint            `gorm:"not null;index" json:"station_account_id"`
	TransactionID    string          `gorm:"size:20;uniqueIndex" json:"transaction_id"`
	Type             string          `gorm:"size:50;not null" json:"type"` // deposit, play_charge, refund, adjustment
	Amount           decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	PlayLogID        *uint           `gorm:"index" json:"play_log_id,omitempty"`
	Description      string          `gorm:"type:text" json:"description"`
	Timestamp        time.Time       `json:"timestamp" gorm:"autoCreateTime"`
}

func (StationTransaction) TableName() string {
	return "station_transactions"
}

func (t *StationTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.TransactionID == "" {
		t.TransactionID = generateID("STX")
	}
	return nil
}

func generateID(prefix string) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "-" + strings.ToUpper(hex[:10])
}
