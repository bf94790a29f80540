package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// TransactionSource tells where a transaction comes from. Manual
// transactions are stored and owned by the user; marketing transactions are
// synthesized from marketing costs and never stored independently.
type TransactionSource string

const (
	SourceManual    TransactionSource = "manual"
	SourceMarketing TransactionSource = "marketing"
)

// Transaction represents a financial transaction in the system.
// Amount is in cents.
type Transaction struct {
	Base
	Owned
	Type        TransactionType   `gorm:"not null" json:"type"`
	Amount      int64             `gorm:"type:bigint;not null" json:"amount"`
	Category    string            `gorm:"not null" json:"category"`
	Description string            `json:"description"`
	Date        time.Time         `gorm:"not null" json:"date"`
	Source      TransactionSource `gorm:"not null;default:manual" json:"source"`
}
