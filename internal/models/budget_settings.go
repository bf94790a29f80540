package models

// BudgetSettings holds the single monthly budget value for a user.
// MonthlyBudget is in cents and must be positive.
type BudgetSettings struct {
	Base
	Owned
	MonthlyBudget int64 `gorm:"type:bigint;not null" json:"monthly_budget"`
}
