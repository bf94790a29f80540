package services

import (
	"context"
	"time"

	"finboard/internal/models"
	"finboard/internal/pagination"
	"finboard/internal/store"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// TransactionFilter holds optional filter parameters for the merged feed.
type TransactionFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Type     *models.TransactionType
	Source   *models.TransactionSource
	Category string
}

// TransactionFeed is one delivery of the merged manual+synthetic feed.
// Err is set when an underlying subscription failed; it is the last delivery.
type TransactionFeed struct {
	Transactions []*models.Transaction `json:"transactions"`
	Err          error                 `json:"-"`
}

// TransactionServicer is the aggregator over manual transactions and
// marketing-derived synthetic transactions.
type TransactionServicer interface {
	CreateTransaction(userID string, txType models.TransactionType, amount int64, category, description string, date time.Time) (*models.Transaction, error)
	GetMergedTransactions(userID string) ([]*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[*models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, fields map[string]any) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	StreamTransactions(ctx context.Context, userID string) (<-chan TransactionFeed, func())
}

// MarketingServicer defines the contract for marketing-cost business logic.
type MarketingServicer interface {
	CreateCost(userID string, costType models.MarketingCostType, name, description string, cost int64, date time.Time, details map[string]any) (*models.MarketingCost, error)
	GetUserCosts(userID string, page pagination.PageRequest) (*pagination.PageResponse[*models.MarketingCost], error)
	GetCostByID(userID, costID string) (*models.MarketingCost, error)
	UpdateCost(userID, costID string, fields map[string]any) (*models.MarketingCost, error)
	DeleteCost(userID, costID string) error
	GetMarketingTotal(userID string) (int64, error)
	StreamCosts(ctx context.Context, userID string) (<-chan store.Snapshot[*models.MarketingCost], func())
}

// PlanSnapshot is one delivery of the live budget plan with freshly
// recomputed spent values.
type PlanSnapshot struct {
	Plan *models.BudgetPlan `json:"plan"`
	Err  error              `json:"-"`
}

// BudgetServicer defines the contract for the budget category plan.
type BudgetServicer interface {
	GetPlan(userID string) (*models.BudgetPlan, error)
	UpdateCategoryBudget(userID, categoryID string, allocated int64) (*models.BudgetPlan, error)
	AddCategory(userID, name, color string, allocated int64) (*models.BudgetPlan, error)
	UpdateCategory(userID, categoryID, name, color string) (*models.BudgetPlan, error)
	DeleteCategory(userID, categoryID string) (*models.BudgetPlan, error)
	StreamPlan(ctx context.Context, userID string) (<-chan PlanSnapshot, func())
}

// SettingsServicer defines the contract for the monthly budget setting.
type SettingsServicer interface {
	GetSettings(userID string) (*models.BudgetSettings, error)
	UpdateMonthlyBudget(userID string, monthlyBudget int64) (*models.BudgetSettings, error)
}

// AnalyticsServicer defines the contract for the derived dashboard views.
type AnalyticsServicer interface {
	GetSummary(userID string) (*Summary, error)
	GetMonthlySeries(userID string) ([]MonthBucket, error)
	GetCategoryBreakdown(userID string) ([]CategoryShare, error)
	GetMarketingROI(userID string) (*ROIReport, error)
	GetBudgetUsage(userID string) ([]BudgetUsage, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
