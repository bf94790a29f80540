package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"finboard/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTransaction creates a manual transaction with the given type,
// category and amount (in cents).
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, txType models.TransactionType, category string, amount int64) *models.Transaction {
	t.Helper()
	return CreateTestTransactionOn(t, db, userID, txType, category, amount, time.Now())
}

// CreateTestTransactionOn creates a manual transaction dated at the given time.
func CreateTestTransactionOn(t *testing.T, db *gorm.DB, userID string, txType models.TransactionType, category string, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		Owned:       models.Owned{UserID: userID},
		Type:        txType,
		Amount:      amount,
		Category:    category,
		Description: fmt.Sprintf("Test transaction %d", nextID()),
		Date:        date,
		Source:      models.SourceManual,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestMarketingCost creates a marketing cost of the given type and
// amount (in cents).
func CreateTestMarketingCost(t *testing.T, db *gorm.DB, userID string, costType models.MarketingCostType, cost int64) *models.MarketingCost {
	t.Helper()
	return CreateTestMarketingCostOn(t, db, userID, costType, cost, time.Now())
}

// CreateTestMarketingCostOn creates a marketing cost dated at the given time.
func CreateTestMarketingCostOn(t *testing.T, db *gorm.DB, userID string, costType models.MarketingCostType, cost int64, date time.Time) *models.MarketingCost {
	t.Helper()

	mc := &models.MarketingCost{
		Owned: models.Owned{UserID: userID},
		Type:  costType,
		Name:  fmt.Sprintf("Test Campaign %d", nextID()),
		Cost:  cost,
		Date:  date,
	}
	if err := db.Create(mc).Error; err != nil {
		t.Fatalf("failed to create test marketing cost: %v", err)
	}
	return mc
}

// CreateTestPlan creates a budget plan with the given categories.
func CreateTestPlan(t *testing.T, db *gorm.DB, userID string, categories []models.CategoryBudget) *models.BudgetPlan {
	t.Helper()

	plan := &models.BudgetPlan{
		Owned:      models.Owned{UserID: userID},
		Categories: categories,
		Version:    1,
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("failed to create test budget plan: %v", err)
	}
	return plan
}

// CreateTestSettings creates budget settings with the given monthly budget (in cents).
func CreateTestSettings(t *testing.T, db *gorm.DB, userID string, monthlyBudget int64) *models.BudgetSettings {
	t.Helper()

	settings := &models.BudgetSettings{
		Owned:         models.Owned{UserID: userID},
		MonthlyBudget: monthlyBudget,
	}
	if err := db.Create(settings).Error; err != nil {
		t.Fatalf("failed to create test budget settings: %v", err)
	}
	return settings
}
