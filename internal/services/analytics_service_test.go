package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"finboard/internal/models"
	"finboard/internal/store"
	"finboard/internal/testutil"
)

func TestUsagePercentage(t *testing.T) {
	if got := UsagePercentage(5000, 10000); got != 50 {
		t.Errorf("expected 50, got %v", got)
	}
	if got := UsagePercentage(15000, 10000); got != 150 {
		t.Errorf("expected 150, got %v", got)
	}
	if got := UsagePercentage(5000, 0); got != 0 {
		t.Errorf("expected 0 for zero allocation, got %v", got)
	}
}

func TestStatusForUsage(t *testing.T) {
	cases := []struct {
		pct  float64
		want UsageStatus
	}{
		{0, UsageNormal},
		{80, UsageNormal},
		{80.5, UsageCaution},
		{100, UsageCaution},
		{100.1, UsageOverBudget},
	}
	for _, c := range cases {
		if got := StatusForUsage(c.pct); got != c.want {
			t.Errorf("StatusForUsage(%v) = %q, want %q", c.pct, got, c.want)
		}
	}
}

func TestComputeROI(t *testing.T) {
	if got := ComputeROI(30000, 20000); got != 50 {
		t.Errorf("expected 50, got %v", got)
	}
	if got := ComputeROI(10000, 20000); got != -50 {
		t.Errorf("expected -50, got %v", got)
	}
	if got := ComputeROI(10000, 0); got != 0 {
		t.Errorf("expected 0 for zero investment, got %v", got)
	}
}

func TestAttributedRevenue(t *testing.T) {
	transactions := []*models.Transaction{
		{Type: models.TransactionTypeIncome, Amount: 10000, Category: "Ventes"},      // 60%
		{Type: models.TransactionTypeIncome, Amount: 10000, Category: "Conseil"},     // 30%
		{Type: models.TransactionTypeIncome, Amount: 10000, Category: "Subventions"}, // unattributed
		{Type: models.TransactionTypeExpense, Amount: 10000, Category: "Ventes"},     // expense, ignored
	}

	if got := AttributedRevenue(transactions); got != 9000 {
		t.Errorf("expected 9000, got %d", got)
	}
}

func TestMonthlyBuckets(t *testing.T) {
	year := 2026
	transactions := []*models.Transaction{
		{Type: models.TransactionTypeIncome, Amount: 10000, Date: time.Date(year, 3, 5, 0, 0, 0, 0, time.UTC)},
		{Type: models.TransactionTypeExpense, Amount: 4000, Date: time.Date(year, 3, 20, 0, 0, 0, 0, time.UTC), Source: models.SourceManual},
		{Type: models.TransactionTypeExpense, Amount: 1500, Date: time.Date(year, 3, 25, 0, 0, 0, 0, time.UTC), Source: models.SourceMarketing},
		{Type: models.TransactionTypeExpense, Amount: 9999, Date: time.Date(year-1, 3, 25, 0, 0, 0, 0, time.UTC)},
	}

	buckets := MonthlyBuckets(transactions, year)
	if len(buckets) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(buckets))
	}

	march := buckets[2]
	if march.Income != 10000 {
		t.Errorf("expected March income 10000, got %d", march.Income)
	}
	if march.Expenses != 5500 {
		t.Errorf("expected March expenses 5500, got %d", march.Expenses)
	}
	if march.Marketing != 1500 {
		t.Errorf("expected March marketing 1500, got %d", march.Marketing)
	}

	// The prior-year expense must not leak into any bucket.
	var total int64
	for _, b := range buckets {
		total += b.Expenses
	}
	if total != 5500 {
		t.Errorf("expected only current-year expenses, total %d", total)
	}
}

func TestCategoryShares(t *testing.T) {
	transactions := []*models.Transaction{
		{Type: models.TransactionTypeExpense, Amount: 6000, Category: "Marketing Digital"},
		{Type: models.TransactionTypeExpense, Amount: 3000, Category: "Salaires"},
		{Type: models.TransactionTypeExpense, Amount: 1000, Category: "Inconnu"},
		{Type: models.TransactionTypeIncome, Amount: 5000, Category: "Ventes"},
	}

	shares := CategoryShares(transactions)
	if len(shares) != 3 {
		t.Fatalf("expected 3 shares, got %d", len(shares))
	}
	if shares[0].Category != MarketingCategoryName || shares[0].Amount != 6000 {
		t.Errorf("expected Marketing 6000 first, got %s %d", shares[0].Category, shares[0].Amount)
	}
	if shares[0].Percentage != 60 {
		t.Errorf("expected 60%%, got %v", shares[0].Percentage)
	}
	if shares[1].Category != "Personnel" {
		t.Errorf("expected Personnel second, got %s", shares[1].Category)
	}
	if shares[2].Category != CatchAllCategoryName {
		t.Errorf("expected %s last, got %s", CatchAllCategoryName, shares[2].Category)
	}
}

func setupAnalyticsService(t *testing.T) (AnalyticsServicer, TransactionServicer, MarketingServicer, *gorm.DB, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	txStore := store.NewCollection(db, "transactions", func() *models.Transaction { return &models.Transaction{} })
	costStore := store.NewCollection(db, "marketing_costs", func() *models.MarketingCost { return &models.MarketingCost{} })
	planStore := store.NewCollection(db, "budget_plans", func() *models.BudgetPlan { return &models.BudgetPlan{} })

	mkSvc := NewMarketingService(costStore)
	txSvc := NewTransactionService(txStore, costStore)
	budgetSvc := NewBudgetService(db, planStore, txSvc, mkSvc)
	return NewAnalyticsService(txSvc, mkSvc, budgetSvc), txSvc, mkSvc, db, func() { testutil.TeardownTestDB(t, db) }
}

func TestGetSummary(t *testing.T) {
	svc, txSvc, mkSvc, _, teardown := setupAnalyticsService(t)
	defer teardown()
	user := "user-summary-1"

	_, err := txSvc.CreateTransaction(user, models.TransactionTypeIncome, 50000, "Ventes", "", time.Now())
	testutil.AssertNoError(t, err)
	_, err = txSvc.CreateTransaction(user, models.TransactionTypeExpense, 12000, "Personnel", "", time.Now())
	testutil.AssertNoError(t, err)
	_, err = mkSvc.CreateCost(user, models.CostTypeDigital, "Ads", "", 3000, time.Now(), nil)
	testutil.AssertNoError(t, err)

	summary, err := svc.GetSummary(user)
	testutil.AssertNoError(t, err)

	if summary.Income != 50000 {
		t.Errorf("expected income 50000, got %d", summary.Income)
	}
	// The synthetic marketing transaction counts as an expense.
	if summary.Expenses != 15000 {
		t.Errorf("expected expenses 15000, got %d", summary.Expenses)
	}
	if summary.Balance != 35000 {
		t.Errorf("expected balance 35000, got %d", summary.Balance)
	}
	if summary.MarketingTotal != 3000 {
		t.Errorf("expected marketing total 3000, got %d", summary.MarketingTotal)
	}
	if summary.TransactionCount != 3 {
		t.Errorf("expected 3 transactions, got %d", summary.TransactionCount)
	}
}

func TestGetMarketingROI(t *testing.T) {
	svc, txSvc, mkSvc, _, teardown := setupAnalyticsService(t)
	defer teardown()
	user := "user-roi-1"

	_, err := txSvc.CreateTransaction(user, models.TransactionTypeIncome, 100000, "Ventes", "", time.Now())
	testutil.AssertNoError(t, err)
	_, err = mkSvc.CreateCost(user, models.CostTypeDigital, "Ads", "", 30000, time.Now(), nil)
	testutil.AssertNoError(t, err)

	report, err := svc.GetMarketingROI(user)
	testutil.AssertNoError(t, err)

	if report.Investment != 30000 {
		t.Errorf("expected investment 30000, got %d", report.Investment)
	}
	if report.AttributedRevenue != 60000 {
		t.Errorf("expected attributed revenue 60000, got %d", report.AttributedRevenue)
	}
	if report.ROI != 100 {
		t.Errorf("expected ROI 100, got %v", report.ROI)
	}
}

func TestGetBudgetUsage(t *testing.T) {
	svc, txSvc, _, db, teardown := setupAnalyticsService(t)
	defer teardown()
	user := "user-usage-1"

	// Personnel default allocation is 500000; 450000 spent is caution
	// territory. Marketing (allocated 300000) sits at half, which is normal.
	_, err := txSvc.CreateTransaction(user, models.TransactionTypeExpense, 450000, "Personnel", "", time.Now())
	testutil.AssertNoError(t, err)
	testutil.CreateTestMarketingCost(t, db, user, models.CostTypeDigital, 150000)

	usage, err := svc.GetBudgetUsage(user)
	testutil.AssertNoError(t, err)
	if len(usage) != 5 {
		t.Fatalf("expected 5 usage rows, got %d", len(usage))
	}

	var personnel *BudgetUsage
	for i := range usage {
		if usage[i].Name == "Personnel" {
			personnel = &usage[i]
		}
	}
	if personnel == nil {
		t.Fatal("Personnel usage row not found")
	}
	if personnel.Percentage != 90 {
		t.Errorf("expected 90%%, got %v", personnel.Percentage)
	}
	if personnel.Status != UsageCaution {
		t.Errorf("expected caution status, got %q", personnel.Status)
	}

	var marketing *BudgetUsage
	for i := range usage {
		if usage[i].Name == MarketingCategoryName {
			marketing = &usage[i]
		}
	}
	if marketing == nil {
		t.Fatal("Marketing usage row not found")
	}
	if marketing.Percentage != 50 {
		t.Errorf("expected 50%%, got %v", marketing.Percentage)
	}
	if marketing.Status != UsageNormal {
		t.Errorf("expected normal status, got %q", marketing.Status)
	}
}

func TestGetMonthlySeries(t *testing.T) {
	svc, _, _, db, teardown := setupAnalyticsService(t)
	defer teardown()
	user := "user-monthly-1"
	year := time.Now().Year()

	testutil.CreateTestTransactionOn(t, db, user, models.TransactionTypeIncome, "Ventes", 20000,
		time.Date(year, time.January, 10, 0, 0, 0, 0, time.UTC))
	testutil.CreateTestTransactionOn(t, db, user, models.TransactionTypeExpense, "Personnel", 7000,
		time.Date(year, time.February, 3, 0, 0, 0, 0, time.UTC))
	testutil.CreateTestMarketingCostOn(t, db, user, models.CostTypeDigital, 2500,
		time.Date(year, time.February, 5, 0, 0, 0, 0, time.UTC))
	// Prior-year activity stays out of the series.
	testutil.CreateTestTransactionOn(t, db, user, models.TransactionTypeExpense, "Personnel", 9999,
		time.Date(year-1, time.February, 3, 0, 0, 0, 0, time.UTC))

	months, err := svc.GetMonthlySeries(user)
	testutil.AssertNoError(t, err)
	if len(months) != 12 {
		t.Fatalf("expected 12 months, got %d", len(months))
	}

	jan, feb := months[0], months[1]
	if jan.Income != 20000 {
		t.Errorf("expected January income 20000, got %d", jan.Income)
	}
	// February expenses include the synthetic marketing transaction.
	if feb.Expenses != 9500 {
		t.Errorf("expected February expenses 9500, got %d", feb.Expenses)
	}
	if feb.Marketing != 2500 {
		t.Errorf("expected February marketing 2500, got %d", feb.Marketing)
	}
}
