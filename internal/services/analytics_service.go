package services

import (
	"sort"
	"time"

	"finboard/internal/models"
)

// UsageStatus classifies a category's spending against its allocation.
type UsageStatus string

const (
	UsageOverBudget UsageStatus = "over_budget"
	UsageCaution    UsageStatus = "caution"
	UsageNormal     UsageStatus = "normal"
)

// Summary aggregates the merged feed for the dashboard header. Amounts in
// cents.
type Summary struct {
	Income           int64 `json:"income"`
	Expenses         int64 `json:"expenses"`
	Balance          int64 `json:"balance"`
	MarketingTotal   int64 `json:"marketing_total"`
	TransactionCount int   `json:"transaction_count"`
}

// MonthBucket is one month of the current-year time series.
type MonthBucket struct {
	Month     int    `json:"month"`
	Label     string `json:"label"`
	Income    int64  `json:"income"`
	Expenses  int64  `json:"expenses"`
	Marketing int64  `json:"marketing"`
}

// CategoryShare is one slice of the expense breakdown.
type CategoryShare struct {
	Category   string  `json:"category"`
	Amount     int64   `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// ROIReport is the marketing return-on-investment view.
type ROIReport struct {
	Investment        int64   `json:"investment"`
	AttributedRevenue int64   `json:"attributed_revenue"`
	ROI               float64 `json:"roi"`
}

// BudgetUsage is one category's allocation vs spending.
type BudgetUsage struct {
	CategoryID string      `json:"category_id"`
	Name       string      `json:"name"`
	Allocated  int64       `json:"allocated"`
	Spent      int64       `json:"spent"`
	Percentage float64     `json:"percentage"`
	Status     UsageStatus `json:"status"`
}

// Revenue attribution fractions for the ROI view. These are a documented
// heuristic, not a computed model: 60% of revenue in marketing-driven
// categories and 30% in support-driven categories is credited to the
// marketing investment.
var revenueAttribution = map[string]float64{
	"Ventes":          0.6,
	"Ventes en ligne": 0.6,
	"Abonnements":     0.6,
	"Prestations":     0.3,
	"Conseil":         0.3,
	"Support":         0.3,
}

// UsagePercentage returns spent/allocated as a percentage, 0 when the
// allocation is 0.
func UsagePercentage(spent, allocated int64) float64 {
	if allocated == 0 {
		return 0
	}
	return float64(spent) / float64(allocated) * 100
}

// StatusForUsage classifies a usage percentage.
func StatusForUsage(percentage float64) UsageStatus {
	switch {
	case percentage > 100:
		return UsageOverBudget
	case percentage > 80:
		return UsageCaution
	default:
		return UsageNormal
	}
}

// ComputeROI returns (revenue−investment)/investment as a percentage,
// 0 when the investment is 0.
func ComputeROI(revenue, investment int64) float64 {
	if investment == 0 {
		return 0
	}
	return float64(revenue-investment) / float64(investment) * 100
}

// AttributedRevenue sums the marketing-attributable share of income
// transactions according to the fixed attribution table.
func AttributedRevenue(transactions []*models.Transaction) int64 {
	var total int64
	for _, tx := range transactions {
		if tx.Type != models.TransactionTypeIncome {
			continue
		}
		if fraction, ok := revenueAttribution[tx.Category]; ok {
			total += int64(float64(tx.Amount) * fraction)
		}
	}
	return total
}

// MonthlyBuckets groups the merged feed by calendar month of the given
// year. Transactions from other years are excluded by construction.
func MonthlyBuckets(transactions []*models.Transaction, year int) []MonthBucket {
	buckets := make([]MonthBucket, 12)
	for i := range buckets {
		buckets[i].Month = i + 1
		buckets[i].Label = time.Month(i + 1).String()
	}

	for _, tx := range transactions {
		if tx.Date.Year() != year {
			continue
		}
		b := &buckets[int(tx.Date.Month())-1]
		switch tx.Type {
		case models.TransactionTypeIncome:
			b.Income += tx.Amount
		case models.TransactionTypeExpense:
			b.Expenses += tx.Amount
			if tx.Source == models.SourceMarketing {
				b.Marketing += tx.Amount
			}
		}
	}

	return buckets
}

// CategoryShares groups expenses by budget category (via the static
// mapping table) and computes each group's share of total expenses,
// largest first.
func CategoryShares(transactions []*models.Transaction) []CategoryShare {
	amounts := make(map[string]int64)
	var total int64
	for _, tx := range transactions {
		if tx.Type != models.TransactionTypeExpense {
			continue
		}
		amounts[MapBudgetCategory(tx.Category)] += tx.Amount
		total += tx.Amount
	}

	shares := make([]CategoryShare, 0, len(amounts))
	for category, amount := range amounts {
		var pct float64
		if total > 0 {
			pct = float64(amount) / float64(total) * 100
		}
		shares = append(shares, CategoryShare{Category: category, Amount: amount, Percentage: pct})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Amount != shares[j].Amount {
			return shares[i].Amount > shares[j].Amount
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}

// analyticsService computes the derived dashboard views. Everything here is
// recomputed per call from current aggregates; nothing is persisted.
type analyticsService struct {
	transactions TransactionServicer
	marketing    MarketingServicer
	budgets      BudgetServicer
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(transactions TransactionServicer, marketing MarketingServicer, budgets BudgetServicer) AnalyticsServicer {
	return &analyticsService{
		transactions: transactions,
		marketing:    marketing,
		budgets:      budgets,
	}
}

// GetSummary aggregates the merged feed into dashboard header totals.
func (s *analyticsService) GetSummary(userID string) (*Summary, error) {
	merged, err := s.transactions.GetMergedTransactions(userID)
	if err != nil {
		return nil, err
	}
	total, err := s.marketing.GetMarketingTotal(userID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{MarketingTotal: total, TransactionCount: len(merged)}
	for _, tx := range merged {
		switch tx.Type {
		case models.TransactionTypeIncome:
			summary.Income += tx.Amount
		case models.TransactionTypeExpense:
			summary.Expenses += tx.Amount
		}
	}
	summary.Balance = summary.Income - summary.Expenses
	return summary, nil
}

// GetMonthlySeries buckets the merged feed by month of the current year.
func (s *analyticsService) GetMonthlySeries(userID string) ([]MonthBucket, error) {
	merged, err := s.transactions.GetMergedTransactions(userID)
	if err != nil {
		return nil, err
	}
	return MonthlyBuckets(merged, time.Now().Year()), nil
}

// GetCategoryBreakdown groups expenses by mapped budget category.
func (s *analyticsService) GetCategoryBreakdown(userID string) ([]CategoryShare, error) {
	merged, err := s.transactions.GetMergedTransactions(userID)
	if err != nil {
		return nil, err
	}
	return CategoryShares(merged), nil
}

// GetMarketingROI reports attributed revenue against the marketing total.
func (s *analyticsService) GetMarketingROI(userID string) (*ROIReport, error) {
	merged, err := s.transactions.GetMergedTransactions(userID)
	if err != nil {
		return nil, err
	}
	investment, err := s.marketing.GetMarketingTotal(userID)
	if err != nil {
		return nil, err
	}

	revenue := AttributedRevenue(merged)
	return &ROIReport{
		Investment:        investment,
		AttributedRevenue: revenue,
		ROI:               ComputeROI(revenue, investment),
	}, nil
}

// GetBudgetUsage classifies every plan category's spending.
func (s *analyticsService) GetBudgetUsage(userID string) ([]BudgetUsage, error) {
	plan, err := s.budgets.GetPlan(userID)
	if err != nil {
		return nil, err
	}

	usage := make([]BudgetUsage, 0, len(plan.Categories))
	for _, cat := range plan.Categories {
		pct := UsagePercentage(cat.Spent, cat.Allocated)
		usage = append(usage, BudgetUsage{
			CategoryID: cat.ID,
			Name:       cat.Name,
			Allocated:  cat.Allocated,
			Spent:      cat.Spent,
			Percentage: pct,
			Status:     StatusForUsage(pct),
		})
	}
	return usage, nil
}
