package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"finboard/internal/services"
)

// --- mock analytics service ---

type mockAnalyticsService struct {
	getSummaryFn           func(userID string) (*services.Summary, error)
	getMonthlySeriesFn     func(userID string) ([]services.MonthBucket, error)
	getCategoryBreakdownFn func(userID string) ([]services.CategoryShare, error)
	getMarketingROIFn      func(userID string) (*services.ROIReport, error)
	getBudgetUsageFn       func(userID string) ([]services.BudgetUsage, error)
}

func (m *mockAnalyticsService) GetSummary(userID string) (*services.Summary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(userID)
	}
	return &services.Summary{}, nil
}

func (m *mockAnalyticsService) GetMonthlySeries(userID string) ([]services.MonthBucket, error) {
	if m.getMonthlySeriesFn != nil {
		return m.getMonthlySeriesFn(userID)
	}
	return []services.MonthBucket{}, nil
}

func (m *mockAnalyticsService) GetCategoryBreakdown(userID string) ([]services.CategoryShare, error) {
	if m.getCategoryBreakdownFn != nil {
		return m.getCategoryBreakdownFn(userID)
	}
	return []services.CategoryShare{}, nil
}

func (m *mockAnalyticsService) GetMarketingROI(userID string) (*services.ROIReport, error) {
	if m.getMarketingROIFn != nil {
		return m.getMarketingROIFn(userID)
	}
	return &services.ROIReport{}, nil
}

func (m *mockAnalyticsService) GetBudgetUsage(userID string) ([]services.BudgetUsage, error) {
	if m.getBudgetUsageFn != nil {
		return m.getBudgetUsageFn(userID)
	}
	return []services.BudgetUsage{}, nil
}

var _ services.AnalyticsServicer = (*mockAnalyticsService)(nil)

func setupAnalyticsRouter(handler *AnalyticsHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID("user-1"))
	auth.GET("/analytics/summary", handler.GetSummary)
	auth.GET("/analytics/roi", handler.GetMarketingROI)
	auth.GET("/analytics/usage", handler.GetBudgetUsage)
	return r
}

func TestAnalyticsHandler_GetSummary(t *testing.T) {
	svc := &mockAnalyticsService{
		getSummaryFn: func(_ string) (*services.Summary, error) {
			return &services.Summary{Income: 50000, Expenses: 15000, Balance: 35000, MarketingTotal: 3000, TransactionCount: 3}, nil
		},
	}
	r := setupAnalyticsRouter(NewAnalyticsHandler(svc))

	rec := doRequest(r, "GET", "/analytics/summary", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	summary := parseJSON(t, rec)["summary"].(map[string]any)
	if summary["balance"].(float64) != 35000 {
		t.Errorf("expected balance 35000, got %v", summary["balance"])
	}
}

func TestAnalyticsHandler_GetMarketingROI(t *testing.T) {
	svc := &mockAnalyticsService{
		getMarketingROIFn: func(_ string) (*services.ROIReport, error) {
			return &services.ROIReport{Investment: 30000, AttributedRevenue: 60000, ROI: 100}, nil
		},
	}
	r := setupAnalyticsRouter(NewAnalyticsHandler(svc))

	rec := doRequest(r, "GET", "/analytics/roi", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	roi := parseJSON(t, rec)["roi"].(map[string]any)
	if roi["roi"].(float64) != 100 {
		t.Errorf("expected ROI 100, got %v", roi["roi"])
	}
}

func TestAnalyticsHandler_GetBudgetUsage(t *testing.T) {
	svc := &mockAnalyticsService{
		getBudgetUsageFn: func(_ string) ([]services.BudgetUsage, error) {
			return []services.BudgetUsage{
				{CategoryID: "c1", Name: "Personnel", Allocated: 500000, Spent: 450000, Percentage: 90, Status: services.UsageCaution},
			}, nil
		},
	}
	r := setupAnalyticsRouter(NewAnalyticsHandler(svc))

	rec := doRequest(r, "GET", "/analytics/usage", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	usage := parseJSON(t, rec)["usage"].([]any)
	if len(usage) != 1 {
		t.Fatalf("expected 1 usage row, got %d", len(usage))
	}
	row := usage[0].(map[string]any)
	if row["status"] != "caution" {
		t.Errorf("expected caution status, got %v", row["status"])
	}
}
