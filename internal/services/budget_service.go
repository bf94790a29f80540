package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "finboard/internal/errors"
	"finboard/internal/models"
	"finboard/internal/store"
	"finboard/internal/uuid"
)

// Category names with special roles in the recompute rule.
const (
	// MarketingCategoryName is seeded with the external marketing total
	// instead of matched transactions.
	MarketingCategoryName = "Marketing"
	// CatchAllCategoryName absorbs expenses whose category matches no
	// existing budget category.
	CatchAllCategoryName = "Divers"
)

// DefaultCategories is the plan seeded for a user on first read.
// Allocations are in cents.
func DefaultCategories() []models.CategoryBudget {
	return []models.CategoryBudget{
		{ID: uuid.New(), Name: MarketingCategoryName, Allocated: 300000, Color: "#8B5CF6"},
		{ID: uuid.New(), Name: "Personnel", Allocated: 500000, Color: "#3B82F6"},
		{ID: uuid.New(), Name: "Fournitures", Allocated: 150000, Color: "#10B981"},
		{ID: uuid.New(), Name: "Logistique", Allocated: 100000, Color: "#F59E0B"},
		{ID: uuid.New(), Name: CatchAllCategoryName, Allocated: 120000, Color: "#6B7280"},
	}
}

// RecomputeSpent derives every category's spent amount from the transaction
// feed and the external marketing total. The input slice is not modified.
//
// Rules, in order:
//  1. Marketing starts at the external total, every other category at 0.
//  2. Each expense transaction whose category exactly equals an existing
//     category name adds its amount there. The Marketing name is skipped,
//     since the external total already covers it.
//  3. Each expense transaction matching no category falls through to the
//     catch-all category, or is dropped when none exists.
//
// The function is idempotent: rerunning it on the same input yields the
// same spent values.
func RecomputeSpent(categories []models.CategoryBudget, transactions []*models.Transaction, marketingTotal int64) []models.CategoryBudget {
	out := make([]models.CategoryBudget, len(categories))
	copy(out, categories)

	byName := make(map[string]int, len(out))
	for i := range out {
		byName[out[i].Name] = i
		if out[i].Name == MarketingCategoryName {
			out[i].Spent = marketingTotal
		} else {
			out[i].Spent = 0
		}
	}

	catchAll, hasCatchAll := byName[CatchAllCategoryName]

	for _, tx := range transactions {
		if tx.Type != models.TransactionTypeExpense {
			continue
		}
		if i, ok := byName[tx.Category]; ok {
			if tx.Category != MarketingCategoryName {
				out[i].Spent += tx.Amount
			}
			continue
		}
		if hasCatchAll {
			out[catchAll].Spent += tx.Amount
		}
	}

	return out
}

// budgetService owns the per-user budget plan document.
type budgetService struct {
	db           *gorm.DB
	plans        *store.Collection[*models.BudgetPlan]
	transactions TransactionServicer
	marketing    MarketingServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(
	db *gorm.DB,
	plans *store.Collection[*models.BudgetPlan],
	transactions TransactionServicer,
	marketing MarketingServicer,
) BudgetServicer {
	return &budgetService{
		db:           db,
		plans:        plans,
		transactions: transactions,
		marketing:    marketing,
	}
}

// loadPlan fetches the raw plan document, seeding the default plan on first
// read. Spent values are whatever was last persisted; callers wanting
// current numbers go through withSpent.
func (s *budgetService) loadPlan(userID string) (*models.BudgetPlan, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var plan models.BudgetPlan
	err := s.db.Where("user_id = ?", userID).First(&plan).Error
	if err == nil {
		return &plan, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	seeded := &models.BudgetPlan{Categories: DefaultCategories()}
	if _, err := s.plans.Add(userID, seeded); err != nil {
		return nil, err
	}
	return seeded, nil
}

// withSpent recomputes the plan's spent values from the current merged
// feed and marketing total.
func (s *budgetService) withSpent(plan *models.BudgetPlan) (*models.BudgetPlan, error) {
	merged, err := s.transactions.GetMergedTransactions(plan.UserID)
	if err != nil {
		return nil, err
	}
	total, err := s.marketing.GetMarketingTotal(plan.UserID)
	if err != nil {
		return nil, err
	}
	plan.Categories = RecomputeSpent(plan.Categories, merged, total)
	return plan, nil
}

// GetPlan returns the user's plan with freshly derived spent values,
// seeding the default plan on first read.
func (s *budgetService) GetPlan(userID string) (*models.BudgetPlan, error) {
	plan, err := s.loadPlan(userID)
	if err != nil {
		return nil, err
	}
	return s.withSpent(plan)
}

// save overwrites the whole category document, guarded by the plan's
// version token. A stale version means another session wrote first; the
// caller gets a conflict instead of silently winning.
func (s *budgetService) save(plan *models.BudgetPlan) error {
	expected := plan.Version
	res := s.db.Model(plan).
		Where("version = ?", expected).
		Select("categories", "version").
		Updates(&models.BudgetPlan{Categories: plan.Categories, Version: expected + 1})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrPlanConflict
	}

	plan.Version = expected + 1
	s.plans.NotifyChanged("updated", plan.ID, plan.UserID)
	return nil
}

// UpdateCategoryBudget changes a single category's allocation.
func (s *budgetService) UpdateCategoryBudget(userID, categoryID string, allocated int64) (*models.BudgetPlan, error) {
	if allocated < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "allocation cannot be negative")
	}

	plan, err := s.loadPlan(userID)
	if err != nil {
		return nil, err
	}

	cat := plan.Category(categoryID)
	if cat == nil {
		return nil, apperrors.ErrCategoryNotFound
	}
	cat.Allocated = allocated

	if err := s.save(plan); err != nil {
		return nil, err
	}
	return s.withSpent(plan)
}

// AddCategory appends a new category to the plan.
func (s *budgetService) AddCategory(userID, name, color string, allocated int64) (*models.BudgetPlan, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if allocated < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "allocation cannot be negative")
	}

	plan, err := s.loadPlan(userID)
	if err != nil {
		return nil, err
	}

	if plan.CategoryByName(name) != nil {
		return nil, apperrors.ErrDuplicateCategory
	}

	plan.Categories = append(plan.Categories, models.CategoryBudget{
		ID:        uuid.New(),
		Name:      name,
		Allocated: allocated,
		Color:     color,
	})

	if err := s.save(plan); err != nil {
		return nil, err
	}
	return s.withSpent(plan)
}

// UpdateCategory renames or recolors an existing category.
func (s *budgetService) UpdateCategory(userID, categoryID, name, color string) (*models.BudgetPlan, error) {
	plan, err := s.loadPlan(userID)
	if err != nil {
		return nil, err
	}

	cat := plan.Category(categoryID)
	if cat == nil {
		return nil, apperrors.ErrCategoryNotFound
	}

	if name != "" && name != cat.Name {
		if plan.CategoryByName(name) != nil {
			return nil, apperrors.ErrDuplicateCategory
		}
		cat.Name = name
	}
	if color != "" {
		cat.Color = color
	}

	if err := s.save(plan); err != nil {
		return nil, err
	}
	return s.withSpent(plan)
}

// DeleteCategory removes a category from the plan.
func (s *budgetService) DeleteCategory(userID, categoryID string) (*models.BudgetPlan, error) {
	plan, err := s.loadPlan(userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range plan.Categories {
		if plan.Categories[i].ID == categoryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.ErrCategoryNotFound
	}
	plan.Categories = append(plan.Categories[:idx], plan.Categories[idx+1:]...)

	if err := s.save(plan); err != nil {
		return nil, err
	}
	return s.withSpent(plan)
}

// StreamPlan delivers the plan with recomputed spent values whenever the
// plan document, the transaction feed, or the marketing costs change. The
// three sources are independent; intermediate deliveries may reflect one
// change before another, converging once all snapshots settle.
func (s *budgetService) StreamPlan(ctx context.Context, userID string) (<-chan PlanSnapshot, func()) {
	planCh, cancelPlan := s.plans.Subscribe(ctx, userID)
	feedCh, cancelFeed := s.transactions.StreamTransactions(ctx, userID)

	out := make(chan PlanSnapshot, 1)
	cancel := func() {
		cancelPlan()
		cancelFeed()
	}

	go func() {
		defer close(out)

		emit := func() bool {
			plan, err := s.GetPlan(userID)
			snap := PlanSnapshot{Plan: plan, Err: err}
			select {
			case out <- snap:
				return err == nil
			case <-ctx.Done():
				return false
			}
		}

		for planCh != nil || feedCh != nil {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-planCh:
				if !ok {
					planCh = nil
					continue
				}
				if snap.Err != nil {
					select {
					case out <- PlanSnapshot{Err: snap.Err}:
					case <-ctx.Done():
					}
					return
				}
				if !emit() {
					return
				}
			case feed, ok := <-feedCh:
				if !ok {
					feedCh = nil
					continue
				}
				if feed.Err != nil {
					select {
					case out <- PlanSnapshot{Err: feed.Err}:
					case <-ctx.Done():
					}
					return
				}
				if !emit() {
					return
				}
			}
		}
	}()

	return out, cancel
}
