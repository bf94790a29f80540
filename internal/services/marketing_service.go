package services

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "finboard/internal/errors"
	"finboard/internal/models"
	"finboard/internal/pagination"
	"finboard/internal/store"
)

// SyntheticIDPrefix marks transactions derived from marketing costs. Such
// transactions are never stored; the id encodes the underlying cost.
const SyntheticIDPrefix = "marketing_"

// IsSyntheticID reports whether a transaction id denotes a marketing-derived
// transaction.
func IsSyntheticID(id string) bool {
	return strings.HasPrefix(id, SyntheticIDPrefix)
}

// SyntheticTransaction projects a marketing cost onto its expense
// transaction. The projection is deterministic and bijective: one cost,
// one transaction, same amount.
func SyntheticTransaction(cost *models.MarketingCost) *models.Transaction {
	return &models.Transaction{
		Base: models.Base{
			ID:        SyntheticIDPrefix + cost.ID,
			CreatedAt: cost.CreatedAt,
			UpdatedAt: cost.UpdatedAt,
		},
		Owned:       models.Owned{UserID: cost.UserID},
		Type:        models.TransactionTypeExpense,
		Amount:      cost.Cost,
		Category:    MarketingCategoryName,
		Description: cost.Name,
		Date:        cost.Date,
		Source:      models.SourceMarketing,
	}
}

// ProjectCosts projects every marketing cost onto its synthetic transaction.
func ProjectCosts(costs []*models.MarketingCost) []*models.Transaction {
	out := make([]*models.Transaction, 0, len(costs))
	for _, cost := range costs {
		out = append(out, SyntheticTransaction(cost))
	}
	return out
}

// TotalCost sums the cost amounts in cents.
func TotalCost(costs []*models.MarketingCost) int64 {
	var total int64
	for _, cost := range costs {
		total += cost.Cost
	}
	return total
}

func validCostType(t models.MarketingCostType) bool {
	switch t {
	case models.CostTypeImpression, models.CostTypeDigital, models.CostTypeSubscription,
		models.CostTypeVisual, models.CostTypePlatform:
		return true
	}
	return false
}

// marketingService handles marketing-cost business logic.
type marketingService struct {
	costs *store.Collection[*models.MarketingCost]
}

// NewMarketingService creates a new MarketingServicer.
func NewMarketingService(costs *store.Collection[*models.MarketingCost]) MarketingServicer {
	return &marketingService{costs: costs}
}

// CreateCost records a new marketing cost.
func (s *marketingService) CreateCost(
	userID string,
	costType models.MarketingCostType,
	name, description string,
	cost int64,
	date time.Time,
	details map[string]any,
) (*models.MarketingCost, error) {
	if !validCostType(costType) {
		return nil, apperrors.ErrInvalidCostType
	}
	if cost < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "cost cannot be negative")
	}
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if date.IsZero() {
		date = time.Now()
	}

	doc := &models.MarketingCost{
		Type:        costType,
		Name:        name,
		Description: description,
		Cost:        cost,
		Date:        date,
		Details:     details,
	}
	if _, err := s.costs.Add(userID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetUserCosts returns a paginated list of the user's marketing costs. Costs
// live in a single table, so the page is cut in SQL.
func (s *marketingService) GetUserCosts(userID string, page pagination.PageRequest) (*pagination.PageResponse[*models.MarketingCost], error) {
	result, err := s.costs.ListPage(userID, page)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCostByID returns a marketing cost by id if it belongs to the user.
func (s *marketingService) GetCostByID(userID, costID string) (*models.MarketingCost, error) {
	cost, err := s.costs.Get(userID, costID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrMarketingCostNotFound
		}
		return nil, err
	}
	return cost, nil
}

// UpdateCost merges partial fields into an existing marketing cost.
func (s *marketingService) UpdateCost(userID, costID string, fields map[string]any) (*models.MarketingCost, error) {
	if t, ok := fields["type"]; ok {
		if !validCostType(models.MarketingCostType(t.(string))) {
			return nil, apperrors.ErrInvalidCostType
		}
	}
	if c, ok := fields["cost"]; ok {
		if c.(int64) < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "cost cannot be negative")
		}
	}

	if err := s.costs.Update(userID, costID, fields); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrMarketingCostNotFound
		}
		return nil, err
	}
	return s.GetCostByID(userID, costID)
}

// DeleteCost removes a marketing cost. Its synthetic transaction disappears
// from the merged feed with the next snapshot.
func (s *marketingService) DeleteCost(userID, costID string) error {
	if err := s.costs.Delete(userID, costID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrMarketingCostNotFound
		}
		return err
	}
	return nil
}

// GetMarketingTotal returns the sum of all cost amounts for the user.
func (s *marketingService) GetMarketingTotal(userID string) (int64, error) {
	costs, err := s.costs.List(userID)
	if err != nil {
		return 0, err
	}
	return TotalCost(costs), nil
}

// StreamCosts subscribes to the user's marketing-cost snapshots.
func (s *marketingService) StreamCosts(ctx context.Context, userID string) (<-chan store.Snapshot[*models.MarketingCost], func()) {
	return s.costs.Subscribe(ctx, userID)
}
