package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	apperrors "finboard/internal/errors"
	"finboard/internal/models"
	"finboard/internal/pagination"
	"finboard/internal/store"
)

// transactionService aggregates manual transactions with the synthetic
// transactions derived from marketing costs. It owns no storage of its own
// beyond the two underlying collections.
type transactionService struct {
	transactions *store.Collection[*models.Transaction]
	costs        *store.Collection[*models.MarketingCost]
}

// NewTransactionService creates a new TransactionServicer over the two
// fixed collections.
func NewTransactionService(
	transactions *store.Collection[*models.Transaction],
	costs *store.Collection[*models.MarketingCost],
) TransactionServicer {
	return &transactionService{transactions: transactions, costs: costs}
}

func validTransactionType(t models.TransactionType) bool {
	return t == models.TransactionTypeIncome || t == models.TransactionTypeExpense
}

// CreateTransaction records a new manual transaction.
func (s *transactionService) CreateTransaction(
	userID string,
	txType models.TransactionType,
	amount int64,
	category, description string,
	date time.Time,
) (*models.Transaction, error) {
	if !validTransactionType(txType) {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if amount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount cannot be negative")
	}
	if category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	if date.IsZero() {
		date = time.Now()
	}

	doc := &models.Transaction{
		Type:        txType,
		Amount:      amount,
		Category:    category,
		Description: description,
		Date:        date,
		Source:      models.SourceManual,
	}
	if _, err := s.transactions.Add(userID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// mergeSorted merges manual and synthetic transactions by date descending.
// The sort is stable with manual transactions listed first, so manual wins
// exact-date ties.
func mergeSorted(manual, synthetic []*models.Transaction) []*models.Transaction {
	merged := make([]*models.Transaction, 0, len(manual)+len(synthetic))
	merged = append(merged, manual...)
	merged = append(merged, synthetic...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})
	return merged
}

// GetMergedTransactions returns the full manual∪synthetic feed, date
// descending.
func (s *transactionService) GetMergedTransactions(userID string) ([]*models.Transaction, error) {
	manual, err := s.transactions.List(userID)
	if err != nil {
		return nil, err
	}
	costs, err := s.costs.List(userID)
	if err != nil {
		return nil, err
	}
	return mergeSorted(manual, ProjectCosts(costs)), nil
}

func matchesFilter(tx *models.Transaction, filter TransactionFilter) bool {
	if filter.FromDate != nil && tx.Date.Before(*filter.FromDate) {
		return false
	}
	if filter.ToDate != nil && tx.Date.After(*filter.ToDate) {
		return false
	}
	if filter.Type != nil && tx.Type != *filter.Type {
		return false
	}
	if filter.Source != nil && tx.Source != *filter.Source {
		return false
	}
	if filter.Category != "" && tx.Category != filter.Category {
		return false
	}
	return true
}

// GetUserTransactions returns a filtered, paginated page of the merged feed.
// Pagination happens in memory because the feed is assembled from two
// collections.
func (s *transactionService) GetUserTransactions(
	userID string,
	page pagination.PageRequest,
	filter TransactionFilter,
) (*pagination.PageResponse[*models.Transaction], error) {
	merged, err := s.GetMergedTransactions(userID)
	if err != nil {
		return nil, err
	}

	filtered := merged[:0:0]
	for _, tx := range merged {
		if matchesFilter(tx, filter) {
			filtered = append(filtered, tx)
		}
	}

	result := pagination.PaginateSlice(filtered, page)
	return &result, nil
}

// GetTransactionByID resolves either a manual transaction or, for
// "marketing_" ids, the projection of the underlying cost.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	if IsSyntheticID(transactionID) {
		costID := strings.TrimPrefix(transactionID, SyntheticIDPrefix)
		cost, err := s.costs.Get(userID, costID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.ErrTransactionNotFound
			}
			return nil, err
		}
		return SyntheticTransaction(cost), nil
	}

	tx, err := s.transactions.Get(userID, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// UpdateTransaction merges partial fields into a manual transaction.
// Synthetic transactions are read-only through this API.
func (s *transactionService) UpdateTransaction(userID, transactionID string, fields map[string]any) (*models.Transaction, error) {
	if IsSyntheticID(transactionID) {
		return nil, apperrors.ErrSyntheticReadOnly
	}
	if t, ok := fields["type"]; ok {
		if !validTransactionType(models.TransactionType(t.(string))) {
			return nil, apperrors.ErrInvalidTransactionType
		}
	}
	if a, ok := fields["amount"]; ok {
		if a.(int64) < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount cannot be negative")
		}
	}

	if err := s.transactions.Update(userID, transactionID, fields); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, err
	}
	return s.GetTransactionByID(userID, transactionID)
}

// DeleteTransaction removes a manual transaction. Synthetic transactions
// can only disappear by deleting their marketing cost.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	if IsSyntheticID(transactionID) {
		return apperrors.ErrSyntheticReadOnly
	}
	if err := s.transactions.Delete(userID, transactionID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrTransactionNotFound
		}
		return err
	}
	return nil
}

// StreamTransactions delivers the merged feed, re-derived on every change
// to either underlying snapshot. Deliveries from the two subscriptions are
// not ordered relative to each other; the feed converges once both settle.
func (s *transactionService) StreamTransactions(ctx context.Context, userID string) (<-chan TransactionFeed, func()) {
	manualCh, cancelManual := s.transactions.Subscribe(ctx, userID)
	costCh, cancelCosts := s.costs.Subscribe(ctx, userID)

	out := make(chan TransactionFeed, 1)
	cancel := func() {
		cancelManual()
		cancelCosts()
	}

	go func() {
		defer close(out)

		var manual, synthetic []*models.Transaction
		emit := func(err error) bool {
			feed := TransactionFeed{Transactions: mergeSorted(manual, synthetic), Err: err}
			select {
			case out <- feed:
				return err == nil
			case <-ctx.Done():
				return false
			}
		}

		for manualCh != nil || costCh != nil {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-manualCh:
				if !ok {
					manualCh = nil
					continue
				}
				manual = snap.Docs
				if !emit(snap.Err) {
					return
				}
			case snap, ok := <-costCh:
				if !ok {
					costCh = nil
					continue
				}
				synthetic = ProjectCosts(snap.Docs)
				if !emit(snap.Err) {
					return
				}
			}
		}
	}()

	return out, cancel
}
