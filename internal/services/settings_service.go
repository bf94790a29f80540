package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "finboard/internal/errors"
	"finboard/internal/models"
	"finboard/internal/store"
)

// DefaultMonthlyBudget is seeded on a user's first settings read, in cents.
const DefaultMonthlyBudget int64 = 500000

// settingsService owns the single monthly budget value per user.
type settingsService struct {
	db       *gorm.DB
	settings *store.Collection[*models.BudgetSettings]
}

// NewSettingsService creates a new SettingsServicer.
func NewSettingsService(db *gorm.DB, settings *store.Collection[*models.BudgetSettings]) SettingsServicer {
	return &settingsService{db: db, settings: settings}
}

// GetSettings returns the user's budget settings, seeding the default on
// first read.
func (s *settingsService) GetSettings(userID string) (*models.BudgetSettings, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var settings models.BudgetSettings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	seeded := &models.BudgetSettings{MonthlyBudget: DefaultMonthlyBudget}
	if _, err := s.settings.Add(userID, seeded); err != nil {
		return nil, err
	}
	return seeded, nil
}

// UpdateMonthlyBudget replaces the monthly budget value.
func (s *settingsService) UpdateMonthlyBudget(userID string, monthlyBudget int64) (*models.BudgetSettings, error) {
	if monthlyBudget <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly budget must be positive")
	}

	settings, err := s.GetSettings(userID)
	if err != nil {
		return nil, err
	}

	if err := s.settings.Update(userID, settings.ID, map[string]any{"monthly_budget": monthlyBudget}); err != nil {
		return nil, err
	}
	settings.MonthlyBudget = monthlyBudget
	return settings, nil
}
