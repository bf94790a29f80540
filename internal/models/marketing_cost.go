package models

import "time"

// MarketingCostType represents the kind of marketing spend.
type MarketingCostType string

const (
	CostTypeImpression   MarketingCostType = "impression"
	CostTypeDigital      MarketingCostType = "digital"
	CostTypeSubscription MarketingCostType = "subscription"
	CostTypeVisual       MarketingCostType = "visual"
	CostTypePlatform     MarketingCostType = "platform"
)

// MarketingCost represents a single marketing expense. Each cost projects to
// exactly one synthetic expense transaction in the merged feed. Cost is in
// cents. Details is a type-specific attribute bag (print run, platform name,
// billing cycle, ...).
type MarketingCost struct {
	Base
	Owned
	Type        MarketingCostType `gorm:"not null" json:"type"`
	Name        string            `gorm:"not null" json:"name"`
	Description string            `json:"description"`
	Cost        int64             `gorm:"type:bigint;not null" json:"cost"`
	Date        time.Time         `gorm:"not null" json:"date"`
	Details     map[string]any    `gorm:"serializer:json" json:"details,omitempty"`
}
