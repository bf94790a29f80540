package models

// CategoryBudget is one named bucket inside a user's budget plan.
// Allocated is the user-editable limit; Spent is derived from the
// transaction feed and the marketing total, never edited directly.
// Amounts are in cents.
type CategoryBudget struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Allocated int64  `json:"allocated"`
	Spent     int64  `json:"spent"`
	Color     string `json:"color"`
}

// BudgetPlan holds all of a user's budget categories in a single document.
// Edits replace the whole Categories value; Version is an
// optimistic-concurrency token so a stale session cannot silently
// overwrite another session's edit.
type BudgetPlan struct {
	Base
	Owned
	Categories []CategoryBudget `gorm:"serializer:json" json:"categories"`
	Version    int64            `gorm:"not null;default:0" json:"version"`
}

// Category returns a pointer to the category with the given id, or nil.
func (p *BudgetPlan) Category(id string) *CategoryBudget {
	for i := range p.Categories {
		if p.Categories[i].ID == id {
			return &p.Categories[i]
		}
	}
	return nil
}

// CategoryByName returns a pointer to the category with the given name, or nil.
func (p *BudgetPlan) CategoryByName(name string) *CategoryBudget {
	for i := range p.Categories {
		if p.Categories[i].Name == name {
			return &p.Categories[i]
		}
	}
	return nil
}
