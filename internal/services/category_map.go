package services

// budgetCategoryTable maps free-form transaction category names onto budget
// category names for the dashboard breakdown. This is deliberately coarser
// than the plan recompute's exact-match rule: "Marketing Digital" lands in
// Marketing here, while the plan recompute would send it to the catch-all.
// Both behaviors are kept; see DESIGN.md.
var budgetCategoryTable = map[string]string{
	"Marketing":             MarketingCategoryName,
	"Marketing Digital":     MarketingCategoryName,
	"Publicité":             MarketingCategoryName,
	"Réseaux sociaux":       MarketingCategoryName,
	"Salaires":              "Personnel",
	"Honoraires":            "Personnel",
	"Formation":             "Personnel",
	"Fournitures":           "Fournitures",
	"Fournitures de bureau": "Fournitures",
	"Matériel":              "Fournitures",
	"Logistique":            "Logistique",
	"Transport":             "Logistique",
	"Livraison":             "Logistique",
}

// MapBudgetCategory resolves a transaction category to its budget category,
// defaulting unmapped names to the catch-all bucket.
func MapBudgetCategory(name string) string {
	if mapped, ok := budgetCategoryTable[name]; ok {
		return mapped
	}
	return CatchAllCategoryName
}
