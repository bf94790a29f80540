package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "finboard/internal/errors"
	"finboard/internal/services"
)

// BudgetHandler handles budget plan and settings requests.
type BudgetHandler struct {
	budgetService   services.BudgetServicer
	settingsService services.SettingsServicer
	auditService    services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, settingsService services.SettingsServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{
		budgetService:   budgetService,
		settingsService: settingsService,
		auditService:    auditService,
	}
}

// UpdateAllocationRequest represents the request payload for changing a
// category's allocated amount.
type UpdateAllocationRequest struct {
	Allocated int64 `json:"allocated" binding:"gte=0"`
}

// AddCategoryRequest represents the request payload for adding a budget category.
type AddCategoryRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=50"`
	Color     string `json:"color" binding:"required,hex_color"`
	Allocated int64  `json:"allocated" binding:"gte=0"`
}

// UpdateCategoryRequest represents the request payload for renaming or
// recoloring a budget category.
type UpdateCategoryRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=50"`
	Color string `json:"color" binding:"required,hex_color"`
}

// UpdateSettingsRequest represents the request payload for the monthly budget.
type UpdateSettingsRequest struct {
	MonthlyBudget int64 `json:"monthly_budget" binding:"required,gt=0"`
}

// GetPlan returns the user's budget plan with spent values recomputed from
// the current merged transaction feed.
func (h *BudgetHandler) GetPlan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	plan, err := h.budgetService.GetPlan(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// UpdateCategoryBudget changes the allocated amount of one category.
func (h *BudgetHandler) UpdateCategoryBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	categoryID := c.Param("id")
	plan, err := h.budgetService.UpdateCategoryBudget(userID, categoryID, req.Allocated)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET_ALLOCATION", "budget_category", categoryID, c.ClientIP(),
		map[string]any{"allocated": req.Allocated})

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// AddCategory adds a new category to the budget plan.
func (h *BudgetHandler) AddCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	plan, err := h.budgetService.AddCategory(userID, req.Name, req.Color, req.Allocated)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADD_BUDGET_CATEGORY", "budget_category", req.Name, c.ClientIP(),
		map[string]any{"name": req.Name, "allocated": req.Allocated})

	c.JSON(http.StatusCreated, gin.H{"plan": plan})
}

// UpdateCategory renames or recolors a category.
func (h *BudgetHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	categoryID := c.Param("id")
	plan, err := h.budgetService.UpdateCategory(userID, categoryID, req.Name, req.Color)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET_CATEGORY", "budget_category", categoryID, c.ClientIP(),
		map[string]any{"name": req.Name, "color": req.Color})

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// DeleteCategory removes a category from the budget plan.
func (h *BudgetHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID := c.Param("id")
	plan, err := h.budgetService.DeleteCategory(userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_BUDGET_CATEGORY", "budget_category", categoryID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// StreamPlan streams recomputed budget plan snapshots over server-sent events.
func (h *BudgetHandler) StreamPlan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshots, cancel := h.budgetService.StreamPlan(c.Request.Context(), userID)
	defer cancel()

	sseHeaders(c)
	c.Stream(func(w io.Writer) bool {
		snap, ok := <-snapshots
		if !ok {
			return false
		}
		if snap.Err != nil {
			c.SSEvent("error", gin.H{"message": snap.Err.Error()})
			return false
		}
		c.SSEvent("snapshot", gin.H{"plan": snap.Plan})
		return true
	})
}

// GetSettings returns the user's budget settings.
func (h *BudgetHandler) GetSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	settings, err := h.settingsService.GetSettings(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings replaces the user's monthly budget.
func (h *BudgetHandler) UpdateSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	settings, err := h.settingsService.UpdateMonthlyBudget(userID, req.MonthlyBudget)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET_SETTINGS", "budget_settings", settings.ID, c.ClientIP(),
		map[string]any{"monthly_budget": req.MonthlyBudget})

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}
