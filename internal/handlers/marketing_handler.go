package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "finboard/internal/errors"
	"finboard/internal/models"
	"finboard/internal/pagination"
	"finboard/internal/services"
)

// MarketingHandler handles marketing-cost requests.
type MarketingHandler struct {
	marketingService services.MarketingServicer
	auditService     services.AuditServicer
}

// NewMarketingHandler creates a new MarketingHandler.
func NewMarketingHandler(marketingService services.MarketingServicer, auditService services.AuditServicer) *MarketingHandler {
	return &MarketingHandler{marketingService: marketingService, auditService: auditService}
}

// CreateCostRequest represents the request payload for creating a marketing cost.
type CreateCostRequest struct {
	Type        string         `json:"type" binding:"required,cost_type"`
	Name        string         `json:"name" binding:"required,min=1,max=100"`
	Description string         `json:"description" binding:"max=500"`
	Cost        int64          `json:"cost" binding:"gte=0"`
	Date        time.Time      `json:"date"`
	Details     map[string]any `json:"details"`
}

// UpdateCostRequest represents the request payload for updating a marketing cost.
type UpdateCostRequest struct {
	Type        *string    `json:"type" binding:"omitempty,cost_type"`
	Name        *string    `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string    `json:"description" binding:"omitempty,max=500"`
	Cost        *int64     `json:"cost" binding:"omitempty,gte=0"`
	Date        *time.Time `json:"date"`
}

// CreateCost handles recording a new marketing cost.
func (h *MarketingHandler) CreateCost(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	cost, err := h.marketingService.CreateCost(
		userID, models.MarketingCostType(req.Type), req.Name, req.Description, req.Cost, req.Date, req.Details,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_MARKETING_COST", "marketing_cost", cost.ID, c.ClientIP(),
		map[string]any{"type": req.Type, "name": req.Name, "cost": req.Cost})

	c.JSON(http.StatusCreated, gin.H{"cost": cost})
}

// GetCosts handles listing marketing costs for the authenticated user.
func (h *MarketingHandler) GetCosts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.marketingService.GetUserCosts(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCost handles retrieving a single marketing cost.
func (h *MarketingHandler) GetCost(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cost, err := h.marketingService.GetCostByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cost": cost})
}

// UpdateCost handles partial updates of a marketing cost.
func (h *MarketingHandler) UpdateCost(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := make(map[string]any)
	if req.Type != nil {
		fields["type"] = *req.Type
	}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Cost != nil {
		fields["cost"] = *req.Cost
	}
	if req.Date != nil {
		fields["date"] = *req.Date
	}

	costID := c.Param("id")
	cost, err := h.marketingService.UpdateCost(userID, costID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_MARKETING_COST", "marketing_cost", costID, c.ClientIP(), fields)

	c.JSON(http.StatusOK, gin.H{"cost": cost})
}

// DeleteCost handles deleting a marketing cost, which also removes its
// synthetic transaction from the merged feed.
func (h *MarketingHandler) DeleteCost(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	costID := c.Param("id")
	if err := h.marketingService.DeleteCost(userID, costID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_MARKETING_COST", "marketing_cost", costID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Marketing cost deleted successfully"})
}

// StreamCosts streams marketing-cost snapshots over server-sent events.
func (h *MarketingHandler) StreamCosts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshots, cancel := h.marketingService.StreamCosts(c.Request.Context(), userID)
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
		c.SSEvent("snapshot", gin.H{"costs": snap.Docs})
		return true
	})
}
