package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/LovationAdmin/bizpanel/middleware"
	"github.com/LovationAdmin/bizpanel/models"
	"github.com/LovationAdmin/bizpanel/services"

	"github.com/gin-gonic/gin"
)

type BudgetHandler struct {
	Service *services.BudgetService
	WS      *WSHandler
}

func NewBudgetHandler(service *services.BudgetService, ws *WSHandler) *BudgetHandler {
	return &BudgetHandler{Service: service, WS: ws}
}

// ComputeTotals returns live totals for the task list being edited.
func (h *BudgetHandler) ComputeTotals(c *gin.Context) {
	var req models.TotalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Service.Preview(req.Tasks))
}

// CreateBudget validates and saves a submitted budget form.
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	var req models.SubmitBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	budget, err := h.Service.Submit(c.Request.Context(), middleware.GetUserID(c), req.Name, req.Tasks)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, budgetResponse(budget))
}

func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	budgets, err := h.Service.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]models.BudgetResponse, 0, len(budgets))
	for i := range budgets {
		out = append(out, budgetResponse(&budgets[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BudgetHandler) GetBudget(c *gin.Context) {
	budget, err := h.Service.Get(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budgetResponse(budget))
}

func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	var req models.SubmitBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	budget, err := h.Service.Update(c.Request.Context(), c.Param("id"), userID, req.Name, req.Tasks)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.WS != nil {
		h.WS.BroadcastTotals(budget.ID, "budget_saved", services.DisplayTotals(budget.Totals))
	}
	c.JSON(http.StatusOK, budgetResponse(budget))
}

func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}

func budgetResponse(b *models.Budget) models.BudgetResponse {
	return models.BudgetResponse{Budget: *b, Display: services.DisplayTotals(b.Totals)}
}

// respondError maps service errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation failed", "fields": verr.Fields})
	case errors.Is(err, services.ErrBudgetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Budget not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, services.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Budget was modified by someone else, reload it"})
	default:
		slog.ErrorContext(c.Request.Context(), "Budget request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
