package routes

import (
	"github.com/LovationAdmin/bizpanel/handlers"
	"github.com/LovationAdmin/bizpanel/middleware"
	"github.com/LovationAdmin/bizpanel/models"
	"github.com/LovationAdmin/bizpanel/services"

	"github.com/gin-gonic/gin"
)

// SetupPageRoutes exposes the page registry to the front end.
func SetupPageRoutes(rg *gin.RouterGroup, registry *services.PageRegistry, secret string) {
	h := handlers.NewPageHandler(registry)

	public := rg.Group("/")
	public.Use(middleware.OptionalAuth(secret))
	{
		public.GET("/pages", h.GetMenu)
		public.GET("/routes", h.GetRoutes)
	}
}

// SetupSessionRoutes exposes the authenticated caller to the front end.
func SetupSessionRoutes(rg *gin.RouterGroup, registry *services.PageRegistry) {
	h := handlers.NewAuthHandler(registry)
	rg.GET("/session", h.GetSession)
}

// MountPages registers every page of the registry, protected or not, each
// behind its own guard.
func MountPages(rg *gin.RouterGroup, registry *services.PageRegistry, secret string) {
	h := handlers.NewPageHandler(registry)

	rg.Use(middleware.OptionalAuth(secret))
	for _, page := range registry.MountableRoutes() {
		rg.GET(page.Route, middleware.PageGuard(page), h.ServePage(page))
	}
}

// budgetsPage is the page whose permissions also guard the budget API.
const budgetsPage = "/budgets"

// budgetPermissions returns what the Budgets page requires, so the API never
// grants more than the page does.
func budgetPermissions(registry *services.PageRegistry) []models.Permission {
	if page, ok := registry.Lookup(budgetsPage); ok {
		return page.RequiredPermissions
	}
	return []models.Permission{models.PermProject, models.PermFinancial}
}

// SetupBudgetRoutes sets up protected budget routes.
func SetupBudgetRoutes(rg *gin.RouterGroup, registry *services.PageRegistry, service *services.BudgetService, ws *handlers.WSHandler) {
	h := handlers.NewBudgetHandler(service, ws)
	guard := middleware.RequirePermissions(budgetPermissions(registry)...)

	budgets := rg.Group("/budgets")
	budgets.Use(guard)
	{
		budgets.POST("/totals", h.ComputeTotals)
		budgets.GET("", h.GetBudgets)
		budgets.POST("", h.CreateBudget)
		budgets.GET("/:id", h.GetBudget)
		budgets.PUT("/:id", h.UpdateBudget)
		budgets.DELETE("/:id", h.DeleteBudget)
	}

	if ws != nil {
		rg.GET("/ws/budgets/:id", guard, ws.HandleWS)
	}
}
