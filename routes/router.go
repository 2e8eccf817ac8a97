package routes

import (
	"net/http"
	"time"

	"github.com/LovationAdmin/bizpanel/handlers"
	"github.com/LovationAdmin/bizpanel/middleware"
	"github.com/LovationAdmin/bizpanel/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the router wires together.
type Deps struct {
	Registry       *services.PageRegistry
	Budgets        *services.BudgetService
	WS             *handlers.WSHandler
	JWTSecret      string
	AllowedOrigins []string
	Limiter        *middleware.RateLimiter
	Version        string
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	if len(d.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           24 * time.Hour,
		}))
	}
	if d.Limiter != nil {
		router.Use(d.Limiter.Middleware())
	}

	v1 := router.Group("/api/v1")
	{
		SetupPageRoutes(v1, d.Registry, d.JWTSecret)

		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware(d.JWTSecret))
		SetupSessionRoutes(protected, d.Registry)
		SetupBudgetRoutes(protected, d.Registry, d.Budgets, d.WS)
	}

	MountPages(router.Group("/app"), d.Registry, d.JWTSecret)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": d.Version,
			"pages":   d.Registry.Len(),
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	return router
}
