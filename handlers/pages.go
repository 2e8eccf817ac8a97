package handlers

import (
	"net/http"
	"strings"

	"github.com/LovationAdmin/bizpanel/middleware"
	"github.com/LovationAdmin/bizpanel/models"
	"github.com/LovationAdmin/bizpanel/services"

	"github.com/gin-gonic/gin"
)

type PageHandler struct {
	Registry *services.PageRegistry
}

func NewPageHandler(registry *services.PageRegistry) *PageHandler {
	return &PageHandler{Registry: registry}
}

// GetMenu returns the pages of one menu the caller may see.
func (h *PageHandler) GetMenu(c *gin.Context) {
	placement := strings.TrimSpace(c.Query("placement"))
	if placement == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "placement query parameter is required"})
		return
	}

	pages := h.Registry.PagesForPlacement(placement, middleware.GetPermissions(c))
	c.JSON(http.StatusOK, gin.H{
		"placement": placement,
		"pages":     pages,
	})
}

// GetRoutes returns the full route table for the front-end router.
func (h *PageHandler) GetRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"routes": h.Registry.MountableRoutes()})
}

// ServePage answers a guarded page route with the view to render.
func (h *PageHandler) ServePage(page models.PageDescriptor) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := make(map[string]string, len(c.Params))
		for _, p := range c.Params {
			params[p.Key] = p.Value
		}
		c.JSON(http.StatusOK, gin.H{
			"title":     page.Title,
			"route":     page.Route,
			"component": page.Component,
			"params":    params,
		})
	}
}
