package handlers

import (
	"log/slog"
	"net/http"

	"github.com/LovationAdmin/bizpanel/middleware"
	"github.com/LovationAdmin/bizpanel/models"
	"github.com/LovationAdmin/bizpanel/services"
	"github.com/LovationAdmin/bizpanel/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	Registry *services.PageRegistry
}

func NewAuthHandler(registry *services.PageRegistry) *AuthHandler {
	return &AuthHandler{Registry: registry}
}

// GetSession returns the caller and every menu filtered for their
// permissions, keyed by placement.
func (h *AuthHandler) GetSession(c *gin.Context) {
	perms := middleware.GetPermissions(c)

	menus := make(map[string][]models.PageDescriptor)
	for _, placement := range h.Registry.Placements() {
		menus[placement] = h.Registry.PagesForPlacement(placement, perms)
	}

	user := models.SessionUser{
		ID:    middleware.GetUserID(c),
		Email: middleware.GetEmail(c),
	}
	slog.DebugContext(c.Request.Context(), "Session bootstrap",
		"user_id", utils.MaskID(user.ID),
		"email", utils.MaskEmail(user.Email))

	c.JSON(http.StatusOK, models.SessionResponse{
		User:        user,
		Permissions: perms,
		Menus:       menus,
	})
}
