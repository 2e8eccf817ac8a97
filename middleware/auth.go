package middleware

import (
	"net/http"
	"strings"

	"github.com/LovationAdmin/bizpanel/models"
	"github.com/LovationAdmin/bizpanel/utils"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID        = "user_id"
	ctxEmail         = "email"
	ctxPermissions   = "permissions"
	ctxAuthenticated = "authenticated"

	// SessionCookie carries the token for page loads where no header is set.
	SessionCookie = "session"
	LoginRoute    = "/login"
)

// AuthMiddleware rejects requests without a valid session token.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !authenticate(c, secret, raw) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Next()
	}
}

// OptionalAuth resolves the session when a valid token is present. Callers
// without one, including those holding an expired or invalid token, continue
// anonymously with an empty PermissionSet; PageGuard decides from there.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := extractToken(c); raw != "" {
			authenticate(c, secret, raw)
		}
		c.Next()
	}
}

// PageGuard protects a mounted front-end page. Anonymous callers of a
// protected page are sent to the login page; authenticated callers missing
// a required permission get 403.
func PageGuard(page models.PageDescriptor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !page.Protected() {
			c.Next()
			return
		}
		if !IsAuthenticated(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "Authentication required",
				"redirect": LoginRoute,
			})
			return
		}
		if !GetPermissions(c).Satisfies(page.RequiredPermissions) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// RequirePermissions guards an API group; it must run after AuthMiddleware.
func RequirePermissions(perms ...models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !GetPermissions(c).Satisfies(perms) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// GetPermissions returns the caller's permissions, empty when anonymous.
func GetPermissions(c *gin.Context) models.PermissionSet {
	if v, ok := c.Get(ctxPermissions); ok {
		if p, ok := v.(models.PermissionSet); ok {
			return p
		}
	}
	return models.PermissionSet{}
}

func IsAuthenticated(c *gin.Context) bool {
	return c.GetBool(ctxAuthenticated)
}

func authenticate(c *gin.Context, secret, raw string) bool {
	claims, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return false
	}
	c.Set(ctxUserID, claims.Subject)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxPermissions, claims.Permissions)
	c.Set(ctxAuthenticated, true)
	return true
}

// extractToken reads the bearer header, then the session cookie, then the
// "token" query parameter used by WebSocket clients.
func extractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}
