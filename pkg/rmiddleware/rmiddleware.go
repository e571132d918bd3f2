package rmiddleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/spikeup/spikeup-api/internal/middleware"
)

// RoleMiddleware gates a route group to users whose role column matches one
// of requiredRoles. The DB is the source of truth, not the JWT claim.
func RoleMiddleware(db *gorm.DB, requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := middleware.GetUserIDFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: " + err.Error()})
			return
		}

		var role string
		if err := db.Table("users").Select("role").Where("id = ? AND deleted_at IS NULL", userID).Scan(&role).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user role"})
			return
		}

		hasRequiredRole := false
		for _, requiredRole := range requiredRoles {
			if strings.EqualFold(role, requiredRole) {
				hasRequiredRole = true
				break
			}
		}

		if !hasRequiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "Forbidden",
				"message":  "You don't have permission to access this resource",
				"required": requiredRoles,
			})
			return
		}

		c.Set("user_role", role)
		c.Next()
	}
}

// AdminMiddleware is a convenience middleware for admin-only access.
func AdminMiddleware(db *gorm.DB) gin.HandlerFunc {
	return RoleMiddleware(db, "admin")
}
