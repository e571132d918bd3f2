package notification

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	mw "github.com/spikeup/spikeup-api/internal/middleware"
)

// NotificationRoutes sets up the notification read-side routes.
func NotificationRoutes(router *gin.RouterGroup, db *gorm.DB, jwtSecret string) {
	controller := NewNotificationController(db)

	authRoutes := router.Group("/notifications")
	authRoutes.Use(mw.AuthMiddleware(jwtSecret, db))
	{
		authRoutes.GET("", controller.ListMine)
		authRoutes.POST("/:id/read", controller.MarkRead)
	}
}
