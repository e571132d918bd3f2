package auth

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/spikeup/spikeup-api/config"
	mw "github.com/spikeup/spikeup-api/internal/middleware"
)

// AuthRoutes sets up authentication routes.
func AuthRoutes(router *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	controller := NewAuthController(NewAuthRepository(db), cfg)

	public := router.Group("/auth")
	{
		public.POST("/register", controller.Register)
		public.POST("/login", controller.Login)
		public.POST("/refresh", controller.RefreshToken)
	}

	authRoutes := router.Group("/auth")
	authRoutes.Use(mw.AuthMiddleware(cfg.JWT.AccessTokenSecret, db))
	{
		authRoutes.POST("/logout", controller.Logout)
		authRoutes.GET("/me", controller.GetProfile)
	}
}
