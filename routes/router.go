package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/spikeup/spikeup-api/config"
	"github.com/spikeup/spikeup-api/internal/admin"
	"github.com/spikeup/spikeup-api/internal/auth"
	"github.com/spikeup/spikeup-api/internal/match"
	"github.com/spikeup/spikeup-api/internal/notification"
	"github.com/spikeup/spikeup-api/internal/team"
)

// SetupRouter wires middleware and all route groups.
func SetupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.App.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AddAllowHeaders("Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	teamRepo := team.NewTeamRepository(db)
	matchRepo := match.NewGormMatchRepository(db)
	notifier := notification.NewStoreNotifier(db)

	api := router.Group("/api/v1")
	{
		auth.AuthRoutes(api, db, cfg)
		team.TeamRoutes(api, db, teamRepo, notifier, cfg.JWT.AccessTokenSecret)
		match.MatchRoutes(api, db, matchRepo, teamRepo, notifier, cfg.JWT.AccessTokenSecret)
		notification.NotificationRoutes(api, db, cfg.JWT.AccessTokenSecret)
		admin.AdminRoutes(api, db, matchRepo, teamRepo, notifier, cfg.JWT.AccessTokenSecret)
	}

	return router
}
