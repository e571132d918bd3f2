package admin

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	mw "github.com/spikeup/spikeup-api/internal/middleware"
	"github.com/spikeup/spikeup-api/internal/match"
	"github.com/spikeup/spikeup-api/internal/notification"
	"github.com/spikeup/spikeup-api/internal/team"
	"github.com/spikeup/spikeup-api/pkg/rmiddleware"
)

// AdminRoutes sets up admin-only routes.
func AdminRoutes(router *gin.RouterGroup, db *gorm.DB, matchRepo match.MatchRepository, teamRepo team.TeamRepository, notifier notification.Notifier, jwtSecret string) {
	controller := NewAdminController(matchRepo, teamRepo, notifier)

	adminRoutes := router.Group("/admin")
	adminRoutes.Use(mw.AuthMiddleware(jwtSecret, db), rmiddleware.AdminMiddleware(db))
	{
		adminRoutes.POST("/matches/:id/finalize", controller.ForceFinalize)
		adminRoutes.DELETE("/matches/:id", controller.DeleteMatch)
		adminRoutes.PUT("/teams/:id/stats", controller.SetTeamStats)
		adminRoutes.DELETE("/teams/:id", controller.DeleteTeam)
	}
}
