package match

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	mw "github.com/spikeup/spikeup-api/internal/middleware"
	"github.com/spikeup/spikeup-api/internal/notification"
	"github.com/spikeup/spikeup-api/internal/team"
)

// MatchRoutes sets up all match-related routes.
func MatchRoutes(router *gin.RouterGroup, db *gorm.DB, repo MatchRepository, teamRepo team.TeamRepository, notifier notification.Notifier, jwtSecret string) {
	controller := NewMatchController(repo, teamRepo, notifier)

	// Public routes
	public := router.Group("/matches")
	{
		public.GET("", controller.GetMatches)
		public.GET("/:id", controller.GetMatchByID)
	}

	// Authenticated routes
	authRoutes := router.Group("/matches")
	authRoutes.Use(mw.AuthMiddleware(jwtSecret, db))
	{
		authRoutes.POST("", controller.CreateMatch)
		authRoutes.DELETE("/:id", controller.DeleteMatch)

		authRoutes.POST("/:id/apply", controller.Apply)
		authRoutes.DELETE("/:id/apply", controller.CancelApplication)
		authRoutes.GET("/:id/applicants", controller.ListApplicants)
		authRoutes.POST("/:id/accept", controller.AcceptApplicant)

		authRoutes.POST("/:id/result", controller.SubmitResult)
		authRoutes.POST("/:id/result/approve", controller.ApproveResult)
		authRoutes.POST("/:id/result/dispute", controller.DisputeResult)
	}
}
