package team

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	mw "github.com/spikeup/spikeup-api/internal/middleware"
	"github.com/spikeup/spikeup-api/internal/notification"
)

// TeamRoutes sets up all team-related routes.
func TeamRoutes(router *gin.RouterGroup, db *gorm.DB, repo TeamRepository, notifier notification.Notifier, jwtSecret string) {
	controller := NewTeamController(repo, notifier)

	// Public routes
	public := router.Group("/teams")
	{
		public.GET("", controller.GetTeams)
		public.GET("/:id", controller.GetTeamByID)
	}

	// Authenticated routes
	authRoutes := router.Group("/teams")
	authRoutes.Use(mw.AuthMiddleware(jwtSecret, db))
	{
		authRoutes.POST("", controller.CreateTeam)
		authRoutes.PUT("/:id", controller.UpdateTeam)
		authRoutes.DELETE("/:id", controller.WithdrawTeam)
		authRoutes.PUT("/:id/captain", controller.TransferCaptain)

		authRoutes.POST("/:id/members", controller.AddRosterMember)
		authRoutes.DELETE("/:id/members/:memberId", controller.RemoveRosterMember)

		authRoutes.POST("/:id/join-requests", controller.CreateJoinRequest)
		authRoutes.GET("/:id/join-requests", controller.GetJoinRequests)
		authRoutes.POST("/:id/join-requests/:requestId/approve", controller.ApproveJoinRequest)
		authRoutes.POST("/:id/join-requests/:requestId/reject", controller.RejectJoinRequest)
	}
}
