package main

import (
	"log"

	"github.com/spikeup/spikeup-api/config"
	_ "github.com/spikeup/spikeup-api/docs"
	"github.com/spikeup/spikeup-api/internal/match"
	"github.com/spikeup/spikeup-api/internal/notification"
	"github.com/spikeup/spikeup-api/internal/team"
	"github.com/spikeup/spikeup-api/internal/user"
	"github.com/spikeup/spikeup-api/routes"
)

// @title           SpikeUp API
// @version         1.0
// @description     Backend for organizing amateur volleyball matches: team registration, match recruiting, and two-party result reconciliation.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := config.Initialize(); err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	cfg := config.GetConfig()
	db := config.DB

	if err := db.AutoMigrate(
		&user.User{},
		&user.RefreshToken{},
		&team.Team{},
		&team.TeamMember{},
		&team.JoinRequest{},
		&match.Match{},
		&match.MatchApplicant{},
		&notification.Notification{},
	); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	router := routes.SetupRouter(db, cfg)

	log.Printf("listening on :%s", cfg.App.Port)
	if err := router.Run(":" + cfg.App.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
