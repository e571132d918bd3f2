package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/spikeup/spikeup-api/internal/common"
	"github.com/spikeup/spikeup-api/internal/match"
	"github.com/spikeup/spikeup-api/internal/notification"
	"github.com/spikeup/spikeup-api/internal/team"
	"github.com/spikeup/spikeup-api/pkg/responses"
)

// AdminController exposes the admin override surface: force-finalizing
// disputed or stuck matches, overwriting team stats, and removing records.
type AdminController struct {
	matchRepo match.MatchRepository
	teamRepo  team.TeamRepository
	notifier  notification.Notifier
}

// NewAdminController creates a new admin controller.
func NewAdminController(matchRepo match.MatchRepository, teamRepo team.TeamRepository, notifier notification.Notifier) *AdminController {
	return &AdminController{matchRepo: matchRepo, teamRepo: teamRepo, notifier: notifier}
}

func sendRepoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		responses.NotFound(c, "Resource")
	case errors.Is(err, common.ErrConflict):
		responses.Conflict(c, err.Error())
	case errors.Is(err, common.ErrValidation):
		responses.BadRequest(c, err.Error())
	default:
		responses.InternalServerError(c, "")
	}
}

// ForceFinalizeRequest carries the admin-decided final score. A draw is
// allowed here, unlike the two-party submission path.
type ForceFinalizeRequest struct {
	HostScore  *int `json:"host_score" binding:"required,gte=0"`
	GuestScore *int `json:"guest_score" binding:"required,gte=0"`
}

// SetTeamStatsRequest is an absolute overwrite of a team's ledger.
type SetTeamStatsRequest struct {
	Wins       *int `json:"wins" binding:"required,gte=0"`
	Losses     *int `json:"losses" binding:"required,gte=0"`
	Points     *int `json:"points" binding:"required,gte=0"`
	TotalGames *int `json:"total_games" binding:"required,gte=0"`
}

// @Summary      Force-finalize a match
// @Description  Applies an admin-decided score, bypassing two-party approval. Already-finished matches are rejected.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        id       path  int                   true  "Match ID"
// @Param        payload  body  ForceFinalizeRequest  true  "Final score"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Router       /admin/matches/{id}/finalize [post]
func (ac *AdminController) ForceFinalize(c *gin.Context) {
	matchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ForceFinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	m, err := ac.matchRepo.ForceFinalize(matchID, *req.HostScore, *req.GuestScore)
	if err != nil {
		sendRepoError(c, err)
		return
	}

	ac.notifyCaptain(m.HostTeamID, matchID)
	if m.GuestTeamID != nil {
		ac.notifyCaptain(*m.GuestTeamID, matchID)
	}

	responses.SendSuccess(c, http.StatusOK, "Match finalized", m)
}

// @Summary      Overwrite team stats
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        id       path  int                  true  "Team ID"
// @Param        payload  body  SetTeamStatsRequest  true  "Absolute stat values"
// @Success      200  {object}  responses.SuccessResponse
// @Router       /admin/teams/{id}/stats [put]
func (ac *AdminController) SetTeamStats(c *gin.Context) {
	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetTeamStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	if err := ac.teamRepo.SetTeamStats(teamID, *req.Wins, *req.Losses, *req.Points, *req.TotalGames); err != nil {
		sendRepoError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team stats updated", nil)
}

// @Summary      Delete any match
// @Description  Irreversible. Ledger effects of finished matches are kept.
// @Tags         Admin
// @Produce      json
// @Param        id  path  int  true  "Match ID"
// @Success      200  {object}  responses.SuccessResponse
// @Router       /admin/matches/{id} [delete]
func (ac *AdminController) DeleteMatch(c *gin.Context) {
	matchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ac.matchRepo.DeleteMatch(matchID); err != nil {
		sendRepoError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Match deleted", nil)
}

// @Summary      Delete any team
// @Description  Hard-deletes the team, its roster, and pending join requests.
// @Tags         Admin
// @Produce      json
// @Param        id  path  int  true  "Team ID"
// @Success      200  {object}  responses.SuccessResponse
// @Router       /admin/teams/{id} [delete]
func (ac *AdminController) DeleteTeam(c *gin.Context) {
	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ac.teamRepo.DeleteTeamAdmin(teamID); err != nil {
		sendRepoError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team deleted", nil)
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		responses.BadRequest(c, "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}

func (ac *AdminController) notifyCaptain(teamID, matchID uint) {
	captainID, err := ac.teamRepo.GetCaptainUserID(teamID)
	if err != nil {
		return
	}
	ac.notifier.Notify(captainID, notification.TypeMatchFinalized,
		"Match finalized by admin",
		"An admin recorded the final score for your match.",
		fmt.Sprintf("/matches/%d", matchID))
}
