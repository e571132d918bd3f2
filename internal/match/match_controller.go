package match

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spikeup/spikeup-api/internal/common"
	"github.com/spikeup/spikeup-api/internal/middleware"
	"github.com/spikeup/spikeup-api/internal/notification"
	"github.com/spikeup/spikeup-api/internal/team"
	"github.com/spikeup/spikeup-api/pkg/responses"
)

// MatchController handles match-related HTTP requests. Team-level actions
// (apply, accept, submit, approve, dispute) are captain-only; the acting team
// comes from the request and the caller must be its captain.
type MatchController struct {
	repo     MatchRepository
	teamRepo team.TeamRepository
	notifier notification.Notifier
}

// NewMatchController creates a new match controller.
func NewMatchController(repo MatchRepository, teamRepo team.TeamRepository, notifier notification.Notifier) *MatchController {
	return &MatchController{repo: repo, teamRepo: teamRepo, notifier: notifier}
}

func sendRepoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		responses.NotFound(c, "Resource")
	case errors.Is(err, common.ErrConflict):
		responses.Conflict(c, err.Error())
	case errors.Is(err, common.ErrPermissionDenied):
		responses.Forbidden(c, err.Error())
	case errors.Is(err, common.ErrValidation):
		responses.BadRequest(c, err.Error())
	default:
		responses.InternalServerError(c, "")
	}
}

// --- DTOs ---

// CreateMatchRequest defines the request payload for hosting a match.
type CreateMatchRequest struct {
	HostTeamID     uint      `json:"host_team_id" binding:"required"`
	GameTime       time.Time `json:"game_time" binding:"required"`
	Location       string    `json:"location" binding:"required,max=200"`
	Note           string    `json:"note,omitempty" binding:"max=1000"`
	Format         string    `json:"format,omitempty" binding:"max=20"`
	GenderDivision string    `json:"gender_division" binding:"required,oneof=male female mixed"`
}

// TeamActionRequest names the team a captain is acting for.
type TeamActionRequest struct {
	TeamID uint `json:"team_id" binding:"required"`
}

// AcceptApplicantRequest picks the applicant that becomes the guest team.
type AcceptApplicantRequest struct {
	TeamID uint `json:"team_id" binding:"required"`
}

// SubmitResultRequest carries a score claim from the submitter's point of
// view; the repository maps it onto host/guest.
type SubmitResultRequest struct {
	TeamID        uint `json:"team_id" binding:"required"`
	MyScore       *int `json:"my_score" binding:"required,gte=0"`
	OpponentScore *int `json:"opponent_score" binding:"required,gte=0"`
}

// --- Handlers ---

// @Summary      Host a match
// @Description  Creates a match in recruiting state. Captain-only.
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        match  body  CreateMatchRequest  true  "Match details"
// @Success      201  {object}  responses.SuccessResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      403  {object}  responses.ErrorResponse
// @Router       /matches [post]
func (mc *MatchController) CreateMatch(c *gin.Context) {
	var req CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	if !mc.requireCaptainOf(c, req.HostTeamID) {
		return
	}

	match := Match{
		HostTeamID:     req.HostTeamID,
		GameTime:       req.GameTime,
		Location:       req.Location,
		Note:           req.Note,
		Format:         req.Format,
		GenderDivision: req.GenderDivision,
	}
	if err := mc.repo.CreateMatch(&match); err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Match created", match)
}

// @Summary      List matches
// @Tags         Matches
// @Produce      json
// @Param        status           query  string  false  "Lifecycle status filter"
// @Param        gender_division  query  string  false  "Division filter"
// @Param        team_id          query  int     false  "Matches a team hosts or plays in"
// @Success      200  {object}  responses.PaginatedResponse
// @Router       /matches [get]
func (mc *MatchController) GetMatches(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	if teamIDStr := c.Query("team_id"); teamIDStr != "" {
		teamID, err := strconv.ParseUint(teamIDStr, 10, 64)
		if err != nil {
			responses.BadRequest(c, "Invalid team_id parameter")
			return
		}
		matches, total, err := mc.repo.GetTeamMatches(uint(teamID), c.Query("status"), page, limit)
		if err != nil {
			responses.InternalServerError(c, "")
			return
		}
		responses.SendPaginated(c, http.StatusOK, "", matches, total, page, limit)
		return
	}

	filters := map[string]interface{}{}
	if status := c.Query("status"); status != "" {
		filters["status = ?"] = status
	}
	if division := c.Query("gender_division"); division != "" {
		filters["gender_division = ?"] = division
	}

	matches, total, err := mc.repo.GetMatches(filters, page, limit)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendPaginated(c, http.StatusOK, "", matches, total, page, limit)
}

// @Summary      Get a match
// @Tags         Matches
// @Produce      json
// @Param        id  path  int  true  "Match ID"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /matches/{id} [get]
func (mc *MatchController) GetMatchByID(c *gin.Context) {
	matchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	match, err := mc.repo.GetMatchByID(matchID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if match == nil {
		responses.NotFound(c, "Match")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", match)
}

// @Summary      Apply to a match
// @Description  Adds the caller's team to the applicant set. Re-applying is a no-op.
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        id       path  int                true  "Match ID"
// @Param        payload  body  TeamActionRequest  true  "Applying team"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Router       /matches/{id}/apply [post]
func (mc *MatchController) Apply(c *gin.Context) {
	matchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TeamActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}
	if !mc.requireCaptainOf(c, req.TeamID) {
		return
	}

	if err := mc.repo.Apply(matchID, req.TeamID); err != nil {
		sendRepoError(c, err)
		return
	}

	if match, err := mc.repo.GetMatchByID(matchID); err == nil && match != nil {
		mc.notifyCaptain(match.HostTeamID, notification.TypeMatchApplied,
			"New match applicant",
			"A team applied to your match.",
			fmt.Sprintf("/matches/%d/applicants", matchID))
	}

	responses.SendSuccess(c, http.StatusOK, "Application recorded", nil)
}

// @Summary      Cancel an application
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        id       path  int                true  "Match ID"
// @Param        payload  body  TeamActionRequest  true  "Withdrawing team"
// @Success      200  {object}  responses.SuccessResponse
// @Router       /matches/{id}/apply [delete]
func (mc *MatchController) CancelApplication(c *gin.Context) {
	matchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TeamActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}
	if !mc.requireCaptainOf(c, req.TeamID) {
		return
	}

	if err := mc.repo.CancelApplication(matchID, req.TeamID); err != nil {
		sendRepoError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Application cancelled", nil)
}

// @Summary      List applicants
// @Description  Host captain only.
// @Tags         Matches
// @Produce      json
// @Param        id  path  int  true  "Match ID"
// @Success      200  {object}  responses.SuccessResponse
// @Router       /matches/{id}/applicants [get]
func (mc *MatchController) ListApplicants(c *gin.Context) {
	matchID, _, ok := mc.requireHostCaptain(c)
	if !ok {
		return
	}

	applicants, err := mc.repo.ListApplicants(matchID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", applicants)
}

// @Summary      Accept an applicant
// @Description  Fixes the guest team and closes recruiting. Host captain only.
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        id       path  int                     true  "Match ID"
// @Param        payload  body  AcceptApplicantRequest  true  "Chosen team"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Router       /matches/{id}/accept [post]
func (mc *MatchController) AcceptApplicant(c *gin.Context) {
	matchID, _, ok := mc.requireHostCaptain(c)
	if !ok {
		return
	}

	var req AcceptApplicantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	match, passedOver, err := mc.repo.AcceptApplicant(matchID, req.TeamID)
	if err != nil {
		sendRepoError(c, err)
		return
	}

	mc.notifyCaptain(req.TeamID, notification.TypeMatchAccepted,
		"Application accepted",
		"Your team was accepted for a match.",
		fmt.Sprintf("/matches/%d", matchID))
	for _, teamID := range passedOver {
		mc.notifyCaptain(teamID, notification.TypeMatchClosed,
			"Match filled",
			"The match you applied to has chosen another opponent.",
			fmt.Sprintf("/matches/%d", matchID))
	}

	responses.SendSuccess(c, http.StatusOK, "Applicant accepted", match)
}

// @Summary      Submit a match result
// @Description  Only the winning side may submit. The counterparty then approves or disputes.
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        id       path  int                  true  "Match ID"
// @Param        payload  body  SubmitResultRequest  true  "Claimed score"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Router       /matches/{id}/result [post]
func (mc *MatchController) SubmitResult(c *gin.Context) {
	matchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}
	if !mc.requireCaptainOf(c, req.TeamID) {
		return
	}

	match, err := mc.repo.SubmitResult(matchID, req.TeamID, *req.MyScore, *req.OpponentScore)
	if err != nil {
		sendRepoError(c, err)
		return
	}

	mc.notifyCaptain(mc.counterparty(match, req.TeamID), notification.TypeResultSubmitted,
		"Match result submitted",
		"Your opponent submitted a result. Approve or dispute it.",
		fmt.Sprintf("/matches/%d", matchID))

	responses.SendSuccess(c, http.StatusOK, "Result submitted", match)
}

// @Summary      Approve a submitted result
// @Description  Counterparty-only. Finalizes the match and applies both teams' stat deltas.
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        id       path  int                true  "Match ID"
// @Param        payload  body  TeamActionRequest  true  "Approving team"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      403  {object}  responses.ErrorResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Router       /matches/{id}/result/approve [post]
func (mc *MatchController) ApproveResult(c *gin.Context) {
	matchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TeamActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}
	if !mc.requireCaptainOf(c, req.TeamID) {
		return
	}

	match, err := mc.repo.ApproveResult(matchID, req.TeamID)
	if err != nil {
		sendRepoError(c, err)
		return
	}

	mc.notifyCaptain(mc.counterparty(match, req.TeamID), notification.TypeResultVerified,
		"Match result approved",
		"Your submitted result was approved and recorded.",
		fmt.Sprintf("/matches/%d", matchID))

	responses.SendSuccess(c, http.StatusOK, "Result approved", match)
}

// @Summary      Dispute a submitted result
// @Description  Flags the result for admin review. No stats change.
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        id       path  int                true  "Match ID"
// @Param        payload  body  TeamActionRequest  true  "Disputing team"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Router       /matches/{id}/result/dispute [post]
func (mc *MatchController) DisputeResult(c *gin.Context) {
	matchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TeamActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}
	if !mc.requireCaptainOf(c, req.TeamID) {
		return
	}

	match, err := mc.repo.DisputeResult(matchID, req.TeamID)
	if err != nil {
		sendRepoError(c, err)
		return
	}

	mc.notifyCaptain(mc.counterparty(match, req.TeamID), notification.TypeResultDisputed,
		"Match result disputed",
		"Your submitted result was disputed and is awaiting admin review.",
		fmt.Sprintf("/matches/%d", matchID))

	responses.SendSuccess(c, http.StatusOK, "Result disputed", match)
}

// @Summary      Delete own match
// @Description  Host captain only. Irreversible; finished matches keep their ledger effects.
// @Tags         Matches
// @Produce      json
// @Param        id  path  int  true  "Match ID"
// @Success      200  {object}  responses.SuccessResponse
// @Router       /matches/{id} [delete]
func (mc *MatchController) DeleteMatch(c *gin.Context) {
	matchID, _, ok := mc.requireHostCaptain(c)
	if !ok {
		return
	}

	if err := mc.repo.DeleteMatch(matchID); err != nil {
		sendRepoError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Match deleted", nil)
}

// --- helpers ---

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		responses.BadRequest(c, "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}

// requireCaptainOf verifies the caller captains the acting team.
func (mc *MatchController) requireCaptainOf(c *gin.Context, teamID uint) bool {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return false
	}
	isCaptain, err := mc.teamRepo.IsUserCaptain(teamID, userID)
	if err != nil {
		responses.InternalServerError(c, "")
		return false
	}
	if !isCaptain {
		responses.Forbidden(c, "Only the team captain may perform this action")
		return false
	}
	return true
}

// requireHostCaptain loads the match from the :id param and verifies the
// caller captains its host team.
func (mc *MatchController) requireHostCaptain(c *gin.Context) (uint, *Match, bool) {
	matchID, ok := parseIDParam(c, "id")
	if !ok {
		return 0, nil, false
	}

	match, err := mc.repo.GetMatchByID(matchID)
	if err != nil {
		responses.InternalServerError(c, "")
		return 0, nil, false
	}
	if match == nil {
		responses.NotFound(c, "Match")
		return 0, nil, false
	}
	if !mc.requireCaptainOf(c, match.HostTeamID) {
		return 0, nil, false
	}
	return matchID, match, true
}

// counterparty returns the other side's team id for notification fan-out.
func (mc *MatchController) counterparty(match *Match, teamID uint) uint {
	if match.GuestTeamID != nil && teamID == match.HostTeamID {
		return *match.GuestTeamID
	}
	return match.HostTeamID
}

// notifyCaptain resolves a team's captain and notifies them. Notification
// failures never fail the request.
func (mc *MatchController) notifyCaptain(teamID uint, ntype, title, message, deepLink string) {
	captainID, err := mc.teamRepo.GetCaptainUserID(teamID)
	if err != nil {
		return
	}
	mc.notifier.Notify(captainID, ntype, title, message, deepLink)
}
