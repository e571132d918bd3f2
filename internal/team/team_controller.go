package team

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/spikeup/spikeup-api/internal/common"
	"github.com/spikeup/spikeup-api/internal/middleware"
	"github.com/spikeup/spikeup-api/internal/notification"
	"github.com/spikeup/spikeup-api/pkg/responses"
)

// TeamController handles team-related HTTP requests.
type TeamController struct {
	repo     TeamRepository
	notifier notification.Notifier
}

// NewTeamController creates a new team controller.
func NewTeamController(repo TeamRepository, notifier notification.Notifier) *TeamController {
	return &TeamController{repo: repo, notifier: notifier}
}

// sendRepoError maps the shared error taxonomy onto HTTP responses.
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

// CreateTeamRequest defines the request payload for registering a team.
type CreateTeamRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=100"`
	Affiliation     string `json:"affiliation,omitempty" binding:"max=100"`
	Region          string `json:"region" binding:"required,max=50"`
	GenderDivision  string `json:"gender_division" binding:"required,oneof=male female mixed"`
	CaptainName     string `json:"captain_name" binding:"required,max=50"`
	CaptainPosition string `json:"captain_position,omitempty" binding:"max=30"`
}

// UpdateTeamRequest defines the request payload for editing team attributes.
type UpdateTeamRequest struct {
	Name           *string `json:"name,omitempty" binding:"omitempty,min=2,max=100"`
	Affiliation    *string `json:"affiliation,omitempty" binding:"omitempty,max=100"`
	Region         *string `json:"region,omitempty" binding:"omitempty,max=50"`
	GenderDivision *string `json:"gender_division,omitempty" binding:"omitempty,oneof=male female mixed"`
}

// AddRosterMemberRequest adds a player to the roster; user_id may be empty
// for unlinked players.
type AddRosterMemberRequest struct {
	UserID       *uint  `json:"user_id,omitempty"`
	Name         string `json:"name" binding:"required,max=50"`
	Position     string `json:"position,omitempty" binding:"max=30"`
	JerseyNumber int    `json:"jersey_number,omitempty" binding:"omitempty,gte=0"`
}

// TransferCaptainRequest reassigns the captaincy.
type TransferCaptainRequest struct {
	NewCaptainUserID uint `json:"new_captain_user_id" binding:"required"`
}

// JoinRequestPayload defines the request payload for asking to join a team.
type JoinRequestPayload struct {
	Position string `json:"position,omitempty" binding:"max=30"`
	Message  string `json:"message,omitempty" binding:"max=500"`
}

// --- Handlers ---

// @Summary      Register a team
// @Description  Creates a team with the caller as captain.
// @Tags         Teams
// @Accept       json
// @Produce      json
// @Param        team  body  CreateTeamRequest  true  "Team details"
// @Success      201  {object}  responses.SuccessResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Router       /teams [post]
func (tc *TeamController) CreateTeam(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	if existing, err := tc.repo.GetTeamByName(req.Name); err != nil {
		responses.InternalServerError(c, "")
		return
	} else if existing != nil {
		responses.Conflict(c, "A team with this name already exists")
		return
	}

	team := Team{
		Name:           req.Name,
		Affiliation:    req.Affiliation,
		Region:         req.Region,
		GenderDivision: req.GenderDivision,
		CaptainID:      userID,
	}
	captainMember := TeamMember{
		UserID:   &userID,
		Name:     req.CaptainName,
		Position: req.CaptainPosition,
	}

	if err := tc.repo.CreateTeam(&team, &captainMember); err != nil {
		sendRepoError(c, err)
		return
	}

	responses.SendSuccess(c, http.StatusCreated, "Team registered", team)
}

// @Summary      List teams
// @Tags         Teams
// @Produce      json
// @Param        region           query  string  false  "Region filter"
// @Param        gender_division  query  string  false  "Division filter"
// @Param        name             query  string  false  "Name search"
// @Success      200  {object}  responses.PaginatedResponse
// @Router       /teams [get]
func (tc *TeamController) GetTeams(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	filters := map[string]interface{}{}
	if region := c.Query("region"); region != "" {
		filters["region"] = region
	}
	if division := c.Query("gender_division"); division != "" {
		filters["gender_division"] = division
	}
	if name := c.Query("name"); name != "" {
		filters["name"] = name
	}

	teams, total, err := tc.repo.GetAllTeams(page, limit, filters)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendPaginated(c, http.StatusOK, "", teams, total, page, limit)
}

// @Summary      Get a team
// @Tags         Teams
// @Produce      json
// @Param        id  path  int  true  "Team ID"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /teams/{id} [get]
func (tc *TeamController) GetTeamByID(c *gin.Context) {
	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	team, err := tc.repo.GetTeamByID(teamID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if team == nil || team.IsDeleted {
		responses.NotFound(c, "Team")
		return
	}

	roster, err := tc.repo.GetRoster(teamID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}

	responses.SendSuccess(c, http.StatusOK, "", gin.H{"team": team, "roster": roster})
}

// @Summary      Update team attributes
// @Tags         Teams
// @Accept       json
// @Produce      json
// @Param        id    path  int                true  "Team ID"
// @Param        team  body  UpdateTeamRequest  true  "Fields to update"
// @Success      200  {object}  responses.SuccessResponse
// @Router       /teams/{id} [put]
func (tc *TeamController) UpdateTeam(c *gin.Context) {
	teamID, team, ok := tc.requireCaptain(c)
	if !ok {
		return
	}
	_ = teamID

	var req UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	if req.Name != nil {
		team.Name = *req.Name
	}
	if req.Affiliation != nil {
		team.Affiliation = *req.Affiliation
	}
	if req.Region != nil {
		team.Region = *req.Region
	}
	if req.GenderDivision != nil {
		team.GenderDivision = *req.GenderDivision
	}

	if err := tc.repo.UpdateTeam(team); err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team updated", team)
}

// @Summary      Withdraw (delete) own team
// @Description  Captain-only. Soft-deletes the team and clears every member's affiliation.
// @Tags         Teams
// @Produce      json
// @Param        id  path  int  true  "Team ID"
// @Success      200  {object}  responses.SuccessResponse
// @Router       /teams/{id} [delete]
func (tc *TeamController) WithdrawTeam(c *gin.Context) {
	teamID, _, ok := tc.requireCaptain(c)
	if !ok {
		return
	}

	if err := tc.repo.WithdrawTeam(teamID); err != nil {
		sendRepoError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team withdrawn", nil)
}

// @Summary      Transfer captaincy
// @Tags         Teams
// @Accept       json
// @Produce      json
// @Param        id       path  int                     true  "Team ID"
// @Param        payload  body  TransferCaptainRequest  true  "New captain"
// @Success      200  {object}  responses.SuccessResponse
// @Router       /teams/{id}/captain [put]
func (tc *TeamController) TransferCaptain(c *gin.Context) {
	teamID, _, ok := tc.requireCaptain(c)
	if !ok {
		return
	}

	var req TransferCaptainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	if err := tc.repo.TransferCaptain(teamID, req.NewCaptainUserID); err != nil {
		sendRepoError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Captain transferred", nil)
}

// @Summary      Add a roster member
// @Tags         Teams
// @Accept       json
// @Produce      json
// @Param        id      path  int                     true  "Team ID"
// @Param        member  body  AddRosterMemberRequest  true  "Member details"
// @Success      201  {object}  responses.SuccessResponse
// @Router       /teams/{id}/members [post]
func (tc *TeamController) AddRosterMember(c *gin.Context) {
	teamID, _, ok := tc.requireCaptain(c)
	if !ok {
		return
	}

	var req AddRosterMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	member := TeamMember{
		TeamID:       teamID,
		UserID:       req.UserID,
		Name:         req.Name,
		Position:     req.Position,
		JerseyNumber: req.JerseyNumber,
	}
	if err := tc.repo.AddRosterMember(&member); err != nil {
		sendRepoError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Roster member added", member)
}

// @Summary      Remove a roster member
// @Tags         Teams
// @Produce      json
// @Param        id        path  int  true  "Team ID"
// @Param        memberId  path  int  true  "Roster member ID"
// @Success      200  {object}  responses.SuccessResponse
// @Router       /teams/{id}/members/{memberId} [delete]
func (tc *TeamController) RemoveRosterMember(c *gin.Context) {
	teamID, team, ok := tc.requireCaptain(c)
	if !ok {
		return
	}

	memberID, ok := parseIDParam(c, "memberId")
	if !ok {
		return
	}

	// The captain's own entry can only leave via captain transfer or withdrawal.
	if m, err := tc.repo.GetMemberByUserID(teamID, team.CaptainID); err == nil && m != nil && m.ID == memberID {
		responses.BadRequest(c, "Transfer the captaincy before removing the captain from the roster")
		return
	}

	if err := tc.repo.RemoveRosterMember(teamID, memberID); err != nil {
		sendRepoError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Roster member removed", nil)
}

// @Summary      Request to join a team
// @Tags         Teams
// @Accept       json
// @Produce      json
// @Param        id       path  int                 true  "Team ID"
// @Param        payload  body  JoinRequestPayload  true  "Request details"
// @Success      201  {object}  responses.SuccessResponse
// @Router       /teams/{id}/join-requests [post]
func (tc *TeamController) CreateJoinRequest(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req JoinRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	team, err := tc.repo.GetTeamByID(teamID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if team == nil || team.IsDeleted {
		responses.NotFound(c, "Team")
		return
	}

	request := JoinRequest{
		TeamID:   teamID,
		UserID:   userID,
		Position: req.Position,
		Message:  req.Message,
	}
	if err := tc.repo.CreateJoinRequest(&request); err != nil {
		responses.InternalServerError(c, "")
		return
	}

	tc.notifier.Notify(team.CaptainID, notification.TypeJoinRequested,
		"New join request",
		fmt.Sprintf("A player asked to join %s.", team.Name),
		fmt.Sprintf("/teams/%d/join-requests", teamID))

	responses.SendSuccess(c, http.StatusCreated, "Join request submitted", request)
}

// @Summary      List pending join requests
// @Tags         Teams
// @Produce      json
// @Param        id  path  int  true  "Team ID"
// @Success      200  {object}  responses.PaginatedResponse
// @Router       /teams/{id}/join-requests [get]
func (tc *TeamController) GetJoinRequests(c *gin.Context) {
	teamID, _, ok := tc.requireCaptain(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	requests, total, err := tc.repo.GetJoinRequestsByTeamID(teamID, page, limit)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendPaginated(c, http.StatusOK, "", requests, total, page, limit)
}

// @Summary      Approve a join request
// @Tags         Teams
// @Produce      json
// @Param        id         path  int  true  "Team ID"
// @Param        requestId  path  int  true  "Join request ID"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Router       /teams/{id}/join-requests/{requestId}/approve [post]
func (tc *TeamController) ApproveJoinRequest(c *gin.Context) {
	teamID, team, ok := tc.requireCaptain(c)
	if !ok {
		return
	}

	requestID, ok := parseIDParam(c, "requestId")
	if !ok {
		return
	}

	request, err := tc.repo.GetJoinRequestByID(requestID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if request == nil || request.TeamID != teamID {
		responses.NotFound(c, "Join request")
		return
	}

	approved, err := tc.repo.ApproveJoinRequest(requestID)
	if err != nil {
		sendRepoError(c, err)
		return
	}

	tc.notifier.Notify(approved.UserID, notification.TypeJoinApproved,
		"Join request approved",
		fmt.Sprintf("You are now a member of %s.", team.Name),
		fmt.Sprintf("/teams/%d", teamID))

	responses.SendSuccess(c, http.StatusOK, "Join request approved", approved)
}

// @Summary      Reject a join request
// @Tags         Teams
// @Produce      json
// @Param        id         path  int  true  "Team ID"
// @Param        requestId  path  int  true  "Join request ID"
// @Success      200  {object}  responses.SuccessResponse
// @Router       /teams/{id}/join-requests/{requestId}/reject [post]
func (tc *TeamController) RejectJoinRequest(c *gin.Context) {
	teamID, team, ok := tc.requireCaptain(c)
	if !ok {
		return
	}

	requestID, ok := parseIDParam(c, "requestId")
	if !ok {
		return
	}

	request, err := tc.repo.GetJoinRequestByID(requestID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if request == nil || request.TeamID != teamID {
		responses.NotFound(c, "Join request")
		return
	}

	rejected, err := tc.repo.RejectJoinRequest(requestID)
	if err != nil {
		sendRepoError(c, err)
		return
	}

	tc.notifier.Notify(rejected.UserID, notification.TypeJoinRejected,
		"Join request declined",
		fmt.Sprintf("Your request to join %s was declined.", team.Name),
		"")

	responses.SendSuccess(c, http.StatusOK, "Join request rejected", nil)
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

// requireCaptain loads the team from the :id param and verifies the caller
// is its captain.
func (tc *TeamController) requireCaptain(c *gin.Context) (uint, *Team, bool) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return 0, nil, false
	}

	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return 0, nil, false
	}

	team, err := tc.repo.GetTeamByID(teamID)
	if err != nil {
		responses.InternalServerError(c, "")
		return 0, nil, false
	}
	if team == nil || team.IsDeleted {
		responses.NotFound(c, "Team")
		return 0, nil, false
	}
	if team.CaptainID != userID {
		responses.Forbidden(c, "Only the team captain may perform this action")
		return 0, nil, false
	}
	return teamID, team, true
}
