package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spikeup/spikeup-api/config"
	"github.com/spikeup/spikeup-api/internal/middleware"
	"github.com/spikeup/spikeup-api/internal/user"
	"github.com/spikeup/spikeup-api/pkg/responses"
	"github.com/spikeup/spikeup-api/pkg/token"
	"github.com/spikeup/spikeup-api/pkg/utils"
)

// AuthController handles authentication HTTP requests.
type AuthController struct {
	repo AuthRepository
	cfg  *config.Config
}

// NewAuthController creates a new auth controller.
func NewAuthController(repo AuthRepository, cfg *config.Config) *AuthController {
	return &AuthController{repo: repo, cfg: cfg}
}

// @Summary      Register
// @Description  Creates a player account and returns a token pair.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        payload  body  RegisterRequest  true  "Account details"
// @Success      201  {object}  responses.SuccessResponse{data=AuthResponse}
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Router       /auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	if existing, err := ac.repo.GetUserByEmail(req.Email); err != nil {
		responses.InternalServerError(c, "")
		return
	} else if existing != nil {
		responses.Conflict(c, "An account with this email already exists")
		return
	}
	if existing, err := ac.repo.GetUserByUsername(req.Username); err != nil {
		responses.InternalServerError(c, "")
		return
	} else if existing != nil {
		responses.Conflict(c, "This username is taken")
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}

	u := user.User{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: hashed,
		Role:     user.RolePlayer,
	}
	if req.Phone != "" {
		u.Phone = &req.Phone
	}
	if err := ac.repo.CreateUser(&u); err != nil {
		responses.InternalServerError(c, "")
		return
	}

	resp, err := ac.issueTokens(&u)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Account created", resp)
}

// @Summary      Login
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        payload  body  LoginRequest  true  "Credentials"
// @Success      200  {object}  responses.SuccessResponse{data=AuthResponse}
// @Failure      401  {object}  responses.ErrorResponse
// @Router       /auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	u, err := ac.repo.GetUserByEmail(req.Email)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if u == nil || !utils.CheckPasswordHash(req.Password, u.Password) {
		responses.Unauthorized(c, "Invalid email or password")
		return
	}

	resp, err := ac.issueTokens(u)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Logged in", resp)
}

// @Summary      Refresh tokens
// @Description  Exchanges a valid refresh token for a new pair; the old token is revoked.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        payload  body  RefreshTokenRequest  true  "Refresh token"
// @Success      200  {object}  responses.SuccessResponse{data=AuthResponse}
// @Failure      401  {object}  responses.ErrorResponse
// @Router       /auth/refresh [post]
func (ac *AuthController) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	claims, err := token.ValidateJWT(req.RefreshToken, ac.cfg.JWT.RefreshTokenSecret)
	if err != nil {
		responses.Unauthorized(c, "Invalid refresh token")
		return
	}

	stored, err := ac.repo.GetRefreshToken(req.RefreshToken)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if stored == nil || stored.UserID != claims.UserID || time.Now().After(stored.ExpiresAt) {
		responses.Unauthorized(c, "Refresh token revoked or expired")
		return
	}

	u, err := ac.repo.GetUserByID(claims.UserID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if u == nil {
		responses.Unauthorized(c, "Account no longer exists")
		return
	}

	// Rotate: single-use refresh tokens.
	if err := ac.repo.DeleteRefreshToken(req.RefreshToken); err != nil {
		responses.InternalServerError(c, "")
		return
	}

	resp, err := ac.issueTokens(u)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Tokens refreshed", resp)
}

// @Summary      Logout
// @Description  Revokes all of the caller's refresh tokens.
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  responses.SuccessResponse
// @Router       /auth/logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}
	if err := ac.repo.DeleteRefreshTokensForUser(userID); err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Logged out", nil)
}

// @Summary      Get own profile
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  responses.SuccessResponse{data=UserResponse}
// @Router       /auth/me [get]
func (ac *AuthController) GetProfile(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	u, err := ac.repo.GetUserByID(userID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if u == nil {
		responses.NotFound(c, "User")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", FilterUserRecord(u))
}

func (ac *AuthController) issueTokens(u *user.User) (*AuthResponse, error) {
	access, err := token.GenerateJWT(u.ID, u.Role, ac.cfg.JWT.AccessTokenSecret, ac.cfg.JWT.AccessTokenExpiryMinutes)
	if err != nil {
		return nil, err
	}
	refresh, err := token.GenerateRefreshToken(u.ID, ac.cfg.JWT.RefreshTokenSecret, ac.cfg.JWT.RefreshTokenExpiryDays)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().AddDate(0, 0, ac.cfg.JWT.RefreshTokenExpiryDays)
	if err := ac.repo.SaveRefreshToken(u.ID, refresh, expiresAt); err != nil {
		return nil, err
	}

	return &AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         FilterUserRecord(u),
	}, nil
}
