package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"estatehub/internal/authz"
	"estatehub/internal/models"
	"estatehub/internal/services"
)

type AuthHandler struct {
	users services.UserService
	otp   services.OTPService
	auth  services.AuthService
}

func NewAuthHandler(users services.UserService, otp services.OTPService, auth services.AuthService) *AuthHandler {
	return &AuthHandler{users: users, otp: otp, auth: auth}
}

type registerResponse struct {
	User        *models.User `json:"user"`
	ChallengeID string       `json:"challenge_id"`
}

type loginResponse struct {
	User        *models.User    `json:"user"`
	AccessToken string          `json:"access_token"`
	Target      authz.NavTarget `json:"target"`
}

// @Summary      Register
// @Description  Creates an unverified account and emails a one-time code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RegisterRequest  true  "Account"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ch, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case errors.Is(err, services.ErrUnknownRole):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		default:
			log.Error().Err(err).Str("email", req.Email).Msg("[auth][register] failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, registerResponse{User: user, ChallengeID: ch.ID})
}

// @Summary      Login
// @Description  Checks credentials and returns an access token with the landing screen for the role
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.LoginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	user, err := h.users.Login(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	case errors.Is(err, services.ErrEmailNotVerified):
		// hand out a fresh code so the client can go straight to verification
		ch, issueErr := h.otp.Issue(ctx, user.Email, user.RoleID)
		if issueErr != nil {
			log.Error().Err(issueErr).Int("user_id", user.ID).Msg("[auth][login] reissue otp failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send verification code"})
			return
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "email not verified", "challenge_id": ch.ID})
		return
	case err != nil:
		log.Error().Err(err).Msg("[auth][login] failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	token, err := h.auth.IssueAccessToken(user)
	if err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("[auth][login] sign token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}
	log.Info().Int("user_id", user.ID).Int("role", int(user.RoleID)).Msg("[auth][login] success")
	c.JSON(http.StatusOK, loginResponse{User: user, AccessToken: token, Target: authz.Destination(user.RoleID)})
}
