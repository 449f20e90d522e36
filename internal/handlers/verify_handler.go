package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"estatehub/internal/authz"
	"estatehub/internal/otp"
	"estatehub/internal/services"
)

type VerifyHandler struct {
	codes services.OTPService
	users services.UserService
}

func NewVerifyHandler(codes services.OTPService, users services.UserService) *VerifyHandler {
	return &VerifyHandler{codes: codes, users: users}
}

type verifyOTPRequest struct {
	ChallengeID string `json:"challenge_id" binding:"required"`
	Code        string `json:"code" binding:"required"`
}

// verifyOTPResponse tells the client where to go. Replace is always true: the
// verification screen must be swapped out, not pushed over.
type verifyOTPResponse struct {
	Target      authz.NavTarget `json:"target"`
	Replace     bool            `json:"replace"`
	AccessToken string          `json:"access_token"`
}

type resendOTPRequest struct {
	Email string `json:"email" binding:"required"`
}

// @Summary      Verify email code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyOTPRequest  true  "Challenge and code"
// @Success      200   {object}  verifyOTPResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /register/otp/verify [post]
func (h *VerifyHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.codes.Verify(c.Request.Context(), req.ChallengeID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrInvalidCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
		case errors.Is(err, services.ErrChallengeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "verification not found, please request a new code"})
		default:
			log.Error().Err(err).Str("challenge_id", req.ChallengeID).Msg("[otp][verify] failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		}
		return
	}
	c.JSON(http.StatusOK, verifyOTPResponse{Target: res.Target, Replace: true, AccessToken: res.AccessToken})
}

// @Summary      Resend email code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      resendOTPRequest  true  "Email"
// @Success      200   {object}  map[string]string
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /register/otp/resend [post]
func (h *VerifyHandler) ResendOTP(c *gin.Context) {
	var req resendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch, err := h.users.ResendOTP(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, services.ErrAlreadyVerified):
			c.JSON(http.StatusConflict, gin.H{"error": "email already verified"})
		default:
			log.Error().Err(err).Msg("[otp][resend] failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send code"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Code sent", "challenge_id": ch.ID})
}
