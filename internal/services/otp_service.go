package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"estatehub/internal/authz"
	"estatehub/internal/models"
	"estatehub/internal/otp"
	"estatehub/internal/repositories"
	"estatehub/internal/utils"
)

var (
	ErrChallengeNotFound = errors.New("verification challenge not found")
	ErrUserNotFound      = errors.New("user not found")
)

// VerifyResult is what a confirmed code unlocks: the account, a session token
// and the screen the client must replace the verification screen with.
type VerifyResult struct {
	User        *models.User
	Target      authz.NavTarget
	AccessToken string
}

type OTPService interface {
	Issue(ctx context.Context, email string, role authz.Role) (*models.OTPChallenge, error)
	Verify(ctx context.Context, challengeID, code string) (*VerifyResult, error)
}

type otpService struct {
	challenges repositories.OTPChallengeRepository
	users      repositories.UserRepository
	emails     EmailService
	auth       AuthService
	codeLength int
}

func NewOTPService(
	challenges repositories.OTPChallengeRepository,
	users repositories.UserRepository,
	emails EmailService,
	auth AuthService,
	codeLength int,
) OTPService {
	return &otpService{
		challenges: challenges,
		users:      users,
		emails:     emails,
		auth:       auth,
		codeLength: codeLength,
	}
}

// Issue replaces any pending challenge for email with a fresh one and mails the code.
func (s *otpService) Issue(ctx context.Context, email string, role authz.Role) (*models.OTPChallenge, error) {
	code, err := utils.NewNumericCode(s.codeLength)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	if err := s.challenges.DeleteByEmail(ctx, email); err != nil {
		return nil, err
	}
	ch := &models.OTPChallenge{
		ID:     uuid.NewString(),
		Email:  email,
		Code:   code,
		RoleID: role,
	}
	if err := s.challenges.Create(ctx, ch); err != nil {
		return nil, err
	}

	if err := s.emails.SendOTPEmail(email, code); err != nil {
		return nil, err
	}
	log.Info().Str("challenge_id", ch.ID).Str("email", email).Int("role", int(role)).Msg("[otp][issue] sent")
	return ch, nil
}

// Verify checks code against the stored challenge. A wrong code leaves the
// challenge in place so the user can try again; a right one consumes it.
// The account is marked verified before the challenge is removed, so a failure
// in between leaves the code usable for a retry.
func (s *otpService) Verify(ctx context.Context, challengeID, code string) (*VerifyResult, error) {
	if _, err := uuid.Parse(challengeID); err != nil {
		return nil, ErrChallengeNotFound
	}
	ch, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrChallengeNotFound
	}

	target, err := otp.Verify(code, ch.Code, ch.RoleID)
	if err != nil {
		log.Info().Str("challenge_id", ch.ID).Msg("[otp][verify] code mismatch")
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, ch.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.EmailVerified = true

	consumed, err := s.challenges.Delete(ctx, ch.ID)
	if err != nil {
		return nil, err
	}
	if !consumed {
		log.Warn().Str("challenge_id", ch.ID).Msg("[otp][verify] already consumed")
		return nil, ErrChallengeNotFound
	}

	token, err := s.auth.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	log.Info().Str("challenge_id", ch.ID).Int("user_id", user.ID).Str("target", string(target)).Msg("[otp][verify] ok")
	return &VerifyResult{User: user, Target: target, AccessToken: token}, nil
}
