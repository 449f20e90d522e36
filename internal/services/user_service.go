package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"estatehub/internal/authz"
	"estatehub/internal/models"
	"estatehub/internal/repositories"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrUnknownRole        = errors.New("unknown role")
)

type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, *models.OTPChallenge, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	ResendOTP(ctx context.Context, email string) (*models.OTPChallenge, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

type userService struct {
	repo repositories.UserRepository
	otp  OTPService
	auth AuthService
}

func NewUserService(repo repositories.UserRepository, otp OTPService, auth AuthService) UserService {
	return &userService{repo: repo, otp: otp, auth: auth}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and issues its first email code.
// A zero role registers a generic user.
func (s *userService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, *models.OTPChallenge, error) {
	role := req.RoleID
	if role == 0 {
		role = authz.RoleUser
	}
	if !authz.IsKnown(role) {
		return nil, nil, ErrUnknownRole
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}
	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		RoleID:       role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, err
	}

	ch, err := s.otp.Issue(ctx, user.Email, user.RoleID)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Int("user_id", user.ID).Int("role", int(user.RoleID)).Msg("[user][register] created")
	return user, ch, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" || !s.auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return user, ErrEmailNotVerified
	}
	return user, nil
}

func (s *userService) ResendOTP(ctx context.Context, email string) (*models.OTPChallenge, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.EmailVerified {
		return nil, ErrAlreadyVerified
	}
	return s.otp.Issue(ctx, user.Email, user.RoleID)
}

func (s *userService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}
