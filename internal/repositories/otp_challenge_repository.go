package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"estatehub/internal/authz"
	"estatehub/internal/models"
)

type OTPChallengeRepository interface {
	Create(ctx context.Context, ch *models.OTPChallenge) error
	GetByID(ctx context.Context, id string) (*models.OTPChallenge, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByEmail(ctx context.Context, email string) error
}

type otpChallengeRepository struct {
	DB *sql.DB
}

func NewOTPChallengeRepository(db *sql.DB) OTPChallengeRepository {
	return &otpChallengeRepository{DB: db}
}

func (r *otpChallengeRepository) Create(ctx context.Context, ch *models.OTPChallenge) error {
	const q = `
		INSERT INTO otp_challenges (id, email, code, role_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	if err := r.DB.QueryRowContext(ctx, q, ch.ID, ch.Email, ch.Code, int(ch.RoleID)).Scan(&ch.CreatedAt); err != nil {
		return fmt.Errorf("otp_challenges create: %w", err)
	}
	return nil
}

// GetByID returns nil, nil for an unknown or already consumed challenge.
func (r *otpChallengeRepository) GetByID(ctx context.Context, id string) (*models.OTPChallenge, error) {
	const q = `
		SELECT id, email, code, role_id, created_at
		FROM otp_challenges
		WHERE id = $1
	`
	var (
		ch   models.OTPChallenge
		role int
	)
	err := r.DB.QueryRowContext(ctx, q, id).Scan(&ch.ID, &ch.Email, &ch.Code, &role, &ch.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("otp_challenges get: %w", err)
	}
	ch.RoleID = authz.Role(role)
	return &ch, nil
}

// Delete reports whether the challenge was still there to remove. Of several
// concurrent deletes of the same id only one sees true.
func (r *otpChallengeRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM otp_challenges WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("otp_challenges delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("otp_challenges delete: %w", err)
	}
	return n == 1, nil
}

func (r *otpChallengeRepository) DeleteByEmail(ctx context.Context, email string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM otp_challenges WHERE email = $1`, email); err != nil {
		return fmt.Errorf("otp_challenges delete by email: %w", err)
	}
	return nil
}
