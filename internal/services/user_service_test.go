package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/authz"
	"estatehub/internal/models"
	"estatehub/internal/repositories"
)

func newUserFixture(t *testing.T) (sqlmock.Sqlmock, *fakeEmails, AuthService, UserService) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	emails := &fakeEmails{}
	auth := NewAuthService("test-secret", 15*time.Minute)
	users := repositories.NewUserRepository(db)
	otpSvc := NewOTPService(repositories.NewOTPChallengeRepository(db), users, emails, auth, 4)
	return mock, emails, auth, NewUserService(users, otpSvc, auth)
}

func TestUserService_Register(t *testing.T) {
	mock, emails, _, svc := newUserFixture(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Contractor Co", "crew@example.com", sqlmock.AnyArg(), 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(5, time.Now()))
	mock.ExpectExec("DELETE FROM otp_challenges WHERE email").
		WithArgs("crew@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO otp_challenges").
		WithArgs(sqlmock.AnyArg(), "crew@example.com", sqlmock.AnyArg(), 3).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	user, ch, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     " Contractor Co ",
		Email:    " Crew@Example.com",
		Password: "secret1",
		RoleID:   authz.RoleContractor,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, user.ID)
	assert.Equal(t, "crew@example.com", user.Email)
	assert.False(t, user.EmailVerified)
	assert.Equal(t, authz.RoleContractor, ch.RoleID)
	assert.Len(t, emails.sent, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_RegisterDefaultsToUserRole(t *testing.T) {
	mock, _, _, svc := newUserFixture(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Buyer", "buyer@example.com", sqlmock.AnyArg(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(6, time.Now()))
	mock.ExpectExec("DELETE FROM otp_challenges").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO otp_challenges").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	user, _, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Buyer", Email: "buyer@example.com", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, authz.RoleUser, user.RoleID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_RegisterErrors(t *testing.T) {
	t.Run("UnknownRole", func(t *testing.T) {
		mock, _, _, svc := newUserFixture(t)
		_, _, err := svc.Register(context.Background(), models.RegisterRequest{
			Name: "X", Email: "x@example.com", Password: "secret1", RoleID: 2,
		})
		assert.ErrorIs(t, err, ErrUnknownRole)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		mock, emails, _, svc := newUserFixture(t)
		mock.ExpectQuery("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})

		_, _, err := svc.Register(context.Background(), models.RegisterRequest{
			Name: "X", Email: "x@example.com", Password: "secret1",
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.Empty(t, emails.sent)
	})
}

func TestUserService_Login(t *testing.T) {
	mock, _, auth, svc := newUserFixture(t)
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Verified", func(t *testing.T) {
		mock.ExpectQuery("FROM users WHERE email").
			WithArgs("dev@example.com").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "Dev", "dev@example.com", hash, 4, true, time.Now(), time.Now()))

		user, err := svc.Login(ctx, "DEV@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, 1, user.ID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		mock.ExpectQuery("FROM users WHERE email").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "Dev", "dev@example.com", hash, 4, true, time.Now(), time.Now()))

		_, err := svc.Login(ctx, "dev@example.com", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		mock.ExpectQuery("FROM users WHERE email").WillReturnRows(sqlmock.NewRows(userCols))

		_, err := svc.Login(ctx, "ghost@example.com", "secret1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Unverified", func(t *testing.T) {
		mock.ExpectQuery("FROM users WHERE email").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(2, "New", "new@example.com", hash, 3, false, nil, time.Now()))

		user, err := svc.Login(ctx, "new@example.com", "secret1")
		assert.ErrorIs(t, err, ErrEmailNotVerified)
		require.NotNil(t, user)
		assert.Equal(t, authz.RoleContractor, user.RoleID)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_ResendOTP(t *testing.T) {
	mock, emails, _, svc := newUserFixture(t)
	ctx := context.Background()

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("new@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(2, "New", "new@example.com", "h", 4, false, nil, time.Now()))
	mock.ExpectExec("DELETE FROM otp_challenges WHERE email").
		WithArgs("new@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO otp_challenges").
		WithArgs(sqlmock.AnyArg(), "new@example.com", sqlmock.AnyArg(), 4).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	ch, err := svc.ResendOTP(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, authz.RoleDeveloper, ch.RoleID)
	assert.Len(t, emails.sent, 1)

	mock.ExpectQuery("FROM users WHERE email").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "Old", "old@example.com", "h", 1, true, time.Now(), time.Now()))
	_, err = svc.ResendOTP(ctx, "old@example.com")
	assert.ErrorIs(t, err, ErrAlreadyVerified)

	require.NoError(t, mock.ExpectationsWereMet())
}
