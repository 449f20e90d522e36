package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/config"
)

type captureEmails struct {
	last string
}

func (c *captureEmails) SendOTPEmail(_, code string) error {
	c.last = code
	return nil
}

func (c *captureEmails) SendPasswordResetEmail(_, token string) error {
	c.last = token
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTTL = 15 * time.Minute
	cfg.OTP.CodeLength = 4
	return cfg
}

func call(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterVerifyFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	emails := &captureEmails{}
	r := NewRouter(testConfig(), db, emails)

	// register a real-estate developer
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Skyline Dev", "sky@example.com", sqlmock.AnyArg(), 4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(31, time.Now()))
	mock.ExpectExec("DELETE FROM otp_challenges WHERE email").
		WithArgs("sky@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO otp_challenges").
		WithArgs(sqlmock.AnyArg(), "sky@example.com", sqlmock.AnyArg(), 4).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	w := call(t, r, http.MethodPost, "/register", "", gin.H{
		"name": "Skyline Dev", "email": "sky@example.com", "password": "secret1", "role_id": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var reg struct {
		ChallengeID string `json:"challenge_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	require.NotEmpty(t, reg.ChallengeID)
	code := emails.last
	require.Len(t, code, 4)

	challengeRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "email", "code", "role_id", "created_at"}).
			AddRow(reg.ChallengeID, "sky@example.com", code, 4, time.Now())
	}

	// wrong code: rejected, nothing consumed
	wrong := "x" + code
	mock.ExpectQuery("FROM otp_challenges").WithArgs(reg.ChallengeID).WillReturnRows(challengeRow())
	w = call(t, r, http.MethodPost, "/register/otp/verify", "", gin.H{"challenge_id": reg.ChallengeID, "code": wrong})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// right code
	mock.ExpectQuery("FROM otp_challenges").WithArgs(reg.ChallengeID).WillReturnRows(challengeRow())
	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("sky@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role_id", "email_verified", "verified_at", "created_at"}).
			AddRow(31, "Skyline Dev", "sky@example.com", "hash", 4, false, nil, time.Now()))
	mock.ExpectExec("UPDATE users SET email_verified").
		WithArgs(31).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM otp_challenges WHERE id").
		WithArgs(reg.ChallengeID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w = call(t, r, http.MethodPost, "/register/otp/verify", "", gin.H{"challenge_id": reg.ChallengeID, "code": code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var verified struct {
		Target      string `json:"target"`
		Replace     bool   `json:"replace"`
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verified))
	assert.Equal(t, "realstate-contractor-home", verified.Target)
	assert.True(t, verified.Replace)

	// the token opens the protected badge API
	w = call(t, r, http.MethodGet, "/unread", verified.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0}`, w.Body.String())

	w = call(t, r, http.MethodGet, "/unread", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyMalformedChallengeID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewRouter(testConfig(), db, &captureEmails{})
	w := call(t, r, http.MethodPost, "/register/otp/verify", "", gin.H{"challenge_id": "1; DROP", "code": "1234"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewRouter(testConfig(), db, &captureEmails{})
	w := call(t, r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
