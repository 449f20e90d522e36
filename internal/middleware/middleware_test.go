package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/authz"
	"estatehub/internal/models"
	"estatehub/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(auth services.AuthService, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(CORS(), AuthMiddleware(auth))
	handlers := append(extra, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt(CtxUserID)})
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	auth := services.NewAuthService("secret", time.Minute)
	token, err := auth.IssueAccessToken(&models.User{ID: 4, RoleID: authz.RoleDeveloper})
	require.NoError(t, err)
	r := newRouter(auth)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"no scheme", token, http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	auth := services.NewAuthService("secret", time.Minute)
	r := newRouter(auth, RequireRoles(authz.RoleContractor))

	for role, want := range map[authz.Role]int{
		authz.RoleContractor: http.StatusOK,
		authz.RoleDeveloper:  http.StatusForbidden,
	} {
		token, err := auth.IssueAccessToken(&models.User{ID: 1, RoleID: role})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "role %d", role)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(services.NewAuthService("secret", time.Minute))

	req := httptest.NewRequest(http.MethodOptions, "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
