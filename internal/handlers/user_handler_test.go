package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/authz"
	"estatehub/internal/middleware"
	"estatehub/internal/models"
)

type userDirectory struct {
	fakeUsers
	byID map[int]*models.User
	err  error
}

func (d *userDirectory) GetUserByID(_ context.Context, id int) (*models.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.byID[id], nil
}

func newUserRouter(callerID int, role authz.Role) *gin.Engine {
	dir := &userDirectory{byID: map[int]*models.User{
		1: {ID: 1, Email: "crew@example.com", RoleID: authz.RoleContractor},
		2: {ID: 2, Email: "dev@example.com", RoleID: authz.RoleDeveloper},
	}}
	h := NewUserHandler(dir)
	r := gin.New()
	api := r.Group("/", asUser(callerID, role))
	api.GET("/me", h.Me)
	api.GET("/users/:id", middleware.RequireRoles(authz.RoleContractor, authz.RoleDeveloper), h.GetUserByID)
	return r
}

func TestUserHandler_Me(t *testing.T) {
	r := newUserRouter(1, authz.RoleContractor)

	w := doJSON(t, r, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[meResponse](t, w)
	assert.Equal(t, "crew@example.com", resp.User.Email)
	assert.Equal(t, authz.TargetContractorProfileCompletion, resp.Target)

	w = doJSON(t, newUserRouter(99, authz.RoleUser), http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserHandler_GetUserByID(t *testing.T) {
	w := doJSON(t, newUserRouter(1, authz.RoleContractor), http.MethodGet, "/users/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dev@example.com", decode[models.User](t, w).Email)

	w = doJSON(t, newUserRouter(1, authz.RoleContractor), http.MethodGet, "/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, newUserRouter(5, authz.RoleUser), http.MethodGet, "/users/2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserHandler_GetUserByIDStoreFailure(t *testing.T) {
	h := NewUserHandler(&userDirectory{err: errors.New("connection refused")})
	r := gin.New()
	r.GET("/users/:id", asUser(1, authz.RoleDeveloper), h.GetUserByID)

	w := doJSON(t, r, http.MethodGet, "/users/2", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
