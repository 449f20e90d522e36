package handlers

import (
	"github.com/gin-gonic/gin"

	"estatehub/internal/authz"
	"estatehub/internal/middleware"
)

func getIntFromCtx(c *gin.Context, key string) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case authz.Role:
		return int(t), true
	}
	return 0, false
}

func getUserAndRole(c *gin.Context) (userID int, role authz.Role) {
	if id, ok := getIntFromCtx(c, middleware.CtxUserID); ok {
		userID = id
	}
	if id, ok := getIntFromCtx(c, middleware.CtxRoleID); ok {
		role = authz.Role(id)
	}
	return
}

type errorResponse struct {
	Error string `json:"error"`
}
