package routes

import (
	"github.com/gin-gonic/gin"

	"estatehub/internal/authz"
	"estatehub/internal/handlers"
	"estatehub/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authMW gin.HandlerFunc,
	authHandler *handlers.AuthHandler,
	verifyHandler *handlers.VerifyHandler,
	chatHandler *handlers.ChatHandler,
	passwordHandler *handlers.PasswordHandler,
	userHandler *handlers.UserHandler,
) *gin.Engine {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	// ---- public
	r.POST("/login", authHandler.Login)
	r.POST("/register", authHandler.Register)
	r.POST("/register/otp/verify", verifyHandler.VerifyOTP)
	r.POST("/register/otp/resend", verifyHandler.ResendOTP)
	r.POST("/password/forgot", passwordHandler.Forgot)
	r.POST("/password/reset", passwordHandler.Reset)

	// ---- protected
	api := r.Group("/", authMW)

	api.GET("/me", userHandler.Me)
	api.GET("/users/:id", middleware.RequireRoles(authz.RoleContractor, authz.RoleDeveloper), userHandler.GetUserByID)

	chats := api.Group("/chats")
	{
		chats.GET("", chatHandler.ListChats)
		chats.POST("/:id/read", chatHandler.MarkRead)
		chats.GET("/:id/messages", chatHandler.ListMessages)
		chats.POST("/:id/messages", chatHandler.SendMessage)
	}

	badge := api.Group("/unread")
	{
		badge.GET("", chatHandler.GetUnread)
		badge.PUT("", chatHandler.SetUnread)
		badge.POST("/decrease", chatHandler.DecreaseUnread)
		badge.DELETE("", chatHandler.ResetUnread)
		badge.GET("/stream", chatHandler.StreamUnread)
	}

	return r
}
