package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "estatehub/docs"
	"estatehub/internal/config"
	"estatehub/internal/handlers"
	"estatehub/internal/middleware"
	"estatehub/internal/repositories"
	"estatehub/internal/routes"
	"estatehub/internal/services"
	"estatehub/internal/unread"
)

// NewRouter wires repositories, services and handlers over db.
func NewRouter(cfg *config.Config, db *sql.DB, emails services.EmailService) *gin.Engine {
	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	challengeRepo := repositories.NewOTPChallengeRepository(db)
	chatRepo := repositories.NewChatRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)

	// === Services ===
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL)
	otpService := services.NewOTPService(challengeRepo, userRepo, emails, authService, cfg.OTP.CodeLength)
	userService := services.NewUserService(userRepo, otpService, authService)
	chatService := services.NewChatService(chatRepo, unread.NewRegistry())
	resetService := services.NewPasswordResetService(userRepo, resetRepo, emails, authService)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, otpService, authService)
	verifyHandler := handlers.NewVerifyHandler(otpService, userService)
	chatHandler := handlers.NewChatHandler(chatService)
	passwordHandler := handlers.NewPasswordHandler(resetService)
	userHandler := handlers.NewUserHandler(userService)

	// === Gin ===
	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return routes.SetupRoutes(router, middleware.AuthMiddleware(authService), authHandler, verifyHandler, chatHandler, passwordHandler, userHandler)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("[app] close database")
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	emails := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.DryRun,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           NewRouter(cfg, db, emails),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("[app] server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	log.Info().Msg("[app] shutting down")
	return srv.Shutdown(shutdownCtx)
}
