package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/lucasmendel/arcadia/internal/auth"
	"github.com/lucasmendel/arcadia/internal/handlers"
	"github.com/lucasmendel/arcadia/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tokenManager *auth.TokenManager,
) {
	otpLimit := middleware.RateLimitByIP(middleware.OTPRateLimit())
	authLimit := middleware.RateLimitByIP(middleware.AuthRateLimit())

	// Public routes - no authentication required
	router.With(otpLimit).Post("/auth/send-otp", authHandler.SendOTP)
	router.With(authLimit).Post("/auth/verify-otp", authHandler.VerifyOTP)
	router.With(authLimit).Post("/auth/login", authHandler.Login)
	router.With(authLimit).Post("/auth/reset-password", authHandler.ResetPassword)
	router.With(authLimit).Post("/auth/google/verify", authHandler.GoogleVerify)
	router.With(authLimit).Post("/auth/google/login", authHandler.GoogleLogin)

	router.Get("/stats/{game}/leaderboard", userHandler.Leaderboard)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))

		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/profile", userHandler.GetProfile)
		r.Put("/auth/profile", userHandler.UpdateProfile)

		r.Post("/auth/totp/setup", authHandler.SetupTOTP)
		r.Post("/auth/totp/activate", authHandler.ActivateTOTP)

		r.Get("/stats", userHandler.GetStats)
		r.Post("/stats/{game}", userHandler.RecordPlay)
	})
}
