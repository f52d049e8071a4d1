package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/linkshorti/linkshorti_backend/controllers"
	"github.com/linkshorti/linkshorti_backend/middleware"
)

// RegisterAuthRoutes sets up the public authentication routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	auth := e.Group("/api/auth")

	auth.POST("/signup", authController.Signup)
	auth.POST("/verify-otp", authController.VerifyOTP)
	auth.POST("/resend-otp", authController.ResendOTP)
	auth.POST("/login", authController.Login)
	auth.POST("/remember-me", authController.RememberMeLogin)
	auth.POST("/google", authController.GoogleLogin)
	auth.POST("/forgot-password", authController.ForgotPassword)
	auth.POST("/refresh-token", authController.RefreshToken)

	auth.POST("/logout", authController.Logout, middleware.JWTMiddleware())
}
