package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/linkshorti/linkshorti_backend/controllers"
	"github.com/linkshorti/linkshorti_backend/middleware"
)

// RegisterUserRoutes sets up all user-facing protected routes
func RegisterUserRoutes(e *echo.Echo, userController *controllers.UserController, linkController *controllers.LinkController, statsController *controllers.StatisticsController, withdrawalController *controllers.WithdrawalController) {
	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())
	r.Use(middleware.RequireUserType("user"))

	// Profile
	r.GET("/users/profile", userController.GetProfile)
	r.PUT("/users/profile", userController.UpdateProfile)
	r.POST("/users/profile-image", userController.UploadProfileImage)
	r.GET("/users/auth-method", userController.CheckAuthMethod)
	r.POST("/users/change-password", userController.ChangePassword)

	// Links
	r.POST("/links", linkController.CreateLink)
	r.GET("/links", linkController.GetUserLinks)
	r.DELETE("/links/:id", linkController.DeleteLink)
	r.GET("/links/:id/qr", linkController.GetLinkQRCode)

	// Statistics
	r.GET("/statistics", statsController.GetStatistics)
	e.GET("/api/payout-rates", statsController.GetPayoutRates)

	// Withdrawals
	r.GET("/withdrawal", withdrawalController.GetAccount)
	r.PUT("/withdrawal/details", withdrawalController.SaveDetails)
	r.POST("/withdrawal/request", withdrawalController.CreateRequest)
}
