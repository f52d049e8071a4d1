package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/linkshorti/linkshorti_backend/controllers"
	"github.com/linkshorti/linkshorti_backend/middleware"
)

// RegisterAdminRoutes sets up the admin dashboard routes
func RegisterAdminRoutes(e *echo.Echo, adminController *controllers.AdminController) {
	e.POST("/api/admin/login", adminController.Login)

	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireUserType("admin"))

	admin.GET("/verify", adminController.Verify)
	admin.POST("/logout", adminController.Logout)

	admin.GET("/users", adminController.ListUsers)
	admin.POST("/users/block", adminController.BlockUser)

	admin.GET("/withdrawals", adminController.ListOpenWithdrawals)
	admin.POST("/withdrawals/action", adminController.ProcessWithdrawalAction)

	admin.GET("/ws", adminController.HandleWebSocket)
}
