package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linkshorti/linkshorti_backend/config"
	"github.com/linkshorti/linkshorti_backend/controllers"
	"github.com/linkshorti/linkshorti_backend/repositories"
	"github.com/linkshorti/linkshorti_backend/websocket"
)

// SetupRoutes configures all API routes by calling individual route
// registration functions. The bare /:code redirect is registered last
// so the API groups take precedence.
func SetupRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub) {
	withdrawals := repositories.NewWithdrawalRepository(db.Database(config.DatabaseName()))

	authController := controllers.NewAuthController(db, withdrawals)
	userController := controllers.NewUserController(db)
	linkController := controllers.NewLinkController(db, withdrawals)
	statsController := controllers.NewStatisticsController(db)
	withdrawalController := controllers.NewWithdrawalController(withdrawals, hub)
	adminController := controllers.NewAdminController(db, withdrawals, hub)
	contactController := controllers.NewContactController(db, hub)

	RegisterAuthRoutes(e, authController)
	RegisterUserRoutes(e, userController, linkController, statsController, withdrawalController)
	RegisterAdminRoutes(e, adminController)

	e.POST("/api/contact", contactController.SubmitContact)

	// Public redirect, must stay last
	e.GET("/:code", linkController.Redirect)
}
