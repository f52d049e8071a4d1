package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linkshorti/linkshorti_backend/config"
	"github.com/linkshorti/linkshorti_backend/models"
	"github.com/linkshorti/linkshorti_backend/utils"
	"github.com/linkshorti/linkshorti_backend/websocket"
)

// ContactController handles contact-form submissions
type ContactController struct {
	DB  *mongo.Client
	Hub *websocket.Hub
}

// NewContactController creates a new contact controller
func NewContactController(db *mongo.Client, hub *websocket.Hub) *ContactController {
	return &ContactController{DB: db, Hub: hub}
}

// SubmitContact stores a submission and notifies the support inbox
func (cc *ContactController) SubmitContact(c echo.Context) error {
	var req models.ContactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request data",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email",
		})
	}

	contact := models.Contact{
		ID:        primitive.NewObjectID(),
		FullName:  utils.SanitizeInput(req.FullName),
		Email:     email,
		Message:   utils.SanitizeInput(req.Message),
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := config.GetCollection(cc.DB, "contacts").InsertOne(ctx, contact); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to submit message",
		})
	}

	// Delivery failures must not fail the submission
	go func() {
		if err := utils.SendContactNotification(contact.FullName, contact.Email, contact.Message); err != nil {
			log.Printf("Failed to send contact notification: %v", err)
		}
	}()

	cc.Hub.Broadcast(websocket.Event{
		Type:    websocket.EventTypeContactSubmitted,
		Message: "New contact message",
		Data:    map[string]string{"fullName": contact.FullName, "email": contact.Email},
	})

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Message submitted successfully",
	})
}
