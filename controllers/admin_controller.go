package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/linkshorti/linkshorti_backend/config"
	"github.com/linkshorti/linkshorti_backend/middleware"
	"github.com/linkshorti/linkshorti_backend/models"
	"github.com/linkshorti/linkshorti_backend/repositories"
	"github.com/linkshorti/linkshorti_backend/utils"
	"github.com/linkshorti/linkshorti_backend/websocket"
)

const (
	maxAdminLoginAttempts = 5
	adminLockoutDuration  = 15 * time.Minute
)

// AdminController handles the admin dashboard endpoints
type AdminController struct {
	DB          *mongo.Client
	Withdrawals *repositories.WithdrawalRepository
	Hub         *websocket.Hub
}

// NewAdminController creates a new admin controller
func NewAdminController(db *mongo.Client, withdrawals *repositories.WithdrawalRepository, hub *websocket.Hub) *AdminController {
	return &AdminController{DB: db, Withdrawals: withdrawals, Hub: hub}
}

func (ac *AdminController) adminsCollection() *mongo.Collection {
	return config.GetCollection(ac.DB, "admins")
}

func (ac *AdminController) usersCollection() *mongo.Collection {
	return config.GetCollection(ac.DB, "users")
}

// Login authenticates an admin by phone number. Five consecutive
// failures lock the account for fifteen minutes.
func (ac *AdminController) Login(c echo.Context) error {
	var req models.AdminLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request data",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Phone number and password are required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	phone, err := utils.SanitizePhone(req.PhoneNumber)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid phone number",
		})
	}

	var admin models.Admin
	err = ac.adminsCollection().FindOne(ctx, bson.M{"phoneNumber": phone}).Decode(&admin)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid phone number or password",
		})
	}

	if admin.LockedUntil != nil && admin.LockedUntil.After(time.Now()) {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Account locked. Try again later.",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		update := bson.M{"$inc": bson.M{"loginAttempts": 1}}
		if admin.LoginAttempts+1 >= maxAdminLoginAttempts {
			lockedUntil := time.Now().Add(adminLockoutDuration)
			update = bson.M{"$set": bson.M{"loginAttempts": 0, "lockedUntil": lockedUntil}}
		}
		if _, uerr := ac.adminsCollection().UpdateOne(ctx, bson.M{"_id": admin.ID}, update); uerr != nil {
			log.Printf("Failed to record failed admin login: %v", uerr)
		}
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid phone number or password",
		})
	}

	now := time.Now()
	_, err = ac.adminsCollection().UpdateOne(ctx,
		bson.M{"_id": admin.ID},
		bson.M{
			"$set":   bson.M{"loginAttempts": 0, "lastLogin": now, "updatedAt": now},
			"$unset": bson.M{"lockedUntil": ""},
		},
	)
	if err != nil {
		log.Printf("Failed to record admin login: %v", err)
	}

	accessToken, refreshToken, err := middleware.GenerateJWT(admin.ID.Hex(), admin.PhoneNumber, "admin")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: map[string]interface{}{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
			"admin": map[string]interface{}{
				"id":          admin.ID.Hex(),
				"name":        admin.Name,
				"phoneNumber": admin.PhoneNumber,
			},
		},
	})
}

// Verify confirms the caller holds a valid admin token
func (ac *AdminController) Verify(c echo.Context) error {
	claims := middleware.GetUserFromToken(c)
	if claims == nil || claims.UserType != "admin" {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Token is valid",
		Data:    map[string]string{"adminId": claims.UserID},
	})
}

// Logout blacklists the admin's current token
func (ac *AdminController) Logout(c echo.Context) error {
	authHeader := c.Request().Header.Get("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token != "" && token != authHeader {
		middleware.BlacklistToken(token, time.Now().Add(72*time.Hour))
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully",
	})
}

// ListUsers returns all registered users, newest first
func (ac *AdminController) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetProjection(bson.M{"password": 0, "emailVerificationOTP": 0, "emailOTPExpires": 0, "tempPassword": 0})
	cursor, err := ac.usersCollection().Find(ctx, bson.M{}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode users",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Users retrieved successfully",
		Data:    users,
	})
}

// BlockUser blocks or unblocks a user account. Admin accounts live in a
// separate collection; a user flagged isAdmin cannot be blocked either.
func (ac *AdminController) BlockUser(c echo.Context) error {
	var req models.BlockUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request data",
		})
	}
	if req.Action != "block" && req.Action != "unblock" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid action",
		})
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := ac.usersCollection().FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}
	if user.IsAdmin {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Cannot block admin users",
		})
	}

	var update bson.M
	if req.Action == "block" {
		update = bson.M{"$set": bson.M{
			"isBlocked":     true,
			"blockedAt":     time.Now(),
			"blockedReason": utils.SanitizeInput(req.Reason),
			"updatedAt":     time.Now(),
		}}
	} else {
		update = bson.M{
			"$set":   bson.M{"isBlocked": false, "updatedAt": time.Now()},
			"$unset": bson.M{"blockedAt": "", "blockedReason": ""},
		}
	}

	if _, err := ac.usersCollection().UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User " + req.Action + "ed successfully",
	})
}

// ListOpenWithdrawals returns all Pending and Approved requests across
// every account for the admin dashboard
func (ac *AdminController) ListOpenWithdrawals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	open, err := ac.Withdrawals.ListOpenRequests(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load withdrawal requests",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal requests retrieved successfully",
		Data:    open,
	})
}

// ProcessWithdrawalAction applies an admin action to one withdrawal
// request. The status check and the balance movement commit atomically,
// so two admins racing on the same request cannot both succeed.
func (ac *AdminController) ProcessWithdrawalAction(c echo.Context) error {
	var req models.AdminWithdrawalActionRequest
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userEmail, err := utils.SanitizeEmail(req.UserEmail)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email",
		})
	}

	// The note is stored verbatim; escaping is the renderer's job.
	updated, err := ac.Withdrawals.ApplyAction(ctx, userEmail, req.WithdrawalID, req.Action, strings.TrimSpace(req.Reason))
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrUnknownAction):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Unknown action",
			})
		case errors.Is(err, repositories.ErrAccountNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Withdrawal account not found",
			})
		case errors.Is(err, repositories.ErrRequestNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Withdrawal request not found",
			})
		case errors.Is(err, repositories.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Request is not in a valid state for this action",
			})
		default:
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to process withdrawal action",
			})
		}
	}

	ac.Hub.Broadcast(websocket.Event{
		Type:    websocket.EventTypeWithdrawalUpdated,
		Message: "Withdrawal " + updated.Status,
		Data: map[string]interface{}{
			"userEmail":    req.UserEmail,
			"withdrawalId": updated.WithdrawalID,
			"status":       updated.Status,
			"totalAmount":  updated.TotalAmount,
		},
	})

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal " + req.Action + " applied successfully",
		Data:    updated,
	})
}

// HandleWebSocket upgrades the admin connection for the live feed
func (ac *AdminController) HandleWebSocket(c echo.Context) error {
	claims := middleware.GetUserFromToken(c)
	if claims == nil || claims.UserType != "admin" {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	return websocket.HandleAdminWebSocket(c, ac.Hub, claims.UserID)
}
