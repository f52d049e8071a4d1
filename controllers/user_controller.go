package controllers

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/linkshorti/linkshorti_backend/config"
	"github.com/linkshorti/linkshorti_backend/middleware"
	"github.com/linkshorti/linkshorti_backend/models"
	"github.com/linkshorti/linkshorti_backend/utils"
)

// UserController handles profile operations
type UserController struct {
	DB *mongo.Client
}

// NewUserController creates a new user controller
func NewUserController(db *mongo.Client) *UserController {
	return &UserController{DB: db}
}

func (uc *UserController) usersCollection() *mongo.Collection {
	return config.GetCollection(uc.DB, "users")
}

// currentUser loads the authenticated user's document
func (uc *UserController) currentUser(c echo.Context, ctx context.Context) (*models.User, error) {
	email, err := middleware.ExtractEmail(c)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := uc.usersCollection().FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetProfile returns the authenticated user's profile
func (uc *UserController) GetProfile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := uc.currentUser(c, ctx)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	user.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile retrieved successfully",
		Data:    user,
	})
}

// UpdateProfile updates the user's full name
func (uc *UserController) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request data",
		})
	}

	fullName := utils.SanitizeInput(req.FullName)
	if fullName == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Full name is required",
		})
	}

	email, err := middleware.ExtractEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := uc.usersCollection().UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"fullName": fullName, "updatedAt": time.Now()}},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile updated successfully",
		Data: map[string]string{
			"fullName": fullName,
			"email":    email,
		},
	})
}

// UploadProfileImage stores a resized avatar and saves its URL
func (uc *UserController) UploadProfileImage(c echo.Context) error {
	email, err := middleware.ExtractEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Image file is required",
		})
	}

	if err := utils.ValidateImageFile(fileHeader.Filename, fileHeader.Size); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Failed to read uploaded file",
		})
	}
	defer src.Close()

	fileData, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Failed to read uploaded file",
		})
	}

	imageURL, err := utils.SaveProfileImage(fileData, fileHeader.Filename)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var previous models.User
	err = uc.usersCollection().FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"profileImage": imageURL, "updatedAt": time.Now()}},
	).Decode(&previous)
	if err != nil {
		utils.RemoveUploadedFile(imageURL)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}
	if previous.ProfileImage != "" {
		if err := utils.RemoveUploadedFile(previous.ProfileImage); err != nil {
			log.Printf("Failed to remove old profile image for %s: %v", email, err)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile image updated successfully",
		Data:    map[string]string{"profileImage": imageURL},
	})
}

// CheckAuthMethod reports whether the account is Google-only
func (uc *UserController) CheckAuthMethod(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := uc.currentUser(c, ctx)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Auth method retrieved",
		Data:    map[string]bool{"isGoogleUser": user.Password == ""},
	})
}

// ChangePassword drives the two-step in-session password change: the
// "request" action verifies the current password, stashes the new hash
// and emails an OTP; "verify" commits the stashed hash.
func (uc *UserController) ChangePassword(c echo.Context) error {
	var req models.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request data",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := uc.currentUser(c, ctx)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	if user.Password == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Cannot change password for Google sign-in accounts",
		})
	}

	switch req.Action {
	case "request":
		return uc.handlePasswordChangeRequest(c, ctx, user, req.CurrentPassword, req.NewPassword)
	case "verify":
		return uc.handlePasswordChangeVerify(c, ctx, user, req.OTP)
	default:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid action",
		})
	}
}

func (uc *UserController) handlePasswordChangeRequest(c echo.Context, ctx context.Context, user *models.User, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Current and new password are required",
		})
	}
	if len(newPassword) < 8 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Password must be at least 8 characters",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Current password is incorrect",
		})
	}

	otpCode, err := utils.GenerateSecureOTP()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate confirmation code",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	otpExpires := time.Now().Add(otpTTL)
	_, err = uc.usersCollection().UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{
			"emailVerificationOTP": otpCode,
			"emailOTPExpires":      otpExpires,
			"tempPassword":         string(hashedPassword),
			"updatedAt":            time.Now(),
		}},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	if err := utils.SendPasswordChangeEmail(user.Email, user.FullName, otpCode); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to send confirmation code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Confirmation code sent to your email",
	})
}

func (uc *UserController) handlePasswordChangeVerify(c echo.Context, ctx context.Context, user *models.User, otp string) error {
	if otp == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "OTP is required",
		})
	}

	if err := utils.ValidateOTPAttempts("change:"+user.Email, config.GetRedisClient()); err != nil {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many attempts. Please try again later.",
		})
	}

	if user.TempPassword == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No pending password change",
		})
	}

	result, err := uc.usersCollection().UpdateOne(ctx,
		bson.M{
			"_id":                  user.ID,
			"emailVerificationOTP": otp,
			"emailOTPExpires":      bson.M{"$gt": time.Now()},
		},
		bson.M{
			"$set":   bson.M{"password": user.TempPassword, "updatedAt": time.Now()},
			"$unset": bson.M{"emailVerificationOTP": "", "emailOTPExpires": "", "tempPassword": ""},
		},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid or expired confirmation code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password changed successfully",
	})
}
