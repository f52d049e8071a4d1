package controllers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/linkshorti/linkshorti_backend/config"
	"github.com/linkshorti/linkshorti_backend/middleware"
	"github.com/linkshorti/linkshorti_backend/models"
	"github.com/linkshorti/linkshorti_backend/repositories"
	"github.com/linkshorti/linkshorti_backend/services"
	"github.com/linkshorti/linkshorti_backend/utils"
)

const otpTTL = 10 * time.Minute

// AuthController contains authentication logic
type AuthController struct {
	DB          *mongo.Client
	Withdrawals *repositories.WithdrawalRepository
	GoogleAuth  *services.GoogleAuthService
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Client, withdrawals *repositories.WithdrawalRepository) *AuthController {
	return &AuthController{
		DB:          db,
		Withdrawals: withdrawals,
		GoogleAuth:  services.NewGoogleAuthService(db, withdrawals),
	}
}

func (ac *AuthController) usersCollection() *mongo.Collection {
	return config.GetCollection(ac.DB, "users")
}

// Signup creates a new account and sends the email verification code
func (ac *AuthController) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request data",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "All fields are required",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}
	fullName := utils.SanitizeInput(req.FullName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := ac.usersCollection()

	count, err := users.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}
	if count > 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email already exists",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	otpCode, err := utils.GenerateSecureOTP()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate verification code",
		})
	}

	now := time.Now()
	otpExpires := now.Add(otpTTL)
	user := models.User{
		ID:                   primitive.NewObjectID(),
		FullName:             fullName,
		Email:                email,
		Password:             string(hashedPassword),
		EmailVerificationOTP: otpCode,
		EmailOTPExpires:      &otpExpires,
		IsEmailVerified:      false,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if _, err := users.InsertOne(ctx, user); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create account",
		})
	}

	// Every account carries a statistics and a withdrawal document;
	// roll the user back if provisioning fails so signup can be retried.
	if err := services.ProvisionUserRecords(ctx, ac.DB, ac.Withdrawals, email); err != nil {
		users.DeleteOne(ctx, bson.M{"_id": user.ID})
		log.Printf("Signup provisioning failed for %s: %v", email, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create account",
		})
	}

	if err := utils.SendVerificationEmail(email, fullName, otpCode, false); err != nil {
		users.DeleteOne(ctx, bson.M{"_id": user.ID})
		services.RemoveUserRecords(ctx, ac.DB, ac.Withdrawals, email)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to send verification email",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Account created! Please check your email for verification code.",
	})
}

// VerifyOTP marks the account's email as verified
func (ac *AuthController) VerifyOTP(c echo.Context) error {
	var req models.VerifyOTPRequest
	if err := c.Bind(&req); err != nil || req.Email == "" || req.OTP == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email and OTP are required",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	if err := utils.ValidateOTPAttempts("verify:"+email, config.GetRedisClient()); err != nil {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many attempts. Please try again later.",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := ac.usersCollection().UpdateOne(ctx,
		bson.M{
			"email":                email,
			"emailVerificationOTP": req.OTP,
			"emailOTPExpires":      bson.M{"$gt": time.Now()},
		},
		bson.M{
			"$set":   bson.M{"isEmailVerified": true, "updatedAt": time.Now()},
			"$unset": bson.M{"emailVerificationOTP": "", "emailOTPExpires": ""},
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
			Message: "Invalid or expired verification code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Email verified successfully!",
	})
}

// ResendOTP issues a fresh verification code
func (ac *AuthController) ResendOTP(c echo.Context) error {
	var req models.ResendOTPRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email is required",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = ac.usersCollection().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	if user.IsEmailVerified {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email is already verified",
		})
	}

	otpCode, err := utils.GenerateSecureOTP()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate verification code",
		})
	}

	otpExpires := time.Now().Add(otpTTL)
	_, err = ac.usersCollection().UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{
			"emailVerificationOTP": otpCode,
			"emailOTPExpires":      otpExpires,
			"updatedAt":            time.Now(),
		}},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	if err := utils.SendVerificationEmail(email, user.FullName, otpCode, true); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to send verification email",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "New verification code sent!",
	})
}

// Login authenticates a user with email and password
func (ac *AuthController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email and password are required",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = ac.usersCollection().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		// Identical message for unknown email and bad password
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	if user.Password == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "This account uses Google sign-in. Please sign in with Google.",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	if !user.IsEmailVerified {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Please verify your email before logging in",
		})
	}

	if user.IsBlocked {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Your account has been blocked. Please contact support.",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, "user")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate session token",
		})
	}

	data := map[string]interface{}{
		"token":        token,
		"refreshToken": refreshToken,
		"user": map[string]interface{}{
			"id":           user.ID,
			"email":        user.Email,
			"fullName":     user.FullName,
			"profileImage": user.ProfileImage,
		},
	}

	if req.RememberMe {
		if rememberToken, err := utils.GenerateRememberMeToken(); err == nil {
			expiration := 30 * 24 * time.Hour
			credentials := utils.RememberedCredentials{
				Email:     user.Email,
				UserID:    user.ID.Hex(),
				UserType:  "user",
				ExpiresAt: time.Now().Add(expiration),
			}
			if err := utils.StoreRememberedCredentials(config.GetRedisClient(), rememberToken, credentials, expiration); err == nil {
				data["rememberMeToken"] = rememberToken
			} else {
				log.Printf("Remember me storage failed for %s: %v", user.Email, err)
			}
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data:    data,
	})
}

// GoogleLogin verifies a Google ID token and signs the user in,
// creating the account on first sign-in.
func (ac *AuthController) GoogleLogin(c echo.Context) error {
	var req models.GoogleAuthRequest
	if err := c.Bind(&req); err != nil || req.IDToken == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Missing idToken",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	googleUser, err := ac.GoogleAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		log.Printf("Google auth verification failed: %v", err)
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired Google token",
		})
	}

	data, err := ac.GoogleAuth.AuthenticateUser(ctx, googleUser)
	if err != nil {
		if err == services.ErrBlockedAccount {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Your account has been blocked. Please contact support.",
			})
		}
		log.Printf("Google auth failed for %s: %v", googleUser.Email, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to sign in with Google",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data:    data,
	})
}

// ForgotPassword drives the request/verify/reset password flow
func (ac *AuthController) ForgotPassword(c echo.Context) error {
	var req models.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email is required",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	switch req.Action {
	case "request":
		return ac.handlePasswordResetRequest(c, email)
	case "verify":
		return ac.handleVerifyResetOTP(c, email, req.OTP)
	case "reset":
		return ac.handlePasswordReset(c, email, req.OTP, req.NewPassword)
	default:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid action",
		})
	}
}

func (ac *AuthController) handlePasswordResetRequest(c echo.Context, email string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := ac.usersCollection().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		// Don't reveal whether the account exists
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "If an account exists with this email, you will receive a password reset code.",
		})
	}

	if user.Password == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "This account uses Google sign-in. Please sign in with Google.",
		})
	}

	otpCode, err := utils.GenerateSecureOTP()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate reset code",
		})
	}

	otpExpires := time.Now().Add(otpTTL)
	_, err = ac.usersCollection().UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{
			"emailVerificationOTP": otpCode,
			"emailOTPExpires":      otpExpires,
			"updatedAt":            time.Now(),
		}},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	if err := utils.SendPasswordResetEmail(email, user.FullName, otpCode); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to send reset email",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password reset code sent to your email!",
	})
}

func (ac *AuthController) handleVerifyResetOTP(c echo.Context, email, otp string) error {
	if otp == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email and OTP are required",
		})
	}

	if err := utils.ValidateOTPAttempts("reset:"+email, config.GetRedisClient()); err != nil {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many attempts. Please try again later.",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := ac.usersCollection().CountDocuments(ctx, bson.M{
		"email":                email,
		"emailVerificationOTP": otp,
		"emailOTPExpires":      bson.M{"$gt": time.Now()},
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}
	if count == 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid or expired reset code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Code verified! You can now reset your password.",
	})
}

func (ac *AuthController) handlePasswordReset(c echo.Context, email, otp, newPassword string) error {
	if otp == "" || newPassword == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email, OTP, and new password are required",
		})
	}
	if len(newPassword) < 8 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Password must be at least 8 characters",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := ac.usersCollection().UpdateOne(ctx,
		bson.M{
			"email":                email,
			"emailVerificationOTP": otp,
			"emailOTPExpires":      bson.M{"$gt": time.Now()},
		},
		bson.M{
			"$set":   bson.M{"password": string(hashedPassword), "updatedAt": time.Now()},
			"$unset": bson.M{"emailVerificationOTP": "", "emailOTPExpires": ""},
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
			Message: "Invalid or expired reset code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password reset successfully! You can now login with your new password.",
	})
}

// RefreshToken exchanges a valid refresh token for a new token pair
func (ac *AuthController) RefreshToken(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Refresh token is required",
		})
	}

	token, err := jwt.ParseWithClaims(req.RefreshToken, &middleware.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(middleware.GetJWTSecret()), nil
	})
	if err != nil || !token.Valid {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired refresh token",
		})
	}

	claims, ok := token.Claims.(*middleware.JwtCustomClaims)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token claims",
		})
	}

	newToken, newRefreshToken, err := middleware.GenerateJWT(claims.UserID, claims.Email, claims.UserType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate session token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Token refreshed",
		Data: map[string]interface{}{
			"token":        newToken,
			"refreshToken": newRefreshToken,
		},
	})
}

// Logout blacklists the current token
func (ac *AuthController) Logout(c echo.Context) error {
	authHeader := c.Request().Header.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" || tokenString == authHeader {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No token provided",
		})
	}

	middleware.BlacklistToken(tokenString, time.Now().Add(72*time.Hour))

	if rememberToken := c.QueryParam("rememberMeToken"); rememberToken != "" {
		utils.RemoveRememberedCredentials(config.GetRedisClient(), rememberToken)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully",
	})
}

// RememberMeLogin exchanges a stored remember-me token for a fresh
// session without re-entering credentials.
func (ac *AuthController) RememberMeLogin(c echo.Context) error {
	var req struct {
		Token string `json:"rememberMeToken"`
	}
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Remember me token is required",
		})
	}

	credentials, err := utils.RetrieveRememberedCredentials(config.GetRedisClient(), req.Token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired remember me token",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = ac.usersCollection().FindOne(ctx, bson.M{"email": credentials.Email}).Decode(&user)
	if err != nil || user.IsBlocked {
		utils.RemoveRememberedCredentials(config.GetRedisClient(), req.Token)
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired remember me token",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, credentials.UserType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate session token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: map[string]interface{}{
			"token":        token,
			"refreshToken": refreshToken,
			"user": map[string]interface{}{
				"id":           user.ID,
				"email":        user.Email,
				"fullName":     user.FullName,
				"profileImage": user.ProfileImage,
			},
		},
	})
}
