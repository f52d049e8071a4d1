// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User model
type User struct {
	ID                   primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FullName             string             `json:"fullName" bson:"fullName"`
	Email                string             `json:"email" bson:"email"`
	Password             string             `json:"password,omitempty" bson:"password,omitempty"` // empty for OAuth-only users
	GoogleID             string             `json:"googleId,omitempty" bson:"googleId,omitempty"`
	ProfileImage         string             `json:"profileImage,omitempty" bson:"profileImage,omitempty"`
	IsEmailVerified      bool               `json:"isEmailVerified" bson:"isEmailVerified"`
	EmailVerificationOTP string             `json:"-" bson:"emailVerificationOTP,omitempty"`
	EmailOTPExpires      *time.Time         `json:"-" bson:"emailOTPExpires,omitempty"`
	TempPassword         string             `json:"-" bson:"tempPassword,omitempty"`
	IsAdmin              bool               `json:"isAdmin" bson:"isAdmin"`
	IsBlocked            bool               `json:"isBlocked" bson:"isBlocked"`
	BlockedAt            *time.Time         `json:"blockedAt,omitempty" bson:"blockedAt,omitempty"`
	BlockedReason        string             `json:"blockedReason,omitempty" bson:"blockedReason,omitempty"`
	CreatedAt            time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SignupRequest is the body for creating a new account
type SignupRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest is the body for email/password login
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe,omitempty"`
}

// VerifyOTPRequest is the body for email verification
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

// ResendOTPRequest is the body for requesting a fresh verification code
type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// GoogleAuthRequest is the body for Google sign-in
type GoogleAuthRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// ForgotPasswordRequest drives the three-step password reset flow.
// Action is one of "request", "verify" or "reset".
type ForgotPasswordRequest struct {
	Action      string `json:"action" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp,omitempty"`
	NewPassword string `json:"newPassword,omitempty"`
}

// ChangePasswordRequest drives the two-step in-session password change.
// Action is "request" (send OTP) or "verify" (commit new password).
type ChangePasswordRequest struct {
	Action          string `json:"action" validate:"required"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
	OTP             string `json:"otp,omitempty"`
}

// UpdateProfileRequest is the body for profile updates
type UpdateProfileRequest struct {
	FullName string `json:"fullName" validate:"required"`
}
