package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin is a dashboard operator. Admins log in with a phone number and
// are a separate credential set from regular users.
type Admin struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	PhoneNumber   string             `json:"phoneNumber" bson:"phoneNumber"`
	Password      string             `json:"-" bson:"password"`
	LoginAttempts int                `json:"-" bson:"loginAttempts"`
	LockedUntil   *time.Time         `json:"-" bson:"lockedUntil,omitempty"`
	LastLogin     *time.Time         `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// AdminLoginRequest is the body for admin login
type AdminLoginRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

// BlockUserRequest is the body for blocking or unblocking a user.
// Action is "block" or "unblock".
type BlockUserRequest struct {
	UserID string `json:"userId" validate:"required"`
	Action string `json:"action" validate:"required"`
	Reason string `json:"reason,omitempty"`
}
