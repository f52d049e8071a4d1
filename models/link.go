package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Link is one shortened URL owned by a user. ShortCode is globally
// unique; Alias is optional and unique only when set (sparse index).
type Link struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserEmail   string             `json:"userEmail" bson:"userEmail"`
	OriginalURL string             `json:"originalUrl" bson:"originalUrl"`
	ShortCode   string             `json:"shortUrl" bson:"shortUrl"`
	Alias       string             `json:"alias,omitempty" bson:"alias,omitempty"`
	Clicks      int64              `json:"clicks" bson:"clicks"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CreateLinkRequest is the body for shortening a URL
type CreateLinkRequest struct {
	OriginalURL string `json:"originalUrl" validate:"required"`
	Alias       string `json:"alias,omitempty" validate:"omitempty,alphanum,min=3,max=30"`
}
