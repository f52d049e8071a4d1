package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linkshorti/linkshorti_backend/config"
	"github.com/linkshorti/linkshorti_backend/middleware"
	"github.com/linkshorti/linkshorti_backend/models"
)

// StatisticsController serves per-user click and earnings statistics
type StatisticsController struct {
	DB *mongo.Client
}

// NewStatisticsController creates a new statistics controller
func NewStatisticsController(db *mongo.Client) *StatisticsController {
	return &StatisticsController{DB: db}
}

// GetStatistics returns the authenticated user's statistics document
func (sc *StatisticsController) GetStatistics(c echo.Context) error {
	email, err := middleware.ExtractEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var stats models.Statistics
	err = config.GetCollection(sc.DB, "statistics").FindOne(ctx, bson.M{"userEmail": email}).Decode(&stats)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Provisioned lazily; an empty document is a valid answer.
			stats = models.Statistics{UserEmail: email, DailyStats: []models.DailyStat{}}
		} else {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Database error",
			})
		}
	}
	if stats.DailyStats == nil {
		stats.DailyStats = []models.DailyStat{}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Statistics retrieved successfully",
		Data:    stats,
	})
}

// GetPayoutRates returns the published per-country rates per 1000 views
func (sc *StatisticsController) GetPayoutRates(c echo.Context) error {
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout rates retrieved successfully",
		Data:    models.PublishedPayoutRates(),
	})
}
