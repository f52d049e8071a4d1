package controllers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linkshorti/linkshorti_backend/config"
	"github.com/linkshorti/linkshorti_backend/middleware"
	"github.com/linkshorti/linkshorti_backend/models"
	"github.com/linkshorti/linkshorti_backend/repositories"
	"github.com/linkshorti/linkshorti_backend/utils"
)

const (
	shortCodeRetries = 5
	redirectCacheTTL = time.Hour
	qrImageSize      = 512
)

// LinkController handles short link management and redirects
type LinkController struct {
	DB          *mongo.Client
	Withdrawals *repositories.WithdrawalRepository
}

// NewLinkController creates a new link controller
func NewLinkController(db *mongo.Client, withdrawals *repositories.WithdrawalRepository) *LinkController {
	return &LinkController{DB: db, Withdrawals: withdrawals}
}

func (lc *LinkController) linksCollection() *mongo.Collection {
	return config.GetCollection(lc.DB, "links")
}

func (lc *LinkController) statsCollection() *mongo.Collection {
	return config.GetCollection(lc.DB, "statistics")
}

// CreateLink shortens a URL for the authenticated user
func (lc *LinkController) CreateLink(c echo.Context) error {
	email, err := middleware.ExtractEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.CreateLinkRequest
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

	originalURL, err := utils.NormalizeURL(req.OriginalURL)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid URL",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	link := models.Link{
		ID:          primitive.NewObjectID(),
		UserEmail:   email,
		OriginalURL: originalURL,
		Alias:       strings.ToLower(strings.TrimSpace(req.Alias)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Retry on short code collision; the unique index on shortUrl is
	// the source of truth.
	var insertErr error
	for attempt := 0; attempt < shortCodeRetries; attempt++ {
		code, err := utils.GenerateShortCode(utils.ShortCodeLength)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to generate short code",
			})
		}
		link.ShortCode = code

		_, insertErr = lc.linksCollection().InsertOne(ctx, link)
		if insertErr == nil {
			break
		}
		if !mongo.IsDuplicateKeyError(insertErr) {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Database error",
			})
		}
		if link.Alias != "" && lc.aliasTaken(ctx, link.Alias) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Alias is already taken",
			})
		}
	}
	if insertErr != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create short link",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Link created successfully",
		Data:    link,
	})
}

func (lc *LinkController) aliasTaken(ctx context.Context, alias string) bool {
	count, err := lc.linksCollection().CountDocuments(ctx, bson.M{"alias": alias})
	return err == nil && count > 0
}

// GetUserLinks lists the authenticated user's links, newest first
func (lc *LinkController) GetUserLinks(c echo.Context) error {
	email, err := middleware.ExtractEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := lc.linksCollection().Find(ctx, bson.M{"userEmail": email}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}
	defer cursor.Close(ctx)

	links := []models.Link{}
	if err := cursor.All(ctx, &links); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode links",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Links retrieved successfully",
		Data:    links,
	})
}

// DeleteLink removes a link owned by the authenticated user
func (lc *LinkController) DeleteLink(c echo.Context) error {
	email, err := middleware.ExtractEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	linkID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid link ID",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var link models.Link
	err = lc.linksCollection().FindOneAndDelete(ctx, bson.M{"_id": linkID, "userEmail": email}).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Link not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	lc.invalidateRedirectCache(link.ShortCode)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Link deleted successfully",
	})
}

// GetLinkQRCode renders a QR code PNG for one of the user's links
func (lc *LinkController) GetLinkQRCode(c echo.Context) error {
	email, err := middleware.ExtractEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	linkID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid link ID",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var link models.Link
	err = lc.linksCollection().FindOne(ctx, bson.M{"_id": linkID, "userEmail": email}).Decode(&link)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Link not found",
		})
	}

	shortURL := fmt.Sprintf("%s/%s", publicBaseURL(), link.ShortCode)
	qrCode, err := qr.Encode(shortURL, qr.M, qr.Auto)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}
	qrCode, err = barcode.Scale(qrCode, qrImageSize, qrImageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to encode QR code",
		})
	}

	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// Redirect resolves a short code and sends the visitor to the target
// URL, recording the click and its earnings in the background.
func (lc *LinkController) Redirect(c echo.Context) error {
	code := strings.ToLower(strings.TrimSpace(c.Param("code")))
	if code == "" {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Link not found",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	link, err := lc.resolveLink(ctx, code)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Link not found",
		})
	}

	country := visitorCountry(c)
	go lc.recordClick(link, country)

	return c.Redirect(http.StatusFound, link.OriginalURL)
}

// resolveLink looks the code up in Redis first, then Mongo. The code
// matches either the generated shortUrl or a custom alias.
func (lc *LinkController) resolveLink(ctx context.Context, code string) (*models.Link, error) {
	redisClient := config.GetRedisClient()
	if redisClient != nil {
		cached, err := redisClient.Get(ctx, "link:"+code).Result()
		if err == nil && cached != "" {
			parts := strings.SplitN(cached, "|", 2)
			if len(parts) == 2 {
				return &models.Link{ShortCode: code, UserEmail: parts[0], OriginalURL: parts[1]}, nil
			}
		}
	}

	var link models.Link
	filter := bson.M{"$or": []bson.M{{"shortUrl": code}, {"alias": code}}}
	if err := lc.linksCollection().FindOne(ctx, filter).Decode(&link); err != nil {
		return nil, err
	}

	if redisClient != nil {
		redisClient.Set(ctx, "link:"+code, link.UserEmail+"|"+link.OriginalURL, redirectCacheTTL)
	}
	return &link, nil
}

func (lc *LinkController) invalidateRedirectCache(code string) {
	redisClient := config.GetRedisClient()
	if redisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	redisClient.Del(ctx, "link:"+code)
}

// recordClick increments the link counter, the owner's statistics and
// credits the earned amount to the withdrawal balance.
func (lc *LinkController) recordClick(link *models.Link, country string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	earnings := models.EarningsPerClick(country)

	if _, err := lc.linksCollection().UpdateOne(ctx,
		bson.M{"$or": []bson.M{{"shortUrl": link.ShortCode}, {"alias": link.ShortCode}}},
		bson.M{"$inc": bson.M{"clicks": 1}},
	); err != nil {
		log.Printf("Failed to increment clicks for %s: %v", link.ShortCode, err)
	}

	if err := lc.bumpDailyStats(ctx, link.UserEmail, earnings); err != nil {
		log.Printf("Failed to update statistics for %s: %v", link.UserEmail, err)
	}

	if err := lc.Withdrawals.CreditEarnings(ctx, link.UserEmail, earnings); err != nil {
		log.Printf("Failed to credit earnings for %s: %v", link.UserEmail, err)
	}
}

// bumpDailyStats adds one click and its earnings to today's bucket,
// creating the bucket if this is the first click of the day.
func (lc *LinkController) bumpDailyStats(ctx context.Context, userEmail string, earnings float64) error {
	today := time.Now().UTC().Format("2006-01-02")

	result, err := lc.statsCollection().UpdateOne(ctx,
		bson.M{"userEmail": userEmail, "dailyStats.date": today},
		bson.M{"$inc": bson.M{
			"totalClicks":           1,
			"totalEarnings":         earnings,
			"dailyStats.$.clicks":   1,
			"dailyStats.$.earnings": earnings,
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount > 0 {
		return nil
	}

	_, err = lc.statsCollection().UpdateOne(ctx,
		bson.M{"userEmail": userEmail},
		bson.M{
			"$inc":  bson.M{"totalClicks": 1, "totalEarnings": earnings},
			"$push": bson.M{"dailyStats": models.DailyStat{Date: today, Clicks: 1, Earnings: earnings}},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// visitorCountry reads the CDN-provided country header
func visitorCountry(c echo.Context) string {
	for _, header := range []string{"CF-IPCountry", "X-Vercel-IP-Country", "X-Country-Code"} {
		if v := c.Request().Header.Get(header); v != "" {
			return strings.ToUpper(v)
		}
	}
	return ""
}

func publicBaseURL() string {
	if base := os.Getenv("PUBLIC_BASE_URL"); base != "" {
		return strings.TrimRight(base, "/")
	}
	return "https://linkshorti.com"
}
