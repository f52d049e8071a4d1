package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/lestrrat-go/jwx/jwk"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linkshorti/linkshorti_backend/config"
	"github.com/linkshorti/linkshorti_backend/middleware"
	"github.com/linkshorti/linkshorti_backend/models"
	"github.com/linkshorti/linkshorti_backend/repositories"
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

var ErrBlockedAccount = errors.New("account is blocked")

// GoogleAuthService handles Google sign-in: ID-token verification
// against Google's published keys, account lookup/provisioning and
// session issuance.
type GoogleAuthService struct {
	DB          *mongo.Client
	Withdrawals *repositories.WithdrawalRepository
}

// GoogleUser is the identity extracted from a verified Google ID token
type GoogleUser struct {
	Email    string
	Name     string
	Picture  string
	GoogleID string
}

// NewGoogleAuthService creates a new Google auth service
func NewGoogleAuthService(db *mongo.Client, withdrawals *repositories.WithdrawalRepository) *GoogleAuthService {
	return &GoogleAuthService{
		DB:          db,
		Withdrawals: withdrawals,
	}
}

// VerifyIDToken checks the token's signature against Google's JWKS and
// returns the identity claims.
func (s *GoogleAuthService) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUser, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) < 2 {
		return nil, errors.New("invalid token format")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, errors.New("invalid JWT header")
	}

	var header struct {
		Kid string `json:"kid"`
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, errors.New("invalid JWT header JSON")
	}

	jwkSet, err := jwk.Fetch(ctx, googleJWKSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Google public keys: %w", err)
	}

	key, found := jwkSet.LookupKeyID(header.Kid)
	if !found {
		return nil, errors.New("Google public key not found")
	}

	var pubkey interface{}
	if err := key.Raw(&pubkey); err != nil {
		return nil, fmt.Errorf("failed to parse Google public key: %w", err)
	}

	parsedToken, err := jwt.Parse(idToken, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != header.Alg {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return pubkey, nil
	})
	if err != nil || !parsedToken.Valid {
		return nil, errors.New("invalid or expired Google token")
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("failed to parse token claims")
	}

	if err := validateGoogleClaims(claims, os.Getenv("GOOGLE_CLIENT_ID")); err != nil {
		return nil, err
	}

	email, _ := claims["email"].(string)
	sub, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)
	if email == "" || sub == "" {
		return nil, errors.New("missing email or sub in token")
	}

	return &GoogleUser{
		Email:    email,
		Name:     name,
		Picture:  picture,
		GoogleID: sub,
	}, nil
}

// validateGoogleClaims rejects tokens Google signed for someone else:
// the issuer must be Google's and the audience must be our own OAuth
// client ID.
func validateGoogleClaims(claims jwt.MapClaims, clientID string) error {
	iss, _ := claims["iss"].(string)
	if iss != "accounts.google.com" && iss != "https://accounts.google.com" {
		return fmt.Errorf("invalid token issuer: %s", iss)
	}

	if clientID == "" {
		return errors.New("GOOGLE_CLIENT_ID is not configured")
	}
	aud, _ := claims["aud"].(string)
	if aud != clientID {
		return errors.New("token audience does not match client ID")
	}
	return nil
}

// AuthenticateUser finds or creates the account for a verified Google
// identity and returns session tokens. Google accounts are considered
// email-verified; a new user also gets statistics and withdrawal
// documents provisioned.
func (s *GoogleAuthService) AuthenticateUser(ctx context.Context, googleUser *GoogleUser) (map[string]interface{}, error) {
	collection := config.GetCollection(s.DB, "users")

	var user models.User
	err := collection.FindOne(ctx, bson.M{"email": googleUser.Email}).Decode(&user)

	switch {
	case err == mongo.ErrNoDocuments:
		now := time.Now()
		user = models.User{
			ID:              primitive.NewObjectID(),
			Email:           googleUser.Email,
			FullName:        googleUser.Name,
			GoogleID:        googleUser.GoogleID,
			ProfileImage:    googleUser.Picture,
			IsEmailVerified: true, // Google accounts are pre-verified
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if _, err := collection.InsertOne(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		if err := s.provisionUserRecords(ctx, user.Email); err != nil {
			// Roll back the user so a retry starts clean
			collection.DeleteOne(ctx, bson.M{"_id": user.ID})
			return nil, err
		}

	case err != nil:
		return nil, fmt.Errorf("database error: %w", err)

	default:
		if user.IsBlocked {
			return nil, ErrBlockedAccount
		}

		// Existing email account signing in with Google for the first
		// time: link the Google identity.
		if user.GoogleID == "" {
			update := bson.M{"$set": bson.M{
				"googleId":        googleUser.GoogleID,
				"profileImage":    googleUser.Picture,
				"isEmailVerified": true,
				"updatedAt":       time.Now(),
			}}
			if _, err := collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update); err != nil {
				return nil, fmt.Errorf("failed to link Google account: %w", err)
			}
			user.GoogleID = googleUser.GoogleID
		}
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, "user")
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return map[string]interface{}{
		"token":        token,
		"refreshToken": refreshToken,
		"user": map[string]interface{}{
			"id":           user.ID,
			"email":        user.Email,
			"fullName":     user.FullName,
			"profileImage": user.ProfileImage,
		},
	}, nil
}

func (s *GoogleAuthService) provisionUserRecords(ctx context.Context, email string) error {
	return ProvisionUserRecords(ctx, s.DB, s.Withdrawals, email)
}

// ProvisionUserRecords creates the statistics and withdrawal documents
// that every account carries. Both upserts are idempotent, so calling
// this for an existing user is harmless.
func ProvisionUserRecords(ctx context.Context, db *mongo.Client, withdrawals *repositories.WithdrawalRepository, email string) error {
	if err := withdrawals.EnsureAccount(ctx, email); err != nil {
		return err
	}

	now := time.Now()
	statistics := config.GetCollection(db, "statistics")
	_, err := statistics.UpdateOne(ctx,
		bson.M{"userEmail": email},
		bson.M{"$setOnInsert": bson.M{
			"userEmail":     email,
			"totalClicks":   int64(0),
			"totalEarnings": float64(0),
			"dailyStats":    []models.DailyStat{},
			"createdAt":     now,
			"updatedAt":     now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to provision statistics: %w", err)
	}
	return nil
}

// RemoveUserRecords deletes the provisioned statistics and withdrawal
// documents. Only used to roll back a failed signup.
func RemoveUserRecords(ctx context.Context, db *mongo.Client, withdrawals *repositories.WithdrawalRepository, email string) {
	withdrawals.DeleteAccount(ctx, email)
	config.GetCollection(db, "statistics").DeleteOne(ctx, bson.M{"userEmail": email})
}
