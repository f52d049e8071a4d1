package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linkshorti/linkshorti_backend/models"
)

var (
	ErrAccountNotFound     = errors.New("withdrawal account not found")
	ErrRequestNotFound     = errors.New("withdrawal request not found")
	ErrInvalidTransition   = errors.New("action is not valid for the request's current status")
	ErrUnknownAction       = errors.New("unknown withdrawal action")
	ErrInsufficientBalance = errors.New("amount exceeds available balance")
)

// WithdrawalRepository owns the per-user withdrawal ledger. Every balance
// mutation is a single conditional UpdateOne so that the status check and
// the balance deltas commit together; concurrent actions on the same
// request cannot both match the status filter.
type WithdrawalRepository struct {
	collection *mongo.Collection
	users      *mongo.Collection
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *mongo.Database) *WithdrawalRepository {
	return &WithdrawalRepository{
		collection: db.Collection("withdrawals"),
		users:      db.Collection("users"),
	}
}

// EnsureAccount creates the user's withdrawal account if it does not
// exist yet. Called during signup and Google provisioning; idempotent.
func (r *WithdrawalRepository) EnsureAccount(ctx context.Context, userEmail string) error {
	now := time.Now()
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"userEmail": userEmail},
		bson.M{"$setOnInsert": bson.M{
			"userEmail":        userEmail,
			"availableBalance": float64(0),
			"pendingBalance":   float64(0),
			"totalWithdrawn":   float64(0),
			"history":          []models.WithdrawalRequest{},
			"createdAt":        now,
			"updatedAt":        now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to provision withdrawal account: %w", err)
	}
	return nil
}

// DeleteAccount removes the user's withdrawal account. Only used to roll
// back a signup whose verification email could not be sent.
func (r *WithdrawalRepository) DeleteAccount(ctx context.Context, userEmail string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"userEmail": userEmail})
	return err
}

// GetAccount returns the user's withdrawal account
func (r *WithdrawalRepository) GetAccount(ctx context.Context, userEmail string) (*models.WithdrawalAccount, error) {
	var account models.WithdrawalAccount
	err := r.collection.FindOne(ctx, bson.M{"userEmail": userEmail}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load withdrawal account: %w", err)
	}
	return &account, nil
}

// SaveDetails overwrites the user's payout destination wholesale,
// creating the account if needed.
func (r *WithdrawalRepository) SaveDetails(ctx context.Context, userEmail string, details *models.WithdrawalDetails) (*models.WithdrawalAccount, error) {
	now := time.Now()
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var account models.WithdrawalAccount
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"userEmail": userEmail},
		bson.M{
			"$set": bson.M{
				"withdrawalDetails": details,
				"updatedAt":         now,
			},
			"$setOnInsert": bson.M{
				"userEmail":        userEmail,
				"availableBalance": float64(0),
				"pendingBalance":   float64(0),
				"totalWithdrawn":   float64(0),
				"history":          []models.WithdrawalRequest{},
				"createdAt":        now,
			},
		},
		opts,
	).Decode(&account)
	if err != nil {
		return nil, fmt.Errorf("failed to save withdrawal details: %w", err)
	}
	return &account, nil
}

// CreditEarnings moves freshly earned click revenue into the user's
// available balance.
func (r *WithdrawalRepository) CreditEarnings(ctx context.Context, userEmail string, amount float64) error {
	if amount <= 0 {
		return nil
	}
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"userEmail": userEmail},
		bson.M{
			"$inc": bson.M{"availableBalance": amount},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	return err
}

// CreateRequest submits a new withdrawal for the full requested amount.
// The balance check and the move from available to pending happen in one
// conditional update: the filter only matches when availableBalance still
// covers the amount, so concurrent requests cannot overdraw the account.
func (r *WithdrawalRepository) CreateRequest(ctx context.Context, userEmail string, amount float64) (*models.WithdrawalRequest, error) {
	request := models.WithdrawalRequest{
		WithdrawalID: uuid.NewString(),
		TotalAmount:  amount,
		Status:       models.WithdrawalStatusPending,
		Date:         time.Now(),
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{
			"userEmail":        userEmail,
			"availableBalance": bson.M{"$gte": amount},
		},
		bson.M{
			"$inc": bson.M{
				"availableBalance": -amount,
				"pendingBalance":   amount,
			},
			"$push": bson.M{"history": request},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	if result.MatchedCount == 0 {
		// Either the account is missing or the balance no longer covers
		// the amount; a plain lookup tells the two apart.
		count, err := r.collection.CountDocuments(ctx, bson.M{"userEmail": userEmail})
		if err != nil {
			return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
		}
		if count == 0 {
			return nil, ErrAccountNotFound
		}
		return nil, ErrInsufficientBalance
	}

	return &request, nil
}

// ApplyAction performs one admin action (approve, complete, cancel,
// return) on a withdrawal request. The status compare-and-set and the
// balance increments are a single UpdateOne: the filter matches only
// while the request is still in a status the action accepts, and the
// arrayFilters element carries the same condition so that exactly that
// entry is rewritten. Two concurrent actions on the same request can
// therefore never both succeed.
//
// TotalAmount is fixed at creation, so reading it before the update
// cannot race with a status change.
func (r *WithdrawalRepository) ApplyAction(ctx context.Context, userEmail, withdrawalID, action, note string) (*models.WithdrawalRequest, error) {
	transition, ok := models.WithdrawalTransitionFor(action)
	if !ok {
		return nil, ErrUnknownAction
	}

	amount, err := r.requestAmount(ctx, userEmail, withdrawalID)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"history.$[req].status": transition.To,
		"updatedAt":             time.Now(),
	}
	if note != "" {
		set["history.$[req].adminNote"] = note
	}

	inc := bson.M{}
	if transition.ReleasePending {
		inc["pendingBalance"] = -amount
	}
	if transition.RestoreAvailable {
		inc["availableBalance"] = amount
	}
	if transition.CountTowardsPayout {
		inc["totalWithdrawn"] = amount
	}

	update := bson.M{"$set": set}
	if len(inc) > 0 {
		update["$inc"] = inc
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{
			"userEmail": userEmail,
			"history": bson.M{"$elemMatch": bson.M{
				"withdrawalId": withdrawalID,
				"status":       bson.M{"$in": transition.From},
			}},
		},
		update,
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{
				"req.withdrawalId": withdrawalID,
				"req.status":       bson.M{"$in": transition.From},
			}},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update withdrawal request: %w", err)
	}

	if result.MatchedCount == 0 {
		// The request exists (requestAmount found it) but its status did
		// not match the filter, so either a concurrent action won the
		// race or the action never applied to this status.
		return nil, ErrInvalidTransition
	}

	return r.getRequest(ctx, userEmail, withdrawalID)
}

// ListOpenRequests returns every Pending or Approved request across all
// accounts, joined with the owning user's name, newest first.
func (r *WithdrawalRepository) ListOpenRequests(ctx context.Context) ([]models.OpenWithdrawal, error) {
	openStatuses := []string{models.WithdrawalStatusPending, models.WithdrawalStatusApproved}

	cursor, err := r.collection.Find(ctx, bson.M{"history.status": bson.M{"$in": openStatuses}})
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawal requests: %w", err)
	}
	defer cursor.Close(ctx)

	var open []models.OpenWithdrawal
	for cursor.Next(ctx) {
		var account models.WithdrawalAccount
		if err := cursor.Decode(&account); err != nil {
			return nil, fmt.Errorf("failed to decode withdrawal account: %w", err)
		}

		userName := "Unknown"
		var user struct {
			FullName string `bson:"fullName"`
		}
		err := r.users.FindOne(ctx, bson.M{"email": account.UserEmail},
			options.FindOne().SetProjection(bson.M{"fullName": 1})).Decode(&user)
		if err == nil && user.FullName != "" {
			userName = user.FullName
		}

		for _, entry := range account.History {
			if entry.Status != models.WithdrawalStatusPending && entry.Status != models.WithdrawalStatusApproved {
				continue
			}
			open = append(open, models.OpenWithdrawal{
				WithdrawalRequest: entry,
				UserEmail:         account.UserEmail,
				UserName:          userName,
				WithdrawalDetails: account.WithdrawalDetails,
			})
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate withdrawal accounts: %w", err)
	}

	sort.Slice(open, func(i, j int) bool {
		return open[i].Date.After(open[j].Date)
	})

	return open, nil
}

// requestAmount looks up a single history entry's amount
func (r *WithdrawalRepository) requestAmount(ctx context.Context, userEmail, withdrawalID string) (float64, error) {
	request, err := r.getRequest(ctx, userEmail, withdrawalID)
	if err != nil {
		return 0, err
	}
	return request.TotalAmount, nil
}

// getRequest returns one history entry by id
func (r *WithdrawalRepository) getRequest(ctx context.Context, userEmail, withdrawalID string) (*models.WithdrawalRequest, error) {
	var account models.WithdrawalAccount
	err := r.collection.FindOne(ctx,
		bson.M{"userEmail": userEmail},
		options.FindOne().SetProjection(bson.M{
			"history": bson.M{"$elemMatch": bson.M{"withdrawalId": withdrawalID}},
		}),
	).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load withdrawal request: %w", err)
	}
	if len(account.History) == 0 {
		return nil, ErrRequestNotFound
	}
	return &account.History[0], nil
}
