package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/linkshorti/linkshorti_backend/middleware"
	"github.com/linkshorti/linkshorti_backend/models"
	"github.com/linkshorti/linkshorti_backend/repositories"
	"github.com/linkshorti/linkshorti_backend/websocket"
)

// minWithdrawalAmount is the smallest payout a user may request, in USD
const minWithdrawalAmount = 10.0

// WithdrawalController handles the user-facing withdrawal endpoints
type WithdrawalController struct {
	Withdrawals *repositories.WithdrawalRepository
	Hub         *websocket.Hub
}

// NewWithdrawalController creates a new withdrawal controller
func NewWithdrawalController(withdrawals *repositories.WithdrawalRepository, hub *websocket.Hub) *WithdrawalController {
	return &WithdrawalController{Withdrawals: withdrawals, Hub: hub}
}

// GetAccount returns the authenticated user's withdrawal account
func (wc *WithdrawalController) GetAccount(c echo.Context) error {
	email, err := middleware.ExtractEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	account, err := wc.Withdrawals.GetAccount(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Withdrawal account not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal account retrieved successfully",
		Data:    account,
	})
}

// SaveDetails overwrites the user's payout destination
func (wc *WithdrawalController) SaveDetails(c echo.Context) error {
	email, err := middleware.ExtractEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.SaveWithdrawalDetailsRequest
	if err := c.Bind(&req); err != nil || req.Details == nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request data",
		})
	}

	if msg := validatePayoutDetails(req.Details); msg != "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: msg,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	account, err := wc.Withdrawals.SaveDetails(ctx, email, req.Details)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to save withdrawal details",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal details updated successfully",
		Data:    account,
	})
}

// validatePayoutDetails checks the selected method carries its fields
func validatePayoutDetails(details *models.WithdrawalDetails) string {
	switch details.SelectedMethod {
	case "paypal":
		if details.PayPal == nil || details.PayPal.Email == "" {
			return "PayPal email is required"
		}
	case "upi":
		if details.UPI == nil || details.UPI.UPIID == "" {
			return "UPI ID is required"
		}
	case "bank":
		if details.Bank == nil || details.Bank.AccountNumber == "" || details.Bank.IFSC == "" || details.Bank.HolderName == "" {
			return "Bank account number, IFSC and holder name are required"
		}
	default:
		return "Invalid payout method"
	}
	return ""
}

// CreateRequest submits a new withdrawal for the authenticated user.
// The balance check and the move from available to pending happen in a
// single conditional update, so two concurrent requests can never
// overdraw the account.
func (wc *WithdrawalController) CreateRequest(c echo.Context) error {
	email, err := middleware.ExtractEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.CreateWithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request data",
		})
	}
	if req.Amount < minWithdrawalAmount {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Minimum withdrawal amount is $10",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	account, err := wc.Withdrawals.GetAccount(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Withdrawal account not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}
	if account.WithdrawalDetails == nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Please save your withdrawal details first",
		})
	}

	request, err := wc.Withdrawals.CreateRequest(ctx, email, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrInsufficientBalance):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Insufficient available balance",
			})
		case errors.Is(err, repositories.ErrAccountNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Withdrawal account not found",
			})
		default:
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to create withdrawal request",
			})
		}
	}

	wc.Hub.Broadcast(websocket.Event{
		Type:    websocket.EventTypeWithdrawalCreated,
		Message: "New withdrawal request",
		Data: map[string]interface{}{
			"userEmail":    email,
			"withdrawalId": request.WithdrawalID,
			"totalAmount":  request.TotalAmount,
		},
	})

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Withdrawal request submitted successfully",
		Data:    request,
	})
}
