// models/withdrawal.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Withdrawal request statuses. The strings are stored verbatim in the
// history entries, so they must not change.
const (
	WithdrawalStatusPending   = "Pending"
	WithdrawalStatusApproved  = "Approved"
	WithdrawalStatusComplete  = "Complete"
	WithdrawalStatusCancelled = "Cancelled"
	WithdrawalStatusReturned  = "Returned"
)

// Admin actions on a withdrawal request.
const (
	WithdrawalActionApprove  = "approve"
	WithdrawalActionComplete = "complete"
	WithdrawalActionCancel   = "cancel"
	WithdrawalActionReturn   = "return"
)

// PayPalDetails is the PayPal payout destination
type PayPalDetails struct {
	Email string `json:"email" bson:"email"`
}

// UPIDetails is the UPI payout destination
type UPIDetails struct {
	UPIID string `json:"upiId" bson:"upiId"`
}

// BankDetails is the bank-transfer payout destination
type BankDetails struct {
	AccountNumber string `json:"accountNumber" bson:"accountNumber"`
	IFSC          string `json:"ifsc" bson:"ifsc"`
	HolderName    string `json:"holderName" bson:"holderName"`
}

// WithdrawalDetails is the user's last-saved payout destination. It is
// overwritten wholesale on every save; no history of destinations is kept.
type WithdrawalDetails struct {
	SelectedMethod string         `json:"selectedMethod" bson:"selectedMethod"` // "paypal", "upi" or "bank"
	PayPal         *PayPalDetails `json:"paypal,omitempty" bson:"paypal,omitempty"`
	UPI            *UPIDetails    `json:"upi,omitempty" bson:"upi,omitempty"`
	Bank           *BankDetails   `json:"bank,omitempty" bson:"bank,omitempty"`
}

// WithdrawalRequest is one entry in an account's history. TotalAmount is
// fixed at creation and never mutated; only Status and AdminNote change.
type WithdrawalRequest struct {
	WithdrawalID string    `json:"withdrawalId" bson:"withdrawalId"`
	TotalAmount  float64   `json:"totalAmount" bson:"totalAmount"`
	Status       string    `json:"status" bson:"status"`
	Date         time.Time `json:"date" bson:"date"`
	AdminNote    string    `json:"adminNote,omitempty" bson:"adminNote,omitempty"`
}

// WithdrawalAccount is the per-user withdrawal ledger, keyed by user email
type WithdrawalAccount struct {
	ID                primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserEmail         string              `json:"userEmail" bson:"userEmail"`
	AvailableBalance  float64             `json:"availableBalance" bson:"availableBalance"`
	PendingBalance    float64             `json:"pendingBalance" bson:"pendingBalance"`
	TotalWithdrawn    float64             `json:"totalWithdrawn" bson:"totalWithdrawn"`
	WithdrawalDetails *WithdrawalDetails  `json:"withdrawalDetails,omitempty" bson:"withdrawalDetails,omitempty"`
	History           []WithdrawalRequest `json:"history" bson:"history"`
	CreatedAt         time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// WithdrawalTransition describes what one admin action does: which source
// statuses it accepts, the resulting status, and how the request amount
// moves between the account's aggregate balances.
//
// Every non-approve transition releases the amount from pendingBalance;
// it then either returns to availableBalance (cancel, return) or counts
// toward totalWithdrawn (complete).
type WithdrawalTransition struct {
	From               []string
	To                 string
	ReleasePending     bool
	RestoreAvailable   bool
	CountTowardsPayout bool
}

var withdrawalTransitions = map[string]WithdrawalTransition{
	WithdrawalActionApprove: {
		From: []string{WithdrawalStatusPending},
		To:   WithdrawalStatusApproved,
	},
	WithdrawalActionComplete: {
		From:               []string{WithdrawalStatusApproved},
		To:                 WithdrawalStatusComplete,
		ReleasePending:     true,
		CountTowardsPayout: true,
	},
	WithdrawalActionCancel: {
		From:             []string{WithdrawalStatusPending, WithdrawalStatusApproved},
		To:               WithdrawalStatusCancelled,
		ReleasePending:   true,
		RestoreAvailable: true,
	},
	WithdrawalActionReturn: {
		From:             []string{WithdrawalStatusPending, WithdrawalStatusApproved},
		To:               WithdrawalStatusReturned,
		ReleasePending:   true,
		RestoreAvailable: true,
	},
}

// WithdrawalTransitionFor returns the transition for an admin action.
// The second return value is false for an unknown action.
func WithdrawalTransitionFor(action string) (WithdrawalTransition, bool) {
	tr, ok := withdrawalTransitions[action]
	return tr, ok
}

// Accepts reports whether the transition may be applied to a request
// currently in the given status.
func (t WithdrawalTransition) Accepts(status string) bool {
	for _, s := range t.From {
		if s == status {
			return true
		}
	}
	return false
}

// SaveWithdrawalDetailsRequest is the body for saving a payout destination
type SaveWithdrawalDetailsRequest struct {
	Details *WithdrawalDetails `json:"details" validate:"required"`
}

// CreateWithdrawalRequest is the body for submitting a new withdrawal
type CreateWithdrawalRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// AdminWithdrawalActionRequest is the body for the admin action endpoint
type AdminWithdrawalActionRequest struct {
	UserEmail    string `json:"userEmail" validate:"required,email"`
	WithdrawalID string `json:"withdrawalId" validate:"required"`
	Action       string `json:"action" validate:"required"`
	Reason       string `json:"reason,omitempty"`
}

// OpenWithdrawal is one pending/approved request flattened for the admin
// dashboard, joined with the owning user's name and payout destination.
type OpenWithdrawal struct {
	WithdrawalRequest `bson:",inline"`
	UserEmail         string             `json:"userEmail" bson:"userEmail"`
	UserName          string             `json:"userName" bson:"userName"`
	WithdrawalDetails *WithdrawalDetails `json:"withdrawalDetails,omitempty" bson:"withdrawalDetails,omitempty"`
}
