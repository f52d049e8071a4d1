package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linkshorti/linkshorti_backend/models"
)

func TestValidatePayoutDetails(t *testing.T) {
	tests := []struct {
		name    string
		details *models.WithdrawalDetails
		wantMsg bool
	}{
		{
			name: "valid paypal",
			details: &models.WithdrawalDetails{
				SelectedMethod: "paypal",
				PayPal:         &models.PayPalDetails{Email: "user@example.com"},
			},
		},
		{
			name: "valid upi",
			details: &models.WithdrawalDetails{
				SelectedMethod: "upi",
				UPI:            &models.UPIDetails{UPIID: "user@bank"},
			},
		},
		{
			name: "valid bank",
			details: &models.WithdrawalDetails{
				SelectedMethod: "bank",
				Bank: &models.BankDetails{
					AccountNumber: "12345678",
					IFSC:          "ABCD0123456",
					HolderName:    "Jane Doe",
				},
			},
		},
		{
			name:    "paypal without email",
			details: &models.WithdrawalDetails{SelectedMethod: "paypal", PayPal: &models.PayPalDetails{}},
			wantMsg: true,
		},
		{
			name:    "upi missing details",
			details: &models.WithdrawalDetails{SelectedMethod: "upi"},
			wantMsg: true,
		},
		{
			name: "bank missing ifsc",
			details: &models.WithdrawalDetails{
				SelectedMethod: "bank",
				Bank:           &models.BankDetails{AccountNumber: "12345678", HolderName: "Jane Doe"},
			},
			wantMsg: true,
		},
		{
			name:    "unknown method",
			details: &models.WithdrawalDetails{SelectedMethod: "crypto"},
			wantMsg: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validatePayoutDetails(tt.details)
			if tt.wantMsg {
				assert.NotEmpty(t, msg)
			} else {
				assert.Empty(t, msg)
			}
		})
	}
}
