package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DailyStat is one day's clicks and earnings for a user
type DailyStat struct {
	Date     string  `json:"date" bson:"date"` // YYYY-MM-DD
	Clicks   int64   `json:"clicks" bson:"clicks"`
	Earnings float64 `json:"earnings" bson:"earnings"`
}

// Statistics is the per-user earnings record, keyed by user email
type Statistics struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserEmail     string             `json:"userEmail" bson:"userEmail"`
	TotalClicks   int64              `json:"totalClicks" bson:"totalClicks"`
	TotalEarnings float64            `json:"totalEarnings" bson:"totalEarnings"`
	DailyStats    []DailyStat        `json:"dailyStats" bson:"dailyStats"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// payoutRates is the published rate per 1000 views, in USD, by visitor
// country code.
var payoutRates = map[string]float64{
	"US": 22.0,
	"GB": 21.0,
	"DE": 20.0,
	"AU": 18.0,
	"CA": 17.0,
	"FR": 16.0,
	"SE": 15.0,
	"NL": 14.0,
	"IN": 10.0,
}

// defaultPayoutRate applies to countries not in the published table
const defaultPayoutRate = 4.0

// PayoutRate returns the rate per 1000 views for a visitor country code
func PayoutRate(countryCode string) float64 {
	if rate, ok := payoutRates[countryCode]; ok {
		return rate
	}
	return defaultPayoutRate
}

// EarningsPerClick converts the per-1000-views rate into the amount
// credited for a single click.
func EarningsPerClick(countryCode string) float64 {
	return PayoutRate(countryCode) / 1000.0
}

// PublishedPayoutRates returns a copy of the rate table plus the
// default rate under the "default" key.
func PublishedPayoutRates() map[string]float64 {
	rates := make(map[string]float64, len(payoutRates)+1)
	for country, rate := range payoutRates {
		rates[country] = rate
	}
	rates["default"] = defaultPayoutRate
	return rates
}
