// Package models defines the data structures shared across the benchmark service.
package models

import "time"

// Submission is one anonymized financial record. It is created by the
// ingestion path and immutable afterwards; this service only reads it.
//
// Numeric fields are pointers so that absence is distinguishable from zero.
// A nil field means the submitter did not report the value.
type Submission struct {
	ID string `json:"id"`

	// Demographics
	Age             *int    `json:"age,omitempty"`
	YearsExperience *int    `json:"yearsExperience,omitempty"`
	City            *string `json:"city,omitempty"`
	Occupation      *string `json:"occupation,omitempty"`
	Region          *string `json:"region,omitempty"`
	IncomeBracket   *string `json:"incomeBracket,omitempty"`

	// Financials (yearly income, monthly expenses, everything else totals)
	YearlyIncome     *float64 `json:"yearlyIncome,omitempty"`
	MonthlyExpenses  *float64 `json:"monthlyExpenses,omitempty"`
	TotalSavings     *float64 `json:"totalSavings,omitempty"`
	TotalLiabilities *float64 `json:"totalLiabilities,omitempty"`
	NetWorth         *float64 `json:"netWorth,omitempty"`
	StockValue       *float64 `json:"stockValue,omitempty"`
	MutualFundValue  *float64 `json:"mutualFundValue,omitempty"`
	RealEstateValue  *float64 `json:"realEstateValue,omitempty"`
	GoldValue        *float64 `json:"goldValue,omitempty"`

	// Extra holds open-ended numeric metrics keyed by name (e.g. "monthly_emi").
	// Readers must treat missing keys as absent, never as zero.
	Extra map[string]float64 `json:"extra,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// ExtraMetric reads a named metric from the open metrics map.
func (s *Submission) ExtraMetric(name string) (float64, bool) {
	if s.Extra == nil {
		return 0, false
	}
	v, ok := s.Extra[name]
	return v, ok
}

// SubmissionColumns is the fixed projection the store adapter reads.
var SubmissionColumns = []string{
	"id",
	"age",
	"years_experience",
	"city",
	"occupation",
	"region",
	"income_bracket",
	"yearly_income",
	"monthly_expenses",
	"total_savings",
	"total_liabilities",
	"net_worth",
	"stock_value",
	"mutual_fund_value",
	"real_estate_value",
	"gold_value",
	"extra",
	"created_at",
}
