package models

import "github.com/shopspring/decimal"

// BudgetSummary reports trip spending against its budget.
type BudgetSummary struct {
	TripID             string                     `json:"tripId"`
	Budget             decimal.Decimal            `json:"budget"`
	Currency           string                     `json:"currency"`
	TotalSpent         decimal.Decimal            `json:"totalSpent"`
	Remaining          decimal.Decimal            `json:"remaining"`
	PercentUsed        decimal.Decimal            `json:"percentUsed"`
	AlertThreshold     int                        `json:"alertThreshold"`
	AlertTriggered     bool                       `json:"alertTriggered"`
	SpendingByCategory map[string]decimal.Decimal `json:"spendingByCategory"`
	StartDate          string                     `json:"startDate"`
	EndDate            string                     `json:"endDate"`
	GroupExpensesCount int                        `json:"groupExpensesCount"`
}
