// Package budget derives spending summaries from a trip's activities.
// Nothing here is stored; a summary is recomputed on every request.
package budget

import (
	"github.com/shopspring/decimal"

	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/itinerary"
	"github.com/nestmap/nestmap/internal/trip"
)

var hundred = decimal.NewFromInt(100)

// Categories are the keys always present in a summary's category breakdown.
var Categories = []itinerary.CostCategory{
	itinerary.CostFood,
	itinerary.CostTransport,
	itinerary.CostLodging,
	itinerary.CostActivities,
	itinerary.CostShopping,
	itinerary.CostOther,
}

// Spent returns what an activity counts against the budget: the actual cost
// when recorded, otherwise the price once paid.
func Spent(a itinerary.Activity) decimal.Decimal {
	if a.ActualCost != nil {
		return *a.ActualCost
	}
	if a.IsPaid && a.Price != nil {
		return *a.Price
	}
	return decimal.Zero
}

// CategoryOf returns the reporting bucket of an activity.
func CategoryOf(a itinerary.Activity) itinerary.CostCategory {
	if a.CostCategory == itinerary.CostUnknown || a.CostCategory == "" {
		return itinerary.CostOther
	}
	return a.CostCategory
}

// Summarize computes the budget summary of a trip.
func Summarize(t *trip.Trip, activities []itinerary.Activity) models.BudgetSummary {
	byCategory := make(map[string]decimal.Decimal, len(Categories))
	for _, c := range Categories {
		byCategory[string(c)] = decimal.Zero
	}

	total := decimal.Zero
	group := 0
	for _, a := range activities {
		spent := Spent(a)
		if spent.IsZero() {
			continue
		}
		total = total.Add(spent)
		key := string(CategoryOf(a))
		byCategory[key] = byCategory[key].Add(spent)
		if a.SplitBetween > 1 {
			group++
		}
	}

	budget := decimal.Zero
	if t.Budget != nil {
		budget = *t.Budget
	}

	percent := decimal.Zero
	if budget.IsPositive() {
		percent = total.Div(budget).Mul(hundred).Round(2)
	}

	return models.BudgetSummary{
		TripID:             t.ID,
		Budget:             budget,
		Currency:           t.Currency,
		TotalSpent:         total,
		Remaining:          budget.Sub(total),
		PercentUsed:        percent,
		AlertThreshold:     t.AlertThreshold,
		AlertTriggered:     budget.IsPositive() && percent.GreaterThanOrEqual(decimal.NewFromInt(int64(t.AlertThreshold))),
		SpendingByCategory: byCategory,
		StartDate:          t.StartDate.String(),
		EndDate:            t.EndDate.String(),
		GroupExpensesCount: group,
	}
}
