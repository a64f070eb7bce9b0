package budget

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/nestmap/nestmap/internal/itinerary"
	"github.com/nestmap/nestmap/internal/trip"
)

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testTrip(budget *decimal.Decimal, threshold int) *trip.Trip {
	return &trip.Trip{
		ID:             "trp_1",
		StartDate:      itinerary.MustParseDate("2024-05-01"),
		EndDate:        itinerary.MustParseDate("2024-05-04"),
		Budget:         budget,
		Currency:       "EUR",
		AlertThreshold: threshold,
	}
}

func TestSpent(t *testing.T) {
	tests := []struct {
		name string
		a    itinerary.Activity
		want string
	}{
		{"actual cost wins", itinerary.Activity{ActualCost: amount("30"), Price: amount("25"), IsPaid: true}, "30"},
		{"paid price", itinerary.Activity{Price: amount("25"), IsPaid: true}, "25"},
		{"unpaid price", itinerary.Activity{Price: amount("25")}, "0"},
		{"nothing", itinerary.Activity{}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, decimal.RequireFromString(tt.want).Equal(Spent(tt.a)), "got %s", Spent(tt.a))
		})
	}
}

func TestSummarize(t *testing.T) {
	activities := []itinerary.Activity{
		{CostCategory: itinerary.CostFood, ActualCost: amount("40.10")},
		{CostCategory: itinerary.CostLodging, Price: amount("120"), IsPaid: true, SplitBetween: 2},
		{CostCategory: itinerary.CostUnknown, ActualCost: amount("9.90")},
		{CostCategory: itinerary.CostShopping, Price: amount("500")},
		{CostCategory: itinerary.CostFood, SplitBetween: 4},
	}

	s := Summarize(testTrip(amount("200"), 80), activities)

	assert.Equal(t, "trp_1", s.TripID)
	assert.Equal(t, "EUR", s.Currency)
	assert.True(t, decimal.RequireFromString("170").Equal(s.TotalSpent), "total %s", s.TotalSpent)
	assert.True(t, decimal.RequireFromString("30").Equal(s.Remaining), "remaining %s", s.Remaining)
	assert.True(t, decimal.RequireFromString("85").Equal(s.PercentUsed), "percent %s", s.PercentUsed)
	assert.True(t, s.AlertTriggered)
	assert.Equal(t, 1, s.GroupExpensesCount, "only split activities with spend count")
	assert.True(t, decimal.RequireFromString("40.10").Equal(s.SpendingByCategory["food"]))
	assert.True(t, decimal.RequireFromString("9.90").Equal(s.SpendingByCategory["other"]))
	assert.True(t, s.SpendingByCategory["shopping"].IsZero())
	assert.NotContains(t, s.SpendingByCategory, "unknown")
	assert.Equal(t, "2024-05-01", s.StartDate)
	assert.Equal(t, "2024-05-04", s.EndDate)
}

func TestSummarize_NoBudget(t *testing.T) {
	s := Summarize(testTrip(nil, 80), []itinerary.Activity{{ActualCost: amount("10")}})

	assert.True(t, s.PercentUsed.IsZero())
	assert.False(t, s.AlertTriggered)
	assert.True(t, decimal.RequireFromString("-10").Equal(s.Remaining))
}

func TestSummarize_PercentRounding(t *testing.T) {
	s := Summarize(testTrip(amount("3"), 50), []itinerary.Activity{{ActualCost: amount("1")}})

	assert.Equal(t, "33.33", s.PercentUsed.StringFixed(2))
	assert.False(t, s.AlertTriggered)
}

func TestSummarize_Overspent(t *testing.T) {
	s := Summarize(testTrip(amount("100"), 100), []itinerary.Activity{{ActualCost: amount("150")}})

	assert.True(t, s.AlertTriggered)
	assert.True(t, s.Remaining.IsNegative())
}
