package requirements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStartsEmptyAndCollecting(t *testing.T) {
	r := New()

	assert.Equal(t, StatusCollecting, r.Status)
	assert.False(t, r.HasAnyData())
	for _, f := range []Field{FieldDestination, FieldDateRange, FieldTravelerCount, FieldBudget} {
		assert.Equal(t, ConfidenceUnset, r.FieldConfidence(f), "field %s", f)
	}
}

func TestFieldConfidenceTreatsEmptyAsUnset(t *testing.T) {
	var r TravelRequirements // zero value, as loaded from an old record
	assert.Equal(t, ConfidenceUnset, r.FieldConfidence(FieldDestination))
	assert.Equal(t, ConfidenceUnset, r.FieldConfidence(FieldBudget))
}

func TestNextFieldFollowsFixedOrder(t *testing.T) {
	r := New()

	next, ok := r.NextField()
	require.True(t, ok)
	assert.Equal(t, FieldDestination, next)

	r.Destination = "Lisbon"
	r.DestinationConf = ConfidenceConfirmed
	next, _ = r.NextField()
	assert.Equal(t, FieldDateRange, next)

	r.Dates = &DateRange{Start: "2026-04", End: "2026-04"}
	r.DatesConf = ConfidenceConfirmed
	next, _ = r.NextField()
	assert.Equal(t, FieldTravelerCount, next)

	r.TravelerCount = 2
	r.TravelerConf = ConfidenceConfirmed
	next, _ = r.NextField()
	assert.Equal(t, FieldBudget, next)

	r.Budget = &Budget{Amount: 3000, Currency: "USD"}
	r.BudgetConf = ConfidenceConfirmed
	_, ok = r.NextField()
	assert.False(t, ok)
	assert.True(t, r.CoreConfirmed())
}

func TestNextFieldSkipsConfirmedButNotTentative(t *testing.T) {
	r := New()
	r.Destination = "Lisbon"
	r.DestinationConf = ConfidenceTentative

	next, ok := r.NextField()
	require.True(t, ok)
	assert.Equal(t, FieldDestination, next, "tentative slots still need confirming")
}

func TestCoreConfirmedIgnoresPreferences(t *testing.T) {
	r := New()
	r.Destination = "Kyoto"
	r.DestinationConf = ConfidenceConfirmed
	r.Dates = &DateRange{Start: "2026-11-01", End: "2026-11-10"}
	r.DatesConf = ConfidenceConfirmed
	r.TravelerCount = 1
	r.TravelerConf = ConfidenceConfirmed
	r.Budget = &Budget{Amount: 2000}
	r.BudgetConf = ConfidenceConfirmed

	assert.True(t, r.CoreConfirmed(), "preferences must not gate completion")
}

func TestAddPreferencesDeduplicatesAndKeepsOrder(t *testing.T) {
	r := New()
	r.AddPreferences([]string{"Beach", "  museums "})
	r.AddPreferences([]string{"beach", "vegetarian food", ""})

	assert.Equal(t, []string{"beach", "museums", "vegetarian food"}, r.Preferences)
}

func TestCloneIsDeep(t *testing.T) {
	r := New()
	r.Dates = &DateRange{Start: "2026-04", End: "2026-04"}
	r.Budget = &Budget{Amount: 1500, Currency: "EUR"}
	r.Preferences = []string{"beach"}

	c := r.Clone()
	c.Dates.Start = "2027-01"
	c.Budget.Amount = 9
	c.Preferences[0] = "ski"

	assert.Equal(t, "2026-04", r.Dates.Start)
	assert.Equal(t, float64(1500), r.Budget.Amount)
	assert.Equal(t, "beach", r.Preferences[0])
}
