package requirements

// Confidence tracks how much trust a collected field deserves. A field moves
// from unset to tentative when first extracted, and to confirmed only once the
// user's own phrasing backs it up (or a later turn repeats it without
// contradiction).
type Confidence string

const (
	ConfidenceUnset     Confidence = "unset"
	ConfidenceTentative Confidence = "tentative"
	ConfidenceConfirmed Confidence = "confirmed"
)

// Status is the collection lifecycle of one conversation's requirements.
type Status string

const (
	StatusCollecting Status = "collecting"
	StatusComplete   Status = "complete"
)

// Field names the slots the dialogue fills.
type Field string

const (
	FieldDestination   Field = "destination"
	FieldDateRange     Field = "date_range"
	FieldTravelerCount Field = "traveler_count"
	FieldBudget        Field = "budget"
	FieldPreferences   Field = "preferences"
)

// slotOrder is the fixed ask-next priority. Preferences are collected
// opportunistically and never gate completion.
var slotOrder = []Field{FieldDestination, FieldDateRange, FieldTravelerCount, FieldBudget}

// DateRange holds trip dates. Start and End are canonical date tokens and may
// be month-precision ("2026-04") or day-precision ("2026-04-10").
type DateRange struct {
	Start string `json:"start,omitempty" dynamodbav:"start,omitempty"`
	End   string `json:"end,omitempty" dynamodbav:"end,omitempty"`
}

// Budget is a total trip budget in a single currency.
type Budget struct {
	Amount   float64 `json:"amount" dynamodbav:"amount"`
	Currency string  `json:"currency,omitempty" dynamodbav:"currency,omitempty"`
}

// TravelRequirements is the accumulating record for one conversation.
type TravelRequirements struct {
	Destination     string     `json:"destination,omitempty" dynamodbav:"destination,omitempty"`
	DestinationConf Confidence `json:"destination_confidence" dynamodbav:"destinationConf"`

	Dates     *DateRange `json:"date_range,omitempty" dynamodbav:"dateRange,omitempty"`
	DatesConf Confidence `json:"date_range_confidence" dynamodbav:"dateRangeConf"`

	TravelerCount int        `json:"traveler_count,omitempty" dynamodbav:"travelerCount,omitempty"`
	TravelerConf  Confidence `json:"traveler_count_confidence" dynamodbav:"travelerConf"`

	Budget     *Budget    `json:"budget,omitempty" dynamodbav:"budget,omitempty"`
	BudgetConf Confidence `json:"budget_confidence" dynamodbav:"budgetConf"`

	Preferences []string `json:"preferences,omitempty" dynamodbav:"preferences,omitempty"`

	Status Status `json:"status" dynamodbav:"status"`
}

// New returns an empty record in the collecting state.
func New() TravelRequirements {
	return TravelRequirements{
		DestinationConf: ConfidenceUnset,
		DatesConf:       ConfidenceUnset,
		TravelerConf:    ConfidenceUnset,
		BudgetConf:      ConfidenceUnset,
		Status:          StatusCollecting,
	}
}

// FieldConfidence reports the confidence of a scalar slot. Records loaded from
// storage may carry an empty string, which reads as unset.
func (r *TravelRequirements) FieldConfidence(f Field) Confidence {
	var c Confidence
	switch f {
	case FieldDestination:
		c = r.DestinationConf
	case FieldDateRange:
		c = r.DatesConf
	case FieldTravelerCount:
		c = r.TravelerConf
	case FieldBudget:
		c = r.BudgetConf
	default:
		return ConfidenceUnset
	}
	if c == "" {
		return ConfidenceUnset
	}
	return c
}

// CoreConfirmed reports whether every completion-gating slot is confirmed.
func (r *TravelRequirements) CoreConfirmed() bool {
	for _, f := range slotOrder {
		if r.FieldConfidence(f) != ConfidenceConfirmed {
			return false
		}
	}
	return true
}

// NextField returns the highest-priority slot that is not yet confirmed.
func (r *TravelRequirements) NextField() (Field, bool) {
	for _, f := range slotOrder {
		if r.FieldConfidence(f) != ConfidenceConfirmed {
			return f, true
		}
	}
	return "", false
}

// HasAnyData reports whether at least one slot holds a value.
func (r *TravelRequirements) HasAnyData() bool {
	return r.Destination != "" || r.Dates != nil || r.TravelerCount > 0 || r.Budget != nil || len(r.Preferences) > 0
}

// AddPreferences unions new preference strings into the existing set,
// preserving first-seen order. Preferences are never replaced wholesale.
func (r *TravelRequirements) AddPreferences(prefs []string) {
	for _, p := range prefs {
		norm := normalizePreference(p)
		if norm == "" {
			continue
		}
		exists := false
		for _, have := range r.Preferences {
			if normalizePreference(have) == norm {
				exists = true
				break
			}
		}
		if !exists {
			r.Preferences = append(r.Preferences, norm)
		}
	}
}

// Clone returns a deep copy safe to mutate independently.
func (r TravelRequirements) Clone() TravelRequirements {
	out := r
	if r.Dates != nil {
		d := *r.Dates
		out.Dates = &d
	}
	if r.Budget != nil {
		b := *r.Budget
		out.Budget = &b
	}
	if r.Preferences != nil {
		out.Preferences = append([]string(nil), r.Preferences...)
	}
	return out
}
