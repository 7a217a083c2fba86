package requirements

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/voyago/travel-concierge/internal/intent"
	"github.com/voyago/travel-concierge/pkg/logging"
)

// Manager runs the slot-filling dialogue. It owns the merge policy for
// extracted values, the fixed ask-next order, and the completion rule: every
// core slot confirmed, not merely filled.
type Manager struct {
	extractor Extractor
	logger    *logging.Logger
}

func NewManager(extractor Extractor, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{extractor: extractor, logger: logger}
}

// Reply is the manager's outcome for one turn. PendingField is empty once the
// record is complete.
type Reply struct {
	Text             string
	PendingField     Field
	ReadyForHandoff  bool
	ExtractionFailed bool
}

// correctionRE detects phrasing that reopens an already-confirmed value. It
// backstops the extractor's own correction flag so a provider that misses the
// signal cannot lock a wrong value in.
var correctionRE = regexp.MustCompile(`(?i)\b(actually|instead|change|correction|scratch that|rather|switch|make (it|that))\b`)

var slotQuestions = map[Field]string{
	FieldDestination:   "Where would you like to go?",
	FieldDateRange:     "When are you planning to travel?",
	FieldTravelerCount: "How many people will be traveling?",
	FieldBudget:        "What's your total budget for the trip?",
}

const (
	greetingReply = "Hello! I'm your travel planning assistant. I can help you plan a trip. Where would you like to go?"

	offTopicReply = "I'm here to help with travel planning. I can help you pick a destination, dates, and a budget. What trip can I help you plan?"

	extractionFailureReply = "Sorry, I didn't quite catch that."
)

// ProcessTurn applies one user message to the requirements record in place
// and returns what to say next.
func (m *Manager) ProcessTurn(ctx context.Context, reqs *TravelRequirements, userText string, turnIntent intent.Intent) Reply {
	userText = strings.TrimSpace(userText)

	// A blank message is a no-op turn: the record stays as it is and the
	// pending question is repeated. The extractor is never called.
	if userText == "" {
		return m.repeatPending(reqs)
	}

	switch turnIntent {
	case intent.IntentGreeting:
		return m.greet(reqs)
	case intent.IntentOffTopic:
		return m.redirect(reqs)
	}

	// A completed record only reopens on explicit correction phrasing; plain
	// chatter after completion gets the summary again.
	if reqs.Status == StatusComplete && !correctionRE.MatchString(userText) {
		return Reply{Text: summaryReply(reqs), ReadyForHandoff: true}
	}

	extracted, err := m.extractor.Extract(ctx, userText, reqs)
	if err != nil {
		m.logger.Warn("turn extraction failed", "error", err)
		return m.reask(reqs)
	}

	m.merge(reqs, extracted, correctionRE.MatchString(userText))

	if reqs.CoreConfirmed() {
		reqs.Status = StatusComplete
		return Reply{Text: summaryReply(reqs), ReadyForHandoff: true}
	}
	reqs.Status = StatusCollecting

	next, _ := reqs.NextField()
	return Reply{Text: m.ask(reqs, next, extracted), PendingField: next}
}

func (m *Manager) greet(reqs *TravelRequirements) Reply {
	if !reqs.HasAnyData() {
		return Reply{Text: greetingReply, PendingField: FieldDestination}
	}
	next, ok := reqs.NextField()
	if !ok {
		return Reply{Text: summaryReply(reqs), ReadyForHandoff: true}
	}
	return Reply{
		Text:         "Welcome back! Let's keep planning your trip. " + questionFor(reqs, next),
		PendingField: next,
	}
}

func (m *Manager) redirect(reqs *TravelRequirements) Reply {
	if !reqs.HasAnyData() {
		return Reply{Text: offTopicReply, PendingField: FieldDestination}
	}
	next, ok := reqs.NextField()
	if !ok {
		return Reply{Text: "I can only help with travel planning. " + summaryReply(reqs), ReadyForHandoff: true}
	}
	return Reply{
		Text:         "I can only help with travel planning. Let's get back to your trip: " + lowerFirst(questionFor(reqs, next)),
		PendingField: next,
	}
}

// reask repeats the pending question after a failed extraction. The record is
// repeatPending restates the current question without touching the record.
func (m *Manager) repeatPending(reqs *TravelRequirements) Reply {
	if !reqs.HasAnyData() {
		return Reply{Text: slotQuestions[FieldDestination], PendingField: FieldDestination}
	}
	next, ok := reqs.NextField()
	if !ok {
		return Reply{Text: summaryReply(reqs), ReadyForHandoff: true}
	}
	return Reply{Text: questionFor(reqs, next), PendingField: next}
}

// untouched: a turn the extractor could not read never mutates state.
func (m *Manager) reask(reqs *TravelRequirements) Reply {
	next, ok := reqs.NextField()
	if !ok {
		return Reply{Text: extractionFailureReply + " " + summaryReply(reqs), ExtractionFailed: true, ReadyForHandoff: reqs.Status == StatusComplete}
	}
	return Reply{
		Text:             extractionFailureReply + " " + questionFor(reqs, next),
		PendingField:     next,
		ExtractionFailed: true,
	}
}

// merge folds one extraction into the record. The policy per slot:
//   - unset: take the value at the extractor's confidence hint
//   - tentative + compatible value (or affirmation): promote to confirmed
//   - tentative + different value: replace, still tentative
//   - confirmed + compatible value: no-op
//   - confirmed + different value: only an explicit correction replaces it,
//     and the replacement drops back to tentative so it must be re-confirmed
//
// Preferences are a monotonic union and never gate completion.
func (m *Manager) merge(reqs *TravelRequirements, ex *ExtractionResult, correctionPhrasing bool) {
	if ex == nil {
		return
	}

	if c := ex.Destination; c != nil {
		same := destinationsEqual(reqs.Destination, c.Value)
		switch reqs.FieldConfidence(FieldDestination) {
		case ConfidenceUnset:
			reqs.Destination = c.Value
			reqs.DestinationConf = c.Hint
		case ConfidenceTentative:
			if same || c.Affirmed {
				reqs.DestinationConf = ConfidenceConfirmed
			} else {
				reqs.Destination = c.Value
				reqs.DestinationConf = ConfidenceTentative
			}
		case ConfidenceConfirmed:
			if !same && (c.Correction || correctionPhrasing) {
				reqs.Destination = c.Value
				reqs.DestinationConf = ConfidenceTentative
			}
		}
	}

	if c := ex.DateRange; c != nil {
		incoming := c.Value
		compatible := rangesCompatible(reqs.Dates, &incoming)
		switch reqs.FieldConfidence(FieldDateRange) {
		case ConfidenceUnset:
			reqs.Dates = &incoming
			reqs.DatesConf = c.Hint
		case ConfidenceTentative:
			if compatible || c.Affirmed {
				reqs.Dates = mergeRangePrecision(reqs.Dates, &incoming)
				reqs.DatesConf = ConfidenceConfirmed
			} else {
				reqs.Dates = &incoming
				reqs.DatesConf = ConfidenceTentative
			}
		case ConfidenceConfirmed:
			if compatible {
				reqs.Dates = mergeRangePrecision(reqs.Dates, &incoming)
			} else if c.Correction || correctionPhrasing {
				reqs.Dates = &incoming
				reqs.DatesConf = ConfidenceTentative
			}
		}
	}

	if c := ex.TravelerCount; c != nil {
		same := reqs.TravelerCount == c.Value
		switch reqs.FieldConfidence(FieldTravelerCount) {
		case ConfidenceUnset:
			reqs.TravelerCount = c.Value
			reqs.TravelerConf = c.Hint
		case ConfidenceTentative:
			if same || c.Affirmed {
				reqs.TravelerConf = ConfidenceConfirmed
			} else {
				reqs.TravelerCount = c.Value
				reqs.TravelerConf = ConfidenceTentative
			}
		case ConfidenceConfirmed:
			if !same && (c.Correction || correctionPhrasing) {
				reqs.TravelerCount = c.Value
				reqs.TravelerConf = ConfidenceTentative
			}
		}
	}

	if c := ex.Budget; c != nil {
		incoming := c.Value
		same := budgetsEqual(reqs.Budget, &incoming)
		switch reqs.FieldConfidence(FieldBudget) {
		case ConfidenceUnset:
			reqs.Budget = &incoming
			reqs.BudgetConf = c.Hint
		case ConfidenceTentative:
			if same || c.Affirmed {
				if incoming.Currency != "" {
					reqs.Budget.Currency = incoming.Currency
				}
				reqs.BudgetConf = ConfidenceConfirmed
			} else {
				reqs.Budget = &incoming
				reqs.BudgetConf = ConfidenceTentative
			}
		case ConfidenceConfirmed:
			if !same && (c.Correction || correctionPhrasing) {
				reqs.Budget = &incoming
				reqs.BudgetConf = ConfidenceTentative
			}
		}
	}

	reqs.AddPreferences(ex.Preferences)
}

// ask builds the next question, acknowledging what this turn just added.
func (m *Manager) ask(reqs *TravelRequirements, next Field, ex *ExtractionResult) string {
	ack := acknowledgement(reqs, ex)
	question := questionFor(reqs, next)
	if ack == "" {
		return question
	}
	return ack + " " + question
}

// questionFor asks an open question for an empty slot and a confirmation
// question for a tentatively held one.
func questionFor(reqs *TravelRequirements, f Field) string {
	if reqs.FieldConfidence(f) != ConfidenceTentative {
		return slotQuestions[f]
	}
	switch f {
	case FieldDestination:
		return fmt.Sprintf("Just to confirm, you'd like to go to %s?", reqs.Destination)
	case FieldDateRange:
		return fmt.Sprintf("Just to confirm, you're traveling %s?", FormatDateRange(reqs.Dates))
	case FieldTravelerCount:
		return fmt.Sprintf("Just to confirm, %d travelers?", reqs.TravelerCount)
	case FieldBudget:
		return fmt.Sprintf("Just to confirm, your budget is %s?", FormatBudget(reqs.Budget))
	}
	return slotQuestions[f]
}

func acknowledgement(reqs *TravelRequirements, ex *ExtractionResult) string {
	if ex.Empty() {
		return ""
	}
	var parts []string
	if ex.Destination != nil {
		parts = append(parts, reqs.Destination)
	}
	if ex.DateRange != nil {
		parts = append(parts, FormatDateRange(reqs.Dates))
	}
	if ex.TravelerCount != nil {
		parts = append(parts, fmt.Sprintf("%d travelers", reqs.TravelerCount))
	}
	if ex.Budget != nil {
		parts = append(parts, "a budget of "+FormatBudget(reqs.Budget))
	}
	if len(parts) == 0 {
		return "Noted."
	}
	return fmt.Sprintf("Got it: %s.", strings.Join(parts, ", "))
}

func summaryReply(reqs *TravelRequirements) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Perfect, I have everything I need: a trip to %s, %s, for %d travelers, with a budget of %s.",
		reqs.Destination, FormatDateRange(reqs.Dates), reqs.TravelerCount, FormatBudget(reqs.Budget))
	if len(reqs.Preferences) > 0 {
		fmt.Fprintf(&b, " Preferences noted: %s.", strings.Join(reqs.Preferences, ", "))
	}
	b.WriteString(" I'm handing this over to our planning team now.")
	return b.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
