package intent

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/voyago/travel-concierge/internal/llm"
	"github.com/voyago/travel-concierge/pkg/logging"
)

// Intent is the coarse bucket a user turn falls into. Everything downstream
// branches on it, so unknown is deliberately absent from the wire: the
// classifier always resolves to one of the three concrete intents.
type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentPlanning Intent = "planning"
	IntentOffTopic Intent = "off_topic"
)

// Classifier labels one user message.
type Classifier interface {
	Classify(ctx context.Context, userText string) (Intent, error)
}

// Keyword matching is the deterministic floor of classification. Matches are
// word-bounded so "going" does not read as "go". Planning is checked before
// greeting so "hi, I want to plan a trip" opens as planning.
var (
	planningRE = regexp.MustCompile(`(?i)\b(travel|trip|visit|go|plan|book|flight|hotel|vacation|holiday|itinerary|destination)\b`)
	greetingRE = regexp.MustCompile(`(?i)\b(hello|hi|hey|good morning|good afternoon|good evening|how are you)\b`)
)

// KeywordClassifier is the zero-dependency fallback classifier. It is also the
// primary classifier when no provider is configured.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, userText string) (Intent, error) {
	return classifyByKeywords(userText), nil
}

func classifyByKeywords(userText string) Intent {
	text := strings.ToLower(strings.TrimSpace(userText))
	if text == "" {
		return IntentOffTopic
	}
	if planningRE.MatchString(text) {
		return IntentPlanning
	}
	if greetingRE.MatchString(text) {
		return IntentGreeting
	}
	return IntentOffTopic
}

const classifySystemPrompt = `Classify the user's message for a travel-planning assistant.

Answer with exactly one word:
- greeting: a salutation or pleasantry with no travel content
- planning: anything about trips, destinations, dates, budgets, bookings, or travel logistics
- off_topic: everything else

One word only. No punctuation, no explanation.`

// LLMClassifier asks the configured model first and falls back to keyword
// matching on any provider failure or unparseable answer. A turn is never
// failed for classification reasons.
type LLMClassifier struct {
	client   llm.Client
	model    string
	timeout  time.Duration
	fallback KeywordClassifier
	logger   *logging.Logger
}

func NewLLMClassifier(client llm.Client, model string, timeout time.Duration, logger *logging.Logger) *LLMClassifier {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMClassifier{client: client, model: model, timeout: timeout, logger: logger}
}

func (c *LLMClassifier) Classify(ctx context.Context, userText string) (Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Complete(ctx, llm.Request{
		Model:  c.model,
		System: []string{classifySystemPrompt},
		Messages: []llm.ChatMessage{
			{Role: llm.ChatRoleUser, Content: userText},
		},
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		c.logger.Warn("intent classification fell back to keywords", "error", err)
		return c.fallback.Classify(context.Background(), userText)
	}

	intent, ok := parseIntent(resp.Text)
	if !ok {
		c.logger.Warn("intent classification returned unrecognized label", "label", resp.Text)
		return c.fallback.Classify(context.Background(), userText)
	}
	return intent, nil
}

func parseIntent(s string) (Intent, bool) {
	label := strings.ToLower(strings.TrimSpace(s))
	label = strings.Trim(label, `."'`)
	switch Intent(label) {
	case IntentGreeting, IntentPlanning, IntentOffTopic:
		return Intent(label), true
	default:
		return "", false
	}
}
