package safety

import (
	"context"
	"strings"
	"time"

	"github.com/voyago/travel-concierge/pkg/logging"
)

// Direction distinguishes the two gate positions in the turn pipeline.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Canned replies for gated content.
const (
	BlockedInputMessage  = "I can only help with travel planning. Please ask about destinations, accommodations, or travel advice."
	BlockedOutputMessage = "[SENSITIVE DATA REDACTED]"
)

// Verdict is the gate's decision for one piece of text.
type Verdict struct {
	Allowed bool
	// Text is what may continue through the pipeline: the original text when
	// allowed, a redacted form when salvageable, empty when blocked.
	Text string
	// Reasons lists the signals behind a refusal or redaction.
	Reasons []string
	// FallbackUsed is true when the moderation provider was unavailable and
	// the local pattern battery decided instead.
	FallbackUsed bool
}

// Provider is an external moderation service. Implementations must honor ctx
// deadlines; any error defers the decision to the pattern fallback.
type Provider interface {
	Moderate(ctx context.Context, dir Direction, text string) (flagged bool, reasons []string, err error)
}

// Gate checks text crossing the conversation boundary in either direction.
// The external provider gets the first word within a bounded timeout; the
// pattern battery always gets the last one, so a hostile message slips through
// neither on provider outage nor on provider leniency.
type Gate struct {
	provider Provider
	timeout  time.Duration
	logger   *logging.Logger
}

func NewGate(provider Provider, timeout time.Duration, logger *logging.Logger) *Gate {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Gate{provider: provider, timeout: timeout, logger: logger}
}

// Check runs one direction of the gate.
func (g *Gate) Check(ctx context.Context, dir Direction, text string) Verdict {
	providerFlagged, providerReasons, fallback := g.askProvider(ctx, dir, text)

	switch dir {
	case DirectionOut:
		scan := ScanOutput(text)
		if scan.Blocked || providerFlagged {
			return Verdict{
				Allowed:      false,
				Text:         BlockedOutputMessage,
				Reasons:      append(scan.Reasons, providerReasons...),
				FallbackUsed: fallback,
			}
		}
		if scan.Leaked {
			return Verdict{
				Allowed:      true,
				Text:         scan.Sanitized,
				Reasons:      scan.Reasons,
				FallbackUsed: fallback,
			}
		}
		return Verdict{Allowed: true, Text: text, FallbackUsed: fallback}

	default:
		scan := ScanInput(text)
		if scan.Blocked || providerFlagged {
			return Verdict{
				Allowed:      false,
				Text:         BlockedInputMessage,
				Reasons:      append(scan.Reasons, providerReasons...),
				FallbackUsed: fallback,
			}
		}
		return Verdict{Allowed: true, Text: text, FallbackUsed: fallback}
	}
}

// askProvider consults the external moderator. The third return is true when
// the provider could not answer and only local patterns apply.
func (g *Gate) askProvider(ctx context.Context, dir Direction, text string) (bool, []string, bool) {
	if g.provider == nil || strings.TrimSpace(text) == "" {
		return false, nil, g.provider == nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	flagged, reasons, err := g.provider.Moderate(ctx, dir, text)
	if err != nil {
		g.logger.Warn("moderation provider unavailable, using pattern fallback",
			"direction", string(dir), "error", err)
		return false, nil, true
	}
	return flagged, reasons, false
}
