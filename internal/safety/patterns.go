package safety

import (
	"regexp"
	"strings"
)

// InputScanResult contains the result of a pattern scan over inbound text.
type InputScanResult struct {
	// Blocked is true if the message should NOT reach the language model.
	Blocked bool
	// Score is a rough heuristic risk score (0.0 = safe, 1.0 = definitely hostile).
	Score float64
	// Reasons lists the detection signals that fired.
	Reasons []string
}

type inputPattern struct {
	re     *regexp.Regexp
	reason string
	weight float64
}

// blockThreshold: messages scoring above this are blocked outright.
const blockThreshold = 0.7

// Direct injection patterns, attempts to override system instructions.
var directInjectionPatterns = []inputPattern{
	{regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above|earlier|your)\s+(instructions?|rules?|prompts?|guidelines?|directives?|programming)`), "direct_injection:ignore_instructions", 0.9},
	{regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above|earlier|your)\s+(instructions?|rules?|prompts?|guidelines?|directives?)`), "direct_injection:disregard_instructions", 0.9},
	{regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|above|earlier|your)\s+(instructions?|rules?|prompts?|guidelines?|directives?)`), "direct_injection:forget_instructions", 0.9},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|my)\s+`), "direct_injection:role_reassignment", 0.7},
	{regexp.MustCompile(`(?i)new\s+role\s*:|new\s+instructions?\s*:|system\s*prompt\s*:|<<\s*sys(tem)?\s*>>`), "direct_injection:new_role", 0.9},
	{regexp.MustCompile(`(?i)(system|safety)\s+override|override\s+(your\s+)?(system|instructions?|rules?|safety|guidelines?)`), "direct_injection:override", 0.8},
	{regexp.MustCompile(`(?i)(pretend|imagine|suppose|assume)\s+(that\s+)?(you\s+)?(are|have|were|don'?t\s+have)\s+(no\s+)?(rules?|restrictions?|limits?|boundaries|guidelines?|filters?|safety)`), "direct_injection:pretend_no_rules", 0.9},
	{regexp.MustCompile(`(?i)do\s+not\s+follow\s+(your|the|any)\s+(rules?|instructions?|guidelines?|safety)`), "direct_injection:do_not_follow", 0.9},
	{regexp.MustCompile(`(?i)bypass\s+(your\s+)?(safety|filters?|restrictions?|guidelines?|rules?|content\s+policy)`), "direct_injection:bypass", 0.8},
	{regexp.MustCompile(`(?i)jailbreak|DAN\s*mode|developer\s*mode|unrestricted\s*mode|god\s*mode`), "direct_injection:jailbreak_keyword", 0.9},
}

// Exfiltration patterns, attempts to extract the system prompt or other
// travelers' data.
var exfiltrationPatterns = []inputPattern{
	{regexp.MustCompile(`(?i)(reveal|show|display|print|output|repeat|tell\s+me|what\s+(is|are))\s+(your\s+)?(system\s+prompt|instructions?|rules?|initial\s+prompt|hidden\s+prompt|system\s+message|original\s+prompt)`), "exfiltration:system_prompt", 0.8},
	{regexp.MustCompile(`(?i)(what|list|show|give|tell)\s+(me\s+)?(all\s+)?(the\s+)?other\s+(traveler|customer|user)('?s)?s?\s+(data|info|names?|numbers?|records?|details?|trips?|bookings?)`), "exfiltration:traveler_data", 0.7},
	{regexp.MustCompile(`(?i)(what|list|show|give|tell)\s+(me\s+)?(the\s+)?(all\s+)?(api|secret|key|token|password|credential|database|env|config)\b`), "exfiltration:credentials", 0.8},
	{regexp.MustCompile(`(?i)\b(api|secret|aws|database|db)\s*(key|token|secret|password|credential)s?\b`), "exfiltration:credentials_keyword", 0.8},
	{regexp.MustCompile(`(?i)repeat\s+(everything|all|the\s+text)\s+(above|before|from\s+the\s+start|from\s+the\s+beginning)`), "exfiltration:repeat_above", 0.7},
}

// Encoding and obfuscation, attempts to sneak payloads past the filters.
var obfuscationPatterns = []inputPattern{
	{regexp.MustCompile(`(?i)base64\s*(encode|decode|:)|\\x[0-9a-fA-F]{2}`), "obfuscation:encoding", 0.5},
	{regexp.MustCompile(`(?i)(translate|convert|encode)\s+(this|the\s+following)\s+(to|into|as)\s+(base64|hex|rot13|binary|morse)`), "obfuscation:encoding_request", 0.4},
	{regexp.MustCompile(`!\[.*\]\(https?://`), "obfuscation:markdown_image", 0.4},
	{regexp.MustCompile(`<\s*(script|img|iframe|object|embed|link|style|svg|form)\b`), "obfuscation:html_injection", 0.6},
}

// Context manipulation, attempts to change the conversation frame.
var contextManipulationPatterns = []inputPattern{
	{regexp.MustCompile(`(?i)(end\s+of\s+)?(system|assistant)\s*(message|prompt|instructions?)\s*[\-=]{2,}`), "context_manipulation:fake_boundary", 0.8},
	{regexp.MustCompile(`(?i)\[/?INST\]|\[/?SYS\]|<\|im_start\|>|<\|im_end\|>|<\|system\|>|<\|user\|>|<\|assistant\|>`), "context_manipulation:special_tokens", 0.9},
	{regexp.MustCompile(`(?i)###\s*(system|instruction|human|assistant|user)\s*:`), "context_manipulation:role_markers", 0.7},
	{regexp.MustCompile(`(?i)the\s+real\s+(instructions?|task|prompt|conversation)\s+(is|starts?|begins?)`), "context_manipulation:real_instructions", 0.8},
}

var allInputPatterns []inputPattern

func init() {
	allInputPatterns = make([]inputPattern, 0, len(directInjectionPatterns)+len(exfiltrationPatterns)+len(obfuscationPatterns)+len(contextManipulationPatterns))
	allInputPatterns = append(allInputPatterns, directInjectionPatterns...)
	allInputPatterns = append(allInputPatterns, exfiltrationPatterns...)
	allInputPatterns = append(allInputPatterns, obfuscationPatterns...)
	allInputPatterns = append(allInputPatterns, contextManipulationPatterns...)
}

// ScanInput analyzes inbound user text with the local pattern battery. It is
// the fallback when the moderation provider is unreachable and a cheap first
// opinion otherwise.
func ScanInput(message string) InputScanResult {
	if strings.TrimSpace(message) == "" {
		return InputScanResult{}
	}

	var reasons []string
	maxWeight := 0.0

	for _, p := range allInputPatterns {
		if p.re.MatchString(message) {
			reasons = append(reasons, p.reason)
			if p.weight > maxWeight {
				maxWeight = p.weight
			}
		}
	}

	// Multiple signals compound: add 0.1 per additional signal, capped at 1.0.
	score := maxWeight
	if len(reasons) > 1 {
		score = maxWeight + float64(len(reasons)-1)*0.1
		if score > 1.0 {
			score = 1.0
		}
	}

	return InputScanResult{
		Blocked: score >= blockThreshold,
		Score:   score,
		Reasons: reasons,
	}
}

// OutputScanResult contains the result of scanning an outbound reply.
type OutputScanResult struct {
	// Leaked is true if the reply contained sensitive material.
	Leaked bool
	// Blocked is true if the reply cannot be salvaged and must be replaced.
	Blocked bool
	// Reasons lists the detection signals that fired.
	Reasons []string
	// Sanitized is the reply with redactable material removed.
	Sanitized string
}

type outputPattern struct {
	re     *regexp.Regexp
	reason string
	block  bool // block entirely rather than redact
}

var outputPatterns = []outputPattern{
	// System prompt / instruction leaks
	{regexp.MustCompile(`(?i)my (system\s+)?prompt\s+(is|says|tells|instructs)`), "leak:system_prompt_disclosure", true},
	{regexp.MustCompile(`(?i)my instructions?\s+(are|say|tell|include|require)`), "leak:instructions_disclosure", true},
	{regexp.MustCompile(`(?i)(here are|these are|the following are)\s+(my )?(system )?(instructions|rules|guidelines|prompts)`), "leak:rules_listing", true},

	// Credential / infrastructure leaks
	{regexp.MustCompile(`(?i)(api[_\s]?key|secret[_\s]?key|access[_\s]?token|bearer\s+token)\s*[:=]\s*\S+`), "leak:credential", false},
	{regexp.MustCompile(`AKIA[A-Z0-9]{16}`), "leak:aws_key", false},
	{regexp.MustCompile(`(?i)(postgres|mysql|redis|mongodb)://\S+`), "leak:database_url", false},
	{regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}:\d{2,5}\b`), "leak:ip_port", false},

	// Other travelers' data must never appear in a reply.
	{regexp.MustCompile(`(?i)(other|another)\s+(traveler|customer|user)'?s?\s+(name|phone|email|trip|booking|itinerary|record)`), "leak:other_traveler_ref", true},
}

var redactableOutputRE = regexp.MustCompile(
	`(?i)(api[_\s]?key|secret[_\s]?key|access[_\s]?token|bearer\s+token)\s*[:=]\s*\S+` +
		`|AKIA[A-Z0-9]{16}` +
		`|(postgres|mysql|redis|mongodb)://\S+` +
		`|\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}:\d{2,5}\b`)

// RedactedPlaceholder replaces redactable spans in an otherwise salvageable reply.
const RedactedPlaceholder = "[SENSITIVE DATA REDACTED]"

// ScanOutput checks an outbound reply for leaks. Redactable spans are
// replaced in Sanitized; unredactable leaks set Blocked.
func ScanOutput(reply string) OutputScanResult {
	if strings.TrimSpace(reply) == "" {
		return OutputScanResult{Sanitized: reply}
	}

	var reasons []string
	blocked := false

	for _, p := range outputPatterns {
		if p.re.MatchString(reply) {
			reasons = append(reasons, p.reason)
			if p.block {
				blocked = true
			}
		}
	}

	if len(reasons) == 0 {
		return OutputScanResult{Sanitized: reply}
	}

	result := OutputScanResult{Leaked: true, Blocked: blocked, Reasons: reasons}
	if !blocked {
		result.Sanitized = strings.TrimSpace(redactableOutputRE.ReplaceAllString(reply, RedactedPlaceholder))
	}
	return result
}
