package requirements

import (
	"fmt"
	"strings"
	"time"
)

// Value comparisons happen on normalized forms so dialogue correctness does
// not hinge on the provider's exact phrasing: parsed dates, canonical
// currency codes, case-folded destinations.

var spaceCollapser = strings.NewReplacer("\t", " ", "\n", " ")

func normalizeDestination(s string) string {
	s = spaceCollapser.Replace(strings.TrimSpace(s))
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.ToLower(s)
}

func destinationsEqual(a, b string) bool {
	return normalizeDestination(a) != "" && normalizeDestination(a) == normalizeDestination(b)
}

func normalizePreference(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var currencySymbols = map[string]string{
	"$":   "USD",
	"us$": "USD",
	"€":   "EUR",
	"£":   "GBP",
	"¥":   "JPY",
	"s$":  "SGD",
	"a$":  "AUD",
}

// NormalizeCurrency maps common symbols to ISO codes and upper-cases the rest.
func NormalizeCurrency(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if code, ok := currencySymbols[s]; ok {
		return code
	}
	return strings.ToUpper(s)
}

func budgetsEqual(a, b *Budget) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Amount != b.Amount {
		return false
	}
	ca, cb := NormalizeCurrency(a.Currency), NormalizeCurrency(b.Currency)
	// A budget stated without a currency agrees with any currency.
	return ca == "" || cb == "" || ca == cb
}

// dateTokenLayouts are the accepted inputs for a single date token, most
// precise first. Canonical output precision follows the matched layout.
var dateTokenLayouts = []struct {
	in  string
	out string
}{
	{"2006-01-02", "2006-01-02"},
	{"January 2, 2006", "2006-01-02"},
	{"January 2 2006", "2006-01-02"},
	{"2 January 2006", "2006-01-02"},
	{"2006-01", "2006-01"},
	{"January 2006", "2006-01"},
	{"Jan 2006", "2006-01"},
	{"2006", "2006"},
}

// normalizeDateToken parses a single date token (possibly partial) into its
// canonical form. Returns false when the token cannot be parsed.
func normalizeDateToken(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateTokenLayouts {
		if t, err := time.Parse(layout.in, s); err == nil {
			return t.Format(layout.out), true
		}
	}
	return "", false
}

// dateTokensCompatible reports whether two canonical tokens refer to the same
// period: equal, or one is a coarser prefix of the other (a month-only token
// covers any day in that month).
func dateTokensCompatible(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if len(a) < len(b) {
		return strings.HasPrefix(b, a)
	}
	return strings.HasPrefix(a, b)
}

// morePreciseToken picks the token with finer precision; ties keep the first.
func morePreciseToken(a, b string) string {
	if len(b) > len(a) {
		return b
	}
	return a
}

// normalizeDateRange canonicalizes both ends of a range. A range with a start
// but no end (e.g. "April 2026") is closed to the same period.
func normalizeDateRange(d DateRange) (DateRange, bool) {
	start, startOK := normalizeDateToken(d.Start)
	end, endOK := normalizeDateToken(d.End)
	if !startOK && !endOK {
		return DateRange{}, false
	}
	if !endOK {
		end = start
	}
	if !startOK {
		start = end
	}
	return DateRange{Start: start, End: end}, true
}

// rangesCompatible reports whether two canonical ranges refer to the same
// trip window, tolerating precision differences on either end.
func rangesCompatible(a, b *DateRange) bool {
	if a == nil || b == nil {
		return false
	}
	return dateTokensCompatible(a.Start, b.Start) && dateTokensCompatible(a.End, b.End)
}

// mergeRangePrecision keeps the finer-grained token on each end when two
// compatible ranges meet.
func mergeRangePrecision(existing, incoming *DateRange) *DateRange {
	if existing == nil {
		return incoming
	}
	if incoming == nil {
		return existing
	}
	return &DateRange{
		Start: morePreciseToken(existing.Start, incoming.Start),
		End:   morePreciseToken(existing.End, incoming.End),
	}
}

// FormatDateRange renders a canonical range for user-facing summaries.
func FormatDateRange(d *DateRange) string {
	if d == nil {
		return ""
	}
	if d.Start == d.End || d.End == "" {
		return d.Start
	}
	return fmt.Sprintf("%s to %s", d.Start, d.End)
}

// FormatBudget renders a budget for user-facing summaries.
func FormatBudget(b *Budget) string {
	if b == nil {
		return ""
	}
	cur := NormalizeCurrency(b.Currency)
	if cur == "" {
		return fmt.Sprintf("%.0f", b.Amount)
	}
	return fmt.Sprintf("%.0f %s", b.Amount, cur)
}
