package requirements

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ExtractionResult is the transient output of one extractor call. Only its
// accepted effects are persisted, via the merge into TravelRequirements.
type ExtractionResult struct {
	Destination   *StringCandidate
	DateRange     *DateRangeCandidate
	TravelerCount *IntCandidate
	Budget        *BudgetCandidate
	Preferences   []string
}

// CandidateMeta carries the extractor's per-field signals: a confidence hint,
// the source span the value came from, whether the user's phrasing affirms an
// already-known value, and whether it signals an explicit correction.
type CandidateMeta struct {
	Hint       Confidence
	Span       string
	Affirmed   bool
	Correction bool
}

type StringCandidate struct {
	Value string
	CandidateMeta
}

type DateRangeCandidate struct {
	Value DateRange
	CandidateMeta
}

type IntCandidate struct {
	Value int
	CandidateMeta
}

type BudgetCandidate struct {
	Value Budget
	CandidateMeta
}

// Empty reports whether the extraction carried no usable signal at all.
func (r *ExtractionResult) Empty() bool {
	return r == nil ||
		(r.Destination == nil && r.DateRange == nil && r.TravelerCount == nil &&
			r.Budget == nil && len(r.Preferences) == 0)
}

// extractionSchema validates the provider's JSON before any of it reaches the
// merge. Anything that fails validation is treated as a malformed response.
const extractionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "definitions": {
    "meta": {
      "confidence": {"type": "string", "enum": ["tentative", "confirmed"]},
      "span": {"type": ["string", "null"]},
      "affirmed": {"type": "boolean"},
      "correction": {"type": "boolean"}
    }
  },
  "properties": {
    "destination": {
      "type": "object",
      "required": ["value"],
      "additionalProperties": false,
      "properties": {
        "value": {"type": "string", "minLength": 1},
        "confidence": {"type": "string", "enum": ["tentative", "confirmed"]},
        "span": {"type": ["string", "null"]},
        "affirmed": {"type": "boolean"},
        "correction": {"type": "boolean"}
      }
    },
    "date_range": {
      "type": "object",
      "required": ["value"],
      "additionalProperties": false,
      "properties": {
        "value": {
          "type": "object",
          "properties": {
            "start": {"type": "string"},
            "end": {"type": "string"}
          }
        },
        "confidence": {"type": "string", "enum": ["tentative", "confirmed"]},
        "span": {"type": ["string", "null"]},
        "affirmed": {"type": "boolean"},
        "correction": {"type": "boolean"}
      }
    },
    "traveler_count": {
      "type": "object",
      "required": ["value"],
      "additionalProperties": false,
      "properties": {
        "value": {"type": "integer", "minimum": 1},
        "confidence": {"type": "string", "enum": ["tentative", "confirmed"]},
        "span": {"type": ["string", "null"]},
        "affirmed": {"type": "boolean"},
        "correction": {"type": "boolean"}
      }
    },
    "budget": {
      "type": "object",
      "required": ["value"],
      "additionalProperties": false,
      "properties": {
        "value": {
          "type": "object",
          "required": ["amount"],
          "properties": {
            "amount": {"type": "number", "exclusiveMinimum": 0},
            "currency": {"type": "string"}
          }
        },
        "confidence": {"type": "string", "enum": ["tentative", "confirmed"]},
        "span": {"type": ["string", "null"]},
        "affirmed": {"type": "boolean"},
        "correction": {"type": "boolean"}
      }
    },
    "preferences": {
      "type": "object",
      "required": ["value"],
      "additionalProperties": false,
      "properties": {
        "value": {"type": "array", "items": {"type": "string"}},
        "confidence": {"type": "string", "enum": ["tentative", "confirmed"]},
        "span": {"type": ["string", "null"]},
        "affirmed": {"type": "boolean"},
        "correction": {"type": "boolean"}
      }
    }
  }
}`

var extractionSchemaLoader = gojsonschema.NewStringLoader(extractionSchema)

type candidateEnvelope struct {
	Value      json.RawMessage `json:"value"`
	Confidence string          `json:"confidence"`
	Span       *string         `json:"span"`
	Affirmed   bool            `json:"affirmed"`
	Correction bool            `json:"correction"`
}

type extractionEnvelope struct {
	Destination   *candidateEnvelope `json:"destination"`
	DateRange     *candidateEnvelope `json:"date_range"`
	TravelerCount *candidateEnvelope `json:"traveler_count"`
	Budget        *candidateEnvelope `json:"budget"`
	Preferences   *candidateEnvelope `json:"preferences"`
}

func (e *candidateEnvelope) meta() CandidateMeta {
	hint := ConfidenceTentative
	if e.Confidence == string(ConfidenceConfirmed) {
		hint = ConfidenceConfirmed
	}
	span := ""
	if e.Span != nil {
		span = *e.Span
	}
	return CandidateMeta{
		Hint:       hint,
		Span:       span,
		Affirmed:   e.Affirmed,
		Correction: e.Correction,
	}
}

// ParseExtraction validates and decodes raw provider JSON into an
// ExtractionResult with normalized values.
func ParseExtraction(raw []byte) (*ExtractionResult, error) {
	result, err := gojsonschema.Validate(extractionSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("requirements: extraction payload is not valid JSON: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("requirements: extraction payload failed schema validation: %s", strings.Join(details, "; "))
	}

	var envelope extractionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("requirements: failed to decode extraction payload: %w", err)
	}

	out := &ExtractionResult{}

	if envelope.Destination != nil {
		var value string
		if err := json.Unmarshal(envelope.Destination.Value, &value); err != nil {
			return nil, fmt.Errorf("requirements: bad destination value: %w", err)
		}
		if strings.TrimSpace(value) != "" {
			out.Destination = &StringCandidate{Value: strings.TrimSpace(value), CandidateMeta: envelope.Destination.meta()}
		}
	}

	if envelope.DateRange != nil {
		var value DateRange
		if err := json.Unmarshal(envelope.DateRange.Value, &value); err != nil {
			return nil, fmt.Errorf("requirements: bad date_range value: %w", err)
		}
		normalized, ok := normalizeDateRange(value)
		if !ok {
			return nil, errors.New("requirements: date_range value is not a recognizable date")
		}
		out.DateRange = &DateRangeCandidate{Value: normalized, CandidateMeta: envelope.DateRange.meta()}
	}

	if envelope.TravelerCount != nil {
		var value int
		if err := json.Unmarshal(envelope.TravelerCount.Value, &value); err != nil {
			return nil, fmt.Errorf("requirements: bad traveler_count value: %w", err)
		}
		if value > 0 {
			out.TravelerCount = &IntCandidate{Value: value, CandidateMeta: envelope.TravelerCount.meta()}
		}
	}

	if envelope.Budget != nil {
		var value Budget
		if err := json.Unmarshal(envelope.Budget.Value, &value); err != nil {
			return nil, fmt.Errorf("requirements: bad budget value: %w", err)
		}
		if value.Amount > 0 {
			value.Currency = NormalizeCurrency(value.Currency)
			out.Budget = &BudgetCandidate{Value: value, CandidateMeta: envelope.Budget.meta()}
		}
	}

	if envelope.Preferences != nil {
		var value []string
		if err := json.Unmarshal(envelope.Preferences.Value, &value); err != nil {
			return nil, fmt.Errorf("requirements: bad preferences value: %w", err)
		}
		for _, p := range value {
			if strings.TrimSpace(p) != "" {
				out.Preferences = append(out.Preferences, p)
			}
		}
	}

	return out, nil
}
