package model

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// FactType classifies an extracted fact
type FactType string

const (
	FactBudget      FactType = "budget"
	FactZoning      FactType = "zoning"
	FactProposal    FactType = "proposal"
	FactDemographic FactType = "demographic"
	FactDevelopment FactType = "development"
)

var (
	// ErrUncitedFact is returned when a fact carries a value but no citation
	ErrUncitedFact = eris.New("fact has a value but no citations")

	// ErrUnexplainedMissing is returned when a fact has neither a value, a citation nor a missing reason
	ErrUnexplainedMissing = eris.New("fact has no value and no missing reason")
)

// ExtractedFact is a single structured observation taken from one source document.
// Facts are created once by the extractor and never mutated afterwards.
type ExtractedFact struct {
	ID            string    `json:"id"`
	RegionID      string    `json:"region_id"`
	FactType      FactType  `json:"fact_type"`
	Key           string    `json:"key"`
	Value         any       `json:"value"` // string, number, bool, object, list or nil
	Unit          *string   `json:"unit"`
	Timeframe     *string   `json:"timeframe"`
	CitationIDs   []string  `json:"citation_ids"`
	ExtractedAt   time.Time `json:"extracted_at"`
	MissingReason *string   `json:"missing_reason"`
}

// FactOption customizes a fact at construction
type FactOption func(*ExtractedFact)

// WithUnit sets the unit of measurement
func WithUnit(unit string) FactOption {
	return func(f *ExtractedFact) { f.Unit = &unit }
}

// WithTimeframe sets the period the fact refers to (e.g. "2024", "FY2023")
func WithTimeframe(timeframe string) FactOption {
	return func(f *ExtractedFact) {
		if timeframe != "" {
			f.Timeframe = &timeframe
		}
	}
}

// WithMissingReason explains why the fact has no value
func WithMissingReason(reason string) FactOption {
	return func(f *ExtractedFact) { f.MissingReason = &reason }
}

// WithExtractedAt sets the extraction timestamp. Without it the timestamp is zero.
func WithExtractedAt(t time.Time) FactOption {
	return func(f *ExtractedFact) { f.ExtractedAt = t }
}

// NewFact builds a fact and enforces the citation invariant before returning it
func NewFact(id, regionID string, factType FactType, key string, value any, citationIDs []string, opts ...FactOption) (ExtractedFact, error) {
	f := ExtractedFact{
		ID:          id,
		RegionID:    regionID,
		FactType:    factType,
		Key:         key,
		Value:       value,
		CitationIDs: append([]string(nil), citationIDs...),
	}
	for _, opt := range opts {
		opt(&f)
	}
	if err := f.Validate(); err != nil {
		return ExtractedFact{}, err
	}
	return f, nil
}

// Validate checks that a fact with a value is traceable to at least one citation.
// A nil value may omit citations only if MissingReason explains the absence.
func (f ExtractedFact) Validate() error {
	if f.Value != nil && len(f.CitationIDs) == 0 {
		return eris.Wrapf(ErrUncitedFact, "fact %s", f.ID)
	}
	if f.Value == nil && len(f.CitationIDs) == 0 && (f.MissingReason == nil || *f.MissingReason == "") {
		return eris.Wrapf(ErrUnexplainedMissing, "fact %s", f.ID)
	}
	return nil
}

// HasCitations reports whether the fact references at least one citation
func (f ExtractedFact) HasCitations() bool {
	return len(f.CitationIDs) > 0
}

// StringValue returns the value rendered as a string, or "" for nil
func (f ExtractedFact) StringValue() string {
	switch v := f.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// HasValue reports whether the value is present and non-empty.
// Empty strings, zero numbers and false count as absent, matching how
// allocations and distinct-zone counts treat blank matches.
func (f ExtractedFact) HasValue() bool {
	switch v := f.Value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// FilterFacts returns the facts of the given type, preserving order
func FilterFacts(facts []ExtractedFact, factType FactType) []ExtractedFact {
	var out []ExtractedFact
	for _, f := range facts {
		if f.FactType == factType {
			out = append(out, f)
		}
	}
	return out
}

// ValidateFacts validates every fact and returns the first violation
func ValidateFacts(facts []ExtractedFact) error {
	for _, f := range facts {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}
