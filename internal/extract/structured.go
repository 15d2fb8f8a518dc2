package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// JSONDecoder reads API payloads as text so the same matchers apply to them
type JSONDecoder struct{}

// NewJSONDecoder creates a new JSON decoder
func NewJSONDecoder() *JSONDecoder {
	return &JSONDecoder{}
}

// Name returns the decoder name
func (d *JSONDecoder) Name() string { return "json" }

// CanHandle checks if this decoder handles the given document type
func (d *JSONDecoder) CanHandle(docType model.DocumentType) bool {
	return docType == model.DocumentAPI
}

// Decode validates the payload and returns it as a string
func (d *JSONDecoder) Decode(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "extract: read %s", path)
	}
	if !gjson.ValidBytes(data) {
		return "", eris.Errorf("extract: invalid json in %s", path)
	}
	return string(data), nil
}

// numericVocabulary lists key fragments whose numeric values become facts, per category
var numericVocabulary = map[model.SourceCategory][]string{
	model.CategoryBudget:    {"budget", "amount", "total", "revenue", "expenditure", "spending", "capital", "operating", "allocation", "cost"},
	model.CategoryZoning:    {"height", "setback", "density", "fsr", "far", "coverage", "lot_area", "storeys"},
	model.CategoryProposals: {"units", "unit_count", "storeys", "floor_area", "applications", "permits"},
	model.CategoryAnalytics: {"population", "growth", "households", "income", "median", "residents"},
}

var categoryFactType = map[model.SourceCategory]model.FactType{
	model.CategoryBudget:    model.FactBudget,
	model.CategoryZoning:    model.FactZoning,
	model.CategoryProposals: model.FactProposal,
	model.CategoryAnalytics: model.FactDemographic,
}

// StructuredFacts walks a JSON payload in document order and emits a fact for every
// numeric leaf whose key matches the category vocabulary. Keys are "json_<path>".
func StructuredFacts(payload string, category model.SourceCategory, regionID, citationID string, opts ...model.FactOption) []model.ExtractedFact {
	vocab := numericVocabulary[category]
	factType, ok := categoryFactType[category]
	if !ok || len(vocab) == 0 || !gjson.Valid(payload) {
		return nil
	}

	var facts []model.ExtractedFact
	n := 0

	var walk func(path, name string, v gjson.Result)
	walk = func(path, name string, v gjson.Result) {
		switch {
		case v.IsObject() || v.IsArray():
			idx := 0
			v.ForEach(func(k, child gjson.Result) bool {
				childName := name
				var seg string
				if v.IsArray() {
					seg = fmt.Sprint(idx)
					idx++
				} else {
					seg = k.String()
					childName = seg
				}
				childPath := seg
				if path != "" {
					childPath = path + "." + seg
				}
				walk(childPath, childName, child)
				return true
			})
		case v.Type == gjson.Number:
			if !matchesVocabulary(name, vocab) {
				return
			}
			n++
			fact, err := model.NewFact(factID(regionID, citationID, "json", n), regionID, factType,
				"json_"+path, v.Float(), []string{citationID}, opts...)
			if err == nil {
				facts = append(facts, fact)
			}
		}
	}

	walk("", "", gjson.Parse(payload))
	return facts
}

func matchesVocabulary(name string, vocab []string) bool {
	lower := strings.ToLower(name)
	for _, term := range vocab {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
