package score

import (
	"sort"

	"github.com/ppiankov/landlock/internal/model"
)

// citedRatio is the share of facts carrying at least one citation, clamped to [0,1]
func citedRatio(facts []model.ExtractedFact) float64 {
	if len(facts) == 0 {
		return 0
	}
	cited := 0
	for _, f := range facts {
		if f.HasCitations() {
			cited++
		}
	}
	return min(float64(cited)/float64(len(facts)), 1.0)
}

// unionIDs returns the sorted, deduplicated union of id lists. Never nil.
func unionIDs(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, ids := range lists {
		for _, id := range ids {
			if id != "" && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out
}

// backing collects the ids of every fact of a type that carries citations,
// in fact order, plus the union of their citation ids
func backing(facts []model.ExtractedFact, factType model.FactType) (factIDs, citationIDs []string) {
	var cited [][]string
	for _, f := range facts {
		if f.FactType != factType || !f.HasCitations() {
			continue
		}
		factIDs = append(factIDs, f.ID)
		cited = append(cited, f.CitationIDs)
	}
	return factIDs, unionIDs(cited...)
}
