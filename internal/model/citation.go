package model

import (
	"fmt"
	"time"
)

// Citation references one source document backing one or more facts
type Citation struct {
	ID          string    `json:"id"`           // Run-scoped id, e.g. "cite_0001"
	Title       string    `json:"title"`        // Source title
	URI         string    `json:"uri"`          // Source URI
	Locator     *string   `json:"locator"`      // Page, section or anchor reference
	RetrievedAt time.Time `json:"retrieved_at"` // When the source was retrieved
}

// CitationID formats the n-th citation id of a run (1-based)
func CitationID(n int) string {
	return fmt.Sprintf("cite_%04d", n)
}

// CitationIndex maps citation ids to citations
func CitationIndex(citations []Citation) map[string]Citation {
	index := make(map[string]Citation, len(citations))
	for _, c := range citations {
		index[c.ID] = c
	}
	return index
}
