package model

import (
	"strings"
	"time"
)

// SourceCategory is the category a source was discovered under
type SourceCategory string

const (
	CategoryBudget    SourceCategory = "budget"
	CategoryZoning    SourceCategory = "zoning"
	CategoryProposals SourceCategory = "proposals"
	CategoryAnalytics SourceCategory = "analytics"
)

// Categories lists the source categories in discovery order
var Categories = []SourceCategory{CategoryBudget, CategoryZoning, CategoryProposals, CategoryAnalytics}

// ParseCategory parses a case-insensitive category name
func ParseCategory(s string) (SourceCategory, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// DocumentType is the format of a stored raw document
type DocumentType string

const (
	DocumentHTML DocumentType = "html"
	DocumentPDF  DocumentType = "pdf"
	DocumentRSS  DocumentType = "rss"
	DocumentAPI  DocumentType = "api"
)

// Extension returns the file extension used when storing a document of this type
func (d DocumentType) Extension() string {
	switch d {
	case DocumentHTML:
		return ".html"
	case DocumentPDF:
		return ".pdf"
	case DocumentRSS:
		return ".xml"
	case DocumentAPI:
		return ".json"
	default:
		return ".txt"
	}
}

// DiscoveredSource describes a raw document already downloaded to local storage.
// It is also the line format of the source registry.
type DiscoveredSource struct {
	Title        string         `json:"title"`
	URI          string         `json:"uri"`
	Category     SourceCategory `json:"category"`
	DocumentType DocumentType   `json:"document_type"`
	RetrievedAt  time.Time      `json:"retrieved_at"`
	FileHash     *string        `json:"file_hash"`
	FilePath     *string        `json:"file_path"` // Relative to the data directory
}
