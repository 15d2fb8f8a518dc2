package extract

import (
	"context"

	"github.com/ppiankov/landlock/internal/model"
)

// Decoder turns a stored raw document into plain text for the matchers
type Decoder interface {
	// Name returns the decoder name
	Name() string

	// CanHandle checks if this decoder handles the given document type
	CanHandle(docType model.DocumentType) bool

	// Decode reads the file at path and returns its text
	Decode(ctx context.Context, path string) (string, error)
}

// Registry manages document decoders
type Registry struct {
	decoders []Decoder
}

// NewRegistry creates a registry with the built-in decoders
func NewRegistry(pdf PageReader, maxFeedItems int) *Registry {
	r := &Registry{}

	r.Register(NewHTMLDecoder())
	r.Register(NewPDFDecoder(pdf))
	r.Register(NewFeedDecoder(maxFeedItems))
	r.Register(NewJSONDecoder())

	return r
}

// Register adds a decoder. Later registrations do not override earlier ones.
func (r *Registry) Register(d Decoder) {
	r.decoders = append(r.decoders, d)
}

// FindDecoder returns the first decoder that handles docType, or nil
func (r *Registry) FindDecoder(docType model.DocumentType) Decoder {
	for _, d := range r.decoders {
		if d.CanHandle(docType) {
			return d
		}
	}
	return nil
}
